package s3

import "testing"

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name      string
		endpoint  string
		pathStyle bool
		want      string
	}{
		{
			name:      "path style",
			endpoint:  "http://localhost:9000",
			pathStyle: true,
			want:      "http://localhost:9000/reports/guilds/1/2026/10/18/report%20one.json",
		},
		{
			name:     "virtual hosted",
			endpoint: "https://storage.yandexcloud.net",
			want:     "https://reports.storage.yandexcloud.net/guilds/1/2026/10/18/report%20one.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PublicURL(tt.endpoint, "reports", "guilds/1/2026/10/18/report one.json", tt.pathStyle)
			if got != tt.want {
				t.Fatalf("PublicURL() = %s, want %s", got, tt.want)
			}
		})
	}
}
