package service

import (
	"errors"
	"testing"

	"github.com/dreschagin/guild-insights/internal/domain/entity"
	"github.com/dreschagin/guild-insights/internal/domain/valueobject"
)

func TestSnapshotValidator_Validate(t *testing.T) {
	tests := []struct {
		name     string
		snapshot *entity.GuildSnapshot
		wantErr  bool
	}{
		{"nil", nil, true},
		{"missing id", &entity.GuildSnapshot{}, true},
		{"valid empty", &entity.GuildSnapshot{ID: "g"}, false},
		{
			"member without id",
			&entity.GuildSnapshot{ID: "g", Members: []entity.MemberRecord{{Status: valueobject.StatusOnline}}},
			true,
		},
		{
			"unknown status",
			&entity.GuildSnapshot{ID: "g", Members: []entity.MemberRecord{{ID: "m", Status: "invisible"}}},
			true,
		},
		{
			"unknown channel kind",
			&entity.GuildSnapshot{ID: "g", Channels: []entity.ChannelRecord{{ID: "c", Kind: "stage"}}},
			true,
		},
		{
			"valid full",
			&entity.GuildSnapshot{
				ID:       "g",
				Members:  []entity.MemberRecord{{ID: "m", Status: valueobject.StatusIdle}},
				Channels: []entity.ChannelRecord{{ID: "c", Kind: valueobject.ChannelVoice, Occupants: 2}},
				Roles:    []entity.RoleRecord{{ID: "r", MemberCount: 1}},
			},
			false,
		},
	}

	v := NewSnapshotValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.snapshot)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedSnapshot) {
				t.Fatalf("expected ErrMalformedSnapshot, got %v", err)
			}
		})
	}
}
