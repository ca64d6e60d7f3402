package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dreschagin/guild-insights/internal/application/dto"
	"github.com/dreschagin/guild-insights/internal/application/port"
	"github.com/dreschagin/guild-insights/internal/application/session"
	"github.com/dreschagin/guild-insights/internal/application/usecase"
	"github.com/dreschagin/guild-insights/internal/domain/entity"
	"github.com/dreschagin/guild-insights/internal/domain/repository"
	"github.com/dreschagin/guild-insights/internal/domain/service"
	"github.com/dreschagin/guild-insights/internal/domain/valueobject"
	wsInfra "github.com/dreschagin/guild-insights/internal/infrastructure/notification/websocket"
	"github.com/dreschagin/guild-insights/internal/infrastructure/observability/metrics"
	"github.com/dreschagin/guild-insights/internal/interfaces/http/handler"
	"github.com/dreschagin/guild-insights/internal/interfaces/http/middleware"
	"github.com/dreschagin/guild-insights/pkg/config"
	"github.com/dreschagin/guild-insights/pkg/logger"
)

const (
	testToken      = "test-token"
	testGuildID    = "100"
	hangingGuildID = "200"
	testOrigin     = "http://localhost:8080"
)

// scriptedConn отдает ready сразу после Open, если гильдия не помечена как зависшая
type scriptedConn struct {
	mu      sync.Mutex
	ready   func()
	guild   *entity.GuildSnapshot
	hang    bool
	closeCh chan struct{}
	once    sync.Once
}

func (c *scriptedConn) Open() error {
	if c.hang {
		return nil
	}
	c.mu.Lock()
	fn := c.ready
	c.mu.Unlock()
	go fn()
	return nil
}

func (c *scriptedConn) Close() error {
	c.once.Do(func() { close(c.closeCh) })
	return nil
}

func (c *scriptedConn) OnReady(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = fn
}

func (c *scriptedConn) OnFailure(func(error)) {}

func (c *scriptedConn) Guild(id string) (*entity.GuildSnapshot, error) {
	if c.guild == nil || c.guild.ID != id {
		return nil, port.ErrGuildNotFound
	}
	return c.guild, nil
}

type scriptedDialer struct {
	guilds map[string]*entity.GuildSnapshot
}

func (d *scriptedDialer) Dial(credential, guildID string) (port.GatewayConn, error) {
	if credential == "rejected" {
		return nil, errors.New("authentication failed")
	}
	return &scriptedConn{
		guild:   d.guilds[guildID],
		hang:    guildID == hangingGuildID,
		closeCh: make(chan struct{}),
	}, nil
}

type memoryHistory struct {
	mu      sync.Mutex
	records []*entity.AnalysisRecord
}

var _ repository.AnalysisRepository = (*memoryHistory)(nil)

func (r *memoryHistory) Save(_ context.Context, record *entity.AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *memoryHistory) FindByGuild(_ context.Context, guildID string, limit int) ([]*entity.AnalysisRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*entity.AnalysisRecord, 0)
	for _, record := range r.records {
		if record.GuildID() == guildID {
			result = append(result, record)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].AnalyzedAt().After(result[j].AnalyzedAt())
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *memoryHistory) DeleteOlderThan(context.Context, int) error { return nil }

type memoryCache struct {
	mu      sync.Mutex
	reports map[string]*dto.AnalyticsReportDTO
}

func (c *memoryCache) GetLatest(_ context.Context, guildID string) (*dto.AnalyticsReportDTO, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	report, ok := c.reports[guildID]
	if !ok {
		return nil, port.ErrCacheMiss
	}
	return report, nil
}

func (c *memoryCache) SetLatest(_ context.Context, report *dto.AnalyticsReportDTO) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[report.ServerInfo.ID] = report
	return nil
}

func (c *memoryCache) Delete(_ context.Context, guildID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.reports, guildID)
	return nil
}

func (c *memoryCache) Close() error { return nil }

type staticUsers struct{}

func (staticUsers) CurrentUser(_ context.Context, accessToken string) (*dto.DiscordUserDTO, error) {
	if accessToken != "discord-oauth" {
		return nil, port.ErrUnauthorized
	}
	return &dto.DiscordUserDTO{ID: "555", Username: "alice"}, nil
}

type memoryQueue struct {
	mu       sync.Mutex
	commands map[string]*dto.TicketCommandDTO
}

func (q *memoryQueue) Push(_ context.Context, guildID, commandID string, command *dto.TicketCommandDTO) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	path := "/commands/" + guildID + "/" + commandID
	q.commands[path] = command
	return path, nil
}

type testEnv struct {
	server    *httptest.Server
	hub       *wsInfra.Hub
	publisher *usecase.ReportPublisher
	queue     *memoryQueue
}

type testOptions struct {
	authEnabled bool
	analyzeRPS  float64
	burst       int
}

func newTestServer(t *testing.T, opts testOptions) *testEnv {
	t.Helper()

	log := logger.New("error")
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	dialer := &scriptedDialer{guilds: map[string]*entity.GuildSnapshot{
		testGuildID: testSnapshot(testGuildID),
	}}
	manager := session.NewManager(dialer, session.Config{
		ReadyTimeout:  100 * time.Millisecond,
		TeardownGrace: 50 * time.Millisecond,
		MaxSessions:   2,
	}, log).WithObserver(m)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := wsInfra.NewHub(log)
	go hub.Run(ctx)

	cache := &memoryCache{reports: make(map[string]*dto.AnalyticsReportDTO)}
	history := &memoryHistory{}
	queue := &memoryQueue{commands: make(map[string]*dto.TicketCommandDTO)}

	publisher := usecase.NewReportPublisher(usecase.ReportSinks{
		Cache:    cache,
		History:  history,
		Notifier: hub,
		Observer: m,
	}, time.Second, log)

	analyzeUC := usecase.NewAnalyzeGuildUseCase(manager, service.NewSnapshotAggregator(), publisher, log)
	latestUC := usecase.NewGetLatestReportUseCase(cache, log)
	historyUC := usecase.NewGetAnalysisHistoryUseCase(history, log)
	submitUC := usecase.NewSubmitCommandUseCase(staticUsers{}, queue, log)

	security := config.SecurityConfig{
		AuthEnabled:    opts.authEnabled,
		AuthToken:      testToken,
		AllowedOrigins: []string{testOrigin},
	}

	rps, burst := opts.analyzeRPS, opts.burst
	if rps == 0 {
		rps, burst = 1000, 1000
	}

	router := NewRouter(
		handler.NewGuildAPIHandler(analyzeUC, latestUC, historyUC, log),
		handler.NewCommandAPIHandler(submitUC, log),
		handler.NewWebSocketHandler(hub, security.AllowedOrigins, middleware.AuthConfig{
			Enabled:     security.AuthEnabled,
			BearerToken: security.AuthToken,
		}, log),
		handler.NewHealthHandler(map[string]handler.HealthCheck{
			"hub": func(context.Context) error { return nil },
		}),
		middleware.NewIPRateLimiter(rps, burst),
		Observability{
			Middleware:  m.Middleware,
			Handler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{DisableCompression: true}),
			RateLimited: m.RateLimited,
		},
		security,
		log,
	)

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)

	return &testEnv{server: server, hub: hub, publisher: publisher, queue: queue}
}

func testSnapshot(guildID string) *entity.GuildSnapshot {
	members := make([]entity.MemberRecord, 0, 10)
	statuses := []valueobject.PresenceStatus{
		valueobject.StatusOnline,
		valueobject.StatusOnline,
		valueobject.StatusIdle,
		valueobject.StatusDND,
		valueobject.StatusOffline,
		valueobject.StatusOffline,
		valueobject.StatusOffline,
		valueobject.StatusOffline,
	}
	for i, status := range statuses {
		members = append(members, entity.MemberRecord{ID: strconv.Itoa(i + 1), Username: "user", Status: status})
	}
	members = append(members, entity.MemberRecord{ID: "90", Username: "bot", Bot: true, Status: valueobject.StatusOnline})

	return &entity.GuildSnapshot{
		ID:          guildID,
		Name:        "E2E Guild",
		OwnerID:     "1",
		OwnerName:   "user",
		CreatedAt:   time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC),
		PremiumTier: 2,
		Features:    []string{"BANNER", "COMMUNITY"},
		Members:     members,
		Channels: []entity.ChannelRecord{
			{ID: "11", Name: "general", Position: 0, Kind: valueobject.ChannelText},
			{ID: "12", Name: "Lobby", Position: 1, Kind: valueobject.ChannelVoice, Occupants: 2},
		},
		Roles: []entity.RoleRecord{
			{ID: guildID, Name: "@everyone", IsDefault: true, MemberCount: 9},
			{ID: "21", Name: "Mods", Position: 3, MemberCount: 2},
		},
		Emojis: []entity.EmojiRecord{
			{ID: "31", Name: "wave", URL: "https://cdn.example.com/31.png"},
		},
	}
}

func TestE2EHealthAndMetrics(t *testing.T) {
	env := newTestServer(t, testOptions{})
	client := env.server.Client()

	for _, path := range []string{"/healthz", "/readyz"} {
		resp := doRequest(t, client, http.MethodGet, env.server.URL+path, nil, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, resp.StatusCode)
		}
		if resp.Header.Get(middleware.RequestIDHeader) == "" {
			t.Fatalf("expected request id header for %s", path)
		}
	}

	resp := doRequest(t, client, http.MethodGet, env.server.URL+"/metrics", nil, nil)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "guild_insights_requests_total") {
		t.Fatal("expected request counter in /metrics output")
	}
}

func TestE2EAnalyzeGuild(t *testing.T) {
	env := newTestServer(t, testOptions{})
	client := env.server.Client()

	resp := doRequest(t, client, http.MethodPost, env.server.URL+"/api/v1/guilds/analyze",
		jsonBody(t, map[string]string{"token": "bot-token", "guild_id": testGuildID}), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for analyze, got %d", resp.StatusCode)
	}

	var report dto.AnalyticsReportDTO
	decodeBody(t, resp, &report)

	if report.ServerInfo.ID != testGuildID || report.ServerInfo.Owner == nil {
		t.Fatalf("unexpected server info: %+v", report.ServerInfo)
	}
	if report.Members.Total != 9 || report.Members.Bots != 1 {
		t.Fatalf("unexpected members: %+v", report.Members)
	}
	if report.Engagement.Online != 2 || report.Engagement.EngagementPercentage != 25 || report.Engagement.HealthStatus != "moderate" {
		t.Fatalf("unexpected engagement: %+v", report.Engagement)
	}
	if report.Emojis.Limit != 150 || report.Emojis.AvailableSlots != 149 {
		t.Fatalf("unexpected emojis: %+v", report.Emojis)
	}
	if len(report.Roles.TopRoles) != 1 || report.Roles.TopRoles[0].Name != "Mods" {
		t.Fatalf("unexpected roles: %+v", report.Roles)
	}

	waitPublished(t, env)

	latest := doRequest(t, client, http.MethodGet, env.server.URL+"/api/v1/guilds/"+testGuildID+"/report/latest", nil, nil)
	if latest.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for latest report, got %d", latest.StatusCode)
	}
	var cached dto.AnalyticsReportDTO
	decodeBody(t, latest, &cached)
	if cached.ServerInfo.Name != "E2E Guild" {
		t.Fatalf("unexpected cached report: %+v", cached.ServerInfo)
	}

	historyResp := doRequest(t, client, http.MethodGet, env.server.URL+"/api/v1/guilds/"+testGuildID+"/history?limit=5", nil, nil)
	if historyResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for history, got %d", historyResp.StatusCode)
	}
	var history dto.AnalysisHistoryDTO
	decodeBody(t, historyResp, &history)
	if history.Count != 1 || history.Items[0].HealthStatus != "moderate" {
		t.Fatalf("unexpected history: %+v", history)
	}

	missing := doRequest(t, client, http.MethodGet, env.server.URL+"/api/v1/guilds/777/report/latest", nil, nil)
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown guild report, got %d", missing.StatusCode)
	}
}

func TestE2EAnalyzeErrors(t *testing.T) {
	env := newTestServer(t, testOptions{})
	client := env.server.Client()

	tests := []struct {
		name       string
		body       *bytes.Buffer
		wantStatus int
		wantError  string
	}{
		{"malformed body", bytes.NewBufferString("{"), http.StatusBadRequest, "JSON"},
		{"missing token", jsonBody(t, map[string]string{"guild_id": testGuildID}), http.StatusBadRequest, "required"},
		{"unknown guild", jsonBody(t, map[string]string{"token": "bot-token", "guild_id": "999"}), http.StatusOK, "not found"},
		{"timeout", jsonBody(t, map[string]string{"token": "bot-token", "guild_id": hangingGuildID}), http.StatusInternalServerError, "Timed out"},
		{"rejected credential", jsonBody(t, map[string]string{"token": "rejected", "guild_id": testGuildID}), http.StatusInternalServerError, "connect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, client, http.MethodPost, env.server.URL+"/api/v1/guilds/analyze", tt.body, nil)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}

			var payload map[string]string
			decodeBody(t, resp, &payload)
			if !strings.Contains(payload["error"], tt.wantError) {
				t.Fatalf("expected error containing %q, got %q", tt.wantError, payload["error"])
			}
		})
	}
}

func TestE2EAuthProtectsReadEndpoints(t *testing.T) {
	env := newTestServer(t, testOptions{authEnabled: true})
	client := env.server.Client()
	url := env.server.URL + "/api/v1/guilds/" + testGuildID + "/history"

	unauthorized := doRequest(t, client, http.MethodGet, url, nil, nil)
	unauthorized.Body.Close()
	if unauthorized.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", unauthorized.StatusCode)
	}

	authorized := doRequest(t, client, http.MethodGet, url, nil, map[string]string{
		"Authorization": "Bearer " + testToken,
	})
	authorized.Body.Close()
	if authorized.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", authorized.StatusCode)
	}
}

func TestE2ECommands(t *testing.T) {
	env := newTestServer(t, testOptions{})
	client := env.server.Client()
	url := env.server.URL + "/api/v1/commands"

	body := map[string]any{
		"guild_id":     testGuildID,
		"channel_name": "support",
		"embed":        map[string]string{"title": "Help", "color": "#00ff00"},
		"embed_fields": `[{"name":"Priority","value":"high"}]`,
	}

	resp := doRequest(t, client, http.MethodPost, url, jsonBody(t, body), map[string]string{
		"Authorization": "Bearer discord-oauth",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created dto.SubmitCommandResponse
	decodeBody(t, resp, &created)
	if len(created.CommandID) != 8 || created.Path != "/commands/"+testGuildID+"/"+created.CommandID {
		t.Fatalf("unexpected response: %+v", created)
	}

	env.queue.mu.Lock()
	cmd := env.queue.commands[created.Path]
	env.queue.mu.Unlock()
	if cmd == nil || cmd.RequesterID != "555" || cmd.Action != "create_ticket" || len(cmd.Embed.Fields) != 1 {
		t.Fatalf("unexpected queued command: %+v", cmd)
	}

	tests := []struct {
		name       string
		headers    map[string]string
		body       map[string]any
		wantStatus int
	}{
		{"missing token", nil, body, http.StatusBadRequest},
		{"rejected token", map[string]string{"Authorization": "Bearer nope"}, body, http.StatusUnauthorized},
		{"invalid fields", map[string]string{"Authorization": "Bearer discord-oauth"}, map[string]any{"guild_id": testGuildID, "embed_fields": "{"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, client, http.MethodPost, url, jsonBody(t, tt.body), tt.headers)
			resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestE2EAnalyzeRateLimit(t *testing.T) {
	env := newTestServer(t, testOptions{analyzeRPS: 0.001, burst: 1})
	client := env.server.Client()

	statuses := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		resp := doRequest(t, client, http.MethodPost, env.server.URL+"/api/v1/guilds/analyze",
			jsonBody(t, map[string]string{"token": "bot-token", "guild_id": "999"}), nil)
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusTooManyRequests {
		t.Fatalf("expected [200 429], got %v", statuses)
	}
}

func TestE2EWebSocketFeed(t *testing.T) {
	env := newTestServer(t, testOptions{})

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws?guild_id=" + testGuildID
	header := http.Header{"Origin": []string{testOrigin}}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()
	resp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client was not registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	analyze := doRequest(t, env.server.Client(), http.MethodPost, env.server.URL+"/api/v1/guilds/analyze",
		jsonBody(t, map[string]string{"token": "bot-token", "guild_id": testGuildID}), nil)
	analyze.Body.Close()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}

	var message struct {
		Type string                     `json:"type"`
		Data dto.AnalysisCompletedEvent `json:"data"`
	}
	if err := conn.ReadJSON(&message); err != nil {
		t.Fatalf("read websocket message: %v", err)
	}

	if message.Type != dto.AnalysisCompletedEventType || message.Data.GuildID != testGuildID {
		t.Fatalf("unexpected message: %+v", message)
	}
}

func TestE2EWebSocketRejectsForeignOrigin(t *testing.T) {
	env := newTestServer(t, testOptions{})

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": []string{"https://evil.example.com"}})
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}

func waitPublished(t *testing.T, env *testEnv) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := env.publisher.Wait(ctx); err != nil {
		t.Fatalf("report publishing did not finish: %v", err)
	}
}

func jsonBody(t *testing.T, payload any) *bytes.Buffer {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewBuffer(raw)
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func doRequest(t *testing.T, client *http.Client, method, url string, body *bytes.Buffer, headers map[string]string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = body
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}
