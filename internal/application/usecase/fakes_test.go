package usecase

import (
	"context"
	"time"

	"github.com/dreschagin/guild-insights/internal/application/dto"
	"github.com/dreschagin/guild-insights/internal/application/port"
	"github.com/dreschagin/guild-insights/internal/domain/entity"
	"github.com/dreschagin/guild-insights/internal/domain/valueobject"
)

type fakeFetcher struct {
	snapshot *entity.GuildSnapshot
	err      error
	calls    int
}

func (f *fakeFetcher) Fetch(_ context.Context, _, _ string) (*entity.GuildSnapshot, error) {
	f.calls++
	return f.snapshot, f.err
}

type panickingAggregator struct{}

func (panickingAggregator) Aggregate(*entity.GuildSnapshot) *entity.GuildAnalytics {
	panic("role without position")
}

type fakeCache struct {
	reports map[string]*dto.AnalyticsReportDTO
	err     error
}

func newFakeCache() *fakeCache {
	return &fakeCache{reports: make(map[string]*dto.AnalyticsReportDTO)}
}

func (c *fakeCache) GetLatest(_ context.Context, guildID string) (*dto.AnalyticsReportDTO, error) {
	if c.err != nil {
		return nil, c.err
	}
	report, ok := c.reports[guildID]
	if !ok {
		return nil, port.ErrCacheMiss
	}
	return report, nil
}

func (c *fakeCache) SetLatest(_ context.Context, report *dto.AnalyticsReportDTO) error {
	if c.err != nil {
		return c.err
	}
	c.reports[report.ServerInfo.ID] = report
	return nil
}

func (c *fakeCache) Delete(_ context.Context, guildID string) error {
	delete(c.reports, guildID)
	return nil
}

func (c *fakeCache) Close() error { return nil }

type fakeHistory struct {
	saved []*entity.AnalysisRecord
	limit int
	err   error
}

func (h *fakeHistory) Save(_ context.Context, record *entity.AnalysisRecord) error {
	if h.err != nil {
		return h.err
	}
	h.saved = append(h.saved, record)
	return nil
}

func (h *fakeHistory) FindByGuild(_ context.Context, guildID string, limit int) ([]*entity.AnalysisRecord, error) {
	h.limit = limit
	if h.err != nil {
		return nil, h.err
	}
	var out []*entity.AnalysisRecord
	for _, r := range h.saved {
		if r.GuildID() == guildID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (h *fakeHistory) DeleteOlderThan(context.Context, int) error { return nil }

type fakeArchive struct {
	keys []string
	err  error
}

func (a *fakeArchive) PutObject(_ context.Context, key, _ string, _ []byte) (string, error) {
	a.keys = append(a.keys, key)
	if a.err != nil {
		return "", a.err
	}
	return "https://archive.example.com/" + key, nil
}

type fakeEvents struct {
	subjects []string
	events   []interface{}
	err      error
}

func (e *fakeEvents) PublishEvent(_ context.Context, subject string, event interface{}) error {
	e.subjects = append(e.subjects, subject)
	e.events = append(e.events, event)
	return e.err
}

func (e *fakeEvents) Close() error { return nil }

type fakeNotifier struct {
	events []*dto.AnalysisCompletedEvent
}

func (n *fakeNotifier) BroadcastAnalysis(event *dto.AnalysisCompletedEvent) {
	n.events = append(n.events, event)
}

func (n *fakeNotifier) ClientCount() int { return 0 }

type fakeMetrics struct {
	batches [][]port.GuildMetric
	err     error
}

func (m *fakeMetrics) PublishBatch(_ context.Context, metrics []port.GuildMetric) error {
	m.batches = append(m.batches, metrics)
	return m.err
}

func (m *fakeMetrics) Flush(context.Context) error { return nil }

type countingObserver struct {
	failed []string
}

func (o *countingObserver) SinkFailed(sink string) {
	o.failed = append(o.failed, sink)
}

func testSnapshot(guildID string) *entity.GuildSnapshot {
	return &entity.GuildSnapshot{
		ID:        guildID,
		Name:      "Test Guild",
		OwnerID:   "1",
		CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Members: []entity.MemberRecord{
			{ID: "1", Username: "owner", Status: valueobject.StatusOnline},
			{ID: "2", Username: "idle", Status: valueobject.StatusIdle},
			{ID: "3", Username: "away", Status: valueobject.StatusOffline},
			{ID: "4", Username: "robot", Bot: true, Status: valueobject.StatusOnline},
		},
		Channels: []entity.ChannelRecord{
			{ID: "10", Name: "general", Kind: valueobject.ChannelText},
		},
	}
}
