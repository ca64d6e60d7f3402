package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dreschagin/guild-insights/internal/application/session"
	"github.com/dreschagin/guild-insights/internal/domain/service"
	"github.com/dreschagin/guild-insights/pkg/logger"
)

func fixedAggregator() *service.SnapshotAggregator {
	return service.NewSnapshotAggregatorWithClock(func() time.Time {
		return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	})
}

func TestAnalyzeGuildUseCase_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		cmd  AnalyzeGuildCommand
	}{
		{"missing token", AnalyzeGuildCommand{GuildID: "123"}},
		{"blank token", AnalyzeGuildCommand{Token: "   ", GuildID: "123"}},
		{"missing guild", AnalyzeGuildCommand{Token: "t"}},
		{"non numeric guild", AnalyzeGuildCommand{Token: "t", GuildID: "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{}
			uc := NewAnalyzeGuildUseCase(fetcher, fixedAggregator(), nil, logger.New("error"))

			_, err := uc.Execute(context.Background(), tt.cmd)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if fetcher.calls != 0 {
				t.Fatal("no session must be opened for invalid input")
			}
		})
	}
}

func TestAnalyzeGuildUseCase_SessionErrorsPassThrough(t *testing.T) {
	fetcher := &fakeFetcher{err: session.ErrNotFound}
	uc := NewAnalyzeGuildUseCase(fetcher, fixedAggregator(), nil, logger.New("error"))

	_, err := uc.Execute(context.Background(), AnalyzeGuildCommand{Token: "t", GuildID: "123"})
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestAnalyzeGuildUseCase_AggregationFault(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: testSnapshot("123")}
	uc := NewAnalyzeGuildUseCase(fetcher, panickingAggregator{}, nil, logger.New("error"))

	_, err := uc.Execute(context.Background(), AnalyzeGuildCommand{Token: "t", GuildID: "123"})
	if !errors.Is(err, ErrAggregationFault) {
		t.Fatalf("expected ErrAggregationFault, got %v", err)
	}
	if !strings.Contains(err.Error(), "role without position") {
		t.Fatalf("expected panic value in error, got %v", err)
	}
}

func TestAnalyzeGuildUseCase_SuccessPublishesReport(t *testing.T) {
	cache := newFakeCache()
	history := &fakeHistory{}
	archive := &fakeArchive{}
	events := &fakeEvents{}
	notifier := &fakeNotifier{}
	metrics := &fakeMetrics{}

	publisher := NewReportPublisher(ReportSinks{
		Cache:         cache,
		History:       history,
		Archive:       archive,
		ArchivePrefix: "reports",
		Events:        events,
		Notifier:      notifier,
		Metrics:       metrics,
	}, time.Second, logger.New("error"))

	fetcher := &fakeFetcher{snapshot: testSnapshot("123")}
	uc := NewAnalyzeGuildUseCase(fetcher, fixedAggregator(), publisher, logger.New("error"))

	report, err := uc.Execute(context.Background(), AnalyzeGuildCommand{Token: " t ", GuildID: "123"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if report.Members.Total != 4 || report.Members.Bots != 1 {
		t.Fatalf("unexpected members: %+v", report.Members)
	}
	if report.Engagement.Online != 1 || report.Engagement.Idle != 1 || report.Engagement.Offline != 1 {
		t.Fatalf("unexpected engagement: %+v", report.Engagement)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := publisher.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if cache.reports["123"] != report {
		t.Fatal("expected report to be cached as latest")
	}

	wantKey := "reports/123/2026/03/04/20260304T050607Z_report.json"
	if len(archive.keys) != 1 || archive.keys[0] != wantKey {
		t.Fatalf("unexpected archive keys: %v", archive.keys)
	}

	if len(history.saved) != 1 || history.saved[0].ArchiveURL() != "https://archive.example.com/"+wantKey {
		t.Fatalf("unexpected history: %+v", history.saved)
	}

	if len(events.subjects) != 1 || events.subjects[0] != "guild.analysis.completed" {
		t.Fatalf("unexpected event subjects: %v", events.subjects)
	}

	if len(notifier.events) != 1 || notifier.events[0].GuildID != "123" {
		t.Fatalf("unexpected notifications: %+v", notifier.events)
	}

	if len(metrics.batches) != 1 || len(metrics.batches[0]) != 4 {
		t.Fatalf("unexpected metric batches: %+v", metrics.batches)
	}
}
