package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/dreschagin/guild-insights/internal/domain/entity"
	"github.com/dreschagin/guild-insights/pkg/logger"
)

func TestGetAnalysisHistoryUseCase_Limits(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"default", 0, 20},
		{"negative", -5, 20},
		{"custom", 50, 50},
		{"capped", 1000, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := &fakeHistory{}
			uc := NewGetAnalysisHistoryUseCase(history, logger.New("error"))

			res, err := uc.Execute(context.Background(), "123", tt.limit)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if history.limit != tt.wantLimit {
				t.Fatalf("expected limit %d, got %d", tt.wantLimit, history.limit)
			}
			if res.Items == nil || res.Count != 0 {
				t.Fatalf("expected empty non-nil items, got %+v", res)
			}
		})
	}
}

func TestGetAnalysisHistoryUseCase_Records(t *testing.T) {
	report := fixedAggregator().Aggregate(testSnapshot("123"))
	history := &fakeHistory{saved: []*entity.AnalysisRecord{
		entity.NewAnalysisRecord(report, "https://archive/1"),
	}}

	uc := NewGetAnalysisHistoryUseCase(history, logger.New("error"))

	res, err := uc.Execute(context.Background(), "123", 10)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Count != 1 || res.Items[0].GuildName != "Test Guild" || res.Items[0].ArchiveURL != "https://archive/1" {
		t.Fatalf("unexpected history: %+v", res.Items)
	}
}

func TestGetAnalysisHistoryUseCase_Errors(t *testing.T) {
	uc := NewGetAnalysisHistoryUseCase(&fakeHistory{err: errors.New("db down")}, logger.New("error"))

	if _, err := uc.Execute(context.Background(), "abc", 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := uc.Execute(context.Background(), "123", 10); err == nil {
		t.Fatal("expected repository error")
	}
}
