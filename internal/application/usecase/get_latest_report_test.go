package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/dreschagin/guild-insights/internal/application/dto"
	"github.com/dreschagin/guild-insights/pkg/logger"
)

func TestGetLatestReportUseCase(t *testing.T) {
	cache := newFakeCache()
	cached := &dto.AnalyticsReportDTO{ServerInfo: dto.ServerInfoDTO{ID: "123"}}
	cache.reports["123"] = cached

	uc := NewGetLatestReportUseCase(cache, logger.New("error"))

	got, err := uc.Execute(context.Background(), "123")
	if err != nil || got != cached {
		t.Fatalf("expected cached report, got %v, %v", got, err)
	}

	if _, err := uc.Execute(context.Background(), "456"); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}

	if _, err := uc.Execute(context.Background(), "x"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	cache.err = errors.New("connection refused")
	if _, err := uc.Execute(context.Background(), "123"); err == nil || errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestGetLatestReportUseCase_NoCache(t *testing.T) {
	uc := NewGetLatestReportUseCase(nil, logger.New("error"))

	if _, err := uc.Execute(context.Background(), "123"); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}
