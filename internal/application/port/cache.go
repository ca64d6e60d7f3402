package port

import (
	"context"
	"errors"

	"github.com/dreschagin/guild-insights/internal/application/dto"
)

// ErrCacheMiss возвращается, когда в кеше нет отчета для гильдии
var ErrCacheMiss = errors.New("cache miss")

// ReportCache defines the interface for caching the latest report per guild
type ReportCache interface {
	// GetLatest retrieves the latest report of a guild, ErrCacheMiss if absent
	GetLatest(ctx context.Context, guildID string) (*dto.AnalyticsReportDTO, error)

	// SetLatest stores the report as the latest one for its guild
	SetLatest(ctx context.Context, report *dto.AnalyticsReportDTO) error

	// Delete removes the cached report of a guild
	Delete(ctx context.Context, guildID string) error

	// Close closes the cache connection
	Close() error
}
