package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dreschagin/guild-insights/internal/application/dto"
	"github.com/dreschagin/guild-insights/internal/application/port"
	"github.com/dreschagin/guild-insights/pkg/logger"
)

// ErrReportNotFound для гильдии еще нет сохраненного отчета
var ErrReportNotFound = errors.New("report not found")

// GetLatestReportUseCase возвращает последний отчет гильдии из кеша
type GetLatestReportUseCase struct {
	cache  port.ReportCache
	logger *logger.Logger
}

// NewGetLatestReportUseCase создает новый use case. cache может быть nil.
func NewGetLatestReportUseCase(cache port.ReportCache, logger *logger.Logger) *GetLatestReportUseCase {
	return &GetLatestReportUseCase{
		cache:  cache,
		logger: logger,
	}
}

// Execute выполняет получение отчета
func (uc *GetLatestReportUseCase) Execute(ctx context.Context, guildID string) (*dto.AnalyticsReportDTO, error) {
	guildID = strings.TrimSpace(guildID)
	if !guildIDRegex.MatchString(guildID) {
		return nil, fmt.Errorf("%w: guild_id must be a numeric id", ErrInvalidInput)
	}

	if uc.cache == nil {
		return nil, ErrReportNotFound
	}

	report, err := uc.cache.GetLatest(ctx, guildID)
	if err != nil {
		if errors.Is(err, port.ErrCacheMiss) {
			uc.logger.Debug("Cache miss for latest report", "guild_id", guildID)
			return nil, ErrReportNotFound
		}
		uc.logger.Error("Failed to read latest report", err, "guild_id", guildID)
		return nil, fmt.Errorf("failed to read latest report: %w", err)
	}

	return report, nil
}
