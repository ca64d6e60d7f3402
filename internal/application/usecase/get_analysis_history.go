package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/dreschagin/guild-insights/internal/application/dto"
	"github.com/dreschagin/guild-insights/internal/domain/repository"
	"github.com/dreschagin/guild-insights/pkg/logger"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// GetAnalysisHistoryUseCase возвращает историю анализов гильдии, новые первыми
type GetAnalysisHistoryUseCase struct {
	repository repository.AnalysisRepository
	logger     *logger.Logger
}

// NewGetAnalysisHistoryUseCase создает новый use case
func NewGetAnalysisHistoryUseCase(repository repository.AnalysisRepository, logger *logger.Logger) *GetAnalysisHistoryUseCase {
	return &GetAnalysisHistoryUseCase{
		repository: repository,
		logger:     logger,
	}
}

// Execute выполняет получение истории. limit <= 0 означает значение по умолчанию.
func (uc *GetAnalysisHistoryUseCase) Execute(ctx context.Context, guildID string, limit int) (*dto.AnalysisHistoryDTO, error) {
	guildID = strings.TrimSpace(guildID)
	if !guildIDRegex.MatchString(guildID) {
		return nil, fmt.Errorf("%w: guild_id must be a numeric id", ErrInvalidInput)
	}

	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}

	records, err := uc.repository.FindByGuild(ctx, guildID, limit)
	if err != nil {
		uc.logger.Error("Failed to fetch analysis history", err, "guild_id", guildID)
		return nil, fmt.Errorf("failed to fetch analysis history: %w", err)
	}

	uc.logger.Debug("Fetched analysis history", "guild_id", guildID, "count", len(records))

	return &dto.AnalysisHistoryDTO{
		GuildID: guildID,
		Count:   len(records),
		Items:   dto.ToAnalysisRecordDTOs(records),
	}, nil
}
