package repository

import (
	"context"

	"github.com/dreschagin/guild-insights/internal/domain/entity"
)

// AnalysisRepository определяет интерфейс для хранения истории анализов (Port)
// Реализация будет в Infrastructure слое
type AnalysisRepository interface {
	// Save сохраняет сводку одного анализа
	Save(ctx context.Context, record *entity.AnalysisRecord) error

	// FindByGuild возвращает последние анализы гильдии, новые первыми
	FindByGuild(ctx context.Context, guildID string, limit int) ([]*entity.AnalysisRecord, error)

	// DeleteOlderThan удаляет записи старше указанного количества дней (для retention policy)
	DeleteOlderThan(ctx context.Context, days int) error
}
