package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dreschagin/guild-insights/internal/domain/entity"
	_ "github.com/lib/pq"
)

const analysisColumns = `id, guild_id, guild_name, total_members, humans, bots, online,
	engagement_percentage, activity_score, health_status, archive_url, analyzed_at, created_at`

// PostgresAnalysisRepository реализует repository.AnalysisRepository для PostgreSQL
type PostgresAnalysisRepository struct {
	db *sql.DB
}

// NewPostgresAnalysisRepository создает новый PostgreSQL repository
func NewPostgresAnalysisRepository(db *sql.DB) *PostgresAnalysisRepository {
	return &PostgresAnalysisRepository{
		db: db,
	}
}

// Save сохраняет сводку анализа
func (r *PostgresAnalysisRepository) Save(ctx context.Context, record *entity.AnalysisRecord) error {
	model := ToDBModel(record)

	query := `
		INSERT INTO analysis_history (` + analysisColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		model.ID,
		model.GuildID,
		model.GuildName,
		model.TotalMembers,
		model.Humans,
		model.Bots,
		model.Online,
		model.EngagementPercentage,
		model.ActivityScore,
		model.HealthStatus,
		model.ArchiveURL,
		model.AnalyzedAt,
		model.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis record: %w", err)
	}

	return nil
}

// FindByGuild возвращает последние анализы гильдии
func (r *PostgresAnalysisRepository) FindByGuild(ctx context.Context, guildID string, limit int) ([]*entity.AnalysisRecord, error) {
	query := `
		SELECT ` + analysisColumns + `
		FROM analysis_history
		WHERE guild_id = $1
		ORDER BY analyzed_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis history: %w", err)
	}

	return collectRecords(rows)
}

// LatestPerGuild возвращает последний анализ каждой гильдии
func (r *PostgresAnalysisRepository) LatestPerGuild(ctx context.Context) ([]*entity.AnalysisRecord, error) {
	query := `
		SELECT DISTINCT ON (guild_id) ` + analysisColumns + `
		FROM analysis_history
		ORDER BY guild_id, analyzed_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest analyses: %w", err)
	}

	return collectRecords(rows)
}

func collectRecords(rows *sql.Rows) ([]*entity.AnalysisRecord, error) {
	defer rows.Close()

	var records []*entity.AnalysisRecord
	for rows.Next() {
		model, err := ScanAnalysisRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		records = append(records, ToEntity(model))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}

// DeleteOlderThan удаляет записи старше указанного количества дней
func (r *PostgresAnalysisRepository) DeleteOlderThan(ctx context.Context, days int) error {
	query := `
		DELETE FROM analysis_history
		WHERE analyzed_at < NOW() - ($1 || ' days')::interval
	`

	if _, err := r.db.ExecContext(ctx, query, days); err != nil {
		return fmt.Errorf("failed to delete old analysis records: %w", err)
	}

	return nil
}
