package postgres

import (
	"time"

	"github.com/dreschagin/guild-insights/internal/domain/entity"
	"github.com/dreschagin/guild-insights/internal/domain/valueobject"
)

// AnalysisDBModel представляет запись истории анализов в БД
type AnalysisDBModel struct {
	ID                   string
	GuildID              string
	GuildName            string
	TotalMembers         int
	Humans               int
	Bots                 int
	Online               int
	EngagementPercentage float64
	ActivityScore        float64
	HealthStatus         string
	ArchiveURL           string
	AnalyzedAt           time.Time
	CreatedAt            time.Time
}

// ToDBModel конвертирует Domain Entity в DB Model
func ToDBModel(record *entity.AnalysisRecord) *AnalysisDBModel {
	return &AnalysisDBModel{
		ID:                   record.ID(),
		GuildID:              record.GuildID(),
		GuildName:            record.GuildName(),
		TotalMembers:         record.TotalMembers(),
		Humans:               record.Humans(),
		Bots:                 record.Bots(),
		Online:               record.Online(),
		EngagementPercentage: record.EngagementPercentage(),
		ActivityScore:        record.ActivityScore(),
		HealthStatus:         record.Health().String(),
		ArchiveURL:           record.ArchiveURL(),
		AnalyzedAt:           record.AnalyzedAt(),
		CreatedAt:            record.CreatedAt(),
	}
}

// ToEntity конвертирует DB Model в Domain Entity
func ToEntity(model *AnalysisDBModel) *entity.AnalysisRecord {
	return entity.ReconstructAnalysisRecord(
		model.ID,
		model.GuildID,
		model.GuildName,
		model.TotalMembers,
		model.Humans,
		model.Bots,
		model.Online,
		model.EngagementPercentage,
		model.ActivityScore,
		valueobject.HealthStatus(model.HealthStatus),
		model.ArchiveURL,
		model.AnalyzedAt,
		model.CreatedAt,
	)
}

// ScanAnalysisRow сканирует строку БД в AnalysisDBModel
func ScanAnalysisRow(row interface {
	Scan(dest ...interface{}) error
}) (*AnalysisDBModel, error) {
	var model AnalysisDBModel

	err := row.Scan(
		&model.ID,
		&model.GuildID,
		&model.GuildName,
		&model.TotalMembers,
		&model.Humans,
		&model.Bots,
		&model.Online,
		&model.EngagementPercentage,
		&model.ActivityScore,
		&model.HealthStatus,
		&model.ArchiveURL,
		&model.AnalyzedAt,
		&model.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &model, nil
}
