package dto

import (
	"time"

	"github.com/dreschagin/guild-insights/internal/domain/entity"
)

// AnalysisRecordDTO представляет запись истории анализов
type AnalysisRecordDTO struct {
	ID                   string    `json:"id"`
	GuildID              string    `json:"guild_id"`
	GuildName            string    `json:"guild_name"`
	TotalMembers         int       `json:"total_members"`
	Humans               int       `json:"humans"`
	Bots                 int       `json:"bots"`
	Online               int       `json:"online"`
	EngagementPercentage float64   `json:"engagement_percentage"`
	ActivityScore        float64   `json:"activity_score"`
	HealthStatus         string    `json:"health_status"`
	ArchiveURL           string    `json:"archive_url,omitempty"`
	AnalyzedAt           time.Time `json:"analyzed_at"`
}

// FromAnalysisRecord конвертирует Domain Entity в DTO
func FromAnalysisRecord(record *entity.AnalysisRecord) *AnalysisRecordDTO {
	return &AnalysisRecordDTO{
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
	}
}

// ToAnalysisRecordDTOs конвертирует слайс Entity в слайс DTO
func ToAnalysisRecordDTOs(records []*entity.AnalysisRecord) []*AnalysisRecordDTO {
	dtos := make([]*AnalysisRecordDTO, len(records))
	for i, r := range records {
		dtos[i] = FromAnalysisRecord(r)
	}
	return dtos
}

// AnalysisCompletedEvent публикуется в брокер и в WebSocket после успешного анализа
type AnalysisCompletedEvent struct {
	Type                 string    `json:"type"`
	GuildID              string    `json:"guild_id"`
	GuildName            string    `json:"guild_name"`
	TotalMembers         int       `json:"total_members"`
	Online               int       `json:"online"`
	EngagementPercentage float64   `json:"engagement_percentage"`
	ActivityScore        float64   `json:"activity_score"`
	HealthStatus         string    `json:"health_status"`
	ArchiveURL           string    `json:"archive_url,omitempty"`
	AnalyzedAt           time.Time `json:"analyzed_at"`
}

// AnalysisCompletedEventType тип события для подписчиков
const AnalysisCompletedEventType = "analysis.completed"

// NewAnalysisCompletedEvent создает событие из отчета
func NewAnalysisCompletedEvent(report *AnalyticsReportDTO, archiveURL string) *AnalysisCompletedEvent {
	return &AnalysisCompletedEvent{
		Type:                 AnalysisCompletedEventType,
		GuildID:              report.ServerInfo.ID,
		GuildName:            report.ServerInfo.Name,
		TotalMembers:         report.Members.Total,
		Online:               report.Engagement.Online,
		EngagementPercentage: report.Engagement.EngagementPercentage,
		ActivityScore:        report.Engagement.ActivityScore,
		HealthStatus:         report.Engagement.HealthStatus,
		ArchiveURL:           archiveURL,
		AnalyzedAt:           report.AnalysisTimestamp,
	}
}

// AnalysisHistoryDTO ответ на запрос истории
type AnalysisHistoryDTO struct {
	GuildID string               `json:"guild_id"`
	Count   int                  `json:"count"`
	Items   []*AnalysisRecordDTO `json:"items"`
}
