package entity

import (
	"time"

	"github.com/dreschagin/guild-insights/internal/domain/valueobject"
	"github.com/google/uuid"
)

// AnalysisRecord представляет сохраненную сводку одного анализа гильдии (Aggregate Root)
type AnalysisRecord struct {
	id                   string
	guildID              string
	guildName            string
	totalMembers         int
	humans               int
	bots                 int
	online               int
	engagementPercentage float64
	activityScore        float64
	health               valueobject.HealthStatus
	archiveURL           string
	analyzedAt           time.Time
	createdAt            time.Time
}

// NewAnalysisRecord создает запись истории из готового отчета (Factory Method)
func NewAnalysisRecord(report *GuildAnalytics, archiveURL string) *AnalysisRecord {
	return &AnalysisRecord{
		id:                   uuid.New().String(),
		guildID:              report.Server.ID,
		guildName:            report.Server.Name,
		totalMembers:         report.Membership.Total,
		humans:               report.Membership.Humans,
		bots:                 report.Membership.Bots,
		online:               report.Engagement.Online,
		engagementPercentage: report.Engagement.EngagementPercentage,
		activityScore:        report.Engagement.ActivityScore,
		health:               report.Engagement.Health,
		archiveURL:           archiveURL,
		analyzedAt:           report.AnalyzedAt,
		createdAt:            time.Now(),
	}
}

// ReconstructAnalysisRecord восстанавливает запись из хранилища (для Repository)
func ReconstructAnalysisRecord(
	id, guildID, guildName string,
	totalMembers, humans, bots, online int,
	engagementPercentage, activityScore float64,
	health valueobject.HealthStatus,
	archiveURL string,
	analyzedAt, createdAt time.Time,
) *AnalysisRecord {
	return &AnalysisRecord{
		id:                   id,
		guildID:              guildID,
		guildName:            guildName,
		totalMembers:         totalMembers,
		humans:               humans,
		bots:                 bots,
		online:               online,
		engagementPercentage: engagementPercentage,
		activityScore:        activityScore,
		health:               health,
		archiveURL:           archiveURL,
		analyzedAt:           analyzedAt,
		createdAt:            createdAt,
	}
}

func (r *AnalysisRecord) ID() string                    { return r.id }
func (r *AnalysisRecord) GuildID() string               { return r.guildID }
func (r *AnalysisRecord) GuildName() string             { return r.guildName }
func (r *AnalysisRecord) TotalMembers() int             { return r.totalMembers }
func (r *AnalysisRecord) Humans() int                   { return r.humans }
func (r *AnalysisRecord) Bots() int                     { return r.bots }
func (r *AnalysisRecord) Online() int                   { return r.online }
func (r *AnalysisRecord) EngagementPercentage() float64 { return r.engagementPercentage }
func (r *AnalysisRecord) ActivityScore() float64        { return r.activityScore }
func (r *AnalysisRecord) Health() valueobject.HealthStatus {
	return r.health
}
func (r *AnalysisRecord) ArchiveURL() string    { return r.archiveURL }
func (r *AnalysisRecord) AnalyzedAt() time.Time { return r.analyzedAt }
func (r *AnalysisRecord) CreatedAt() time.Time  { return r.createdAt }

// IsStale проверяет, устарела ли запись
func (r *AnalysisRecord) IsStale(threshold time.Duration) bool {
	return time.Since(r.analyzedAt) > threshold
}
