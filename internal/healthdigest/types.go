package healthdigest

import "time"

type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// GuildAssessment оценка последнего анализа одной гильдии
type GuildAssessment struct {
	GuildID              string    `json:"guild_id"`
	GuildName            string    `json:"guild_name"`
	Health               string    `json:"health"`
	EngagementPercentage float64   `json:"engagement_percentage"`
	AnalyzedAt           time.Time `json:"analyzed_at"`
	Stale                bool      `json:"stale"`
	Severity             Severity  `json:"severity"`
}

type CycleSummary struct {
	GeneratedAt       time.Time         `json:"generated_at"`
	GuildsTotal       int               `json:"guilds_total"`
	CriticalCount     int               `json:"critical_count"`
	WarningCount      int               `json:"warning_count"`
	StaleCount        int               `json:"stale_count"`
	OldestAnalysisAge time.Duration     `json:"oldest_analysis_age_ns"`
	Assessments       []GuildAssessment `json:"assessments"`
}

type Snapshot struct {
	StartedAt   time.Time     `json:"started_at"`
	Interval    time.Duration `json:"interval_ns"`
	LastRunAt   time.Time     `json:"last_run_at"`
	LastError   string        `json:"last_error,omitempty"`
	LastSummary *CycleSummary `json:"last_summary,omitempty"`
}
