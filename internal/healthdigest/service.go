package healthdigest

import (
	"context"
	"fmt"
	"time"

	"github.com/dreschagin/guild-insights/internal/domain/entity"
	"github.com/dreschagin/guild-insights/internal/domain/valueobject"
)

// LatestSource отдает последний анализ каждой гильдии (postgres.PostgresAnalysisRepository)
type LatestSource interface {
	LatestPerGuild(ctx context.Context) ([]*entity.AnalysisRecord, error)
}

// Service оценивает состояние гильдий по истории анализов
type Service struct {
	source     LatestSource
	staleAfter time.Duration
	now        func() time.Time
}

func NewService(source LatestSource, staleAfter time.Duration) *Service {
	return &Service{
		source:     source,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (s *Service) EvaluateLatest(ctx context.Context) (*CycleSummary, error) {
	records, err := s.source.LatestPerGuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest analyses: %w", err)
	}

	summary := &CycleSummary{
		GeneratedAt: s.now(),
		Assessments: make([]GuildAssessment, 0, len(records)),
	}

	for _, record := range records {
		stale := s.staleAfter > 0 && record.IsStale(s.staleAfter)

		assessment := GuildAssessment{
			GuildID:              record.GuildID(),
			GuildName:            record.GuildName(),
			Health:               record.Health().String(),
			EngagementPercentage: record.EngagementPercentage(),
			AnalyzedAt:           record.AnalyzedAt(),
			Stale:                stale,
			Severity:             severityFor(record.Health(), stale),
		}
		summary.Assessments = append(summary.Assessments, assessment)

		summary.GuildsTotal++
		switch assessment.Severity {
		case SeverityCritical:
			summary.CriticalCount++
		case SeverityWarning:
			summary.WarningCount++
		}
		if stale {
			summary.StaleCount++
		}

		age := summary.GeneratedAt.Sub(record.AnalyzedAt())
		if age > summary.OldestAnalysisAge {
			summary.OldestAnalysisAge = age
		}
	}

	return summary, nil
}

// severityFor: low engagement критично, moderate или устаревший анализ требуют внимания
func severityFor(health valueobject.HealthStatus, stale bool) Severity {
	switch {
	case health == valueobject.HealthLow:
		return SeverityCritical
	case health == valueobject.HealthModerate || stale:
		return SeverityWarning
	default:
		return SeverityOK
	}
}
