package healthdigest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dreschagin/guild-insights/pkg/logger"
)

// Runner периодически пересчитывает сводку и хранит результат последнего цикла
type Runner struct {
	service  *Service
	log      *logger.Logger
	interval time.Duration

	runMu sync.Mutex

	mu          sync.RWMutex
	startedAt   time.Time
	lastRunAt   time.Time
	lastError   string
	lastSummary *CycleSummary
}

func NewRunner(service *Service, log *logger.Logger, interval time.Duration) *Runner {
	return &Runner{
		service:   service,
		log:       log,
		interval:  interval,
		startedAt: time.Now(),
	}
}

func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// ошибка уже сохранена и залогирована в RunOnce
			_, _ = r.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) RunOnce(ctx context.Context) (*CycleSummary, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	summary, err := r.service.EvaluateLatest(queryCtx)
	runAt := time.Now()

	if err != nil {
		wrappedErr := fmt.Errorf("digest cycle failed: %w", err)
		r.updateFailure(runAt, wrappedErr)
		r.log.Error("Health digest cycle failed", wrappedErr)
		return nil, wrappedErr
	}

	r.updateSuccess(runAt, summary)

	if summary.GuildsTotal == 0 {
		r.log.Warn("Health digest cycle completed with empty analysis history")
		return summary, nil
	}

	r.log.Info(
		"Health digest cycle completed",
		"guilds_total", summary.GuildsTotal,
		"critical_count", summary.CriticalCount,
		"warning_count", summary.WarningCount,
		"stale_count", summary.StaleCount,
		"oldest_analysis_age", summary.OldestAnalysisAge.String(),
	)

	return summary, nil
}

func (r *Runner) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := Snapshot{
		StartedAt: r.startedAt,
		Interval:  r.interval,
		LastRunAt: r.lastRunAt,
		LastError: r.lastError,
	}

	if r.lastSummary != nil {
		copiedSummary := *r.lastSummary
		copiedSummary.Assessments = append([]GuildAssessment(nil), r.lastSummary.Assessments...)
		snapshot.LastSummary = &copiedSummary
	}

	return snapshot
}

func (r *Runner) updateFailure(runAt time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastRunAt = runAt
	r.lastError = err.Error()
}

func (r *Runner) updateSuccess(runAt time.Time, summary *CycleSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastRunAt = runAt
	r.lastError = ""
	r.lastSummary = summary
}
