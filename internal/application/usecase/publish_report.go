package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dreschagin/guild-insights/internal/application/dto"
	"github.com/dreschagin/guild-insights/internal/application/port"
	"github.com/dreschagin/guild-insights/internal/domain/entity"
	"github.com/dreschagin/guild-insights/internal/domain/repository"
	"github.com/dreschagin/guild-insights/pkg/logger"
)

// Имена получателей отчета для метрик отказов
const (
	SinkArchive = "archive"
	SinkCache   = "cache"
	SinkHistory = "history"
	SinkEvents  = "events"
	SinkMetrics = "cloudwatch"
)

const defaultPublishTimeout = 30 * time.Second

// SinkObserver получает уведомления об отказах получателей
type SinkObserver interface {
	SinkFailed(sink string)
}

// ReportSinks набор необязательных получателей отчета. Пустое поле отключает получателя.
type ReportSinks struct {
	Cache         port.ReportCache
	History       repository.AnalysisRepository
	Archive       port.ReportStorage
	ArchivePrefix string
	Events        port.EventPublisher
	EventSubject  string
	Notifier      port.NotificationService
	Metrics       port.MetricsPublisher
	Observer      SinkObserver
}

// ReportPublisher рассылает готовый отчет получателям в фоне.
// Ошибки получателей логируются и никогда не доходят до вызывающего.
type ReportPublisher struct {
	sinks   ReportSinks
	timeout time.Duration
	logger  *logger.Logger
	wg      sync.WaitGroup
}

// NewReportPublisher создает публикатор
func NewReportPublisher(sinks ReportSinks, timeout time.Duration, log *logger.Logger) *ReportPublisher {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	if strings.TrimSpace(sinks.EventSubject) == "" {
		sinks.EventSubject = "guild.analysis.completed"
	}
	return &ReportPublisher{
		sinks:   sinks,
		timeout: timeout,
		logger:  log,
	}
}

// Publish запускает рассылку и сразу возвращает управление
func (p *ReportPublisher) Publish(report *entity.GuildAnalytics, result *dto.AnalyticsReportDTO) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		p.publish(ctx, report, result)
	}()
}

// Wait ждет завершения фоновых рассылок, но не дольше ctx
func (p *ReportPublisher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *ReportPublisher) publish(ctx context.Context, report *entity.GuildAnalytics, result *dto.AnalyticsReportDTO) {
	guildID := report.Server.ID
	log := p.logger.With("guild_id", guildID)

	archiveURL := ""
	if p.sinks.Archive != nil {
		url, err := p.archive(ctx, report, result)
		if err != nil {
			p.failed(log, SinkArchive, err)
		} else {
			archiveURL = url
		}
	}

	if p.sinks.Cache != nil {
		if err := p.sinks.Cache.SetLatest(ctx, result); err != nil {
			p.failed(log, SinkCache, err)
		}
	}

	if p.sinks.History != nil {
		if err := p.sinks.History.Save(ctx, entity.NewAnalysisRecord(report, archiveURL)); err != nil {
			p.failed(log, SinkHistory, err)
		}
	}

	event := dto.NewAnalysisCompletedEvent(result, archiveURL)

	if p.sinks.Events != nil {
		if err := p.sinks.Events.PublishEvent(ctx, p.sinks.EventSubject, event); err != nil {
			p.failed(log, SinkEvents, err)
		}
	}

	if p.sinks.Notifier != nil {
		p.sinks.Notifier.BroadcastAnalysis(event)
	}

	if p.sinks.Metrics != nil {
		if err := p.sinks.Metrics.PublishBatch(ctx, guildMetrics(report)); err != nil {
			p.failed(log, SinkMetrics, err)
		}
	}

	log.Debug("Report published", "archive_url", archiveURL)
}

func (p *ReportPublisher) archive(ctx context.Context, report *entity.GuildAnalytics, result *dto.AnalyticsReportDTO) (string, error) {
	body, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	key := ArchiveKey(p.sinks.ArchivePrefix, report.Server.ID, report.AnalyzedAt)
	return p.sinks.Archive.PutObject(ctx, key, "application/json", body)
}

func (p *ReportPublisher) failed(log *logger.Logger, sink string, err error) {
	log.Error("Report sink failed", err, "sink", sink)
	if p.sinks.Observer != nil {
		p.sinks.Observer.SinkFailed(sink)
	}
}

// ArchiveKey строит ключ архива: <prefix>/<guild>/<yyyy>/<mm>/<dd>/<timestamp>_report.json
func ArchiveKey(prefix, guildID string, analyzedAt time.Time) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "reports"
	}

	at := analyzedAt.UTC()
	return fmt.Sprintf("%s/%s/%s/%s_report.json", prefix, guildID, at.Format("2006/01/02"), at.Format("20060102T150405Z"))
}

func guildMetrics(report *entity.GuildAnalytics) []port.GuildMetric {
	guildID := report.Server.ID
	at := report.AnalyzedAt

	return []port.GuildMetric{
		{Name: "MembersTotal", GuildID: guildID, Value: float64(report.Membership.Total), Unit: "count", Timestamp: at},
		{Name: "MembersOnline", GuildID: guildID, Value: float64(report.Engagement.Online), Unit: "count", Timestamp: at},
		{Name: "EngagementPercentage", GuildID: guildID, Value: report.Engagement.EngagementPercentage, Unit: "%", Timestamp: at},
		{Name: "ActivityScore", GuildID: guildID, Value: report.Engagement.ActivityScore, Unit: "None", Timestamp: at},
	}
}
