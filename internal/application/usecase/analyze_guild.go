package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dreschagin/guild-insights/internal/application/dto"
	"github.com/dreschagin/guild-insights/internal/domain/entity"
	"github.com/dreschagin/guild-insights/pkg/logger"
)

var guildIDRegex = regexp.MustCompile(`^[0-9]{1,20}$`)

// SnapshotFetcher получает снимок гильдии через эфемерную сессию (session.Manager)
type SnapshotFetcher interface {
	Fetch(ctx context.Context, credential, guildID string) (*entity.GuildSnapshot, error)
}

// Aggregator строит отчет из снимка (service.SnapshotAggregator)
type Aggregator interface {
	Aggregate(snapshot *entity.GuildSnapshot) *entity.GuildAnalytics
}

// AnalyzeGuildCommand входные данные анализа
type AnalyzeGuildCommand struct {
	Token   string
	GuildID string
}

// AnalyzeGuildUseCase открывает сессию, строит отчет и отдает его публикатору
type AnalyzeGuildUseCase struct {
	fetcher    SnapshotFetcher
	aggregator Aggregator
	publisher  *ReportPublisher
	logger     *logger.Logger
}

// NewAnalyzeGuildUseCase создает новый use case. publisher может быть nil.
func NewAnalyzeGuildUseCase(
	fetcher SnapshotFetcher,
	aggregator Aggregator,
	publisher *ReportPublisher,
	logger *logger.Logger,
) *AnalyzeGuildUseCase {
	return &AnalyzeGuildUseCase{
		fetcher:    fetcher,
		aggregator: aggregator,
		publisher:  publisher,
		logger:     logger,
	}
}

// Execute выполняет анализ. Ошибки сессии возвращаются как *session.Error.
func (uc *AnalyzeGuildUseCase) Execute(ctx context.Context, cmd AnalyzeGuildCommand) (*dto.AnalyticsReportDTO, error) {
	token := strings.TrimSpace(cmd.Token)
	guildID := strings.TrimSpace(cmd.GuildID)

	if token == "" {
		return nil, fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	if guildID == "" {
		return nil, fmt.Errorf("%w: guild_id is required", ErrInvalidInput)
	}
	if !guildIDRegex.MatchString(guildID) {
		return nil, fmt.Errorf("%w: guild_id must be a numeric id", ErrInvalidInput)
	}

	snapshot, err := uc.fetcher.Fetch(ctx, token, guildID)
	if err != nil {
		return nil, err
	}

	report, err := uc.aggregate(snapshot)
	if err != nil {
		uc.logger.Error("Failed to aggregate snapshot", err, "guild_id", guildID)
		return nil, err
	}

	result := dto.FromGuildAnalytics(report)

	uc.logger.Info("Guild analyzed",
		"guild_id", guildID,
		"members", report.Membership.Total,
		"health", report.Engagement.Health.String(),
	)

	if uc.publisher != nil {
		uc.publisher.Publish(report, result)
	}

	return result, nil
}

func (uc *AnalyzeGuildUseCase) aggregate(snapshot *entity.GuildSnapshot) (report *entity.GuildAnalytics, err error) {
	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = fmt.Errorf("%w: %v", ErrAggregationFault, r)
		}
	}()

	report = uc.aggregator.Aggregate(snapshot)
	if report == nil {
		return nil, fmt.Errorf("%w: empty report", ErrAggregationFault)
	}
	return report, nil
}
