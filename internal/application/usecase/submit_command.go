package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dreschagin/guild-insights/internal/application/dto"
	"github.com/dreschagin/guild-insights/internal/application/port"
	"github.com/dreschagin/guild-insights/pkg/logger"
	"github.com/google/uuid"
)

const createTicketAction = "create_ticket"

// ErrUnauthorized Discord отклонил токен пользователя
var ErrUnauthorized = errors.New("unauthorized")

// SubmitCommandUseCase ставит команду create_ticket в очередь бота от имени пользователя
type SubmitCommandUseCase struct {
	users  port.UserResolver
	queue  port.CommandQueue
	newID  func() string
	now    func() time.Time
	logger *logger.Logger
}

// NewSubmitCommandUseCase создает новый use case
func NewSubmitCommandUseCase(users port.UserResolver, queue port.CommandQueue, logger *logger.Logger) *SubmitCommandUseCase {
	return &SubmitCommandUseCase{
		users:  users,
		queue:  queue,
		newID:  newCommandID,
		now:    time.Now,
		logger: logger,
	}
}

// Execute выполняет постановку команды
func (uc *SubmitCommandUseCase) Execute(ctx context.Context, accessToken string, req dto.SubmitCommandRequest) (*dto.SubmitCommandResponse, error) {
	accessToken = strings.TrimSpace(accessToken)
	guildID := strings.TrimSpace(req.GuildID)

	if accessToken == "" {
		return nil, fmt.Errorf("%w: access token is required", ErrInvalidInput)
	}
	if !guildIDRegex.MatchString(guildID) {
		return nil, fmt.Errorf("%w: guild_id must be a numeric id", ErrInvalidInput)
	}

	fields, err := parseEmbedFields(req.EmbedFields)
	if err != nil {
		return nil, err
	}

	user, err := uc.users.CurrentUser(ctx, accessToken)
	if err != nil {
		if errors.Is(err, port.ErrUnauthorized) {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		uc.logger.Error("Failed to resolve requester", err, "guild_id", guildID)
		return nil, fmt.Errorf("failed to resolve requester: %w", err)
	}

	command := &dto.TicketCommandDTO{
		Action:      createTicketAction,
		RequesterID: user.ID,
		ChannelName: strings.TrimSpace(req.ChannelName),
		CategoryID:  strings.TrimSpace(req.CategoryID),
		Topic:       strings.TrimSpace(req.Topic),
		Embed: dto.CommandEmbedDTO{
			EmbedDTO: req.Embed,
			Fields:   fields,
		},
		CreatedAt: uc.now().UnixMilli(),
	}

	commandID := uc.newID()
	path, err := uc.queue.Push(ctx, guildID, commandID, command)
	if err != nil {
		uc.logger.Error("Failed to queue command", err, "guild_id", guildID)
		return nil, fmt.Errorf("failed to queue command: %w", err)
	}

	uc.logger.Info("Command submitted", "guild_id", guildID, "command_id", commandID, "requester_id", user.ID)

	return &dto.SubmitCommandResponse{
		CommandID: commandID,
		Path:      path,
	}, nil
}

// parseEmbedFields разбирает JSON-массив полей. Пустая строка дает пустой список.
func parseEmbedFields(raw string) ([]map[string]interface{}, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []map[string]interface{}{}, nil
	}

	var fields []map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("%w: embed_fields must be a JSON array of objects", ErrInvalidInput)
	}
	if fields == nil {
		fields = []map[string]interface{}{}
	}
	return fields, nil
}

func newCommandID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
