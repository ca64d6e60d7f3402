package port

import (
	"context"

	"github.com/dreschagin/guild-insights/internal/application/dto"
)

// CommandQueue определяет write-only очередь команд для бота (Port)
type CommandQueue interface {
	// Push записывает команду по пути <root>/<guildID>/<commandID>
	Push(ctx context.Context, guildID, commandID string, command *dto.TicketCommandDTO) (string, error)
}
