package port

import (
	"context"
	"errors"

	"github.com/dreschagin/guild-insights/internal/application/dto"
)

// ErrUnauthorized возвращается, когда Discord отклонил токен пользователя
var ErrUnauthorized = errors.New("discord rejected the access token")

// UserResolver определяет интерфейс получения пользователя по OAuth токену
type UserResolver interface {
	CurrentUser(ctx context.Context, accessToken string) (*dto.DiscordUserDTO, error)
}
