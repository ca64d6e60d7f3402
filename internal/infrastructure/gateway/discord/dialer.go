package discord

import (
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/dreschagin/guild-insights/internal/application/port"
	"github.com/dreschagin/guild-insights/pkg/logger"
)

const botTokenPrefix = "Bot "

// Интенты, необходимые для полного снимка гильдии
const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildPresences |
	discordgo.IntentsGuildVoiceStates |
	discordgo.IntentsGuildEmojis

// Dialer создает эфемерные сессии discordgo
type Dialer struct {
	logger *logger.Logger
}

// NewDialer создает новый Dialer
func NewDialer(log *logger.Logger) *Dialer {
	return &Dialer{logger: log}
}

// Dial создает сессию, но не открывает ее
func (d *Dialer) Dial(credential, guildID string) (port.GatewayConn, error) {
	token := strings.TrimSpace(credential)
	if token == "" {
		return nil, errors.New("empty bot token")
	}
	if !strings.HasPrefix(token, botTokenPrefix) {
		token = botTokenPrefix + token
	}

	session, err := discordgo.New(token)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = intents
	session.StateEnabled = true
	// одна попытка на запрос, переподключения выполняет вызывающий
	session.ShouldReconnectOnError = false
	session.LogLevel = discordgo.LogError

	return newConn(session, guildID, d.logger), nil
}
