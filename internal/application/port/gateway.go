package port

import (
	"errors"

	"github.com/dreschagin/guild-insights/internal/domain/entity"
)

// ErrGuildNotFound возвращается из GatewayConn.Guild, если гильдии нет в полученном состоянии
var ErrGuildNotFound = errors.New("guild not found in gateway state")

// GatewayConn одно эфемерное соединение с real-time gateway (Port)
//
// Обработчики OnReady и OnFailure регистрируются до Open и могут быть вызваны
// из любой горутины, в том числе несколько раз.
type GatewayConn interface {
	// Open устанавливает соединение. Может блокироваться до завершения handshake.
	Open() error

	// Close освобождает соединение. Должен быть безопасен при гонке с Open.
	Close() error

	// OnReady регистрирует обработчик сигнала готовности состояния
	OnReady(fn func())

	// OnFailure регистрирует обработчик ошибки протокола
	OnFailure(fn func(err error))

	// Guild возвращает снимок гильдии из полученного состояния
	Guild(guildID string) (*entity.GuildSnapshot, error)
}

// GatewayDialer создает соединения для конкретного credential и гильдии
type GatewayDialer interface {
	Dial(credential, guildID string) (GatewayConn, error)
}
