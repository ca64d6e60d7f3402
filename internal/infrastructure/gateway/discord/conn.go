package discord

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dreschagin/guild-insights/internal/application/port"
	"github.com/dreschagin/guild-insights/internal/domain/entity"
	"github.com/dreschagin/guild-insights/pkg/logger"
)

var errDisconnected = errors.New("gateway disconnected")

// Conn одно соединение с Discord gateway для одной гильдии
type Conn struct {
	session *discordgo.Session
	guildID string
	logger  *logger.Logger

	mu        sync.Mutex
	onReady   func()
	onFailure func(error)
	closed    bool
	removers  []func()
	nonce     string
	readyDone atomic.Bool
}

func newConn(session *discordgo.Session, guildID string, log *logger.Logger) *Conn {
	c := &Conn{
		session: session,
		guildID: guildID,
		logger:  log,
		nonce:   strconv.FormatInt(time.Now().UnixNano(), 36),
	}

	c.removers = append(c.removers,
		session.AddHandler(c.handleReady),
		session.AddHandler(c.handleGuildCreate),
		session.AddHandler(c.handleGuildDelete),
		session.AddHandler(c.handleMembersChunk),
		session.AddHandler(c.handleDisconnect),
	)

	return c
}

func (c *Conn) OnReady(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReady = fn
}

func (c *Conn) OnFailure(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFailure = fn
}

// Open выполняет handshake. Если Close был вызван во время Open,
// соединение закрывается сразу после завершения handshake.
func (c *Conn) Open() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("connection already closed")
	}
	c.mu.Unlock()

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open gateway session: %w", err)
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		c.logger.Debug("Gateway closed during handshake, releasing", "guild_id", c.guildID)
		if err := c.session.Close(); err != nil && !errors.Is(err, discordgo.ErrWSNotFound) {
			return fmt.Errorf("failed to release gateway session: %w", err)
		}
	}

	return nil
}

// Close снимает обработчики и закрывает websocket
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	removers := c.removers
	c.removers = nil
	c.mu.Unlock()

	for _, remove := range removers {
		remove()
	}

	if err := c.session.Close(); err != nil && !errors.Is(err, discordgo.ErrWSNotFound) {
		return fmt.Errorf("failed to close gateway session: %w", err)
	}
	return nil
}

// Guild читает гильдию из state после сигнала готовности
func (c *Conn) Guild(guildID string) (*entity.GuildSnapshot, error) {
	state := c.session.State
	if state == nil {
		return nil, errors.New("state tracking is disabled")
	}

	g, err := state.Guild(guildID)
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return nil, port.ErrGuildNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read guild state: %w", err)
	}

	state.RLock()
	defer state.RUnlock()

	if g.Unavailable {
		return nil, port.ErrGuildNotFound
	}

	return toSnapshot(g)
}

func (c *Conn) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		if g != nil && g.ID == c.guildID {
			// полное состояние придет в GUILD_CREATE
			return
		}
	}
	c.signalReady()
}

func (c *Conn) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Guild == nil || g.ID != c.guildID {
		return
	}

	if g.Large && len(g.Members) < g.MemberCount {
		if err := s.RequestGuildMembers(c.guildID, "", 0, c.nonce, true); err != nil {
			c.signalFailure(fmt.Errorf("request guild members: %w", err))
		}
		return
	}

	c.signalReady()
}

func (c *Conn) handleMembersChunk(_ *discordgo.Session, chunk *discordgo.GuildMembersChunk) {
	if chunk.GuildID != c.guildID || chunk.Nonce != c.nonce {
		return
	}
	if chunk.ChunkIndex == chunk.ChunkCount-1 {
		c.signalReady()
	}
}

func (c *Conn) handleGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Guild != nil && g.ID == c.guildID {
		c.signalReady()
	}
}

func (c *Conn) handleDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	if c.readyDone.Load() {
		return
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if !closed {
		c.signalFailure(errDisconnected)
	}
}

func (c *Conn) signalReady() {
	c.readyDone.Store(true)
	c.mu.Lock()
	fn := c.onReady
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Conn) signalFailure(err error) {
	c.mu.Lock()
	fn := c.onFailure
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}
