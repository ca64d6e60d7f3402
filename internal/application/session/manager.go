package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dreschagin/guild-insights/internal/application/port"
	"github.com/dreschagin/guild-insights/internal/domain/entity"
	"github.com/dreschagin/guild-insights/internal/domain/service"
	"github.com/dreschagin/guild-insights/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

const (
	defaultReadyTimeout  = 15 * time.Second
	defaultTeardownGrace = 2 * time.Second
	defaultMaxSessions   = 8
)

// Config параметры Session Manager
type Config struct {
	ReadyTimeout  time.Duration
	TeardownGrace time.Duration
	MaxSessions   int64
}

// Manager открывает одно эфемерное соединение на запрос и ждет готовности состояния.
// Общий ресурс между запросами только пул слотов: при его исчерпании запросы ждут.
type Manager struct {
	dialer    port.GatewayDialer
	validator *service.SnapshotValidator
	pool      *semaphore.Weighted
	timeout   time.Duration
	grace     time.Duration
	observer  Observer
	logger    *logger.Logger
}

// NewManager создает Session Manager
func NewManager(dialer port.GatewayDialer, cfg Config, log *logger.Logger) *Manager {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = defaultReadyTimeout
	}
	if cfg.TeardownGrace <= 0 {
		cfg.TeardownGrace = defaultTeardownGrace
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}

	return &Manager{
		dialer:    dialer,
		validator: service.NewSnapshotValidator(),
		pool:      semaphore.NewWeighted(cfg.MaxSessions),
		timeout:   cfg.ReadyTimeout,
		grace:     cfg.TeardownGrace,
		observer:  noopObserver{},
		logger:    log,
	}
}

// WithObserver подключает наблюдателя за сессиями
func (m *Manager) WithObserver(o Observer) *Manager {
	if o != nil {
		m.observer = o
	}
	return m
}

// Fetch открывает сессию и возвращает снимок гильдии.
// Ошибка всегда *Error. Соединение закрыто до возврата из метода.
func (m *Manager) Fetch(ctx context.Context, credential, guildID string) (*entity.GuildSnapshot, error) {
	queuedAt := time.Now()
	if err := m.pool.Acquire(ctx, 1); err != nil {
		m.observer.QueueWait(time.Since(queuedAt))
		return nil, newError(KindTimeout, err, "no free session slot")
	}
	defer m.pool.Release(1)
	m.observer.QueueWait(time.Since(queuedAt))

	log := m.logger.With("session_id", uuid.New().String(), "guild_id", guildID)

	m.observer.SessionStarted()
	startedAt := time.Now()

	snapshot, err := m.run(ctx, credential, guildID, log)

	outcome := outcomeOf(err)
	m.observer.SessionFinished(outcome, time.Since(startedAt))
	if err != nil {
		log.Warn("Session finished without snapshot", "outcome", outcome, "error", err.Error(), "elapsed", time.Since(startedAt).String())
	} else {
		log.Debug("Session delivered snapshot", "members", len(snapshot.Members), "elapsed", time.Since(startedAt).String())
	}

	return snapshot, err
}

func (m *Manager) run(ctx context.Context, credential, guildID string, log *logger.Logger) (*entity.GuildSnapshot, error) {
	conn, err := m.dialer.Dial(credential, guildID)
	if err != nil {
		return nil, newError(KindConnectFailed, err, "dial gateway")
	}

	s := newSession(conn)
	defer s.teardown(m.grace, log)

	conn.OnReady(func() { s.resolve(signal{kind: signalReady}) })
	conn.OnFailure(func(err error) { s.resolve(signal{kind: signalFailure, err: err}) })

	// дедлайн отсчитывается от открытия соединения
	timer := time.AfterFunc(m.timeout, func() { s.resolve(signal{kind: signalTimeout}) })
	defer timer.Stop()

	go func() {
		if err := conn.Open(); err != nil {
			s.resolve(signal{kind: signalOpenFailed, err: err})
		}
	}()

	var sig signal
	select {
	case sig = <-s.signals:
	case <-ctx.Done():
		s.resolve(signal{kind: signalCancelled, err: ctx.Err()})
		sig = <-s.signals
	}

	switch sig.kind {
	case signalReady:
		return m.lookup(conn, guildID)
	case signalFailure:
		return nil, newError(KindProtocol, sig.err, "gateway reported failure")
	case signalOpenFailed:
		return nil, newError(KindConnectFailed, sig.err, "open gateway connection")
	case signalCancelled:
		return nil, newError(KindTimeout, sig.err, "caller gave up waiting")
	default:
		return nil, newError(KindTimeout, nil, "no ready event within %s", m.timeout)
	}
}

func (m *Manager) lookup(conn port.GatewayConn, guildID string) (*entity.GuildSnapshot, error) {
	snapshot, err := conn.Guild(guildID)
	if errors.Is(err, port.ErrGuildNotFound) {
		return nil, newError(KindNotFound, err, "guild %s is not accessible", guildID)
	}
	if err != nil {
		return nil, newError(KindProtocol, err, "read guild state")
	}
	if err := m.validator.Validate(snapshot); err != nil {
		return nil, newError(KindProtocol, err, "validate guild state")
	}
	if snapshot.ID != guildID {
		return nil, newError(KindProtocol, nil, "gateway returned guild %s instead of %s", snapshot.ID, guildID)
	}
	return snapshot, nil
}

type signalKind int

const (
	signalReady signalKind = iota
	signalFailure
	signalOpenFailed
	signalTimeout
	signalCancelled
)

type signal struct {
	kind signalKind
	err  error
}

// session владеет одним соединением. Разрешается ровно один раз,
// все последующие сигналы игнорируются.
type session struct {
	conn      port.GatewayConn
	resolved  atomic.Bool
	signals   chan signal
	closeOnce sync.Once
}

func newSession(conn port.GatewayConn) *session {
	return &session{
		conn:    conn,
		signals: make(chan signal, 1),
	}
}

// resolve возвращает true, если этот сигнал стал итоговым
func (s *session) resolve(sig signal) bool {
	if !s.resolved.CompareAndSwap(false, true) {
		return false
	}
	s.signals <- sig
	return true
}

// teardown закрывает соединение ровно один раз и ждет не дольше grace
func (s *session) teardown(grace time.Duration, log *logger.Logger) {
	s.closeOnce.Do(func() {
		done := make(chan error, 1)
		go func() { done <- s.conn.Close() }()

		select {
		case err := <-done:
			if err != nil {
				log.Warn("Gateway connection closed with error", "error", err.Error())
			}
		case <-time.After(grace):
			log.Warn("Gateway connection did not close within grace period", "grace", grace.String())
		}
	})
}
