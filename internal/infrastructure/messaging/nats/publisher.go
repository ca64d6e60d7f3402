package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dreschagin/guild-insights/pkg/logger"
	"github.com/nats-io/nats.go"
)

// NATSPublisher implements EventPublisher for NATS JetStream
type NATSPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewNATSPublisher creates a new NATS publisher
func NewNATSPublisher(natsURL string, log *logger.Logger) (*NATSPublisher, error) {
	// Connect to NATS with retry
	nc, err := nats.Connect(natsURL,
		nats.Name("guild-insights"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err.Error())
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	log.Info("Connected to NATS", "url", natsURL)

	return &NATSPublisher{
		nc:     nc,
		js:     js,
		logger: log,
	}, nil
}

// PublishEvent публикует событие анализа и ждет подтверждения JetStream
// в пределах контекста вызывающего
func (p *NATSPublisher) PublishEvent(ctx context.Context, subject string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	future, err := p.js.PublishAsync(subject, data)
	if err != nil {
		p.logger.Error("Failed to publish event", err, "subject", subject)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	select {
	case <-future.Ok():
	case err := <-future.Err():
		return fmt.Errorf("event was not acknowledged: %w", err)
	case <-ctx.Done():
		return fmt.Errorf("waiting for event ack: %w", ctx.Err())
	}

	p.logger.Debug("Event published", "subject", subject, "size", len(data))

	return nil
}

// Connected сообщает, есть ли активное соединение (для readiness probe)
func (p *NATSPublisher) Connected() bool {
	return p.nc != nil && p.nc.IsConnected()
}

// Close сбрасывает неподтвержденные сообщения и закрывает соединение
func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	p.logger.Info("Closing NATS connection")
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}
