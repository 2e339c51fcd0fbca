package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mcoot/idgateway/internal/model"
)

// DefaultSubjectPrefix is used when no prefix is configured
const DefaultSubjectPrefix = "idgw"

// conn is the subset of *nats.Conn the publisher needs
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes events as JSON on core NATS subjects
type NATSPublisher struct {
	conn   conn
	prefix string
	logger *slog.Logger
}

// ConnectNATS dials the NATS server at url
func ConnectNATS(url, prefix string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	opts := []nats.Option{
		nats.Name("idgateway"),
		nats.Timeout(5 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(10),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.DrainTimeout(10 * time.Second),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return newNATSPublisher(nc, prefix, logger), nil
}

func newNATSPublisher(c conn, prefix string, logger *slog.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &NATSPublisher{conn: c, prefix: prefix, logger: logger}
}

// UserCreatedSubject returns the subject user-created events are published on
func (p *NATSPublisher) UserCreatedSubject() string {
	return p.prefix + ".user.created"
}

func (p *NATSPublisher) UserCreated(ctx context.Context, rec *model.UserRecord, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(NewUserCreatedEvent(rec, source))
	if err != nil {
		return err
	}

	subject := p.UserCreatedSubject()
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.Debug("event published",
		slog.String("subject", subject),
		slog.String("user_id", string(rec.ID)))
	return nil
}

// Close drains pending messages and closes the connection
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("nats drain failed", slog.String("error", err.Error()))
	}
}

var _ Publisher = (*NATSPublisher)(nil)
