package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	SubjectMessagePosted       = "message.posted"
	SubjectConversationStarted = "conversation.started"
	SubjectNotificationCreated = "notification.created"
	SubjectListingModerated    = "listing.moderated"
	SubjectBoostPurchased      = "boost.purchased"
)

// Publisher emits domain events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// natsConn is the part of *nats.Conn the publisher uses.
type natsConn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

type NATSPublisher struct {
	conn   natsConn
	prefix string
}

func NewNATSPublisher(url, prefix string, log *zap.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("chezben-api"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subjectFor(subject), payload)
}

func (p *NATSPublisher) subjectFor(subject string) string {
	if p.prefix == "" {
		return subject
	}
	return p.prefix + "." + subject
}

func (p *NATSPublisher) Close() {
	_ = p.conn.Drain()
}

// Noop drops every event; used when NATS is not configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, interface{}) error { return nil }
