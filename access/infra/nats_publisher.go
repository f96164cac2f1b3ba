package infra

import (
	"context"
	"encoding/json"
	"fmt"

	"public-audio-gateway/access/domain"

	"github.com/nats-io/nats.go"
)

const DefaultPlaySubject = "audio.asset.played"

// NatsPublisher publica PlayEvent em JSON num subject NATS (core, sem JetStream).
type NatsPublisher struct {
	nc      *nats.Conn
	subject string
}

func NewNatsPublisher(nc *nats.Conn, subject string) *NatsPublisher {
	if subject == "" {
		subject = DefaultPlaySubject
	}
	return &NatsPublisher{nc: nc, subject: subject}
}

func (p *NatsPublisher) PublishPlay(_ context.Context, ev domain.PlayEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal play event: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish play event to '%s': %w", p.subject, err)
	}
	return nil
}
