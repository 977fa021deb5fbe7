// Package events publishes transfer workflow events. Publishing is
// best-effort: a broker outage never fails the request that triggered
// the event.
package events

import (
	"context"

	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/logger"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/messaging"
)

// Publisher publishes transfer events to the transfer.events exchange
type Publisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewPublisher creates a new transfer event publisher. A nil messaging
// publisher disables event publishing, used when RabbitMQ is not
// configured.
func NewPublisher(pub *messaging.Publisher, log *logger.Logger) *Publisher {
	return &Publisher{
		publisher: pub,
		logger:    log,
	}
}

func (p *Publisher) publish(ctx context.Context, eventType string, data interface{}) {
	if p == nil || p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Msg("failed to publish event")
	}
}

// SessionCreated publishes a transfer.session.created event
func (p *Publisher) SessionCreated(ctx context.Context, evt messaging.SessionCreatedEvent) {
	p.publish(ctx, messaging.EventSessionCreated, evt)
}

// QCCompleted publishes a transfer.qc.completed event
func (p *Publisher) QCCompleted(ctx context.Context, evt messaging.QCCompletedEvent) {
	p.publish(ctx, messaging.EventQCCompleted, evt)
}

// TransferPosted publishes a transfer.posted event
func (p *Publisher) TransferPosted(ctx context.Context, evt messaging.TransferPostedEvent) {
	p.publish(ctx, messaging.EventTransferPosted, evt)
}

// LabelsGenerated publishes a transfer.labels.generated event
func (p *Publisher) LabelsGenerated(ctx context.Context, evt messaging.LabelsGeneratedEvent) {
	p.publish(ctx, messaging.EventLabelsGenerated, evt)
}
