package eventbus

import (
	"context"

	"github.com/rolecatalog/rbac-engine/internal/domain/event"
	"github.com/rolecatalog/rbac-engine/pkg/helpers"
)

// RabbitPublisher delivers role domain events to a durable RabbitMQ
// queue. The audit worker on the other end persists them; this side
// only hands them off.
type RabbitPublisher struct {
	pub *helpers.RabbitPublisher
}

func NewRabbitPublisher(pub *helpers.RabbitPublisher) *RabbitPublisher {
	return &RabbitPublisher{pub: pub}
}

func (p *RabbitPublisher) Publish(ctx context.Context, e event.Event) error {
	if p == nil || p.pub == nil {
		return nil
	}
	return p.pub.PublishJSON(ctx, e)
}

var _ event.Publisher = (*RabbitPublisher)(nil)
