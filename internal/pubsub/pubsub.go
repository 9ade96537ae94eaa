package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher pushes internal billing events onto a topic. Implementations are
// expected to be safe for concurrent use by the services.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg *message.Message) error
	Close() error
}

// Subscriber consumes internal billing events from a topic. The returned
// channel closes when the context is cancelled or the subscriber shuts down.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	Close() error
}

// PubSub is the combined surface the webhook pipeline wires against: services
// publish lifecycle events and the dispatch handler consumes them from the
// same broker.
type PubSub interface {
	Publisher
	Subscriber
}
