package worker

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wishlist-service/internal/events"
)

// EventSource is a broker the relay can subscribe to
type EventSource interface {
	Subscribe(ctx context.Context) (*redis.PubSub, error)
}

// EventSink receives relayed events for local delivery
type EventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

// EventRelay forwards events from the shared broker channel to this
// instance's hub, so subscribers see changes made on any instance
type EventRelay struct {
	source   EventSource
	sink     EventSink
	log      *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
}

// NewEventRelay creates a new relay worker
func NewEventRelay(source EventSource, sink EventSink, log *zap.Logger) *EventRelay {
	return &EventRelay{
		source:   source,
		sink:     sink,
		log:      log.Named("event_relay"),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start subscribes and relays until Stop is called or ctx ends
func (w *EventRelay) Start(ctx context.Context) error {
	defer close(w.done)

	sub, err := w.source.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Close() }()

	w.log.Info("event relay started")
	messages := sub.Channel()

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				w.log.Warn("event relay: subscription closed")
				return nil
			}
			w.relay(ctx, msg)
		case <-w.stopChan:
			w.log.Info("event relay stopped")
			return nil
		case <-ctx.Done():
			w.log.Info("event relay stopped")
			return nil
		}
	}
}

// Stop stops the relay loop and waits for it to exit
func (w *EventRelay) Stop() {
	close(w.stopChan)
	<-w.done
}

func (w *EventRelay) relay(ctx context.Context, msg *redis.Message) {
	event, err := events.Decode([]byte(msg.Payload))
	if err != nil {
		w.log.Warn("event relay: dropping malformed event", zap.Error(err))
		return
	}
	if err := w.sink.Publish(ctx, event); err != nil {
		w.log.Warn("event relay: delivery failed",
			zap.String("type", string(event.Type)),
			zap.Uint64("wishlist_id", event.WishlistID),
			zap.Error(err))
	}
}
