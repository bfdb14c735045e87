package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wishlist-service/internal/events"
)

const publishTimeout = 2 * time.Second

// notifier publishes events after a change has been committed. Delivery is
// best effort: a failed publish is logged and never undoes the change.
type notifier struct {
	publisher EventPublisher
	log       *zap.Logger
}

func newNotifier(publisher EventPublisher, log *zap.Logger) notifier {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return notifier{publisher: publisher, log: log}
}

func (n notifier) publish(ctx context.Context, typ events.Type, wishlistID, itemID uint64, at time.Time) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := events.Event{Type: typ, WishlistID: wishlistID, ItemID: itemID, At: at.UTC()}
	if err := n.publisher.Publish(ctx, event); err != nil {
		n.log.Warn("event publish failed",
			zap.String("type", string(typ)),
			zap.Uint64("wishlist_id", wishlistID),
			zap.Error(err))
	}
}
