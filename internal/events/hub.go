package events

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrHubStopped is returned by Publish once Run has exited.
var ErrHubStopped = errors.New("event hub stopped")

// Hub fans events out to the clients watching each wishlist.
// All subscription state is owned by the Run goroutine.
type Hub struct {
	subscribers map[uint64]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	events     chan Event
	counts     chan countRequest

	done  chan struct{}
	log   *zap.Logger
	gauge Gauge
}

// Gauge tracks the number of open subscriptions.
type Gauge interface {
	Inc()
	Dec()
}

type countRequest struct {
	wishlistID uint64
	reply      chan int
}

// NewHub creates a Hub. Call Run to start it.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[uint64]map[*Client]struct{}),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		events:      make(chan Event, 100),
		counts:      make(chan countRequest),
		done:        make(chan struct{}),
		log:         log.Named("hub"),
	}
}

// TrackWith reports subscription changes to g. Call before Run.
func (h *Hub) TrackWith(g Gauge) {
	h.gauge = g
}

// Run processes registrations and events until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for wishlistID, subs := range h.subscribers {
				for client := range subs {
					close(client.send)
					h.track(-1)
				}
				delete(h.subscribers, wishlistID)
			}
			h.log.Info("ws: hub stopped")
			return

		case client := <-h.register:
			subs := h.subscribers[client.wishlistID]
			if subs == nil {
				subs = make(map[*Client]struct{})
				h.subscribers[client.wishlistID] = subs
			}
			subs[client] = struct{}{}
			h.track(1)
			h.log.Debug("ws: client subscribed",
				zap.Uint64("wishlist_id", client.wishlistID),
				zap.Int("subscribers", len(subs)))

		case client := <-h.unregister:
			h.drop(client)

		case event := <-h.events:
			h.dispatch(event)

		case req := <-h.counts:
			req.reply <- len(h.subscribers[req.wishlistID])
		}
	}
}

func (h *Hub) drop(client *Client) {
	subs, ok := h.subscribers[client.wishlistID]
	if !ok {
		return
	}
	if _, ok := subs[client]; !ok {
		return
	}
	delete(subs, client)
	close(client.send)
	h.track(-1)
	if len(subs) == 0 {
		delete(h.subscribers, client.wishlistID)
	}
	h.log.Debug("ws: client unsubscribed", zap.Uint64("wishlist_id", client.wishlistID))
}

func (h *Hub) track(delta int) {
	if h.gauge == nil {
		return
	}
	if delta > 0 {
		h.gauge.Inc()
	} else {
		h.gauge.Dec()
	}
}

func (h *Hub) dispatch(event Event) {
	subs, ok := h.subscribers[event.WishlistID]
	if !ok {
		return
	}

	message, err := event.Encode()
	if err != nil {
		h.log.Error("ws: failed to marshal event", zap.Error(err))
		return
	}

	for client := range subs {
		select {
		case client.send <- message:
		default:
			h.log.Warn("ws: client buffer full, dropping subscriber", zap.Uint64("wishlist_id", event.WishlistID))
			h.drop(client)
		}
	}

	// the feed ends with the wishlist
	if event.Type == WishlistDeleted {
		for client := range subs {
			h.drop(client)
		}
	}
}

// Publish queues an event for local subscribers.
func (h *Hub) Publish(ctx context.Context, event Event) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}

	select {
	case h.events <- event:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribers returns how many clients are watching a wishlist.
func (h *Hub) Subscribers(ctx context.Context, wishlistID uint64) (int, error) {
	req := countRequest{wishlistID: wishlistID, reply: make(chan int, 1)}
	select {
	case h.counts <- req:
		return <-req.reply, nil
	case <-h.done:
		return 0, ErrHubStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
