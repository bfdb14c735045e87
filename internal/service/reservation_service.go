package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wishlist-service/internal/events"
	"github.com/wishlist-service/internal/models"
	"github.com/wishlist-service/internal/problem"
)

// ReserveRequest represents an optional note left with a reservation
type ReserveRequest struct {
	Message *string `json:"message" binding:"omitempty,max=500,noscript"`
}

// ReservationService moves items between free and reserved. Each transition
// is a single compare-and-set in the store, so concurrent reservations of the
// same item produce exactly one winner.
type ReservationService struct {
	access   *AccessControl
	items    ItemStore
	observer ReservationObserver
	notifier notifier
	log      *zap.Logger
	now      func() time.Time
}

// NewReservationService creates a new ReservationService. publisher and
// observer may be nil.
func NewReservationService(access *AccessControl, items ItemStore, publisher EventPublisher, observer ReservationObserver, log *zap.Logger) *ReservationService {
	if observer == nil {
		observer = noopObserver{}
	}
	log = log.Named("reservation")
	return &ReservationService{
		access:   access,
		items:    items,
		observer: observer,
		notifier: newNotifier(publisher, log),
		log:      log,
		now:      time.Now,
	}
}

// Reserve claims a free item for the caller
func (s *ReservationService) Reserve(ctx context.Context, caller Caller, wishlistID, itemID uint64, message *string) (*ItemView, error) {
	if !caller.Authenticated {
		return nil, problem.New(problem.KindInvalidToken, "authentication required")
	}

	fe := fieldErrors{}
	message = fe.optionalText("message", message, maxMessageLen)
	if err := fe.err(); err != nil {
		return nil, err
	}

	wishlist, err := s.access.LoadForRead(ctx, wishlistID, caller)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.ResolveItem(ctx, wishlist, itemID); err != nil {
		return nil, err
	}

	at := s.now().UTC()
	item, err := s.items.Reserve(ctx, wishlist.ID, itemID, caller.UserID, message, at)
	s.observer.ObserveReservation("reserve", err == nil)
	if err != nil {
		if problem.Is(err, problem.KindAlreadyReserved) {
			s.log.Debug("reservation lost", zap.Uint64("item_id", itemID), zap.Uint64("user_id", caller.UserID))
		}
		return nil, err
	}

	s.log.Info("item reserved", zap.Uint64("wishlist_id", wishlist.ID), zap.Uint64("item_id", item.ID))
	s.notifier.publish(ctx, events.ItemReserved, wishlist.ID, item.ID, at)

	view := NewItemView(item, wishlist, caller)
	return &view, nil
}

// Unreserve releases a reservation. The wishlist owner and the current
// reserver may do this.
func (s *ReservationService) Unreserve(ctx context.Context, caller Caller, wishlistID, itemID uint64) (*ItemView, error) {
	if !caller.Authenticated {
		return nil, problem.New(problem.KindInvalidToken, "authentication required")
	}

	wishlist, err := s.access.LoadForRead(ctx, wishlistID, caller)
	if err != nil {
		return nil, err
	}
	item, err := s.access.ResolveItem(ctx, wishlist, itemID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRelease(wishlist, item, caller); err != nil {
		return nil, err
	}

	var heldBy uint64
	if !caller.Owns(wishlist) {
		heldBy = caller.UserID
	}

	at := s.now().UTC()
	item, err = s.items.Unreserve(ctx, wishlist.ID, item.ID, heldBy, at)
	s.observer.ObserveReservation("unreserve", err == nil)
	if err != nil {
		return nil, err
	}

	s.log.Info("item unreserved", zap.Uint64("wishlist_id", wishlist.ID), zap.Uint64("item_id", item.ID))
	s.notifier.publish(ctx, events.ItemUnreserved, wishlist.ID, item.ID, at)

	view := NewItemView(item, wishlist, caller)
	return &view, nil
}

// authorizeRelease expects read access to the wishlist to be checked already.
func authorizeRelease(wishlist *models.Wishlist, item *models.WishItem, caller Caller) error {
	if caller.Owns(wishlist) {
		return nil
	}
	if !item.IsReserved() {
		return problem.New(problem.KindNotReserved, "item is not reserved")
	}
	if !item.ReservedBy(caller.UserID) {
		return problem.New(problem.KindAccessDenied, "only the reserver or the owner can release this reservation")
	}
	return nil
}
