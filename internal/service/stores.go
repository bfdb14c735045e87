package service

import (
	"context"
	"time"

	"github.com/wishlist-service/internal/events"
	"github.com/wishlist-service/internal/models"
)

// UserStore persists accounts. Implemented by repository.UserRepository.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Delete(ctx context.Context, id uint64) error
}

// WishlistStore persists wishlists. Implemented by repository.WishlistRepository.
type WishlistStore interface {
	Create(ctx context.Context, wishlist *models.Wishlist) error
	GetByID(ctx context.Context, id uint64) (*models.Wishlist, error)
	Update(ctx context.Context, wishlist *models.Wishlist) error
	Delete(ctx context.Context, id uint64) error
	ListByOwner(ctx context.Context, ownerID uint64, includePrivate bool) ([]models.WishlistSummary, error)
}

// ItemStore persists wish items and their reservation state.
// Implemented by repository.ItemRepository.
type ItemStore interface {
	Create(ctx context.Context, item *models.WishItem) error
	GetByID(ctx context.Context, id uint64) (*models.WishItem, error)
	ListByWishlist(ctx context.Context, wishlistID uint64) ([]models.WishItem, error)
	Update(ctx context.Context, item *models.WishItem) error
	Delete(ctx context.Context, wishlistID, itemID uint64) error

	// Reserve and Unreserve are atomic compare-and-set transitions. A non-zero
	// heldBy restricts Unreserve to that reserver.
	Reserve(ctx context.Context, wishlistID, itemID, userID uint64, message *string, at time.Time) (*models.WishItem, error)
	Unreserve(ctx context.Context, wishlistID, itemID, heldBy uint64, at time.Time) (*models.WishItem, error)
}

// EventPublisher delivers wishlist activity to live subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// ReservationObserver counts reservation attempts.
type ReservationObserver interface {
	ObserveReservation(action string, ok bool)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, events.Event) error { return nil }

type noopObserver struct{}

func (noopObserver) ObserveReservation(string, bool) {}
