package service

import (
	"context"

	"github.com/wishlist-service/internal/models"
	"github.com/wishlist-service/internal/problem"
)

// Caller is the identity a request acts as. The zero value is anonymous.
type Caller struct {
	UserID        uint64
	Authenticated bool
}

// Anonymous is the caller of a request without a token.
var Anonymous = Caller{}

// AsUser returns an authenticated caller.
func AsUser(id uint64) Caller {
	return Caller{UserID: id, Authenticated: true}
}

// Owns reports whether the caller owns the wishlist.
func (c Caller) Owns(wishlist *models.Wishlist) bool {
	return c.Authenticated && wishlist.OwnedBy(c.UserID)
}

// AccessControl decides who may see and change a wishlist.
type AccessControl struct {
	wishlists WishlistStore
	items     ItemStore
}

// NewAccessControl creates a new AccessControl
func NewAccessControl(wishlists WishlistStore, items ItemStore) *AccessControl {
	return &AccessControl{wishlists: wishlists, items: items}
}

// AuthorizeRead allows anyone to read a public wishlist and only the owner to
// read a private one.
func (a *AccessControl) AuthorizeRead(wishlist *models.Wishlist, caller Caller) error {
	if wishlist.IsPublic || caller.Owns(wishlist) {
		return nil
	}
	return problem.New(problem.KindAccessDenied, "this wishlist is private")
}

// AuthorizeWrite allows only the owner to change a wishlist.
func (a *AccessControl) AuthorizeWrite(wishlist *models.Wishlist, caller Caller) error {
	if !caller.Authenticated {
		return problem.New(problem.KindInvalidToken, "authentication required")
	}
	if !wishlist.OwnedBy(caller.UserID) {
		return problem.New(problem.KindAccessDenied, "only the owner can modify this wishlist")
	}
	return nil
}

// LoadForRead fetches a wishlist and checks read access.
func (a *AccessControl) LoadForRead(ctx context.Context, wishlistID uint64, caller Caller) (*models.Wishlist, error) {
	wishlist, err := a.wishlists.GetByID(ctx, wishlistID)
	if err != nil {
		return nil, err
	}
	if err := a.AuthorizeRead(wishlist, caller); err != nil {
		return nil, err
	}
	return wishlist, nil
}

// LoadForWrite fetches a wishlist and checks write access.
func (a *AccessControl) LoadForWrite(ctx context.Context, wishlistID uint64, caller Caller) (*models.Wishlist, error) {
	wishlist, err := a.wishlists.GetByID(ctx, wishlistID)
	if err != nil {
		return nil, err
	}
	if err := a.AuthorizeWrite(wishlist, caller); err != nil {
		return nil, err
	}
	return wishlist, nil
}

// ResolveItem loads an item of a wishlist the caller has already been
// authorized for. An item that exists but belongs to another wishlist is
// reported as not found.
func (a *AccessControl) ResolveItem(ctx context.Context, wishlist *models.Wishlist, itemID uint64) (*models.WishItem, error) {
	item, err := a.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.WishlistID != wishlist.ID {
		return nil, problem.New(problem.KindNotFound, "item not found in this wishlist")
	}
	return item, nil
}
