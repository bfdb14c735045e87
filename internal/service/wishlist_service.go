package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wishlist-service/internal/events"
	"github.com/wishlist-service/internal/models"
)

// WishlistRequest represents a new wishlist
type WishlistRequest struct {
	Name        string  `json:"name" binding:"required,max=100,noscript"`
	Description *string `json:"description" binding:"omitempty,max=1000,noscript"`
	IsPublic    *bool   `json:"is_public"`
}

// WishlistPatch represents a partial wishlist update; nil fields are kept
type WishlistPatch struct {
	Name        *string `json:"name" binding:"omitempty,max=100,noscript"`
	Description *string `json:"description" binding:"omitempty,max=1000,noscript"`
	IsPublic    *bool   `json:"is_public"`
}

// ItemRequest represents a new wish item
type ItemRequest struct {
	Name        string           `json:"name" binding:"required,max=100,noscript"`
	Description *string          `json:"description" binding:"omitempty,max=1000,noscript"`
	URL         *string          `json:"url" binding:"omitempty,max=2048"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category" binding:"omitempty,max=50,noscript"`
}

// ItemPatch represents a partial item update; nil fields are kept
type ItemPatch struct {
	Name        *string          `json:"name" binding:"omitempty,max=100,noscript"`
	Description *string          `json:"description" binding:"omitempty,max=1000,noscript"`
	URL         *string          `json:"url" binding:"omitempty,max=2048"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category" binding:"omitempty,max=50,noscript"`
}

// WishlistService manages wishlists and their items on behalf of a caller
type WishlistService struct {
	access    *AccessControl
	wishlists WishlistStore
	items     ItemStore
	users     UserStore
	notifier  notifier
	log       *zap.Logger
	now       func() time.Time
}

// NewWishlistService creates a new WishlistService. publisher may be nil.
func NewWishlistService(access *AccessControl, wishlists WishlistStore, items ItemStore, users UserStore, publisher EventPublisher, log *zap.Logger) *WishlistService {
	log = log.Named("wishlist")
	return &WishlistService{
		access:    access,
		wishlists: wishlists,
		items:     items,
		users:     users,
		notifier:  newNotifier(publisher, log),
		log:       log,
		now:       time.Now,
	}
}

// Create creates a wishlist owned by the caller. Wishlists are public unless
// stated otherwise.
func (s *WishlistService) Create(ctx context.Context, caller Caller, req *WishlistRequest) (*WishlistView, error) {
	if !caller.Authenticated {
		return nil, errInvalidToken()
	}

	fe := fieldErrors{}
	wishlist := &models.Wishlist{
		OwnerID:     caller.UserID,
		Name:        fe.text("name", req.Name, 1, maxNameLen),
		Description: fe.optionalText("description", req.Description, maxDescriptionLen),
		IsPublic:    req.IsPublic == nil || *req.IsPublic,
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	wishlist.CreatedAt = now
	wishlist.UpdatedAt = now
	if err := s.wishlists.Create(ctx, wishlist); err != nil {
		return nil, err
	}

	s.log.Info("wishlist created", zap.Uint64("wishlist_id", wishlist.ID), zap.Uint64("owner_id", caller.UserID))
	return newWishlistView(wishlist, []ItemView{}), nil
}

// Get returns a wishlist with its items
func (s *WishlistService) Get(ctx context.Context, caller Caller, id uint64) (*WishlistView, error) {
	wishlist, err := s.access.LoadForRead(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListByWishlist(ctx, wishlist.ID)
	if err != nil {
		return nil, err
	}
	return newWishlistView(wishlist, newItemViews(items, wishlist, caller)), nil
}

// Update applies a partial update to the caller's wishlist
func (s *WishlistService) Update(ctx context.Context, caller Caller, id uint64, patch *WishlistPatch) (*WishlistView, error) {
	wishlist, err := s.access.LoadForWrite(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	fe := fieldErrors{}
	if patch.Name != nil {
		wishlist.Name = fe.text("name", *patch.Name, 1, maxNameLen)
	}
	if patch.Description != nil {
		wishlist.Description = fe.optionalText("description", patch.Description, maxDescriptionLen)
	}
	if patch.IsPublic != nil {
		wishlist.IsPublic = *patch.IsPublic
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	wishlist.UpdatedAt = s.now().UTC()
	if err := s.wishlists.Update(ctx, wishlist); err != nil {
		return nil, err
	}
	s.notifier.publish(ctx, events.WishlistUpdated, wishlist.ID, 0, wishlist.UpdatedAt)

	items, err := s.items.ListByWishlist(ctx, wishlist.ID)
	if err != nil {
		return nil, err
	}
	return newWishlistView(wishlist, newItemViews(items, wishlist, caller)), nil
}

// Delete removes the caller's wishlist and all its items
func (s *WishlistService) Delete(ctx context.Context, caller Caller, id uint64) error {
	wishlist, err := s.access.LoadForWrite(ctx, id, caller)
	if err != nil {
		return err
	}
	if err := s.wishlists.Delete(ctx, wishlist.ID); err != nil {
		return err
	}
	s.log.Info("wishlist deleted", zap.Uint64("wishlist_id", wishlist.ID))
	s.notifier.publish(ctx, events.WishlistDeleted, wishlist.ID, 0, s.now())
	return nil
}

// ListForUser returns summaries of a user's wishlists. Private wishlists are
// listed only for their owner.
func (s *WishlistService) ListForUser(ctx context.Context, caller Caller, ownerID uint64) ([]models.WishlistSummary, error) {
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}
	includePrivate := caller.Authenticated && caller.UserID == ownerID
	return s.wishlists.ListByOwner(ctx, ownerID, includePrivate)
}

// ListItems returns the items of a readable wishlist
func (s *WishlistService) ListItems(ctx context.Context, caller Caller, wishlistID uint64) ([]ItemView, error) {
	wishlist, err := s.access.LoadForRead(ctx, wishlistID, caller)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListByWishlist(ctx, wishlist.ID)
	if err != nil {
		return nil, err
	}
	return newItemViews(items, wishlist, caller), nil
}

// GetItem returns one item of a readable wishlist
func (s *WishlistService) GetItem(ctx context.Context, caller Caller, wishlistID, itemID uint64) (*ItemView, error) {
	wishlist, err := s.access.LoadForRead(ctx, wishlistID, caller)
	if err != nil {
		return nil, err
	}
	item, err := s.access.ResolveItem(ctx, wishlist, itemID)
	if err != nil {
		return nil, err
	}
	view := NewItemView(item, wishlist, caller)
	return &view, nil
}

// AddItem adds an item to the caller's wishlist
func (s *WishlistService) AddItem(ctx context.Context, caller Caller, wishlistID uint64, req *ItemRequest) (*ItemView, error) {
	wishlist, err := s.access.LoadForWrite(ctx, wishlistID, caller)
	if err != nil {
		return nil, err
	}

	fe := fieldErrors{}
	item := &models.WishItem{
		WishlistID:  wishlist.ID,
		Name:        fe.text("name", req.Name, 1, maxNameLen),
		Description: fe.optionalText("description", req.Description, maxDescriptionLen),
		URL:         fe.url("url", req.URL),
		Price:       fe.price("price", req.Price),
		Category:    fe.optionalText("category", req.Category, maxCategoryLen),
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	s.notifier.publish(ctx, events.ItemCreated, wishlist.ID, item.ID, now)

	view := NewItemView(item, wishlist, caller)
	return &view, nil
}

// UpdateItem applies a partial update to an item of the caller's wishlist.
// The reservation is not affected.
func (s *WishlistService) UpdateItem(ctx context.Context, caller Caller, wishlistID, itemID uint64, patch *ItemPatch) (*ItemView, error) {
	wishlist, err := s.access.LoadForWrite(ctx, wishlistID, caller)
	if err != nil {
		return nil, err
	}
	item, err := s.access.ResolveItem(ctx, wishlist, itemID)
	if err != nil {
		return nil, err
	}

	fe := fieldErrors{}
	if patch.Name != nil {
		item.Name = fe.text("name", *patch.Name, 1, maxNameLen)
	}
	if patch.Description != nil {
		item.Description = fe.optionalText("description", patch.Description, maxDescriptionLen)
	}
	if patch.URL != nil {
		item.URL = fe.url("url", patch.URL)
	}
	if patch.Price != nil {
		item.Price = fe.price("price", patch.Price)
	}
	if patch.Category != nil {
		item.Category = fe.optionalText("category", patch.Category, maxCategoryLen)
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	item.UpdatedAt = s.now().UTC()
	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	s.notifier.publish(ctx, events.ItemUpdated, wishlist.ID, item.ID, item.UpdatedAt)

	view := NewItemView(item, wishlist, caller)
	return &view, nil
}

// DeleteItem removes an item from the caller's wishlist
func (s *WishlistService) DeleteItem(ctx context.Context, caller Caller, wishlistID, itemID uint64) error {
	wishlist, err := s.access.LoadForWrite(ctx, wishlistID, caller)
	if err != nil {
		return err
	}
	item, err := s.access.ResolveItem(ctx, wishlist, itemID)
	if err != nil {
		return err
	}
	if err := s.items.Delete(ctx, wishlist.ID, item.ID); err != nil {
		return err
	}
	s.notifier.publish(ctx, events.ItemDeleted, wishlist.ID, item.ID, s.now())
	return nil
}

// CanWatch reports whether caller may subscribe to a wishlist's events
func (s *WishlistService) CanWatch(ctx context.Context, caller Caller, wishlistID uint64) error {
	_, err := s.access.LoadForRead(ctx, wishlistID, caller)
	return err
}
