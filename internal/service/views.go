package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wishlist-service/internal/models"
)

// ItemView is a wish item as shown to a particular caller. The wishlist owner
// learns that an item is taken but not by whom, so the gift stays a surprise.
type ItemView struct {
	ID                 uint64           `json:"id"`
	WishlistID         uint64           `json:"wishlist_id"`
	Name               string           `json:"name"`
	Description        *string          `json:"description"`
	URL                *string          `json:"url"`
	Price              *decimal.Decimal `json:"price"`
	Category           *string          `json:"category"`
	IsReserved         bool             `json:"is_reserved"`
	ReservedByMe       bool             `json:"reserved_by_me"`
	ReservedByUserID   *uint64          `json:"reserved_by_user_id,omitempty"`
	ReservationMessage *string          `json:"reservation_message,omitempty"`
	ReservedAt         *time.Time       `json:"reserved_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// WishlistView is a wishlist with its items as shown to a particular caller
type WishlistView struct {
	ID          uint64     `json:"id"`
	OwnerID     uint64     `json:"owner_id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	IsPublic    bool       `json:"is_public"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Items       []ItemView `json:"items,omitempty"`
}

// NewItemView applies the visibility rules for caller to item.
// Reservation details are shown only to signed-in callers other than the owner.
func NewItemView(item *models.WishItem, wishlist *models.Wishlist, caller Caller) ItemView {
	view := ItemView{
		ID:          item.ID,
		WishlistID:  item.WishlistID,
		Name:        item.Name,
		Description: item.Description,
		URL:         item.URL,
		Price:       item.Price,
		Category:    item.Category,
		IsReserved:  item.IsReserved(),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
	if !item.IsReserved() {
		return view
	}

	view.ReservedByMe = caller.Authenticated && item.ReservedBy(caller.UserID)
	if caller.Authenticated && !caller.Owns(wishlist) {
		res := item.Reservation
		reserver := res.ReservedByUserID
		reservedAt := res.ReservedAt
		view.ReservedByUserID = &reserver
		view.ReservationMessage = res.Message
		view.ReservedAt = &reservedAt
	}
	return view
}

func newItemViews(items []models.WishItem, wishlist *models.Wishlist, caller Caller) []ItemView {
	views := make([]ItemView, 0, len(items))
	for i := range items {
		views = append(views, NewItemView(&items[i], wishlist, caller))
	}
	return views
}

func newWishlistView(wishlist *models.Wishlist, items []ItemView) *WishlistView {
	return &WishlistView{
		ID:          wishlist.ID,
		OwnerID:     wishlist.OwnerID,
		Name:        wishlist.Name,
		Description: wishlist.Description,
		IsPublic:    wishlist.IsPublic,
		CreatedAt:   wishlist.CreatedAt,
		UpdatedAt:   wishlist.UpdatedAt,
		Items:       items,
	}
}
