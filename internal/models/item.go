package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reservation records who claimed an item and when.
// An item either has all of these set or none of them.
type Reservation struct {
	ReservedByUserID uint64    `json:"reserved_by_user_id"`
	Message          *string   `json:"message"`
	ReservedAt       time.Time `json:"reserved_at"`
}

// WishItem is a single gift inside a wishlist
type WishItem struct {
	ID          uint64           `gorm:"primaryKey" json:"id"`
	WishlistID  uint64           `gorm:"index;not null" json:"wishlist_id"`
	Name        string           `gorm:"size:100;not null" json:"name"`
	Description *string          `gorm:"type:text" json:"description"`
	URL         *string          `gorm:"size:2048" json:"url"`
	Price       *decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	Category    *string          `gorm:"size:50" json:"category"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	Reservation *Reservation `gorm:"-" json:"-"`
}

// IsReserved reports whether the item is currently claimed
func (i *WishItem) IsReserved() bool {
	return i.Reservation != nil
}

// ReservedBy reports whether userID holds the reservation
func (i *WishItem) ReservedBy(userID uint64) bool {
	return i.Reservation != nil && i.Reservation.ReservedByUserID == userID
}
