package models

import (
	"time"
)

// Wishlist is a named collection of wish items owned by one user
type Wishlist struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	OwnerID     uint64    `gorm:"index;not null" json:"owner_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	IsPublic    bool      `gorm:"not null" json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Owner *User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Items []WishItem `gorm:"-" json:"items,omitempty"`
}

// TableName specifies the table name for Wishlist model
func (Wishlist) TableName() string {
	return "wishlists"
}

// OwnedBy reports whether userID owns the wishlist
func (w *Wishlist) OwnedBy(userID uint64) bool {
	return w.OwnerID == userID
}

// WishlistSummary is the listing form of a wishlist
type WishlistSummary struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	IsPublic    bool      `json:"is_public"`
	ItemCount   int64     `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
}
