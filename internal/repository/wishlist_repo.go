package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/wishlist-service/internal/models"
)

// WishlistRepository handles wishlist data access
type WishlistRepository struct {
	db *gorm.DB
}

// NewWishlistRepository creates a new WishlistRepository
func NewWishlistRepository(db *gorm.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// Create inserts a wishlist and fills in its id
func (r *WishlistRepository) Create(ctx context.Context, wishlist *models.Wishlist) error {
	return translate(r.db.WithContext(ctx).Omit("Owner").Create(wishlist).Error, "wishlist", "create wishlist")
}

// GetByID retrieves a wishlist by ID
func (r *WishlistRepository) GetByID(ctx context.Context, id uint64) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	if err := r.db.WithContext(ctx).First(&wishlist, id).Error; err != nil {
		return nil, translate(err, "wishlist", "get wishlist")
	}
	return &wishlist, nil
}

// Update writes the editable columns of wishlist
func (r *WishlistRepository) Update(ctx context.Context, wishlist *models.Wishlist) error {
	result := r.db.WithContext(ctx).
		Model(&models.Wishlist{}).
		Where("id = ?", wishlist.ID).
		Updates(map[string]any{
			"name":        wishlist.Name,
			"description": wishlist.Description,
			"is_public":   wishlist.IsPublic,
			"updated_at":  wishlist.UpdatedAt,
		})
	if result.Error == nil && result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "wishlist", "update wishlist")
	}
	return translate(result.Error, "wishlist", "update wishlist")
}

// Delete removes a wishlist and its items
func (r *WishlistRepository) Delete(ctx context.Context, id uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("wishlist_id = ?", id).Delete(&itemRecord{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Wishlist{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err, "wishlist", "delete wishlist")
}

// ListByOwner returns summaries of a user's wishlists, oldest first.
// Private wishlists are included only when includePrivate is set.
func (r *WishlistRepository) ListByOwner(ctx context.Context, ownerID uint64, includePrivate bool) ([]models.WishlistSummary, error) {
	query := r.db.WithContext(ctx).
		Table("wishlists AS w").
		Select("w.id, w.name, w.description, w.is_public, w.created_at, COUNT(i.id) AS item_count").
		Joins("LEFT JOIN wish_items AS i ON i.wishlist_id = w.id").
		Where("w.owner_id = ?", ownerID).
		Group("w.id, w.name, w.description, w.is_public, w.created_at").
		Order("w.id")
	if !includePrivate {
		query = query.Where("w.is_public = ?", true)
	}

	summaries := make([]models.WishlistSummary, 0)
	if err := query.Scan(&summaries).Error; err != nil {
		return nil, translate(err, "wishlist", "list wishlists")
	}
	return summaries, nil
}
