package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/wishlist-service/internal/models"
	"github.com/wishlist-service/internal/problem"
)

// itemRecord is the persisted form of a wish item. The reservation columns
// are always written together: all set or all NULL.
type itemRecord struct {
	models.WishItem

	ReservedByUserID   *uint64 `gorm:"index"`
	ReservationMessage *string `gorm:"type:text"`
	ReservedAt         *time.Time

	Wishlist *models.Wishlist `gorm:"foreignKey:WishlistID;constraint:OnDelete:CASCADE"`
}

func (itemRecord) TableName() string {
	return "wish_items"
}

func (rec *itemRecord) toModel() *models.WishItem {
	item := rec.WishItem
	if rec.ReservedByUserID != nil {
		res := &models.Reservation{
			ReservedByUserID: *rec.ReservedByUserID,
			Message:          rec.ReservationMessage,
		}
		if rec.ReservedAt != nil {
			res.ReservedAt = *rec.ReservedAt
		}
		item.Reservation = res
	}
	return &item
}

func clearedReservation() map[string]any {
	return map[string]any{
		"reserved_by_user_id": nil,
		"reservation_message": nil,
		"reserved_at":         nil,
	}
}

// ItemRepository handles wish item data access
type ItemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new ItemRepository
func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create inserts a free item and fills in its id and timestamps
func (r *ItemRepository) Create(ctx context.Context, item *models.WishItem) error {
	rec := itemRecord{WishItem: *item}
	rec.Reservation = nil
	if err := r.db.WithContext(ctx).Omit("Wishlist").Create(&rec).Error; err != nil {
		return translate(err, "item", "create item")
	}
	item.ID = rec.ID
	item.CreatedAt = rec.CreatedAt
	item.UpdatedAt = rec.UpdatedAt
	item.Reservation = nil
	return nil
}

// GetByID retrieves an item by ID regardless of wishlist
func (r *ItemRepository) GetByID(ctx context.Context, id uint64) (*models.WishItem, error) {
	var rec itemRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, translate(err, "item", "get item")
	}
	return rec.toModel(), nil
}

// ListByWishlist returns the items of a wishlist, oldest first
func (r *ItemRepository) ListByWishlist(ctx context.Context, wishlistID uint64) ([]models.WishItem, error) {
	var recs []itemRecord
	if err := r.db.WithContext(ctx).Where("wishlist_id = ?", wishlistID).Order("id").Find(&recs).Error; err != nil {
		return nil, translate(err, "item", "list items")
	}
	items := make([]models.WishItem, 0, len(recs))
	for i := range recs {
		items = append(items, *recs[i].toModel())
	}
	return items, nil
}

// Update writes the descriptive columns of item; reservation columns are untouched
func (r *ItemRepository) Update(ctx context.Context, item *models.WishItem) error {
	result := r.db.WithContext(ctx).
		Model(&itemRecord{}).
		Where("id = ? AND wishlist_id = ?", item.ID, item.WishlistID).
		Updates(map[string]any{
			"name":        item.Name,
			"description": item.Description,
			"url":         item.URL,
			"price":       item.Price,
			"category":    item.Category,
			"updated_at":  item.UpdatedAt,
		})
	if result.Error == nil && result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "item", "update item")
	}
	return translate(result.Error, "item", "update item")
}

// Delete removes an item from its wishlist
func (r *ItemRepository) Delete(ctx context.Context, wishlistID, itemID uint64) error {
	result := r.db.WithContext(ctx).Where("wishlist_id = ?", wishlistID).Delete(&itemRecord{}, itemID)
	if result.Error == nil && result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "item", "delete item")
	}
	return translate(result.Error, "item", "delete item")
}

// Reserve moves a free item to reserved with a single conditional UPDATE.
// When no row matches the item is re-read to tell a missing item from one
// that somebody else already holds.
func (r *ItemRepository) Reserve(ctx context.Context, wishlistID, itemID, userID uint64, message *string, at time.Time) (*models.WishItem, error) {
	result := r.db.WithContext(ctx).
		Model(&itemRecord{}).
		Where("id = ? AND wishlist_id = ? AND reserved_by_user_id IS NULL", itemID, wishlistID).
		Updates(map[string]any{
			"reserved_by_user_id": userID,
			"reservation_message": message,
			"reserved_at":         at,
			"updated_at":          at,
		})
	if result.Error != nil {
		return nil, translate(result.Error, "item", "reserve item")
	}
	if result.RowsAffected == 0 {
		// the item exists, so the guard failed because it was held; if it was
		// released again before the read the caller still lost the race
		if _, err := r.getInWishlist(ctx, wishlistID, itemID); err != nil {
			return nil, err
		}
		return nil, problem.New(problem.KindAlreadyReserved, "item is already reserved")
	}
	return r.getInWishlist(ctx, wishlistID, itemID)
}

// Unreserve clears the reservation of a reserved item with a single conditional
// UPDATE. A non-zero heldBy additionally requires that user to be the reserver.
func (r *ItemRepository) Unreserve(ctx context.Context, wishlistID, itemID, heldBy uint64, at time.Time) (*models.WishItem, error) {
	values := clearedReservation()
	values["updated_at"] = at

	query := r.db.WithContext(ctx).
		Model(&itemRecord{}).
		Where("id = ? AND wishlist_id = ? AND reserved_by_user_id IS NOT NULL", itemID, wishlistID)
	if heldBy != 0 {
		query = query.Where("reserved_by_user_id = ?", heldBy)
	}
	result := query.Updates(values)
	if result.Error != nil {
		return nil, translate(result.Error, "item", "unreserve item")
	}
	if result.RowsAffected == 0 {
		item, err := r.getInWishlist(ctx, wishlistID, itemID)
		if err != nil {
			return nil, err
		}
		if item.IsReserved() {
			return nil, problem.New(problem.KindAccessDenied, "only the reserver or the owner can release this reservation")
		}
		return nil, problem.New(problem.KindNotReserved, "item is not reserved")
	}
	return r.getInWishlist(ctx, wishlistID, itemID)
}

func (r *ItemRepository) getInWishlist(ctx context.Context, wishlistID, itemID uint64) (*models.WishItem, error) {
	var rec itemRecord
	err := r.db.WithContext(ctx).Where("id = ? AND wishlist_id = ?", itemID, wishlistID).First(&rec).Error
	if err != nil {
		return nil, translate(err, "item", "get item")
	}
	return rec.toModel(), nil
}
