package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/wishlist-service/internal/middleware"
	"github.com/wishlist-service/internal/service"
	"github.com/wishlist-service/pkg/response"
)

// WishlistHandler handles wishlist and item API requests
type WishlistHandler struct {
	wishlistService    *service.WishlistService
	reservationService *service.ReservationService
}

// NewWishlistHandler creates a new WishlistHandler
func NewWishlistHandler(wishlistService *service.WishlistService, reservationService *service.ReservationService) *WishlistHandler {
	return &WishlistHandler{
		wishlistService:    wishlistService,
		reservationService: reservationService,
	}
}

// CreateWishlist handles wishlist creation
// POST /api/v1/wishlists
func (h *WishlistHandler) CreateWishlist(c *gin.Context) {
	var req service.WishlistRequest
	if err := bindJSON(c, &req); err != nil {
		response.Problem(c, err)
		return
	}

	wishlist, err := h.wishlistService.Create(c.Request.Context(), middleware.CallerFrom(c), &req)
	if err != nil {
		response.Problem(c, err)
		return
	}
	response.Created(c, wishlist)
}

// GetWishlist returns a wishlist with its items
// GET /api/v1/wishlists/:id
func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Problem(c, err)
		return
	}

	wishlist, err := h.wishlistService.Get(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		response.Problem(c, err)
		return
	}
	response.Success(c, wishlist)
}

// UpdateWishlist applies a partial update
// PUT /api/v1/wishlists/:id
func (h *WishlistHandler) UpdateWishlist(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Problem(c, err)
		return
	}

	var patch service.WishlistPatch
	if err := bindJSON(c, &patch); err != nil {
		response.Problem(c, err)
		return
	}

	wishlist, err := h.wishlistService.Update(c.Request.Context(), middleware.CallerFrom(c), id, &patch)
	if err != nil {
		response.Problem(c, err)
		return
	}
	response.Success(c, wishlist)
}

// DeleteWishlist removes a wishlist and its items
// DELETE /api/v1/wishlists/:id
func (h *WishlistHandler) DeleteWishlist(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Problem(c, err)
		return
	}

	if err := h.wishlistService.Delete(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
		response.Problem(c, err)
		return
	}
	response.Deleted(c)
}

// ListItems returns the items of a wishlist
// GET /api/v1/wishlists/:id/items
func (h *WishlistHandler) ListItems(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Problem(c, err)
		return
	}

	items, err := h.wishlistService.ListItems(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		response.Problem(c, err)
		return
	}
	response.Success(c, items)
}

// AddItem adds an item to a wishlist
// POST /api/v1/wishlists/:id/items
func (h *WishlistHandler) AddItem(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Problem(c, err)
		return
	}

	var req service.ItemRequest
	if err := bindJSON(c, &req); err != nil {
		response.Problem(c, err)
		return
	}

	item, err := h.wishlistService.AddItem(c.Request.Context(), middleware.CallerFrom(c), id, &req)
	if err != nil {
		response.Problem(c, err)
		return
	}
	response.Created(c, item)
}

// GetItem returns a single item
// GET /api/v1/wishlists/:id/items/:item_id
func (h *WishlistHandler) GetItem(c *gin.Context) {
	wishlistID, itemID, err := itemPath(c)
	if err != nil {
		response.Problem(c, err)
		return
	}

	item, err := h.wishlistService.GetItem(c.Request.Context(), middleware.CallerFrom(c), wishlistID, itemID)
	if err != nil {
		response.Problem(c, err)
		return
	}
	response.Success(c, item)
}

// UpdateItem applies a partial update to an item
// PUT /api/v1/wishlists/:id/items/:item_id
func (h *WishlistHandler) UpdateItem(c *gin.Context) {
	wishlistID, itemID, err := itemPath(c)
	if err != nil {
		response.Problem(c, err)
		return
	}

	var patch service.ItemPatch
	if err := bindJSON(c, &patch); err != nil {
		response.Problem(c, err)
		return
	}

	item, err := h.wishlistService.UpdateItem(c.Request.Context(), middleware.CallerFrom(c), wishlistID, itemID, &patch)
	if err != nil {
		response.Problem(c, err)
		return
	}
	response.Success(c, item)
}

// DeleteItem removes an item
// DELETE /api/v1/wishlists/:id/items/:item_id
func (h *WishlistHandler) DeleteItem(c *gin.Context) {
	wishlistID, itemID, err := itemPath(c)
	if err != nil {
		response.Problem(c, err)
		return
	}

	if err := h.wishlistService.DeleteItem(c.Request.Context(), middleware.CallerFrom(c), wishlistID, itemID); err != nil {
		response.Problem(c, err)
		return
	}
	response.Deleted(c)
}

// ReserveItem claims an item for the caller
// PUT /api/v1/wishlists/:id/items/:item_id/reserve
func (h *WishlistHandler) ReserveItem(c *gin.Context) {
	wishlistID, itemID, err := itemPath(c)
	if err != nil {
		response.Problem(c, err)
		return
	}

	var req service.ReserveRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Problem(c, err)
		return
	}

	item, err := h.reservationService.Reserve(c.Request.Context(), middleware.CallerFrom(c), wishlistID, itemID, req.Message)
	if err != nil {
		response.Problem(c, err)
		return
	}
	response.Success(c, item)
}

// UnreserveItem releases a reservation
// PUT /api/v1/wishlists/:id/items/:item_id/unreserve
func (h *WishlistHandler) UnreserveItem(c *gin.Context) {
	wishlistID, itemID, err := itemPath(c)
	if err != nil {
		response.Problem(c, err)
		return
	}

	item, err := h.reservationService.Unreserve(c.Request.Context(), middleware.CallerFrom(c), wishlistID, itemID)
	if err != nil {
		response.Problem(c, err)
		return
	}
	response.Success(c, item)
}

func itemPath(c *gin.Context) (uint64, uint64, error) {
	wishlistID, err := pathID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	itemID, err := pathID(c, "item_id")
	if err != nil {
		return 0, 0, err
	}
	return wishlistID, itemID, nil
}

// RegisterRoutes registers wishlist, item and reservation routes
func (h *WishlistHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware, optionalAuth gin.HandlerFunc) {
	wishlists := rg.Group("/wishlists")
	{
		wishlists.POST("", authMiddleware, h.CreateWishlist)
		wishlists.GET("/:id", optionalAuth, h.GetWishlist)
		wishlists.PUT("/:id", authMiddleware, h.UpdateWishlist)
		wishlists.DELETE("/:id", authMiddleware, h.DeleteWishlist)

		wishlists.GET("/:id/items", optionalAuth, h.ListItems)
		wishlists.POST("/:id/items", authMiddleware, h.AddItem)
		wishlists.GET("/:id/items/:item_id", optionalAuth, h.GetItem)
		wishlists.PUT("/:id/items/:item_id", authMiddleware, h.UpdateItem)
		wishlists.DELETE("/:id/items/:item_id", authMiddleware, h.DeleteItem)

		wishlists.PUT("/:id/items/:item_id/reserve", authMiddleware, h.ReserveItem)
		wishlists.PUT("/:id/items/:item_id/unreserve", authMiddleware, h.UnreserveItem)
	}
}
