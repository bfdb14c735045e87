package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wishlist-service/internal/events"
	"github.com/wishlist-service/internal/middleware"
	"github.com/wishlist-service/internal/service"
	"github.com/wishlist-service/pkg/response"
)

// EventsHandler streams wishlist activity over WebSocket
type EventsHandler struct {
	wishlistService *service.WishlistService
	hub             *events.Hub
	upgrader        websocket.Upgrader
	log             *zap.Logger
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(wishlistService *service.WishlistService, hub *events.Hub, log *zap.Logger) *EventsHandler {
	return &EventsHandler{
		wishlistService: wishlistService,
		hub:             hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// browsers are already allowed from any origin by CORS
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log.Named("events"),
	}
}

// Watch upgrades the connection and subscribes it to a readable wishlist
// GET /api/v1/wishlists/:id/events
func (h *EventsHandler) Watch(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Problem(c, err)
		return
	}

	if err := h.wishlistService.CanWatch(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
		response.Problem(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the error response
		h.log.Debug("websocket upgrade failed", zap.Uint64("wishlist_id", id), zap.Error(err))
		return
	}
	h.hub.Attach(conn, id)
}

// RegisterRoutes registers the event stream route
func (h *EventsHandler) RegisterRoutes(rg *gin.RouterGroup, optionalAuth gin.HandlerFunc) {
	rg.GET("/wishlists/:id/events", optionalAuth, h.Watch)
}
