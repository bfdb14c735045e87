package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/wishlist-service/internal/middleware"
	"github.com/wishlist-service/internal/service"
	"github.com/wishlist-service/pkg/response"
)

// AuthHandler handles authentication and account API requests
type AuthHandler struct {
	authService     *service.AuthService
	wishlistService *service.WishlistService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService, wishlistService *service.WishlistService) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		wishlistService: wishlistService,
	}
}

// Register handles user registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		response.Problem(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		response.Problem(c, err)
		return
	}

	response.Created(c, user)
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		response.Problem(c, err)
		return
	}

	token, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Problem(c, err)
		return
	}

	response.Success(c, token)
}

// Me returns the authenticated user
// GET /api/v1/users/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.GetUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Problem(c, err)
		return
	}
	response.Success(c, user)
}

// DeleteUser removes the caller's own account
// DELETE /api/v1/users/:id
func (h *AuthHandler) DeleteUser(c *gin.Context) {
	userID, err := pathID(c, "id")
	if err != nil {
		response.Problem(c, err)
		return
	}

	if err := h.authService.DeleteAccount(c.Request.Context(), middleware.CallerFrom(c), userID); err != nil {
		response.Problem(c, err)
		return
	}
	response.Deleted(c)
}

// ListUserWishlists lists a user's wishlists visible to the caller
// GET /api/v1/users/:id/wishlists
func (h *AuthHandler) ListUserWishlists(c *gin.Context) {
	ownerID, err := pathID(c, "id")
	if err != nil {
		response.Problem(c, err)
		return
	}

	wishlists, err := h.wishlistService.ListForUser(c.Request.Context(), middleware.CallerFrom(c), ownerID)
	if err != nil {
		response.Problem(c, err)
		return
	}
	response.Success(c, wishlists)
}

// RegisterRoutes registers auth and user routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware, optionalAuth gin.HandlerFunc) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	users := rg.Group("/users")
	{
		users.GET("/me", authMiddleware, h.Me)
		users.DELETE("/:id", authMiddleware, h.DeleteUser)
		users.GET("/:id/wishlists", optionalAuth, h.ListUserWishlists)
	}
}
