package service

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/wishlist-service/internal/config"
	"github.com/wishlist-service/internal/models"
	"github.com/wishlist-service/internal/problem"
	"github.com/wishlist-service/pkg/crypto"
)

// AuthService handles registration, credential checks and tokens
type AuthService struct {
	users     UserStore
	vault     crypto.PasswordVault
	jwtConfig config.JWTConfig
	log       *zap.Logger
	now       func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserStore, vault crypto.PasswordVault, jwtConfig config.JWTConfig, log *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		vault:     vault,
		jwtConfig: jwtConfig,
		log:       log.Named("auth"),
		now:       time.Now,
	}
}

// RegisterRequest represents the registration request
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,noscript"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=100"`
}

// LoginRequest represents the login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents the JWT token response
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      uint64    `json:"user_id"`
}

// Register creates an account. Username is checked before email, and a
// collision detected by the unique index is reported the same way.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	fe := fieldErrors{}
	username := fe.text("username", req.Username, minUsernameLen, maxUsernameLen)
	email := fe.email("email", req.Email)
	if n := utf8.RuneCountInString(req.Password); n < minPasswordLen || n > maxPasswordLen {
		fe.add("password", "password must be between 8 and 100 characters")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	if err := s.checkAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	hash, err := s.vault.Hash(req.Password)
	if err != nil {
		return nil, problem.Wrap(problem.KindInternal, err, "hash password")
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if problem.Is(err, problem.KindConflict) {
			// lost a race against a concurrent registration
			if err := s.checkAvailable(ctx, username, email); err != nil {
				return nil, err
			}
			return nil, problem.Conflict("username", "username already taken")
		}
		return nil, err
	}

	s.log.Info("user registered", zap.Uint64("user_id", user.ID))
	return user, nil
}

func (s *AuthService) checkAvailable(ctx context.Context, username, email string) error {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return problem.Conflict("username", "username already taken")
	}

	exists, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return problem.Conflict("email", "email already registered")
	}
	return nil
}

// Authenticate checks credentials and returns the user id. Unknown emails and
// wrong passwords fail identically and take the same time.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (uint64, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !problem.Is(err, problem.KindNotFound) {
			return 0, err
		}
		_, _ = s.vault.Verify(password, s.vault.DummyHash())
		return 0, errInvalidCredentials()
	}

	ok, err := s.vault.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Error("stored password hash is unreadable", zap.Uint64("user_id", user.ID), zap.Error(err))
		return 0, problem.Wrap(problem.KindInternal, err, "verify password")
	}
	if !ok {
		return 0, errInvalidCredentials()
	}
	return user.ID, nil
}

func errInvalidCredentials() error {
	return problem.New(problem.KindInvalidCredentials, "invalid email or password")
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	userID, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.IssueToken(userID)
}

// IssueToken signs a token for userID
func (s *AuthService) IssueToken(userID uint64) (*TokenResponse, error) {
	ttl := time.Duration(s.jwtConfig.ExpireMinutes) * time.Minute
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    s.jwtConfig.Issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return nil, problem.Wrap(problem.KindInternal, err, "sign token")
	}

	return &TokenResponse{
		AccessToken: tokenString,
		TokenType:   "Bearer",
		ExpiresIn:   int(ttl.Seconds()),
		ExpiresAt:   expiresAt.UTC(),
		UserID:      userID,
	}, nil
}

// VerifyToken validates a token and returns the user it was issued to. The
// user must still exist.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (uint64, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(s.jwtConfig.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.jwtConfig.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.log.Debug("token rejected", zap.Error(err))
		return 0, errInvalidToken()
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return 0, errInvalidToken()
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if problem.Is(err, problem.KindNotFound) {
			return 0, errInvalidToken()
		}
		return 0, err
	}
	return userID, nil
}

func errInvalidToken() error {
	return problem.New(problem.KindInvalidToken, "invalid or expired token")
}

// GetUser retrieves a user by ID
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// DeleteAccount removes the caller's own account with all their wishlists
func (s *AuthService) DeleteAccount(ctx context.Context, caller Caller, userID uint64) error {
	if !caller.Authenticated {
		return errInvalidToken()
	}
	if caller.UserID != userID {
		return problem.New(problem.KindAccessDenied, "you can only delete your own account")
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.Uint64("user_id", userID))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
