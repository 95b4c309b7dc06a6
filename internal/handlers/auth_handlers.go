package handlers

import (
	"net/http"
	"time"

	"localmart/internal/caching"
	"localmart/internal/common"
	"localmart/internal/models"
	"localmart/internal/repositories"
	"localmart/internal/services"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	loginRateLimit    = 10
	loginRateWindow   = 15 * time.Minute
)

// AuthHandlers handles shopper and store signup, login and token refresh.
type AuthHandlers struct {
	authSvc   services.AuthService
	userRepo  repositories.UserRepository
	storeRepo repositories.StoreRepository
	cacheSvc  caching.CacheService
}

func NewAuthHandlers(authSvc services.AuthService, userRepo repositories.UserRepository,
	storeRepo repositories.StoreRepository, cacheSvc caching.CacheService) *AuthHandlers {
	return &AuthHandlers{
		authSvc:   authSvc,
		userRepo:  userRepo,
		storeRepo: storeRepo,
		cacheSvc:  cacheSvc,
	}
}

// SignupRequest is the shopper registration payload.
type SignupRequest struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Signup handles POST /auth/signup
func (h *AuthHandlers) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.FirstName == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "First name, email and password are required")
	}
	if len(req.Password) < minPasswordLength {
		return common.SendValidationError(c, "password", "Password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return common.SendError(c, common.WrapErr(common.KindPersistence, "auth.signup", "could not hash password", err))
	}

	user := &models.User{
		ID:           uuid.New(),
		FirstName:    req.FirstName,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := h.userRepo.Create(ctx, user); err != nil {
		if repositories.IsUniqueViolation(err) {
			return common.SendError(c, common.E(common.KindConflict, "auth.signup", "email already exists"))
		}
		return common.SendError(c, common.WrapErr(common.KindPersistence, "auth.signup", "could not create user", err))
	}

	tokens, err := h.authSvc.GenerateTokens(ctx, common.Principal{Kind: common.PrincipalUser, ID: user.ID})
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"user":   user,
		"tokens": tokens,
	})
}

// LoginRequest is the shared login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login (shopper accounts)
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}
	if err := h.checkLoginRate(c, req.Email); err != nil {
		return err
	}

	user, err := h.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return common.SendError(c, common.WrapErr(common.KindPersistence, "auth.login", "could not look up user", err))
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	tokens, err := h.authSvc.GenerateTokens(ctx, common.Principal{Kind: common.PrincipalUser, ID: user.ID})
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":   user,
		"tokens": tokens,
	})
}

// StoreSignupRequest is the store registration payload.
type StoreSignupRequest struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Description string  `json:"description"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	LogoURL     *string `json:"logo_url"`
}

// StoreSignup handles POST /auth/store/signup
func (h *AuthHandlers) StoreSignup(c echo.Context) error {
	ctx := c.Request().Context()

	var req StoreSignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Name == "" || req.Address == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Name, address, email and password are required")
	}
	if len(req.Password) < minPasswordLength {
		return common.SendValidationError(c, "password", "Password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return common.SendError(c, common.WrapErr(common.KindPersistence, "auth.store_signup", "could not hash password", err))
	}

	store := &models.Store{
		ID:           uuid.New(),
		Name:         req.Name,
		Address:      req.Address,
		Description:  req.Description,
		Email:        req.Email,
		PasswordHash: string(hash),
		LogoURL:      req.LogoURL,
	}
	if err := h.storeRepo.Create(ctx, store); err != nil {
		if repositories.IsUniqueViolation(err) {
			return common.SendError(c, common.E(common.KindConflict, "auth.store_signup", "email already exists"))
		}
		return common.SendError(c, common.WrapErr(common.KindPersistence, "auth.store_signup", "could not create store", err))
	}

	tokens, err := h.authSvc.GenerateTokens(ctx, common.Principal{Kind: common.PrincipalStore, ID: store.ID})
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"store":  store,
		"tokens": tokens,
	})
}

// StoreLogin handles POST /auth/store/login
func (h *AuthHandlers) StoreLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}
	if err := h.checkLoginRate(c, req.Email); err != nil {
		return err
	}

	store, err := h.storeRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return echo.NewHTTPError(http.StatusNotFound, "Store not found")
		}
		return common.SendError(c, common.WrapErr(common.KindPersistence, "auth.store_login", "could not look up store", err))
	}
	if bcrypt.CompareHashAndPassword([]byte(store.PasswordHash), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	tokens, err := h.authSvc.GenerateTokens(ctx, common.Principal{Kind: common.PrincipalStore, ID: store.ID})
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"store":  store,
		"tokens": tokens,
	})
}

// RefreshRequest carries the opaque refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /auth/refresh
func (h *AuthHandlers) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	tokens, err := h.authSvc.RefreshTokens(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, tokens)
}

// Logout handles POST /auth/logout
func (h *AuthHandlers) Logout(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	if err := h.authSvc.RevokeRefreshToken(c.Request().Context(), req.RefreshToken); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AuthHandlers) checkLoginRate(c echo.Context, email string) error {
	ctx := c.Request().Context()
	limited, err := h.cacheSvc.IsRateLimited(ctx, "login:"+email, loginRateLimit, loginRateWindow)
	if err == nil && limited {
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts, try again later")
	}
	// A cache outage must not lock everyone out; the attempt proceeds.
	_ = h.cacheSvc.IncrementRateLimit(ctx, "login:"+email, loginRateWindow)
	return nil
}
