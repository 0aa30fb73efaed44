package handler

import (
	"errors"
	"net/http"
	"strings"

	"vendor-service/internal/model"
	"vendor-service/internal/repository"
	"vendor-service/pkg/jwtutil"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest defines the structure for account registration
type RegisterRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// LoginRequest defines the structure for login requests
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthHandler serves registration and login
type AuthHandler struct {
	users  *repository.UserRepo
	tokens *jwtutil.JWTUtil
}

// NewAuthHandler creates the auth handler
func NewAuthHandler(users *repository.UserRepo, tokens *jwtutil.JWTUtil) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// Register creates a user account and returns a token for it
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("register")

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return badRequest(c, "Invalid request data")
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return badRequest(c, "name, email and password are required")
	}
	if !strings.Contains(req.Email, "@") {
		return badRequest(c, "Invalid email address")
	}
	if req.Password != req.Password2 {
		return badRequest(c, "Passwords do not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to register user"})
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := h.users.Create(c.Request().Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			log.Warn("Email already registered", zap.String("email", req.Email))
			return c.JSON(http.StatusConflict, echo.Map{"error": "A user with this email already exists"})
		}
		return respondError(c, log, "Failed to create user", err)
	}

	token, err := h.tokens.GenerateToken(user.Email, user.ID, user.ExternalID)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to generate token"})
	}

	log.Info("User registered", zap.String("external_id", user.ExternalID))
	return c.JSON(http.StatusCreated, echo.Map{
		"user":  user,
		"token": token,
	})
}

// Login exchanges valid credentials for a token
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("login")

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return badRequest(c, "Invalid request data")
	}

	user, err := h.users.GetByEmail(c.Request().Context(), req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return respondError(c, log, "Failed to look up user", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		log.Warn("Invalid login attempt", zap.String("email", req.Email))
		prometheus.RecordAuthAttempt(false)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
	}
	prometheus.RecordAuthAttempt(true)

	token, err := h.tokens.GenerateToken(user.Email, user.ID, user.ExternalID)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to generate token"})
	}

	log.Info("User logged in", zap.String("external_id", user.ExternalID))
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}
