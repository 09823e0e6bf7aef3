package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"authapi/internal/middleware"
	"authapi/internal/models"
	"authapi/internal/service"
	"authapi/internal/token"
	"authapi/internal/validation"
)

// Cookie lifetime matches the token expiry.
const cookieMaxAge = int(token.TTL / time.Second)

type AuthHandler interface {
	Signup(c *gin.Context)
	Signin(c *gin.Context)
	Signout(c *gin.Context)
}

type authHandler struct {
	authService service.AuthService
	issuer      *token.Issuer
	log         *zap.Logger
}

func NewAuthHandler(authService service.AuthService, issuer *token.Issuer, log *zap.Logger) AuthHandler {
	return &authHandler{authService: authService, issuer: issuer, log: log}
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// normalize trims and case-folds fields before validation so that limits
// apply to the canonical values.
func (r *SignupRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Password = strings.TrimSpace(r.Password)
	if r.Role == "" {
		r.Role = models.RoleUser
	}
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

func (r *SigninRequest) normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Password = strings.TrimSpace(r.Password)
}

func (h *authHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation error", "details": "body: must be valid JSON"})
		return
	}
	req.normalize()
	if verrs := validation.Struct(&req); verrs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation error", "details": verrs.Details()})
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), service.SignupParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
			return
		}
		h.log.Error("Signup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.setAuthCookie(c, user); err != nil {
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user.Public(),
	})
}

func (h *authHandler) Signin(c *gin.Context) {
	var req SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation error", "details": "body: must be valid JSON"})
		return
	}
	req.normalize()
	if verrs := validation.Struct(&req); verrs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation error", "details": verrs.Details()})
		return
	}

	user, err := h.authService.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		h.log.Error("Signin failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.setAuthCookie(c, user); err != nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User signed in successfully",
		"user":    user.Public(),
	})
}

// Signout clears the auth cookie unconditionally; calling it without a
// session is harmless.
func (h *authHandler) Signout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AuthCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "User signed out successfully"})
}

func (h *authHandler) setAuthCookie(c *gin.Context, user *models.User) error {
	tokenString, err := h.issuer.Sign(user.ID, user.Email, user.Role)
	if err != nil {
		h.log.Error("Failed to sign token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return err
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AuthCookieName, tokenString, cookieMaxAge, "/", "", false, true)
	return nil
}
