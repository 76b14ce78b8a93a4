package handlers

import (
	"errors"
	"net/http"

	"polly-backend/auth"
	"polly-backend/logging"

	"github.com/gin-gonic/gin"
)

// CredentialsInput is the body of register and login requests
type CredentialsInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler exposes registration and sessions over HTTP
type AuthHandler struct {
	auth *auth.Service
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{auth: svc}
}

// RegisterRoutes adds the /auth routes to group
func (h *AuthHandler) RegisterRoutes(group *gin.RouterGroup, limit ...gin.HandlerFunc) {
	a := group.Group("/auth")
	{
		a.GET("/me", h.Me)
		a.POST("/logout", h.Logout)

		limited := a.Group("", limit...)
		limited.POST("/register", h.Register)
		limited.POST("/login", h.Login)
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var input CredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Email and password are required.")
		return
	}

	user, err := h.auth.Register(c.Request.Context(), input.Email, input.Password)
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "An account with this email already exists."})
		return
	case errors.Is(err, auth.ErrWeakPassword):
		badRequest(c, "Password must be at least 8 characters.")
		return
	case errors.Is(err, auth.ErrInvalidEmail):
		badRequest(c, "Please enter a valid email address.")
		return
	case err != nil:
		logging.Module("http").WithError(err).Error("registration failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Registration failed."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input CredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Email and password are required.")
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), input.Email, input.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid email or password."})
		return
	}
	if err != nil {
		logging.Module("http").WithError(err).Error("login failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Login failed."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": user.ID, "email": user.Email},
	})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), BearerToken(c)); err != nil {
		logging.Module("http").WithError(err).Warn("logout failed")
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	identity := CurrentIdentity(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not logged in."})
		return
	}
	c.JSON(http.StatusOK, identity)
}
