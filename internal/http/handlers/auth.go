package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/noteflow/internal/config"
	"github.com/geocoder89/noteflow/internal/domain/user"
	"github.com/geocoder89/noteflow/internal/service"
	"github.com/gin-gonic/gin"
)

// AuthService is what the auth routes need; *service.AuthService satisfies it.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
	VerifyAndLoadProfile(ctx context.Context, authorizationHeader string) (user.Public, error)
}

type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRequest accepts "username" as a legacy alias for "name".
type RegisterRequest struct {
	Name     string `json:"name" binding:"omitempty,max=100"`
	Username string `json:"username" binding:"omitempty,max=100"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    user.Public `json:"user"`
}

func (r RegisterRequest) displayName() string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return strings.TrimSpace(r.Username)
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.auth.Register(cctx, service.RegisterInput{
		Name:     req.displayName(),
		Email:    req.Email,
		Password: req.Password,
	})

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Registration successful",
		Token:   res.Token,
		User:    res.User,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup and bcrypt
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.auth.Login(cctx, req.Email, req.Password)

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		Token:   res.Token,
		User:    res.User,
	})
}

func (h *AuthHandler) Profile(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	profile, err := h.auth.VerifyAndLoadProfile(cctx, ctx.GetHeader("Authorization"))

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, profile)
}
