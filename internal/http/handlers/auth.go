package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/postboard/internal/auth"
	"github.com/geocoder89/postboard/internal/config"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/http/middlewares"
	"github.com/geocoder89/postboard/internal/observability"
	"github.com/geocoder89/postboard/internal/repo/postgres"
	"github.com/geocoder89/postboard/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, name, email, passwordHash string) (user.User, error)
}

type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

type AuthHandler struct {
	users      UserReader
	userWriter UserWriter
	jwt        *auth.Manager
	denylist   TokenRevoker
	prom       *observability.Prom
}

func NewAuthHandler(users UserReader, userWriter UserWriter, jwtManager *auth.Manager, denylist TokenRevoker, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		jwt:        jwtManager,
		denylist:   denylist,
		prom:       prom,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	_, err = h.userWriter.Create(cctx, req.Name, req.Email, hash)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailTaken) {
			h.prom.ObserveAuth("register", "rejected")
			RespondBadRequest(ctx, "email_taken", "User already exists", nil)
			return
		}

		h.prom.ObserveAuth("register", "error")
		RespondInternal(ctx, "Could not create user")
		return
	}

	h.prom.ObserveAuth("register", "ok")

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User registered successfully",
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		// identical response for unknown email and bad password, so a caller
		// cannot probe which emails are registered
		h.prom.ObserveAuth("login", "rejected")
		RespondBadRequest(ctx, "invalid_credentials", "Invalid credentials", nil)
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		h.prom.ObserveAuth("login", "rejected")
		RespondBadRequest(ctx, "invalid_credentials", "Invalid credentials", nil)
		return
	}

	token, err := h.jwt.GenerateAccessToken(foundUser.ID, foundUser.Email)

	if err != nil {
		h.prom.ObserveAuth("login", "error")
		RespondInternal(ctx, "Could not generate token")
		return
	}

	h.prom.ObserveAuth("login", "ok")

	// token echoed in the auth-token header as well as the body
	ctx.Header(middlewares.TokenHeader, token)

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
	})
}

// Logout denylists the presented token for its remaining lifetime. Without a
// denylist configured there is nothing to revoke and the call is a no-op.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	if h.denylist == nil {
		ctx.Status(http.StatusNoContent)
		return
	}

	raw, ok := middlewares.RawTokenFromContext(ctx)
	if !ok {
		ctx.Status(http.StatusNoContent)
		return
	}

	claims, err := h.jwt.VerifyAccessToken(raw)
	if err != nil {
		ctx.Status(http.StatusNoContent)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	expiresAt := time.Now().UTC().Add(time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := h.denylist.Revoke(cctx, claims.JTI, expiresAt); err != nil {
		RespondInternal(ctx, "Could not log out")
		return
	}

	ctx.Status(http.StatusNoContent)
}
