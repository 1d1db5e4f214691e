package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/hoffination/open-social-server/internal/middleware"
	"github.com/hoffination/open-social-server/internal/pkg"
)

type SessionStore interface {
	SetToken(ctx context.Context, userID, token string) error
	DeleteToken(ctx context.Context, userID string) error
}

// AuthHandler covers token upkeep. Initial credential exchange happens in the
// identity tier; this service only rotates and revokes its own sessions.
type AuthHandler struct {
	tokens   *pkg.TokenMaker
	sessions SessionStore
}

func NewAuthHandler(tokens *pkg.TokenMaker, sessions SessionStore) *AuthHandler {
	return &AuthHandler{tokens: tokens, sessions: sessions}
}

// Refresh trades a valid refresh token for a new pair and rotates the stored
// session, invalidating the old access token everywhere.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var in struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.RefreshToken == "" {
		respondErr(c, pkg.NewError(pkg.BadInput, "refreshToken is required"))
		return
	}
	pair, err := h.tokens.Refresh(in.RefreshToken)
	if err != nil {
		respondErr(c, pkg.WrapError(pkg.AUTH, "refresh token rejected", err))
		return
	}
	claims, err := h.tokens.ParseAccess(pair.AccessToken)
	if err != nil {
		respondErr(c, pkg.WrapError(pkg.EXCEPTION, "issuing tokens", err))
		return
	}
	if err := h.sessions.SetToken(c.Request.Context(), claims.UserID, pair.AccessToken); err != nil {
		respondErr(c, pkg.WrapError(pkg.EXCEPTION, "storing session", err))
		return
	}
	respondOK(c, "tokens refreshed", gin.H{"tokens": pair})
}

// Logout drops the caller's session so the current token stops working.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.DeleteToken(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondErr(c, pkg.WrapError(pkg.EXCEPTION, "clearing session", err))
		return
	}
	respondOK(c, "logged out", nil)
}
