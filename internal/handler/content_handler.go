package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hoffination/open-social-server/internal/middleware"
	"github.com/hoffination/open-social-server/internal/pkg"
	"github.com/hoffination/open-social-server/internal/service"
)

type ContentHandler struct {
	content *service.ContentService
}

func NewContentHandler(content *service.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

func (h *ContentHandler) Create(c *gin.Context) {
	var in service.CreateContentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondErr(c, pkg.NewError(pkg.BadInput, "malformed content body"))
		return
	}
	item, err := h.content.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "content created", gin.H{"content": item})
}

func (h *ContentHandler) Vote(c *gin.Context) {
	item, err := h.content.Vote(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "vote recorded", gin.H{"votes": item.Votes, "voted": item.Voted})
}

func (h *ContentHandler) Comment(c *gin.Context) {
	if err := h.content.CommentAdded(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "comment counted", nil)
}

func (h *ContentHandler) Delete(c *gin.Context) {
	if err := h.content.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "content deleted", nil)
}

// Censor is the moderation endpoint; the service enforces the admin check.
func (h *ContentHandler) Censor(c *gin.Context) {
	var in struct {
		ContentID string `json:"contentId"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.ContentID == "" {
		respondErr(c, pkg.NewError(pkg.BadInput, "contentId is required"))
		return
	}
	if err := h.content.Censor(c.Request.Context(), middleware.UserID(c), in.ContentID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "content censored", nil)
}
