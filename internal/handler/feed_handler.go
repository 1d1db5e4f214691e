package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hoffination/open-social-server/internal/middleware"
	"github.com/hoffination/open-social-server/internal/service"
)

type FeedHandler struct {
	feed *service.FeedService
}

func NewFeedHandler(feed *service.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// Personalized serves one page of the mixed feed. Pages start at zero and an
// unparsable page falls back to the first.
func (h *FeedHandler) Personalized(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		page = 0
	}
	items, err := h.feed.Personalized(c.Request.Context(), middleware.UserID(c), page)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "feed assembled", gin.H{"content": items, "page": page})
}

// ContactFeed serves the rallies of the viewer's contacts.
func (h *FeedHandler) ContactFeed(c *gin.Context) {
	items, err := h.feed.ContactFeed(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "contact feed assembled", gin.H{"content": items})
}
