package router

import (
	"github.com/gin-gonic/gin"

	"github.com/hoffination/open-social-server/internal/handler"
	"github.com/hoffination/open-social-server/internal/middleware"
	"github.com/hoffination/open-social-server/internal/pkg"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Feed    *handler.FeedHandler
	Content *handler.ContentHandler
	Rally   *handler.RallyHandler
}

// SetupRouter wires every route group behind the auth middleware, leaving
// only token refresh and the health probe open.
func SetupRouter(h Handlers, tokens *pkg.TokenMaker, sessions middleware.SessionChecker, users middleware.UserLoader) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "ok", "type": "ok"})
	})
	r.POST("/auth/refresh", h.Auth.Refresh)

	auth := middleware.AuthMiddleware(tokens, sessions, users)

	authGroup := r.Group("/auth", auth)
	{
		authGroup.POST("/logout", h.Auth.Logout)
	}

	forum := r.Group("/forum", auth)
	{
		forum.GET("/feed", h.Feed.Personalized)
		forum.GET("/contactFeed", h.Feed.ContactFeed)
	}

	content := r.Group("/content", auth)
	{
		content.POST("", h.Content.Create)
		content.POST("/:id/vote", h.Content.Vote)
		content.POST("/:id/comment", h.Content.Comment)
		content.DELETE("/:id", h.Content.Delete)
	}

	rally := r.Group("/rally", auth)
	{
		rally.POST("", h.Rally.Create)
		rally.GET("/mine/upcoming", h.Rally.MyUpcoming)
		rally.GET("/mine/pending", h.Rally.MyPending)
		rally.GET("/mine/invites", h.Rally.MyInvites)
		rally.GET("/:id", h.Rally.Get)
		rally.PUT("/:id", h.Rally.Update)
		rally.DELETE("/:id", h.Rally.Delete)
		rally.GET("/:id/invites", h.Rally.InvitesForRally)
		rally.POST("/:id/request", h.Rally.RequestJoin)
		rally.POST("/:id/request/accept", h.Rally.AcceptRequest)
		rally.POST("/:id/request/decline", h.Rally.DeclineRequest)
		rally.POST("/:id/invite", h.Rally.Invite)
		rally.POST("/:id/invite/accept", h.Rally.AcceptInvite)
		rally.POST("/:id/invite/decline", h.Rally.DeclineInvite)
		rally.POST("/:id/join", h.Rally.JoinProtected)
		rally.POST("/:id/confirm", h.Rally.Confirm)
		rally.POST("/:id/unconfirm", h.Rally.Unconfirm)
		rally.POST("/:id/leave", h.Rally.Leave)
	}

	admin := r.Group("/admin", auth)
	{
		admin.POST("/censor", h.Content.Censor)
	}

	return r
}
