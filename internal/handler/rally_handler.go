package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hoffination/open-social-server/internal/middleware"
	"github.com/hoffination/open-social-server/internal/model"
	"github.com/hoffination/open-social-server/internal/pkg"
	"github.com/hoffination/open-social-server/internal/service"
)

type RallyHandler struct {
	rally *service.RallyService
}

func NewRallyHandler(rally *service.RallyService) *RallyHandler {
	return &RallyHandler{rally: rally}
}

func rallyPayload(rally *model.Content) gin.H {
	return gin.H{
		"rally":     rally,
		"attending": service.Attending(rally),
	}
}

func (h *RallyHandler) Create(c *gin.Context) {
	var in service.CreateRallyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondErr(c, pkg.NewError(pkg.BadInput, "malformed rally body"))
		return
	}
	rally, err := h.rally.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "rally created", rallyPayload(rally))
}

func (h *RallyHandler) Get(c *gin.Context) {
	rally, err := h.rally.View(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "rally found", rallyPayload(rally))
}

func (h *RallyHandler) Update(c *gin.Context) {
	var in service.UpdateRallyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondErr(c, pkg.NewError(pkg.BadInput, "malformed rally body"))
		return
	}
	rally, err := h.rally.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "rally updated", rallyPayload(rally))
}

func (h *RallyHandler) Delete(c *gin.Context) {
	if err := h.rally.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "rally deleted", nil)
}

func (h *RallyHandler) RequestJoin(c *gin.Context) {
	rally, err := h.rally.RequestJoin(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "request recorded", rallyPayload(rally))
}

// targetBody is the shape of host decisions on someone else's request.
type targetBody struct {
	UserID string `json:"userId"`
}

func (h *RallyHandler) AcceptRequest(c *gin.Context) {
	var in targetBody
	if err := c.ShouldBindJSON(&in); err != nil || in.UserID == "" {
		respondErr(c, pkg.NewError(pkg.BadInput, "userId is required"))
		return
	}
	rally, err := h.rally.AcceptRequest(c.Request.Context(), middleware.UserID(c), c.Param("id"), in.UserID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "request accepted", rallyPayload(rally))
}

func (h *RallyHandler) DeclineRequest(c *gin.Context) {
	var in targetBody
	if err := c.ShouldBindJSON(&in); err != nil || in.UserID == "" {
		respondErr(c, pkg.NewError(pkg.BadInput, "userId is required"))
		return
	}
	rally, err := h.rally.DeclineRequest(c.Request.Context(), middleware.UserID(c), c.Param("id"), in.UserID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "request declined", rallyPayload(rally))
}

func (h *RallyHandler) Invite(c *gin.Context) {
	var in struct {
		Users []string `json:"users"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || len(in.Users) == 0 {
		respondErr(c, pkg.NewError(pkg.BadInput, "users list is required"))
		return
	}
	rally, err := h.rally.Invite(c.Request.Context(), middleware.UserID(c), c.Param("id"), in.Users)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "invites sent", rallyPayload(rally))
}

func (h *RallyHandler) AcceptInvite(c *gin.Context) {
	rally, err := h.rally.AcceptInvite(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "invite accepted", rallyPayload(rally))
}

func (h *RallyHandler) DeclineInvite(c *gin.Context) {
	rally, err := h.rally.DeclineInvite(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "invite declined", rallyPayload(rally))
}

func (h *RallyHandler) JoinProtected(c *gin.Context) {
	rally, err := h.rally.JoinProtected(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "joined rally", rallyPayload(rally))
}

func (h *RallyHandler) Confirm(c *gin.Context) {
	rally, err := h.rally.Confirm(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "attendance confirmed", rallyPayload(rally))
}

func (h *RallyHandler) Unconfirm(c *gin.Context) {
	rally, err := h.rally.Unconfirm(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "attendance withdrawn", rallyPayload(rally))
}

func (h *RallyHandler) Leave(c *gin.Context) {
	rally, err := h.rally.Leave(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "left rally", rallyPayload(rally))
}

func (h *RallyHandler) MyUpcoming(c *gin.Context) {
	rallies, err := h.rally.MyUpcomingRallies(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "upcoming rallies found", gin.H{"rallies": rallies})
}

func (h *RallyHandler) MyPending(c *gin.Context) {
	rallies, err := h.rally.MyPendingRallies(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "pending rallies found", gin.H{"rallies": rallies})
}

func (h *RallyHandler) InvitesForRally(c *gin.Context) {
	invites, err := h.rally.RallyInvites(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "rally invites found", gin.H{"invites": invites})
}

func (h *RallyHandler) MyInvites(c *gin.Context) {
	rallies, err := h.rally.MyRallyInvites(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "rally invites found", gin.H{"rallies": rallies})
}
