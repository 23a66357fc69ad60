package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidslab/kidsmove/internal/services"
	"github.com/kidslab/kidsmove/pkg/response"
)

// InvitationHandler exposes the parent invitation lifecycle.
type InvitationHandler struct {
	invitations *services.InvitationService
}

func NewInvitationHandler(invitations *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

type createInvitationRequest struct {
	Email   string `json:"email" validate:"required,max=320"`
	ChildID string `json:"child_id" validate:"required"`
}

type acceptInvitationRequest struct {
	Token    string `json:"token" validate:"required"`
	FullName string `json:"full_name" validate:"omitempty,max=255"`
}

// Create handles POST /api/invitations.
func (h *InvitationHandler) Create(c *gin.Context) {
	var req createInvitationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	created, err := h.invitations.Create(requestContext(c), currentIdentity(c), req.Email, req.ChildID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, created)
}

// List handles GET /api/invitations with an optional child_id filter.
func (h *InvitationHandler) List(c *gin.Context) {
	items, err := h.invitations.List(requestContext(c), currentIdentity(c), c.Query("child_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.List(c, items)
}

// Validate handles the public GET /api/invitations/validate?token=.
func (h *InvitationHandler) Validate(c *gin.Context) {
	details, err := h.invitations.Validate(requestContext(c), c.Query("token"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, details)
}

// Accept handles POST /api/invitations/accept.
func (h *InvitationHandler) Accept(c *gin.Context) {
	var req acceptInvitationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.invitations.Accept(requestContext(c), currentIdentity(c), req.Token, req.FullName); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"accepted": true})
}

// Revoke handles POST /api/invitations/:id/revoke.
func (h *InvitationHandler) Revoke(c *gin.Context) {
	if err := h.invitations.Revoke(requestContext(c), currentIdentity(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}
