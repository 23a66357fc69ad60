package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/kidslab/kidsmove/internal/auth"
	"github.com/kidslab/kidsmove/pkg/response"
)

// AuthHandler exposes the passwordless sign-in endpoints.
type AuthHandler struct {
	magicLinks *iauth.MagicLinkService
}

func NewAuthHandler(magicLinks *iauth.MagicLinkService) *AuthHandler {
	return &AuthHandler{magicLinks: magicLinks}
}

type magicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyMagicLinkRequest struct {
	Token string `json:"token" validate:"required"`
}

// RequestMagicLink handles POST /api/auth/magic-link. Every well-formed address receives
// the same 202 answer whether or not an account exists.
func (h *AuthHandler) RequestMagicLink(c *gin.Context) {
	var req magicLinkRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.magicLinks.Request(requestContext(c), req.Email); err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{
		"message": "If the address can sign in, a link has been sent.",
	})
}

// VerifyMagicLink handles POST /api/auth/magic-link/verify.
func (h *AuthHandler) VerifyMagicLink(c *gin.Context) {
	var req verifyMagicLinkRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.magicLinks.Verify(requestContext(c), req.Token)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}
