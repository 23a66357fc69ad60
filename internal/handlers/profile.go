package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidslab/kidsmove/internal/models"
	"github.com/kidslab/kidsmove/internal/services"
	"github.com/kidslab/kidsmove/pkg/response"
)

type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type createProfileRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,max=255"`
	Role     string `json:"role" validate:"required,oneof=admin coach parent"`
}

// Me handles GET /api/me.
func (h *ProfileHandler) Me(c *gin.Context) {
	profile, err := h.profiles.Me(requestContext(c), currentIdentity(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// Create handles POST /api/profiles.
func (h *ProfileHandler) Create(c *gin.Context) {
	var req createProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	profile, err := h.profiles.Create(requestContext(c), currentIdentity(c), services.CreateProfileInput{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, profile)
}
