package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidslab/kidsmove/internal/services"
	"github.com/kidslab/kidsmove/pkg/response"
)

type ChildHandler struct {
	children *services.ChildService
}

func NewChildHandler(children *services.ChildService) *ChildHandler {
	return &ChildHandler{children: children}
}

type createChildRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"required,max=100"`
	Birthdate string  `json:"birthdate" validate:"required,isodate"`
	Grade     *string `json:"grade" validate:"omitempty,max=50"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

type updateChildRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Birthdate *string `json:"birthdate" validate:"omitempty,isodate"`
	Grade     *string `json:"grade" validate:"omitempty,max=50"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

func (h *ChildHandler) Create(c *gin.Context) {
	var req createChildRequest
	if !bindAndValidate(c, &req) {
		return
	}

	child, err := h.children.Create(requestContext(c), currentIdentity(c), services.ChildInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Birthdate: req.Birthdate,
		Grade:     req.Grade,
		Notes:     req.Notes,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, child)
}

func (h *ChildHandler) List(c *gin.Context) {
	children, err := h.children.List(requestContext(c), currentIdentity(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.List(c, children)
}

func (h *ChildHandler) Get(c *gin.Context) {
	child, err := h.children.Get(requestContext(c), currentIdentity(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, child)
}

func (h *ChildHandler) Update(c *gin.Context) {
	var req updateChildRequest
	if !bindAndValidate(c, &req) {
		return
	}

	child, err := h.children.Update(requestContext(c), currentIdentity(c), c.Param("id"), services.ChildUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Birthdate: req.Birthdate,
		Grade:     req.Grade,
		Notes:     req.Notes,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, child)
}

func (h *ChildHandler) Delete(c *gin.Context) {
	if err := h.children.Delete(requestContext(c), currentIdentity(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
