package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kidslab/kidsmove/internal/services"
	appErrors "github.com/kidslab/kidsmove/pkg/errors"
	"github.com/kidslab/kidsmove/pkg/response"
)

// writeServiceError renders a service failure using the status of its error family.
func writeServiceError(c *gin.Context, err error) {
	response.Error(c, translateServiceError(err))
}

func translateServiceError(err error) *appErrors.AppError {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return appErrors.NewBadRequest(validationErr.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		return appErrors.ErrUnauthorized.WithMessage(err.Error())
	case errors.Is(err, services.ErrForbidden):
		return appErrors.ErrForbidden.WithMessage(err.Error())
	case errors.Is(err, services.ErrNotFound):
		return appErrors.ErrNotFound.WithMessage(err.Error())
	case errors.Is(err, services.ErrConflict):
		return appErrors.ErrConflict.WithMessage(err.Error())
	case errors.Is(err, services.ErrAlreadyUsed):
		return appErrors.ErrAlreadyUsed.WithMessage(err.Error())
	case errors.Is(err, services.ErrExpired):
		return appErrors.ErrExpired.WithMessage(err.Error())
	default:
		return appErrors.ErrInternalServer.WithInternal(err)
	}
}
