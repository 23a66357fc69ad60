package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kidslab/kidsmove/internal/services"
)

func TestTranslateServiceError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &services.ValidationError{Field: "email", Message: "a valid email address is required"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"unauthenticated", services.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", services.ErrElevatedRoleRequired, http.StatusForbidden, "FORBIDDEN"},
		{"not found", services.ErrChildNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"conflict", services.ErrProfileExists, http.StatusConflict, "CONFLICT"},
		{"already used", services.ErrShareAlreadyUsed, http.StatusGone, "ALREADY_USED"},
		{"expired", services.ErrInvitationExpired, http.StatusGone, "EXPIRED"},
		{"wrapped", fmt.Errorf("outer: %w", services.ErrAssessmentNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			appErr := translateServiceError(tc.err)
			require.Equal(t, tc.status, appErr.StatusCode)
			require.Equal(t, tc.code, appErr.Code)
		})
	}

	require.Equal(t, services.ErrChildNotFound.Error(), translateServiceError(services.ErrChildNotFound).Message)
	require.NotContains(t, translateServiceError(errors.New("disk on fire")).Message, "disk")
}
