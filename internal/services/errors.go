package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Error kinds. Every service error wraps exactly one of these so the HTTP layer can map it.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrAlreadyUsed     = errors.New("already used")
	ErrExpired         = errors.New("expired")
)

var (
	// ErrElevatedRoleRequired is returned when a coach or admin role is needed.
	ErrElevatedRoleRequired = fmt.Errorf("%w: coach or admin role required", ErrForbidden)
	// ErrAdminRequired is returned when only admins may perform the operation.
	ErrAdminRequired = fmt.Errorf("%w: admin role required", ErrForbidden)
	// ErrProfileNotFound indicates the identity has no profile yet.
	ErrProfileNotFound = fmt.Errorf("profile %w", ErrNotFound)
	// ErrProfileExists indicates a profile already exists for the email.
	ErrProfileExists = fmt.Errorf("%w: a profile already exists for this email", ErrConflict)
	// ErrChildNotFound indicates no visible child matches the id.
	ErrChildNotFound = fmt.Errorf("child %w", ErrNotFound)
	// ErrAssessmentNotFound indicates no visible assessment matches the id.
	ErrAssessmentNotFound = fmt.Errorf("assessment %w", ErrNotFound)
)

// ValidationError reports malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate")
}
