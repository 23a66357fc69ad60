package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/internal/models"
)

// PendingInvitationIndex is the partial unique index guarding one pending invitation per
// (email, child).
const PendingInvitationIndex = "idx_invitation_pending"

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := db.AutoMigrate(
		&models.Identity{},
		&models.MagicLinkToken{},
		&models.Profile{},
		&models.Child{},
		&models.ParentChildRelationship{},
		&models.Assessment{},
		&models.FMSScore{},
		&models.SMCScore{},
		&models.Invitation{},
		&models.SharedLink{},
		&models.CacheEntry{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return ensurePendingInvitationIndex(db)
}

// ensurePendingInvitationIndex creates the partial unique index on dialects that support
// filtered indexes. MySQL falls back to the application pre-check.
func ensurePendingInvitationIndex(db *gorm.DB) error {
	switch db.Dialector.Name() {
	case DriverSQLite, DriverPostgres:
	default:
		return nil
	}

	stmt := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON invitations (email, child_id) WHERE status = 'pending'",
		PendingInvitationIndex,
	)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create %s: %w", PendingInvitationIndex, err)
	}
	return nil
}
