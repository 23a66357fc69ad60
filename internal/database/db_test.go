package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Exec("SELECT 1").Error)
	require.NoError(t, Ping(context.Background(), db))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestAutoMigrateCreatesTables(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	migrator := db.Migrator()
	for _, model := range []any{
		&models.Identity{}, &models.Profile{}, &models.Child{}, &models.Assessment{},
		&models.FMSScore{}, &models.SMCScore{}, &models.Invitation{},
		&models.ParentChildRelationship{}, &models.SharedLink{}, &models.MagicLinkToken{},
		&models.CacheEntry{},
	} {
		require.True(t, migrator.HasTable(model), "%T", model)
	}
	require.True(t, migrator.HasIndex(&models.Invitation{}, PendingInvitationIndex))

	// Running twice is a no-op.
	require.NoError(t, AutoMigrate(db))
}

func TestPendingInvitationIndexIsPartial(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	profile := models.Profile{BaseModel: models.BaseModel{ID: "coach-1"}, Role: models.RoleCoach, Email: "coach@example.com"}
	require.NoError(t, db.Create(&profile).Error)
	child := models.Child{OwnerProfileID: profile.ID, FirstName: "Taro", LastName: "Yamada", Birthdate: datatypes.Date(time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC))}
	require.NoError(t, db.Create(&child).Error)

	newInvite := func(token string, status models.InvitationStatus) *models.Invitation {
		return &models.Invitation{
			Email: "mom@example.com", ChildID: child.ID, InvitedBy: profile.ID,
			Token: token, Status: status, ExpiresAt: time.Now().Add(time.Hour),
		}
	}

	require.NoError(t, db.Create(newInvite("t1", models.InvitationExpired)).Error)
	require.NoError(t, db.Create(newInvite("t2", models.InvitationPending)).Error)

	err := db.Create(newInvite("t3", models.InvitationPending)).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	require.NoError(t, db.Create(newInvite("t4", models.InvitationAccepted)).Error)
}

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "kidsmove", Name: "kidsmove"})
	require.NoError(t, err)
	require.Equal(t, "host=localhost port=5432 user=kidsmove dbname=kidsmove TimeZone=UTC sslmode=disable", dsn)
}

func TestBuildPostgresDSNWithOptions(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "user",
		Name:     "db",
		Host:     "db.example.com",
		Port:     6543,
		Password: "pass",
		Options:  map[string]string{"sslmode": "require", "search_path": "public"},
	})
	require.NoError(t, err)
	for _, part := range []string{"host=db.example.com", "port=6543", "password=pass", "sslmode=require", "search_path=public"} {
		require.Contains(t, dsn, part)
	}
	require.NotContains(t, dsn, "sslmode=disable")
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "kidsmove", Name: "kidsmove"})
	require.NoError(t, err)
	require.Equal(t, "kidsmove@tcp(127.0.0.1:3306)/kidsmove?charset=utf8mb4&loc=UTC&parseTime=True", dsn)

	dsn, err = buildMySQLDSN(Config{User: "u", Password: "p", Name: "db", Host: "mysql", Port: 3307, Options: map[string]string{"tls": "skip-verify"}})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dsn, "u:p@tcp(mysql:3307)/db?"))
	require.Contains(t, dsn, "tls=skip-verify")
}

func TestBuildDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{})
	require.Error(t, err)
	_, err = buildMySQLDSN(Config{Host: "localhost"})
	require.Error(t, err)

	dsn, err := buildMySQLDSN(Config{DSN: "override"})
	require.NoError(t, err)
	require.Equal(t, "override", dsn)
}

func TestSQLiteDSN(t *testing.T) {
	dsn, err := sqliteDSN(Config{Path: ":memory:"})
	require.NoError(t, err)
	require.Equal(t, sqliteMemoryDSN, dsn)

	path := filepath.Join(t.TempDir(), "nested", "kidsmove.db")
	dsn, err = sqliteDSN(Config{Path: path})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dsn, "file:"))
	require.DirExists(t, filepath.Dir(path))
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: DriverSQLite, DSN: "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared&_foreign_keys=1"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = Close(db)
	})
	return db
}
