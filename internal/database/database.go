package database

import (
	"fmt"
	"strings"

	sqlite "github.com/glebarez/sqlite"
	"github.com/perchcam/perch/internal/accounts"
	"github.com/perchcam/perch/internal/auth"
	"github.com/perchcam/perch/internal/cameras"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open establishes the database connection and performs schema migrations.
// A DSN starting with "postgres" selects the Postgres driver; anything else
// is treated as a SQLite path, with an optional "sqlite://" prefix.
func Open(dsn string, logger *zap.Logger) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&accounts.User{},
		&auth.UserToken{},
		&auth.CameraToken{},
		&cameras.Camera{},
		&cameras.Link{},
		&cameras.CameraConfig{},
		&migrationRecord{},
	); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized")
	}

	return db, nil
}
