// SPDX-License-Identifier: GPL-3.0-only

package migrations

import (
	"errors"
	"fmt"
	"strings"
	"umkm-portal/commons"
	"umkm-portal/crypto"
	"umkm-portal/models"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

const singlePendingIndex = "idx_reset_single_pending"

func List() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "001_create_core_tables",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(models.AllModels...); err != nil {
					return fmt.Errorf("failed to create tables: %w", err)
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					&models.ResetAuditLog{},
					&models.PasswordResetRequest{},
					&models.Session{},
					&models.User{},
				)
			},
		},
		{
			// MySQL has no partial indexes; there the workflow's
			// transactional check is the only guard.
			ID: "002_single_pending_reset_index",
			Migrate: func(tx *gorm.DB) error {
				switch tx.Dialector.Name() {
				case "sqlite", "postgres":
				default:
					commons.Logger.Warnf("Skipping %s on %s", singlePendingIndex, tx.Dialector.Name())
					return nil
				}
				stmt := fmt.Sprintf(
					"CREATE UNIQUE INDEX IF NOT EXISTS %s ON password_reset_requests (user_id) WHERE status = '%s'",
					singlePendingIndex, models.ResetPending)
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("failed to create %s: %w", singlePendingIndex, err)
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				if tx.Dialector.Name() == "mysql" {
					return nil
				}
				return tx.Exec("DROP INDEX IF EXISTS " + singlePendingIndex).Error
			},
		},
		{
			ID:      "003_seed_admin_user",
			Migrate: seedAdmin,
			Rollback: func(tx *gorm.DB) error { return nil },
		},
	}
}

// seedAdmin creates the first administrator from ADMIN_EMAIL and
// ADMIN_PASSWORD. It does nothing when either is unset or the account
// already exists.
func seedAdmin(tx *gorm.DB) error {
	email := strings.ToLower(commons.GetEnv("ADMIN_EMAIL"))
	password := commons.GetEnv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		commons.Logger.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var existing models.User
	err := tx.Where("email = ?", email).Take(&existing).Error
	if err == nil {
		commons.Logger.Infof("Admin %s already exists", email)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	hashed, err := crypto.NewCrypto().HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.User{
		Name:     commons.GetEnv("ADMIN_NAME", "Administrator"),
		Email:    email,
		Password: hashed,
		Role:     models.RoleAdmin,
	}
	if err := tx.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	commons.Logger.Infof("Seeded admin user %s", email)
	return nil
}

func Run(conn *gorm.DB) error {
	m := gormigrate.New(conn, gormigrate.DefaultOptions, List())
	return m.Migrate()
}
