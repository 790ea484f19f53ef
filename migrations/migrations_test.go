// SPDX-License-Identifier: GPL-3.0-only

package migrations

import (
	"errors"
	"path/filepath"
	"testing"
	"umkm-portal/crypto"
	"umkm-portal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "migrate.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

func TestRunSeedsAdmin(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "Admin@UMKM.test")
	t.Setenv("ADMIN_PASSWORD", "S3cure#Admin")
	t.Setenv("ADMIN_NAME", "")
	t.Setenv("ARGON2_MEMORY", "1024")
	conn := openDB(t)

	if err := Run(conn); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := Run(conn); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	var admins []models.User
	if err := conn.Where("role = ?", models.RoleAdmin).Find(&admins).Error; err != nil {
		t.Fatalf("Failed to load admins: %v", err)
	}
	if len(admins) != 1 {
		t.Fatalf("Expected one admin, got %d", len(admins))
	}
	if admins[0].Email != "admin@umkm.test" || admins[0].Name != "Administrator" {
		t.Errorf("Unexpected admin: %+v", admins[0])
	}
	if err := crypto.NewCrypto().VerifyPassword("S3cure#Admin", admins[0].Password); err != nil {
		t.Errorf("Seeded password does not verify: %v", err)
	}
}

func TestRunSkipsSeedWithoutCredentials(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("ADMIN_PASSWORD", "")
	conn := openDB(t)

	if err := Run(conn); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	var n int64
	conn.Model(&models.User{}).Count(&n)
	if n != 0 {
		t.Errorf("Expected no users, got %d", n)
	}
}

func TestSinglePendingIndex(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "")
	conn := openDB(t)
	if err := Run(conn); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	user := models.User{Name: "Owner", Email: "owner@umkm.test", Password: "x", Role: models.RoleUMKM}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	first := models.PasswordResetRequest{UserID: user.ID, Reason: "I forgot my password entirely", Status: models.ResetPending}
	if err := conn.Create(&first).Error; err != nil {
		t.Fatalf("Failed to create first request: %v", err)
	}
	second := models.PasswordResetRequest{UserID: user.ID, Reason: "Still waiting on the first one", Status: models.ResetPending}
	err := conn.Create(&second).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("Expected duplicated key error, got %v", err)
	}

	if err := conn.Model(&first).Update("status", models.ResetRejected).Error; err != nil {
		t.Fatalf("Failed to reject first request: %v", err)
	}
	third := models.PasswordResetRequest{UserID: user.ID, Reason: "Trying again after rejection", Status: models.ResetPending}
	if err := conn.Create(&third).Error; err != nil {
		t.Errorf("Expected new pending request after rejection, got %v", err)
	}
}
