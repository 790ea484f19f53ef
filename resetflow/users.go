// SPDX-License-Identifier: GPL-3.0-only

package resetflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"umkm-portal/models"

	"gorm.io/gorm"
)

// UserDirectory resolves requester identities. Lookups return nil without
// error when no user matches.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// CredentialStore replaces a user's password. It is only called after a
// verification code has been validated.
type CredentialStore interface {
	SetPassword(ctx context.Context, userID uint, newPassword string) error
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// GormUsers implements UserDirectory and CredentialStore on the users table.
type GormUsers struct {
	db     *gorm.DB
	hasher PasswordHasher
}

func NewGormUsers(db *gorm.DB, hasher PasswordHasher) *GormUsers {
	return &GormUsers{db: db, hasher: hasher}
}

func (u *GormUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *GormUsers) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetPassword stores the hashed password and signs the user out of every
// existing session.
func (u *GormUsers) SetPassword(ctx context.Context, userID uint, newPassword string) error {
	hashed, err := u.hasher.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).Update("password", hashed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("user_id = ?", userID).Delete(&models.Session{}).Error
	})
}
