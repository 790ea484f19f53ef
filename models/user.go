// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"gorm.io/gorm"
)

var AllModels []any

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUMKM  UserRole = "umkm"
)

type User struct {
	ID          uint     `gorm:"primaryKey"`
	Name        string   `gorm:"size:255;not null"`
	Email       string   `gorm:"size:255;not null;uniqueIndex"`
	Password    string   `gorm:"not null"`
	Role        UserRole `gorm:"size:16;not null;default:umkm;index"`
	PhoneNumber *string  `gorm:"size:32;default:null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func init() {
	AllModels = append(AllModels, &User{})
}
