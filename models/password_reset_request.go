// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"
)

type ResetStatus string

const (
	ResetPending  ResetStatus = "pending"
	ResetApproved ResetStatus = "approved"
	ResetRejected ResetStatus = "rejected"
)

func (s ResetStatus) Valid() bool {
	switch s {
	case ResetPending, ResetApproved, ResetRejected:
		return true
	}
	return false
}

// PasswordResetRequest is an admin-moderated request to regain account
// access. Code is only set once Status is approved. ResetToken is issued
// each time the code is verified and is what authorizes the password
// change. Records are hard deleted when the password is changed.
type PasswordResetRequest struct {
	ID         uint        `gorm:"primaryKey"`
	UserID     uint        `gorm:"not null;index:idx_reset_user_status,priority:1"`
	User       User        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Code       *string     `gorm:"size:6;default:null;index"`
	ResetToken *string     `gorm:"size:255;default:null;uniqueIndex"`
	Reason     string      `gorm:"type:text;not null"`
	Status     ResetStatus `gorm:"size:16;not null;default:pending;index:idx_reset_user_status,priority:2"`
	AdminID    *uint       `gorm:"default:null"`
	Admin      *User       `gorm:"foreignKey:AdminID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	AdminNote  *string     `gorm:"type:text;default:null"`
	ApprovedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func init() {
	AllModels = append(AllModels, &PasswordResetRequest{})
}
