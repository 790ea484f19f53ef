// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ResetAction string

const (
	ActionSubmitted ResetAction = "submitted"
	ActionApproved  ResetAction = "approved"
	ActionRejected  ResetAction = "rejected"
	ActionRedeemed  ResetAction = "redeemed"
)

// ResetAuditLog is append-only. RequestID is not a foreign key so entries
// outlive redeemed requests.
type ResetAuditLog struct {
	ID        uint        `gorm:"primaryKey"`
	EID       uuid.UUID   `gorm:"size:36;not null;uniqueIndex"`
	Action    ResetAction `gorm:"size:16;not null"`
	RequestID uint        `gorm:"not null;index"`
	UserID    uint        `gorm:"not null;index"`
	ActorID   *uint       `gorm:"default:null"`
	Note      *string     `gorm:"type:text;default:null"`
	CreatedAt time.Time
}

func (ResetAuditLog) TableName() string {
	return "password_reset_audit_logs"
}

func (l *ResetAuditLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.EID == uuid.Nil {
		l.EID = uuid.New()
	}
	return
}

func init() {
	AllModels = append(AllModels, &ResetAuditLog{})
}
