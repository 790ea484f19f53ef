// SPDX-License-Identifier: GPL-3.0-only

package resetflow

import (
	"context"
	"errors"
	"strings"
	"time"
	"umkm-portal/models"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists password reset requests. It applies no business rules
// beyond the minimum reason length; see Workflow for those.
type Store struct {
	db              *gorm.DB
	now             func() time.Time
	minReasonLength int
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:              db,
		now:             time.Now,
		minReasonLength: DefaultConfig().MinReasonLength,
	}
}

// Changes is the set of columns a transition writes. Nil fields are left
// untouched. updated_at is always written.
type Changes struct {
	Status     *models.ResetStatus
	Code       *string
	AdminID    *uint
	AdminNote  *string
	ApprovedAt *time.Time
	ResetToken *string
}

func (c Changes) columns(now time.Time) map[string]any {
	cols := map[string]any{"updated_at": now}
	if c.Status != nil {
		cols["status"] = string(*c.Status)
	}
	if c.Code != nil {
		cols["code"] = *c.Code
	}
	if c.AdminID != nil {
		cols["admin_id"] = *c.AdminID
	}
	if c.AdminNote != nil {
		cols["admin_note"] = *c.AdminNote
	}
	if c.ApprovedAt != nil {
		cols["approved_at"] = *c.ApprovedAt
	}
	if c.ResetToken != nil {
		cols["reset_token"] = *c.ResetToken
	}
	return cols
}

func (c Changes) applyTo(req *models.PasswordResetRequest, now time.Time) {
	if c.Status != nil {
		req.Status = *c.Status
	}
	if c.Code != nil {
		code := *c.Code
		req.Code = &code
	}
	if c.AdminID != nil {
		id := *c.AdminID
		req.AdminID = &id
	}
	if c.AdminNote != nil {
		note := *c.AdminNote
		req.AdminNote = &note
	}
	if c.ApprovedAt != nil {
		at := *c.ApprovedAt
		req.ApprovedAt = &at
	}
	if c.ResetToken != nil {
		token := *c.ResetToken
		req.ResetToken = &token
	}
	req.UpdatedAt = now
}

type ListQuery struct {
	Page     int
	PageSize int
	Status   models.ResetStatus
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Transaction runs fn against a Store bound to a single database
// transaction. Returning an error rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, now: s.now, minReasonLength: s.minReasonLength})
	})
}

func (s *Store) Create(ctx context.Context, userID uint, reason string) (*models.PasswordResetRequest, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < s.minReasonLength {
		return nil, invalid("reason", "must be at least %d characters", s.minReasonLength)
	}

	now := s.now()
	req := &models.PasswordResetRequest{
		UserID:    userID,
		Reason:    reason,
		Status:    models.ResetPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conn(ctx).Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

// takeOne runs q and returns nil without error when nothing matches.
func takeOne(q *gorm.DB) (*models.PasswordResetRequest, error) {
	var req models.PasswordResetRequest
	err := q.Take(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Store) FindByID(ctx context.Context, id uint) (*models.PasswordResetRequest, error) {
	return takeOne(s.conn(ctx).Where("id = ?", id))
}

func (s *Store) FindLatestByUser(ctx context.Context, userID uint) (*models.PasswordResetRequest, error) {
	return takeOne(s.conn(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC"))
}

func (s *Store) FindPendingByUser(ctx context.Context, userID uint) (*models.PasswordResetRequest, error) {
	return takeOne(s.conn(ctx).
		Where("user_id = ? AND status = ?", userID, models.ResetPending).
		Order("created_at DESC"))
}

// FindApprovedValidByUser returns an approved request created within window
// of now.
func (s *Store) FindApprovedValidByUser(ctx context.Context, userID uint, window time.Duration) (*models.PasswordResetRequest, error) {
	return takeOne(s.conn(ctx).
		Where("user_id = ? AND status = ? AND created_at > ?", userID, models.ResetApproved, s.now().Add(-window)).
		Order("created_at DESC"))
}

func (s *Store) FindByUserAndCode(ctx context.Context, userID uint, code string) (*models.PasswordResetRequest, error) {
	return takeOne(s.conn(ctx).
		Where("user_id = ? AND code = ? AND status = ?", userID, code, models.ResetApproved).
		Order("created_at DESC"))
}

func (s *Store) FindByUserAndResetToken(ctx context.Context, userID uint, token string) (*models.PasswordResetRequest, error) {
	return takeOne(s.conn(ctx).
		Where("user_id = ? AND reset_token = ? AND status = ?", userID, token, models.ResetApproved))
}

func (s *Store) Update(ctx context.Context, req *models.PasswordResetRequest, ch Changes) error {
	now := s.now()
	err := s.conn(ctx).Model(&models.PasswordResetRequest{}).
		Where("id = ?", req.ID).
		Updates(ch.columns(now)).Error
	if err != nil {
		return err
	}
	ch.applyTo(req, now)
	return nil
}

// UpdateIfStatus applies ch only while the row still has the expected
// status, and fails with ErrAlreadyProcessed otherwise.
func (s *Store) UpdateIfStatus(ctx context.Context, id uint, expected models.ResetStatus, ch Changes) error {
	res := s.conn(ctx).Model(&models.PasswordResetRequest{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(ch.columns(s.now()))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, req *models.PasswordResetRequest) error {
	return s.conn(ctx).Delete(&models.PasswordResetRequest{}, req.ID).Error
}

// DeleteIfStatus reports whether a row with the given id and status was
// removed.
func (s *Store) DeleteIfStatus(ctx context.Context, id uint, expected models.ResetStatus) (bool, error) {
	res := s.conn(ctx).
		Where("id = ? AND status = ?", id, expected).
		Delete(&models.PasswordResetRequest{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ClaimResetToken deletes the approved request still holding token and
// reports whether this caller removed it. Only one caller can win a claim.
func (s *Store) ClaimResetToken(ctx context.Context, id uint, token string) (bool, error) {
	res := s.conn(ctx).
		Where("id = ? AND status = ? AND reset_token = ?", id, models.ResetApproved, token).
		Delete(&models.PasswordResetRequest{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Restore re-inserts a claimed request with its original id.
func (s *Store) Restore(ctx context.Context, req *models.PasswordResetRequest) error {
	return s.conn(ctx).Omit(clause.Associations).Create(req).Error
}

// List returns requests newest first with requester and admin loaded.
func (s *Store) List(ctx context.Context, q ListQuery) ([]models.PasswordResetRequest, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}

	base := s.conn(ctx).Model(&models.PasswordResetRequest{})
	if q.Status != "" {
		base = base.Where("status = ?", q.Status)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []models.PasswordResetRequest
	err := base.Session(&gorm.Session{}).
		Preload("User").
		Preload("Admin").
		Order("created_at DESC").Order("id DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (s *Store) RecordAudit(ctx context.Context, action models.ResetAction, req *models.PasswordResetRequest, actorID *uint, note *string) (*models.ResetAuditLog, error) {
	entry := &models.ResetAuditLog{
		Action:    action,
		RequestID: req.ID,
		UserID:    req.UserID,
		ActorID:   actorID,
		Note:      note,
		CreatedAt: s.now(),
	}
	if err := s.conn(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Store) AuditTrail(ctx context.Context, requestID uint) ([]models.ResetAuditLog, error) {
	var entries []models.ResetAuditLog
	err := s.conn(ctx).
		Where("request_id = ?", requestID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}
