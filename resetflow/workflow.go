// SPDX-License-Identifier: GPL-3.0-only

package resetflow

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"umkm-portal/commons"
	"umkm-portal/crypto"
	"umkm-portal/models"
	"unicode/utf8"

	"gorm.io/gorm"
)

const (
	MessageNoRequest    = "No password reset request has been made yet"
	MessageUnknownEmail = "Email address is not registered"
	MessagePending      = "Your request is still waiting for admin approval"
	MessageApproved     = "Your request has been approved, please enter the verification code"
	MessageRejected     = "Your previous request was rejected, please submit a new request"
	MessageUnknown      = "Unknown request status"
)

// StatusMessage returns the user-facing message for a request status.
func StatusMessage(status models.ResetStatus) string {
	switch status {
	case models.ResetPending:
		return MessagePending
	case models.ResetApproved:
		return MessageApproved
	case models.ResetRejected:
		return MessageRejected
	default:
		return MessageUnknown
	}
}

// Workflow enforces who may submit, approve, reject and redeem password
// reset requests. Every command runs in its own transaction.
//
//	pending --approve--> approved --redeem--> (deleted)
//	pending --reject---> rejected
type Workflow struct {
	store       *Store
	users       UserDirectory
	credentials CredentialStore
	publisher   Publisher
	codes       func() (string, error)
	tokens      func() (string, error)
	now         func() time.Time
	cfg         Config
}

type Option func(*Workflow)

func WithConfig(cfg Config) Option {
	return func(w *Workflow) { w.cfg = cfg }
}

// WithClock replaces time.Now for the workflow and its store.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

func WithCodeGenerator(gen func() (string, error)) Option {
	return func(w *Workflow) { w.codes = gen }
}

func WithTokenGenerator(gen func() (string, error)) Option {
	return func(w *Workflow) { w.tokens = gen }
}

func WithPublisher(p Publisher) Option {
	return func(w *Workflow) {
		if p != nil {
			w.publisher = p
		}
	}
}

func New(store *Store, users UserDirectory, credentials CredentialStore, opts ...Option) *Workflow {
	w := &Workflow{
		store:       store,
		users:       users,
		credentials: credentials,
		publisher:   nopPublisher{},
		now:         time.Now,
		cfg:         DefaultConfig(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.codes == nil {
		length := w.cfg.CodeLength
		w.codes = func() (string, error) { return crypto.GenerateNumericCode(length) }
	}
	if w.tokens == nil {
		w.tokens = func() (string, error) { return crypto.GenerateRandomString("prt_", 32, "hex") }
	}
	store.now = w.now
	store.minReasonLength = w.cfg.MinReasonLength
	return w
}

func (w *Workflow) Config() Config {
	return w.cfg
}

type SubmitCommand struct {
	UserID uint
	Reason string
}

// SubmitResult carries the created request, or the still-valid approved
// request when Redirected is set.
type SubmitResult struct {
	Request    *models.PasswordResetRequest
	Redirected bool
}

type ApproveCommand struct {
	RequestID uint
	AdminID   uint
	Note      *string
}

type RejectCommand struct {
	RequestID uint
	AdminID   uint
	Note      string
}

type RedeemCommand struct {
	UserID uint
	Code   string
}

type CompleteCommand struct {
	UserID      uint
	Token       string
	NewPassword string
}

type StatusReport struct {
	HasRequest   bool
	RequestID    uint
	Status       models.ResetStatus
	Message      string
	CreatedAt    time.Time
	CanCreateNew bool
}

// ResolveUser maps an email address to a registered user.
func (w *Workflow) ResolveUser(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, invalid("email", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("email", "must be a valid email address")
	}
	user, err := w.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
	}
	return user, nil
}

func (w *Workflow) Submit(ctx context.Context, cmd SubmitCommand) (*SubmitResult, error) {
	if cmd.UserID == 0 {
		return nil, invalid("user_id", "is required")
	}
	reason := strings.TrimSpace(cmd.Reason)
	if n := utf8.RuneCountInString(reason); n < w.cfg.MinReasonLength {
		return nil, invalid("reason", "must be at least %d characters", w.cfg.MinReasonLength)
	} else if n > w.cfg.MaxReasonLength {
		return nil, invalid("reason", "must be at most %d characters", w.cfg.MaxReasonLength)
	}

	var (
		result SubmitResult
		entry  *models.ResetAuditLog
	)
	err := w.store.Transaction(ctx, func(tx *Store) error {
		pending, err := tx.FindPendingByUser(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		if pending != nil {
			return ErrDuplicateRequest
		}

		approved, err := tx.FindApprovedValidByUser(ctx, cmd.UserID, w.cfg.ValidityWindow)
		if err != nil {
			return err
		}
		if approved != nil {
			result = SubmitResult{Request: approved, Redirected: true}
			return nil
		}

		req, err := tx.Create(ctx, cmd.UserID, reason)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateRequest
		}
		if err != nil {
			return err
		}
		entry, err = tx.RecordAudit(ctx, models.ActionSubmitted, req, nil, nil)
		if err != nil {
			return err
		}
		result = SubmitResult{Request: req}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Redirected {
		commons.Logger.Infof("Password reset submission redirected to approved request: request_id=%d user_id=%d",
			result.Request.ID, cmd.UserID)
		return &result, nil
	}

	commons.Logger.Infof("Password reset request created: request_id=%d user_id=%d", result.Request.ID, cmd.UserID)
	w.publish(ctx, entry, result.Request.Status)
	return &result, nil
}

func (w *Workflow) Approve(ctx context.Context, cmd ApproveCommand) (*models.PasswordResetRequest, error) {
	if cmd.RequestID == 0 {
		return nil, invalid("request_id", "is required")
	}
	if cmd.AdminID == 0 {
		return nil, invalid("admin_id", "is required")
	}
	var note *string
	if cmd.Note != nil {
		trimmed := strings.TrimSpace(*cmd.Note)
		if utf8.RuneCountInString(trimmed) > w.cfg.MaxNoteLength {
			return nil, invalid("note", "must be at most %d characters", w.cfg.MaxNoteLength)
		}
		if trimmed != "" {
			note = &trimmed
		}
	}

	var (
		approved *models.PasswordResetRequest
		entry    *models.ResetAuditLog
	)
	err := w.store.Transaction(ctx, func(tx *Store) error {
		req, err := tx.FindByID(ctx, cmd.RequestID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("password reset request %d: %w", cmd.RequestID, ErrNotFound)
		}
		if req.Status != models.ResetPending {
			return ErrAlreadyProcessed
		}

		code, err := w.codes()
		if err != nil {
			return fmt.Errorf("generate verification code: %w", err)
		}
		status := models.ResetApproved
		approvedAt := w.now()
		// Status and code land in one statement so no reader sees an
		// approved request without a code.
		err = tx.UpdateIfStatus(ctx, req.ID, models.ResetPending, Changes{
			Status:     &status,
			Code:       &code,
			AdminID:    &cmd.AdminID,
			AdminNote:  note,
			ApprovedAt: &approvedAt,
		})
		if err != nil {
			return err
		}

		approved, err = tx.FindByID(ctx, req.ID)
		if err != nil {
			return err
		}
		entry, err = tx.RecordAudit(ctx, models.ActionApproved, approved, &cmd.AdminID, note)
		return err
	})
	if err != nil {
		return nil, err
	}

	commons.Logger.Infof("Password reset request approved: request_id=%d user_id=%d admin_id=%d",
		approved.ID, approved.UserID, cmd.AdminID)
	w.publish(ctx, entry, approved.Status)
	return approved, nil
}

func (w *Workflow) Reject(ctx context.Context, cmd RejectCommand) (*models.PasswordResetRequest, error) {
	if cmd.RequestID == 0 {
		return nil, invalid("request_id", "is required")
	}
	if cmd.AdminID == 0 {
		return nil, invalid("admin_id", "is required")
	}
	note := strings.TrimSpace(cmd.Note)
	if n := utf8.RuneCountInString(note); n < w.cfg.MinRejectNoteLength {
		return nil, invalid("note", "must be at least %d characters", w.cfg.MinRejectNoteLength)
	} else if n > w.cfg.MaxNoteLength {
		return nil, invalid("note", "must be at most %d characters", w.cfg.MaxNoteLength)
	}

	var (
		rejected *models.PasswordResetRequest
		entry    *models.ResetAuditLog
	)
	err := w.store.Transaction(ctx, func(tx *Store) error {
		req, err := tx.FindByID(ctx, cmd.RequestID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("password reset request %d: %w", cmd.RequestID, ErrNotFound)
		}
		if req.Status != models.ResetPending {
			return ErrAlreadyProcessed
		}

		status := models.ResetRejected
		err = tx.UpdateIfStatus(ctx, req.ID, models.ResetPending, Changes{
			Status:    &status,
			AdminID:   &cmd.AdminID,
			AdminNote: &note,
		})
		if err != nil {
			return err
		}

		rejected, err = tx.FindByID(ctx, req.ID)
		if err != nil {
			return err
		}
		entry, err = tx.RecordAudit(ctx, models.ActionRejected, rejected, &cmd.AdminID, &note)
		return err
	})
	if err != nil {
		return nil, err
	}

	commons.Logger.Infof("Password reset request rejected: request_id=%d user_id=%d admin_id=%d",
		rejected.ID, rejected.UserID, cmd.AdminID)
	w.publish(ctx, entry, rejected.Status)
	return rejected, nil
}

// Redeem checks a verification code and issues the single-use token to
// present when setting the new password. Verifying again replaces any
// earlier token.
func (w *Workflow) Redeem(ctx context.Context, cmd RedeemCommand) (string, error) {
	req, err := w.findRedeemable(ctx, cmd.UserID, cmd.Code)
	if err != nil {
		return "", err
	}

	token, err := w.tokens()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	if err := w.store.UpdateIfStatus(ctx, req.ID, models.ResetApproved, Changes{ResetToken: &token}); err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			return "", ErrInvalidCode
		}
		return "", err
	}

	commons.Logger.Infof("Password reset code verified: request_id=%d user_id=%d", req.ID, req.UserID)
	return token, nil
}

// CompleteReset sets the new password and deletes the redeemed request.
// The request is claimed before the password is written, so concurrent
// calls with the same token change the password at most once. A failed
// credential update puts the request back.
func (w *Workflow) CompleteReset(ctx context.Context, cmd CompleteCommand) error {
	if cmd.UserID == 0 {
		return invalid("user_id", "is required")
	}
	token := strings.TrimSpace(cmd.Token)
	if token == "" {
		return invalid("token", "is required")
	}
	if cmd.NewPassword == "" {
		return invalid("password", "is required")
	}

	req, err := w.store.FindByUserAndResetToken(ctx, cmd.UserID, token)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrInvalidToken
	}
	if w.expired(req) {
		return ErrCodeExpired
	}

	user, err := w.users.FindByID(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %d: %w", cmd.UserID, ErrNotFound)
	}

	claimed, err := w.store.ClaimResetToken(ctx, req.ID, token)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrInvalidToken
	}

	if err := w.credentials.SetPassword(ctx, user.ID, cmd.NewPassword); err != nil {
		if rerr := w.store.Restore(ctx, req); rerr != nil {
			commons.Logger.Errorf("Failed to restore password reset request %d: %v", req.ID, rerr)
		}
		return fmt.Errorf("update credentials: %w", err)
	}

	entry, err := w.store.RecordAudit(ctx, models.ActionRedeemed, req, nil, nil)
	if err != nil {
		commons.Logger.Errorf("Failed to record redemption of password reset request %d: %v", req.ID, err)
	}

	commons.Logger.Infof("Password reset completed: request_id=%d user_id=%d", req.ID, user.ID)
	w.publish(ctx, entry, "")
	return nil
}

func (w *Workflow) expired(req *models.PasswordResetRequest) bool {
	if w.cfg.RedeemWindow <= 0 {
		return false
	}
	return req.ApprovedAt == nil || w.now().Sub(*req.ApprovedAt) > w.cfg.RedeemWindow
}

func (w *Workflow) findRedeemable(ctx context.Context, userID uint, code string) (*models.PasswordResetRequest, error) {
	if userID == 0 {
		return nil, invalid("user_id", "is required")
	}
	code = strings.TrimSpace(code)
	if !w.wellFormedCode(code) {
		return nil, invalid("code", "must be a %d digit number", w.cfg.CodeLength)
	}

	req, err := w.store.FindByUserAndCode(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if req == nil || req.Code == nil {
		return nil, ErrInvalidCode
	}
	if w.expired(req) {
		return nil, ErrCodeExpired
	}
	return req, nil
}

func (w *Workflow) wellFormedCode(code string) bool {
	if len(code) != w.cfg.CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// Status reports on the user's most recent request.
func (w *Workflow) Status(ctx context.Context, userID uint) (*StatusReport, error) {
	latest, err := w.store.FindLatestByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return &StatusReport{Message: MessageNoRequest, CanCreateNew: true}, nil
	}
	return &StatusReport{
		HasRequest:   true,
		RequestID:    latest.ID,
		Status:       latest.Status,
		Message:      StatusMessage(latest.Status),
		CreatedAt:    latest.CreatedAt,
		CanCreateNew: latest.Status == models.ResetRejected,
	}, nil
}

func (w *Workflow) List(ctx context.Context, q ListQuery) ([]models.PasswordResetRequest, int64, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, invalid("status", "must be one of pending, approved, rejected")
	}
	return w.store.List(ctx, q)
}

func (w *Workflow) Get(ctx context.Context, id uint) (*models.PasswordResetRequest, error) {
	req, err := w.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("password reset request %d: %w", id, ErrNotFound)
	}
	return req, nil
}

func (w *Workflow) publish(ctx context.Context, entry *models.ResetAuditLog, status models.ResetStatus) {
	if entry == nil {
		return
	}
	ev := Event{
		ID:         entry.EID.String(),
		Type:       entry.Action,
		RequestID:  entry.RequestID,
		UserID:     entry.UserID,
		ActorID:    entry.ActorID,
		Status:     status,
		OccurredAt: entry.CreatedAt,
	}
	if err := w.publisher.PublishResetEvent(ctx, ev); err != nil {
		commons.Logger.Warnf("Failed to publish password reset event %s for request %d: %v", ev.Type, ev.RequestID, err)
	}
}
