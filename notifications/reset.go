// SPDX-License-Identifier: GPL-3.0-only

package notifications

import (
	"context"
	"umkm-portal/commons"
	"umkm-portal/models"
)

// ResetNotifier tells requesters about decisions on their password reset
// requests.
type ResetNotifier interface {
	ResetApproved(ctx context.Context, user *models.User, req *models.PasswordResetRequest) error
	ResetRejected(ctx context.Context, user *models.User, req *models.PasswordResetRequest) error
	ResetCompleted(ctx context.Context, user *models.User) error
}

// EmailResetNotifier sends reset notices through DispatchNotification.
type EmailResetNotifier struct {
	Provider NotificationProviders
}

func NewEmailResetNotifier() *EmailResetNotifier {
	return &EmailResetNotifier{
		Provider: NotificationProviders(commons.GetEnv("EMAIL_PROVIDER", string(SMTP))),
	}
}

func (n *EmailResetNotifier) send(user *models.User, subject, template string, vars map[string]any) error {
	name := user.Name
	vars["name"] = name
	return DispatchNotification(Email, n.Provider, NotificationData{
		To:        user.Email,
		ToName:    &name,
		Subject:   subject,
		Template:  template,
		Variables: vars,
	})
}

func (n *EmailResetNotifier) ResetApproved(_ context.Context, user *models.User, req *models.PasswordResetRequest) error {
	vars := map[string]any{"request_id": req.ID}
	if req.Code != nil {
		vars["code"] = *req.Code
	}
	if req.AdminNote != nil {
		vars["note"] = *req.AdminNote
	}
	return n.send(user, "Your password reset request was approved", TemplateResetApproved, vars)
}

func (n *EmailResetNotifier) ResetRejected(_ context.Context, user *models.User, req *models.PasswordResetRequest) error {
	vars := map[string]any{"request_id": req.ID}
	if req.AdminNote != nil {
		vars["note"] = *req.AdminNote
	}
	return n.send(user, "Your password reset request was rejected", TemplateResetRejected, vars)
}

func (n *EmailResetNotifier) ResetCompleted(_ context.Context, user *models.User) error {
	return n.send(user, "Your password has been changed", TemplateResetCompleted, map[string]any{})
}
