// SPDX-License-Identifier: GPL-3.0-only

package notifications

import (
	"bytes"
	"context"
	"io"
	"mime/quotedprintable"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"umkm-portal/models"

	"gopkg.in/gomail.v2"
)

func withTemplates(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{
		TemplateResetApproved:  "code={{.code}} name={{.name}}",
		TemplateResetRejected:  "note={{.note}}",
		TemplateResetCompleted: "done {{.name}}",
	} {
		if err := os.WriteFile(filepath.Join(dir, name+".html"), []byte(body), 0o600); err != nil {
			t.Fatalf("Failed to write template: %v", err)
		}
	}
	prev := TemplateDir
	TemplateDir = dir
	t.Cleanup(func() { TemplateDir = prev })
}

func TestLoadAndRenderTemplate(t *testing.T) {
	withTemplates(t)

	out, err := loadAndRenderTemplate(TemplateResetApproved, map[string]any{"code": "004211", "name": "Sari"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != "code=004211 name=Sari" {
		t.Errorf("Unexpected render output: %q", out)
	}

	if _, err := loadAndRenderTemplate("missing", nil); err == nil {
		t.Error("Expected an error for a missing template")
	}
}

func TestDispatchUnsupported(t *testing.T) {
	if err := DispatchNotification("SMS", Mock, NotificationData{}); err == nil {
		t.Error("Expected unsupported type error")
	}
	t.Setenv("MOCK_EMAIL_NOTIFICATIONS", "false")
	if err := DispatchNotification(Email, "carrier_pigeon", NotificationData{}); err == nil {
		t.Error("Expected unsupported provider error")
	}
}

func TestSMTPClientRequiresConfig(t *testing.T) {
	t.Setenv("SMTP_HOST", "")
	err := SMTPClient(NotificationData{To: "owner@umkm.test"})
	if err == nil || !strings.Contains(err.Error(), "SMTP_HOST") {
		t.Errorf("Expected missing SMTP_HOST error, got %v", err)
	}
}

func TestEmailResetNotifierUsesMock(t *testing.T) {
	withTemplates(t)
	t.Setenv("MOCK_EMAIL_NOTIFICATIONS", "true")

	n := &EmailResetNotifier{Provider: SMTP}
	user := &models.User{Name: "Sari", Email: "owner@umkm.test"}
	code := "004211"
	note := "Could not verify ownership"
	req := &models.PasswordResetRequest{ID: 3, Code: &code, AdminNote: &note}

	ctx := context.Background()
	if err := n.ResetApproved(ctx, user, req); err != nil {
		t.Errorf("ResetApproved failed: %v", err)
	}
	if err := n.ResetRejected(ctx, user, req); err != nil {
		t.Errorf("ResetRejected failed: %v", err)
	}
	if err := n.ResetCompleted(ctx, user); err != nil {
		t.Errorf("ResetCompleted failed: %v", err)
	}
}

func TestSMTPResetApprovedNotice(t *testing.T) {
	prev := TemplateDir
	TemplateDir = filepath.Join("..", "email_templates")
	t.Cleanup(func() { TemplateDir = prev })

	t.Setenv("MOCK_EMAIL_NOTIFICATIONS", "false")
	t.Setenv("SMTP_HOST", "smtp.umkm.test")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("SMTP_USERNAME", "mailer")
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("SMTP_FROM_EMAIL", "noreply@umkm.test")
	t.Setenv("SMTP_FROM_NAME", "")

	var (
		sentCfg smtpConfig
		sent    *gomail.Message
	)
	prevSend := sendSMTP
	sendSMTP = func(cfg smtpConfig, m *gomail.Message) error {
		sentCfg, sent = cfg, m
		return nil
	}
	t.Cleanup(func() { sendSMTP = prevSend })

	n := &EmailResetNotifier{Provider: SMTP}
	user := &models.User{Name: "Sari", Email: "owner@umkm.test"}
	code := "004211"
	req := &models.PasswordResetRequest{ID: 3, Code: &code}
	if err := n.ResetApproved(context.Background(), user, req); err != nil {
		t.Fatalf("ResetApproved failed: %v", err)
	}

	if sent == nil {
		t.Fatal("Expected a message to be sent")
	}
	if sentCfg.Port != 587 || sentCfg.FromName != "UMKM Portal" {
		t.Errorf("Unexpected SMTP config: %+v", sentCfg)
	}
	if got := sent.GetHeader("Subject"); len(got) != 1 || got[0] != "Your password reset request was approved" {
		t.Errorf("Unexpected subject: %v", got)
	}
	if got := sent.GetHeader("To"); len(got) != 1 || !strings.Contains(got[0], "owner@umkm.test") {
		t.Errorf("Unexpected recipient: %v", got)
	}

	var buf bytes.Buffer
	if _, err := sent.WriteTo(&buf); err != nil {
		t.Fatalf("Failed to write message: %v", err)
	}
	_, raw, found := strings.Cut(buf.String(), "\r\n\r\n")
	if !found {
		t.Fatalf("Message has no body: %q", buf.String())
	}
	decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(raw)))
	if err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	body := string(decoded)
	for _, want := range []string{"004211", "Sari", "#3"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected message body to contain %q", want)
		}
	}
}

func TestSMTPConfigRejectsBadPort(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.umkm.test")
	t.Setenv("SMTP_PORT", "smtp")
	t.Setenv("SMTP_USERNAME", "mailer")
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("SMTP_FROM_EMAIL", "noreply@umkm.test")
	if _, err := smtpConfigFromEnv(); err == nil || !strings.Contains(err.Error(), "invalid SMTP port") {
		t.Errorf("Expected invalid port error, got %v", err)
	}
}
