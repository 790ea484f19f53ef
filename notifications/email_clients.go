// SPDX-License-Identifier: GPL-3.0-only

package notifications

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"umkm-portal/commons"

	"gopkg.in/gomail.v2"
)

func MockEmailClient(data NotificationData) error {
	commons.Logger.Info("=== MOCK EMAIL NOTIFICATION ===")
	commons.Logger.Infof("To: %s", data.To)
	if data.ToName != nil {
		commons.Logger.Infof("To Name: %s", *data.ToName)
	}
	commons.Logger.Infof("Subject: %s", data.Subject)
	commons.Logger.Infof("Template: %s", data.Template)

	if len(data.Variables) > 0 {
		commons.Logger.Info("Variables:")
		for key, value := range data.Variables {
			commons.Logger.Infof("  %s: %v", key, value)
		}
	}

	if data.Template != "" {
		htmlBody, err := loadAndRenderTemplate(data.Template, data.Variables)
		if err != nil {
			commons.Logger.Errorf("Failed to render template: %v", err)
			return fmt.Errorf("failed to render template: %w", err)
		}

		commons.Logger.Info("=== RENDERED EMAIL CONTENT ===")
		fmt.Println(htmlBody)
		commons.Logger.Info("=== END EMAIL CONTENT ===")
	}

	commons.Logger.Info("=== EMAIL MOCK COMPLETE ===")
	return nil
}

type smtpConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

func smtpConfigFromEnv() (smtpConfig, error) {
	cfg := smtpConfig{
		Host:      commons.GetEnv("SMTP_HOST"),
		Username:  commons.GetEnv("SMTP_USERNAME"),
		Password:  commons.GetEnv("SMTP_PASSWORD"),
		FromEmail: commons.GetEnv("SMTP_FROM_EMAIL"),
		FromName:  commons.GetEnv("SMTP_FROM_NAME", "UMKM Portal"),
	}
	smtpPort := commons.GetEnv("SMTP_PORT")
	required := []struct{ key, value string }{
		{"SMTP_HOST", cfg.Host},
		{"SMTP_PORT", smtpPort},
		{"SMTP_USERNAME", cfg.Username},
		{"SMTP_PASSWORD", cfg.Password},
		{"SMTP_FROM_EMAIL", cfg.FromEmail},
	}
	for _, r := range required {
		if r.value == "" {
			return cfg, fmt.Errorf("%s environment variable is not set", r.key)
		}
	}

	port, err := strconv.Atoi(smtpPort)
	if err != nil {
		return cfg, fmt.Errorf("invalid SMTP port: %s", smtpPort)
	}
	cfg.Port = port
	return cfg, nil
}

// composeMessage renders the notice template into a gomail message.
func composeMessage(cfg smtpConfig, data NotificationData) (*gomail.Message, error) {
	if data.To == "" {
		return nil, fmt.Errorf("'to' field is required")
	}
	if data.Subject == "" {
		return nil, fmt.Errorf("'subject' field is required")
	}
	if data.Template == "" {
		return nil, fmt.Errorf("'template' field is required")
	}

	htmlBody, err := loadAndRenderTemplate(data.Template, data.Variables)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	message := gomail.NewMessage()
	message.SetHeader("From", message.FormatAddress(cfg.FromEmail, cfg.FromName))
	if data.ToName != nil {
		message.SetHeader("To", message.FormatAddress(data.To, *data.ToName))
	} else {
		message.SetHeader("To", data.To)
	}
	message.SetHeader("Subject", data.Subject)
	message.SetBody("text/html", htmlBody)
	return message, nil
}

var sendSMTP = func(cfg smtpConfig, message *gomail.Message) error {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: false,
	}
	return dialer.DialAndSend(message)
}

func SMTPClient(data NotificationData) error {
	commons.Logger.Debug("Sending email via SMTP")

	cfg, err := smtpConfigFromEnv()
	if err != nil {
		return err
	}

	message, err := composeMessage(cfg, data)
	if err != nil {
		return err
	}

	if err := sendSMTP(cfg, message); err != nil {
		commons.Logger.Error("Failed to send email via SMTP:", err)
		return fmt.Errorf("failed to send email via SMTP: %w", err)
	}

	commons.Logger.Infof("Email sent successfully via SMTP: template=%s", data.Template)
	return nil
}

// TemplateDir is where email templates are looked up, relative to the
// working directory unless absolute.
var TemplateDir = commons.GetEnv("EMAIL_TEMPLATE_DIR", "email_templates")

func loadAndRenderTemplate(templateName string, variables map[string]any) (string, error) {
	templatePath := filepath.Join(TemplateDir, templateName+".html")

	if _, err := os.Stat(templatePath); os.IsNotExist(err) {
		commons.Logger.Warnf("Template file not found: %s.", templatePath)
		return "", fmt.Errorf("template file not found: %s", templatePath)
	}

	templateContent, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to read template file %s: %w", templatePath, err)
	}

	tmpl, err := template.New(templateName).Parse(string(templateContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, variables); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	return buf.String(), nil
}
