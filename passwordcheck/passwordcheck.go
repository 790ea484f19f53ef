// SPDX-License-Identifier: GPL-3.0-only

package passwordcheck

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"umkm-portal/commons"
	"unicode"
	"unicode/utf8"
)

const defaultPwnedRangeURL = "https://api.pwnedpasswords.com/range/"

// Policy describes what a new password must satisfy.
type Policy struct {
	MinLength         int
	MaxLength         int
	RequireComplexity bool
	CheckPwned        bool
	PwnedRangeURL     string
	HTTPClient        *http.Client
}

// DefaultPolicy reads the policy from the environment.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:         commons.GetEnvInt("PASSWORD_MIN_LENGTH", 8),
		MaxLength:         128,
		RequireComplexity: commons.GetEnvBool("PASSWORD_REQUIRE_COMPLEXITY", true),
		CheckPwned:        commons.GetEnvBool("PWNED_PASSWORDS_ENABLED", false),
		PwnedRangeURL:     commons.GetEnv("PWNED_PASSWORDS_URL", defaultPwnedRangeURL),
		HTTPClient:        &http.Client{Timeout: 5 * time.Second},
	}
}

func (p Policy) Validate(ctx context.Context, password, confirmation string) error {
	if password != confirmation {
		return errors.New("password confirmation does not match")
	}
	length := utf8.RuneCountInString(password)
	if length < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}
	if p.MaxLength > 0 && length > p.MaxLength {
		return fmt.Errorf("password must be at most %d characters long", p.MaxLength)
	}

	if p.RequireComplexity {
		if !hasUppercase(password) {
			return errors.New("password must contain at least one uppercase letter")
		}
		if !hasLowercase(password) {
			return errors.New("password must contain at least one lowercase letter")
		}
		if !hasDigit(password) {
			return errors.New("password must contain at least one digit")
		}
		if !hasSpecialChar(password) {
			return errors.New("password must contain at least one special character (e.g., !@#$%)")
		}
	}

	if p.CheckPwned {
		pwned, err := p.checkPasswordPwned(ctx, password)
		if err != nil {
			commons.Logger.Error("Error checking pwned passwords:", err)
		}
		if pwned {
			return errors.New("password has been found in data breaches (pwned); choose a different one")
		}
	}

	return nil
}

func (p Policy) checkPasswordPwned(ctx context.Context, password string) (bool, error) {
	hasher := sha1.New()
	hasher.Write([]byte(password))
	hash := strings.ToUpper(hex.EncodeToString(hasher.Sum(nil)))

	prefix, suffix := hash[:5], hash[5:]
	base := p.PwnedRangeURL
	if base == "" {
		base = defaultPwnedRangeURL
	}
	client := p.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+prefix, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Add-Padding", "true")

	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("HIBP API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("HIBP API returned %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		candidate, count, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok || candidate != suffix {
			continue
		}
		// Padded responses carry decoy suffixes with a zero count.
		return strings.TrimSpace(count) != "0", nil
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("failed to read HIBP response: %w", err)
	}
	return false, nil
}

func hasUppercase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func hasLowercase(s string) bool {
	for _, r := range s {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func hasSpecialChar(s string) bool {
	for _, r := range s {
		if unicode.IsSymbol(r) || unicode.IsPunct(r) {
			return true
		}
	}
	return false
}
