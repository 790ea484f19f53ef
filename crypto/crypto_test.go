// SPDX-License-Identifier: GPL-3.0-only

package crypto

import (
	"strings"
	"testing"
)

func lightArgon(t *testing.T) {
	t.Helper()
	t.Setenv("ARGON2_MEMORY", "1024")
	t.Setenv("ARGON2_TIME", "1")
	t.Setenv("ARGON2_THREADS", "1")
}

func TestHashPassword(t *testing.T) {
	lightArgon(t)
	crypto := NewCrypto()
	password := "testpassword123"

	hash, err := crypto.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == "" {
		t.Error("Hash should not be empty")
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("Expected argon2id encoded hash, got %s", hash)
	}

	hash2, err := crypto.HashPassword(password)
	if err != nil {
		t.Fatalf("Second HashPassword failed: %v", err)
	}

	if hash == hash2 {
		t.Error("Two hashes of same password should be different (due to salt)")
	}
}

func TestVerifyPassword(t *testing.T) {
	lightArgon(t)
	crypto := NewCrypto()
	password := "testpassword123"
	wrongPassword := "wrongpassword"

	hash, err := crypto.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	err = crypto.VerifyPassword(password, hash)
	if err != nil {
		t.Errorf("VerifyPassword failed for correct password: %v", err)
	}

	err = crypto.VerifyPassword(wrongPassword, hash)
	if err == nil {
		t.Error("VerifyPassword should fail for wrong password")
	}

	err = crypto.VerifyPassword(password, "invalid-hash")
	if err == nil {
		t.Error("VerifyPassword should fail for invalid hash")
	}
}

func TestNewCryptoIgnoresInvalidEnv(t *testing.T) {
	t.Setenv("ARGON2_MEMORY", "lots")
	t.Setenv("ARGON2_KEYLEN", "0")
	crypto := NewCrypto()

	if crypto.ArgonMemory != 65536 {
		t.Errorf("Expected default memory 65536, got %d", crypto.ArgonMemory)
	}
	if crypto.ArgonKeyLen != 32 {
		t.Errorf("Expected default key length 32, got %d", crypto.ArgonKeyLen)
	}
}

func TestGenerateRandomString(t *testing.T) {
	s, err := GenerateRandomString("st_", 16, "hex")
	if err != nil {
		t.Fatalf("GenerateRandomString failed: %v", err)
	}
	if !strings.HasPrefix(s, "st_") || len(s) != 3+32 {
		t.Errorf("Unexpected hex token %q", s)
	}

	if _, err := GenerateRandomString("", 16, "base32"); err == nil {
		t.Error("GenerateRandomString should fail for unsupported encoding")
	}
}

func TestGenerateNumericCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateNumericCode(6)
		if err != nil {
			t.Fatalf("GenerateNumericCode failed: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("Expected 6 characters, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("Expected only digits, got %q", code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 150 {
		t.Errorf("Expected mostly distinct codes, got %d distinct out of 200", len(seen))
	}

	if _, err := GenerateNumericCode(0); err == nil {
		t.Error("GenerateNumericCode should reject zero length")
	}
}

func TestGenerateNumericCodePadsShortValues(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := GenerateNumericCode(1)
		if err != nil {
			t.Fatalf("GenerateNumericCode failed: %v", err)
		}
		if len(code) != 1 {
			t.Fatalf("Expected a single digit, got %q", code)
		}
	}
}
