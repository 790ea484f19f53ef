// SPDX-License-Identifier: GPL-3.0-only

package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"umkm-portal/commons"

	"github.com/alexedwards/argon2id"
)

func NewCrypto() *Crypto {
	return &Crypto{
		ArgonTime:    uint32(envUint("ARGON2_TIME", 1)),
		ArgonMemory:  uint32(envUint("ARGON2_MEMORY", 65536)),
		ArgonThreads: uint8(envUint("ARGON2_THREADS", 2)),
		ArgonKeyLen:  uint32(envUint("ARGON2_KEYLEN", 32)),
		ArgonSaltLen: uint32(envUint("ARGON2_SALTLEN", 16)),
	}
}

func envUint(key string, fallback uint64) uint64 {
	v, err := strconv.ParseUint(commons.GetEnv(key, strconv.FormatUint(fallback, 10)), 10, 32)
	if err != nil || v == 0 {
		return fallback
	}
	return v
}

func (c *Crypto) HashPassword(password string) (string, error) {
	commons.Logger.Debug("Hashing password")
	params := &argon2id.Params{
		Memory:      c.ArgonMemory,
		Iterations:  c.ArgonTime,
		Parallelism: c.ArgonThreads,
		SaltLength:  c.ArgonSaltLen,
		KeyLength:   c.ArgonKeyLen,
	}
	hash, err := argon2id.CreateHash(password, params)
	if err != nil {
		return "", err
	}
	commons.Logger.Debug("Password hashed")
	return hash, nil
}

func (c *Crypto) VerifyPassword(password, encodedHash string) error {
	commons.Logger.Debug("Verifying password")
	match, err := argon2id.ComparePasswordAndHash(password, encodedHash)
	if err != nil {
		return err
	}
	if !match {
		return fmt.Errorf("password verification failed")
	}
	return nil
}

func GenerateRandomString(prefix string, length int, encoding string) (string, error) {
	supported_encodings := []string{"hex", "base64"}

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	switch encoding {
	case "hex":
		return prefix + hex.EncodeToString(b), nil
	case "base64":
		return prefix + base64.RawURLEncoding.EncodeToString(b), nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s, Supported encodings are: %s", encoding, supported_encodings)
	}
}

// GenerateNumericCode returns a uniformly random decimal string of exactly
// digits characters, zero padded ("000000" through "999999" for 6).
func GenerateNumericCode(digits int) (string, error) {
	if digits < 1 || digits > 18 {
		return "", fmt.Errorf("unsupported code length: %d", digits)
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
