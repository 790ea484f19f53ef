// SPDX-License-Identifier: GPL-3.0-only

package resetflow

import (
	"time"
	"umkm-portal/commons"
)

type Config struct {
	// ValidityWindow is how long an approved request blocks new submissions,
	// measured from its creation.
	ValidityWindow time.Duration
	// RedeemWindow bounds code redemption, measured from approval. Zero
	// disables the check.
	RedeemWindow        time.Duration
	MinReasonLength     int
	MaxReasonLength     int
	MinRejectNoteLength int
	MaxNoteLength       int
	CodeLength          int
}

func DefaultConfig() Config {
	return Config{
		ValidityWindow:      24 * time.Hour,
		RedeemWindow:        24 * time.Hour,
		MinReasonLength:     10,
		MaxReasonLength:     500,
		MinRejectNoteLength: 5,
		MaxNoteLength:       500,
		CodeLength:          6,
	}
}

func LoadConfig() Config {
	cfg := DefaultConfig()
	cfg.ValidityWindow = commons.GetEnvDuration("RESET_VALIDITY_WINDOW", cfg.ValidityWindow)
	cfg.RedeemWindow = commons.GetEnvDuration("RESET_REDEEM_WINDOW", cfg.RedeemWindow)
	return cfg
}
