// SPDX-License-Identifier: GPL-3.0-only

package commons

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded = false

// LoadEnvFile loads the file given with --env-file, once. Variables already
// present in the process environment win over the file.
func LoadEnvFile() {
	if envLoaded {
		return
	}
	envLoaded = true

	args := os.Args[1:]
	for i, arg := range args {
		if arg == "--env-file" && i+1 < len(args) {
			envFile := args[i+1]
			fmt.Printf("Loading environment variables from file: %s\n", envFile)
			if err := godotenv.Load(envFile); err != nil {
				fmt.Printf("Failed to load env file: %s\n", err)
			}
			return
		}
	}
}

// GetEnv returns the value of key, or the first fallback when it is unset or blank.
func GetEnv(key string, fallback ...string) string {
	LoadEnvFile()
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return value
}

func GetEnvInt(key string, fallback int) int {
	raw := GetEnv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		Logger.Warnf("Invalid integer for %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return v
}

// GetEnvDuration accepts Go duration strings ("24h", "15m"). A bare "0"
// is a valid zero duration.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := GetEnv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		Logger.Warnf("Invalid duration for %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return v
}

func GetEnvBool(key string, fallback bool) bool {
	raw := GetEnv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
