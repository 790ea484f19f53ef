// SPDX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"umkm-portal/commons"
	"umkm-portal/db"
	"umkm-portal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	ContextSession = "session"
	ContextUser    = "user"
)

func JWTSecret() []byte {
	return []byte(commons.GetEnv("JWT_SECRET", "default_very_secret_key"))
}

var errUnauthorized = &echo.HTTPError{
	Code:    http.StatusUnauthorized,
	Message: "Invalid or expired session token, please login again",
}

// claimID reads a numeric claim. JSON numbers decode as float64.
func claimID(claims jwt.MapClaims, key string) (uint, error) {
	v, ok := claims[key].(float64)
	if !ok || v <= 0 {
		return 0, fmt.Errorf("claim %s missing", key)
	}
	return uint(v), nil
}

// VerifySessionMiddleware accepts a bearer JWT whose sid, uid and jti claims
// match a live session row, then loads the session and its user into the
// context.
func VerifySessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := c.Logger()

		sessionToken, ok := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
		if !ok || sessionToken == "" {
			logger.Error("Authorization header missing or invalid.")
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Bearer token is required",
			}
		}

		token, err := jwt.Parse(sessionToken, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return JWTSecret(), nil
		})
		if err != nil || !token.Valid {
			logger.Error("JWT failed to parse or is invalid: ", err)
			return errUnauthorized
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			logger.Error("Failed to parse JWT claims.")
			return errUnauthorized
		}
		sessionID, err := claimID(claims, "sid")
		if err != nil {
			logger.Error(err)
			return errUnauthorized
		}
		userID, err := claimID(claims, "uid")
		if err != nil {
			logger.Error(err)
			return errUnauthorized
		}
		tokenID, _ := claims["jti"].(string)

		session := models.Session{}
		err = db.Conn.Preload("User").
			Where("id = ? AND user_id = ? AND token = ?", sessionID, userID, tokenID).
			Take(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Session not found.")
			return errUnauthorized
		}
		if err != nil {
			logger.Errorf("Failed to load session: %v", err)
			return echo.ErrInternalServerError
		}

		now := time.Now()
		if session.Expired(now) {
			logger.Error("Session expired.")
			return errUnauthorized
		}

		if err := db.Conn.Model(&session).Update("last_used_at", now).Error; err != nil {
			logger.Error("Failed to update session last_used_at: ", err)
		}

		c.Set(ContextSession, session)
		c.Set(ContextUser, session.User)
		return next(c)
	}
}

// RequireRole must run after VerifySessionMiddleware.
func RequireRole(role models.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := GetAuthenticatedUser(c)
			if err != nil {
				return errUnauthorized
			}
			if user.Role != role {
				c.Logger().Warnf("User %d with role %s denied access to %s", user.ID, user.Role, c.Path())
				return &echo.HTTPError{
					Code:    http.StatusForbidden,
					Message: "You do not have permission to perform this action",
				}
			}
			return next(c)
		}
	}
}

func GetAuthenticatedUser(c echo.Context) (*models.User, error) {
	user, ok := c.Get(ContextUser).(models.User)
	if !ok || user.ID == 0 {
		return nil, errors.New("no authenticated user found")
	}
	return &user, nil
}
