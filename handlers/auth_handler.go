// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"umkm-portal/commons"
	"umkm-portal/crypto"
	"umkm-portal/db"
	"umkm-portal/middlewares"
	"umkm-portal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const sessionLifetime = 7 * 24 * time.Hour

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func generateSessionToken(c echo.Context, user models.User) (string, error) {
	logger := c.Logger()

	sessionToken, err := crypto.GenerateRandomString("st_", 32, "hex")
	if err != nil {
		logger.Errorf("Failed to generate session token: %v", err)
		return "", err
	}

	now := time.Now()
	session := models.Session{
		UserID:     user.ID,
		Token:      sessionToken,
		IPAddress:  optionalString(c.RealIP()),
		UserAgent:  optionalString(c.Request().UserAgent()),
		LastUsedAt: &now,
		ExpiresAt:  now.Add(sessionLifetime),
	}
	if err := db.Conn.Create(&session).Error; err != nil {
		logger.Errorf("Failed to create session: %v", err)
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": commons.GetEnv("JWT_ISSUER", "umkm-portal"),
		"iat": now.Unix(),
		"sub": user.Email,
		"jti": sessionToken,
		"sid": session.ID,
		"uid": user.ID,
		"exp": session.ExpiresAt.Unix(),
	})

	tokenString, err := token.SignedString(middlewares.JWTSecret())
	if err != nil {
		logger.Errorf("Failed to sign token: %v", err)
		return "", err
	}
	return tokenString, nil
}

// LoginHandler godoc
// @Summary      Login a user
// @Description  Authenticates an admin or UMKM owner and returns a session token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest  body  LoginRequest  true  "Login request payload"
// @Success      200 {object} AuthResponse       "Login successful"
// @Failure      400 {object} echo.HTTPError     "Bad request, missing required fields"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /v1/auth/login [post]
func LoginHandler(c echo.Context) error {
	logger := c.Logger()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid login request payload: ", err)
		return echo.ErrBadRequest
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "email field is required"}
	}
	if req.Password == "" {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "password field is required"}
	}

	invalidCredentials := &echo.HTTPError{
		Code:    http.StatusUnauthorized,
		Message: "Credentials are incorrect, please check your email and password",
	}

	user := models.User{}
	err := db.Conn.Where("LOWER(email) = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warnf("Login attempt for unknown email")
		return invalidCredentials
	}
	if err != nil {
		logger.Errorf("Failed to find user: %v", err)
		return echo.ErrInternalServerError
	}

	if err := crypto.NewCrypto().VerifyPassword(req.Password, user.Password); err != nil {
		logger.Warnf("Password verification failed for user %d", user.ID)
		return invalidCredentials
	}

	tokenString, err := generateSessionToken(c, user)
	if err != nil {
		return echo.ErrInternalServerError
	}

	logger.Infof("User %d logged in", user.ID)
	return c.JSON(http.StatusOK, AuthResponse{
		SessionToken: tokenString,
		Role:         string(user.Role),
		Message:      "Login successful",
	})
}

// LogoutHandler godoc
// @Summary      Logout a user
// @Description  Invalidates the current session.
// @Tags         auth
// @Security     BearerAuth
// @Success      204 "Logout successful"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /v1/auth/logout [post]
func LogoutHandler(c echo.Context) error {
	logger := c.Logger()

	session, ok := c.Get(middlewares.ContextSession).(models.Session)
	if !ok {
		logger.Error("Session not found in context.")
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired session token, please login again",
		}
	}

	if err := db.Conn.Delete(&models.Session{}, session.ID).Error; err != nil {
		logger.Errorf("Failed to delete session: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Infof("User %d logged out", session.UserID)
	return c.NoContent(http.StatusNoContent)
}
