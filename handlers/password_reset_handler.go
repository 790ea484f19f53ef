// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"umkm-portal/models"
	"umkm-portal/notifications"
	"umkm-portal/passwordcheck"
	"umkm-portal/ratelimit"
	"umkm-portal/resetflow"

	"github.com/labstack/echo/v4"
)

const statusTimeLayout = "02 Jan 2006 15:04"

// PasswordResetHandler serves the requester and admin sides of the
// password reset workflow.
type PasswordResetHandler struct {
	workflow *resetflow.Workflow
	users    resetflow.UserDirectory
	limiter  ratelimit.Limiter
	notifier notifications.ResetNotifier
	policy   passwordcheck.Policy
}

func NewPasswordResetHandler(
	workflow *resetflow.Workflow,
	users resetflow.UserDirectory,
	limiter ratelimit.Limiter,
	notifier notifications.ResetNotifier,
	policy passwordcheck.Policy,
) *PasswordResetHandler {
	return &PasswordResetHandler{
		workflow: workflow,
		users:    users,
		limiter:  limiter,
		notifier: notifier,
		policy:   policy,
	}
}

// resetError turns workflow errors into HTTP errors. Unknown errors are
// logged and hidden behind a 500.
func resetError(c echo.Context, err error) error {
	var verr *resetflow.ValidationError
	switch {
	case errors.As(err, &verr):
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: verr.Error()}
	case errors.Is(err, resetflow.ErrNotFound):
		return &echo.HTTPError{Code: http.StatusNotFound, Message: "No matching account or request was found"}
	case errors.Is(err, resetflow.ErrDuplicateRequest):
		return &echo.HTTPError{Code: http.StatusConflict, Message: "You already have a password reset request waiting for admin approval"}
	case errors.Is(err, resetflow.ErrAlreadyProcessed):
		return &echo.HTTPError{Code: http.StatusConflict, Message: "This password reset request has already been processed"}
	case errors.Is(err, resetflow.ErrCodeExpired):
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "The verification code has expired, please submit a new request"}
	case errors.Is(err, resetflow.ErrInvalidCode):
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "The verification code is invalid"}
	case errors.Is(err, resetflow.ErrInvalidToken):
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "The reset token is invalid or has already been used"}
	default:
		c.Logger().Errorf("Password reset operation failed: %v", err)
		return echo.ErrInternalServerError
	}
}

func attemptKey(userID uint) string {
	return fmt.Sprintf("verify:%d", userID)
}

// checkAttempts counts one attempt against the user's verification budget.
// Code checks and token exchanges share the budget. A limiter outage lets
// the attempt through.
func (h *PasswordResetHandler) checkAttempts(c echo.Context, userID uint) error {
	if h.limiter == nil {
		return nil
	}
	logger := c.Logger()
	allowed, err := h.limiter.Allow(c.Request().Context(), attemptKey(userID))
	if err != nil {
		logger.Warnf("Rate limiter unavailable, allowing attempt: %v", err)
		return nil
	}
	if !allowed {
		logger.Warnf("Too many verification attempts for user %d", userID)
		return &echo.HTTPError{
			Code:    http.StatusTooManyRequests,
			Message: "Too many verification attempts, please try again later",
		}
	}
	return nil
}

func (h *PasswordResetHandler) clearAttempts(c echo.Context, userID uint) {
	if h.limiter == nil {
		return
	}
	if err := h.limiter.Reset(c.Request().Context(), attemptKey(userID)); err != nil {
		c.Logger().Warnf("Failed to reset verification attempts for user %d: %v", userID, err)
	}
}

func (h *PasswordResetHandler) lookupUser(ctx context.Context, id uint) *models.User {
	user, err := h.users.FindByID(ctx, id)
	if err != nil || user == nil {
		return nil
	}
	return user
}

// SubmitRequestHandler godoc
// @Summary      Submit a password reset request
// @Description  Creates a pending request for admin review. An approved request that is still valid is returned instead.
// @Tags         password-reset
// @Accept       json
// @Produce      json
// @Param        submitResetRequest  body  SubmitResetRequest  true  "Reset request payload"
// @Success      201 {object} ResetRequestResponse "Request created"
// @Success      200 {object} ResetRequestResponse "Approved request still valid"
// @Failure      400 {object} echo.HTTPError       "Validation failed"
// @Failure      404 {object} echo.HTTPError       "Email not registered"
// @Failure      409 {object} echo.HTTPError       "A request is already pending"
// @Failure      500 {object} echo.HTTPError       "Internal server error"
// @Router       /v1/password-reset/requests [post]
func (h *PasswordResetHandler) SubmitRequestHandler(c echo.Context) error {
	logger := c.Logger()
	ctx := c.Request().Context()

	var req SubmitResetRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid reset request payload: ", err)
		return echo.ErrBadRequest
	}

	user, err := h.workflow.ResolveUser(ctx, req.Email)
	if err != nil {
		return resetError(c, err)
	}

	res, err := h.workflow.Submit(ctx, resetflow.SubmitCommand{UserID: user.ID, Reason: req.Reason})
	if err != nil {
		return resetError(c, err)
	}

	body := ResetRequestResponse{
		RequestID:  res.Request.ID,
		Status:     string(res.Request.Status),
		Redirected: res.Redirected,
		CreatedAt:  res.Request.CreatedAt.Format(statusTimeLayout),
	}
	if res.Redirected {
		body.Message = "Your previous request was approved, please enter the verification code"
		return c.JSON(http.StatusOK, body)
	}
	body.Message = "Password reset request submitted, please wait for admin approval"
	return c.JSON(http.StatusCreated, body)
}

// StatusHandler godoc
// @Summary      Get password reset status
// @Description  Reports on the latest request for an email address.
// @Tags         password-reset
// @Produce      json
// @Param        email  query  string  true  "Account email"
// @Success      200 {object} ResetStatusResponse "Status report"
// @Failure      400 {object} echo.HTTPError      "Validation failed"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/password-reset/status [get]
func (h *PasswordResetHandler) StatusHandler(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.workflow.ResolveUser(ctx, c.QueryParam("email"))
	if errors.Is(err, resetflow.ErrNotFound) {
		return c.JSON(http.StatusOK, ResetStatusResponse{
			Message:      resetflow.MessageUnknownEmail,
			CanCreateNew: true,
		})
	}
	if err != nil {
		return resetError(c, err)
	}

	report, err := h.workflow.Status(ctx, user.ID)
	if err != nil {
		return resetError(c, err)
	}

	body := ResetStatusResponse{
		HasRequest:   report.HasRequest,
		Message:      report.Message,
		CanCreateNew: report.CanCreateNew,
	}
	if report.HasRequest {
		id := report.RequestID
		status := string(report.Status)
		created := report.CreatedAt.Format(statusTimeLayout)
		body.RequestID = &id
		body.Status = &status
		body.CreatedAt = &created
	}
	return c.JSON(http.StatusOK, body)
}

// VerifyCodeHandler godoc
// @Summary      Verify a reset code
// @Description  Checks the admin-issued code and returns the token for setting a new password.
// @Tags         password-reset
// @Accept       json
// @Produce      json
// @Param        verifyCodeRequest  body  VerifyCodeRequest  true  "Verification payload"
// @Success      200 {object} VerifyCodeResponse "Code accepted"
// @Failure      400 {object} echo.HTTPError     "Invalid or expired code"
// @Failure      404 {object} echo.HTTPError     "Email not registered"
// @Failure      429 {object} echo.HTTPError     "Too many attempts"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /v1/password-reset/verify [post]
func (h *PasswordResetHandler) VerifyCodeHandler(c echo.Context) error {
	logger := c.Logger()
	ctx := c.Request().Context()

	var req VerifyCodeRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid verify payload: ", err)
		return echo.ErrBadRequest
	}

	user, err := h.workflow.ResolveUser(ctx, req.Email)
	if err != nil {
		return resetError(c, err)
	}

	if err := h.checkAttempts(c, user.ID); err != nil {
		return err
	}

	token, err := h.workflow.Redeem(ctx, resetflow.RedeemCommand{UserID: user.ID, Code: req.Code})
	if err != nil {
		return resetError(c, err)
	}
	h.clearAttempts(c, user.ID)

	return c.JSON(http.StatusOK, VerifyCodeResponse{
		ResetToken: token,
		UserID:     user.ID,
		Message:    "Verification code accepted, please choose a new password",
	})
}

// CompleteResetHandler godoc
// @Summary      Set a new password
// @Description  Replaces the password using a verified reset token. The request is removed afterwards.
// @Tags         password-reset
// @Accept       json
// @Produce      json
// @Param        completeResetRequest  body  CompleteResetRequest  true  "New password payload"
// @Success      200 {object} GenericResponse "Password changed"
// @Failure      400 {object} echo.HTTPError  "Validation failed or invalid token"
// @Failure      429 {object} echo.HTTPError  "Too many attempts"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/password-reset/reset [post]
func (h *PasswordResetHandler) CompleteResetHandler(c echo.Context) error {
	logger := c.Logger()
	ctx := c.Request().Context()

	var req CompleteResetRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid reset payload: ", err)
		return echo.ErrBadRequest
	}

	if req.UserID == 0 {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "user_id is required"}
	}
	if err := h.checkAttempts(c, req.UserID); err != nil {
		return err
	}

	if err := h.policy.Validate(ctx, req.Password, req.PasswordConfirmation); err != nil {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	err := h.workflow.CompleteReset(ctx, resetflow.CompleteCommand{
		UserID:      req.UserID,
		Token:       req.Token,
		NewPassword: req.Password,
	})
	if err != nil {
		return resetError(c, err)
	}
	h.clearAttempts(c, req.UserID)

	if h.notifier != nil {
		if user := h.lookupUser(ctx, req.UserID); user != nil {
			if err := h.notifier.ResetCompleted(ctx, user); err != nil {
				logger.Warnf("Failed to send reset completion notice to user %d: %v", user.ID, err)
			}
		}
	}

	return c.JSON(http.StatusOK, GenericResponse{
		Message: "Password has been reset, please login with your new password",
	})
}

func summarize(u *models.User) *UserSummary {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

func resetDetails(r *models.PasswordResetRequest) ResetRequestDetails {
	d := ResetRequestDetails{
		RequestID: r.ID,
		User:      summarize(&r.User),
		Reason:    r.Reason,
		Status:    string(r.Status),
		Code:      r.Code,
		Admin:     summarize(r.Admin),
		AdminNote: r.AdminNote,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.Format(time.RFC3339),
	}
	if r.ApprovedAt != nil {
		at := r.ApprovedAt.Format(time.RFC3339)
		d.ApprovedAt = &at
	}
	return d
}
