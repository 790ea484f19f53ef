// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"net/http"
	"strconv"
	"umkm-portal/middlewares"
	"umkm-portal/models"
	"umkm-portal/resetflow"

	"github.com/labstack/echo/v4"
)

func parseRequestID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("request_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &echo.HTTPError{Code: http.StatusBadRequest, Message: "request_id must be a positive integer"}
	}
	return uint(id), nil
}

// ListRequestsHandler godoc
// @Summary      List password reset requests
// @Description  Newest first, with requester and processing admin.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page       query  int     false  "Page number"  default(1)
// @Param        page_size  query  int     false  "Page size"    default(20)
// @Param        status     query  string  false  "pending, approved or rejected"
// @Success      200 {object} ResetRequestListResponse "Requests"
// @Failure      400 {object} echo.HTTPError           "Invalid status filter"
// @Failure      401 {object} echo.HTTPError           "Unauthorized"
// @Failure      403 {object} echo.HTTPError           "Not an admin"
// @Failure      500 {object} echo.HTTPError           "Internal server error"
// @Router       /v1/admin/password-reset/requests [get]
func (h *PasswordResetHandler) ListRequestsHandler(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	requests, total, err := h.workflow.List(c.Request().Context(), resetflow.ListQuery{
		Page:     page,
		PageSize: pageSize,
		Status:   models.ResetStatus(c.QueryParam("status")),
	})
	if err != nil {
		return resetError(c, err)
	}

	data := make([]ResetRequestDetails, 0, len(requests))
	for i := range requests {
		data = append(data, resetDetails(&requests[i]))
	}

	return c.JSON(http.StatusOK, ResetRequestListResponse{
		Data: data,
		Pagination: PaginationDetails{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
		Message: "Password reset requests retrieved successfully",
	})
}

// ApproveRequestHandler godoc
// @Summary      Approve a password reset request
// @Description  Issues a six digit verification code for a pending request.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request_id           path  int                  true   "Request ID"
// @Param        approveResetRequest  body  ApproveResetRequest  false  "Optional note"
// @Success      200 {object} ResetDecisionResponse "Approved"
// @Failure      400 {object} echo.HTTPError        "Validation failed"
// @Failure      404 {object} echo.HTTPError        "Request not found"
// @Failure      409 {object} echo.HTTPError        "Already processed"
// @Failure      500 {object} echo.HTTPError        "Internal server error"
// @Router       /v1/admin/password-reset/requests/{request_id}/approve [post]
func (h *PasswordResetHandler) ApproveRequestHandler(c echo.Context) error {
	logger := c.Logger()
	ctx := c.Request().Context()

	requestID, err := parseRequestID(c)
	if err != nil {
		return err
	}
	admin, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		return echo.ErrUnauthorized
	}

	var req ApproveResetRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid approve payload: ", err)
		return echo.ErrBadRequest
	}

	approved, err := h.workflow.Approve(ctx, resetflow.ApproveCommand{
		RequestID: requestID,
		AdminID:   admin.ID,
		Note:      req.Note,
	})
	if err != nil {
		return resetError(c, err)
	}

	approved.Admin = admin
	if user := h.lookupUser(ctx, approved.UserID); user != nil {
		approved.User = *user
		if h.notifier != nil {
			if err := h.notifier.ResetApproved(ctx, user, approved); err != nil {
				logger.Warnf("Failed to send approval notice for request %d: %v", approved.ID, err)
			}
		}
	}

	return c.JSON(http.StatusOK, ResetDecisionResponse{
		Request: resetDetails(approved),
		Message: "Password reset request approved, share the verification code with the owner",
	})
}

// RejectRequestHandler godoc
// @Summary      Reject a password reset request
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request_id          path  int                 true  "Request ID"
// @Param        rejectResetRequest  body  RejectResetRequest  true  "Rejection note"
// @Success      200 {object} ResetDecisionResponse "Rejected"
// @Failure      400 {object} echo.HTTPError        "Note missing or too short"
// @Failure      404 {object} echo.HTTPError        "Request not found"
// @Failure      409 {object} echo.HTTPError        "Already processed"
// @Failure      500 {object} echo.HTTPError        "Internal server error"
// @Router       /v1/admin/password-reset/requests/{request_id}/reject [post]
func (h *PasswordResetHandler) RejectRequestHandler(c echo.Context) error {
	logger := c.Logger()
	ctx := c.Request().Context()

	requestID, err := parseRequestID(c)
	if err != nil {
		return err
	}
	admin, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		return echo.ErrUnauthorized
	}

	var req RejectResetRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid reject payload: ", err)
		return echo.ErrBadRequest
	}

	rejected, err := h.workflow.Reject(ctx, resetflow.RejectCommand{
		RequestID: requestID,
		AdminID:   admin.ID,
		Note:      req.Note,
	})
	if err != nil {
		return resetError(c, err)
	}

	rejected.Admin = admin
	if user := h.lookupUser(ctx, rejected.UserID); user != nil {
		rejected.User = *user
		if h.notifier != nil {
			if err := h.notifier.ResetRejected(ctx, user, rejected); err != nil {
				logger.Warnf("Failed to send rejection notice for request %d: %v", rejected.ID, err)
			}
		}
	}

	return c.JSON(http.StatusOK, ResetDecisionResponse{
		Request: resetDetails(rejected),
		Message: "Password reset request rejected",
	})
}
