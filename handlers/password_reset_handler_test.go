// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"umkm-portal/models"
	"umkm-portal/resetflow"

	"github.com/labstack/echo/v4"
)

func TestResetErrorMapping(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &resetflow.ValidationError{Field: "note", Message: "must be at least 5 characters"}, http.StatusBadRequest},
		{"not found", fmt.Errorf("user with email x: %w", resetflow.ErrNotFound), http.StatusNotFound},
		{"duplicate", resetflow.ErrDuplicateRequest, http.StatusConflict},
		{"already processed", resetflow.ErrAlreadyProcessed, http.StatusConflict},
		{"invalid code", resetflow.ErrInvalidCode, http.StatusBadRequest},
		{"expired code", resetflow.ErrCodeExpired, http.StatusBadRequest},
		{"invalid token", resetflow.ErrInvalidToken, http.StatusBadRequest},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var httpErr *echo.HTTPError
			if !errors.As(resetError(c, tc.err), &httpErr) {
				t.Fatalf("Expected *echo.HTTPError for %v", tc.err)
			}
			if httpErr.Code != tc.code {
				t.Errorf("Expected %d, got %d", tc.code, httpErr.Code)
			}
		})
	}
}

func TestResetErrorHidesInternalDetails(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	var httpErr *echo.HTTPError
	errors.As(resetError(c, errors.New("pq: connection refused")), &httpErr)
	if msg, _ := httpErr.Message.(string); msg == "pq: connection refused" {
		t.Error("Internal error text leaked to the client")
	}
}

func TestResetDetails(t *testing.T) {
	code := "042917"
	approvedAt := time.Date(2025, 10, 4, 9, 30, 0, 0, time.UTC)
	req := &models.PasswordResetRequest{
		ID:         12,
		User:       models.User{ID: 7, Name: "Sari", Email: "owner@umkm.test"},
		Reason:     "I changed phones",
		Status:     models.ResetApproved,
		Code:       &code,
		ApprovedAt: &approvedAt,
		CreatedAt:  approvedAt.Add(-30 * time.Minute),
		UpdatedAt:  approvedAt,
	}

	d := resetDetails(req)
	if d.User == nil || d.User.Email != "owner@umkm.test" {
		t.Errorf("Expected requester summary, got %+v", d.User)
	}
	if d.Admin != nil {
		t.Errorf("Expected no admin summary, got %+v", d.Admin)
	}
	if d.ApprovedAt == nil || *d.ApprovedAt != "2025-10-04T09:30:00Z" {
		t.Errorf("Unexpected approved_at: %v", d.ApprovedAt)
	}
	if d.CreatedAt != "2025-10-04T09:00:00Z" {
		t.Errorf("Unexpected created_at: %s", d.CreatedAt)
	}
}

func TestStatusTimeLayout(t *testing.T) {
	at := time.Date(2025, 10, 4, 9, 5, 0, 0, time.UTC)
	if got := at.Format(statusTimeLayout); got != "04 Oct 2025 09:05" {
		t.Errorf("Unexpected status time: %s", got)
	}
}

func TestParseRequestID(t *testing.T) {
	e := echo.New()
	for raw, ok := range map[string]bool{"12": true, "0": false, "-1": false, "abc": false} {
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
		c.SetParamNames("request_id")
		c.SetParamValues(raw)
		_, err := parseRequestID(c)
		if (err == nil) != ok {
			t.Errorf("parseRequestID(%q): ok=%v, err=%v", raw, ok, err)
		}
	}
}
