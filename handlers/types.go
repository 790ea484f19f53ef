// SPDX-License-Identifier: GPL-3.0-only

package handlers

// swagger:model LoginRequest
type LoginRequest struct {
	// User's email address
	Email string `json:"email" example:"admin@umkm.id"`
	// User's password
	Password string `json:"password" example:"MySecretPassword@123"`
}

// swagger:model AuthResponse
type AuthResponse struct {
	// Session token, sent as a Bearer token on authenticated requests.
	SessionToken string `json:"session_token" example:"sample_session_token"`
	// Role of the logged in user
	Role string `json:"role" example:"admin"`
	// Message indicating successful operation
	Message string `json:"message" example:"Login successful"`
}

// swagger:model GenericResponse
type GenericResponse struct {
	// Message indicating the result of the operation
	Message string `json:"message"`
}

// swagger:model PaginationDetails
type PaginationDetails struct {
	// Current page number
	Page int `json:"page"`
	// Page size
	PageSize int `json:"page_size"`
	// Total number of items
	Total int64 `json:"total"`
	// Total number of pages
	TotalPages int `json:"total_pages"`
}

// swagger:model SubmitResetRequest
type SubmitResetRequest struct {
	// Email of the account to recover
	Email string `json:"email" example:"owner@warungsari.id"`
	// Why the owner needs a reset, shown to the reviewing admin
	Reason string `json:"reason" example:"I changed phones and lost my saved password"`
}

// swagger:model ResetRequestResponse
type ResetRequestResponse struct {
	RequestID uint   `json:"request_id" example:"12"`
	Status    string `json:"status" example:"pending"`
	// Set when an approved request is still valid and no new request was made
	Redirected bool   `json:"redirected" example:"false"`
	CreatedAt  string `json:"created_at" example:"04/10/2025 09:00"`
	Message    string `json:"message" example:"Password reset request submitted, please wait for admin approval"`
}

// swagger:model ResetStatusResponse
type ResetStatusResponse struct {
	HasRequest   bool    `json:"has_request" example:"true"`
	RequestID    *uint   `json:"request_id,omitempty" example:"12"`
	Status       *string `json:"status,omitempty" example:"pending"`
	Message      string  `json:"message" example:"Your request is still waiting for admin approval"`
	CreatedAt    *string `json:"created_at,omitempty" example:"04/10/2025 09:00"`
	CanCreateNew bool    `json:"can_create_new" example:"false"`
}

// swagger:model VerifyCodeRequest
type VerifyCodeRequest struct {
	Email string `json:"email" example:"owner@warungsari.id"`
	// Six digit code issued by the admin
	Code string `json:"code" example:"042917"`
}

// swagger:model VerifyCodeResponse
type VerifyCodeResponse struct {
	// Token to present when setting the new password
	ResetToken string `json:"reset_token" example:"042917"`
	UserID     uint   `json:"user_id" example:"7"`
	Message    string `json:"message" example:"Verification code accepted"`
}

// swagger:model CompleteResetRequest
type CompleteResetRequest struct {
	Token                string `json:"token" example:"042917"`
	UserID               uint   `json:"user_id" example:"7"`
	Password             string `json:"password" example:"NewSecret@2025"`
	PasswordConfirmation string `json:"password_confirmation" example:"NewSecret@2025"`
}

// swagger:model ApproveResetRequest
type ApproveResetRequest struct {
	// Optional note kept with the request
	Note *string `json:"note" example:"Verified by phone call"`
}

// swagger:model RejectResetRequest
type RejectResetRequest struct {
	// Required explanation, at least 5 characters
	Note string `json:"note" example:"Could not verify business ownership"`
}

// swagger:model UserSummary
type UserSummary struct {
	ID    uint   `json:"id" example:"7"`
	Name  string `json:"name" example:"Sari Wulandari"`
	Email string `json:"email" example:"owner@warungsari.id"`
}

// swagger:model ResetRequestDetails
type ResetRequestDetails struct {
	RequestID  uint         `json:"request_id" example:"12"`
	User       *UserSummary `json:"user,omitempty"`
	Reason     string       `json:"reason" example:"I changed phones and lost my saved password"`
	Status     string       `json:"status" example:"approved"`
	Code       *string      `json:"code,omitempty" example:"042917"`
	Admin      *UserSummary `json:"admin,omitempty"`
	AdminNote  *string      `json:"admin_note,omitempty" example:"Verified by phone call"`
	ApprovedAt *string      `json:"approved_at,omitempty" example:"2025-10-04T09:30:00Z"`
	CreatedAt  string       `json:"created_at" example:"2025-10-04T09:00:00Z"`
	UpdatedAt  string       `json:"updated_at" example:"2025-10-04T09:30:00Z"`
}

// swagger:model ResetRequestListResponse
type ResetRequestListResponse struct {
	Data       []ResetRequestDetails `json:"data"`
	Pagination PaginationDetails     `json:"pagination"`
	Message    string                `json:"message" example:"Password reset requests retrieved successfully"`
}

// swagger:model ResetDecisionResponse
type ResetDecisionResponse struct {
	Request ResetRequestDetails `json:"request"`
	Message string              `json:"message" example:"Password reset request approved"`
}
