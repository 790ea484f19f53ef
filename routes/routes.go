// SPDX-License-Identifier: GPL-3.0-only

package routes

import (
	"umkm-portal/commons"
	"umkm-portal/handlers"
	"umkm-portal/middlewares"
	"umkm-portal/models"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, reset *handlers.PasswordResetHandler) {
	commons.Logger.Debug("Registering v1 routes")
	api_v1 := e.Group("/v1")
	api_v1.POST("/auth/login", handlers.LoginHandler)
	api_v1.POST("/auth/logout", handlers.LogoutHandler, middlewares.VerifySessionMiddleware)

	api_v1.POST("/password-reset/requests", reset.SubmitRequestHandler)
	api_v1.GET("/password-reset/status", reset.StatusHandler)
	api_v1.POST("/password-reset/verify", reset.VerifyCodeHandler)
	api_v1.POST("/password-reset/reset", reset.CompleteResetHandler)

	admin := api_v1.Group("/admin", middlewares.VerifySessionMiddleware, middlewares.RequireRole(models.RoleAdmin))
	admin.GET("/password-reset/requests", reset.ListRequestsHandler)
	admin.POST("/password-reset/requests/:request_id/approve", reset.ApproveRequestHandler)
	admin.POST("/password-reset/requests/:request_id/reject", reset.RejectRequestHandler)
	commons.Logger.Info("v1 routes registered successfully")
}
