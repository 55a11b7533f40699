package router

import (
	"github.com/labstack/echo/v4"

	"emprende/internal/adapter/api/handler"
	"emprende/internal/adapter/api/middleware"
	"emprende/internal/infrastructure/ratelimit"
)

func SetupAuthRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter middleware.Limiter) {
	authHandler := handler.GetAuthHandler()

	public := e.Group("/v1/auth")
	public.Use(middleware.RateLimit(limiter, ratelimit.ActionAuth))

	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)
	public.POST("/refresh", authHandler.RefreshToken)

	public.POST("/logout", authHandler.Logout, authMiddleware.Authenticate)
}
