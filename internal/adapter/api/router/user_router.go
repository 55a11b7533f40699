package router

import (
	"github.com/labstack/echo/v4"

	"emprende/internal/adapter/api/handler"
	"emprende/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	userHandler := handler.GetUserHandler()

	users := e.Group("/v1/users")
	users.Use(authMiddleware.Authenticate)

	users.GET("/me", userHandler.GetProfile)
	users.PATCH("/me", userHandler.UpdateProfile)
	users.POST("/me/photo", userHandler.UploadPhoto)
	users.GET("/:id", userHandler.GetUserByID)
}
