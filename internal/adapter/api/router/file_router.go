package router

import (
	"github.com/labstack/echo/v4"

	"emprende/internal/adapter/api/handler"
	"emprende/internal/adapter/api/middleware"
)

func SetupFileRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	fileHandler := handler.GetFileHandler()

	uploads := e.Group("/v1/uploads")
	uploads.Use(authMiddleware.Authenticate)

	uploads.POST("/images", fileHandler.UploadImage)
	uploads.GET("/images", fileHandler.ListUploads)
	uploads.DELETE("/images/:id", fileHandler.DeleteUpload)
}
