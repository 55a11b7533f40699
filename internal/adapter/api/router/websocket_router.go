package router

import (
	"github.com/labstack/echo/v4"

	"emprende/internal/adapter/api/handler"
)

// SetupWebSocketRouter registers /ws without auth middleware; the handler checks the token itself.
func SetupWebSocketRouter(e *echo.Echo) {
	e.GET("/ws", handler.GetWebSocketHandler().HandleWebSocket)
}
