package handler

import (
	"context"
	"net/http"
	"strings"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"emprende/internal/adapter/api/middleware"
	"emprende/internal/infrastructure/eventbus"
	ws "emprende/internal/infrastructure/websocket"
	"emprende/pkg/errors"
	"emprende/pkg/logger"
	"emprende/pkg/response"
)

// userTopicSubscription is the key of the notification subscription every client holds.
const userTopicSubscription = "user"

type WebSocketHandler struct {
	ctx       context.Context
	wsManager *ws.Manager
	verifier  middleware.TokenVerifier
	bus       eventbus.Bus
}

var webSocketHandler *WebSocketHandler

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewWebSocketHandler serves sockets until ctx is done; ctx is the server's lifetime, not a request's.
func NewWebSocketHandler(ctx context.Context, wsManager *ws.Manager, verifier middleware.TokenVerifier, bus eventbus.Bus) *WebSocketHandler {
	return &WebSocketHandler{
		ctx:       ctx,
		wsManager: wsManager,
		verifier:  verifier,
		bus:       bus,
	}
}

func SetupWebSocketHandler(ctx context.Context, wsManager *ws.Manager, verifier middleware.TokenVerifier, bus eventbus.Bus) {
	webSocketHandler = NewWebSocketHandler(ctx, wsManager, verifier, bus)
}

func GetWebSocketHandler() *WebSocketHandler {
	return webSocketHandler
}

// HandleWebSocket authenticates with the token query parameter (browsers cannot set headers on
// a socket handshake) or a bearer header, then hands the connection to the manager.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token = strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	userID, err := h.verifier.VerifyToken(c.Request().Context(), token)
	if err != nil {
		return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("WebSocket: upgrade failed for %s: %v", userID, err)
		return nil
	}

	log := logger.With("uid", userID, "remote", c.RealIP())
	client := ws.NewClient(userID, conn)

	sub, err := h.bus.Subscribe(eventbus.UserTopic(userID), func(payload []byte) {
		client.Enqueue(payload)
	})
	if err != nil {
		log.Errorf("WebSocket: failed to subscribe to notifications: %v", err)
		conn.Close()
		return nil
	}
	client.AddSubscription(userTopicSubscription, sub)

	others := h.wsManager.ConnectionCount(userID)
	select {
	case h.wsManager.Register <- client:
		log.Infof("WebSocket connected, %d other connections open", others)
	case <-h.wsManager.Done():
		client.ReleaseSubscriptions()
		conn.Close()
		return nil
	}

	go client.WritePump()
	go client.ReadPump(h.ctx, h.wsManager)

	return nil
}
