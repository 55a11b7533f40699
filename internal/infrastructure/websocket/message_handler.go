package websocket

import (
	"context"
	"encoding/json"
	"time"

	"emprende/internal/domain/entity"
	"emprende/internal/usecase/chatfeed"
	"emprende/pkg/errors"
	"emprende/pkg/logger"
)

const (
	MessageTypePing           = "ping"
	MessageTypePong           = "pong"
	MessageTypeJoinChat       = "join_chat"
	MessageTypeLeaveChat      = "leave_chat"
	MessageTypeSendMessage    = "send_message"
	MessageTypeMarkRead       = "mark_read"
	MessageTypeMessage        = "message"
	MessageTypeMessages       = "messages"
	MessageTypeMessageSent    = "message_sent"
	MessageTypeJoined         = "joined"
	MessageTypeChatListUpdate = "chat_list_update"
	MessageTypeChatRead       = "chat_read"
	MessageTypeError          = "error"
)

// ChatService is the part of the chat use case reachable from a socket.
type ChatService interface {
	WatchChat(ctx context.Context, userID, chatID string, fn func(chatfeed.Update)) (*chatfeed.Watch, error)
	SendMessage(ctx context.Context, userID, chatID, text, tempID string) (*entity.Message, error)
	MarkChatAsRead(ctx context.Context, userID, chatID string) error
}

// Frame is the envelope of every server to client message.
type Frame struct {
	Type      string      `json:"type"`
	ChatID    string      `json:"chat_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func NewFrame(frameType, chatID string, data interface{}) Frame {
	return Frame{
		Type:      frameType,
		ChatID:    chatID,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// ClientFrame is what clients send, e.g. {"type":"send_message","chat_id":"a_b","text":"hola","temp_id":"t1"}.
type ClientFrame struct {
	Type   string `json:"type"`
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
	TempID string `json:"temp_id"`
}

type errorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TempID  string `json:"temp_id,omitempty"`
}

// messageData is the payload of a message frame: the message and the chat's unread count after it.
type messageData struct {
	chatfeed.Item
	Unread int `json:"unread"`
}

func chatSubscriptionKey(chatID string) string {
	return "chat:" + chatID
}

// HandleClientMessage processes incoming WebSocket messages
func (m *Manager) HandleClientMessage(ctx context.Context, client *Client, raw []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		logger.Debug("WebSocket: failed to unmarshal message from %s: %v", client.UserID, err)
		m.sendError(client, "", errors.BadRequest("Invalid message format", err), "")
		return
	}

	switch frame.Type {
	case MessageTypePing:
		m.sendToClient(client, NewFrame(MessageTypePong, "", map[string]string{"status": "alive"}))

	case MessageTypeJoinChat:
		m.handleJoinChat(ctx, client, frame)

	case MessageTypeLeaveChat:
		client.RemoveSubscription(chatSubscriptionKey(frame.ChatID))

	case MessageTypeSendMessage:
		m.handleSendMessage(ctx, client, frame)

	case MessageTypeMarkRead:
		if err := m.chats.MarkChatAsRead(ctx, client.UserID, frame.ChatID); err != nil {
			m.sendError(client, frame.ChatID, err, "")
			return
		}
		if watch := client.chatWatch(frame.ChatID); watch != nil {
			watch.Dispatch(chatfeed.Action{Kind: chatfeed.Read})
		}

	default:
		logger.Debug("WebSocket: unknown message type '%s' from %s", frame.Type, client.UserID)
		m.sendError(client, frame.ChatID, errors.BadRequest("Unknown message type", nil), "")
	}
}

// handleJoinChat starts a live watch of the chat's messages, scoped to this connection. The first
// update and any reordering arrive as a messages frame replacing the client's view; new messages
// arrive as message frames, oldest first.
func (m *Manager) handleJoinChat(ctx context.Context, client *Client, frame ClientFrame) {
	if frame.ChatID == "" {
		m.sendError(client, "", errors.BadRequest("chat_id is required", nil), "")
		return
	}

	chatID := frame.ChatID
	watch, err := m.chats.WatchChat(ctx, client.UserID, chatID, func(update chatfeed.Update) {
		if update.Reset {
			m.sendToClient(client, NewFrame(MessageTypeMessages, chatID, update))
			return
		}
		for _, item := range update.Messages {
			m.sendToClient(client, NewFrame(MessageTypeMessage, chatID, messageData{Item: item, Unread: update.Unread}))
		}
	})
	if err != nil {
		m.sendError(client, chatID, err, "")
		return
	}

	client.AddSubscription(chatSubscriptionKey(chatID), watch)
	m.sendToClient(client, NewFrame(MessageTypeJoined, chatID, nil))
}

// handleSendMessage shows the message as pending in the joined chat's feed until the stored copy
// arrives, and drops it if the send fails.
func (m *Manager) handleSendMessage(ctx context.Context, client *Client, frame ClientFrame) {
	watch := client.chatWatch(frame.ChatID)
	if watch != nil && frame.TempID != "" {
		watch.Dispatch(chatfeed.Action{Kind: chatfeed.OptimisticSent, Message: entity.Message{
			ChatID:    frame.ChatID,
			Text:      frame.Text,
			TempID:    frame.TempID,
			CreatedAt: time.Now().UTC(),
		}})
	}

	msg, err := m.chats.SendMessage(ctx, client.UserID, frame.ChatID, frame.Text, frame.TempID)
	if err != nil {
		if watch != nil {
			watch.Dispatch(chatfeed.Action{Kind: chatfeed.SendFailed, TempID: frame.TempID})
		}
		m.sendError(client, frame.ChatID, err, frame.TempID)
		return
	}

	m.sendToClient(client, NewFrame(MessageTypeMessageSent, frame.ChatID, msg))
}

func (m *Manager) sendError(client *Client, chatID string, err error, tempID string) {
	data := errorData{Code: errors.CodeInternal, Message: "Something went wrong", TempID: tempID}
	if appErr, ok := errors.As(err); ok {
		data.Code = appErr.Code
		data.Message = appErr.Message
	} else {
		logger.Error("WebSocket: request from %s failed: %v", client.UserID, err)
	}

	m.sendToClient(client, NewFrame(MessageTypeError, chatID, data))
}

func (m *Manager) sendToClient(client *Client, frame Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("WebSocket: failed to marshal %s frame: %v", frame.Type, err)
		return
	}

	if !client.Enqueue(payload) {
		logger.Warn("WebSocket: send buffer full for %s, dropping %s frame", client.UserID, frame.Type)
	}
}
