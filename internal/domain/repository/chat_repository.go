package repository

import (
	"context"
	"io"

	"emprende/internal/domain/entity"
)

// MessageHandler receives the messages added by one update of a live subscription, oldest first.
// The first call carries the initial window and may be empty.
type MessageHandler func(batch []entity.Message)

type ChatRepository interface {
	// CreateIfAbsent writes chat under chat.ID unless a document with that id exists.
	// It reports whether this call created the document.
	CreateIfAbsent(ctx context.Context, chat *entity.Chat) (bool, error)
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	// FindByParticipants returns a chat whose participant set is exactly {userA, userB}.
	FindByParticipants(ctx context.Context, userA, userB string) (*entity.Chat, error)
	// ListByUserID returns the user's chats ordered by last message time, newest first.
	ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error)
	ResetUnread(ctx context.Context, chatID, userID string) error

	// AppendMessage stores message and updates the chat's last message fields and the
	// unread counters of recipients in one atomic write.
	AppendMessage(ctx context.Context, message *entity.Message, recipients []string) error
	GetMessages(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error)
	// WatchMessages streams the newest messages of the chat, then every message added to it,
	// until the returned Closer is closed or ctx is done.
	WatchMessages(ctx context.Context, chatID string, handler MessageHandler) (io.Closer, error)
}
