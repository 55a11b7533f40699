package repository

import (
	"context"
	"io"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"emprende/internal/domain/entity"
	"emprende/internal/domain/repository"
	"emprende/pkg/errors"
	"emprende/pkg/logger"
)

const (
	chatsCollection    = "chats"
	messagesCollection = "messages"

	// watchWindow bounds the initial snapshot of a message watch.
	watchWindow = 50
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) chatRef(id string) *firestore.DocumentRef {
	return r.client.Collection(chatsCollection).Doc(id)
}

func (r *firestoreChatRepository) messages(chatID string) *firestore.CollectionRef {
	return r.chatRef(chatID).Collection(messagesCollection)
}

func (r *firestoreChatRepository) CreateIfAbsent(ctx context.Context, chat *entity.Chat) (bool, error) {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}

	now := time.Now()
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = now
	}
	if chat.LastMessageTime.IsZero() {
		chat.LastMessageTime = chat.CreatedAt
	}
	chat.UpdatedAt = now

	_, err := r.chatRef(chat.ID).Create(ctx, chat)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return false, nil
		}
		return false, errors.Internal("Failed to create chat", err)
	}

	return true, nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.chatRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", err)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	return chatFromDoc(doc)
}

func (r *firestoreChatRepository) FindByParticipants(ctx context.Context, userA, userB string) (*entity.Chat, error) {
	docs, err := r.client.Collection(chatsCollection).
		Where("participants", "array-contains", userA).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to query chats by participant", err)
	}

	for _, doc := range docs {
		chat, err := chatFromDoc(doc)
		if err != nil {
			logger.Warn("Skipping malformed chat %s: %v", doc.Ref.ID, err)
			continue
		}
		if len(chat.Participants) == 2 && chat.HasParticipant(userA) && chat.HasParticipant(userB) {
			return chat, nil
		}
	}

	return nil, errors.NotFound("Chat", nil)
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	docs, err := r.client.Collection(chatsCollection).
		Where("participants", "array-contains", userID).
		OrderBy("lastMessageTime", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list chats", err)
	}

	chats := make([]*entity.Chat, 0, len(docs))
	for _, doc := range docs {
		chat, err := chatFromDoc(doc)
		if err != nil {
			logger.Warn("Skipping malformed chat %s for user %s: %v", doc.Ref.ID, userID, err)
			continue
		}
		chats = append(chats, chat)
	}

	return chats, nil
}

func (r *firestoreChatRepository) ResetUnread(ctx context.Context, chatID, userID string) error {
	_, err := r.chatRef(chatID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"unreadCount", userID}, Value: 0},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat", err)
		}
		return errors.Internal("Failed to reset unread count", err)
	}
	return nil
}

func (r *firestoreChatRepository) AppendMessage(ctx context.Context, message *entity.Message, recipients []string) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	updates := []firestore.Update{
		{Path: "lastMessage", Value: message.Text},
		{Path: "lastMessageTime", Value: message.CreatedAt},
		{Path: "updatedAt", Value: message.CreatedAt},
	}
	for _, recipient := range recipients {
		updates = append(updates, firestore.Update{
			FieldPath: firestore.FieldPath{"unreadCount", recipient},
			Value:     firestore.Increment(1),
		})
	}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(r.messages(message.ChatID).Doc(message.ID), message); err != nil {
			return err
		}
		return tx.Update(r.chatRef(message.ChatID), updates)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat", err)
		}
		return errors.Internal("Failed to store message", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetMessages(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.messages(chatID).OrderBy("createdAt", firestore.Desc)

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count messages for chat", err)
	}
	total := int64(len(countDocs))
	if int64(offset) >= total {
		return []*entity.Message{}, total, nil
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}
		message.ID = doc.Ref.ID
		messages = append(messages, &message)
	}

	return messages, total, nil
}

// snapshotSubscription owns one Firestore snapshot listener.
type snapshotSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *snapshotSubscription) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return nil
}

func (r *firestoreChatRepository) WatchMessages(ctx context.Context, chatID string, handler repository.MessageHandler) (io.Closer, error) {
	watchCtx, cancel := context.WithCancel(ctx)
	it := r.messages(chatID).OrderBy("createdAt", firestore.Desc).Limit(watchWindow).Snapshots(watchCtx)

	sub := &snapshotSubscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		defer it.Stop()

		first := true
		for {
			snap, err := it.Next()
			if err != nil {
				if err == iterator.Done || watchCtx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				logger.Error("Message watch for chat %s stopped: %v", chatID, err)
				return
			}

			// Changes follow the query's descending order; handlers get them oldest first.
			batch := make([]entity.Message, 0, len(snap.Changes))
			for _, change := range snap.Changes {
				if change.Kind != firestore.DocumentAdded {
					continue
				}
				var message entity.Message
				if err := change.Doc.DataTo(&message); err != nil {
					logger.Warn("Skipping malformed message %s in chat %s: %v", change.Doc.Ref.ID, chatID, err)
					continue
				}
				message.ID = change.Doc.Ref.ID
				batch = append(batch, message)
			}

			if len(batch) == 0 && !first {
				continue
			}
			first = false
			entity.SortMessages(batch)
			handler(batch)
		}
	}()

	return sub, nil
}

func chatFromDoc(doc *firestore.DocumentSnapshot) (*entity.Chat, error) {
	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}
	chat.ID = doc.Ref.ID
	if chat.UnreadCount == nil {
		chat.UnreadCount = make(map[string]int)
	}
	return &chat, nil
}
