package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"emprende/internal/domain/entity"
	"emprende/internal/domain/repository"
	"emprende/internal/infrastructure/eventbus"
	"emprende/internal/infrastructure/ratelimit"
	ws "emprende/internal/infrastructure/websocket"
	"emprende/internal/usecase/chatfeed"
	"emprende/pkg/errors"
	"emprende/pkg/logger"
)

const maxMessageLength = 2000

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	events      EventPublisher
	rateLimiter RateLimiter
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	events EventPublisher,
	rateLimiter RateLimiter,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
		events:      events,
		rateLimiter: rateLimiter,
	}
}

type ChatResponse struct {
	*entity.Chat
	Product   *entity.Product       `json:"product,omitempty"`
	OtherUser *entity.PublicProfile `json:"other_user,omitempty"`
	Unread    int                   `json:"unread"`
}

// ChatListUpdate is pushed to every participant after a message is stored.
type ChatListUpdate struct {
	ChatID          string    `json:"chat_id"`
	MessageID       string    `json:"message_id"`
	SenderID        string    `json:"sender_id"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
}

// FindOrCreateChat returns the direct chat between userID and peerID, creating it on first use.
// The chat id is derived from the pair and creation only succeeds if the document is absent, so
// repeated or concurrent calls for the same pair all land on one chat.
func (uc *ChatUseCase) FindOrCreateChat(ctx context.Context, userID, peerID, productID string) (*ChatResponse, error) {
	peerID = strings.TrimSpace(peerID)
	if peerID == "" {
		return nil, errors.BadRequest("peer_id is required", nil)
	}
	if peerID == userID {
		return nil, errors.BadRequest("You cannot chat with yourself", nil)
	}

	if _, err := uc.userRepo.GetByID(ctx, peerID); err != nil {
		return nil, err
	}
	if productID != "" {
		if _, err := uc.productRepo.GetByID(ctx, productID); err != nil {
			return nil, err
		}
	}

	chat, err := uc.findExistingChat(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}

	if chat == nil {
		// Only creation is limited; reopening an existing chat is free.
		if ok, wait := uc.rateLimiter.Allow(userID, ratelimit.ActionOpenChat); !ok {
			return nil, errors.TooManyRequests("Too many chats opened", wait)
		}

		chat = &entity.Chat{
			ID:           entity.ChatIDFor(userID, peerID),
			Participants: entity.SortedPair(userID, peerID),
			ProductID:    productID,
			UnreadCount:  map[string]int{userID: 0, peerID: 0},
		}

		created, err := uc.chatRepo.CreateIfAbsent(ctx, chat)
		if err != nil {
			logger.Error("FindOrCreateChat Error: failed to create chat %s: %v", chat.ID, err)
			return nil, err
		}
		if !created {
			// Someone else created it between our lookup and our write.
			if chat, err = uc.chatRepo.GetByID(ctx, chat.ID); err != nil {
				return nil, err
			}
		}
	}

	return uc.buildChatResponse(ctx, chat, userID), nil
}

// findExistingChat looks up the pair's chat by its derived id, then among chats created
// before ids were derived from participants.
func (uc *ChatUseCase) findExistingChat(ctx context.Context, userID, peerID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, entity.ChatIDFor(userID, peerID))
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	chat, err = uc.chatRepo.FindByParticipants(ctx, userID, peerID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	return nil, nil
}

// SendMessage stores the message and updates the chat summary in one write, then notifies participants.
func (uc *ChatUseCase) SendMessage(ctx context.Context, userID, chatID, text, tempID string) (*entity.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.BadRequest("Message text is required", nil)
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return nil, errors.BadRequest("Message is too long", nil)
	}

	if ok, wait := uc.rateLimiter.Allow(userID, ratelimit.ActionSendMessage); !ok {
		return nil, errors.TooManyRequests("Too many messages", wait)
	}

	chat, err := uc.participantChat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	message := &entity.Message{
		ID:        uuid.New().String(),
		ChatID:    chat.ID,
		Text:      text,
		SenderID:  userID,
		TempID:    tempID,
		CreatedAt: time.Now().UTC(),
	}

	recipients := make([]string, 0, len(chat.Participants)-1)
	for _, participant := range chat.Participants {
		if participant != userID {
			recipients = append(recipients, participant)
		}
	}

	if err := uc.chatRepo.AppendMessage(ctx, message, recipients); err != nil {
		logger.Error("SendMessage Error: failed to store message in chat %s: %v", chat.ID, err)
		return nil, err
	}

	update := ChatListUpdate{
		ChatID:          chat.ID,
		MessageID:       message.ID,
		SenderID:        userID,
		LastMessage:     message.Text,
		LastMessageTime: message.CreatedAt,
	}
	for _, participant := range chat.Participants {
		uc.notify(participant, ws.NewFrame(ws.MessageTypeChatListUpdate, chat.ID, update))
	}

	return message, nil
}

func (uc *ChatUseCase) ListUserChats(ctx context.Context, userID string) ([]*ChatResponse, error) {
	chats, err := uc.chatRepo.ListByUserID(ctx, userID)
	if err != nil {
		logger.Error("ListUserChats Error: failed to list chats for user %s: %v", userID, err)
		return nil, err
	}

	responses := make([]*ChatResponse, 0, len(chats))
	for _, chat := range chats {
		responses = append(responses, uc.buildChatResponse(ctx, chat, userID))
	}
	return responses, nil
}

func (uc *ChatUseCase) GetChat(ctx context.Context, userID, chatID string) (*ChatResponse, error) {
	chat, err := uc.participantChat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	return uc.buildChatResponse(ctx, chat, userID), nil
}

// GetMessages returns the chat's messages newest first.
func (uc *ChatUseCase) GetMessages(ctx context.Context, userID, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	if _, err := uc.participantChat(ctx, userID, chatID); err != nil {
		return nil, 0, err
	}
	return uc.chatRepo.GetMessages(ctx, chatID, limit, offset)
}

func (uc *ChatUseCase) MarkChatAsRead(ctx context.Context, userID, chatID string) error {
	if _, err := uc.participantChat(ctx, userID, chatID); err != nil {
		return err
	}

	if err := uc.chatRepo.ResetUnread(ctx, chatID, userID); err != nil {
		logger.Error("MarkChatAsRead Error: failed to reset unread count of %s in chat %s: %v", userID, chatID, err)
		return err
	}

	uc.notify(userID, ws.NewFrame(ws.MessageTypeChatRead, chatID, nil))
	return nil
}

// WatchChat keeps a feed of the chat's newest messages current and passes every change to fn,
// oldest message first. Messages already delivered on this watch are not delivered again.
func (uc *ChatUseCase) WatchChat(ctx context.Context, userID, chatID string, fn func(chatfeed.Update)) (*chatfeed.Watch, error) {
	if _, err := uc.participantChat(ctx, userID, chatID); err != nil {
		return nil, err
	}

	feed := chatfeed.NewFeed(chatID, userID, chatfeed.Window)
	sub, err := uc.chatRepo.WatchMessages(ctx, chatID, func(batch []entity.Message) {
		if update, ok := feed.Apply(batch); ok {
			fn(update)
		}
	})
	if err != nil {
		logger.Error("WatchChat Error: failed to watch chat %s: %v", chatID, err)
		return nil, err
	}

	return &chatfeed.Watch{Feed: feed, Closer: sub}, nil
}

func (uc *ChatUseCase) participantChat(ctx context.Context, userID, chatID string) (*entity.Chat, error) {
	if chatID == "" {
		return nil, errors.BadRequest("chat_id is required", nil)
	}

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this chat", nil)
	}
	return chat, nil
}

func (uc *ChatUseCase) buildChatResponse(ctx context.Context, chat *entity.Chat, userID string) *ChatResponse {
	resp := &ChatResponse{Chat: chat, Unread: chat.UnreadFor(userID)}

	if chat.ProductID != "" {
		product, err := uc.productRepo.GetByID(ctx, chat.ProductID)
		if err == nil {
			resp.Product = product
		} else {
			logger.Warn("Chat Warning: product %s not found for chat %s: %v", chat.ProductID, chat.ID, err)
		}
	}

	if otherID := chat.OtherParticipant(userID); otherID != "" {
		other, err := uc.userRepo.GetByID(ctx, otherID)
		if err == nil {
			resp.OtherUser = other.Public()
		} else {
			logger.Warn("Chat Warning: other user %s not found for chat %s: %v", otherID, chat.ID, err)
		}
	}

	return resp
}

func (uc *ChatUseCase) notify(userID string, frame ws.Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("Chat notify Error: failed to marshal %s: %v", frame.Type, err)
		return
	}
	if err := uc.events.Publish(eventbus.UserTopic(userID), payload); err != nil {
		logger.Warn("Chat notify Warning: failed to publish %s to %s: %v", frame.Type, userID, err)
	}
}
