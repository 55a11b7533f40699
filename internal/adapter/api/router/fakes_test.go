package router_test

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"emprende/internal/domain/entity"
	"emprende/internal/domain/repository"
	"emprende/internal/domain/service"
	"emprende/internal/infrastructure/firebase"
	"emprende/pkg/errors"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func (r *memUsers) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := *user
	return &copied, nil
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *memUsers) Update(ctx context.Context, user *entity.User) error {
	return r.Create(ctx, user)
}

func (r *memUsers) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

type memProducts struct {
	mu       sync.Mutex
	products []*entity.Product
}

func (r *memProducts) Create(ctx context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = append(r.products, product)
	return nil
}

func (r *memProducts) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, errors.NotFound("Product", nil)
}

func (r *memProducts) ListAll(ctx context.Context) ([]*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]*entity.Product(nil), r.products...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memProducts) ListBySellerID(ctx context.Context, sellerID string) ([]*entity.Product, error) {
	all, _ := r.ListAll(ctx)
	var out []*entity.Product
	for _, p := range all {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memChats struct {
	mu       sync.Mutex
	chats    map[string]*entity.Chat
	messages map[string][]*entity.Message
}

func newMemChats() *memChats {
	return &memChats{chats: make(map[string]*entity.Chat), messages: make(map[string][]*entity.Message)}
}

func (r *memChats) CreateIfAbsent(ctx context.Context, chat *entity.Chat) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chats[chat.ID]; ok {
		return false, nil
	}
	copied := *chat
	r.chats[chat.ID] = &copied
	return true, nil
}

func (r *memChats) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	copied := *chat
	return &copied, nil
}

func (r *memChats) FindByParticipants(ctx context.Context, userA, userB string) (*entity.Chat, error) {
	return nil, errors.NotFound("Chat", nil)
}

func (r *memChats) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Chat
	for _, chat := range r.chats {
		for _, p := range chat.Participants {
			if p == userID {
				copied := *chat
				out = append(out, &copied)
			}
		}
	}
	return out, nil
}

func (r *memChats) ResetUnread(ctx context.Context, chatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if chat, ok := r.chats[chatID]; ok {
		if chat.UnreadCount == nil {
			chat.UnreadCount = map[string]int{}
		}
		chat.UnreadCount[userID] = 0
	}
	return nil
}

func (r *memChats) AppendMessage(ctx context.Context, message *entity.Message, recipients []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[message.ChatID]
	if !ok {
		return errors.NotFound("Chat", nil)
	}
	r.messages[message.ChatID] = append(r.messages[message.ChatID], message)
	chat.LastMessage = message.Text
	chat.LastMessageTime = message.CreatedAt
	if chat.UnreadCount == nil {
		chat.UnreadCount = map[string]int{}
	}
	for _, recipient := range recipients {
		chat.UnreadCount[recipient]++
	}
	return nil
}

func (r *memChats) GetMessages(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.messages[chatID]
	newest := make([]*entity.Message, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		newest = append(newest, all[i])
	}
	if offset >= len(newest) {
		return []*entity.Message{}, int64(len(all)), nil
	}
	end := offset + limit
	if end > len(newest) {
		end = len(newest)
	}
	return newest[offset:end], int64(len(all)), nil
}

func (r *memChats) WatchMessages(ctx context.Context, chatID string, handler repository.MessageHandler) (io.Closer, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

type memFiles struct {
	mu    sync.Mutex
	files map[string]*entity.FileMetadata
}

func (r *memFiles) Create(ctx context.Context, metadata *entity.FileMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[metadata.ID] = metadata
	return nil
}

func (r *memFiles) GetByID(ctx context.Context, id string) (*entity.FileMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.files[id]; ok {
		return f, nil
	}
	return nil, errors.NotFound("File metadata", nil)
}

func (r *memFiles) GetByURL(ctx context.Context, url string) (*entity.FileMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		if f.URL == url {
			return f, nil
		}
	}
	return nil, errors.NotFound("File metadata", nil)
}

func (r *memFiles) GetByEntityID(ctx context.Context, entityType, entityID string) ([]*entity.FileMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FileMetadata
	for _, f := range r.files {
		if f.EntityType == entityType && f.EntityID == entityID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFiles) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, id)
	return nil
}

type countingUploader struct {
	mu      sync.Mutex
	uploads []string
}

func (u *countingUploader) UploadImage(ctx context.Context, file io.Reader, contentType, folder string) (*service.UploadResult, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	name := fmt.Sprintf("%s/img%d", folder, len(u.uploads))
	u.uploads = append(u.uploads, name)
	return &service.UploadResult{URL: "https://cdn.test/" + name, ObjectName: name, Provider: "test", Size: int64(len(data))}, nil
}

func (u *countingUploader) DeleteImage(ctx context.Context, objectName string) error { return nil }

func (u *countingUploader) Close() error { return nil }

func (u *countingUploader) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.uploads)
}

// stubAuth accepts "id:<uid>" tokens and signs in any registered email with its password.
type stubAuth struct {
	mu       sync.Mutex
	accounts map[string]string
	revoked  []string
}

func (a *stubAuth) uidFor(email string) string {
	return "uid-" + strings.Split(email, "@")[0]
}

func (a *stubAuth) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.accounts[email]; ok {
		return "", firebase.ErrEmailExists
	}
	a.accounts[email] = password
	return a.uidFor(email), nil
}

func (a *stubAuth) DeleteUser(ctx context.Context, uid string) error { return nil }

func (a *stubAuth) VerifyToken(ctx context.Context, token string) (string, error) {
	if !strings.HasPrefix(token, "id:") {
		return "", errors.Unauthorized("bad token", nil)
	}
	return strings.TrimPrefix(token, "id:"), nil
}

func (a *stubAuth) RevokeRefreshTokens(ctx context.Context, uid string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked = append(a.revoked, uid)
	return nil
}

func (a *stubAuth) SignInWithEmailPassword(ctx context.Context, email, password string) (string, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if pw, ok := a.accounts[email]; !ok || pw != password {
		return "", "", firebase.ErrInvalidCredentials
	}
	uid := a.uidFor(email)
	return "id:" + uid, "refresh:" + uid, nil
}

func (a *stubAuth) RefreshIDToken(ctx context.Context, refreshToken string) (string, string, error) {
	if !strings.HasPrefix(refreshToken, "refresh:") {
		return "", "", firebase.ErrInvalidRefreshToken
	}
	uid := strings.TrimPrefix(refreshToken, "refresh:")
	return "id:" + uid, refreshToken, nil
}

type noLimit struct{}

func (noLimit) Allow(key, action string) (bool, time.Duration) { return true, 0 }

type nopPublisher struct{}

func (nopPublisher) Publish(topic string, payload []byte) error { return nil }
