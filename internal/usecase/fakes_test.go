package usecase

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
	"emprende/pkg/errors"
)

type memUserRepo struct {
	mu        sync.Mutex
	users     map[string]*entity.User
	createErr error
}

func newMemUserRepo(users ...*entity.User) *memUserRepo {
	r := &memUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.users[user.ID]; ok {
		return errors.Conflict("User already exists", nil)
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := *u
	return &copied, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *memUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

type memProductRepo struct {
	mu        sync.Mutex
	products  []*entity.Product
	createErr error
}

func (r *memProductRepo) Create(ctx context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.products = append(r.products, product)
	return nil
}

func (r *memProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, errors.NotFound("Product", nil)
}

func (r *memProductRepo) ListAll(ctx context.Context) ([]*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]*entity.Product(nil), r.products...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memProductRepo) ListBySellerID(ctx context.Context, sellerID string) ([]*entity.Product, error) {
	all, _ := r.ListAll(ctx)
	var out []*entity.Product
	for _, p := range all {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memChatRepo struct {
	mu       sync.Mutex
	chats    map[string]*entity.Chat
	messages map[string][]*entity.Message
	creates  int
	watchers map[string][]repository.MessageHandler
}

func newMemChatRepo() *memChatRepo {
	return &memChatRepo{
		chats:    make(map[string]*entity.Chat),
		messages: make(map[string][]*entity.Message),
		watchers: make(map[string][]repository.MessageHandler),
	}
}

func cloneChat(c *entity.Chat) *entity.Chat {
	copied := *c
	copied.Participants = append([]string(nil), c.Participants...)
	copied.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		copied.UnreadCount[k] = v
	}
	return &copied
}

func (r *memChatRepo) CreateIfAbsent(ctx context.Context, chat *entity.Chat) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chats[chat.ID]; ok {
		return false, nil
	}
	now := time.Now()
	chat.CreatedAt, chat.LastMessageTime, chat.UpdatedAt = now, now, now
	r.chats[chat.ID] = cloneChat(chat)
	r.creates++
	return true, nil
}

func (r *memChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	return cloneChat(c), nil
}

func (r *memChatRepo) FindByParticipants(ctx context.Context, userA, userB string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.chats {
		if len(c.Participants) == 2 && c.HasParticipant(userA) && c.HasParticipant(userB) {
			return cloneChat(c), nil
		}
	}
	return nil, errors.NotFound("Chat", nil)
}

func (r *memChatRepo) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Chat
	for _, c := range r.chats {
		if c.HasParticipant(userID) {
			out = append(out, cloneChat(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageTime.After(out[j].LastMessageTime) })
	return out, nil
}

func (r *memChatRepo) ResetUnread(ctx context.Context, chatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return errors.NotFound("Chat", nil)
	}
	c.UnreadCount[userID] = 0
	return nil
}

func (r *memChatRepo) AppendMessage(ctx context.Context, message *entity.Message, recipients []string) error {
	r.mu.Lock()
	c, ok := r.chats[message.ChatID]
	if !ok {
		r.mu.Unlock()
		return errors.NotFound("Chat", nil)
	}
	r.messages[message.ChatID] = append(r.messages[message.ChatID], message)
	c.LastMessage = message.Text
	c.LastMessageTime = message.CreatedAt
	c.UpdatedAt = message.CreatedAt
	for _, recipient := range recipients {
		c.UnreadCount[recipient]++
	}
	watchers := append([]repository.MessageHandler(nil), r.watchers[message.ChatID]...)
	r.mu.Unlock()

	for _, w := range watchers {
		w([]entity.Message{*message})
	}
	return nil
}

func (r *memChatRepo) GetMessages(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := append([]*entity.Message(nil), r.messages[chatID]...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return []*entity.Message{}, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// newestFirst copies messages in the order a descending snapshot reports them.
func newestFirst(messages []*entity.Message) []entity.Message {
	out := make([]entity.Message, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		out = append(out, *messages[i])
	}
	return out
}

func (r *memChatRepo) WatchMessages(ctx context.Context, chatID string, handler repository.MessageHandler) (io.Closer, error) {
	r.mu.Lock()
	existing := newestFirst(r.messages[chatID])
	r.watchers[chatID] = append(r.watchers[chatID], handler)
	index := len(r.watchers[chatID]) - 1
	r.mu.Unlock()

	handler(existing)

	return closerFunc(func() error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.watchers[chatID][index] = func([]entity.Message) {}
		return nil
	}), nil
}

// redeliver replays every stored message to the chat's watchers, like a listener resuming.
func (r *memChatRepo) redeliver(chatID string) {
	r.mu.Lock()
	existing := newestFirst(r.messages[chatID])
	watchers := append([]repository.MessageHandler(nil), r.watchers[chatID]...)
	r.mu.Unlock()

	for _, w := range watchers {
		w(existing)
	}
}

// deliver pushes messages to the chat's watchers as one batch, in the given order.
func (r *memChatRepo) deliver(chatID string, batch ...entity.Message) {
	r.mu.Lock()
	watchers := append([]repository.MessageHandler(nil), r.watchers[chatID]...)
	r.mu.Unlock()

	for _, w := range watchers {
		w(batch)
	}
}

type memFileRepo struct {
	mu    sync.Mutex
	files map[string]*entity.FileMetadata
}

func newMemFileRepo() *memFileRepo {
	return &memFileRepo{files: make(map[string]*entity.FileMetadata)}
}

func (r *memFileRepo) Create(ctx context.Context, m *entity.FileMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[m.ID] = m
	return nil
}

func (r *memFileRepo) GetByID(ctx context.Context, id string) (*entity.FileMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.files[id]
	if !ok {
		return nil, errors.NotFound("File metadata", nil)
	}
	return m, nil
}

func (r *memFileRepo) GetByURL(ctx context.Context, url string) (*entity.FileMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.files {
		if m.URL == url {
			return m, nil
		}
	}
	return nil, errors.NotFound("File metadata", nil)
}

func (r *memFileRepo) GetByEntityID(ctx context.Context, entityType, entityID string) ([]*entity.FileMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FileMetadata
	for _, m := range r.files {
		if m.EntityType == entityType && m.EntityID == entityID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memFileRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, id)
	return nil
}

type fakeUploader struct {
	mu      sync.Mutex
	uploads []string
	deleted []string
}

func (u *fakeUploader) UploadImage(ctx context.Context, file io.Reader, contentType, folder string) (*service.UploadResult, error) {
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

func (u *fakeUploader) DeleteImage(ctx context.Context, objectName string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, objectName)
	return nil
}

func (u *fakeUploader) Close() error { return nil }

func (u *fakeUploader) uploadCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.uploads)
}

type allowAll struct{}

func (allowAll) Allow(key, action string) (bool, time.Duration) { return true, 0 }

type denyAll struct{}

func (denyAll) Allow(key, action string) (bool, time.Duration) { return false, 4 * time.Second }

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

type fakeAuthProvider struct {
	mu        sync.Mutex
	accounts  map[string]string
	created   []string
	deleted   []string
	revoked   []string
	createErr error
	signInErr error
}

func newFakeAuthProvider() *fakeAuthProvider {
	return &fakeAuthProvider{accounts: make(map[string]string)}
}

func (f *fakeAuthProvider) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	uid := "uid-" + strings.Split(email, "@")[0]
	f.accounts[email] = password
	f.created = append(f.created, uid)
	return uid, nil
}

func (f *fakeAuthProvider) DeleteUser(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, uid)
	return nil
}

func (f *fakeAuthProvider) VerifyToken(ctx context.Context, token string) (string, error) {
	if !strings.HasPrefix(token, "id:") {
		return "", errors.Unauthorized("bad token", nil)
	}
	return strings.TrimPrefix(token, "id:"), nil
}

func (f *fakeAuthProvider) RevokeRefreshTokens(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, uid)
	return nil
}

func (f *fakeAuthProvider) SignInWithEmailPassword(ctx context.Context, email, password string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return "", "", f.signInErr
	}
	if pw, ok := f.accounts[email]; !ok || pw != password {
		return "", "", errInvalidCredentials
	}
	uid := "uid-" + strings.Split(email, "@")[0]
	return "id:" + uid, "refresh:" + uid, nil
}

func (f *fakeAuthProvider) RefreshIDToken(ctx context.Context, refreshToken string) (string, string, error) {
	if !strings.HasPrefix(refreshToken, "refresh:") {
		return "", "", errInvalidRefreshToken
	}
	uid := strings.TrimPrefix(refreshToken, "refresh:")
	return "id:" + uid, refreshToken, nil
}
