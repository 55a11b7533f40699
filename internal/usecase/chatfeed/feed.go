// Package chatfeed holds the state of one open chat as seen by one user: the ordered message
// list, optimistic messages awaiting their server echo, and the unread counter.
package chatfeed

import (
	"io"
	"sort"
	"sync"

	"emprende/internal/domain/entity"
)

type ActionKind int

const (
	// Loaded merges a page of stored messages.
	Loaded ActionKind = iota
	// Received merges one message pushed by a live subscription.
	Received
	// OptimisticSent shows a message the user just sent, before the server stored it.
	OptimisticSent
	// SendFailed drops the optimistic message with the given temp id.
	SendFailed
	// Read resets the unread counter.
	Read
)

type Action struct {
	Kind     ActionKind
	Messages []entity.Message
	Message  entity.Message
	TempID   string
}

// Item is a message in the feed. Pending items were sent optimistically and have no id yet.
type Item struct {
	entity.Message
	Pending bool `json:"pending"`
}

type State struct {
	ChatID   string
	UserID   string
	Messages []Item
	Unread   int
}

func NewState(chatID, userID string) State {
	return State{ChatID: chatID, UserID: userID}
}

// Reduce returns the state after applying a. s is not modified.
//
// Messages stay sorted by createdAt, ties broken by id, whatever order they arrive in. A
// message id appears at most once. A stored message carrying a temp id replaces the pending
// item with that temp id.
func Reduce(s State, a Action) State {
	next := s.clone()

	switch a.Kind {
	case Loaded:
		for _, msg := range a.Messages {
			next.merge(msg)
		}
	case Received:
		if next.merge(a.Message) && a.Message.SenderID != next.UserID {
			next.Unread++
		}
	case OptimisticSent:
		if a.Message.TempID == "" || next.indexOfTemp(a.Message.TempID, true) >= 0 {
			break
		}
		msg := a.Message
		msg.ID = ""
		msg.SenderID = next.UserID
		next.Messages = append(next.Messages, Item{Message: msg, Pending: true})
	case SendFailed:
		if i := next.indexOfTemp(a.TempID, true); i >= 0 {
			next.Messages = append(next.Messages[:i], next.Messages[i+1:]...)
		}
	case Read:
		next.Unread = 0
	}

	sortItems(next.Messages)
	return next
}

func (s State) clone() State {
	return State{
		ChatID:   s.ChatID,
		UserID:   s.UserID,
		Messages: append([]Item(nil), s.Messages...),
		Unread:   s.Unread,
	}
}

// merge inserts a stored message and reports whether it was new.
func (s *State) merge(msg entity.Message) bool {
	if msg.ID == "" {
		return false
	}
	for _, item := range s.Messages {
		if !item.Pending && item.ID == msg.ID {
			return false
		}
	}

	if msg.TempID != "" {
		if i := s.indexOfTemp(msg.TempID, true); i >= 0 {
			s.Messages[i] = Item{Message: msg}
			return true
		}
	}

	s.Messages = append(s.Messages, Item{Message: msg})
	return true
}

func (s *State) indexOfTemp(tempID string, pending bool) int {
	for i, item := range s.Messages {
		if item.Pending == pending && item.TempID == tempID {
			return i
		}
	}
	return -1
}

func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Before(b.Message) {
			return true
		}
		if b.Before(a.Message) {
			return false
		}
		return a.TempID < b.TempID
	})
}

// Window is how many stored messages a Feed keeps. It matches the live query's limit.
const Window = 50

// Update tells a subscriber how its view changes after a batch. With Reset set, Messages is the
// whole feed and replaces the view. Otherwise Messages are new and go after everything shown so far.
type Update struct {
	Reset    bool   `json:"reset"`
	Messages []Item `json:"messages"`
	Unread   int    `json:"unread"`
}

// Feed is a State shared between the goroutine delivering messages and the connection using it.
// It keeps at most limit stored messages plus any pending ones.
type Feed struct {
	mu     sync.Mutex
	state  State
	limit  int
	loaded bool
}

func NewFeed(chatID, userID string, limit int) *Feed {
	return &Feed{state: NewState(chatID, userID), limit: limit}
}

// Dispatch applies a and returns the resulting state.
func (f *Feed) Dispatch(a Action) State {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = f.trim(Reduce(f.state, a))
	return f.state.clone()
}

// Apply merges one batch from the live subscription. The first batch loads the feed and always
// yields a reset. A later batch yields its unseen messages in order, or a reset when one of them
// sorts before a message already delivered. ok is false when nothing changed.
func (f *Feed) Apply(batch []entity.Message) (update Update, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loaded {
		f.loaded = true
		f.state = f.trim(Reduce(f.state, Action{Kind: Loaded, Messages: batch}))
		return f.snapshot(), true
	}

	fresh := f.unseen(batch)
	if len(fresh) == 0 {
		return Update{}, false
	}

	tail, hasTail := f.tail()
	for _, msg := range fresh {
		f.state = Reduce(f.state, Action{Kind: Received, Message: msg})
	}
	f.state = f.trim(f.state)

	if hasTail && fresh[0].Before(tail) {
		return f.snapshot(), true
	}

	items := make([]Item, 0, len(fresh))
	for _, msg := range fresh {
		items = append(items, Item{Message: msg})
	}
	return Update{Messages: items, Unread: f.state.Unread}, true
}

func (f *Feed) snapshot() Update {
	return Update{Reset: true, Messages: f.state.clone().Messages, Unread: f.state.Unread}
}

// unseen returns the batch's messages not yet in the feed, oldest first. Messages older than a
// full window are dropped.
func (f *Feed) unseen(batch []entity.Message) []entity.Message {
	known := make(map[string]struct{}, len(f.state.Messages))
	stored := 0
	var oldest *entity.Message
	for i := range f.state.Messages {
		item := &f.state.Messages[i]
		if item.Pending {
			continue
		}
		known[item.ID] = struct{}{}
		if oldest == nil {
			oldest = &item.Message
		}
		stored++
	}
	full := f.limit > 0 && stored >= f.limit

	fresh := make([]entity.Message, 0, len(batch))
	for _, msg := range batch {
		if msg.ID == "" {
			continue
		}
		if _, ok := known[msg.ID]; ok {
			continue
		}
		if full && msg.Before(*oldest) {
			continue
		}
		known[msg.ID] = struct{}{}
		fresh = append(fresh, msg)
	}
	entity.SortMessages(fresh)
	return fresh
}

func (f *Feed) tail() (entity.Message, bool) {
	for i := len(f.state.Messages) - 1; i >= 0; i-- {
		if !f.state.Messages[i].Pending {
			return f.state.Messages[i].Message, true
		}
	}
	return entity.Message{}, false
}

// trim drops the oldest stored messages beyond the limit. Pending messages are kept.
func (f *Feed) trim(s State) State {
	if f.limit <= 0 {
		return s
	}
	stored := 0
	for _, item := range s.Messages {
		if !item.Pending {
			stored++
		}
	}
	drop := stored - f.limit
	if drop <= 0 {
		return s
	}

	kept := make([]Item, 0, len(s.Messages)-drop)
	for _, item := range s.Messages {
		if drop > 0 && !item.Pending {
			drop--
			continue
		}
		kept = append(kept, item)
	}
	s.Messages = kept
	return s
}

// Watch is a Feed kept current by a live subscription. Close stops the subscription.
type Watch struct {
	*Feed
	io.Closer
}
