package entity

import (
	"sort"
	"time"
)

type Message struct {
	ID        string    `json:"id" firestore:"id"`
	ChatID    string    `json:"chat_id" firestore:"chatId"`
	Text      string    `json:"text" firestore:"text"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	TempID    string    `json:"temp_id,omitempty" firestore:"tempId,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// Before orders messages by creation time, ties broken by id.
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}

// SortMessages sorts messages oldest first.
func SortMessages(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool { return messages[i].Before(messages[j]) })
}
