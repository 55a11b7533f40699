package entity

import (
	"sort"
	"time"
)

type Chat struct {
	ID              string         `json:"id" firestore:"id"`
	Participants    []string       `json:"participants" firestore:"participants"`
	ProductID       string         `json:"product_id,omitempty" firestore:"productId,omitempty"`
	LastMessage     string         `json:"last_message" firestore:"lastMessage"`
	LastMessageTime time.Time      `json:"last_message_time" firestore:"lastMessageTime"`
	UnreadCount     map[string]int `json:"unread_count" firestore:"unreadCount"`
	CreatedAt       time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time      `json:"updated_at" firestore:"updatedAt"`
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID, or "" if there is none.
func (c *Chat) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

func (c *Chat) UnreadFor(userID string) int {
	if c.UnreadCount == nil {
		return 0
	}
	return c.UnreadCount[userID]
}

// ChatIDFor derives the id of the direct chat between two users. The id depends only on the
// unordered pair, so every client resolving the same pair addresses the same document.
func ChatIDFor(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return pair[0] + "_" + pair[1]
}

// SortedPair returns both ids in ascending order.
func SortedPair(userA, userB string) []string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return pair
}
