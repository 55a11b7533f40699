package eventbus

import (
	"io"
)

// Handler receives the raw payload published on a topic.
type Handler func(payload []byte)

// Bus fans notifications out to whoever is subscribed to a topic, possibly on another instance.
// Delivery is best effort and unordered across topics.
type Bus interface {
	Publish(topic string, payload []byte) error
	// Subscribe returns a subscription that stops delivery when closed.
	Subscribe(topic string, handler Handler) (io.Closer, error)
	Close() error
}

const userTopicPrefix = "emprende.users."

// UserTopic is the topic carrying notifications addressed to one user.
func UserTopic(userID string) string {
	return userTopicPrefix + userID
}
