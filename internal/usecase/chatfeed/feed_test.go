package chatfeed

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emprende/internal/domain/entity"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func msg(id, sender string, offset time.Duration) entity.Message {
	return entity.Message{ID: id, ChatID: "ana_bruno", SenderID: sender, Text: id, CreatedAt: base.Add(offset)}
}

func ids(s State) []string {
	out := make([]string, 0, len(s.Messages))
	for _, item := range s.Messages {
		if item.Pending {
			out = append(out, "~"+item.TempID)
			continue
		}
		out = append(out, item.ID)
	}
	return out
}

func assertOrdered(t *testing.T, s State) {
	t.Helper()
	for i := 1; i < len(s.Messages); i++ {
		assert.False(t, s.Messages[i].CreatedAt.Before(s.Messages[i-1].CreatedAt),
			"message %d is older than message %d", i, i-1)
	}
}

func TestOrderIsIndependentOfArrival(t *testing.T) {
	messages := []entity.Message{
		msg("m1", "ana", 0),
		msg("m2", "bruno", time.Second),
		msg("m3", "ana", 2*time.Second),
		msg("m4", "bruno", 2*time.Second),
		msg("m5", "ana", 5*time.Second),
	}

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		shuffled := append([]entity.Message(nil), messages...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		s := NewState("ana_bruno", "ana")
		for _, m := range shuffled {
			s = Reduce(s, Action{Kind: Received, Message: m})
		}

		assertOrdered(t, s)
		assert.Equal(t, []string{"m1", "m2", "m3", "m4", "m5"}, ids(s))
	}
}

func TestDescendingSnapshotIsReordered(t *testing.T) {
	s := Reduce(NewState("ana_bruno", "ana"), Action{Kind: Loaded, Messages: []entity.Message{
		msg("m3", "ana", 2*time.Second),
		msg("m2", "bruno", time.Second),
		msg("m1", "ana", 0),
	}})

	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(s))
}

func TestDuplicatesCollapse(t *testing.T) {
	s := NewState("ana_bruno", "ana")
	s = Reduce(s, Action{Kind: Received, Message: msg("m1", "bruno", 0)})
	s = Reduce(s, Action{Kind: Received, Message: msg("m1", "bruno", 0)})
	s = Reduce(s, Action{Kind: Loaded, Messages: []entity.Message{msg("m1", "bruno", 0)}})

	assert.Equal(t, []string{"m1"}, ids(s))
	assert.Equal(t, 1, s.Unread)
}

func TestOptimisticMessageIsReplacedByEcho(t *testing.T) {
	s := NewState("ana_bruno", "ana")
	s = Reduce(s, Action{Kind: Received, Message: msg("m1", "bruno", 0)})

	local := entity.Message{TempID: "t1", Text: "hola", CreatedAt: base.Add(3 * time.Second)}
	s = Reduce(s, Action{Kind: OptimisticSent, Message: local})
	require.Equal(t, []string{"m1", "~t1"}, ids(s))
	assert.True(t, s.Messages[1].Pending)

	// server clock is behind the device: echo sorts before the optimistic position
	echo := msg("m2", "ana", time.Second)
	echo.TempID = "t1"
	s = Reduce(s, Action{Kind: Received, Message: echo})

	assert.Equal(t, []string{"m1", "m2"}, ids(s))
	assert.False(t, s.Messages[1].Pending)
	assertOrdered(t, s)
	assert.Equal(t, 1, s.Unread, "own messages do not count as unread")
}

func TestSendFailedDropsPending(t *testing.T) {
	s := NewState("ana_bruno", "ana")
	s = Reduce(s, Action{Kind: OptimisticSent, Message: entity.Message{TempID: "t1", CreatedAt: base}})
	s = Reduce(s, Action{Kind: OptimisticSent, Message: entity.Message{TempID: "t1", CreatedAt: base}})
	assert.Len(t, s.Messages, 1)

	s = Reduce(s, Action{Kind: SendFailed, TempID: "t1"})
	assert.Empty(t, s.Messages)
}

func TestReadResetsUnread(t *testing.T) {
	s := NewState("ana_bruno", "ana")
	s = Reduce(s, Action{Kind: Received, Message: msg("m1", "bruno", 0)})
	s = Reduce(s, Action{Kind: Received, Message: msg("m2", "bruno", time.Second)})
	assert.Equal(t, 2, s.Unread)

	s = Reduce(s, Action{Kind: Read})
	assert.Equal(t, 0, s.Unread)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := Reduce(NewState("ana_bruno", "ana"), Action{Kind: Received, Message: msg("m2", "bruno", time.Second)})
	_ = Reduce(s, Action{Kind: Received, Message: msg("m1", "bruno", 0)})

	assert.Equal(t, []string{"m2"}, ids(s))
}

func updateIDs(u Update) []string {
	return ids(State{Messages: u.Messages})
}

func TestFeedFirstBatchLoadsInOrder(t *testing.T) {
	feed := NewFeed("ana_bruno", "ana", Window)

	u, ok := feed.Apply([]entity.Message{
		msg("m3", "bruno", 2*time.Second),
		msg("m2", "ana", time.Second),
		msg("m1", "bruno", 0),
	})

	require.True(t, ok)
	assert.True(t, u.Reset)
	assert.Equal(t, []string{"m1", "m2", "m3"}, updateIDs(u))
	assert.Equal(t, 0, u.Unread, "history does not count as unread")

	_, ok = feed.Apply(nil)
	assert.False(t, ok)
}

func TestFeedEmptyFirstBatchStillLoads(t *testing.T) {
	feed := NewFeed("ana_bruno", "ana", Window)

	u, ok := feed.Apply(nil)
	require.True(t, ok)
	assert.True(t, u.Reset)
	assert.Empty(t, u.Messages)
}

func TestFeedAppendsNewMessagesInOrder(t *testing.T) {
	feed := NewFeed("ana_bruno", "ana", Window)
	feed.Apply([]entity.Message{msg("m1", "bruno", 0)})

	u, ok := feed.Apply([]entity.Message{
		msg("m3", "bruno", 2*time.Second),
		msg("m1", "bruno", 0),
		msg("m2", "bruno", time.Second),
	})

	require.True(t, ok)
	assert.False(t, u.Reset)
	assert.Equal(t, []string{"m2", "m3"}, updateIDs(u))
	assert.Equal(t, 2, u.Unread)

	_, ok = feed.Apply([]entity.Message{msg("m2", "bruno", time.Second)})
	assert.False(t, ok, "redelivered messages are ignored")
}

func TestFeedResetsWhenLateMessageSortsEarlier(t *testing.T) {
	feed := NewFeed("ana_bruno", "ana", Window)
	feed.Apply([]entity.Message{msg("m1", "bruno", 0), msg("m3", "bruno", 2*time.Second)})

	u, ok := feed.Apply([]entity.Message{msg("m2", "bruno", time.Second)})

	require.True(t, ok)
	assert.True(t, u.Reset)
	assert.Equal(t, []string{"m1", "m2", "m3"}, updateIDs(u))
}

func TestFeedKeepsWindow(t *testing.T) {
	feed := NewFeed("ana_bruno", "ana", 3)
	feed.Apply([]entity.Message{msg("m1", "bruno", 0), msg("m2", "bruno", time.Second), msg("m3", "bruno", 2*time.Second)})

	u, ok := feed.Apply([]entity.Message{msg("m4", "bruno", 3*time.Second)})
	require.True(t, ok)
	assert.Equal(t, []string{"m4"}, updateIDs(u))

	s := feed.Dispatch(Action{Kind: OptimisticSent, Message: entity.Message{TempID: "t1", CreatedAt: base.Add(4 * time.Second)}})
	assert.Equal(t, []string{"m2", "m3", "m4", "~t1"}, ids(s))

	// older than the whole window
	_, ok = feed.Apply([]entity.Message{msg("m0", "bruno", -time.Second)})
	assert.False(t, ok)
}

func TestFeedOptimisticLifecycle(t *testing.T) {
	feed := NewFeed("ana_bruno", "ana", Window)
	feed.Apply([]entity.Message{msg("m1", "bruno", 0)})

	feed.Dispatch(Action{Kind: OptimisticSent, Message: entity.Message{TempID: "t1", Text: "hola", CreatedAt: base.Add(time.Second)}})
	feed.Dispatch(Action{Kind: OptimisticSent, Message: entity.Message{TempID: "t2", Text: "chau", CreatedAt: base.Add(2 * time.Second)}})

	echo := msg("m2", "ana", time.Second)
	echo.TempID = "t1"
	u, ok := feed.Apply([]entity.Message{echo})
	require.True(t, ok)
	assert.False(t, u.Reset)
	assert.Equal(t, []string{"m2"}, updateIDs(u))

	s := feed.Dispatch(Action{Kind: SendFailed, TempID: "t2"})
	assert.Equal(t, []string{"m1", "m2"}, ids(s))
	assert.Equal(t, 0, s.Unread, "own messages do not count as unread")

	u, _ = feed.Apply([]entity.Message{msg("m3", "bruno", 3*time.Second)})
	assert.Equal(t, 1, u.Unread)

	s = feed.Dispatch(Action{Kind: Read})
	assert.Equal(t, 0, s.Unread)
}
