package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type sent struct {
	playerID int
	msg      any
}

type recordingSender struct {
	messages []sent
}

func (s *recordingSender) Send(playerID int, msg any) {
	s.messages = append(s.messages, sent{playerID: playerID, msg: msg})
}

func (s *recordingSender) last() any {
	if len(s.messages) == 0 {
		return nil
	}
	return s.messages[len(s.messages)-1].msg
}

func newTestBroker(t *testing.T, log []string) (*Broker, *recordingSender) {
	sender := &recordingSender{}
	broker := NewBroker(sender, func() []string { return log }, zaptest.NewLogger(t))
	return broker, sender
}

func TestBrokerAskDeliversPayload(t *testing.T) {
	broker, sender := newTestBroker(t, []string{"Alice played Village"})

	broker.Ask(Decision{
		PlayerID: 3,
		Message:  "Choose a card",
		Options:  CardOptions([]string{"Copper", "Estate"}),
		Info:     []string{"Actions: 1"},
	}, nil)

	require.Len(t, sender.messages, 1)
	payload, ok := sender.last().(*Payload)
	require.True(t, ok)
	assert.Equal(t, 3, sender.messages[0].playerID)
	assert.Equal(t, "Choose a card", payload.Decision.Message)
	assert.Equal(t, []Option{{Key: "card[0]", Text: "Copper"}, {Key: "card[1]", Text: "Estate"}}, payload.Decision.Options)
	assert.Equal(t, []string{"Actions: 1"}, payload.Decision.Info)
	assert.Equal(t, []string{"Alice played Village"}, payload.Log)
	assert.Equal(t, 1, broker.Pending(3))
}

func TestBrokerResolveAccepted(t *testing.T) {
	broker, _ := newTestBroker(t, nil)

	var got []string
	broker.Ask(Decision{PlayerID: 0, Options: YesNoOptions()}, func(key string) {
		got = append(got, key)
	})

	result := broker.Resolve(0, KeyYes)
	assert.Equal(t, ResultAccepted, result)
	assert.Equal(t, []string{"yes"}, got)
	assert.Equal(t, 0, broker.Pending(0))

	// The handler ran exactly once; a repeat answer is stale.
	assert.Equal(t, ResultStale, broker.Resolve(0, KeyYes))
	assert.Equal(t, []string{"yes"}, got)
}

func TestBrokerResolveRetryResendsIdenticalPayload(t *testing.T) {
	broker, sender := newTestBroker(t, []string{"line"})

	called := false
	broker.Ask(Decision{PlayerID: 1, Options: YesNoOptions(), Message: "Discard?"}, func(string) {
		called = true
	})
	first := sender.last()

	result := broker.Resolve(1, "maybe")
	assert.Equal(t, ResultRetry, result)
	assert.False(t, called)
	assert.Equal(t, 1, broker.Pending(1))

	require.Len(t, sender.messages, 3)
	assert.Equal(t, RetryNotice{Retry: 1}, sender.messages[1].msg)
	assert.Same(t, first, sender.messages[2].msg)
}

func TestBrokerIndexRange(t *testing.T) {
	broker, _ := newTestBroker(t, nil)

	var picked string
	broker.Ask(Decision{
		PlayerID:   2,
		Options:    []Option{{Key: KeyDone, Text: "Done"}},
		IndexRange: 3,
	}, func(key string) { picked = key })

	assert.Equal(t, ResultRetry, broker.Resolve(2, "card[3]"))
	assert.Equal(t, ResultRetry, broker.Resolve(2, "card[-1]"))
	assert.Equal(t, ResultAccepted, broker.Resolve(2, "card[2]"))
	assert.Equal(t, "card[2]", picked)
}

func TestBrokerRedeliverIsIdempotent(t *testing.T) {
	broker, sender := newTestBroker(t, nil)

	broker.Ask(Decision{PlayerID: 0, Options: YesNoOptions()}, nil)
	original := sender.last()

	assert.True(t, broker.Redeliver(0))
	assert.True(t, broker.Redeliver(0))
	assert.Equal(t, 1, broker.Pending(0))
	assert.Same(t, original, sender.last())

	assert.False(t, broker.Redeliver(9))
}

func TestBrokerQueuesBehindHead(t *testing.T) {
	broker, sender := newTestBroker(t, nil)

	var order []string
	broker.Ask(Decision{PlayerID: 0, Options: []Option{{Key: "a"}}}, func(k string) { order = append(order, k) })
	broker.Ask(Decision{PlayerID: 0, Options: []Option{{Key: "b"}}}, func(k string) { order = append(order, k) })

	require.Len(t, sender.messages, 1)
	assert.Equal(t, ResultRetry, broker.Resolve(0, "b"))

	assert.Equal(t, ResultAccepted, broker.Resolve(0, "a"))
	head, ok := broker.Head(0)
	require.True(t, ok)
	assert.Equal(t, "b", head.Options[0].Key)

	assert.Equal(t, ResultAccepted, broker.Resolve(0, "b"))
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestBrokerClear(t *testing.T) {
	broker, _ := newTestBroker(t, nil)

	broker.Ask(Decision{PlayerID: 4, Options: YesNoOptions()}, func(string) { t.Fatal("handler must not run") })
	broker.Ask(Decision{PlayerID: 1, Options: YesNoOptions()}, nil)
	assert.Equal(t, []int{1, 4}, broker.Waiting())

	broker.Clear()
	assert.Empty(t, broker.Waiting())
	assert.Equal(t, ResultStale, broker.Resolve(4, KeyYes))
}

func TestParseCardKey(t *testing.T) {
	tests := []struct {
		key  string
		want int
		ok   bool
	}{
		{"card[0]", 0, true},
		{"card[12]", 12, true},
		{"card[]", 0, false},
		{"card[x]", 0, false},
		{"card[-2]", 0, false},
		{"done", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseCardKey(tt.key)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("ParseCardKey(%q) = %d,%v; want %d,%v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
	assert.Equal(t, "card[7]", CardKey(7))
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "RETRY", ResultRetry.String())
	assert.Equal(t, "UNKNOWN", Result(99).String())
}
