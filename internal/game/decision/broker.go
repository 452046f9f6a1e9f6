package decision

import (
	"sort"

	"go.uber.org/zap"
)

// Handler receives the accepted key of a resolved decision.
type Handler func(key string)

// Sender delivers a message to one player.
type Sender interface {
	Send(playerID int, msg any)
}

// Result is the outcome of a response.
type Result int

const (
	// ResultAccepted means the key was valid and the handler ran.
	ResultAccepted Result = iota
	// ResultRetry means the key was not an option; the decision was resent.
	ResultRetry
	// ResultStale means nothing was outstanding for the player.
	ResultStale
)

var resultNames = map[Result]string{
	ResultAccepted: "ACCEPTED",
	ResultRetry:    "RETRY",
	ResultStale:    "STALE",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// View is the client-facing rendering of a decision.
type View struct {
	Info    []string `json:"info"`
	Message string   `json:"message"`
	Options []Option `json:"options"`
}

// Payload is what a player receives when asked a question.
type Payload struct {
	Decision View     `json:"decision"`
	Log      []string `json:"log"`
}

// RetryNotice tells a client its last answer was rejected.
type RetryNotice struct {
	Retry int `json:"retry"`
}

type pending struct {
	decision Decision
	handler  Handler
	payload  *Payload // rendered once, resent verbatim
}

// Broker routes decisions to players and responses back to the waiting
// handler. Each player has a FIFO of outstanding decisions; only the head is
// visible to the client. The broker is not safe for concurrent use; the
// owning game serializes all calls.
type Broker struct {
	logger  *zap.Logger
	sender  Sender
	history func() []string
	queues  map[int][]*pending
}

// NewBroker creates a broker. history supplies the game log attached to
// every payload and may be nil.
func NewBroker(sender Sender, history func() []string, logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		logger:  logger,
		sender:  sender,
		history: history,
		queues:  make(map[int][]*pending),
	}
}

// Ask queues a decision for its player and delivers it if it is the head.
func (b *Broker) Ask(d Decision, handler Handler) {
	entry := &pending{decision: d, handler: handler}
	queue := append(b.queues[d.PlayerID], entry)
	b.queues[d.PlayerID] = queue

	if len(queue) > 1 {
		b.logger.Warn("decision queued behind an outstanding one",
			zap.Int("player_id", d.PlayerID),
			zap.Int("pending", len(queue)),
		)
		return
	}
	b.deliver(entry)
}

// Resolve applies a player's response to the head of their queue.
func (b *Broker) Resolve(playerID int, key string) Result {
	queue := b.queues[playerID]
	if len(queue) == 0 {
		b.logger.Info("discarding stale response",
			zap.Int("player_id", playerID),
			zap.String("key", key),
		)
		return ResultStale
	}

	head := queue[0]
	if !head.decision.Accepts(key) {
		b.logger.Debug("rejected response",
			zap.Int("player_id", playerID),
			zap.String("key", key),
		)
		b.send(playerID, RetryNotice{Retry: 1})
		b.send(playerID, head.payload)
		return ResultRetry
	}

	queue[0] = nil
	queue = queue[1:]
	if len(queue) == 0 {
		delete(b.queues, playerID)
	} else {
		b.queues[playerID] = queue
		b.deliver(queue[0])
	}

	if head.handler != nil {
		head.handler(key)
	}
	return ResultAccepted
}

// Redeliver resends the head decision unchanged. It reports whether there
// was anything to resend.
func (b *Broker) Redeliver(playerID int) bool {
	queue := b.queues[playerID]
	if len(queue) == 0 {
		return false
	}
	b.send(playerID, queue[0].payload)
	return true
}

// Pending returns the number of decisions queued for a player.
func (b *Broker) Pending(playerID int) int {
	return len(b.queues[playerID])
}

// Head returns the decision the player is currently being asked.
func (b *Broker) Head(playerID int) (Decision, bool) {
	queue := b.queues[playerID]
	if len(queue) == 0 {
		return Decision{}, false
	}
	return queue[0].decision, true
}

// Waiting returns the IDs of players with an outstanding decision, ascending.
func (b *Broker) Waiting() []int {
	ids := make([]int, 0, len(b.queues))
	for id := range b.queues {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Clear drops every outstanding decision without running handlers.
func (b *Broker) Clear() {
	b.queues = make(map[int][]*pending)
}

func (b *Broker) deliver(entry *pending) {
	if entry.payload == nil {
		var log []string
		if b.history != nil {
			log = append(log, b.history()...)
		}
		if log == nil {
			log = []string{}
		}
		info := entry.decision.Info
		if info == nil {
			info = []string{}
		}
		entry.payload = &Payload{
			Decision: View{
				Info:    info,
				Message: entry.decision.Message,
				Options: entry.decision.Options,
			},
			Log: log,
		}
	}
	b.send(entry.decision.PlayerID, entry.payload)
}

func (b *Broker) send(playerID int, msg any) {
	if b.sender == nil {
		return
	}
	b.sender.Send(playerID, msg)
}
