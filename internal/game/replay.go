package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thraizz/kingdom-server-go/internal/game/rules"
)

const replayVersion = 1

// Replay is a recorded game: a snapshot per turn plus the final log and
// standings.
type Replay struct {
	GameID    string
	States    []*Snapshot
	Log       []string
	Standings []Standing
	cursor    int
	mu        sync.RWMutex
}

func NewReplay(gameID string) *Replay {
	return &Replay{GameID: gameID}
}

// Record appends a snapshot.
func (r *Replay) Record(s *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.States = append(r.States, s)
}

// Finish stores the game log and result.
func (r *Replay) Finish(log []string, standings []Standing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Log = append([]string(nil), log...)
	r.Standings = append([]Standing(nil), standings...)
}

// Next returns the snapshot under the cursor and advances it, or nil at the
// end.
func (r *Replay) Next() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor >= len(r.States) {
		return nil
	}
	s := r.States[r.cursor]
	r.cursor++
	return s
}

func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.States)
}

// At returns the snapshot at index, or nil when out of range.
func (r *Replay) At(index int) *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.States) {
		return nil
	}
	return r.States[index]
}

type replayHeader struct {
	GameID     string
	SavedAt    time.Time
	Version    int
	StateCount int
}

type replayFooter struct {
	Log       []string
	Standings []Standing
}

// ReplayPath returns the file a replay for gameID is saved to.
func ReplayPath(dir, gameID string) string {
	return filepath.Join(dir, gameID+".replay")
}

// Save writes the replay as a gzipped gob stream into dir.
func (r *Replay) Save(dir string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create replay directory: %w", err)
	}
	path := ReplayPath(dir, r.GameID)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create replay file: %w", err)
	}
	defer file.Close()

	zw := gzip.NewWriter(file)
	enc := gob.NewEncoder(zw)
	header := replayHeader{
		GameID:     r.GameID,
		SavedAt:    time.Now().UTC(),
		Version:    replayVersion,
		StateCount: len(r.States),
	}
	if err := enc.Encode(&header); err != nil {
		return "", fmt.Errorf("failed to encode replay header: %w", err)
	}
	for i, s := range r.States {
		if err := enc.Encode(s); err != nil {
			return "", fmt.Errorf("failed to encode state %d: %w", i, err)
		}
	}
	if err := enc.Encode(&replayFooter{Log: r.Log, Standings: r.Standings}); err != nil {
		return "", fmt.Errorf("failed to encode replay footer: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to flush replay: %w", err)
	}
	return path, nil
}

// LoadReplay reads a replay file written by Save.
func LoadReplay(path string) (*Replay, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay: %w", err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer zr.Close()

	dec := gob.NewDecoder(zr)
	var header replayHeader
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("failed to decode replay header: %w", err)
	}
	if header.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", header.Version)
	}

	r := NewReplay(header.GameID)
	for i := 0; i < header.StateCount; i++ {
		var s Snapshot
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode state %d: %w", i, err)
		}
		r.States = append(r.States, &s)
	}
	var footer replayFooter
	if err := dec.Decode(&footer); err != nil {
		return nil, fmt.Errorf("failed to decode replay footer: %w", err)
	}
	r.Log = footer.Log
	r.Standings = footer.Standings
	return r, nil
}

// ReplayRecorder keeps in-progress replays by game ID and writes them out
// when a game ends.
type ReplayRecorder struct {
	logger  *zap.Logger
	dir     string
	mu      sync.Mutex
	replays map[string]*Replay
}

func NewReplayRecorder(dir string, logger *zap.Logger) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:  logger,
		dir:     dir,
		replays: make(map[string]*Replay),
	}
}

// Attach starts recording g: a snapshot at every turn start and one when
// the game ends, after which the replay is saved.
func (rr *ReplayRecorder) Attach(g *Game) {
	replay := NewReplay(g.ID)
	rr.mu.Lock()
	rr.replays[g.ID] = replay
	rr.mu.Unlock()

	g.Events().Subscribe(func(e rules.Event) {
		switch e.Type {
		case rules.EventTurnStarted:
			replay.Record(g.Snapshot())
		case rules.EventGameEnded:
			replay.Record(g.Snapshot())
			replay.Finish(g.Log(), g.Standings())
			if _, err := rr.Save(g.ID); err != nil {
				rr.logger.Error("failed to save replay",
					zap.String("game_id", g.ID),
					zap.Error(err),
				)
			}
		}
	})
	rr.logger.Debug("recording replay", zap.String("game_id", g.ID))
}

// Replay returns the in-memory replay for a game still being recorded.
func (rr *ReplayRecorder) Replay(gameID string) (*Replay, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	r, ok := rr.replays[gameID]
	return r, ok
}

// Save writes the replay to disk and forgets it.
func (rr *ReplayRecorder) Save(gameID string) (string, error) {
	rr.mu.Lock()
	replay, ok := rr.replays[gameID]
	delete(rr.replays, gameID)
	rr.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("no replay recorded for game %s", gameID)
	}

	path, err := replay.Save(rr.dir)
	if err != nil {
		return "", err
	}
	rr.logger.Info("saved replay",
		zap.String("game_id", gameID),
		zap.Int("state_count", replay.Size()),
		zap.String("path", path),
	)
	return path, nil
}

// Discard drops a replay without saving it.
func (rr *ReplayRecorder) Discard(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	delete(rr.replays, gameID)
}
