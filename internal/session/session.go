package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrTooManySessions = errors.New("too many sessions")

// Session tracks one connected client.
type Session struct {
	ID        string
	Host      string
	CreatedAt time.Time

	mu           sync.RWMutex
	userName     string
	tableID      string
	playerID     int
	lastActivity time.Time
	onClose      func()
	closed       bool
}

func newSession(id, host string, now time.Time) *Session {
	return &Session{
		ID:           id,
		Host:         host,
		CreatedAt:    now,
		playerID:     -1,
		lastActivity: now,
	}
}

// SetUserName records the authenticated name.
func (s *Session) SetUserName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userName = name
}

// UserName returns the authenticated name, empty before login.
func (s *Session) UserName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userName
}

// SetSeat records the table and player ID the session plays as.
func (s *Session) SetSeat(tableID string, playerID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tableID = tableID
	s.playerID = playerID
}

// ClearSeat forgets the table binding.
func (s *Session) ClearSeat() {
	s.SetSeat("", -1)
}

// Seat returns the table and player ID; ok is false when not seated.
func (s *Session) Seat() (tableID string, playerID int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tableID, s.playerID, s.tableID != ""
}

// UpdateActivity renews the lease.
func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// LastActivity returns when the lease was last renewed.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// OnClose registers fn to run once when the session is removed.
func (s *Session) OnClose(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = fn
}

func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	fn := s.onClose
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Manager owns every live session.
type Manager interface {
	CreateSession(id, host string) (*Session, error)
	GetSession(id string) (*Session, bool)
	RemoveSession(id string)
	Count() int
	CleanupExpiredSessions(ctx context.Context)
	CloseAll()
}

type manager struct {
	leasePeriod time.Duration
	maxSessions int
	logger      *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewManager creates a manager that expires sessions idle for longer than
// leasePeriod. maxSessions <= 0 means unlimited.
func NewManager(leasePeriod time.Duration, maxSessions int, logger *zap.Logger) Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &manager{
		leasePeriod: leasePeriod,
		maxSessions: maxSessions,
		logger:      logger,
		sessions:    make(map[string]*Session),
		now:         time.Now,
	}
}

func (m *manager) CreateSession(id, host string) (*Session, error) {
	m.mu.Lock()
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.mu.Unlock()
		return nil, ErrTooManySessions
	}
	old := m.sessions[id]
	s := newSession(id, host, m.now())
	m.sessions[id] = s
	m.mu.Unlock()

	if old != nil {
		old.close()
	}
	m.logger.Debug("session created",
		zap.String("session_id", id),
		zap.String("host", host),
	)
	return s, nil
}

func (m *manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *manager) RemoveSession(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.close()
		m.logger.Debug("session removed", zap.String("session_id", id))
	}
}

func (m *manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpiredSessions sweeps idle sessions until ctx is cancelled.
func (m *manager) CleanupExpiredSessions(ctx context.Context) {
	interval := m.leasePeriod / 2
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.expire(m.now()); n > 0 {
				m.logger.Info("expired idle sessions", zap.Int("count", n))
			}
		}
	}
}

func (m *manager) expire(now time.Time) int {
	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if now.Sub(s.LastActivity()) > m.leasePeriod {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	return len(expired)
}

func (m *manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	for _, s := range all {
		s.close()
	}
	m.logger.Info("closed all sessions", zap.Int("count", len(all)))
}
