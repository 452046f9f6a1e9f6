package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/thraizz/kingdom-server-go/internal/auth"
	"github.com/thraizz/kingdom-server-go/internal/config"
	"github.com/thraizz/kingdom-server-go/internal/repository"
	"github.com/thraizz/kingdom-server-go/internal/session"
	"github.com/thraizz/kingdom-server-go/internal/table"
)

// Registrar creates accounts; only the password authenticator provides one.
type Registrar interface {
	Register(ctx context.Context, creds auth.Credentials) (auth.Identity, error)
}

// Server serves the websocket endpoint and the JSON API.
type Server struct {
	cfg           config.WebSocketConfig
	hub           *Hub
	tables        *table.Manager
	sessions      session.Manager
	authenticator auth.Authenticator
	registrar     Registrar
	upgrader      websocket.Upgrader
	logger        *zap.Logger

	httpServer *http.Server
}

// NewServer wires the HTTP handlers. hub must be the transport the table
// manager was created with.
func NewServer(cfg config.WebSocketConfig, hub *Hub, tables *table.Manager, sessions session.Manager, authenticator auth.Authenticator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Path == "" {
		cfg.Path = "/ws"
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	if cfg.MessagesPerSecond <= 0 {
		cfg.MessagesPerSecond = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 40
	}

	s := &Server{
		cfg:           cfg,
		hub:           hub,
		tables:        tables,
		sessions:      sessions,
		authenticator: authenticator,
		logger:        logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	if r, ok := authenticator.(Registrar); ok {
		s.registrar = r
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	s.logger.Warn("rejected websocket origin", zap.String("origin", origin))
	return false
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.ServeWs)
	mux.HandleFunc("GET /api/tables", s.handleListTables)
	mux.HandleFunc("POST /api/tables", s.handleCreateTable)
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// ListenAndServe blocks serving on cfg.Address until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting websocket server",
		zap.String("address", ln.Addr().String()),
		zap.String("path", s.cfg.Path),
	)
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and disconnects every client.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.CloseAll()
	return s.httpServer.Shutdown(ctx)
}

// ServeWs upgrades the request and starts the client's pumps.
func (s *Server) ServeWs(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.CreateSession(uuid.NewString(), r.RemoteAddr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.sessions.RemoveSession(sess.ID)
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &Client{
		srv:     s,
		conn:    conn,
		send:    make(chan []byte, s.cfg.SendBuffer),
		limiter: rate.NewLimiter(rate.Limit(s.cfg.MessagesPerSecond), s.cfg.Burst),
		logger:  s.logger.With(zap.String("session_id", sess.ID)),
		done:    make(chan struct{}),
		session: sess,
	}
	sess.OnClose(c.close)

	go c.writePump()
	go c.readPump()
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TableList{Tables: s.tables.List()})
}

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req table.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorMessage{Error: err.Error()})
		return
	}
	info, err := s.tables.Create(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorMessage{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.registrar == nil {
		writeJSON(w, http.StatusNotImplemented, ErrorMessage{Error: "registration is disabled"})
		return
	}
	var creds auth.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorMessage{Error: err.Error()})
		return
	}

	id, err := s.registrar.Register(r.Context(), creds)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{"name": id.Name})
	case errors.Is(err, repository.ErrUserExists):
		writeJSON(w, http.StatusConflict, ErrorMessage{Error: err.Error()})
	case errors.Is(err, auth.ErrInvalidName), errors.Is(err, auth.ErrWeakPassword):
		writeJSON(w, http.StatusBadRequest, ErrorMessage{Error: err.Error()})
	default:
		s.logger.Error("registration failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorMessage{Error: "registration failed"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"tables":   len(s.tables.List()),
		"sessions": s.sessions.Count(),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
