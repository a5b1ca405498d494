// Package daemon provides the long-running host bridge: hosts POST
// lifecycle events and read session-idle notifications over HTTP/SSE.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/wattwatch/internal/config"
	"github.com/theirongolddev/wattwatch/internal/energy"
	"github.com/theirongolddev/wattwatch/internal/logger"
	"github.com/theirongolddev/wattwatch/internal/model"
	"github.com/theirongolddev/wattwatch/internal/session"
)

const maxEventBody = 1 << 20

// DefaultAddr is the listen address used when Config.Addr is empty.
const DefaultAddr = "127.0.0.1:8788"

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	EventsBuffer int
	// IdleTTL evicts sessions with no activity for this long. Zero keeps
	// sessions until the host deletes them.
	IdleTTL       time.Duration
	PruneInterval time.Duration
}

// Notification is one session-idle summary, as served to clients.
type Notification struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt         time.Time `json:"started_at"`
	Sessions          int       `json:"sessions"`
	EventsHandled     int64     `json:"events_handled"`
	NotificationCount int64     `json:"notification_count"`
	Buffered          int       `json:"buffered"`
	SubscriberCount   int       `json:"subscriber_count"`
	ElectricityRate   float64   `json:"electricity_rate"`
	Currency          string    `json:"currency"`
	LastPruneAt       time.Time `json:"last_prune_at,omitzero"`
	Pruned            int       `json:"pruned"`
}

// IngestResult is the response body of POST /v1/events.
type IngestResult struct {
	Accepted int    `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	log *zap.Logger

	// handleMu serializes event delivery into the controller, which is
	// not safe for concurrent use.
	handleMu      sync.Mutex
	ctrl          *session.Controller
	eventsHandled int64
	lastPruneAt   time.Time
	pruned        int

	mu           sync.RWMutex
	startedAt    time.Time
	nextNoticeID int64
	notices      []Notification

	nextSubID int
	subs      map[int]chan Notification
}

// New returns a daemon service estimating with r and settings.
func New(cfg Config, r energy.Resolver, settings config.Settings, log *zap.Logger) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.IdleTTL > 0 && cfg.PruneInterval <= 0 {
		cfg.PruneInterval = time.Minute
	}

	s := &Service{
		cfg:       cfg,
		log:       logger.OrNop(log),
		startedAt: time.Now(),
		subs:      make(map[int]chan Notification),
	}
	s.ctrl = session.NewController(session.NewStore(), r, settings, s, s.log)
	return s
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/sessions", s.handleSessions)
	mux.HandleFunc("/v1/notifications", s.handleNotifications)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

// Run serves the HTTP API until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var pruneC <-chan time.Time
	if s.cfg.IdleTTL > 0 {
		ticker := time.NewTicker(s.cfg.PruneInterval)
		defer ticker.Stop()
		pruneC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-pruneC:
			s.prune()
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// Dispatch delivers one host event to the controller.
func (s *Service) Dispatch(ctx context.Context, ev model.Event) error {
	s.handleMu.Lock()
	defer s.handleMu.Unlock()

	if err := s.ctrl.Handle(ctx, ev); err != nil {
		return err
	}
	s.eventsHandled++
	return nil
}

func (s *Service) prune() {
	s.handleMu.Lock()
	n := s.ctrl.PruneIdle(s.cfg.IdleTTL)
	s.lastPruneAt = time.Now()
	s.pruned += n
	s.handleMu.Unlock()
}

// Notify implements session.Notifier by buffering the notification and
// fanning it out to stream subscribers.
func (s *Service) Notify(_ context.Context, sessionID, message string) error {
	s.mu.Lock()
	s.nextNoticeID++
	n := Notification{
		ID:        s.nextNoticeID,
		SessionID: sessionID,
		Message:   message,
		Timestamp: time.Now(),
	}
	s.mu.Unlock()

	s.publish(n)
	s.log.Info("session summary", zap.String("session", sessionID), zap.String("message", message))
	return nil
}

func (s *Service) publish(n Notification) {
	s.mu.Lock()
	s.notices = append(s.notices, n)
	if len(s.notices) > s.cfg.EventsBuffer {
		s.notices = s.notices[len(s.notices)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- n:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.handleMu.Lock()
	sessions := s.ctrl.Store().Len()
	handled := s.eventsHandled
	lastPrune := s.lastPruneAt
	pruned := s.pruned
	settings := s.ctrl.Settings()
	s.handleMu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:         s.startedAt,
		Sessions:          sessions,
		EventsHandled:     handled,
		NotificationCount: s.nextNoticeID,
		Buffered:          len(s.notices),
		SubscriberCount:   len(s.subs),
		ElectricityRate:   settings.ElectricityRate,
		Currency:          settings.Currency,
		LastPruneAt:       lastPrune,
		Pruned:            pruned,
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

// handleEvents accepts a single JSON event or a stream of them
// (newline-delimited), applied in order. Processing stops at the first
// bad event; events before it stay applied.
func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxEventBody))
	var res IngestResult
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			res.Error = fmt.Sprintf("decoding event %d: %v", res.Accepted+1, err)
			writeJSON(w, http.StatusBadRequest, res)
			return
		}

		ev, err := model.ParseEvent(raw)
		if err == nil {
			err = s.Dispatch(r.Context(), ev)
		}
		if err != nil {
			s.log.Warn("rejected host event", zap.Int("index", res.Accepted), zap.Error(err))
			res.Error = err.Error()
			writeJSON(w, http.StatusBadRequest, res)
			return
		}
		res.Accepted++
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Service) handleSessions(w http.ResponseWriter, _ *http.Request) {
	s.handleMu.Lock()
	sessions := s.ctrl.Store().Snapshot()
	s.handleMu.Unlock()

	writeJSON(w, http.StatusOK, sessions)
}

func (s *Service) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	notices := make([]Notification, len(s.notices))
	copy(notices, s.notices)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, notices)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Notification, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case n := <-ch:
			writeSSE(w, n)
			flusher.Flush()
		}
	}
}

func writeSSE(w io.Writer, n Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "id: %d\n", n.ID)
	_, _ = fmt.Fprint(w, "event: notification\n")
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) addSubscriber(ch chan Notification) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
