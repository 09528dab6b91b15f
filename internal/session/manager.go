package session

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/reactiv/flowgraph/internal/model"
	"github.com/reactiv/flowgraph/internal/telemetry"
)

// DefaultTimeout is the idle duration after which Manager's eviction
// loop closes a session, matching ChatSessionManager's session_timeout_minutes=30.
const DefaultTimeout = 30 * time.Minute

// evictionInterval is how often the background loop checks for expired
// sessions, matching manager.py's asyncio.sleep(60).
const evictionInterval = 60 * time.Second

// Manager owns the process-wide set of named sessions: creation,
// lookup, eviction, and shutdown, grounded on chat/manager.py's
// ChatSessionManager.
type Manager struct {
	Timeout time.Duration
	Logger  telemetry.Logger
	Metrics telemetry.Metrics
	Tracer  telemetry.Tracer
	Client  model.Client

	mu       sync.Mutex
	sessions map[string]*Session

	cancelEviction context.CancelFunc
	evictionDone   chan struct{}
}

// NewManager builds a Manager. A zero Timeout defaults to DefaultTimeout.
// A nil logger/metrics/tracer defaults to a no-op.
func NewManager(client model.Client, timeout time.Duration, logger telemetry.Logger, metrics telemetry.Metrics, tracer telemetry.Tracer) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	if tracer == nil {
		tracer = telemetry.NewNoopTracer()
	}
	return &Manager{
		Timeout:  timeout,
		Logger:   logger,
		Metrics:  metrics,
		Tracer:   tracer,
		Client:   client,
		sessions: make(map[string]*Session),
	}
}

// ActiveSessionCount returns the number of sessions currently tracked.
func (m *Manager) ActiveSessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CreateSession builds, initializes, and registers a new Session for
// workflowID under a freshly created temporary work directory.
func (m *Manager) CreateSession(workflowID string, cfg Config, graphAPIScript string, graphConfigJSON []byte) (*Session, error) {
	workDir, err := os.MkdirTemp("", "chat_"+shortID(workflowID)+"_")
	if err != nil {
		return nil, err
	}

	s := New(workflowID, workDir, cfg, m.Client, m.Metrics, m.Tracer)
	if err := s.Initialize(graphAPIScript, graphConfigJSON); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.Logger.Info(context.Background(), "created chat session",
		"session_id", s.ID, "workflow_id", workflowID, "total_sessions", count)
	return s, nil
}

func shortID(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// GetSession looks up a session by ID, refreshing its last_activity on
// a hit per spec.md §4.3.
func (m *Manager) GetSession(id string) *Session {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	s.touch()
	return s
}

// SessionsForWorkflow returns every session associated with workflowID.
func (m *Manager) SessionsForWorkflow(workflowID string) []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Session
	for _, s := range m.sessions {
		if s.WorkflowID == workflowID {
			out = append(out, s)
		}
	}
	return out
}

// ListSessions returns a metadata snapshot of every tracked session.
func (m *Manager) ListSessions() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.info())
	}
	return out
}

// CloseSession closes and removes the named session. Returns false if
// no such session was tracked.
func (m *Manager) CloseSession(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	_ = s.Close()
	m.Logger.Info(context.Background(), "closed chat session", "session_id", id)
	return true
}

// CloseWorkflowSessions closes every session for workflowID, returning
// the count closed.
func (m *Manager) CloseWorkflowSessions(workflowID string) int {
	ids := func() []string {
		m.mu.Lock()
		defer m.mu.Unlock()
		var ids []string
		for id, s := range m.sessions {
			if s.WorkflowID == workflowID {
				ids = append(ids, id)
			}
		}
		return ids
	}()
	for _, id := range ids {
		m.CloseSession(id)
	}
	return len(ids)
}

// CleanupExpired closes every session whose last_activity exceeds
// m.Timeout, returning the count closed.
func (m *Manager) CleanupExpired() int {
	now := time.Now()
	ids := func() []string {
		m.mu.Lock()
		defer m.mu.Unlock()
		var ids []string
		for id, s := range m.sessions {
			if now.Sub(s.LastActivity()) > m.Timeout {
				ids = append(ids, id)
			}
		}
		return ids
	}()
	for _, id := range ids {
		m.Logger.Info(context.Background(), "cleaning up expired session", "session_id", id)
		m.CloseSession(id)
	}
	if len(ids) > 0 {
		m.Logger.Info(context.Background(), "cleaned up expired sessions", "count", len(ids))
	}
	return len(ids)
}

// StartCleanupTask launches the background eviction loop, a one-shot
// goroutine that wakes every evictionInterval until its internal
// context is canceled by StopCleanupTask/Shutdown. Calling it twice
// without an intervening stop is a no-op.
func (m *Manager) StartCleanupTask() {
	m.mu.Lock()
	if m.cancelEviction != nil {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelEviction = cancel
	m.evictionDone = make(chan struct{})
	m.mu.Unlock()

	go m.cleanupLoop(ctx, m.evictionDone)
	m.Logger.Info(context.Background(), "started chat session cleanup background task")
}

func (m *Manager) cleanupLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(evictionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						m.Logger.Error(ctx, "panic in chat cleanup task", "recovered", r)
					}
				}()
				m.CleanupExpired()
			}()
		}
	}
}

// StopCleanupTask cancels the eviction loop and waits for it to exit.
func (m *Manager) StopCleanupTask() {
	m.mu.Lock()
	cancel := m.cancelEviction
	done := m.evictionDone
	m.cancelEviction = nil
	m.evictionDone = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.Logger.Info(context.Background(), "stopped chat session cleanup background task")
}

// Shutdown stops the eviction loop and closes every tracked session.
// Idempotent.
func (m *Manager) Shutdown() {
	m.StopCleanupTask()

	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.CloseSession(id)
	}
	m.Logger.Info(context.Background(), "chat session manager shutdown complete")
}
