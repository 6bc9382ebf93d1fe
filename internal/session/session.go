// Package session owns the in-memory state of one open document per
// client: the engine handle, the selection and order state, the render
// scheduler and the page surfaces. Sessions expire after idle TTL.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfstudio/internal/document"
	"github.com/local/pdfstudio/internal/inspector"
	"github.com/local/pdfstudio/internal/pagestate"
	"github.com/local/pdfstudio/internal/render"
	"github.com/local/pdfstudio/internal/scheduler"
	"github.com/local/pdfstudio/internal/workerpool"

	"github.com/local/pdfstudio/internal/metrics"
)

// Session bundles everything that lives and dies with one open document.
type Session struct {
	ID   string
	Name string
	Size int64

	mu         sync.Mutex
	data       []byte
	handle     *document.Handle
	state      *pagestate.State
	sched      *scheduler.Scheduler
	insp       *inspector.Inspector
	surfaces   map[int]*render.Surface
	lastAccess time.Time
}

// Data returns the original source bytes of the open document.
func (s *Session) Data() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

func (s *Session) Handle() *document.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

func (s *Session) State() *pagestate.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Scheduler() *scheduler.Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched
}

func (s *Session) Inspector() *inspector.Inspector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insp
}

// Surface returns the thumbnail surface for page, creating it on first
// use. Surfaces persist across viewport passes so rendered pages are
// never re-rendered.
func (s *Session) Surface(page int) *render.Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	surf, ok := s.surfaces[page]
	if !ok {
		surf = &render.Surface{}
		s.surfaces[page] = surf
	}
	return surf
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastAccess = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// Manager tracks live sessions and enforces the idle TTL.
type Manager struct {
	pool     *workerpool.Pool
	renderer *render.Renderer
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager builds a manager over the shared worker pool.
func NewManager(pool *workerpool.Pool, renderer *render.Renderer, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Manager{
		pool:     pool,
		renderer: renderer,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Open parses data into a new session and kicks off the eager render of
// the leading pages in the background.
func (m *Manager) Open(name string, data []byte) (*Session, error) {
	h, err := document.Open(m.pool, data)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:         uuid.NewString(),
		Name:       name,
		Size:       int64(len(data)),
		data:       data,
		handle:     h,
		state:      pagestate.New(h.PageCount()),
		surfaces:   make(map[int]*render.Surface),
		lastAccess: time.Now(),
	}
	s.sched = scheduler.New(h.PageCount(), m.renderFunc(s))
	s.insp = inspector.New(s.state)

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.SetLiveSessions(n)

	log.Info().Str("session", s.ID).Str("file", name).Int("pages", h.PageCount()).Msg("session opened")

	// Eager pass: first pages of the natural order, before any viewport
	// geometry arrives.
	go s.sched.Schedule(context.Background(), s.sched.Visible(s.state.Order(), scheduler.Viewport{}, scheduler.Layout{}))

	return s, nil
}

// renderFunc adapts the renderer to the scheduler for one session. The
// handle ID pins the closure to the document it was created for, so a
// replace cannot paint stale pixels into fresh surfaces.
func (m *Manager) renderFunc(s *Session) scheduler.RenderFunc {
	h := s.Handle()
	return func(ctx context.Context, page int) error {
		if s.Handle() == nil || s.Handle().ID() != h.ID() {
			return fmt.Errorf("document replaced mid-render")
		}
		return m.renderer.Thumbnail(ctx, h, page, s.Surface(page))
	}
}

// Get returns the session and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// Replace swaps the session's document for a new upload. All derived
// state resets; the session ID survives.
func (m *Manager) Replace(id, name string, data []byte) (*Session, error) {
	s, ok := m.Get(id)
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}

	h, err := document.Open(m.pool, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	old := s.handle
	s.handle = h
	s.data = data
	s.Name = name
	s.Size = int64(len(data))
	s.state = pagestate.New(h.PageCount())
	s.surfaces = make(map[int]*render.Surface)
	s.insp = inspector.New(s.state)
	sched := s.sched
	s.mu.Unlock()

	sched.Reset(h.PageCount(), m.renderFunc(s))
	if old != nil {
		old.Destroy()
	}

	log.Info().Str("session", s.ID).Str("file", name).Int("pages", h.PageCount()).Msg("session document replaced")

	go sched.Schedule(context.Background(), sched.Visible(s.State().Order(), scheduler.Viewport{}, scheduler.Layout{}))
	return s, nil
}

// Close destroys a session and its engine handle.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return
	}
	metrics.SetLiveSessions(n)
	if h := s.Handle(); h != nil {
		h.Destroy()
	}
	log.Info().Str("session", id).Msg("session closed")
}

// Sweep closes sessions idle past the TTL. Run it on a ticker.
func (m *Manager) Sweep() {
	cutoff := time.Now().Add(-m.ttl)
	m.mu.Lock()
	var stale []string
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.Unlock()
	for _, id := range stale {
		log.Debug().Str("session", id).Msg("sweeping idle session")
		m.Close(id)
	}
}

// CloseAll destroys every live session (shutdown path).
func (m *Manager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.Close(id)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
