package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"csd-portal/ops-portal/ops-portal-backend/internal/dashboard"
	"csd-portal/ops-portal/ops-portal-backend/internal/pages"
)

var (
	// ErrSessionNotFound is returned for unknown or expired sessions
	ErrSessionNotFound = errors.New("session not found")
	// ErrAlreadyRunning is returned when the reaper is started twice
	ErrAlreadyRunning = errors.New("session reaper already running")
)

// Mounter creates page instances. *pages.Registry implements it.
type Mounter interface {
	Mount(id string, opts ...dashboard.Option) (pages.Instance, error)
}

// Session is one mounted page owned by one subject
type Session struct {
	ID        uuid.UUID      `json:"id"`
	PageID    string         `json:"page_id"`
	Subject   string         `json:"subject"`
	CreatedAt time.Time      `json:"created_at"`
	Page      pages.Instance `json:"-"`
}

// Config configures session lifetime
type Config struct {
	IdleTTL      time.Duration `json:"idle_ttl"`
	ReapSchedule string        `json:"reap_schedule"`
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		IdleTTL:      30 * time.Minute,
		ReapSchedule: "@every 1m",
	}
}

// Stats reports session counts
type Stats struct {
	Active  int        `json:"active"`
	Mounted int64      `json:"mounted"`
	Reaped  int64      `json:"reaped"`
	Cache   CacheStats `json:"cache"`
}

// Manager keeps mounted pages alive while they are used and unmounts them
// once idle for longer than the configured TTL.
type Manager struct {
	mounter  Mounter
	sessions *Cache[uuid.UUID, *Session]
	cron     *cron.Cron
	config   Config
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
	onClose []func(*Session)
	mounted int64
	reaped  int64
}

// Option configures a Manager
type Option func(*Manager)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new session manager
func NewManager(mounter Mounter, config Config, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = DefaultConfig().IdleTTL
	}
	if config.ReapSchedule == "" {
		config.ReapSchedule = DefaultConfig().ReapSchedule
	}
	m := &Manager{
		mounter: mounter,
		cron:    cron.New(cron.WithSeconds()),
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.sessions = NewCache[uuid.UUID, *Session](config.IdleTTL, m.now)
	return m
}

// OnClose registers fn to run after a session is closed or reaped
func (m *Manager) OnClose(fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onClose = append(m.onClose, fn)
}

// Open mounts a page for subject
func (m *Manager) Open(pageID, subject string) (*Session, error) {
	id := uuid.New()
	page, err := m.mounter.Mount(pageID, dashboard.WithLogger(m.logger.With(
		zap.String("page", pageID),
		zap.String("session_id", id.String()))))
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        id,
		PageID:    pageID,
		Subject:   subject,
		CreatedAt: m.now(),
		Page:      page,
	}
	m.sessions.Set(id, s)

	m.mu.Lock()
	m.mounted++
	m.mu.Unlock()

	m.logger.Info("Session opened",
		zap.String("session_id", id.String()),
		zap.String("page", pageID),
		zap.String("subject", subject))
	return s, nil
}

// Get returns a live session and marks it as used
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Close unmounts a session
func (m *Manager) Close(id uuid.UUID) error {
	s, ok := m.sessions.Delete(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	m.logger.Info("Session closed", zap.String("session_id", id.String()))
	m.closed(s)
	return nil
}

// Reap unmounts every idle session and returns how many were removed
func (m *Manager) Reap() int {
	expired := m.sessions.RemoveExpired()
	if len(expired) == 0 {
		return 0
	}

	m.mu.Lock()
	m.reaped += int64(len(expired))
	m.mu.Unlock()

	for _, s := range expired {
		m.closed(s)
	}
	m.logger.Info("Reaped idle sessions", zap.Int("count", len(expired)))
	return len(expired)
}

func (m *Manager) closed(s *Session) {
	m.mu.Lock()
	hooks := slices.Clone(m.onClose)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(s)
	}
}

// Active returns the live sessions
func (m *Manager) Active() []*Session {
	return m.sessions.Values()
}

// Stats returns session statistics
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	cache := m.sessions.GetStats()
	return Stats{
		Active:  cache.Size,
		Mounted: m.mounted,
		Reaped:  m.reaped,
		Cache:   cache,
	}
}

// Start schedules the idle-session reaper
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return ErrAlreadyRunning
	}
	if _, err := m.cron.AddFunc(m.config.ReapSchedule, func() { m.Reap() }); err != nil {
		return fmt.Errorf("invalid reap schedule %q: %w", m.config.ReapSchedule, err)
	}

	m.logger.Info("Starting session reaper",
		zap.String("schedule", m.config.ReapSchedule),
		zap.Duration("idle_ttl", m.config.IdleTTL))
	m.cron.Start()
	m.running = true
	return nil
}

// Stop stops the reaper and unmounts every remaining session
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.running {
		m.logger.Info("Stopping session reaper")
		ctx := m.cron.Stop()
		m.mu.Unlock()
		<-ctx.Done()
		m.mu.Lock()
		m.running = false
	}
	m.mu.Unlock()

	for _, s := range m.sessions.Drain() {
		m.closed(s)
	}
}
