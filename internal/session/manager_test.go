package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"csd-portal/ops-portal/ops-portal-backend/internal/dashboard"
	"csd-portal/ops-portal/ops-portal-backend/internal/fixtures"
	"csd-portal/ops-portal/ops-portal-backend/internal/pages"
)

// fakeClock is a manually advanced time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MockMounter is a mock implementation of the Mounter interface
type MockMounter struct {
	mock.Mock
}

func (m *MockMounter) Mount(id string, opts ...dashboard.Option) (pages.Instance, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pages.Instance), args.Error(1)
}

func newRegistry(t *testing.T) *pages.Registry {
	t.Helper()
	defs, err := pages.Defaults()
	require.NoError(t, err)
	reg, err := pages.NewRegistry(defs, pages.FixtureSources(fixtures.Generate(fixtures.DefaultSeed, 30)), nil)
	require.NoError(t, err)
	return reg
}

func newTestManager(t *testing.T, logger *zap.Logger) (*Manager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: fixtures.BaseDate}
	m := NewManager(newRegistry(t), Config{IdleTTL: 10 * time.Minute}, logger, WithClock(clock.Now))
	return m, clock
}

func TestManager_OpenAndGet(t *testing.T) {
	m, _ := newTestManager(t, nil)

	s, err := m.Open("settlements", "ops.analyst")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.Equal(t, "settlements", s.PageID)
	assert.Equal(t, "ops.analyst", s.Subject)
	assert.Equal(t, fixtures.BaseDate, s.CreatedAt)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	other, err := m.Open("settlements", "ops.analyst")
	require.NoError(t, err)
	s.Page.SetFilter("status", "Failed")
	assert.False(t, other.Page.HasActiveFilters(), "each session mounts its own store")
}

func TestManager_OpenUnknownPage(t *testing.T) {
	m, _ := newTestManager(t, nil)

	_, err := m.Open("collateral", "ops.analyst")

	assert.ErrorIs(t, err, pages.ErrUnknownPage)
	assert.Equal(t, int64(0), m.Stats().Mounted)
}

func TestManager_OpenPropagatesMountError(t *testing.T) {
	mounter := new(MockMounter)
	mounter.On("Mount", "settlements").Return(nil, dashboard.ErrInvalidConfig).Once()
	m := NewManager(mounter, DefaultConfig(), nil)

	_, err := m.Open("settlements", "ops.analyst")

	assert.ErrorIs(t, err, dashboard.ErrInvalidConfig)
	mounter.AssertExpectations(t)
}

func TestManager_Close(t *testing.T) {
	m, _ := newTestManager(t, nil)
	var closed []uuid.UUID
	m.OnClose(func(s *Session) { closed = append(closed, s.ID) })

	s, err := m.Open("auctions", "ops.analyst")
	require.NoError(t, err)

	require.NoError(t, m.Close(s.ID))
	assert.Equal(t, []uuid.UUID{s.ID}, closed)

	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Close(s.ID), ErrSessionNotFound)
}

func TestManager_CloseHooksRunInOrder(t *testing.T) {
	m, _ := newTestManager(t, nil)
	var calls []string
	m.OnClose(func(*Session) { calls = append(calls, "hub") })
	m.OnClose(func(*Session) {
		calls = append(calls, "audit")
		// registering from inside a hook must not affect the running close
		m.OnClose(func(*Session) { calls = append(calls, "late") })
	})

	first, err := m.Open("auctions", "ops.analyst")
	require.NoError(t, err)
	require.NoError(t, m.Close(first.ID))
	assert.Equal(t, []string{"hub", "audit"}, calls)

	calls = nil
	second, err := m.Open("auctions", "ops.analyst")
	require.NoError(t, err)
	require.NoError(t, m.Close(second.ID))
	assert.Equal(t, []string{"hub", "audit", "late"}, calls)
}

func TestManager_ReapIdleSessions(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m, clock := newTestManager(t, zap.New(core))
	var closed int
	m.OnClose(func(*Session) { closed++ })

	idle, err := m.Open("settlements", "a")
	require.NoError(t, err)
	busy, err := m.Open("participants", "b")
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)
	_, err = m.Get(busy.ID)
	require.NoError(t, err)
	clock.Advance(6 * time.Minute)

	assert.Equal(t, 1, m.Reap())
	assert.Equal(t, 1, closed)
	_, err = m.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(busy.ID)
	assert.NoError(t, err, "access extends the idle deadline")

	stats := m.Stats()
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, int64(2), stats.Mounted)
	assert.Equal(t, int64(1), stats.Reaped)
	assert.Equal(t, 1, logs.FilterMessage("Reaped idle sessions").Len())

	assert.Equal(t, 0, m.Reap())
}

func TestManager_StartStop(t *testing.T) {
	m, _ := newTestManager(t, nil)
	var closed int
	m.OnClose(func(*Session) { closed++ })
	_, err := m.Open("settlements", "a")
	require.NoError(t, err)

	require.NoError(t, m.Start())
	assert.ErrorIs(t, m.Start(), ErrAlreadyRunning)

	m.Stop()
	assert.Equal(t, 1, closed, "stop unmounts remaining sessions")
	assert.Empty(t, m.Active())
}

func TestManager_StartRejectsBadSchedule(t *testing.T) {
	m := NewManager(newRegistry(t), Config{ReapSchedule: "every now and then"}, nil)

	err := m.Start()

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAlreadyRunning))
}
