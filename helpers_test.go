package goSeal

import (
	"context"
	"sync"
	"testing"
	"time"
)

var (
	testAuthKey    = []byte("auth-key-0123456789abcdef0123456789")
	testContentKey = []byte("content-key-0123456789abcdef012345")
)

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
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memoryPrincipals struct {
	mu   sync.RWMutex
	byID map[string]PrincipalRecord
	ids  []string
}

func newMemoryPrincipals() *memoryPrincipals {
	return &memoryPrincipals{byID: map[string]PrincipalRecord{}}
}

func (m *memoryPrincipals) FindPrincipal(_ context.Context, id string) (PrincipalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byID[id]
	if !ok {
		return PrincipalRecord{}, ErrPrincipalNotFound
	}
	return rec, nil
}

func (m *memoryPrincipals) FindByUsername(_ context.Context, username string) (PrincipalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.byID {
		if rec.Username == username {
			return rec, nil
		}
	}
	return PrincipalRecord{}, ErrPrincipalNotFound
}

func (m *memoryPrincipals) InsertPrincipal(_ context.Context, rec PrincipalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[rec.ID]; ok {
		return ErrPrincipalExists
	}
	m.byID[rec.ID] = rec
	m.ids = append(m.ids, rec.ID)
	return nil
}

func (m *memoryPrincipals) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return ErrPrincipalNotFound
	}
	rec.PasswordHash = hash
	m.byID[id] = rec
	return nil
}

func (m *memoryPrincipals) ListPrincipals(context.Context) ([]Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Principal, 0, len(m.ids))
	for _, id := range m.ids {
		out = append(out, m.byID[id].Principal)
	}
	return out, nil
}

func testConfig(clock *fakeClock) Config {
	cfg := DefaultConfig()
	cfg.Token.AuthKey = testAuthKey
	cfg.Token.ContentKey = testContentKey
	cfg.Token.Now = clock.Now
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true
	return cfg
}

type testEngine struct {
	*Engine
	clock      *fakeClock
	principals *memoryPrincipals
}

func newTestEngine(t testing.TB, mutate func(*Config, *Builder)) *testEngine {
	t.Helper()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	principals := newMemoryPrincipals()
	cfg := testConfig(clock)

	b := New().WithPrincipalStore(principals)
	if mutate != nil {
		mutate(&cfg, b)
	}
	engine, err := b.WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEngine{Engine: engine, clock: clock, principals: principals}
}

func (te *testEngine) registerAndLogin(t testing.TB, username string) string {
	t.Helper()
	ctx := context.Background()
	if _, err := te.Register(ctx, RegisterRequest{Username: username, Email: username + "@example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("Register(%s) failed: %v", username, err)
	}
	token, err := te.Login(ctx, username, "correct-horse")
	if err != nil {
		t.Fatalf("Login(%s) failed: %v", username, err)
	}
	return token
}
