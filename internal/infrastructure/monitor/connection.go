package monitor

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	bbolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Check probes one dependency; a nil error means it is reachable.
type Check func(ctx context.Context) error

type Monitor struct {
	checks map[string]Check

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	timeout  time.Duration
	stopOnce sync.Once
	stopCh   chan struct{}
	logger   *zap.Logger
}

func New(interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		checks:   make(map[string]Check),
		status:   Status{Healthy: true, Components: map[string]ComponentStatus{}},
		interval: interval,
		timeout:  3 * time.Second,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Add registers a named check. Register checks before Start.
func (m *Monitor) Add(name string, check Check) {
	if check == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = check
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether every registered dependency answered the last probe.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Healthy
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	components := make(map[string]ComponentStatus, len(m.status.Components))
	for k, v := range m.status.Components {
		components[k] = v
	}
	s := m.status
	s.Components = components
	return s
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every check once and stores the result.
func (m *Monitor) Refresh(ctx context.Context) {
	m.mu.RLock()
	names := make([]string, 0, len(m.checks))
	for name := range m.checks {
		names = append(names, name)
	}
	checks := make(map[string]Check, len(m.checks))
	for k, v := range m.checks {
		checks[k] = v
	}
	m.mu.RUnlock()
	sort.Strings(names)

	status := Status{
		Healthy:    true,
		Components: make(map[string]ComponentStatus, len(names)),
		LastCheck:  time.Now(),
	}
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := checks[name](checkCtx)
		cancel()

		if err != nil {
			status.Healthy = false
			status.Components[name] = ComponentStatus{Up: false, Error: err.Error()}
			m.logger.Warn("dependency check failed", zap.String("component", name), zap.Error(err))
			continue
		}
		status.Components[name] = ComponentStatus{Up: true}
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func PostgresCheck(pool *pgxpool.Pool) Check {
	return func(ctx context.Context) error {
		return pool.Ping(ctx)
	}
}

func RedisCheck(client *redislib.Client) Check {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

func SQLCheck(db *sql.DB) Check {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

// BoltCheck opens a read transaction to confirm the file is still usable.
func BoltCheck(db *bbolt.DB) Check {
	return func(ctx context.Context) error {
		return db.View(func(*bbolt.Tx) error { return nil })
	}
}
