package recovery

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Reclaimer requeues stalled claims and reports how many were touched.
type Reclaimer interface {
	ReclaimStuck(ctx context.Context) (int64, error)
}

// Monitor periodically runs the queue recovery reclaim. It is optional:
// the reclaim endpoint works without it, the monitor just saves an
// operator from having to poke it by hand. Passes run immediately on
// Start and then once per interval until Stop.
type Monitor struct {
	interval time.Duration
	queue    Reclaimer

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(interval time.Duration, queue Reclaimer) (*Monitor, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	if queue == nil {
		return nil, errors.New("queue must not be nil")
	}
	return &Monitor{
		interval: interval,
		queue:    queue,
		done:     make(chan struct{}),
	}, nil
}

func (m *Monitor) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running.Store(true)

	go func() {
		defer close(m.done)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		slog.Info("recovery monitor started", "interval", m.interval.String())

		m.safePass(ctx)

		for {
			select {
			case <-ctx.Done():
				slog.Info("recovery monitor stopping")
				return
			case <-ticker.C:
				m.safePass(ctx)
			}
		}
	}()

	return true
}

func (m *Monitor) Stop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running.Load() {
		return false
	}

	m.cancel()
	<-m.done
	m.running.Store(false)

	slog.Info("recovery monitor stopped")
	return true
}

func (m *Monitor) IsRunning() bool {
	return m.running.Load()
}

func (m *Monitor) safePass(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("recovery pass panic recovered", "panic", r)
		}
	}()

	start := time.Now()
	n, err := m.queue.ReclaimStuck(ctx)
	if err != nil {
		slog.Error("recovery pass failed", "error", err)
		return
	}
	slog.Info("recovery pass completed", "reclaimed", n, "duration_ms", time.Since(start).Milliseconds())
}
