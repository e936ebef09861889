package screen

import (
	"context"
	"log"
	"sync"
	"time"
)

// Monitor continuously captures screenshots at a fixed interval and keeps
// the most recent paths in a bounded ring. The GUI executor reads recent
// frames from it as context for the vision service.
type Monitor struct {
	capturer Capturer
	interval time.Duration
	keep     int

	mu     sync.Mutex
	recent []string // newest first

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewMonitor creates a Monitor capturing every interval, keeping the most
// recent keep frame paths.
func NewMonitor(capturer Capturer, interval time.Duration, keep int) *Monitor {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if keep <= 0 {
		keep = 10
	}
	return &Monitor{
		capturer: capturer,
		interval: interval,
		keep:     keep,
	}
}

// Start launches the capture loop. Safe to call once; the caller owns the
// lifecycle and stops the monitor via Stop.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.loop(ctx)
}

// Stop halts the capture loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.once.Do(func() {
		if m.cancel != nil {
			m.cancel()
			<-m.done
		}
	})
}

// Recent returns up to n most recent frame paths, newest first.
func (m *Monitor) Recent(n int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n > len(m.recent) {
		n = len(m.recent)
	}
	if n <= 0 {
		return nil
	}
	out := make([]string, n)
	copy(out, m.recent[:n])
	return out
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			shot, err := m.capturer.Capture(ctx, CaptureOpts{Prefix: "monitor", Compress: true})
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("[screen] monitor capture failed: %v", err)
				}
				continue
			}
			m.push(shot.Best())
		}
	}
}

func (m *Monitor) push(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recent = append([]string{path}, m.recent...)
	if len(m.recent) > m.keep {
		m.recent = m.recent[:m.keep]
	}
}
