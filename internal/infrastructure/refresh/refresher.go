package refresh

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lib/pq"
)

// Loader reloads the policy graph from its source.
// services.SnapshotManager implements it.
type Loader interface {
	Load(ctx context.Context) error
}

// Refresher keeps a Loader's policy graph current. It reloads on a fixed
// interval and, when a PostgreSQL connection string is provided, also on
// LISTEN/NOTIFY events so that changes propagate without waiting for the
// next tick.
type Refresher struct {
	mu       sync.Mutex
	loader   Loader
	interval time.Duration
	connStr  string
	channel  string
	listener *pq.Listener
	stopCh   chan struct{}
	stopped  bool
}

// NewRefresher creates a new Refresher.
// interval is the fallback reload period. connStr and channel configure the
// optional LISTEN/NOTIFY trigger; pass an empty connStr to refresh on the
// interval alone.
func NewRefresher(loader Loader, interval time.Duration, connStr, channel string) *Refresher {
	return &Refresher{
		loader:   loader,
		interval: interval,
		connStr:  connStr,
		channel:  channel,
		stopCh:   make(chan struct{}),
	}
}

// Start performs an initial load and then begins refreshing in the
// background. The initial load failing aborts startup so a process never
// serves from an unknown state.
func (r *Refresher) Start(ctx context.Context) error {
	if err := r.loader.Load(ctx); err != nil {
		return fmt.Errorf("failed to perform initial load: %w", err)
	}

	if r.connStr != "" {
		if err := r.startListener(); err != nil {
			return fmt.Errorf("failed to start listener: %w", err)
		}
	}

	go r.run()

	return nil
}

// Stop stops the background refresh and cleans up resources.
// It is safe to call Stop more than once.
func (r *Refresher) Stop() error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	close(r.stopCh)
	r.mu.Unlock()

	if r.listener != nil {
		return r.listener.Close()
	}
	return nil
}

// startListener starts the PostgreSQL LISTEN/NOTIFY listener.
func (r *Refresher) startListener() error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			// Log but don't fail - the interval is the fallback
			log.Printf("Refresher listener error: %v", err)
		}
	}

	r.listener = pq.NewListener(r.connStr, 10*time.Second, time.Minute, reportProblem)

	if err := r.listener.Listen(r.channel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.channel, err)
	}

	return nil
}

// run reloads on every tick and every notification until stopped.
func (r *Refresher) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// A nil channel blocks forever, which disables the notification arm
	// of the select when no listener is configured.
	var notify <-chan *pq.Notification
	if r.listener != nil {
		notify = r.listener.Notify
	}

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.reload()
		case notification := <-notify:
			if notification == nil {
				// Connection lost, listener will reconnect automatically
				continue
			}
			r.reload()
		case <-time.After(90 * time.Second):
			if r.listener == nil {
				continue
			}
			// Periodic ping to keep the listener connection alive
			go func() {
				if err := r.listener.Ping(); err != nil {
					log.Printf("Refresher ping error: %v", err)
				}
			}()
		}
	}
}

// reload attempts a load. A failure leaves the previously materialized
// graph in place, so it is logged rather than propagated.
func (r *Refresher) reload() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.loader.Load(ctx); err != nil {
		log.Printf("Refresher reload failed, keeping previous graph: %v", err)
	}
}
