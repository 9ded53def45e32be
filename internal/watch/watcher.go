package watch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"standwatch/internal/alert"
	"standwatch/internal/logging"
	"standwatch/internal/queue"
	"standwatch/internal/reconcile"
)

// Snapshotter fetches the visitor's queue memberships.
type Snapshotter interface {
	Snapshot(ctx context.Context, login string) ([]queue.Membership, error)
}

// Renderer receives the reconciled view after each successful poll.
type Renderer interface {
	Render(instr reconcile.Instruction)
}

// Watcher drives the fetch, reconcile, alert, render cycle on a fixed cadence.
type Watcher struct {
	fetcher    Snapshotter
	reconciler *reconcile.Reconciler
	gate       *alert.Gate
	renderer   Renderer
	login      string
	interval   time.Duration
	clock      clockwork.Clock
	logger     *slog.Logger

	refresh chan struct{}

	mu      sync.Mutex
	running bool
	busy    bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a watcher. The reconciler's refresh hook should be wired to
// RequestRefresh so confirmed mutations trigger an immediate re-fetch.
func New(fetcher Snapshotter, reconciler *reconcile.Reconciler, gate *alert.Gate, renderer Renderer, login string, interval time.Duration, logger *slog.Logger) *Watcher {
	return newWatcher(fetcher, reconciler, gate, renderer, login, interval, clockwork.NewRealClock(), logger)
}

func newWatcher(fetcher Snapshotter, reconciler *reconcile.Reconciler, gate *alert.Gate, renderer Renderer, login string, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		fetcher:    fetcher,
		reconciler: reconciler,
		gate:       gate,
		renderer:   renderer,
		login:      login,
		interval:   interval,
		clock:      clock,
		logger:     logging.NewComponentLogger(logger, "watcher"),
		refresh:    make(chan struct{}, 1),
	}
}

// Start begins polling. The first poll runs immediately.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("watcher already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.loop(runCtx)
	return nil
}

// Stop tears the loop down and sweeps all alert flags so the next session
// starts with a clean gate. An in-flight fetch may complete, but its result
// is not applied once the loop is cancelled.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()

	if w.gate != nil {
		sweepCtx, sweepCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer sweepCancel()
		w.gate.SweepSession(sweepCtx)
	}
}

// RequestRefresh schedules an immediate poll ahead of the next tick. Safe to
// call from any goroutine; redundant requests coalesce.
func (w *Watcher) RequestRefresh() {
	select {
	case w.refresh <- struct{}{}:
	default:
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	w.poll(ctx)

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			w.poll(ctx)
		case <-w.refresh:
			w.poll(ctx)
		}
	}
}

// poll runs one fetch-reconcile-alert-render cycle. If a previous cycle is
// still outstanding the call returns without fetching, so snapshots are never
// applied out of order.
func (w *Watcher) poll(ctx context.Context) {
	w.mu.Lock()
	if w.busy || !w.running {
		w.mu.Unlock()
		return
	}
	w.busy = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.busy = false
		w.mu.Unlock()
	}()

	snapshot, err := w.fetcher.Snapshot(ctx, w.login)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// Stale-but-available: keep the previous render, retry next tick.
		w.logger.Warn("snapshot fetch failed; keeping previous view",
			logging.Error(err),
			logging.String(logging.FieldLogin, w.login),
			logging.String(logging.FieldEventType, "snapshot_fetch_failed"),
		)
		return
	}

	if ctx.Err() != nil {
		// The loop was cancelled while the fetch was in flight; the view is
		// defunct, applying would resurrect it.
		return
	}

	instr := w.reconciler.Apply(snapshot)
	if w.gate != nil {
		w.gate.Observe(ctx, snapshot)
	}
	if w.renderer != nil {
		w.renderer.Render(instr)
	}
}
