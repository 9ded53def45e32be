package staff

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"standwatch/internal/logging"
	"standwatch/internal/queue"
)

// Backend is the slice of the queue API the monitor needs.
type Backend interface {
	Stand(ctx context.Context, standID int64) (queue.Stand, error)
	Players(ctx context.Context, standID int64) ([]queue.Player, error)
	Leave(ctx context.Context, userID, standID int64) error
}

// Roster is one rendered view of a stand's live queue. The first player is
// the one currently being served.
type Roster struct {
	StandID     int64
	StandName   string
	Players     []queue.Player
	WaitMinutes int
}

// View receives each refreshed roster.
type View interface {
	Render(roster Roster)
}

// Monitor polls one stand's roster on a fast cadence for staff.
type Monitor struct {
	backend  Backend
	view     View
	standID  int64
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger

	refresh chan struct{}

	mu       sync.Mutex
	running  bool
	busy     bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stand    queue.Stand
	roster   []queue.Player
	inflight map[int64]struct{}
}

// New constructs a staff monitor for one stand.
func New(backend Backend, view View, standID int64, interval time.Duration, logger *slog.Logger) *Monitor {
	return newMonitor(backend, view, standID, interval, clockwork.NewRealClock(), logger)
}

func newMonitor(backend Backend, view View, standID int64, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = time.Second
	}
	return &Monitor{
		backend:  backend,
		view:     view,
		standID:  standID,
		interval: interval,
		clock:    clock,
		logger:   logging.NewComponentLogger(logger, "staff-monitor"),
		refresh:  make(chan struct{}, 1),
		inflight: make(map[int64]struct{}),
	}
}

// Start resolves the stand descriptor and begins polling the roster.
func (m *Monitor) Start(ctx context.Context) error {
	stand, err := m.backend.Stand(ctx, m.standID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("monitor already running")
	}
	m.stand = stand

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	m.wg.Add(1)
	go m.loop(runCtx)
	return nil
}

// Stop tears the loop down.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// RequestRefresh schedules an immediate roster poll ahead of the next tick.
func (m *Monitor) RequestRefresh() {
	select {
	case m.refresh <- struct{}{}:
	default:
	}
}

// Finish removes the player currently being served and refreshes the roster.
func (m *Monitor) Finish(ctx context.Context) error {
	m.mu.Lock()
	if len(m.roster) == 0 {
		m.mu.Unlock()
		return errors.New("queue is empty")
	}
	served := m.roster[0]
	m.mu.Unlock()
	return m.Remove(ctx, served.ID)
}

// Remove drops one player from the stand's queue. A second removal for the
// same player while one is pending is a client-side no-op.
func (m *Monitor) Remove(ctx context.Context, userID int64) error {
	m.mu.Lock()
	if _, pending := m.inflight[userID]; pending {
		m.mu.Unlock()
		m.logger.Debug("removal already in flight; ignoring duplicate",
			logging.Int64("user_id", userID))
		return nil
	}
	m.inflight[userID] = struct{}{}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.inflight, userID)
		m.mu.Unlock()
	}()

	if err := m.backend.Leave(ctx, userID, m.standID); err != nil {
		return err
	}

	m.mu.Lock()
	kept := m.roster[:0]
	for _, p := range m.roster {
		if p.ID != userID {
			kept = append(kept, p)
		}
	}
	m.roster = kept
	m.mu.Unlock()

	m.RequestRefresh()
	m.logger.Info("player removed",
		logging.Int64("user_id", userID),
		logging.Int64(logging.FieldStandID, m.standID),
		logging.String(logging.FieldEventType, "player_removed"),
	)
	return nil
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()

	m.poll(ctx)

	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.poll(ctx)
		case <-m.refresh:
			m.poll(ctx)
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	m.mu.Lock()
	if m.busy || !m.running {
		m.mu.Unlock()
		return
	}
	m.busy = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.busy = false
		m.mu.Unlock()
	}()

	players, err := m.backend.Players(ctx, m.standID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		m.logger.Warn("roster fetch failed; keeping previous view",
			logging.Error(err),
			logging.Int64(logging.FieldStandID, m.standID),
			logging.String(logging.FieldEventType, "roster_fetch_failed"),
		)
		return
	}
	if ctx.Err() != nil {
		return
	}

	m.mu.Lock()
	m.roster = players
	stand := m.stand
	m.mu.Unlock()

	if m.view != nil {
		m.view.Render(Roster{
			StandID:     m.standID,
			StandName:   stand.Name,
			Players:     players,
			WaitMinutes: queue.WaitMinutes(len(players), stand.DurationSeconds),
		})
	}
}
