package alert

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"standwatch/internal/config"
	"standwatch/internal/logging"
	"standwatch/internal/notifications"
	"standwatch/internal/queue"
)

// State is the per-stand gate state.
type State int

const (
	// StateIdle means no flag is set; a threshold crossing fires the alert.
	StateIdle State = iota
	// StateArmed means the alert for the current crossing already fired.
	StateArmed
)

// transition is the gate's transition table. It returns the next state and
// whether the alert fires on this evaluation.
func transition(current State, atThreshold bool) (State, bool) {
	switch current {
	case StateArmed:
		if atThreshold {
			return StateArmed, false
		}
		return StateIdle, false
	default:
		if atThreshold {
			return StateArmed, true
		}
		return StateIdle, false
	}
}

// Gate owns the notification flags and decides, per poll, whether the turn
// alert for each membership fires.
type Gate struct {
	store     *FlagStore
	notifier  notifications.Service
	clock     clockwork.Clock
	ttl       time.Duration
	threshold int
	logger    *slog.Logger
}

// NewGate constructs a gate from configuration.
func NewGate(cfg *config.Config, store *FlagStore, notifier notifications.Service, logger *slog.Logger) *Gate {
	return newGate(store, notifier, cfg.Alert.Threshold,
		time.Duration(cfg.Alert.FlagTTLMinutes)*time.Minute, clockwork.NewRealClock(), logger)
}

func newGate(store *FlagStore, notifier notifications.Service, threshold int, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger) *Gate {
	if threshold < 1 {
		threshold = 1
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if notifier == nil {
		notifier = notifications.NewService(&config.Config{})
	}
	return &Gate{
		store:     store,
		notifier:  notifier,
		clock:     clock,
		ttl:       ttl,
		threshold: threshold,
		logger:    logging.NewComponentLogger(logger, "alert-gate"),
	}
}

// Observe evaluates the latest snapshot: it fires at most one alert per
// threshold crossing, disarms flags whose membership left the threshold or
// disappeared, and expires flags older than the TTL.
func (g *Gate) Observe(ctx context.Context, memberships []queue.Membership) {
	present := make(map[int64]struct{}, len(memberships))
	for _, m := range memberships {
		present[m.StandID] = struct{}{}
		g.observeOne(ctx, m)
	}
	g.disarmAbsent(ctx, present)
}

func (g *Gate) observeOne(ctx context.Context, m queue.Membership) {
	flag, armed, err := g.store.Lookup(ctx, m.StandID)
	if err != nil {
		// Without flag state, firing could duplicate an alert; skip this
		// membership until the store recovers.
		g.logger.Warn("flag lookup failed; skipping alert evaluation",
			logging.Error(err),
			logging.Int64(logging.FieldStandID, m.StandID),
			logging.String(logging.FieldEventType, "flag_lookup_failed"),
		)
		return
	}

	if armed && g.clock.Since(flag.FiredAt) >= g.ttl {
		if err := g.store.Clear(ctx, m.StandID); err != nil {
			g.logger.Warn("flag expiry clear failed", logging.Error(err),
				logging.Int64(logging.FieldStandID, m.StandID))
			return
		}
		armed = false
		g.logger.Debug("alert flag expired",
			logging.Int64(logging.FieldStandID, m.StandID),
			logging.Duration("age", g.clock.Since(flag.FiredAt)),
		)
	}

	current := StateIdle
	if armed {
		current = StateArmed
	}

	next, fire := transition(current, m.PeopleAhead == g.threshold)

	if fire {
		g.fire(ctx, m)
		if err := g.store.Mark(ctx, m.StandID, g.clock.Now()); err != nil {
			g.logger.Warn("flag mark failed; alert may repeat next poll",
				logging.Error(err),
				logging.Int64(logging.FieldStandID, m.StandID),
			)
		}
		return
	}

	if current == StateArmed && next == StateIdle {
		if err := g.store.Clear(ctx, m.StandID); err != nil {
			g.logger.Warn("flag clear failed", logging.Error(err),
				logging.Int64(logging.FieldStandID, m.StandID))
		}
	}
}

// fire delivers the alert. Delivery failures are swallowed: the flag is still
// set so a denied or broken notification channel never causes repeat alerts.
func (g *Gate) fire(ctx context.Context, m queue.Membership) {
	g.logger.Info("turn alert",
		logging.Int64(logging.FieldStandID, m.StandID),
		logging.String("stand_name", m.StandName),
		logging.Int("people_ahead", m.PeopleAhead),
		logging.String(logging.FieldEventType, "turn_alert_fired"),
	)
	if err := g.notifier.NotifyTurnApproaching(ctx, m.StandName, m.PeopleAhead); err != nil {
		g.logger.Debug("turn alert delivery failed", logging.Error(err),
			logging.Int64(logging.FieldStandID, m.StandID))
	}
}

// disarmAbsent clears flags whose stand no longer appears in the snapshot.
// Disappearance is silent: no alert announces a cleared flag.
func (g *Gate) disarmAbsent(ctx context.Context, present map[int64]struct{}) {
	flags, err := g.store.List(ctx)
	if err != nil {
		g.logger.Warn("flag list failed; stale flags may linger", logging.Error(err))
		return
	}
	for _, flag := range flags {
		if _, ok := present[flag.StandID]; ok {
			continue
		}
		if err := g.store.Clear(ctx, flag.StandID); err != nil {
			g.logger.Warn("flag clear failed", logging.Error(err),
				logging.Int64(logging.FieldStandID, flag.StandID))
		}
	}
}

// Forget drops the flag for a stand. Used by the removal mutation path.
func (g *Gate) Forget(ctx context.Context, standID int64) {
	if err := g.store.Clear(ctx, standID); err != nil {
		g.logger.Warn("flag clear failed", logging.Error(err),
			logging.Int64(logging.FieldStandID, standID))
	}
}

// SweepSession removes every flag. Called when the watch session ends, the
// analog of a page-unload cleanup.
func (g *Gate) SweepSession(ctx context.Context) {
	swept, err := g.store.SweepAll(ctx)
	if err != nil {
		g.logger.Warn("session sweep failed", logging.Error(err))
		return
	}
	if swept > 0 {
		g.logger.Debug("session sweep cleared flags", logging.Int("count", swept))
	}
}
