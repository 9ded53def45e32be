package reconcile

import (
	"context"
	"log/slog"
	"sync"

	"standwatch/internal/logging"
	"standwatch/internal/queue"
)

// Backend is the slice of the queue API the reconciler mutates through.
type Backend interface {
	ResolveUserID(ctx context.Context, login string) (int64, error)
	Leave(ctx context.Context, userID, standID int64) error
}

// Entry pairs a membership with its projected presentation values.
type Entry struct {
	Membership queue.Membership
	Projection queue.Projection
}

// Instruction tells a renderer how the view changed after a poll.
type Instruction struct {
	// Added holds memberships absent from the previous render.
	Added []Entry
	// Updated holds memberships present before and still present.
	Updated []Entry
	// RemovedIDs holds stand IDs dropped since the previous render.
	RemovedIDs []int64
	// All is the full new rendered set in snapshot order.
	All []Entry
}

// Reconciler owns the rendered queue set and the optimistic removal path.
type Reconciler struct {
	backend Backend
	logger  *slog.Logger

	// onForget is invoked after a confirmed removal so the alert gate can
	// drop its flag; the gate stays the sole owner of flag state.
	onForget func(ctx context.Context, standID int64)
	// requestRefresh schedules an immediate re-fetch after a mutation.
	requestRefresh func()

	mu       sync.Mutex
	rendered map[int64]queue.Membership
	order    []int64
	inflight map[int64]struct{}
}

// Option configures optional reconciler behavior.
type Option func(*Reconciler)

// WithForgetHook registers the callback run after a confirmed removal.
func WithForgetHook(hook func(ctx context.Context, standID int64)) Option {
	return func(r *Reconciler) { r.onForget = hook }
}

// WithRefreshHook registers the callback that schedules an immediate re-fetch.
func WithRefreshHook(hook func()) Option {
	return func(r *Reconciler) { r.requestRefresh = hook }
}

// New constructs a reconciler.
func New(backend Backend, logger *slog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		backend:  backend,
		logger:   logging.NewComponentLogger(logger, "reconciler"),
		rendered: make(map[int64]queue.Membership),
		inflight: make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply replaces the rendered set with the latest snapshot and reports the
// per-stand deltas. Memberships are enriched with projected metrics here so
// renderers never recompute them.
func (r *Reconciler) Apply(latest []queue.Membership) Instruction {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[int64]queue.Membership, len(latest))
	order := make([]int64, 0, len(latest))
	instr := Instruction{}

	for _, m := range latest {
		if _, dup := next[m.StandID]; !dup {
			order = append(order, m.StandID)
		}
		next[m.StandID] = m
	}

	for _, id := range order {
		m := next[id]
		entry := Entry{Membership: m, Projection: queue.Project(m)}
		if _, existed := r.rendered[id]; existed {
			instr.Updated = append(instr.Updated, entry)
		} else {
			instr.Added = append(instr.Added, entry)
		}
		instr.All = append(instr.All, entry)
	}

	for _, id := range r.order {
		if _, stays := next[id]; !stays {
			instr.RemovedIDs = append(instr.RemovedIDs, id)
		}
	}

	r.rendered = next
	r.order = order
	return instr
}

// Rendered returns the current rendered set in display order.
func (r *Reconciler) Rendered() []queue.Membership {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]queue.Membership, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rendered[id])
	}
	return out
}

// Leave removes the visitor from a stand's queue: resolve the durable user
// id, confirm the delete with the backend, then drop the local entry, forget
// its alert flag, and request an immediate re-fetch. On failure the entry
// stays rendered and the error is returned for the caller to surface.
//
// While a leave for a stand is pending, further leaves for the same stand are
// no-ops so the backend sees exactly one delete.
func (r *Reconciler) Leave(ctx context.Context, login string, standID int64) error {
	r.mu.Lock()
	if _, pending := r.inflight[standID]; pending {
		r.mu.Unlock()
		r.logger.Debug("leave already in flight; ignoring duplicate",
			logging.Int64(logging.FieldStandID, standID))
		return nil
	}
	r.inflight[standID] = struct{}{}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.inflight, standID)
		r.mu.Unlock()
	}()

	userID, err := r.backend.ResolveUserID(ctx, login)
	if err != nil {
		return err
	}
	if err := r.backend.Leave(ctx, userID, standID); err != nil {
		return err
	}

	r.mu.Lock()
	if _, existed := r.rendered[standID]; existed {
		delete(r.rendered, standID)
		kept := r.order[:0]
		for _, id := range r.order {
			if id != standID {
				kept = append(kept, id)
			}
		}
		r.order = kept
	}
	r.mu.Unlock()

	if r.onForget != nil {
		r.onForget(ctx, standID)
	}
	if r.requestRefresh != nil {
		r.requestRefresh()
	}
	r.logger.Info("left queue",
		logging.Int64(logging.FieldStandID, standID),
		logging.String(logging.FieldLogin, login),
		logging.String(logging.FieldEventType, "queue_left"),
	)
	return nil
}
