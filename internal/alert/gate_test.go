package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"standwatch/internal/queue"
)

type recordingNotifier struct {
	calls []string
	fail  error
}

func (r *recordingNotifier) NotifyTurnApproaching(_ context.Context, standName string, _ int) error {
	r.calls = append(r.calls, standName)
	return r.fail
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

func newTestGate(t *testing.T) (*Gate, *recordingNotifier, *clockwork.FakeClock) {
	t.Helper()
	store := openTestStore(t)
	notifier := &recordingNotifier{}
	clock := clockwork.NewFakeClock()
	gate := newGate(store, notifier, 1, 10*time.Minute, clock, nil)
	return gate, notifier, clock
}

func membership(standID int64, name string, ahead int) queue.Membership {
	return queue.Membership{StandID: standID, StandName: name, PeopleAhead: ahead, DurationSeconds: 600}
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		name        string
		current     State
		atThreshold bool
		wantState   State
		wantFire    bool
	}{
		{"idle below threshold stays idle", StateIdle, false, StateIdle, false},
		{"idle at threshold arms and fires", StateIdle, true, StateArmed, true},
		{"armed at threshold holds silently", StateArmed, true, StateArmed, false},
		{"armed off threshold disarms silently", StateArmed, false, StateIdle, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, fire := transition(tc.current, tc.atThreshold)
			if next != tc.wantState || fire != tc.wantFire {
				t.Errorf("transition(%v, %v) = (%v, %v), want (%v, %v)",
					tc.current, tc.atThreshold, next, fire, tc.wantState, tc.wantFire)
			}
		})
	}
}

func TestGateFiresOncePerCrossing(t *testing.T) {
	gate, notifier, _ := newTestGate(t)
	ctx := context.Background()
	snapshot := []queue.Membership{membership(5, "Laser", 1)}

	for poll := 0; poll < 6; poll++ {
		gate.Observe(ctx, snapshot)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("alert fired %d times across repeated polls, want exactly 1", len(notifier.calls))
	}
	if notifier.calls[0] != "Laser" {
		t.Errorf("alert referenced %q, want Laser", notifier.calls[0])
	}
}

func TestGateRearmsAfterLeavingThreshold(t *testing.T) {
	gate, notifier, _ := newTestGate(t)
	ctx := context.Background()

	gate.Observe(ctx, []queue.Membership{membership(5, "Laser", 1)})
	gate.Observe(ctx, []queue.Membership{membership(5, "Laser", 3)})
	gate.Observe(ctx, []queue.Membership{membership(5, "Laser", 1)})

	if len(notifier.calls) != 2 {
		t.Errorf("re-crossing should fire a second alert, got %d", len(notifier.calls))
	}
}

func TestGateNoNewAlertWhenCountDropsPastThreshold(t *testing.T) {
	gate, notifier, _ := newTestGate(t)
	ctx := context.Background()

	gate.Observe(ctx, []queue.Membership{membership(5, "Laser", 1)})
	gate.Observe(ctx, []queue.Membership{membership(5, "Laser", 0)})

	if len(notifier.calls) != 1 {
		t.Fatalf("dropping to the front should not re-alert, got %d calls", len(notifier.calls))
	}
	if _, ok, _ := gate.store.Lookup(ctx, 5); ok {
		t.Error("flag should be cleared once the count leaves the threshold")
	}
}

func TestGateTTLExpiryRefires(t *testing.T) {
	gate, notifier, clock := newTestGate(t)
	ctx := context.Background()
	snapshot := []queue.Membership{membership(5, "Laser", 1)}

	gate.Observe(ctx, snapshot)
	clock.Advance(9 * time.Minute)
	gate.Observe(ctx, snapshot)
	if len(notifier.calls) != 1 {
		t.Fatalf("flag should still hold before the TTL, got %d calls", len(notifier.calls))
	}

	clock.Advance(2 * time.Minute)
	gate.Observe(ctx, snapshot)
	if len(notifier.calls) != 2 {
		t.Errorf("expired flag should be eligible to re-fire, got %d calls", len(notifier.calls))
	}
}

func TestGateDisappearanceClearsFlagSilently(t *testing.T) {
	gate, notifier, _ := newTestGate(t)
	ctx := context.Background()

	gate.Observe(ctx, []queue.Membership{membership(5, "Laser", 1)})
	gate.Observe(ctx, nil)

	if len(notifier.calls) != 1 {
		t.Errorf("disappearance must not emit an alert, got %d calls", len(notifier.calls))
	}
	flags, err := gate.store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(flags) != 0 {
		t.Errorf("flag should be cleared after disappearance, got %d flags", len(flags))
	}
}

func TestGateDeliveryFailureStillMarksFlag(t *testing.T) {
	gate, notifier, _ := newTestGate(t)
	notifier.fail = errors.New("permission denied")
	ctx := context.Background()
	snapshot := []queue.Membership{membership(5, "Laser", 1)}

	gate.Observe(ctx, snapshot)
	gate.Observe(ctx, snapshot)

	if len(notifier.calls) != 1 {
		t.Errorf("failed delivery must still arm the gate, got %d attempts", len(notifier.calls))
	}
}

func TestGateForgetAndSweep(t *testing.T) {
	gate, _, _ := newTestGate(t)
	ctx := context.Background()

	gate.Observe(ctx, []queue.Membership{membership(5, "Laser", 1), membership(8, "Arcade", 1)})

	gate.Forget(ctx, 5)
	if _, ok, _ := gate.store.Lookup(ctx, 5); ok {
		t.Error("Forget should clear the flag")
	}
	if _, ok, _ := gate.store.Lookup(ctx, 8); !ok {
		t.Error("Forget must not touch other stands")
	}

	gate.SweepSession(ctx)
	flags, _ := gate.store.List(ctx)
	if len(flags) != 0 {
		t.Errorf("session sweep should clear everything, got %d flags", len(flags))
	}
}
