package staff

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"standwatch/internal/queue"
)

type fakeStaffBackend struct {
	mu         sync.Mutex
	stand      queue.Stand
	rosters    [][]queue.Player
	rosterErrs []error
	calls      int32
	leaveCalls int32
	leaveGate  chan struct{}
}

func (f *fakeStaffBackend) Stand(context.Context, int64) (queue.Stand, error) {
	return f.stand, nil
}

func (f *fakeStaffBackend) Players(context.Context, int64) ([]queue.Player, error) {
	n := int(atomic.AddInt32(&f.calls, 1)) - 1
	f.mu.Lock()
	defer f.mu.Unlock()
	if n < len(f.rosterErrs) && f.rosterErrs[n] != nil {
		return nil, f.rosterErrs[n]
	}
	if n < len(f.rosters) {
		return f.rosters[n], nil
	}
	if len(f.rosters) == 0 {
		return nil, nil
	}
	return f.rosters[len(f.rosters)-1], nil
}

func (f *fakeStaffBackend) Leave(context.Context, int64, int64) error {
	atomic.AddInt32(&f.leaveCalls, 1)
	if f.leaveGate != nil {
		<-f.leaveGate
	}
	return nil
}

type recordingView struct {
	mu      sync.Mutex
	rosters []Roster
}

func (v *recordingView) Render(roster Roster) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rosters = append(v.rosters, roster)
}

func (v *recordingView) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.rosters)
}

func (v *recordingView) last() Roster {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rosters[len(v.rosters)-1]
}

func laserStand() queue.Stand {
	return queue.Stand{ID: 1, Name: "Laser", DurationSeconds: 600}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestMonitorRendersRosterWithWait(t *testing.T) {
	backend := &fakeStaffBackend{
		stand:   laserStand(),
		rosters: [][]queue.Player{{{ID: 2, Login: "ann"}, {ID: 9, Login: "bob"}}},
	}
	view := &recordingView{}
	m := newMonitor(backend, view, 1, time.Second, clockwork.NewFakeClock(), nil)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Stop()

	waitFor(t, time.Second, func() bool { return view.count() >= 1 })
	roster := view.last()
	if roster.StandName != "Laser" {
		t.Errorf("stand name = %q", roster.StandName)
	}
	if len(roster.Players) != 2 || roster.Players[0].Login != "ann" {
		t.Errorf("roster order lost: %+v", roster.Players)
	}
	if roster.WaitMinutes != 20 {
		t.Errorf("WaitMinutes = %d, want 20", roster.WaitMinutes)
	}
}

func TestMonitorFetchErrorKeepsLastRoster(t *testing.T) {
	backend := &fakeStaffBackend{
		stand:      laserStand(),
		rosters:    [][]queue.Player{{{ID: 2, Login: "ann"}}},
		rosterErrs: []error{nil, errors.New("backend down")},
	}
	view := &recordingView{}
	m := newMonitor(backend, view, 1, time.Second, clockwork.NewFakeClock(), nil)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Stop()

	waitFor(t, time.Second, func() bool { return view.count() >= 1 })
	m.RequestRefresh()
	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&backend.calls) >= 2 })
	if view.count() != 1 {
		t.Errorf("failed roster fetch should not emit a frame, got %d", view.count())
	}
}

func TestFinishRemovesServedPlayer(t *testing.T) {
	backend := &fakeStaffBackend{
		stand: laserStand(),
		rosters: [][]queue.Player{
			{{ID: 2, Login: "ann"}, {ID: 9, Login: "bob"}},
			{{ID: 9, Login: "bob"}},
		},
	}
	view := &recordingView{}
	m := newMonitor(backend, view, 1, time.Second, clockwork.NewFakeClock(), nil)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Stop()
	waitFor(t, time.Second, func() bool { return view.count() >= 1 })

	if err := m.Finish(context.Background()); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if got := atomic.LoadInt32(&backend.leaveCalls); got != 1 {
		t.Errorf("Finish should issue one delete, got %d", got)
	}

	// Finish schedules an immediate re-fetch that confirms the removal.
	waitFor(t, time.Second, func() bool {
		return view.count() >= 2 && len(view.last().Players) == 1
	})
	if view.last().Players[0].Login != "bob" {
		t.Errorf("next player should now be served: %+v", view.last().Players)
	}
}

func TestFinishOnEmptyQueueFails(t *testing.T) {
	backend := &fakeStaffBackend{stand: laserStand()}
	m := newMonitor(backend, &recordingView{}, 1, time.Second, clockwork.NewFakeClock(), nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Stop()

	if err := m.Finish(context.Background()); err == nil {
		t.Error("Finish on an empty queue should fail")
	}
}

func TestConcurrentRemovesSendOneDelete(t *testing.T) {
	backend := &fakeStaffBackend{
		stand:     laserStand(),
		rosters:   [][]queue.Player{{{ID: 2, Login: "ann"}}},
		leaveGate: make(chan struct{}),
	}
	m := newMonitor(backend, &recordingView{}, 1, time.Second, clockwork.NewFakeClock(), nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = m.Remove(context.Background(), 2)
	}()
	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&backend.leaveCalls) == 1 })

	if err := m.Remove(context.Background(), 2); err != nil {
		t.Errorf("duplicate remove should be a no-op, got %v", err)
	}
	close(backend.leaveGate)
	wg.Wait()

	if got := atomic.LoadInt32(&backend.leaveCalls); got != 1 {
		t.Errorf("backend saw %d deletes, want exactly 1", got)
	}
}
