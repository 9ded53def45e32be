package main

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"standwatch/internal/queue"
	"standwatch/internal/reconcile"
	"standwatch/internal/staff"
)

const clearScreen = "\033[H\033[2J"

// terminalRenderer paints the live membership view. On a TTY each frame
// redraws in place; otherwise only deltas are appended so piped output
// stays readable.
type terminalRenderer struct {
	out io.Writer
	tty bool

	mu sync.Mutex
}

func newTerminalRenderer(out io.Writer, tty bool) *terminalRenderer {
	return &terminalRenderer{out: out, tty: tty}
}

func (r *terminalRenderer) Render(instr reconcile.Instruction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tty {
		fmt.Fprint(r.out, clearScreen)
		if len(instr.All) == 0 {
			fmt.Fprintln(r.out, "You are not in any queues (Ctrl-C to quit)")
			return
		}
		memberships := make([]queue.Membership, 0, len(instr.All))
		for _, e := range instr.All {
			memberships = append(memberships, e.Membership)
		}
		fmt.Fprintln(r.out, renderMembershipTable(memberships))
		fmt.Fprintln(r.out, `Commands: "leave <stand-id>", "refresh", "quit"`)
		return
	}

	for _, e := range instr.Added {
		fmt.Fprintf(r.out, "%s: entered view, %d ahead, %s\n",
			e.Membership.StandName, e.Projection.DisplayPosition, formatWait(e.Projection.WaitMinutes))
	}
	for _, e := range instr.Updated {
		fmt.Fprintf(r.out, "%s: %d ahead, %s\n",
			e.Membership.StandName, e.Projection.DisplayPosition, formatWait(e.Projection.WaitMinutes))
	}
	for _, id := range instr.RemovedIDs {
		fmt.Fprintf(r.out, "stand %d: left the queue\n", id)
	}
}

// staffView paints one stand's roster for the staff console.
type staffView struct {
	out io.Writer
	tty bool

	mu sync.Mutex
}

func newStaffView(out io.Writer, tty bool) *staffView {
	return &staffView{out: out, tty: tty}
}

func (v *staffView) Render(roster staff.Roster) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.tty {
		fmt.Fprint(v.out, clearScreen)
	}
	fmt.Fprintf(v.out, "%s: %d in queue, %s to clear\n", roster.StandName, len(roster.Players), formatWait(roster.WaitMinutes))
	if len(roster.Players) == 0 {
		fmt.Fprintln(v.out, "Queue is empty")
		return
	}
	rows := make([][]string, 0, len(roster.Players))
	for i, p := range roster.Players {
		marker := ""
		if i == 0 {
			marker = "serving"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(p.ID, 10),
			p.Login,
			marker,
		})
	}
	fmt.Fprintln(v.out, renderTable(
		[]string{"Pos", "ID", "Login", ""},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft},
	))
	if v.tty {
		fmt.Fprintln(v.out, `Commands: "finish", "remove <user-id>", "refresh", "quit"`)
	}
}
