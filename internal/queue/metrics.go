package queue

// Projection holds the derived presentation values for a membership.
type Projection struct {
	WaitMinutes     int
	DisplayPosition int
}

// Project computes the wait estimate and displayed position for a membership.
// Pure and deterministic; safe to call any number of times per poll.
func Project(m Membership) Projection {
	return Projection{
		WaitMinutes:     WaitMinutes(m.PeopleAhead, m.DurationSeconds),
		DisplayPosition: m.PeopleAhead,
	}
}

// WaitMinutes projects a wait time from a queue length and per-turn service
// time, rounding up to whole minutes.
func WaitMinutes(peopleAhead, durationSeconds int) int {
	if peopleAhead <= 0 || durationSeconds <= 0 {
		return 0
	}
	seconds := peopleAhead * durationSeconds
	return (seconds + 59) / 60
}
