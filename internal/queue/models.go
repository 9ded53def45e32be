package queue

// Membership is one visitor's placement in one stand's queue.
//
// PeopleAhead counts the entries strictly ahead of the visitor. The backend
// wire format sometimes reports a 1-based slot index instead; that conversion
// happens in queueapi before a Membership is constructed, never here.
type Membership struct {
	StandID         int64
	StandName       string
	PeopleAhead     int
	DurationSeconds int
}

// Stand describes one exhibition station and its live queue fill.
type Stand struct {
	ID              int64
	Name            string
	Description     string
	CurrentPeople   int
	MaxSlots        int
	DurationSeconds int
}

// Player is one entry in a stand's staff-side roster. The first entry of a
// roster is the player currently being served.
type Player struct {
	ID    int64
	Login string
}
