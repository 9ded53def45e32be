package queueapi

import "standwatch/internal/queue"

// membershipPayload is one row of GET /queue/{login}. Depending on backend
// version the queue length arrives as current_people (people strictly ahead)
// or position (1-based slot index); exactly one of the two is expected.
type membershipPayload struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	CurrentPeople   *int   `json:"current_people"`
	Position        *int   `json:"position"`
	DurationSeconds int    `json:"duration_seconds"`
}

func (p membershipPayload) toMembership() queue.Membership {
	ahead := 0
	switch {
	case p.CurrentPeople != nil:
		ahead = *p.CurrentPeople
	case p.Position != nil:
		// 1-based slot index: slot 1 means nobody ahead.
		ahead = *p.Position - 1
	}
	if ahead < 0 {
		ahead = 0
	}
	return queue.Membership{
		StandID:         p.ID,
		StandName:       p.Name,
		PeopleAhead:     ahead,
		DurationSeconds: p.DurationSeconds,
	}
}

type standPayload struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	CurrentPeople   int    `json:"current_people"`
	MaxSlots        int    `json:"max_slots"`
	DurationSeconds int    `json:"duration_seconds"`
}

func (p standPayload) toStand() queue.Stand {
	return queue.Stand{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		CurrentPeople:   p.CurrentPeople,
		MaxSlots:        p.MaxSlots,
		DurationSeconds: p.DurationSeconds,
	}
}

type playerPayload struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

type idPayload struct {
	ID int64 `json:"id"`
}

type changePayload struct {
	UserID int64 `json:"user_id"`
	GameID int64 `json:"game_id"`
}

type positionPayload struct {
	Position int `json:"position"`
}
