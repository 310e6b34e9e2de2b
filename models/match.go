package models

import (
	"slices"
	"time"
)

// MatchStatus is the persisted lifecycle status of a match.
type MatchStatus string

const (
	MatchStatusUpcoming   MatchStatus = "upcoming"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusWeighIn    MatchStatus = "weigh_in"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusCancelled  MatchStatus = "cancelled"
)

// IsValid reports whether s is one of the known statuses.
func (s MatchStatus) IsValid() bool {
	switch s {
	case MatchStatusUpcoming, MatchStatusInProgress, MatchStatusWeighIn, MatchStatusCompleted, MatchStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status can no longer change with time.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusCancelled
}

// Match is a single fishing match. Date is a calendar date and the time fields
// are local times of day in HH:MM form, exactly as stored.
type Match struct {
	ID                string      `json:"id" db:"id"`
	SeriesID          string      `json:"series_id,omitempty" db:"series_id"`
	ClubID            string      `json:"club_id" db:"club_id"`
	Name              string      `json:"name" db:"name"`
	Venue             *string     `json:"venue,omitempty" db:"venue"`
	Date              string      `json:"date" db:"match_date"`
	DrawTime          string      `json:"draw_time" db:"draw_time"`
	StartTime         string      `json:"start_time" db:"start_time"`
	EndTime           string      `json:"end_time" db:"end_time"`
	Capacity          int         `json:"capacity" db:"capacity"`
	PaidPlaces        int         `json:"paid_places" db:"paid_places"`
	Status            MatchStatus `json:"status" db:"status"`
	RegisteredAnglers []string    `json:"registered_anglers" db:"-"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

// IsRegistered reports whether the angler is currently on the match roster.
func (m *Match) IsRegistered(anglerID string) bool {
	return slices.Contains(m.RegisteredAnglers, anglerID)
}

// RosterSet returns the registered anglers as a set.
func (m *Match) RosterSet() map[string]struct{} {
	set := make(map[string]struct{}, len(m.RegisteredAnglers))
	for _, id := range m.RegisteredAnglers {
		set[id] = struct{}{}
	}
	return set
}

// IsFull reports whether the roster has reached capacity. A zero capacity
// means the match does not take registrations.
func (m *Match) IsFull() bool {
	return len(m.RegisteredAnglers) >= m.Capacity
}
