package models

import "time"

// Series groups matches whose section positions are summed into a league
// table. IsCompleted is set by organizers and never inferred.
type Series struct {
	ID          string    `json:"id" db:"id"`
	ClubID      string    `json:"club_id" db:"club_id"`
	Name        string    `json:"name" db:"name"`
	IsCompleted bool      `json:"is_completed" db:"is_completed"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
