package models

import "time"

// ResultStatus is the weigh-in outcome of an angler in a match.
type ResultStatus string

const (
	ResultStatusNYW ResultStatus = "NYW" // not yet weighed
	ResultStatusOK  ResultStatus = "OK"
	ResultStatusDNF ResultStatus = "DNF" // did not fish
	ResultStatusDNW ResultStatus = "DNW" // did not weigh
	ResultStatusDSQ ResultStatus = "DSQ" // disqualified
)

func (s ResultStatus) IsValid() bool {
	switch s {
	case ResultStatusNYW, ResultStatusOK, ResultStatusDNF, ResultStatusDNW, ResultStatusDSQ:
		return true
	}
	return false
}

// Result is the single weigh-in record of one angler in one match.
type Result struct {
	ID              string       `json:"id" db:"id"`
	MatchID         string       `json:"match_id" db:"match_id"`
	SeriesID        string       `json:"series_id,omitempty" db:"series_id"`
	ClubID          string       `json:"club_id" db:"club_id"`
	UserID          string       `json:"user_id" db:"user_id"`
	UserName        string       `json:"user_name" db:"user_name"`
	Peg             string       `json:"peg" db:"peg"`
	Section         string       `json:"section,omitempty" db:"section"`
	Weight          float64      `json:"weight" db:"weight"`
	Status          ResultStatus `json:"status" db:"status"`
	Position        *int         `json:"position,omitempty" db:"position"`
	SectionPosition *int         `json:"section_position,omitempty" db:"section_position"`
	UpdatedAt       time.Time    `json:"updated_at" db:"updated_at"`
}
