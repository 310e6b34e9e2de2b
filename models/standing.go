package models

// Standing is an angler's derived row in a series league table. It is
// recomputed on demand and never persisted.
type Standing struct {
	SeriesID      string                  `json:"series_id"`
	AnglerID      string                  `json:"angler_id"`
	AnglerName    string                  `json:"angler_name,omitempty"`
	TotalRank     int                     `json:"total_rank"`
	Rank          int                     `json:"rank"`
	MatchesFished int                     `json:"matches_fished"`
	Matches       []StandingMatchPosition `json:"matches"`
}

// StandingMatchPosition is one match's contribution to a Standing.
type StandingMatchPosition struct {
	MatchID         string `json:"match_id"`
	Section         string `json:"section,omitempty"`
	SectionPosition int    `json:"section_position"`
}
