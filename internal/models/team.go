package models

// TeamStats holds a team's season-level averages as supplied by the live
// stats collaborator.
type TeamStats struct {
	PointsPerGame float64 `json:"points_per_game"`
	Rebounds      float64 `json:"rebounds"`
	Assists       float64 `json:"assists"`
	Turnovers     float64 `json:"turnovers"`
	FieldGoalPct  float64 `json:"field_goal_pct"`
}

// TeamSnapshot is the live state of one side of a matchup. Stats is a
// pointer on purpose: an absent stats block is a validation error, which is
// different from a block whose fields are all zero.
type TeamSnapshot struct {
	Abbreviation string     `json:"abbreviation" validate:"required"`
	TeamID       int64      `json:"teamId"`
	Stats        *TeamStats `json:"stats" validate:"required"`
	Roll5Pts     float64    `json:"roll5_pts"`
	Roll5Reb     float64    `json:"roll5_reb"`
	Roll5Ast     float64    `json:"roll5_ast"`
	Elo          float64    `json:"elo"`
	Injuries     int        `json:"injuries"`
}

// Matchup is an ordered (home, away) pair of snapshots.
type Matchup struct {
	Home TeamSnapshot `json:"home" validate:"required"`
	Away TeamSnapshot `json:"away" validate:"required"`
}
