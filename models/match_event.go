package models

import "time"

const (
	EventTypeHit             = "Hit"
	EventTypeFormationChange = "Formation Change"

	PhaseRegulation = "Regulation"
	PhaseOvertime   = "Overtime"
)

// MatchEvent is an append-only log row describing a notable in-game action.
// The engine never reads these back.
type MatchEvent struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	MatchID      string    `json:"match_id" db:"match_id"`
	HitNumber    int       `json:"hit_number" db:"hit_number"`
	GameTimeStr  string    `json:"game_time_str" db:"game_time_str"`
	GameTimeSec  int       `json:"game_time_sec" db:"game_time_sec"`
	Phase        string    `json:"phase" db:"phase"`
	EventType    string    `json:"event_type" db:"event_type"`
	TeamName     string    `json:"team_name" db:"team_name"`
	PlayerName   *string   `json:"player_name,omitempty" db:"player_name"`
	CupHit       string    `json:"cup_hit" db:"cup_hit"`
	CupsLeft     string    `json:"cups_left" db:"cups_left"`
	Notes        string    `json:"notes" db:"notes"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ShooterRow is one line of the top shooters leaderboard.
type ShooterRow struct {
	Player      string `json:"player"`
	Team        string `json:"team"`
	CupsHit     int    `json:"cupsHit"`
	GamesPlayed int    `json:"gamesPlayed"`
}
