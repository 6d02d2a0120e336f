package tournament

import (
	"time"

	"github.com/Dosada05/pong-tournament/game"
	"github.com/Dosada05/pong-tournament/models"
)

// Action is one user action or clock event fed to Apply.
type Action interface {
	Name() string
}

type (
	SubmitTeams struct {
		Teams []models.Team
	}

	// StartTournament fixes the configuration and generates the first stage.
	// Seed drives the group draw.
	StartTournament struct {
		Config models.TournamentConfig
		Seed   int64
	}

	SelectMatch struct {
		Ref models.MatchRef
	}

	ToggleCup struct {
		Side game.Side
		Cup  int
		At   time.Time
	}

	Tick struct{}

	Undo struct{}

	Rearrange struct {
		Side      game.Side
		Formation game.FormationType
		At        time.Time
	}

	SetClock struct {
		Running bool
	}

	ResolveAttribution struct {
		Player string
		At     time.Time
	}

	// ExpireAttribution is delivered by the attribution timer.
	ExpireAttribution struct {
		Seq int
		At  time.Time
	}

	EndGame struct{}

	FinalizeMatch struct{}

	// LeaveMatch drops the live match without recording anything.
	LeaveMatch struct{}

	OpenPlayoffSetup struct{}

	GeneratePlayoffs struct {
		GameTime int
	}

	FinishGroupStage struct{}

	Reset struct{}
)

func (SubmitTeams) Name() string        { return "submit_teams" }
func (StartTournament) Name() string    { return "start_tournament" }
func (SelectMatch) Name() string        { return "select_match" }
func (ToggleCup) Name() string          { return "toggle_cup" }
func (Tick) Name() string               { return "tick" }
func (Undo) Name() string               { return "undo" }
func (Rearrange) Name() string          { return "rearrange" }
func (SetClock) Name() string           { return "set_clock" }
func (ResolveAttribution) Name() string { return "resolve_attribution" }
func (ExpireAttribution) Name() string  { return "expire_attribution" }
func (EndGame) Name() string            { return "end_game" }
func (FinalizeMatch) Name() string      { return "finalize_match" }
func (LeaveMatch) Name() string         { return "leave_match" }
func (OpenPlayoffSetup) Name() string   { return "open_playoff_setup" }
func (GeneratePlayoffs) Name() string   { return "generate_playoffs" }
func (FinishGroupStage) Name() string   { return "finish_group_stage" }
func (Reset) Name() string              { return "reset" }
