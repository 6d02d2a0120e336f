package tournament

import (
	"encoding/json"
	"fmt"

	"github.com/Dosada05/pong-tournament/game"
	"github.com/Dosada05/pong-tournament/models"
)

type View string

const (
	ViewInput        View = "input"
	ViewSetup        View = "setup"
	ViewGroups       View = "groups"
	ViewPlayoffSetup View = "playoffSetup"
	ViewBracket      View = "bracket"
	ViewGame         View = "game"
	ViewComplete     View = "complete"
)

func (v View) Valid() bool {
	switch v {
	case ViewInput, ViewSetup, ViewGroups, ViewPlayoffSetup, ViewBracket, ViewGame, ViewComplete:
		return true
	}
	return false
}

// ThirdPlaceMatchID names the third place match in event rows.
const ThirdPlaceMatchID = "third-place"

// State is everything needed to restore a tournament. It is treated as a
// value: Apply never mutates the state it is given.
type State struct {
	View               View                     `json:"view"`
	Teams              []models.Team            `json:"teams"`
	Matches            [][]models.Match         `json:"matches"`
	Groups             []models.Group           `json:"groups"`
	TournamentConfig   *models.TournamentConfig `json:"tournamentConfig"`
	Winner             *models.Team             `json:"winner"`
	ThirdPlaceMatch    *models.ThirdPlaceMatch  `json:"thirdPlaceMatch"`
	PlayoffGameTime    int                      `json:"playoffGameTime"`
	CurrentMatchIndex  *models.CurrentMatch     `json:"currentMatchIndex"`
	GameState          *game.State              `json:"gameState"`
	PlayoffPlayerStats models.TeamPlayerStats   `json:"playoffPlayerStats"`

	// Outbox holds the match events produced by the last Apply call.
	Outbox []models.MatchEvent `json:"-"`
}

// NewState returns the state of a tournament that has not been set up yet.
func NewState() State {
	return State{
		View:               ViewInput,
		Teams:              []models.Team{},
		Matches:            [][]models.Match{},
		Groups:             []models.Group{},
		PlayoffGameTime:    models.DefaultGameTime,
		PlayoffPlayerStats: models.TeamPlayerStats{},
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := State{
		View:               s.View,
		Teams:              models.CloneTeams(s.Teams),
		Groups:             models.CloneGroups(s.Groups),
		Winner:             models.CloneTeamPtr(s.Winner),
		ThirdPlaceMatch:    s.ThirdPlaceMatch.Clone(),
		PlayoffGameTime:    s.PlayoffGameTime,
		PlayoffPlayerStats: s.PlayoffPlayerStats.Clone(),
	}
	if s.Matches != nil {
		c.Matches = make([][]models.Match, len(s.Matches))
		for r, round := range s.Matches {
			c.Matches[r] = make([]models.Match, len(round))
			for i, m := range round {
				c.Matches[r][i] = m.Clone()
			}
		}
	}
	if s.TournamentConfig != nil {
		cfg := *s.TournamentConfig
		c.TournamentConfig = &cfg
	}
	if s.CurrentMatchIndex != nil {
		ref := *s.CurrentMatchIndex
		c.CurrentMatchIndex = &ref
	}
	if s.GameState != nil {
		gs := s.GameState.Clone()
		c.GameState = &gs
	}
	if s.Outbox != nil {
		c.Outbox = make([]models.MatchEvent, len(s.Outbox))
		copy(c.Outbox, s.Outbox)
	}
	return c
}

// Validate checks a snapshot coming from outside before it replaces the live
// state.
func (s State) Validate() error {
	if !s.View.Valid() {
		return fmt.Errorf("%w: unknown view %q", ErrInvalidState, s.View)
	}
	if s.TournamentConfig != nil && !s.TournamentConfig.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidState, s.TournamentConfig.Mode)
	}
	if s.View == ViewGame {
		if s.GameState == nil || s.CurrentMatchIndex == nil || s.CurrentMatchIndex.Ref == nil {
			return fmt.Errorf("%w: game view without a live match", ErrInvalidState)
		}
		if err := s.GameState.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidState, err)
		}
	}
	return nil
}

// Decode parses a JSON snapshot.
func Decode(data []byte) (State, error) {
	s := NewState()
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	if s.PlayoffPlayerStats == nil {
		s.PlayoffPlayerStats = models.TeamPlayerStats{}
	}
	if err := s.Validate(); err != nil {
		return State{}, err
	}
	return s, nil
}

// CurrentRef returns the match being played, if any.
func (s State) CurrentRef() models.MatchRef {
	if s.CurrentMatchIndex == nil {
		return nil
	}
	return s.CurrentMatchIndex.Ref
}

// CurrentMatchID returns the id of the match being played, or "".
func (s State) CurrentMatchID() string {
	switch ref := s.CurrentRef().(type) {
	case models.GroupMatchRef:
		if ref.GroupIndex < len(s.Groups) && ref.MatchIndex < len(s.Groups[ref.GroupIndex].Matches) {
			return s.Groups[ref.GroupIndex].Matches[ref.MatchIndex].ID
		}
	case models.BracketMatchRef:
		if ref.RoundIndex < len(s.Matches) && ref.MatchIndex < len(s.Matches[ref.RoundIndex]) {
			return s.Matches[ref.RoundIndex][ref.MatchIndex].ID
		}
	case models.ThirdPlaceRef:
		return ThirdPlaceMatchID
	}
	return ""
}

// Mode returns the configured mode, or "" before the tournament starts.
func (s State) Mode() models.Mode {
	if s.TournamentConfig == nil {
		return ""
	}
	return s.TournamentConfig.Mode
}

// bracket views the flat snapshot fields as a models.Bracket.
func (s *State) bracket() *models.Bracket {
	return &models.Bracket{Rounds: s.Matches, ThirdPlace: s.ThirdPlaceMatch, Champion: s.Winner}
}

func (s *State) setBracket(b *models.Bracket) {
	s.Matches = b.Rounds
	s.ThirdPlaceMatch = b.ThirdPlace
	s.Winner = b.Champion
}
