package tournament

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/pong-tournament/brackets"
	"github.com/Dosada05/pong-tournament/game"
	"github.com/Dosada05/pong-tournament/models"
)

var at = time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)

func teamList(n int) []models.Team {
	teams := make([]models.Team, n)
	for i := range teams {
		teams[i] = models.Team{
			Name:    fmt.Sprintf("Team %d", i+1),
			Players: []string{fmt.Sprintf("P%da", i+1), fmt.Sprintf("P%db", i+1)},
		}
	}
	return teams
}

func mustApply(t *testing.T, s State, a Action) State {
	t.Helper()
	next, err := Apply(s, a)
	require.NoError(t, err, "action %s", a.Name())
	return next
}

func started(t *testing.T, n int, cfg models.TournamentConfig) State {
	t.Helper()
	s := mustApply(t, NewState(), SubmitTeams{Teams: teamList(n)})
	return mustApply(t, s, StartTournament{Config: cfg, Seed: 42})
}

// sweep plays the selected match out: winner clears every cup of the other
// side, crediting each hit to the winner's first player.
func sweep(t *testing.T, s State, ref models.MatchRef, winner game.Side) State {
	t.Helper()
	s = mustApply(t, s, SelectMatch{Ref: ref})
	require.Equal(t, ViewGame, s.View)
	player := s.GameState.Team(winner).Players[0]
	for cup := 0; cup < models.CupsPerSide; cup++ {
		s = mustApply(t, s, ToggleCup{Side: winner.Opponent(), Cup: cup, At: at})
		s = mustApply(t, s, ResolveAttribution{Player: player, At: at})
	}
	return mustApply(t, s, FinalizeMatch{})
}

func TestSubmitTeams(t *testing.T) {
	s := mustApply(t, NewState(), SubmitTeams{Teams: []models.Team{
		{Name: "  Red  ", Players: []string{"Ann", " ", "Bob"}},
		{Name: "Blue"},
	}})
	assert.Equal(t, ViewSetup, s.View)
	assert.Equal(t, "Red", s.Teams[0].Name)
	assert.Equal(t, []string{"Ann", "Bob"}, s.Teams[0].Players)

	tests := []struct {
		name  string
		teams []models.Team
	}{
		{name: "single team", teams: []models.Team{{Name: "A"}}},
		{name: "duplicate", teams: []models.Team{{Name: "A"}, {Name: "A"}}},
		{name: "reserved bye", teams: []models.Team{{Name: "A"}, {Name: "Bye"}}},
		{name: "reserved unknown", teams: []models.Team{{Name: "A"}, {Name: "unknown"}}},
		{name: "blank", teams: []models.Team{{Name: "A"}, {Name: " "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := NewState()
			after, err := Apply(before, SubmitTeams{Teams: tt.teams})
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, before, after)
		})
	}
}

func TestStartTournament_Validation(t *testing.T) {
	s := mustApply(t, NewState(), SubmitTeams{Teams: teamList(5)})

	_, err := Apply(s, StartTournament{Config: models.TournamentConfig{Mode: models.ModeGroups, NumGroups: 1, AdvancingPerGroup: 2}})
	assert.ErrorIs(t, err, ErrInvalidTransition, "group mode needs six teams")

	_, err = Apply(s, StartTournament{Config: models.TournamentConfig{Mode: "swiss"}})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s6 := mustApply(t, NewState(), SubmitTeams{Teams: teamList(6)})
	_, err = Apply(s6, StartTournament{Config: models.TournamentConfig{Mode: models.ModeGroups, NumGroups: 3, AdvancingPerGroup: 1}})
	assert.ErrorIs(t, err, brackets.ErrInvalidGroupConfig)

	_, err = Apply(NewState(), StartTournament{Config: models.TournamentConfig{Mode: models.ModePlayoffs}})
	assert.ErrorIs(t, err, ErrInvalidTransition, "teams must be submitted first")
}

func TestPlayoffsFlow(t *testing.T) {
	s := started(t, 4, models.TournamentConfig{Mode: models.ModePlayoffs, GameTime: 300})
	require.Equal(t, ViewBracket, s.View)
	assert.Equal(t, 300, s.PlayoffGameTime)
	require.Len(t, s.Matches, 2)

	// The final has no participants yet.
	before := s
	after, err := Apply(s, SelectMatch{Ref: models.BracketMatchRef{RoundIndex: 1, MatchIndex: 0}})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, err, brackets.ErrMatchNotPlayable)
	assert.Equal(t, before, after)

	s = sweep(t, s, models.BracketMatchRef{RoundIndex: 0, MatchIndex: 0}, game.Side1)
	assert.Equal(t, ViewBracket, s.View)
	assert.Nil(t, s.GameState)
	assert.Nil(t, s.CurrentMatchIndex)
	require.NotNil(t, s.ThirdPlaceMatch)
	assert.Equal(t, "Team 2", s.ThirdPlaceMatch.P1.Name)

	_, err = Apply(s, SelectMatch{Ref: models.BracketMatchRef{RoundIndex: 0, MatchIndex: 0}})
	assert.ErrorIs(t, err, brackets.ErrMatchNotPlayable, "decided matches are not replayed")
	_, err = Apply(s, SelectMatch{Ref: models.ThirdPlaceRef{}})
	assert.ErrorIs(t, err, brackets.ErrMatchNotPlayable, "third place needs both semifinal losers")

	s = sweep(t, s, models.BracketMatchRef{RoundIndex: 0, MatchIndex: 1}, game.Side2)
	assert.Equal(t, "Team 4", s.Matches[1][0].P2.Name)
	assert.Equal(t, "Team 3", s.ThirdPlaceMatch.P2.Name)

	s = sweep(t, s, models.ThirdPlaceRef{}, game.Side2)
	assert.Equal(t, "Team 3", s.ThirdPlaceMatch.Winner.Name)
	assert.Equal(t, ViewBracket, s.View)

	s = sweep(t, s, models.BracketMatchRef{RoundIndex: 1, MatchIndex: 0}, game.Side1)
	assert.Equal(t, ViewComplete, s.View)
	require.NotNil(t, s.Winner)
	assert.Equal(t, "Team 1", s.Winner.Name)

	// Team 1 won two playoff games with six hits each from its first player.
	assert.Equal(t, models.PlayerStats{CupsHit: 12, GamesPlayed: 2}, s.PlayoffPlayerStats["Team 1"]["P1a"])
	assert.Equal(t, models.PlayerStats{GamesPlayed: 2}, s.PlayoffPlayerStats["Team 1"]["P1b"])

	s = mustApply(t, s, Reset{})
	assert.Equal(t, NewState(), s)
}

func TestPlayoffsFlow_FinalBeforeThirdPlace(t *testing.T) {
	s := started(t, 4, models.TournamentConfig{Mode: models.ModePlayoffs})
	s = sweep(t, s, models.BracketMatchRef{RoundIndex: 0, MatchIndex: 0}, game.Side1)
	s = sweep(t, s, models.BracketMatchRef{RoundIndex: 0, MatchIndex: 1}, game.Side1)

	s = sweep(t, s, models.BracketMatchRef{RoundIndex: 1, MatchIndex: 0}, game.Side2)
	require.NotNil(t, s.Winner)
	assert.Equal(t, "Team 3", s.Winner.Name)
	assert.Equal(t, ViewBracket, s.View, "the third place match is still open")

	s = sweep(t, s, models.ThirdPlaceRef{}, game.Side1)
	assert.Equal(t, "Team 2", s.ThirdPlaceMatch.Winner.Name)
	assert.Equal(t, ViewComplete, s.View)

	_, err := Apply(s, SelectMatch{Ref: models.ThirdPlaceRef{}})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGroupsFlow(t *testing.T) {
	s := started(t, 6, models.TournamentConfig{Mode: models.ModeGroups, NumGroups: 2, AdvancingPerGroup: 2, GameTime: 240})
	require.Equal(t, ViewGroups, s.View)
	require.Len(t, s.Groups, 2)

	_, err := Apply(s, OpenPlayoffSetup{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = Apply(s, FinishGroupStage{})
	assert.ErrorIs(t, err, ErrInvalidTransition, "groups mode continues to playoffs")

	s = mustApply(t, s, SelectMatch{Ref: models.GroupMatchRef{GroupIndex: 0, MatchIndex: 0}})
	assert.Equal(t, 240, s.GameState.TimeLimit)
	s = mustApply(t, s, LeaveMatch{})

	for gi, g := range s.Groups {
		for mi := range g.Matches {
			// The first team listed in each pairing always wins.
			s = sweep(t, s, models.GroupMatchRef{GroupIndex: gi, MatchIndex: mi}, game.Side1)
			assert.Equal(t, ViewGroups, s.View)
		}
	}
	for _, g := range s.Groups {
		for _, st := range g.Standings {
			assert.Equal(t, 2, st.GamesPlayed, st.Name)
		}
	}

	s = mustApply(t, s, OpenPlayoffSetup{})
	assert.Equal(t, ViewPlayoffSetup, s.View)
	s = mustApply(t, s, GeneratePlayoffs{GameTime: 420})
	assert.Equal(t, ViewBracket, s.View)
	assert.Equal(t, 420, s.PlayoffGameTime)

	a, b := s.Groups[0].Standings, s.Groups[1].Standings
	r0 := s.Matches[0]
	require.Len(t, r0, 2)
	assert.Equal(t, [2]string{a[0].Name, b[1].Name}, [2]string{r0[0].P1.Name, r0[0].P2.Name})
	assert.Equal(t, [2]string{b[0].Name, a[1].Name}, [2]string{r0[1].P1.Name, r0[1].P2.Name})

	s = mustApply(t, s, SelectMatch{Ref: models.BracketMatchRef{RoundIndex: 0, MatchIndex: 0}})
	assert.Equal(t, 420, s.GameState.TimeLimit)
}

func TestGroupsOnlyFlow(t *testing.T) {
	s := started(t, 6, models.TournamentConfig{Mode: models.ModeGroupsOnly, NumGroups: 1, AdvancingPerGroup: 1})
	require.Len(t, s.Groups, 1)
	assert.Len(t, s.Groups[0].Matches, 15)
	assert.Equal(t, models.DefaultGameTime, s.TournamentConfig.GameTime)

	for mi := range s.Groups[0].Matches {
		s = sweep(t, s, models.GroupMatchRef{GroupIndex: 0, MatchIndex: mi}, game.Side1)
	}
	_, err := Apply(s, OpenPlayoffSetup{})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s = mustApply(t, s, FinishGroupStage{})
	assert.Equal(t, ViewComplete, s.View)
	require.NotNil(t, s.Winner)
	assert.Equal(t, s.Groups[0].Standings[0].Name, s.Winner.Name)
}

func TestLeaveMatchDiscardsGame(t *testing.T) {
	s := started(t, 2, models.TournamentConfig{Mode: models.ModePlayoffs})
	ref := models.BracketMatchRef{RoundIndex: 0, MatchIndex: 0}
	s = mustApply(t, s, SelectMatch{Ref: ref})
	s = mustApply(t, s, ToggleCup{Side: game.Side2, Cup: 0, At: at})
	s = mustApply(t, s, LeaveMatch{})

	assert.Equal(t, ViewBracket, s.View)
	assert.Nil(t, s.GameState)
	assert.Nil(t, s.Matches[0][0].Winner)

	s = mustApply(t, s, SelectMatch{Ref: ref})
	assert.Equal(t, 6, s.GameState.Remaining(game.Side2), "a new game starts from a full rack")

	_, err := Apply(s, SelectMatch{Ref: ref})
	assert.ErrorIs(t, err, ErrInvalidTransition, "only one live match")
}

func TestGameActionsOutsideGame(t *testing.T) {
	s := started(t, 2, models.TournamentConfig{Mode: models.ModePlayoffs})
	for _, a := range []Action{ToggleCup{Side: game.Side1}, Tick{}, Undo{}, EndGame{}, FinalizeMatch{}, LeaveMatch{}, SetClock{Running: true}} {
		_, err := Apply(s, a)
		assert.ErrorIs(t, err, ErrInvalidTransition, a.Name())
	}
	_, err := Apply(s, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEndGameLevelCups(t *testing.T) {
	s := started(t, 2, models.TournamentConfig{Mode: models.ModePlayoffs})
	s = mustApply(t, s, SelectMatch{Ref: models.BracketMatchRef{}})

	s = mustApply(t, s, EndGame{})
	assert.True(t, s.GameState.SuddenDeath)
	assert.Nil(t, s.GameState.Outcome)

	_, err := Apply(s, EndGame{})
	assert.ErrorIs(t, err, game.ErrAmbiguousResult)

	s = mustApply(t, s, ToggleCup{Side: game.Side1, Cup: 3, At: at})
	require.NotNil(t, s.GameState.Outcome)
	assert.Equal(t, models.WinTypeOT, s.GameState.Outcome.WinType)

	_, err = Apply(s, FinalizeMatch{})
	assert.ErrorIs(t, err, game.ErrAttributionPending)

	s = mustApply(t, s, ExpireAttribution{Seq: s.GameState.Pending.Seq, At: at.Add(game.AttributionTimeout)})
	s = mustApply(t, s, FinalizeMatch{})
	assert.Equal(t, ViewComplete, s.View)
	assert.Equal(t, "Team 2", s.Winner.Name)
	assert.Equal(t, models.WinTypeOT, *s.Matches[0][0].WinType)
	assert.Equal(t, 1, s.PlayoffPlayerStats["Team 2"][models.UnknownPlayer].CupsHit)
}

func TestOutboxCarriesMatchID(t *testing.T) {
	s := started(t, 4, models.TournamentConfig{Mode: models.ModePlayoffs})
	s = mustApply(t, s, SelectMatch{Ref: models.BracketMatchRef{RoundIndex: 0, MatchIndex: 1}})
	s = mustApply(t, s, ToggleCup{Side: game.Side1, Cup: 2, At: at})
	assert.Empty(t, s.Outbox)

	s = mustApply(t, s, ResolveAttribution{Player: "P4a", At: at})
	require.Len(t, s.Outbox, 1)
	ev := s.Outbox[0]
	assert.Equal(t, "r0-m1", ev.MatchID)
	assert.Equal(t, models.EventTypeHit, ev.EventType)
	assert.Equal(t, "Team 4", ev.TeamName)

	s = mustApply(t, s, Tick{})
	assert.Empty(t, s.Outbox, "outbox only holds the last action's events")
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := started(t, 6, models.TournamentConfig{Mode: models.ModeGroups, NumGroups: 2, AdvancingPerGroup: 1, GameTime: 120})
	s = sweep(t, s, models.GroupMatchRef{GroupIndex: 1, MatchIndex: 2}, game.Side2)
	s = mustApply(t, s, SelectMatch{Ref: models.GroupMatchRef{GroupIndex: 0, MatchIndex: 1}})
	s = mustApply(t, s, SetClock{Running: true})
	s = mustApply(t, s, Tick{})
	for _, cup := range []int{0, 1, 4} {
		s = mustApply(t, s, ToggleCup{Side: game.Side2, Cup: cup, At: at})
	}
	s = mustApply(t, s, Rearrange{Side: game.Side1, Formation: game.FormationPyramid12, At: at})
	s.Outbox = nil

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"view", "teams", "matches", "groups", "tournamentConfig", "winner", "thirdPlaceMatch", "playoffGameTime", "currentMatchIndex", "gameState", "playoffPlayerStats"} {
		assert.Contains(t, raw, key)
	}
	assert.JSONEq(t, `{"type":"group","groupIndex":0,"matchIndex":1}`, string(raw["currentMatchIndex"]))

	restored, err := Decode(data)
	require.NoError(t, err)
	if diff := cmp.Diff(s, restored); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	// The restored game resumes exactly where it stopped.
	restored = mustApply(t, restored, Undo{})
	assert.Nil(t, restored.GameState.Formation2)
	assert.Equal(t, 119, restored.GameState.TimeLeft)
	require.NotNil(t, restored.GameState.Pending)
}

func TestDecodeRejectsBrokenSnapshots(t *testing.T) {
	_, err := Decode([]byte(`{"view":"lobby"}`))
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = Decode([]byte(`{"view":"game"}`))
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = Decode([]byte(`{"view":"groups","currentMatchIndex":{"type":"final"}}`))
	assert.ErrorIs(t, err, ErrInvalidState)
}
