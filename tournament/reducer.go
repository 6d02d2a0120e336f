package tournament

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/Dosada05/pong-tournament/brackets"
	"github.com/Dosada05/pong-tournament/game"
	"github.com/Dosada05/pong-tournament/models"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidState      = errors.New("invalid tournament state")
)

// MinGroupModeTeams is the smallest field a group stage is run for.
const MinGroupModeTeams = 6

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, fmt.Sprintf(format, args...))
}

func rejected(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
}

// Apply returns the state that results from applying action to state. On
// error the original state is returned unchanged. Match events produced by
// the action are left in the returned state's Outbox.
func Apply(state State, action Action) (State, error) {
	next := state.Clone()
	next.Outbox = nil

	var err error
	switch a := action.(type) {
	case SubmitTeams:
		err = next.submitTeams(a)
	case StartTournament:
		err = next.start(a)
	case SelectMatch:
		err = next.selectMatch(a.Ref)
	case ToggleCup:
		err = next.play(func(e *game.Engine) error { return e.ToggleCup(a.Side, a.Cup, a.At) })
	case Tick:
		err = next.play(func(e *game.Engine) error { e.Tick(); return nil })
	case Undo:
		err = next.play(func(e *game.Engine) error { e.Undo(); return nil })
	case Rearrange:
		err = next.play(func(e *game.Engine) error { return e.Rearrange(a.Side, a.Formation, a.At) })
	case SetClock:
		err = next.play(func(e *game.Engine) error { return e.SetClock(a.Running) })
	case ResolveAttribution:
		err = next.play(func(e *game.Engine) error { return e.ResolveAttribution(a.Player, a.At) })
	case ExpireAttribution:
		err = next.play(func(e *game.Engine) error { e.ExpireAttribution(a.Seq, a.At); return nil })
	case EndGame:
		err = next.endGame()
	case FinalizeMatch:
		err = next.finalize()
	case LeaveMatch:
		err = next.leave()
	case OpenPlayoffSetup:
		err = next.openPlayoffSetup()
	case GeneratePlayoffs:
		err = next.generatePlayoffs(a.GameTime)
	case FinishGroupStage:
		err = next.finishGroupStage()
	case Reset:
		err = next.reset()
	case nil:
		err = invalid("no action")
	default:
		err = invalid("unsupported action %s", action.Name())
	}
	if err != nil {
		return state, err
	}
	return next, nil
}

func (s *State) submitTeams(a SubmitTeams) error {
	if s.View != ViewInput {
		return invalid("teams can only be entered before setup, view is %s", s.View)
	}
	teams, err := normalizeTeams(a.Teams)
	if err != nil {
		return err
	}
	s.Teams = teams
	s.View = ViewSetup
	return nil
}

func normalizeTeams(in []models.Team) ([]models.Team, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]models.Team, 0, len(in))
	for _, t := range in {
		name := strings.TrimSpace(t.Name)
		switch {
		case name == "":
			return nil, invalid("team name is empty")
		case strings.EqualFold(name, models.ByeTeamName), strings.EqualFold(name, models.UnknownPlayer):
			return nil, invalid("team name %q is reserved", name)
		}
		if _, ok := seen[name]; ok {
			return nil, invalid("duplicate team %q", name)
		}
		seen[name] = struct{}{}

		players := make([]string, 0, len(t.Players))
		for _, p := range t.Players {
			if p = strings.TrimSpace(p); p != "" && p != models.UnknownPlayer {
				players = append(players, p)
			}
		}
		out = append(out, models.Team{Name: name, Players: players})
	}
	if len(out) < 2 {
		return nil, invalid("at least 2 teams are required, got %d", len(out))
	}
	return out, nil
}

func (s *State) start(a StartTournament) error {
	if s.View != ViewSetup {
		return invalid("tournament can only start from setup, view is %s", s.View)
	}
	cfg := a.Config
	if !cfg.Mode.Valid() {
		return invalid("unknown mode %q", cfg.Mode)
	}
	if cfg.GameTime <= 0 {
		cfg.GameTime = models.DefaultGameTime
	}

	if !cfg.Mode.HasGroups() {
		cfg.NumGroups, cfg.AdvancingPerGroup = 0, 0
		b, err := brackets.GenerateBracket(s.Teams)
		if err != nil {
			return rejected(err)
		}
		s.TournamentConfig = &cfg
		s.PlayoffGameTime = cfg.GameTime
		s.setBracket(b)
		s.View = ViewBracket
		return nil
	}

	if len(s.Teams) < MinGroupModeTeams {
		return invalid("group mode needs at least %d teams, got %d", MinGroupModeTeams, len(s.Teams))
	}
	groups, err := brackets.GenerateGroups(s.Teams, cfg.NumGroups, cfg.AdvancingPerGroup, rand.New(rand.NewSource(a.Seed)))
	if err != nil {
		return rejected(err)
	}
	s.TournamentConfig = &cfg
	s.Groups = groups
	s.View = ViewGroups
	return nil
}

func (s *State) selectMatch(ref models.MatchRef) error {
	var (
		p1, p2    *models.Team
		timeLimit int
	)
	switch r := ref.(type) {
	case models.GroupMatchRef:
		if s.View != ViewGroups {
			return invalid("group matches are played from the group stage, view is %s", s.View)
		}
		if r.GroupIndex < 0 || r.GroupIndex >= len(s.Groups) || r.MatchIndex < 0 || r.MatchIndex >= len(s.Groups[r.GroupIndex].Matches) {
			return rejected(fmt.Errorf("%w: %s", brackets.ErrMatchNotFound, r))
		}
		m := s.Groups[r.GroupIndex].Matches[r.MatchIndex]
		if !m.Playable() {
			return rejected(fmt.Errorf("%w: %s", brackets.ErrMatchNotPlayable, m.ID))
		}
		p1, p2 = m.P1, m.P2
		timeLimit = models.DefaultGameTime
		if s.TournamentConfig != nil {
			timeLimit = s.TournamentConfig.GameTime
		}
	case models.BracketMatchRef:
		if s.View != ViewBracket {
			return invalid("bracket matches are played from the bracket, view is %s", s.View)
		}
		m, err := brackets.MatchAt(s.bracket(), r.RoundIndex, r.MatchIndex)
		if err != nil {
			return rejected(err)
		}
		if !m.Playable() {
			return rejected(fmt.Errorf("%w: %s", brackets.ErrMatchNotPlayable, m.ID))
		}
		p1, p2 = m.P1, m.P2
		timeLimit = s.PlayoffGameTime
	case models.ThirdPlaceRef:
		if s.View != ViewBracket {
			return invalid("the third place match is played from the bracket, view is %s", s.View)
		}
		if s.ThirdPlaceMatch == nil || !s.ThirdPlaceMatch.Playable() {
			return rejected(fmt.Errorf("%w: third place match", brackets.ErrMatchNotPlayable))
		}
		p1, p2 = s.ThirdPlaceMatch.P1, s.ThirdPlaceMatch.P2
		timeLimit = s.PlayoffGameTime
	default:
		return invalid("unknown match reference %v", ref)
	}

	gs := game.New(*p1, *p2, timeLimit).State()
	s.GameState = &gs
	s.CurrentMatchIndex = &models.CurrentMatch{Ref: ref}
	s.View = ViewGame
	return nil
}

// play runs fn against the live match and collects its events.
func (s *State) play(fn func(e *game.Engine) error) error {
	if s.View != ViewGame || s.GameState == nil {
		return invalid("no match in progress, view is %s", s.View)
	}
	e := game.Restore(*s.GameState)
	if err := fn(e); err != nil {
		return rejected(err)
	}
	s.commitGame(e)
	return nil
}

func (s *State) commitGame(e *game.Engine) {
	gs := e.State()
	s.GameState = &gs
	matchID := s.CurrentMatchID()
	for _, ev := range e.TakeEvents() {
		ev.MatchID = matchID
		s.Outbox = append(s.Outbox, ev)
	}
}

// endGame ends the live match by hand. Level cups in regulation move the
// match into sudden death instead of failing.
func (s *State) endGame() error {
	if s.View != ViewGame || s.GameState == nil {
		return invalid("no match in progress, view is %s", s.View)
	}
	wasSuddenDeath := s.GameState.SuddenDeath
	e := game.Restore(*s.GameState)
	err := e.EndGame()
	switch {
	case err == nil:
	case errors.Is(err, game.ErrAmbiguousResult) && !wasSuddenDeath:
	case errors.Is(err, game.ErrAmbiguousResult):
		return err
	default:
		return rejected(err)
	}
	s.commitGame(e)
	return nil
}

func (s *State) finalize() error {
	if s.View != ViewGame || s.GameState == nil {
		return invalid("no match in progress, view is %s", s.View)
	}
	result, err := game.Restore(*s.GameState).Finalize()
	if err != nil {
		return rejected(err)
	}

	switch r := s.CurrentRef().(type) {
	case models.GroupMatchRef:
		if r.GroupIndex < 0 || r.GroupIndex >= len(s.Groups) {
			return rejected(fmt.Errorf("%w: %s", brackets.ErrMatchNotFound, r))
		}
		if err := brackets.ApplyGroupResult(&s.Groups[r.GroupIndex], r.MatchIndex, result); err != nil {
			return rejected(err)
		}
		s.View = ViewGroups
	case models.BracketMatchRef:
		b := s.bracket()
		if err := brackets.Advance(b, r.RoundIndex, r.MatchIndex, result); err != nil {
			return rejected(err)
		}
		s.setBracket(b)
		s.recordPlayoffStats(result)
		s.View = s.bracketView()
	case models.ThirdPlaceRef:
		b := s.bracket()
		if err := brackets.AdvanceThirdPlace(b, result); err != nil {
			return rejected(err)
		}
		s.setBracket(b)
		s.recordPlayoffStats(result)
		s.View = s.bracketView()
	default:
		return invalid("no current match")
	}

	s.GameState = nil
	s.CurrentMatchIndex = nil
	return nil
}

// bracketView is where a finished playoff match returns to. The tournament
// completes once the final is decided and no third place match is left to
// play, in whichever order the two were played.
func (s *State) bracketView() View {
	if !s.bracket().Complete() {
		return ViewBracket
	}
	if s.ThirdPlaceMatch != nil && s.ThirdPlaceMatch.Playable() {
		return ViewBracket
	}
	return ViewComplete
}

func (s *State) recordPlayoffStats(result models.Result) {
	if s.PlayoffPlayerStats == nil {
		s.PlayoffPlayerStats = models.TeamPlayerStats{}
	}
	teamStats := func(team string) map[string]models.PlayerStats {
		m, ok := s.PlayoffPlayerStats[team]
		if !ok {
			m = make(map[string]models.PlayerStats)
			s.PlayoffPlayerStats[team] = m
		}
		return m
	}
	for _, hit := range result.CupHits {
		m := teamStats(hit.Team)
		ps := m[hit.Player]
		ps.CupsHit++
		m[hit.Player] = ps
	}
	for _, t := range []models.Team{result.Winner, result.Loser} {
		m := teamStats(t.Name)
		for _, p := range t.Players {
			ps := m[p]
			ps.GamesPlayed++
			m[p] = ps
		}
	}
}

func (s *State) leave() error {
	if s.View != ViewGame {
		return invalid("no match in progress, view is %s", s.View)
	}
	s.View = ViewBracket
	if _, ok := s.CurrentRef().(models.GroupMatchRef); ok {
		s.View = ViewGroups
	}
	s.GameState = nil
	s.CurrentMatchIndex = nil
	return nil
}

func (s *State) openPlayoffSetup() error {
	if s.View != ViewGroups {
		return invalid("playoff setup follows the group stage, view is %s", s.View)
	}
	if s.Mode() != models.ModeGroups {
		return invalid("mode %s has no playoffs", s.Mode())
	}
	if !brackets.GroupStageComplete(s.Groups) {
		return invalid("group stage has undecided matches")
	}
	s.View = ViewPlayoffSetup
	return nil
}

func (s *State) generatePlayoffs(gameTime int) error {
	if s.View != ViewPlayoffSetup {
		return invalid("playoffs are generated from playoff setup, view is %s", s.View)
	}
	seeded, err := brackets.SeedFromGroups(s.Groups)
	if err != nil {
		return rejected(err)
	}
	b, err := brackets.GenerateBracket(seeded)
	if err != nil {
		return rejected(err)
	}
	if gameTime <= 0 {
		gameTime = models.DefaultGameTime
	}
	s.PlayoffGameTime = gameTime
	s.setBracket(b)
	s.View = ViewBracket
	return nil
}

// finishGroupStage closes a groups-only tournament. A single group crowns
// its table leader.
func (s *State) finishGroupStage() error {
	if s.View != ViewGroups {
		return invalid("view is %s", s.View)
	}
	if s.Mode() != models.ModeGroupsOnly {
		return invalid("only groups_only tournaments end after the group stage")
	}
	if !brackets.GroupStageComplete(s.Groups) {
		return invalid("group stage has undecided matches")
	}
	if len(s.Groups) == 1 && len(s.Groups[0].Standings) > 0 {
		if t, ok := s.Groups[0].Team(s.Groups[0].Standings[0].Name); ok {
			w := t.Clone()
			s.Winner = &w
		}
	}
	s.View = ViewComplete
	return nil
}

func (s *State) reset() error {
	if s.View != ViewComplete {
		return invalid("only a finished tournament can be reset, view is %s", s.View)
	}
	*s = NewState()
	return nil
}
