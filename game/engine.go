package game

import (
	"fmt"
	"time"

	"github.com/Dosada05/pong-tournament/models"
)

const (
	// AttributionTimeout is how long a cup hit waits for a player before it is
	// credited to models.UnknownPlayer.
	AttributionTimeout = 15 * time.Second

	// MaxHistory bounds the undo stack. The oldest snapshot is dropped first.
	MaxHistory = 256
)

// Engine scores a single match. It is not safe for concurrent use; callers
// serialise access per tournament.
type Engine struct {
	state  State
	events []models.MatchEvent
}

// New starts a fresh match with every cup standing and the clock stopped.
func New(team1, team2 models.Team, timeLimit int) *Engine {
	if timeLimit <= 0 {
		timeLimit = models.DefaultGameTime
	}
	return &Engine{state: State{
		Team1:     team1.Clone(),
		Team2:     team2.Clone(),
		TimeLimit: timeLimit,
		Cups1:     fullRack(),
		Cups2:     fullRack(),
		TimeLeft:  timeLimit,
		History:   []Snapshot{},
		CupHits:   []models.CupHit{},
	}}
}

// Restore resumes a match from a saved state. Missing cup arrays are treated
// as a full rack.
func Restore(state State) *Engine {
	s := state.Clone()
	if s.Cups1 == nil {
		s.Cups1 = fullRack()
	}
	if s.Cups2 == nil {
		s.Cups2 = fullRack()
	}
	if s.History == nil {
		s.History = []Snapshot{}
	}
	if s.CupHits == nil {
		s.CupHits = []models.CupHit{}
	}
	return &Engine{state: s}
}

// State returns a deep copy of the current match state.
func (e *Engine) State() State {
	return e.state.Clone()
}

// TakeEvents drains the events produced since the last call.
func (e *Engine) TakeEvents() []models.MatchEvent {
	events := e.events
	e.events = nil
	return events
}

// ToggleCup flips one cup on side. Removing a standing cup credits the
// opposing side with a hit.
func (e *Engine) ToggleCup(side Side, index int, at time.Time) error {
	if !side.Valid() {
		return ErrInvalidSide
	}
	if index < 0 || index >= models.CupsPerSide {
		return fmt.Errorf("%w: %d", ErrInvalidCup, index)
	}
	s := &e.state
	if s.Outcome != nil {
		return ErrMatchDecided
	}

	e.pushHistory()
	if !s.IsActive && !s.SuddenDeath {
		s.IsActive = true
	}

	cups := s.cups(side)
	wasStanding := cups[index]
	cups[index] = !wasStanding
	if !wasStanding {
		return nil
	}

	hitter := side.Opponent()
	e.setStreak(hitter, e.streak(hitter)+1)
	e.setStreak(side, 0)
	e.openAttribution(hitter, index, at)

	switch {
	case s.SuddenDeath:
		e.decide(hitter, models.WinTypeOT)
	case countStanding(cups) == 0:
		e.decide(hitter, models.WinTypeShooter)
	}
	return nil
}

// Tick advances the match clock by one second.
func (e *Engine) Tick() {
	s := &e.state
	if !s.IsActive || s.SuddenDeath || s.Outcome != nil {
		return
	}
	if s.TimeLeft > 0 {
		s.TimeLeft--
	}
	if s.TimeLeft > 0 {
		return
	}
	e.expire()
}

// expire settles a match whose clock has run out: more cups standing wins,
// level cups go to sudden death.
func (e *Engine) expire() {
	s := &e.state
	r1, r2 := s.Remaining(Side1), s.Remaining(Side2)
	if r1 == r2 {
		s.SuddenDeath = true
		return
	}
	winner := Side1
	if r2 > r1 {
		winner = Side2
	}
	winType := models.WinTypeRegular
	if s.Remaining(winner.Opponent()) == 0 {
		winType = models.WinTypeShooter
	}
	e.decide(winner, winType)
}

// SetClock starts or pauses the match clock.
func (e *Engine) SetClock(running bool) error {
	if e.state.Outcome != nil {
		return ErrMatchDecided
	}
	e.state.IsActive = running
	return nil
}

// Undo restores the state saved before the last toggle or rearrange. It
// reports false when there is nothing to undo. The clock, the attribution log
// and any pending attribution are left alone, so a match whose time is up is
// decided again from the restored cups.
func (e *Engine) Undo() bool {
	s := &e.state
	if len(s.History) == 0 {
		return false
	}
	last := s.History[len(s.History)-1]
	s.History = s.History[:len(s.History)-1]

	s.Cups1 = cloneCups(last.Cups1)
	s.Cups2 = cloneCups(last.Cups2)
	s.Streak1 = last.Streak1
	s.Streak2 = last.Streak2
	s.SuddenDeath = last.SuddenDeath
	s.RearrangeUsed1 = last.RearrangeUsed1
	s.RearrangeUsed2 = last.RearrangeUsed2
	s.Formation1 = last.Formation1.clone()
	s.Formation2 = last.Formation2.clone()
	s.Outcome = nil
	// Time already ran out: settle again on the restored cups.
	if s.TimeLeft == 0 && !s.SuddenDeath {
		e.expire()
	}
	return true
}

// Rearrange lets side lay out the opponent's remaining cups in a named
// formation. Each side may do this once, and only when the opponent is down
// to four cups or fewer.
func (e *Engine) Rearrange(side Side, formation FormationType, at time.Time) error {
	if !side.Valid() {
		return ErrInvalidSide
	}
	s := &e.state
	if s.Outcome != nil {
		return ErrMatchDecided
	}
	if !s.CanRearrange(side) {
		return ErrRearrangeUnavailable
	}
	target := side.Opponent()
	remaining := s.Remaining(target)
	if formation.CupCount() != remaining {
		return fmt.Errorf("%w: %q with %d cups", ErrInvalidFormation, formation, remaining)
	}

	e.pushHistory()
	f := &Formation{Type: formation, Slots: standingIndices(s.cups(target))}
	if side == Side1 {
		s.RearrangeUsed1 = true
		s.Formation2 = f
	} else {
		s.RearrangeUsed2 = true
		s.Formation1 = f
	}

	team := s.Team(side).Name
	e.emit(models.EventTypeFormationChange, team, nil, "", fmt.Sprintf("%s chose %s", team, formation), at)
	return nil
}

// ResolveAttribution credits the pending hit to player, who must be on the
// hitting team's roster or be models.UnknownPlayer.
func (e *Engine) ResolveAttribution(player string, at time.Time) error {
	s := &e.state
	if s.Pending == nil {
		return ErrNoPendingAttribution
	}
	if player != models.UnknownPlayer && !s.Team(s.Pending.Side).HasPlayer(player) {
		return fmt.Errorf("%w: %q", ErrUnknownPlayer, player)
	}
	e.resolve(player, at)
	return nil
}

// ExpireAttribution is the timeout path. It only resolves the request with
// the given sequence number, so a stale timer never credits a later hit.
func (e *Engine) ExpireAttribution(seq int, at time.Time) bool {
	s := &e.state
	if s.Pending == nil || s.Pending.Seq != seq {
		return false
	}
	e.resolve(models.UnknownPlayer, at)
	return true
}

// EndGame ends the match by hand. Level cups outside sudden death latch
// sudden death and return ErrAmbiguousResult.
func (e *Engine) EndGame() error {
	s := &e.state
	if s.Outcome != nil {
		return ErrMatchDecided
	}
	r1, r2 := s.Remaining(Side1), s.Remaining(Side2)
	if r1 == r2 {
		s.SuddenDeath = true
		return ErrAmbiguousResult
	}
	winner := Side1
	if r2 > r1 {
		winner = Side2
	}
	var winType models.WinType
	switch {
	case s.SuddenDeath:
		winType = models.WinTypeOT
	case s.Remaining(winner.Opponent()) == 0:
		winType = models.WinTypeShooter
	default:
		winType = models.WinTypeRegular
	}
	e.decide(winner, winType)
	return nil
}

// Finalize produces the match result. Every hit must be attributed first.
func (e *Engine) Finalize() (models.Result, error) {
	s := e.state
	if s.Outcome == nil {
		return models.Result{}, ErrNoOutcome
	}
	if s.Pending != nil {
		return models.Result{}, ErrAttributionPending
	}
	winner := s.Outcome.Winner
	hits := make([]models.CupHit, len(s.CupHits))
	copy(hits, s.CupHits)
	return models.Result{
		Winner:  s.Team(winner).Clone(),
		Loser:   s.Team(winner.Opponent()).Clone(),
		WinType: s.Outcome.WinType,
		CupsRemaining: models.CupsRemaining{
			Winner: s.Remaining(winner),
			Loser:  s.Remaining(winner.Opponent()),
		},
		CupHits: hits,
	}, nil
}

func (e *Engine) decide(winner Side, winType models.WinType) {
	e.state.Outcome = &Outcome{Winner: winner, WinType: winType}
	e.state.IsActive = false
}

func (e *Engine) pushHistory() {
	s := &e.state
	s.History = append(s.History, s.snapshot())
	if len(s.History) > MaxHistory {
		s.History = append([]Snapshot(nil), s.History[len(s.History)-MaxHistory:]...)
	}
}

func (e *Engine) streak(side Side) int {
	if side == Side1 {
		return e.state.Streak1
	}
	return e.state.Streak2
}

func (e *Engine) setStreak(side Side, v int) {
	if side == Side1 {
		e.state.Streak1 = v
	} else {
		e.state.Streak2 = v
	}
}

func (e *Engine) openAttribution(hitter Side, cupIndex int, at time.Time) {
	s := &e.state
	if s.Pending != nil {
		e.resolve(models.UnknownPlayer, at)
	}
	s.AttributionSeq++
	s.Pending = &PendingAttribution{
		Seq:      s.AttributionSeq,
		Side:     hitter,
		Team:     s.Team(hitter).Name,
		CupIndex: cupIndex,
		OpenedAt: at,
		Deadline: at.Add(AttributionTimeout),
	}
}

func (e *Engine) resolve(player string, at time.Time) {
	s := &e.state
	p := s.Pending
	s.CupHits = append(s.CupHits, models.CupHit{
		Player:    player,
		Team:      p.Team,
		CupIndex:  p.CupIndex,
		Timestamp: at,
	})
	s.Pending = nil

	cup := fmt.Sprintf("Cup %d", p.CupIndex+1)
	name := player
	e.emit(models.EventTypeHit, p.Team, &name, cup, fmt.Sprintf("%s hit %s", player, cup), at)
}

func (e *Engine) emit(eventType, team string, player *string, cup, notes string, at time.Time) {
	s := e.state
	elapsed := s.TimeLimit - s.TimeLeft
	if elapsed < 0 {
		elapsed = 0
	}
	phase := models.PhaseRegulation
	if s.SuddenDeath {
		phase = models.PhaseOvertime
	}
	e.events = append(e.events, models.MatchEvent{
		HitNumber:   len(s.CupHits),
		GameTimeStr: fmt.Sprintf("%02d:%02d", elapsed/60, elapsed%60),
		GameTimeSec: elapsed,
		Phase:       phase,
		EventType:   eventType,
		TeamName:    team,
		PlayerName:  player,
		CupHit:      cup,
		CupsLeft:    fmt.Sprintf("%d-%d", s.Remaining(Side1), s.Remaining(Side2)),
		Notes:       notes,
		CreatedAt:   at,
	})
}
