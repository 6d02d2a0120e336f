package game

import (
	"fmt"
	"time"

	"github.com/Dosada05/pong-tournament/models"
)

// Side identifies one half of the table. Side1 is the match's first team.
type Side int

const (
	Side1 Side = 1
	Side2 Side = 2
)

func (s Side) Valid() bool {
	return s == Side1 || s == Side2
}

func (s Side) Opponent() Side {
	if s == Side1 {
		return Side2
	}
	return Side1
}

type FormationType string

const (
	FormationDiamond   FormationType = "diamond"
	FormationPyramid12 FormationType = "pyramid_1_2"
	FormationPyramid21 FormationType = "pyramid_2_1"
	FormationLineVert  FormationType = "line_vert"
	FormationLineHoriz FormationType = "line_horiz"
)

// CupCount returns how many standing cups the formation lays out, or 0 for an
// unknown formation.
func (f FormationType) CupCount() int {
	switch f {
	case FormationDiamond:
		return 4
	case FormationPyramid12, FormationPyramid21:
		return 3
	case FormationLineVert, FormationLineHoriz:
		return 2
	}
	return 0
}

// Formation overrides the layout of one side's remaining cups. Slots are the
// standing cup indices at the moment it was chosen.
type Formation struct {
	Type  FormationType `json:"type"`
	Slots []int         `json:"slots"`
}

func (f *Formation) clone() *Formation {
	if f == nil {
		return nil
	}
	slots := make([]int, len(f.Slots))
	copy(slots, f.Slots)
	return &Formation{Type: f.Type, Slots: slots}
}

// Snapshot is the undo record pushed before every toggle and rearrange.
type Snapshot struct {
	Cups1          []bool     `json:"cups1"`
	Cups2          []bool     `json:"cups2"`
	Streak1        int        `json:"streak1"`
	Streak2        int        `json:"streak2"`
	SuddenDeath    bool       `json:"suddenDeath"`
	RearrangeUsed1 bool       `json:"rearrangeUsed1"`
	RearrangeUsed2 bool       `json:"rearrangeUsed2"`
	Formation1     *Formation `json:"formation1"`
	Formation2     *Formation `json:"formation2"`
}

func (s Snapshot) clone() Snapshot {
	c := s
	c.Cups1 = cloneCups(s.Cups1)
	c.Cups2 = cloneCups(s.Cups2)
	c.Formation1 = s.Formation1.clone()
	c.Formation2 = s.Formation2.clone()
	return c
}

// PendingAttribution is an open "who hit this cup" request. Side is the
// hitting side.
type PendingAttribution struct {
	Seq      int       `json:"seq"`
	Side     Side      `json:"side"`
	Team     string    `json:"team"`
	CupIndex int       `json:"cupIndex"`
	OpenedAt time.Time `json:"openedAt"`
	Deadline time.Time `json:"deadline"`
}

// Outcome is set once a winner is known. The Result is built from it by Finalize.
type Outcome struct {
	Winner  Side           `json:"winner"`
	WinType models.WinType `json:"winType"`
}

// State is the full, serialisable state of one live match.
type State struct {
	Team1          models.Team         `json:"team1"`
	Team2          models.Team         `json:"team2"`
	TimeLimit      int                 `json:"timeLimit"`
	Cups1          []bool              `json:"cups1"`
	Cups2          []bool              `json:"cups2"`
	TimeLeft       int                 `json:"timeLeft"`
	IsActive       bool                `json:"isActive"`
	SuddenDeath    bool                `json:"suddenDeath"`
	Streak1        int                 `json:"streak1"`
	Streak2        int                 `json:"streak2"`
	History        []Snapshot          `json:"history"`
	RearrangeUsed1 bool                `json:"rearrangeUsed1"`
	RearrangeUsed2 bool                `json:"rearrangeUsed2"`
	Formation1     *Formation          `json:"formation1"`
	Formation2     *Formation          `json:"formation2"`
	CupHits        []models.CupHit     `json:"cupHits"`
	Pending        *PendingAttribution `json:"pendingAttribution"`
	AttributionSeq int                 `json:"attributionSeq"`
	Outcome        *Outcome            `json:"outcome"`
}

// Clone returns a deep copy sharing no slices or pointers with s.
func (s State) Clone() State {
	c := s
	c.Team1 = s.Team1.Clone()
	c.Team2 = s.Team2.Clone()
	c.Cups1 = cloneCups(s.Cups1)
	c.Cups2 = cloneCups(s.Cups2)
	c.Formation1 = s.Formation1.clone()
	c.Formation2 = s.Formation2.clone()
	if s.History != nil {
		c.History = make([]Snapshot, len(s.History))
		for i, snap := range s.History {
			c.History[i] = snap.clone()
		}
	}
	if s.CupHits != nil {
		c.CupHits = make([]models.CupHit, len(s.CupHits))
		copy(c.CupHits, s.CupHits)
	}
	if s.Pending != nil {
		p := *s.Pending
		c.Pending = &p
	}
	if s.Outcome != nil {
		o := *s.Outcome
		c.Outcome = &o
	}
	return c
}

// Validate checks a restored state for structural consistency.
func (s State) Validate() error {
	if len(s.Cups1) != models.CupsPerSide || len(s.Cups2) != models.CupsPerSide {
		return fmt.Errorf("%w: cup arrays must have %d entries", ErrInvalidState, models.CupsPerSide)
	}
	if s.TimeLeft < 0 || s.TimeLimit < 0 {
		return fmt.Errorf("%w: negative time", ErrInvalidState)
	}
	for i, snap := range s.History {
		if len(snap.Cups1) != models.CupsPerSide || len(snap.Cups2) != models.CupsPerSide {
			return fmt.Errorf("%w: history entry %d has malformed cups", ErrInvalidState, i)
		}
	}
	if s.Pending != nil && !s.Pending.Side.Valid() {
		return fmt.Errorf("%w: pending attribution side %d", ErrInvalidState, s.Pending.Side)
	}
	if s.Outcome != nil && (!s.Outcome.Winner.Valid() || !s.Outcome.WinType.Valid()) {
		return fmt.Errorf("%w: malformed outcome", ErrInvalidState)
	}
	return nil
}

// Remaining counts standing cups on the given side.
func (s State) Remaining(side Side) int {
	return countStanding(s.cups(side))
}

// Team returns the team playing on side.
func (s State) Team(side Side) models.Team {
	if side == Side1 {
		return s.Team1
	}
	return s.Team2
}

// CanRearrange reports whether side may still rearrange its opponent's cups.
func (s State) CanRearrange(side Side) bool {
	if s.Outcome != nil {
		return false
	}
	used := s.RearrangeUsed1
	if side == Side2 {
		used = s.RearrangeUsed2
	}
	return !used && s.Remaining(side.Opponent()) <= 4
}

func (s State) cups(side Side) []bool {
	if side == Side1 {
		return s.Cups1
	}
	return s.Cups2
}

func (s State) snapshot() Snapshot {
	return Snapshot{
		Cups1:          cloneCups(s.Cups1),
		Cups2:          cloneCups(s.Cups2),
		Streak1:        s.Streak1,
		Streak2:        s.Streak2,
		SuddenDeath:    s.SuddenDeath,
		RearrangeUsed1: s.RearrangeUsed1,
		RearrangeUsed2: s.RearrangeUsed2,
		Formation1:     s.Formation1.clone(),
		Formation2:     s.Formation2.clone(),
	}
}

func fullRack() []bool {
	cups := make([]bool, models.CupsPerSide)
	for i := range cups {
		cups[i] = true
	}
	return cups
}

func cloneCups(cups []bool) []bool {
	if cups == nil {
		return nil
	}
	out := make([]bool, len(cups))
	copy(out, cups)
	return out
}

func countStanding(cups []bool) int {
	n := 0
	for _, c := range cups {
		if c {
			n++
		}
	}
	return n
}

func standingIndices(cups []bool) []int {
	out := make([]int, 0, len(cups))
	for i, c := range cups {
		if c {
			out = append(out, i)
		}
	}
	return out
}
