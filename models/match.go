package models

import "time"

type WinType string

const (
	WinTypeRegular WinType = "regular"
	WinTypeOT      WinType = "ot"
	WinTypeShooter WinType = "shooter"
)

func (w WinType) Valid() bool {
	switch w {
	case WinTypeRegular, WinTypeOT, WinTypeShooter:
		return true
	}
	return false
}

type CupsRemaining struct {
	Winner int `json:"winner"`
	Loser  int `json:"loser"`
}

// CupHit is one attributed cup removal. Team is the hitting team.
type CupHit struct {
	Player    string    `json:"player"`
	Team      string    `json:"team"`
	CupIndex  int       `json:"cupIndex"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is the terminal output of a match.
type Result struct {
	Winner        Team          `json:"winner"`
	Loser         Team          `json:"loser"`
	WinType       WinType       `json:"winType"`
	CupsRemaining CupsRemaining `json:"cupsRemaining"`
	CupHits       []CupHit      `json:"cupHits"`
}

// Match is a scheduled game. P1/P2 stay nil until an earlier round fills them.
type Match struct {
	ID            string         `json:"id"`
	P1            *Team          `json:"p1"`
	P2            *Team          `json:"p2"`
	Winner        *Team          `json:"winner"`
	WinType       *WinType       `json:"winType"`
	CupsRemaining *CupsRemaining `json:"cupsRemaining"`
}

// Playable reports whether both participants are known and nobody has won yet.
func (m Match) Playable() bool {
	return m.P1 != nil && m.P2 != nil && m.Winner == nil
}

func (m Match) Decided() bool {
	return m.Winner != nil
}

// Involves reports whether the team with the given name plays in m.
func (m Match) Involves(name string) bool {
	return (m.P1 != nil && m.P1.Name == name) || (m.P2 != nil && m.P2.Name == name)
}

// Record stores a result on the match.
func (m *Match) Record(result Result) {
	winner := result.Winner.Clone()
	winType := result.WinType
	cups := result.CupsRemaining
	m.Winner = &winner
	m.WinType = &winType
	m.CupsRemaining = &cups
}

// Loser returns the participant that is not the winner, if decided.
func (m Match) Loser() *Team {
	if m.Winner == nil {
		return nil
	}
	if m.P1 != nil && m.P1.Name != m.Winner.Name {
		return m.P1
	}
	if m.P2 != nil && m.P2.Name != m.Winner.Name {
		return m.P2
	}
	return nil
}

func (m Match) Clone() Match {
	c := Match{
		ID:     m.ID,
		P1:     CloneTeamPtr(m.P1),
		P2:     CloneTeamPtr(m.P2),
		Winner: CloneTeamPtr(m.Winner),
	}
	if m.WinType != nil {
		w := *m.WinType
		c.WinType = &w
	}
	if m.CupsRemaining != nil {
		cr := *m.CupsRemaining
		c.CupsRemaining = &cr
	}
	return c
}

// ThirdPlaceMatch is played by the two semifinal losers.
type ThirdPlaceMatch struct {
	P1     *Team `json:"p1"`
	P2     *Team `json:"p2"`
	Winner *Team `json:"winner"`
}

func (m ThirdPlaceMatch) Playable() bool {
	return m.P1 != nil && m.P2 != nil && m.Winner == nil
}

func (m *ThirdPlaceMatch) Clone() *ThirdPlaceMatch {
	if m == nil {
		return nil
	}
	return &ThirdPlaceMatch{P1: CloneTeamPtr(m.P1), P2: CloneTeamPtr(m.P2), Winner: CloneTeamPtr(m.Winner)}
}

// Bracket is the elimination tree, ordered round by round.
type Bracket struct {
	Rounds     [][]Match        `json:"rounds"`
	ThirdPlace *ThirdPlaceMatch `json:"thirdPlace"`
	Champion   *Team            `json:"champion"`
}

// Complete reports whether the final has been decided.
func (b Bracket) Complete() bool {
	if len(b.Rounds) == 0 {
		return false
	}
	last := b.Rounds[len(b.Rounds)-1]
	return len(last) == 1 && last[0].Winner != nil
}

func (b *Bracket) Clone() *Bracket {
	if b == nil {
		return nil
	}
	c := &Bracket{
		Rounds:     make([][]Match, len(b.Rounds)),
		ThirdPlace: b.ThirdPlace.Clone(),
		Champion:   CloneTeamPtr(b.Champion),
	}
	for r, round := range b.Rounds {
		c.Rounds[r] = make([]Match, len(round))
		for i, m := range round {
			c.Rounds[r][i] = m.Clone()
		}
	}
	return c
}
