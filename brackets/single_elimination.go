package brackets

import (
	"fmt"

	"github.com/Dosada05/pong-tournament/models"
)

// GenerateBracket pairs the seeded list sequentially into round 0 and lays
// out empty rounds down to the final. An odd list gets a synthetic Bye, and
// matches against it are decided on creation.
func GenerateBracket(teams []models.Team) (*models.Bracket, error) {
	if len(teams) < 2 {
		return nil, fmt.Errorf("%w: a bracket needs at least 2 teams, got %d", ErrNotEnoughTeams, len(teams))
	}
	if err := checkUnique(teams); err != nil {
		return nil, err
	}

	entries := models.CloneTeams(teams)
	if len(entries)%2 != 0 {
		entries = append(entries, models.ByeTeam())
	}

	first := make([]models.Match, 0, len(entries)/2)
	for i := 0; i < len(entries); i += 2 {
		p1, p2 := entries[i].Clone(), entries[i+1].Clone()
		m := models.Match{ID: bracketMatchID(0, i/2), P1: &p1, P2: &p2}
		switch {
		case p2.IsBye():
			w := p1.Clone()
			m.Winner = &w
		case p1.IsBye():
			w := p2.Clone()
			m.Winner = &w
		}
		first = append(first, m)
	}

	b := &models.Bracket{Rounds: [][]models.Match{first}}
	for size, r := len(first), 1; size > 1; r++ {
		size = (size + 1) / 2
		round := make([]models.Match, size)
		for i := range round {
			round[i] = models.Match{ID: bracketMatchID(r, i)}
		}
		b.Rounds = append(b.Rounds, round)
	}

	for i, m := range first {
		if m.Winner != nil {
			propagate(b, 0, i)
		}
	}
	return b, nil
}

// Advance records the result of a bracket match and moves the winner into
// the next round. Semifinal losers are routed to the third place match.
func Advance(b *models.Bracket, roundIndex, matchIndex int, result models.Result) error {
	if roundIndex < 0 || roundIndex >= len(b.Rounds) || matchIndex < 0 || matchIndex >= len(b.Rounds[roundIndex]) {
		return fmt.Errorf("%w: round %d match %d", ErrMatchNotFound, roundIndex, matchIndex)
	}
	m := &b.Rounds[roundIndex][matchIndex]
	if !m.Playable() {
		return fmt.Errorf("%w: %s", ErrMatchNotPlayable, m.ID)
	}
	if err := checkParticipants(m.P1, m.P2, result); err != nil {
		return err
	}

	m.Record(result)
	if roundIndex == len(b.Rounds)-2 {
		loser := result.Loser.Clone()
		if b.ThirdPlace == nil {
			b.ThirdPlace = &models.ThirdPlaceMatch{P1: &loser}
		} else {
			b.ThirdPlace.P2 = &loser
		}
	}
	propagate(b, roundIndex, matchIndex)
	return nil
}

// AdvanceThirdPlace records the third place result. Both semifinal losers
// must be known.
func AdvanceThirdPlace(b *models.Bracket, result models.Result) error {
	if b.ThirdPlace == nil || !b.ThirdPlace.Playable() {
		return fmt.Errorf("%w: third place match", ErrMatchNotPlayable)
	}
	if err := checkParticipants(b.ThirdPlace.P1, b.ThirdPlace.P2, result); err != nil {
		return err
	}
	w := result.Winner.Clone()
	b.ThirdPlace.Winner = &w
	return nil
}

// MatchAt returns a copy of the bracket match at the given position.
func MatchAt(b *models.Bracket, roundIndex, matchIndex int) (models.Match, error) {
	if b == nil || roundIndex < 0 || roundIndex >= len(b.Rounds) || matchIndex < 0 || matchIndex >= len(b.Rounds[roundIndex]) {
		return models.Match{}, fmt.Errorf("%w: round %d match %d", ErrMatchNotFound, roundIndex, matchIndex)
	}
	return b.Rounds[roundIndex][matchIndex].Clone(), nil
}

// propagate writes the winner of Rounds[r][i] into round r+1. A next-round
// match fed by a single earlier match is a structural bye and is decided as
// soon as its only feeder resolves.
func propagate(b *models.Bracket, r, i int) {
	winner := b.Rounds[r][i].Winner
	if r+1 >= len(b.Rounds) {
		b.Champion = models.CloneTeamPtr(winner)
		return
	}

	next := i / 2
	slot := models.CloneTeamPtr(winner)
	if i%2 == 0 {
		b.Rounds[r+1][next].P1 = slot
	} else {
		b.Rounds[r+1][next].P2 = slot
	}

	nm := &b.Rounds[r+1][next]
	if 2*next+1 >= len(b.Rounds[r]) && nm.Winner == nil && nm.P1 != nil {
		nm.Winner = models.CloneTeamPtr(nm.P1)
		propagate(b, r+1, next)
	}
}

func checkParticipants(p1, p2 *models.Team, result models.Result) error {
	w, l := result.Winner.Name, result.Loser.Name
	if (p1.Name == w && p2.Name == l) || (p2.Name == w && p1.Name == l) {
		return nil
	}
	return fmt.Errorf("%w: %s vs %s, got winner %s loser %s", ErrResultMismatch, p1.Name, p2.Name, w, l)
}

func checkUnique(teams []models.Team) error {
	seen := make(map[string]struct{}, len(teams))
	for _, t := range teams {
		if _, ok := seen[t.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTeam, t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	return nil
}
