package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/pong-tournament/models"
)

// Group stage points table.
const (
	PointsWin    = 3
	PointsOTWin  = 2
	PointsOTLoss = 1
)

// ApplyGroupResult records a finished group match, updates both teams'
// standings and re-sorts the table.
func ApplyGroupResult(g *models.Group, matchIndex int, result models.Result) error {
	if matchIndex < 0 || matchIndex >= len(g.Matches) {
		return fmt.Errorf("%w: group %s match %d", ErrMatchNotFound, g.Name, matchIndex)
	}
	m := &g.Matches[matchIndex]
	if !m.Playable() {
		return fmt.Errorf("%w: %s", ErrMatchNotPlayable, m.ID)
	}
	if err := checkParticipants(m.P1, m.P2, result); err != nil {
		return err
	}
	if !result.WinType.Valid() {
		return fmt.Errorf("%w: unknown win type %q", ErrResultMismatch, result.WinType)
	}

	winner := standingFor(g, result.Winner.Name)
	loser := standingFor(g, result.Loser.Name)
	if winner == nil || loser == nil {
		return fmt.Errorf("%w: team not in group %s", ErrResultMismatch, g.Name)
	}

	m.Record(result)
	for _, s := range []*models.Standing{winner, loser} {
		if s.PlayerStats == nil {
			s.PlayerStats = make(map[string]models.PlayerStats)
		}
	}

	winner.GamesPlayed++
	loser.GamesPlayed++

	switch result.WinType {
	case models.WinTypeShooter:
		winner.Points += PointsWin
		winner.Wins++
		winner.ShooterWins++
		loser.Losses++
	case models.WinTypeOT:
		winner.Points += PointsOTWin
		winner.OTWins++
		loser.Points += PointsOTLoss
		loser.OTLosses++
	default:
		winner.Points += PointsWin
		winner.Wins++
		loser.Losses++
	}

	wLeft, lLeft := result.CupsRemaining.Winner, result.CupsRemaining.Loser
	winner.CupsHit += models.CupsPerSide - lLeft
	winner.CupsLost += models.CupsPerSide - wLeft
	loser.CupsHit += models.CupsPerSide - wLeft
	loser.CupsLost += models.CupsPerSide - lLeft
	winner.CupDiff += wLeft - lLeft
	loser.CupDiff += lLeft - wLeft

	for _, hit := range result.CupHits {
		s := standingFor(g, hit.Team)
		if s == nil {
			continue
		}
		ps := s.PlayerStats[hit.Player]
		ps.CupsHit++
		s.PlayerStats[hit.Player] = ps
	}
	for _, s := range []*models.Standing{winner, loser} {
		for _, p := range s.Players {
			ps := s.PlayerStats[p]
			ps.GamesPlayed++
			s.PlayerStats[p] = ps
		}
	}

	SortStandings(g)
	return nil
}

// SortStandings orders the table by points, shooter wins, cup differential
// and head-to-head. The order is rebuilt from the group's team order every
// time so equal rows always land the same way.
func SortStandings(g *models.Group) {
	byName := make(map[string]models.Standing, len(g.Standings))
	for _, s := range g.Standings {
		byName[s.Name] = s
	}
	ordered := make([]models.Standing, 0, len(g.Standings))
	for _, t := range g.Teams {
		if s, ok := byName[t.Name]; ok {
			ordered = append(ordered, s)
			delete(byName, t.Name)
		}
	}
	// Rows without a team entry keep their relative order at the end.
	for _, s := range g.Standings {
		if _, ok := byName[s.Name]; ok {
			ordered = append(ordered, s)
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.ShooterWins != b.ShooterWins {
			return a.ShooterWins > b.ShooterWins
		}
		if a.CupDiff != b.CupDiff {
			return a.CupDiff > b.CupDiff
		}
		return headToHeadWinner(g, a.Name, b.Name) == a.Name
	})
	g.Standings = ordered
}

// Advancing returns the teams in the top AdvancingCount rows.
func Advancing(g models.Group) []models.Team {
	n := g.AdvancingCount
	if n > len(g.Standings) {
		n = len(g.Standings)
	}
	out := make([]models.Team, 0, n)
	for _, s := range g.Standings[:n] {
		if t, ok := g.Team(s.Name); ok {
			out = append(out, t.Clone())
		} else {
			out = append(out, models.Team{Name: s.Name, Players: append([]string(nil), s.Players...)})
		}
	}
	return out
}

// GroupStageComplete reports whether every match in every group is decided.
func GroupStageComplete(groups []models.Group) bool {
	if len(groups) == 0 {
		return false
	}
	for _, g := range groups {
		if !g.Complete() {
			return false
		}
	}
	return true
}

func headToHeadWinner(g *models.Group, a, b string) string {
	for _, m := range g.Matches {
		if m.Winner == nil || !m.Involves(a) || !m.Involves(b) {
			continue
		}
		return m.Winner.Name
	}
	return ""
}

func standingFor(g *models.Group, name string) *models.Standing {
	for i := range g.Standings {
		if g.Standings[i].Name == name {
			return &g.Standings[i]
		}
	}
	return nil
}
