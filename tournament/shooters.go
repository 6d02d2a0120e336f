package tournament

import (
	"fmt"
	"sort"

	"github.com/Dosada05/pong-tournament/models"
)

type Phase string

const (
	PhaseAll      Phase = "all"
	PhaseGroups   Phase = "groups"
	PhasePlayoffs Phase = "playoffs"
)

// DefaultShooterLimit is the leaderboard length used when none is given.
const DefaultShooterLimit = 10

func ParsePhase(s string) (Phase, error) {
	switch Phase(s) {
	case "", PhaseAll:
		return PhaseAll, nil
	case PhaseGroups, PhasePlayoffs:
		return Phase(s), nil
	}
	return "", fmt.Errorf("unknown phase %q", s)
}

type ShooterFilter struct {
	Phase       Phase
	HideUnknown bool
	Limit       int
}

// TopShooters ranks players by cups hit. Group rows list every roster player
// plus Unknown when it has hits; playoff rows come from PlayoffPlayerStats.
// With PhaseAll the two are summed per team and player.
func TopShooters(s State, f ShooterFilter) []models.ShooterRow {
	var rows []models.ShooterRow
	switch f.Phase {
	case PhaseGroups:
		rows = groupShooters(s.Groups)
	case PhasePlayoffs:
		rows = playoffShooters(s.PlayoffPlayerStats)
	default:
		rows = mergeShooters(append(groupShooters(s.Groups), playoffShooters(s.PlayoffPlayerStats)...))
	}

	filtered := make([]models.ShooterRow, 0, len(rows))
	for _, r := range rows {
		if f.HideUnknown && r.Player == models.UnknownPlayer {
			continue
		}
		filtered = append(filtered, r)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.CupsHit != b.CupsHit {
			return a.CupsHit > b.CupsHit
		}
		if a.Team != b.Team {
			return a.Team < b.Team
		}
		return a.Player < b.Player
	})

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultShooterLimit
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}

func groupShooters(groups []models.Group) []models.ShooterRow {
	var rows []models.ShooterRow
	for _, g := range groups {
		for _, st := range g.Standings {
			for _, p := range st.Players {
				ps := st.PlayerStats[p]
				rows = append(rows, models.ShooterRow{Player: p, Team: st.Name, CupsHit: ps.CupsHit, GamesPlayed: ps.GamesPlayed})
			}
			if ps, ok := st.PlayerStats[models.UnknownPlayer]; ok {
				rows = append(rows, models.ShooterRow{Player: models.UnknownPlayer, Team: st.Name, CupsHit: ps.CupsHit, GamesPlayed: ps.GamesPlayed})
			}
		}
	}
	return rows
}

func playoffShooters(stats models.TeamPlayerStats) []models.ShooterRow {
	var rows []models.ShooterRow
	for team, players := range stats {
		for p, ps := range players {
			rows = append(rows, models.ShooterRow{Player: p, Team: team, CupsHit: ps.CupsHit, GamesPlayed: ps.GamesPlayed})
		}
	}
	return rows
}

func mergeShooters(rows []models.ShooterRow) []models.ShooterRow {
	type key struct{ team, player string }
	index := make(map[key]int, len(rows))
	var out []models.ShooterRow
	for _, r := range rows {
		k := key{r.Team, r.Player}
		if i, ok := index[k]; ok {
			out[i].CupsHit += r.CupsHit
			out[i].GamesPlayed += r.GamesPlayed
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}
