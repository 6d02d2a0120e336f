package models

// PlayerStats aggregates one player's hits within a phase.
type PlayerStats struct {
	CupsHit     int `json:"cupsHit"`
	GamesPlayed int `json:"gamesPlayed"`
}

// Standing is one team's row in a group table.
type Standing struct {
	Name        string                 `json:"name"`
	Players     []string               `json:"players"`
	Points      int                    `json:"points"`
	Wins        int                    `json:"wins"`
	OTWins      int                    `json:"otWins"`
	OTLosses    int                    `json:"otLosses"`
	Losses      int                    `json:"losses"`
	ShooterWins int                    `json:"shooterWins"`
	CupDiff     int                    `json:"cupDiff"`
	CupsHit     int                    `json:"cupsHit"`
	CupsLost    int                    `json:"cupsLost"`
	GamesPlayed int                    `json:"gamesPlayed"`
	PlayerStats map[string]PlayerStats `json:"playerStats"`
}

// NewStanding returns a zeroed row for team.
func NewStanding(team Team) Standing {
	players := make([]string, len(team.Players))
	copy(players, team.Players)
	return Standing{
		Name:        team.Name,
		Players:     players,
		PlayerStats: make(map[string]PlayerStats),
	}
}

func (s Standing) Clone() Standing {
	c := s
	c.Players = make([]string, len(s.Players))
	copy(c.Players, s.Players)
	c.PlayerStats = make(map[string]PlayerStats, len(s.PlayerStats))
	for k, v := range s.PlayerStats {
		c.PlayerStats[k] = v
	}
	return c
}

// Group is created once at group-stage generation. Matches is fixed, Standings
// is re-sorted after every result.
type Group struct {
	Name           string     `json:"name"`
	Teams          []Team     `json:"teams"`
	Matches        []Match    `json:"matches"`
	Standings      []Standing `json:"standings"`
	AdvancingCount int        `json:"advancingCount"`
}

// Complete reports whether every match in the group has a winner.
func (g Group) Complete() bool {
	for _, m := range g.Matches {
		if m.Winner == nil {
			return false
		}
	}
	return true
}

// Team looks a team up by name.
func (g Group) Team(name string) (Team, bool) {
	for _, t := range g.Teams {
		if t.Name == name {
			return t, true
		}
	}
	return Team{}, false
}

func (g Group) Clone() Group {
	c := Group{
		Name:           g.Name,
		Teams:          CloneTeams(g.Teams),
		Matches:        make([]Match, len(g.Matches)),
		Standings:      make([]Standing, len(g.Standings)),
		AdvancingCount: g.AdvancingCount,
	}
	for i, m := range g.Matches {
		c.Matches[i] = m.Clone()
	}
	for i, s := range g.Standings {
		c.Standings[i] = s.Clone()
	}
	return c
}

func CloneGroups(groups []Group) []Group {
	if groups == nil {
		return nil
	}
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return out
}

// TeamPlayerStats maps team name -> player name -> stats.
type TeamPlayerStats map[string]map[string]PlayerStats

func (s TeamPlayerStats) Clone() TeamPlayerStats {
	if s == nil {
		return nil
	}
	out := make(TeamPlayerStats, len(s))
	for team, players := range s {
		inner := make(map[string]PlayerStats, len(players))
		for p, st := range players {
			inner[p] = st
		}
		out[team] = inner
	}
	return out
}
