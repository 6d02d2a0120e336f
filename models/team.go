package models

// Reserved team names. They never identify a real team.
const (
	ByeTeamName     = "Bye"
	UnknownPlayer   = "Unknown"
	CupsPerSide     = 6
	DefaultGameTime = 600 // seconds
)

// Team is identified by Name only. Players is the ordered roster used for
// hit attribution and may be empty.
type Team struct {
	Name    string   `json:"name"`
	Players []string `json:"players"`
}

// ByeTeam returns the synthetic opponent appended to odd brackets.
func ByeTeam() Team {
	return Team{Name: ByeTeamName, Players: []string{}}
}

func (t Team) IsBye() bool {
	return t.Name == ByeTeamName
}

// Same compares teams by name.
func (t *Team) Same(other *Team) bool {
	if t == nil || other == nil {
		return false
	}
	return t.Name == other.Name
}

// HasPlayer reports whether player is listed in the roster.
func (t Team) HasPlayer(player string) bool {
	for _, p := range t.Players {
		if p == player {
			return true
		}
	}
	return false
}

func (t Team) Clone() Team {
	players := make([]string, len(t.Players))
	copy(players, t.Players)
	return Team{Name: t.Name, Players: players}
}

// CloneTeamPtr copies a nullable team slot.
func CloneTeamPtr(t *Team) *Team {
	if t == nil {
		return nil
	}
	c := t.Clone()
	return &c
}

func CloneTeams(teams []Team) []Team {
	if teams == nil {
		return nil
	}
	out := make([]Team, len(teams))
	for i, t := range teams {
		out[i] = t.Clone()
	}
	return out
}
