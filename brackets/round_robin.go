package brackets

import (
	"fmt"
	"math/rand"

	"github.com/Dosada05/pong-tournament/models"
)

// GenerateGroups shuffles teams, deals them into numGroups groups by index
// modulo and schedules a single round robin in each group. rng may be nil.
func GenerateGroups(teams []models.Team, numGroups, advancingCount int, rng *rand.Rand) ([]models.Group, error) {
	if err := ValidateGroupConfig(len(teams), numGroups, advancingCount); err != nil {
		return nil, err
	}
	if err := checkUnique(teams); err != nil {
		return nil, err
	}

	shuffled := models.CloneTeams(teams)
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	groups := make([]models.Group, numGroups)
	for i := range groups {
		groups[i] = models.Group{Name: GroupName(i), AdvancingCount: advancingCount}
	}
	for i, t := range shuffled {
		g := &groups[i%numGroups]
		g.Teams = append(g.Teams, t)
	}

	for gi := range groups {
		g := &groups[gi]
		g.Standings = make([]models.Standing, 0, len(g.Teams))
		for _, t := range g.Teams {
			g.Standings = append(g.Standings, models.NewStanding(t))
		}
		g.Matches = roundRobin(g.Name, g.Teams)
	}
	return groups, nil
}

// ValidateGroupConfig checks that every group gets at least MinGroupSize
// teams and that fewer teams advance than the smallest group holds.
func ValidateGroupConfig(teamCount, numGroups, advancingCount int) error {
	if numGroups < 1 {
		return fmt.Errorf("%w: need at least one group", ErrInvalidGroupConfig)
	}
	smallest := teamCount / numGroups
	if smallest < MinGroupSize {
		return fmt.Errorf("%w: %d teams cannot fill %d groups of at least %d", ErrInvalidGroupConfig, teamCount, numGroups, MinGroupSize)
	}
	if advancingCount < 1 || advancingCount >= smallest {
		return fmt.Errorf("%w: advancing per group must be between 1 and %d", ErrInvalidGroupConfig, smallest-1)
	}
	return nil
}

// roundRobin pairs every team with every later team once.
func roundRobin(group string, teams []models.Team) []models.Match {
	matches := make([]models.Match, 0, len(teams)*(len(teams)-1)/2)
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			p1, p2 := teams[i].Clone(), teams[j].Clone()
			matches = append(matches, models.Match{
				ID: groupMatchID(group, i, j),
				P1: &p1,
				P2: &p2,
			})
		}
	}
	return matches
}
