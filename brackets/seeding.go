package brackets

import (
	"fmt"

	"github.com/Dosada05/pong-tournament/models"
)

// SeedFromGroups orders the advancing teams for GenerateBracket. Two groups
// with two advancing each are crossed as A1, B2, B1, A2 so group winners meet
// runners-up. Any other shape is concatenated group by group, which can pair
// teams from the same group in the first round.
func SeedFromGroups(groups []models.Group) ([]models.Team, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: no groups to seed from", ErrNotEnoughTeams)
	}

	advancing := make([][]models.Team, len(groups))
	for i, g := range groups {
		advancing[i] = Advancing(g)
	}

	if len(groups) == 2 && groups[0].AdvancingCount == 2 && len(advancing[0]) == 2 && len(advancing[1]) == 2 {
		a, b := advancing[0], advancing[1]
		return []models.Team{a[0], b[1], b[0], a[1]}, nil
	}

	var seeded []models.Team
	for _, teams := range advancing {
		seeded = append(seeded, teams...)
	}
	if len(seeded) < 2 {
		return nil, fmt.Errorf("%w: only %d team(s) advance", ErrNotEnoughTeams, len(seeded))
	}
	return seeded, nil
}
