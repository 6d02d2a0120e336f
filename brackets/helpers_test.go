package brackets

import (
	"fmt"

	"github.com/Dosada05/pong-tournament/models"
)

func makeTeams(n int) []models.Team {
	teams := make([]models.Team, n)
	for i := range teams {
		teams[i] = models.Team{Name: fmt.Sprintf("T%d", i+1), Players: []string{fmt.Sprintf("p%d", i+1)}}
	}
	return teams
}

func team(name string, players ...string) models.Team {
	return models.Team{Name: name, Players: players}
}

func result(winner, loser models.Team, winType models.WinType, winnerLeft, loserLeft int) models.Result {
	return models.Result{
		Winner:        winner,
		Loser:         loser,
		WinType:       winType,
		CupsRemaining: models.CupsRemaining{Winner: winnerLeft, Loser: loserLeft},
	}
}

// winP1 builds a regular win for the first slot of m.
func winP1(m models.Match) models.Result {
	return result(*m.P1, *m.P2, models.WinTypeShooter, 4, 0)
}
