package tournament

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/pong-tournament/models"
)

func shooterState() State {
	s := NewState()
	s.Groups = []models.Group{{
		Name: "A",
		Standings: []models.Standing{
			{
				Name:    "Red",
				Players: []string{"Ann", "Abe"},
				PlayerStats: map[string]models.PlayerStats{
					"Ann":                {CupsHit: 5, GamesPlayed: 2},
					"Abe":                {CupsHit: 1, GamesPlayed: 2},
					models.UnknownPlayer: {CupsHit: 7},
				},
			},
			{
				Name:        "Blue",
				Players:     []string{"Bob"},
				PlayerStats: map[string]models.PlayerStats{"Bob": {CupsHit: 4, GamesPlayed: 2}},
			},
		},
	}}
	s.PlayoffPlayerStats = models.TeamPlayerStats{
		"Blue": {"Bob": {CupsHit: 3, GamesPlayed: 1}},
		"Red":  {"Abe": {CupsHit: 2, GamesPlayed: 1}},
	}
	return s
}

func rowNames(rows []models.ShooterRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = fmt.Sprintf("%s/%s:%d", r.Team, r.Player, r.CupsHit)
	}
	return out
}

func TestTopShooters(t *testing.T) {
	s := shooterState()

	tests := []struct {
		name   string
		filter ShooterFilter
		want   []string
	}{
		{
			name:   "all phases merged",
			filter: ShooterFilter{Phase: PhaseAll},
			want:   []string{"Blue/Bob:7", "Red/Unknown:7", "Red/Ann:5", "Red/Abe:3"},
		},
		{
			name:   "hide unknown",
			filter: ShooterFilter{Phase: PhaseAll, HideUnknown: true},
			want:   []string{"Blue/Bob:7", "Red/Ann:5", "Red/Abe:3"},
		},
		{
			name:   "groups only",
			filter: ShooterFilter{Phase: PhaseGroups, HideUnknown: true},
			want:   []string{"Red/Ann:5", "Blue/Bob:4", "Red/Abe:1"},
		},
		{
			name:   "playoffs only",
			filter: ShooterFilter{Phase: PhasePlayoffs},
			want:   []string{"Blue/Bob:3", "Red/Abe:2"},
		},
		{
			name:   "limit",
			filter: ShooterFilter{Phase: PhaseAll, Limit: 2},
			want:   []string{"Blue/Bob:7", "Red/Unknown:7"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rowNames(TopShooters(s, tt.filter)))
		})
	}

	merged := TopShooters(s, ShooterFilter{Phase: PhaseAll})
	require.NotEmpty(t, merged)
	assert.Equal(t, 3, merged[0].GamesPlayed)
}

func TestTopShooters_Empty(t *testing.T) {
	rows := TopShooters(NewState(), ShooterFilter{})
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase("")
	require.NoError(t, err)
	assert.Equal(t, PhaseAll, p)

	p, err = ParsePhase("playoffs")
	require.NoError(t, err)
	assert.Equal(t, PhasePlayoffs, p)

	_, err = ParsePhase("finals")
	assert.Error(t, err)
}
