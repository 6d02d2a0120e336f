package models

import (
	"encoding/json"
	"time"
)

// Tournament is the persisted record. AppState holds the last orchestrator
// snapshot as raw JSON.
type Tournament struct {
	ID        int               `json:"id" db:"id"`
	Name      *string           `json:"name,omitempty" db:"name"`
	Config    *TournamentConfig `json:"config,omitempty" db:"config"`
	AppState  json.RawMessage   `json:"app_state,omitempty" db:"app_state"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}

type Mode string

const (
	ModePlayoffs   Mode = "playoffs"
	ModeGroups     Mode = "groups"
	ModeGroupsOnly Mode = "groups_only"
)

func (m Mode) Valid() bool {
	switch m {
	case ModePlayoffs, ModeGroups, ModeGroupsOnly:
		return true
	}
	return false
}

func (m Mode) HasGroups() bool {
	return m == ModeGroups || m == ModeGroupsOnly
}

// TournamentConfig is fixed once the tournament starts.
type TournamentConfig struct {
	Mode              Mode `json:"mode"`
	NumGroups         int  `json:"numGroups,omitempty"`
	AdvancingPerGroup int  `json:"advancingPerGroup,omitempty"`
	GameTime          int  `json:"gameTime"`
}
