package brackets

import (
	"errors"
	"fmt"
)

var (
	ErrNotEnoughTeams     = errors.New("not enough teams")
	ErrDuplicateTeam      = errors.New("duplicate team name")
	ErrInvalidGroupConfig = errors.New("invalid group configuration")
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchNotPlayable   = errors.New("match is not playable")
	ErrResultMismatch     = errors.New("result does not match the scheduled teams")
)

// MinGroupSize is the smallest group a round robin is generated for.
const MinGroupSize = 3

func bracketMatchID(round, index int) string {
	return fmt.Sprintf("r%d-m%d", round, index)
}

func groupMatchID(group string, i, j int) string {
	return fmt.Sprintf("g%s-%d-%d", group, i, j)
}

// GroupName maps 0, 1, 2... to A, B, C...
func GroupName(index int) string {
	return string(rune('A' + index))
}
