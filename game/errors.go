package game

import "errors"

var (
	ErrInvalidSide          = errors.New("invalid side")
	ErrInvalidCup           = errors.New("cup index out of range")
	ErrMatchDecided         = errors.New("match already has a result")
	ErrAmbiguousResult      = errors.New("cups are level, sudden death decides the match")
	ErrAttributionPending   = errors.New("a cup hit is still waiting for player attribution")
	ErrNoPendingAttribution = errors.New("no cup hit is waiting for attribution")
	ErrUnknownPlayer        = errors.New("player is not on the hitting team")
	ErrRearrangeUnavailable = errors.New("rearrange is not available")
	ErrInvalidFormation     = errors.New("formation does not fit the remaining cups")
	ErrNoOutcome            = errors.New("match has no result yet")
	ErrInvalidState         = errors.New("invalid match state")
)
