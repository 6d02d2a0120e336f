package models

import (
	"encoding/json"
	"fmt"
)

type MatchKind string

const (
	MatchKindGroup      MatchKind = "group"
	MatchKindBracket    MatchKind = "bracket"
	MatchKindThirdPlace MatchKind = "thirdPlace"
)

// MatchRef points at the match currently being played. Implementations are
// GroupMatchRef, BracketMatchRef and ThirdPlaceRef.
type MatchRef interface {
	Kind() MatchKind
	String() string
}

type GroupMatchRef struct {
	GroupIndex int
	MatchIndex int
}

func (GroupMatchRef) Kind() MatchKind { return MatchKindGroup }

func (r GroupMatchRef) String() string {
	return fmt.Sprintf("group %d match %d", r.GroupIndex, r.MatchIndex)
}

type BracketMatchRef struct {
	RoundIndex int
	MatchIndex int
}

func (BracketMatchRef) Kind() MatchKind { return MatchKindBracket }

func (r BracketMatchRef) String() string {
	return fmt.Sprintf("round %d match %d", r.RoundIndex, r.MatchIndex)
}

type ThirdPlaceRef struct{}

func (ThirdPlaceRef) Kind() MatchKind { return MatchKindThirdPlace }

func (ThirdPlaceRef) String() string { return "third place match" }

type matchRefJSON struct {
	Type       MatchKind `json:"type"`
	GroupIndex *int      `json:"groupIndex,omitempty"`
	RoundIndex *int      `json:"roundIndex,omitempty"`
	MatchIndex *int      `json:"matchIndex,omitempty"`
}

// CurrentMatch wraps a MatchRef so it can travel through JSON snapshots.
type CurrentMatch struct {
	Ref MatchRef
}

func (c CurrentMatch) MarshalJSON() ([]byte, error) {
	var out matchRefJSON
	switch ref := c.Ref.(type) {
	case GroupMatchRef:
		out = matchRefJSON{Type: MatchKindGroup, GroupIndex: &ref.GroupIndex, MatchIndex: &ref.MatchIndex}
	case BracketMatchRef:
		out = matchRefJSON{Type: MatchKindBracket, RoundIndex: &ref.RoundIndex, MatchIndex: &ref.MatchIndex}
	case ThirdPlaceRef:
		out = matchRefJSON{Type: MatchKindThirdPlace}
	default:
		return nil, fmt.Errorf("unsupported match reference %T", c.Ref)
	}
	return json.Marshal(out)
}

func (c *CurrentMatch) UnmarshalJSON(data []byte) error {
	var in matchRefJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	ref, err := in.toRef()
	if err != nil {
		return err
	}
	c.Ref = ref
	return nil
}

func (in matchRefJSON) toRef() (MatchRef, error) {
	switch in.Type {
	case MatchKindGroup:
		if in.GroupIndex == nil || in.MatchIndex == nil {
			return nil, fmt.Errorf("group match reference requires groupIndex and matchIndex")
		}
		return GroupMatchRef{GroupIndex: *in.GroupIndex, MatchIndex: *in.MatchIndex}, nil
	case MatchKindBracket:
		if in.RoundIndex == nil || in.MatchIndex == nil {
			return nil, fmt.Errorf("bracket match reference requires roundIndex and matchIndex")
		}
		return BracketMatchRef{RoundIndex: *in.RoundIndex, MatchIndex: *in.MatchIndex}, nil
	case MatchKindThirdPlace:
		return ThirdPlaceRef{}, nil
	default:
		return nil, fmt.Errorf("unknown match reference type %q", in.Type)
	}
}

// ParseMatchRef builds a MatchRef from loose request fields.
func ParseMatchRef(kind MatchKind, groupIndex, roundIndex, matchIndex *int) (MatchRef, error) {
	return matchRefJSON{Type: kind, GroupIndex: groupIndex, RoundIndex: roundIndex, MatchIndex: matchIndex}.toRef()
}
