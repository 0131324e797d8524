package assistants

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// State is a step of a chat turn.
type State int

// Turn states, a turn without tool calls goes from
// StateAwaitingFirstCompletion directly to StateDone.
const (
	StateBuildingRequest State = iota
	StateAwaitingFirstCompletion
	StateExecutingTools
	StateAwaitingFinalCompletion
	StateDone
)

var stateNames = [...]string{
	StateBuildingRequest:         "BUILDING_REQUEST",
	StateAwaitingFirstCompletion: "AWAITING_FIRST_COMPLETION",
	StateExecutingTools:          "EXECUTING_TOOLS",
	StateAwaitingFinalCompletion: "AWAITING_FINAL_COMPLETION",
	StateDone:                    "DONE",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// MarshalText implements encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *State) UnmarshalText(text []byte) error {
	name := strings.ToUpper(string(text))
	for i, n := range stateNames {
		if n == name {
			*s = State(i)
			return nil
		}
	}
	return errors.Newf("unknown state: %s", text)
}
