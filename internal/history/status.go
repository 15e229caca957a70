package history

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Status describes whether a transaction can still be restored. It is
// derived from the filesystem, never stored.
type Status int

const (
	// StatusActive means every trashed path is still in the trash
	StatusActive Status = iota

	// StatusInvalidated means at least one trashed path is gone
	StatusInvalidated

	// StatusRestored means the transaction has been undone
	StatusRestored
)

var transitions = map[Status][]Status{
	StatusActive:      {StatusRestored, StatusInvalidated},
	StatusInvalidated: {StatusActive},
	StatusRestored:    {},
}

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInvalidated:
		return "invalidated"
	case StatusRestored:
		return "restored"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// CanRestore reports whether a transaction in this status may be restored
func (s Status) CanRestore() bool {
	return s == StatusActive
}

// CanTransitionTo reports whether s may change into target
func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(transitions[s], target)
}

// IsTerminal returns true if no transition leaves s
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	for _, candidate := range []Status{StatusActive, StatusInvalidated, StatusRestored} {
		if candidate.String() == str {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("invalid status: %s", str)
}
