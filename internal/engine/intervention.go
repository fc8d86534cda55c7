package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidIntervention is returned for an intervention without an action.
var ErrInvalidIntervention = errors.New("invalid intervention")

// Intervention is a user action passed to the oracle as context for one turn,
// e.g. "introduce wolves" with details "a pack of 10 in the north forest".
type Intervention struct {
	Action  string `json:"action"`
	Details string `json:"details,omitempty"`
}

// Validate rejects an intervention with a blank action.
func (iv *Intervention) Validate() error {
	if iv == nil {
		return nil
	}
	if strings.TrimSpace(iv.Action) == "" {
		return fmt.Errorf("%w: action required", ErrInvalidIntervention)
	}
	return nil
}

// Describe renders the intervention as "action (details)".
func (iv *Intervention) Describe() string {
	if iv == nil {
		return ""
	}
	action := strings.TrimSpace(iv.Action)
	if details := strings.TrimSpace(iv.Details); details != "" {
		return fmt.Sprintf("%s (%s)", action, details)
	}
	return action
}
