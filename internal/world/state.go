package world

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for malformed generator input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState is returned when a state breaks a grid invariant.
	ErrInvalidState = errors.New("invalid ecosystem state")
)

// Severity grades the impact of an Event.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Event is a structured occurrence reported for a turn.
type Event struct {
	Description     string   `json:"description"`
	AffectedSpecies []string `json:"affected_species"`
	AffectedTiles   []Coord  `json:"affected_tiles"`
	Severity        Severity `json:"severity"`
}

// State is the complete ecosystem at one point in time. A State is replaced
// wholesale on every turn; nothing mutates one after it has been returned.
type State struct {
	Turn        int       `json:"turn"`
	GridSize    int       `json:"grid_size"`
	Tiles       []Tile    `json:"tiles"`
	Species     []Species `json:"species"`
	Season      string    `json:"season"`      // spring, summer, fall, winter
	Temperature float64   `json:"temperature"` // average °C
	EventsLog   []string  `json:"events_log"`
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Tiles = make([]Tile, len(s.Tiles))
	for i, t := range s.Tiles {
		c.Tiles[i] = t.Clone()
	}
	c.Species = CloneSpecies(s.Species)
	c.EventsLog = append([]string{}, s.EventsLog...)
	return &c
}

// CloneSpecies deep-copies a species list.
func CloneSpecies(list []Species) []Species {
	out := make([]Species, len(list))
	for i, sp := range list {
		out[i] = sp.Clone()
	}
	return out
}

// Population returns the summed population of every species.
func (s *State) Population() int {
	total := 0
	for _, sp := range s.Species {
		total += sp.Population
	}
	return total
}

// Validate checks the grid and roster invariants. Errors wrap ErrInvalidState.
func Validate(s *State) error {
	if s == nil {
		return fmt.Errorf("%w: nil state", ErrInvalidState)
	}
	if s.GridSize <= 0 {
		return fmt.Errorf("%w: grid size %d", ErrInvalidState, s.GridSize)
	}
	if s.Turn < 0 {
		return fmt.Errorf("%w: negative turn %d", ErrInvalidState, s.Turn)
	}
	if want := s.GridSize * s.GridSize; len(s.Tiles) != want {
		return fmt.Errorf("%w: %d tiles for grid size %d (want %d)", ErrInvalidState, len(s.Tiles), s.GridSize, want)
	}

	grid := NewGrid(s.GridSize)
	for i := range s.Tiles {
		t := &s.Tiles[i]
		if !grid.InBounds(t.Coord()) {
			return fmt.Errorf("%w: tile %s out of bounds", ErrInvalidState, t.Coord())
		}
		if grid.Get(t.Coord()) != nil {
			return fmt.Errorf("%w: duplicate tile %s", ErrInvalidState, t.Coord())
		}
		if !t.Biome.Valid() {
			return fmt.Errorf("%w: tile %s has unknown biome %q", ErrInvalidState, t.Coord(), t.Biome)
		}
		if !inRange(t.Elevation) || !inRange(t.WaterLevel) || !inRange(float64(t.Vegetation)) {
			return fmt.Errorf("%w: tile %s has terrain values out of range", ErrInvalidState, t.Coord())
		}
		grid.Set(t)
	}

	seen := make(map[string]bool, len(s.Species))
	for _, sp := range s.Species {
		if sp.Name == "" {
			return fmt.Errorf("%w: species with empty name", ErrInvalidState)
		}
		if seen[sp.Name] {
			return fmt.Errorf("%w: duplicate species %q", ErrInvalidState, sp.Name)
		}
		seen[sp.Name] = true
		if sp.Population < 0 {
			return fmt.Errorf("%w: species %q has negative population", ErrInvalidState, sp.Name)
		}
		if !sp.Diet.Valid() {
			return fmt.Errorf("%w: species %q has unknown diet %q", ErrInvalidState, sp.Name, sp.Diet)
		}
		if !sp.PreferredBiome.Valid() {
			return fmt.Errorf("%w: species %q has unknown biome %q", ErrInvalidState, sp.Name, sp.PreferredBiome)
		}
	}
	return nil
}

func inRange(v float64) bool {
	return v >= 0 && v <= 100
}
