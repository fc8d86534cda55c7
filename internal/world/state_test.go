package world

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCloneIsDeep(t *testing.T) {
	s, _ := Generate(4)
	c := s.Clone()

	c.Tiles[0].SpeciesPresent[0] = "Changed"
	c.Tiles[0].Vegetation = 1
	c.Species[0].Predators[0] = "Changed"
	c.EventsLog[0] = "Changed"

	if s.Tiles[0].SpeciesPresent[0] == "Changed" || s.Tiles[0].Vegetation == 1 {
		t.Error("clone shares tile data with original")
	}
	if s.Species[0].Predators[0] == "Changed" {
		t.Error("clone shares species data with original")
	}
	if s.EventsLog[0] == "Changed" {
		t.Error("clone shares events log with original")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *State)
	}{
		{"missing tile", func(s *State) { s.Tiles = s.Tiles[1:] }},
		{"duplicate tile", func(s *State) { s.Tiles[1].X, s.Tiles[1].Y = s.Tiles[0].X, s.Tiles[0].Y }},
		{"out of bounds", func(s *State) { s.Tiles[0].X = 99 }},
		{"duplicate species", func(s *State) { s.Species[1].Name = s.Species[0].Name }},
		{"negative population", func(s *State) { s.Species[0].Population = -3 }},
		{"unknown biome", func(s *State) { s.Tiles[2].Biome = "lava" }},
		{"unknown diet", func(s *State) { s.Species[2].Diet = "detritivore" }},
		{"vegetation too high", func(s *State) { s.Tiles[0].Vegetation = 101 }},
		{"zero grid", func(s *State) { s.GridSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := Generate(4)
			tt.mutate(s)
			if err := Validate(s); !errors.Is(err, ErrInvalidState) {
				t.Errorf("expected ErrInvalidState, got %v", err)
			}
		})
	}
}

func TestStateJSONRoundTrip(t *testing.T) {
	s, _ := Generate(3)
	s.Tiles[0].SpeciesPresent = []string{}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back State
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := Validate(&back); err != nil {
		t.Fatalf("round-tripped state invalid: %v", err)
	}
	if back.Tiles[4].Biome != s.Tiles[4].Biome || back.Species[3].Name != s.Species[3].Name {
		t.Error("round trip lost data")
	}
}

func TestCoordJSON(t *testing.T) {
	data, _ := json.Marshal(Event{Description: "flood", AffectedTiles: []Coord{{1, 2}}, Severity: SeverityHigh})
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(e.AffectedTiles) != 1 || e.AffectedTiles[0] != (Coord{1, 2}) {
		t.Errorf("unexpected tiles %v", e.AffectedTiles)
	}

	var c Coord
	if err := json.Unmarshal([]byte(`{"x":4,"y":5}`), &c); err != nil || c != (Coord{4, 5}) {
		t.Errorf("object form: got %v, %v", c, err)
	}
	if err := json.Unmarshal([]byte(`[1]`), &c); err == nil {
		t.Error("expected error for short array")
	}
}

func TestSpeciesSummariesSorted(t *testing.T) {
	s, _ := Generate(2)
	rows := SpeciesSummaries(s)
	if len(rows) != len(s.Species) {
		t.Fatalf("expected %d rows, got %d", len(s.Species), len(rows))
	}
	if rows[0].Name != "Grass" {
		t.Errorf("expected Grass first, got %s", rows[0].Name)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Population > rows[i-1].Population {
			t.Fatalf("rows not sorted: %v", rows)
		}
	}
}
