// Package world provides the ecosystem data model: tiles, species and the
// full simulation state, plus the deterministic initial-world generator.
package world

import (
	"encoding/json"
	"fmt"
)

// Biome is the habitat type of a tile and the preferred habitat of a species.
type Biome string

const (
	BiomeGrassland Biome = "grassland"
	BiomeForest    Biome = "forest"
	BiomeDesert    Biome = "desert"
	BiomeTundra    Biome = "tundra"
	BiomeWetland   Biome = "wetland"
	BiomeMountain  Biome = "mountain"
)

// Biomes lists every known biome in display order.
var Biomes = []Biome{BiomeGrassland, BiomeForest, BiomeDesert, BiomeTundra, BiomeWetland, BiomeMountain}

// Valid reports whether b is one of the known biomes.
func (b Biome) Valid() bool {
	switch b {
	case BiomeGrassland, BiomeForest, BiomeDesert, BiomeTundra, BiomeWetland, BiomeMountain:
		return true
	}
	return false
}

// ParseBiome maps a name to a Biome.
func ParseBiome(name string) (Biome, error) {
	b := Biome(name)
	if !b.Valid() {
		return "", fmt.Errorf("unknown biome %q", name)
	}
	return b, nil
}

// Coord is a tile position. It serialises as a two-element array [x, y].
type Coord struct {
	X int
	Y int
}

// MarshalJSON encodes the coordinate as [x, y].
func (c Coord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.X, c.Y})
}

// UnmarshalJSON decodes either [x, y] or {"x":..,"y":..}.
func (c *Coord) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("coordinate needs 2 elements, got %d", len(pair))
		}
		c.X, c.Y = pair[0], pair[1]
		return nil
	}
	var obj struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("parse coordinate: %w", err)
	}
	c.X, c.Y = obj.X, obj.Y
	return nil
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Tile is one cell of the grid. Biome, elevation and water level are fixed at
// generation; only Vegetation and SpeciesPresent change between turns.
type Tile struct {
	X              int      `json:"x"`
	Y              int      `json:"y"`
	Biome          Biome    `json:"biome"`
	Elevation      float64  `json:"elevation"`   // 0–100
	WaterLevel     float64  `json:"water_level"` // 0–100
	Vegetation     int      `json:"vegetation"`  // 0–100 plant density
	SpeciesPresent []string `json:"species_present"`
}

// Coord returns the tile's position.
func (t Tile) Coord() Coord {
	return Coord{X: t.X, Y: t.Y}
}

// Clone returns a copy of the tile that shares no slices with t.
func (t Tile) Clone() Tile {
	t.SpeciesPresent = append([]string{}, t.SpeciesPresent...)
	return t
}
