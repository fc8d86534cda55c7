// World generation: terrain bands along the x-axis, the starting roster, and
// biome-matched placement. Fully deterministic for a given grid size.
package world

import "fmt"

const (
	initialSeason      = "spring"
	initialTemperature = 15.0
	initialLogEntry    = "Ecosystem initialized. The world awakens."
)

// terrain holds the fixed baselines for one band.
type terrain struct {
	biome      Biome
	elevation  float64
	water      float64
	vegetation int
}

// Generate builds the initial world for a gridSize × gridSize grid.
func Generate(gridSize int) (*State, error) {
	if gridSize <= 0 {
		return nil, fmt.Errorf("%w: grid size must be positive, got %d", ErrInvalidArgument, gridSize)
	}

	tiles := make([]Tile, 0, gridSize*gridSize)
	for x := 0; x < gridSize; x++ {
		for y := 0; y < gridSize; y++ {
			tr := deriveTerrain(x, y, gridSize)
			tiles = append(tiles, Tile{
				X:              x,
				Y:              y,
				Biome:          tr.biome,
				Elevation:      tr.elevation,
				WaterLevel:     tr.water,
				Vegetation:     tr.vegetation,
				SpeciesPresent: []string{},
			})
		}
	}

	species := DefaultRoster()
	placeSpecies(tiles, species)

	return &State{
		Turn:        0,
		GridSize:    gridSize,
		Tiles:       tiles,
		Species:     species,
		Season:      initialSeason,
		Temperature: initialTemperature,
		EventsLog:   []string{initialLogEntry},
	}, nil
}

// deriveTerrain picks the band for a position: forest in the first third,
// grassland in the middle third, then wetland (south half) or mountain.
func deriveTerrain(x, y, n int) terrain {
	switch {
	case x < n/3:
		// Forest rises toward the mountains.
		elev := 30 + float64(y)*5
		if elev > 100 {
			elev = 100
		}
		return terrain{biome: BiomeForest, elevation: elev, water: 60, vegetation: 80}
	case x < 2*n/3:
		return terrain{biome: BiomeGrassland, elevation: 20, water: 40, vegetation: 50}
	case y < n/2:
		return terrain{biome: BiomeWetland, elevation: 10, water: 90, vegetation: 40}
	default:
		return terrain{biome: BiomeMountain, elevation: 70, water: 20, vegetation: 20}
	}
}

// placeSpecies lists every species on every tile of its preferred biome.
func placeSpecies(tiles []Tile, species []Species) {
	for i := range tiles {
		for _, sp := range species {
			if tiles[i].Biome == sp.PreferredBiome {
				tiles[i].SpeciesPresent = append(tiles[i].SpeciesPresent, sp.Name)
			}
		}
	}
}

// BiomeCounts returns the number of tiles per biome.
func BiomeCounts(s *State) map[Biome]int {
	counts := make(map[Biome]int)
	for _, t := range s.Tiles {
		counts[t.Biome]++
	}
	return counts
}
