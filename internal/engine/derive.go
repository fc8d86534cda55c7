// Tile derivation: re-derives vegetation and occupancy for every tile from a
// species list and a season. Steps run in a fixed order (baseline, season,
// grazing) because each clamps differently.
package engine

import (
	"math"

	"github.com/talgya/ecosim/internal/world"
)

const (
	// ProducerCapacity is the producer population treated as a full biome.
	ProducerCapacity = 15000

	minVegetation   = 5
	maxVegetation   = 100
	maxGrazing      = 20
	grazersPerPoint = 50
)

// DeriveTiles recomputes vegetation and species_present for each tile.
// Output tile i corresponds to input tile i; coordinates, biome, elevation and
// water level are copied unchanged. The input slice is not modified.
func DeriveTiles(prev []world.Tile, species []world.Species, season Season) []world.Tile {
	byBiome := groupByBiome(species)

	out := make([]world.Tile, len(prev))
	for i, t := range prev {
		natives := byBiome[t.Biome]

		veg := t.Vegetation
		if baseline, ok := BaselineVegetation(natives); ok {
			veg = baseline
		}
		veg = ApplySeason(veg, season)
		veg = ApplyGrazing(veg, natives)

		out[i] = world.Tile{
			X:              t.X,
			Y:              t.Y,
			Biome:          t.Biome,
			Elevation:      t.Elevation,
			WaterLevel:     t.WaterLevel,
			Vegetation:     veg,
			SpeciesPresent: presentSpecies(natives),
		}
	}
	return out
}

// groupByBiome maps each preferred biome to its species, keeping list order.
func groupByBiome(species []world.Species) map[world.Biome][]world.Species {
	groups := make(map[world.Biome][]world.Species)
	for _, sp := range species {
		groups[sp.PreferredBiome] = append(groups[sp.PreferredBiome], sp)
	}
	return groups
}

// presentSpecies names the natives that still have a living population.
func presentSpecies(natives []world.Species) []string {
	names := make([]string, 0, len(natives))
	for _, sp := range natives {
		if sp.Population > 0 {
			names = append(names, sp.Name)
		}
	}
	return names
}

// BaselineVegetation derives vegetation from the summed producer population
// of a biome. ok is false when the biome has no producer species, in which
// case the tile keeps its previous value.
func BaselineVegetation(natives []world.Species) (vegetation int, ok bool) {
	total := 0
	for _, sp := range natives {
		if sp.Diet == world.DietProducer {
			total += sp.Population
			ok = true
		}
	}
	if !ok {
		return 0, false
	}

	v := int(math.RoundToEven(float64(total) / ProducerCapacity * 100 * 1.5))
	v = clamp(v, 0, maxVegetation)
	if v < minVegetation {
		v = minVegetation
	}
	return v, true
}

// ApplyGrazing subtracts herbivore pressure: one point per 50 native
// herbivores, at most 20. The result stays within [5, 100].
func ApplyGrazing(vegetation int, natives []world.Species) int {
	herbivores := 0
	for _, sp := range natives {
		if sp.Diet == world.DietHerbivore {
			herbivores += sp.Population
		}
	}

	impact := herbivores / grazersPerPoint
	if impact > maxGrazing {
		impact = maxGrazing
	}
	if impact < 0 {
		impact = 0
	}
	return clamp(vegetation-impact, minVegetation, maxVegetation)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
