package world

import (
	"fmt"
	"sort"
)

// Diet is a species' trophic role.
type Diet string

const (
	DietProducer  Diet = "producer" // Plants
	DietHerbivore Diet = "herbivore"
	DietCarnivore Diet = "carnivore"
	DietOmnivore  Diet = "omnivore"
)

// Valid reports whether d is one of the known diet classes.
func (d Diet) Valid() bool {
	switch d {
	case DietProducer, DietHerbivore, DietCarnivore, DietOmnivore:
		return true
	}
	return false
}

// ParseDiet maps a name to a Diet.
func ParseDiet(name string) (Diet, error) {
	d := Diet(name)
	if !d.Valid() {
		return "", fmt.Errorf("unknown diet %q", name)
	}
	return d, nil
}

// Species is one population in the ecosystem. Prey and predator lists name
// other species but need not resolve (a species may have gone extinct).
type Species struct {
	Name             string   `json:"name"`
	Population       int      `json:"population"`
	Diet             Diet     `json:"diet"`
	Prey             []string `json:"prey"`
	Predators        []string `json:"predators"`
	PreferredBiome   Biome    `json:"preferred_biome"`
	ReproductionRate float64  `json:"reproduction_rate"` // per turn, 0–2
	TerritorySize    float64  `json:"territory_size"`    // arbitrary units per individual
}

// Clone returns a copy of the species that shares no slices with s.
func (s Species) Clone() Species {
	s.Prey = append([]string{}, s.Prey...)
	s.Predators = append([]string{}, s.Predators...)
	return s
}

// DefaultRoster returns the starting species: two producers, two herbivores,
// three carnivores and an omnivore, linked into one food web.
func DefaultRoster() []Species {
	return []Species{
		{
			Name:             "Grass",
			Population:       10000,
			Diet:             DietProducer,
			Prey:             []string{},
			Predators:        []string{"Rabbit", "Deer", "Frog"},
			PreferredBiome:   BiomeGrassland,
			ReproductionRate: 1.5,
			TerritorySize:    0.01,
		},
		{
			Name:             "Oak Tree",
			Population:       500,
			Diet:             DietProducer,
			Prey:             []string{},
			Predators:        []string{"Deer"},
			PreferredBiome:   BiomeForest,
			ReproductionRate: 0.1,
			TerritorySize:    1.0,
		},
		{
			Name:             "Rabbit",
			Population:       200,
			Diet:             DietHerbivore,
			Prey:             []string{"Grass"},
			Predators:        []string{"Fox", "Hawk", "Wolf"},
			PreferredBiome:   BiomeGrassland,
			ReproductionRate: 0.8,
			TerritorySize:    0.5,
		},
		{
			Name:             "Deer",
			Population:       50,
			Diet:             DietHerbivore,
			Prey:             []string{"Grass", "Oak Tree"},
			Predators:        []string{"Wolf"},
			PreferredBiome:   BiomeForest,
			ReproductionRate: 0.3,
			TerritorySize:    5.0,
		},
		{
			Name:             "Fox",
			Population:       30,
			Diet:             DietCarnivore,
			Prey:             []string{"Rabbit"},
			Predators:        []string{"Wolf"},
			PreferredBiome:   BiomeGrassland,
			ReproductionRate: 0.25,
			TerritorySize:    8.0,
		},
		{
			Name:             "Wolf",
			Population:       15,
			Diet:             DietCarnivore,
			Prey:             []string{"Deer", "Fox", "Rabbit"},
			Predators:        []string{},
			PreferredBiome:   BiomeForest,
			ReproductionRate: 0.15,
			TerritorySize:    20.0,
		},
		{
			Name:             "Hawk",
			Population:       20,
			Diet:             DietCarnivore,
			Prey:             []string{"Rabbit", "Frog"},
			Predators:        []string{},
			PreferredBiome:   BiomeMountain,
			ReproductionRate: 0.2,
			TerritorySize:    15.0,
		},
		{
			Name:             "Frog",
			Population:       100,
			Diet:             DietOmnivore,
			Prey:             []string{"Grass"},
			Predators:        []string{"Hawk"},
			PreferredBiome:   BiomeWetland,
			ReproductionRate: 0.6,
			TerritorySize:    0.2,
		},
	}
}

// FoodWebErrors lists every one-sided link in the food web: A eats B but B
// does not name A as a predator, or the reverse. Names that do not resolve to
// a species in the list are skipped.
func FoodWebErrors(species []Species) []string {
	index := make(map[string]*Species, len(species))
	for i := range species {
		index[species[i].Name] = &species[i]
	}

	var errs []string
	for _, sp := range species {
		for _, prey := range sp.Prey {
			other, ok := index[prey]
			if !ok {
				continue
			}
			if !contains(other.Predators, sp.Name) {
				errs = append(errs, fmt.Sprintf("%s eats %s but %s does not list %s as predator", sp.Name, prey, prey, sp.Name))
			}
		}
		for _, pred := range sp.Predators {
			other, ok := index[pred]
			if !ok {
				continue
			}
			if !contains(other.Prey, sp.Name) {
				errs = append(errs, fmt.Sprintf("%s is eaten by %s but %s does not list %s as prey", sp.Name, pred, pred, sp.Name))
			}
		}
	}
	return errs
}

// SpeciesSummary is a compact row for listing populations.
type SpeciesSummary struct {
	Name       string `json:"name"`
	Population int    `json:"population"`
	Diet       Diet   `json:"diet"`
}

// SpeciesSummaries returns name/population/diet rows sorted by descending
// population, then name.
func SpeciesSummaries(s *State) []SpeciesSummary {
	rows := make([]SpeciesSummary, 0, len(s.Species))
	for _, sp := range s.Species {
		rows = append(rows, SpeciesSummary{Name: sp.Name, Population: sp.Population, Diet: sp.Diet})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Population != rows[j].Population {
			return rows[i].Population > rows[j].Population
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
