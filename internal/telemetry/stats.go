// Package telemetry summarises ecosystem states and records them as CSV.
package telemetry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/talgya/ecosim/internal/world"
)

// BiomeStats describes the vegetation of one biome.
type BiomeStats struct {
	Biome   world.Biome
	Tiles   int
	VegMean float64
	VegStd  float64
	VegP50  float64
	VegMin  int
	VegMax  int
}

// Summary is a snapshot of one state's aggregate numbers.
type Summary struct {
	Turn        int
	Season      string
	Temperature float64

	Population   int
	ByDiet       map[world.Diet]int
	SpeciesAlive int
	Extinct      []string // roster entries with population 0

	VegMean float64
	VegStd  float64
	Biomes  []BiomeStats // in world.Biomes order, present biomes only
}

// TurnRecord is one row of turns.csv.
type TurnRecord struct {
	Turn        int     `csv:"turn"`
	Season      string  `csv:"season"`
	Temperature float64 `csv:"temperature"`

	Population int `csv:"population"`
	Producers  int `csv:"producers"`
	Herbivores int `csv:"herbivores"`
	Carnivores int `csv:"carnivores"`
	Omnivores  int `csv:"omnivores"`

	SpeciesAlive int `csv:"species_alive"`
	Extinct      int `csv:"extinct"`

	VegMean float64 `csv:"veg_mean"`
	VegStd  float64 `csv:"veg_std"`
}

// MeanStd returns the mean and sample standard deviation of values.
// The deviation is 0 for fewer than two values.
func MeanStd(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// Summarize computes the Summary of s.
func Summarize(s *world.State) Summary {
	sum := Summary{
		Turn:        s.Turn,
		Season:      s.Season,
		Temperature: s.Temperature,
		ByDiet:      make(map[world.Diet]int),
	}

	for _, sp := range s.Species {
		sum.Population += sp.Population
		sum.ByDiet[sp.Diet] += sp.Population
		if sp.Population > 0 {
			sum.SpeciesAlive++
		} else {
			sum.Extinct = append(sum.Extinct, sp.Name)
		}
	}

	all := make([]float64, 0, len(s.Tiles))
	byBiome := make(map[world.Biome][]float64)
	for _, t := range s.Tiles {
		v := float64(t.Vegetation)
		all = append(all, v)
		byBiome[t.Biome] = append(byBiome[t.Biome], v)
	}
	sum.VegMean, sum.VegStd = MeanStd(all)

	for _, biome := range world.Biomes {
		values := byBiome[biome]
		if len(values) == 0 {
			continue
		}
		sort.Float64s(values)
		bs := BiomeStats{
			Biome:  biome,
			Tiles:  len(values),
			VegP50: stat.Quantile(0.5, stat.Empirical, values, nil),
			VegMin: int(values[0]),
			VegMax: int(values[len(values)-1]),
		}
		bs.VegMean, bs.VegStd = MeanStd(values)
		sum.Biomes = append(sum.Biomes, bs)
	}

	return sum
}

// Record flattens the summary of s into a CSV row.
func Record(s *world.State) TurnRecord {
	sum := Summarize(s)
	return TurnRecord{
		Turn:         sum.Turn,
		Season:       sum.Season,
		Temperature:  sum.Temperature,
		Population:   sum.Population,
		Producers:    sum.ByDiet[world.DietProducer],
		Herbivores:   sum.ByDiet[world.DietHerbivore],
		Carnivores:   sum.ByDiet[world.DietCarnivore],
		Omnivores:    sum.ByDiet[world.DietOmnivore],
		SpeciesAlive: sum.SpeciesAlive,
		Extinct:      len(sum.Extinct),
		VegMean:      round2(sum.VegMean),
		VegStd:       round2(sum.VegStd),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
