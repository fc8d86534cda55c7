package telemetry

import (
	"math"
	"testing"

	"github.com/talgya/ecosim/internal/world"
)

func TestMeanStd(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		mean   float64
		std    float64
	}{
		{"empty", nil, 0, 0},
		{"single", []float64{7}, 7, 0},
		{"constant", []float64{50, 50, 50}, 50, 0},
		{"spread", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 5, math.Sqrt(32.0 / 7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, std := MeanStd(tt.values)
			if math.Abs(mean-tt.mean) > 1e-9 || math.Abs(std-tt.std) > 1e-9 {
				t.Errorf("MeanStd(%v) = %v, %v; want %v, %v", tt.values, mean, std, tt.mean, tt.std)
			}
		})
	}
}

func TestSummarizeGenerated(t *testing.T) {
	s, _ := world.Generate(8)
	sum := Summarize(s)

	if sum.Population != 10915 {
		t.Errorf("population = %d, want 10915", sum.Population)
	}
	wantDiet := map[world.Diet]int{
		world.DietProducer:  10500,
		world.DietHerbivore: 250,
		world.DietCarnivore: 65,
		world.DietOmnivore:  100,
	}
	for diet, want := range wantDiet {
		if sum.ByDiet[diet] != want {
			t.Errorf("%s population = %d, want %d", diet, sum.ByDiet[diet], want)
		}
	}
	if sum.SpeciesAlive != 8 || len(sum.Extinct) != 0 {
		t.Errorf("alive %d extinct %v", sum.SpeciesAlive, sum.Extinct)
	}
	if math.Abs(sum.VegMean-50) > 1e-9 {
		t.Errorf("vegetation mean = %v, want 50", sum.VegMean)
	}

	wantBiomes := []struct {
		biome world.Biome
		tiles int
		veg   float64
	}{
		{world.BiomeGrassland, 24, 50},
		{world.BiomeForest, 16, 80},
		{world.BiomeWetland, 12, 40},
		{world.BiomeMountain, 12, 20},
	}
	if len(sum.Biomes) != len(wantBiomes) {
		t.Fatalf("expected %d biomes, got %d", len(wantBiomes), len(sum.Biomes))
	}
	for i, want := range wantBiomes {
		got := sum.Biomes[i]
		if got.Biome != want.biome || got.Tiles != want.tiles || got.VegMean != want.veg || got.VegStd != 0 || got.VegP50 != want.veg {
			t.Errorf("biome %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestRecordCountsExtinct(t *testing.T) {
	s, _ := world.Generate(3)
	s.Species[4].Population = 0 // Fox
	s.Tiles[0].Vegetation = 10

	rec := Record(s)
	if rec.Extinct != 1 || rec.SpeciesAlive != 7 {
		t.Errorf("expected 1 extinct 7 alive, got %d / %d", rec.Extinct, rec.SpeciesAlive)
	}
	if rec.Carnivores != 35 {
		t.Errorf("carnivores = %d, want 35", rec.Carnivores)
	}
	if rec.VegStd == 0 {
		t.Error("expected non-zero vegetation spread")
	}
}
