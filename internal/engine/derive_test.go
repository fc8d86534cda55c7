package engine

import (
	"slices"
	"testing"

	"github.com/talgya/ecosim/internal/world"
)

func grassTile(veg int) world.Tile {
	return world.Tile{X: 1, Y: 2, Biome: world.BiomeGrassland, Elevation: 20, WaterLevel: 40, Vegetation: veg}
}

func TestBaselineVegetation(t *testing.T) {
	tests := []struct {
		name    string
		natives []world.Species
		want    int
		ok      bool
	}{
		{"no species", nil, 0, false},
		{"no producers", []world.Species{{Name: "Rabbit", Diet: world.DietHerbivore, Population: 900}}, 0, false},
		{"half capacity", []world.Species{{Name: "Grass", Diet: world.DietProducer, Population: 5000}}, 50, true},
		{"summed producers", []world.Species{
			{Name: "Grass", Diet: world.DietProducer, Population: 3000},
			{Name: "Moss", Diet: world.DietProducer, Population: 2000},
		}, 50, true},
		{"capped at 100", []world.Species{{Name: "Grass", Diet: world.DietProducer, Population: 90000}}, 100, true},
		{"floor of 5", []world.Species{{Name: "Grass", Diet: world.DietProducer, Population: 10}}, 5, true},
		{"extinct producer still replaces", []world.Species{{Name: "Grass", Diet: world.DietProducer, Population: 0}}, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BaselineVegetation(tt.natives)
			if ok != tt.ok || got != tt.want {
				t.Errorf("BaselineVegetation() = %d, %v; want %d, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestApplySeasonFromBaseline50(t *testing.T) {
	tests := []struct {
		season Season
		want   int
	}{
		{SeasonWinter, 30},
		{SeasonSpring, 60},
		{SeasonSummer, 55},
		{SeasonFall, 50},
	}
	for _, tt := range tests {
		if got := ApplySeason(50, tt.season); got != tt.want {
			t.Errorf("ApplySeason(50, %s) = %d, want %d", tt.season, got, tt.want)
		}
	}
}

func TestApplySeasonBounds(t *testing.T) {
	if got := ApplySeason(12, SeasonWinter); got != 10 {
		t.Errorf("winter floor: got %d, want 10", got)
	}
	if got := ApplySeason(95, SeasonSpring); got != 100 {
		t.Errorf("spring cap: got %d, want 100", got)
	}
	if got := ApplySeason(99, SeasonSummer); got != 100 {
		t.Errorf("summer cap: got %d, want 100", got)
	}
	if got := ApplySeason(7, SeasonSpring); got != 8 {
		t.Errorf("spring truncation: got %d, want 8", got)
	}
}

func TestApplyGrazing(t *testing.T) {
	herd := func(pop ...int) []world.Species {
		var out []world.Species
		for i, p := range pop {
			out = append(out, world.Species{Name: string(rune('A' + i)), Diet: world.DietHerbivore, Population: p})
		}
		return out
	}

	tests := []struct {
		name    string
		veg     int
		natives []world.Species
		want    int
	}{
		{"300 grazers", 60, herd(300), 54},
		{"summed herds", 60, herd(100, 200), 54},
		{"impact capped at 20", 60, herd(2000), 40},
		{"floor of 5", 10, herd(2000), 5},
		{"truncated impact", 60, herd(99), 59},
		{"carnivores do not graze", 60, []world.Species{{Name: "Wolf", Diet: world.DietCarnivore, Population: 5000}}, 60},
		{"no natives", 60, nil, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplyGrazing(tt.veg, tt.natives); got != tt.want {
				t.Errorf("ApplyGrazing(%d) = %d, want %d", tt.veg, got, tt.want)
			}
		})
	}
}

func TestDeriveTilesPipelineOrder(t *testing.T) {
	species := []world.Species{
		{Name: "Grass", Diet: world.DietProducer, Population: 5000, PreferredBiome: world.BiomeGrassland},
		{Name: "Rabbit", Diet: world.DietHerbivore, Population: 300, PreferredBiome: world.BiomeGrassland},
	}
	// baseline 50 → spring 60 → grazing 6 → 54
	out := DeriveTiles([]world.Tile{grassTile(80)}, species, SeasonSpring)
	if out[0].Vegetation != 54 {
		t.Errorf("expected vegetation 54, got %d", out[0].Vegetation)
	}
	if !slices.Equal(out[0].SpeciesPresent, []string{"Grass", "Rabbit"}) {
		t.Errorf("unexpected species present %v", out[0].SpeciesPresent)
	}
}

func TestDeriveTilesPreservesTerrainAndOrder(t *testing.T) {
	s, _ := world.Generate(6)
	before := s.Clone()

	out := DeriveTiles(s.Tiles, s.Species, SeasonSummer)
	if len(out) != len(s.Tiles) {
		t.Fatalf("expected %d tiles, got %d", len(s.Tiles), len(out))
	}
	for i := range out {
		in := before.Tiles[i]
		if out[i].X != in.X || out[i].Y != in.Y || out[i].Biome != in.Biome ||
			out[i].Elevation != in.Elevation || out[i].WaterLevel != in.WaterLevel {
			t.Fatalf("tile %d terrain changed: %+v -> %+v", i, in, out[i])
		}
	}

	// Input untouched.
	for i := range s.Tiles {
		if s.Tiles[i].Vegetation != before.Tiles[i].Vegetation ||
			!slices.Equal(s.Tiles[i].SpeciesPresent, before.Tiles[i].SpeciesPresent) {
			t.Fatalf("input tile %d modified", i)
		}
	}
}

func TestDeriveTilesNoProducerKeepsPriorBaseline(t *testing.T) {
	tile := world.Tile{Biome: world.BiomeMountain, Vegetation: 20}
	species := []world.Species{
		{Name: "Hawk", Diet: world.DietCarnivore, Population: 20, PreferredBiome: world.BiomeMountain},
	}

	out := DeriveTiles([]world.Tile{tile}, species, SeasonSpring)
	if out[0].Vegetation != 24 {
		t.Errorf("expected 24, got %d", out[0].Vegetation)
	}
	if !slices.Equal(out[0].SpeciesPresent, []string{"Hawk"}) {
		t.Errorf("unexpected species present %v", out[0].SpeciesPresent)
	}
}

func TestDeriveTilesEmptyBiome(t *testing.T) {
	tile := world.Tile{Biome: world.BiomeDesert, Vegetation: 40, SpeciesPresent: []string{"Camel"}}
	species := world.DefaultRoster()

	out := DeriveTiles([]world.Tile{tile}, species, SeasonWinter)
	if len(out[0].SpeciesPresent) != 0 {
		t.Errorf("expected no species, got %v", out[0].SpeciesPresent)
	}
	if out[0].Vegetation != 24 {
		t.Errorf("expected winter-only vegetation 24, got %d", out[0].Vegetation)
	}
}

func TestDeriveTilesDropsExtinctSpecies(t *testing.T) {
	tile := grassTile(50)
	tile.SpeciesPresent = []string{"Grass", "Rabbit", "Fox"}
	species := []world.Species{
		{Name: "Grass", Diet: world.DietProducer, Population: 5000, PreferredBiome: world.BiomeGrassland},
		{Name: "Rabbit", Diet: world.DietHerbivore, Population: 0, PreferredBiome: world.BiomeGrassland},
		{Name: "Fox", Diet: world.DietCarnivore, Population: 3, PreferredBiome: world.BiomeGrassland},
	}

	out := DeriveTiles([]world.Tile{tile}, species, SeasonFall)
	if !slices.Equal(out[0].SpeciesPresent, []string{"Grass", "Fox"}) {
		t.Errorf("expected [Grass Fox], got %v", out[0].SpeciesPresent)
	}
}

func TestDeriveTilesInvariants(t *testing.T) {
	rosters := [][]world.Species{
		world.DefaultRoster(),
		{},
		{
			{Name: "Grass", Diet: world.DietProducer, Population: 0, PreferredBiome: world.BiomeGrassland},
			{Name: "Rabbit", Diet: world.DietHerbivore, Population: 100000, PreferredBiome: world.BiomeGrassland},
			{Name: "Deer", Diet: world.DietHerbivore, Population: 0, PreferredBiome: world.BiomeForest},
		},
		{
			{Name: "Kelp", Diet: world.DietProducer, Population: 1 << 30, PreferredBiome: world.BiomeWetland},
			{Name: "Goat", Diet: world.DietHerbivore, Population: 7, PreferredBiome: world.BiomeMountain},
		},
	}

	base, _ := world.Generate(9)
	for ri, roster := range rosters {
		pop := make(map[string]int)
		for _, sp := range roster {
			pop[sp.Name] = sp.Population
		}
		for _, season := range []Season{SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter} {
			tiles := base.Tiles
			for round := 0; round < 4; round++ {
				tiles = DeriveTiles(tiles, roster, season)
				for _, tile := range tiles {
					if tile.Vegetation < 5 || tile.Vegetation > 100 {
						t.Fatalf("roster %d %s round %d: tile %s vegetation %d out of range",
							ri, season, round, tile.Coord(), tile.Vegetation)
					}
					for _, name := range tile.SpeciesPresent {
						if pop[name] <= 0 {
							t.Fatalf("roster %d: tile %s lists %q with population %d", ri, tile.Coord(), name, pop[name])
						}
					}
				}
			}
		}
	}
}

func TestDeriveTilesConverges(t *testing.T) {
	s, _ := world.Generate(8)

	for _, season := range []Season{SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter} {
		first := DeriveTiles(s.Tiles, s.Species, season)
		second := DeriveTiles(first, s.Species, season)

		// Biomes with producers are fully re-derived, so a second pass is a no-op.
		for i := range first {
			if first[i].Biome == world.BiomeGrassland || first[i].Biome == world.BiomeForest {
				if first[i].Vegetation != second[i].Vegetation {
					t.Errorf("%s: producer tile %s changed %d -> %d", season, first[i].Coord(), first[i].Vegetation, second[i].Vegetation)
				}
			}
		}

		// Biomes without producers compound but settle at a fixed point.
		tiles := second
		for i := 0; i < 50; i++ {
			tiles = DeriveTiles(tiles, s.Species, season)
		}
		again := DeriveTiles(tiles, s.Species, season)
		for i := range tiles {
			if tiles[i].Vegetation != again[i].Vegetation {
				t.Errorf("%s: tile %s did not converge (%d -> %d)", season, tiles[i].Coord(), tiles[i].Vegetation, again[i].Vegetation)
			}
		}
	}
}

func TestDeriveTilesDefaultRosterSpring(t *testing.T) {
	s, _ := world.Generate(8)
	out := DeriveTiles(s.Tiles, s.Species, SeasonSpring)

	want := map[world.Biome]int{
		world.BiomeGrassland: 96, // 100 capped, 200 rabbits graze 4
		world.BiomeForest:    5,  // 500 oaks → 5, spring 6, 50 deer graze 1
		world.BiomeWetland:   48, // no producers: 40 × 1.2
		world.BiomeMountain:  24, // no producers: 20 × 1.2
	}
	for _, tile := range out {
		if tile.Vegetation != want[tile.Biome] {
			t.Errorf("tile %s (%s): vegetation %d, want %d", tile.Coord(), tile.Biome, tile.Vegetation, want[tile.Biome])
		}
	}
}
