// Turn forecasting and conversation over the Messages API.
// The model proposes populations and narrative; the engine owns everything else.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/talgya/ecosim/internal/engine"
	"github.com/talgya/ecosim/internal/world"
)

const (
	DefaultMaxTokens     = 4096
	DefaultChatMaxTokens = 600
)

// Oracle implements engine.Oracle with a Client.
type Oracle struct {
	client        *Client
	maxTokens     int
	chatMaxTokens int
}

// NewOracle wraps client. Zero token budgets fall back to the defaults.
func NewOracle(client *Client, maxTokens, chatMaxTokens int) *Oracle {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if chatMaxTokens <= 0 {
		chatMaxTokens = DefaultChatMaxTokens
	}
	return &Oracle{client: client, maxTokens: maxTokens, chatMaxTokens: chatMaxTokens}
}

var _ engine.Oracle = (*Oracle)(nil)

const systemPrompt = `You are an ecosystem simulation engine. You simulate, turn by turn, the consequences of time passing and of user interventions on a small virtual ecosystem.

Follow ecological principles:
- Predator-prey dynamics (Lotka-Volterra style relationships)
- Carrying capacity limits based on territory and resources
- Seasonal effects on reproduction and survival
- Food chain cascades (removing a species affects others)
- Migration patterns based on resource availability
- Competition between species with similar niches

Be scientifically grounded but engaging. The user should feel they are observing a living world.`

const forecastFormat = `Respond ONLY with a single JSON object, no prose around it:
{
  "species": [{"name": str, "population": int, "diet": "producer"|"herbivore"|"carnivore"|"omnivore", "prey": [str], "predators": [str], "preferred_biome": "grassland"|"forest"|"desert"|"tundra"|"wetland"|"mountain", "reproduction_rate": number, "territory_size": number}],
  "season": "spring"|"summer"|"fall"|"winter",
  "temperature": number,
  "narration": str,
  "events": [{"description": str, "affected_species": [str], "affected_tiles": [[x, y]], "severity": "low"|"medium"|"high"}],
  "warnings": [str]
}
List every surviving species, including new ones the intervention introduced. Use population 0 for a species that died out this turn.`

// Forecast asks the model for the next turn.
func (o *Oracle) Forecast(ctx context.Context, state *world.State, iv *engine.Intervention) (*engine.Forecast, error) {
	if !o.client.Enabled() {
		return nil, ErrNotConfigured
	}

	resp, err := o.client.Complete(ctx, systemPrompt, buildTurnPrompt(state, iv), o.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	return parseForecast(resp)
}

// Converse answers a question about state without advancing it.
func (o *Oracle) Converse(ctx context.Context, state *world.State, message string) (string, error) {
	if !o.client.Enabled() {
		return "", ErrNotConfigured
	}

	resp, err := o.client.Complete(ctx, systemPrompt, buildChatPrompt(state, message), o.chatMaxTokens)
	if err != nil {
		return "", fmt.Errorf("converse: %w", err)
	}
	return strings.TrimSpace(resp), nil
}

func buildTurnPrompt(state *world.State, iv *engine.Intervention) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Current ecosystem state (Turn %d):\n", state.Turn)
	fmt.Fprintf(&b, "Season: %s, Temperature: %.1f°C", state.Season, state.Temperature)
	if season, err := engine.ParseSeason(state.Season); err == nil {
		fmt.Fprintf(&b, " (next season: %s)", season.Next())
	}
	b.WriteString("\n\n")

	b.WriteString("Species populations:\n")
	for _, sp := range state.Species {
		fmt.Fprintf(&b, "- %s (%s, %s): %d (eats: [%s], eaten by: [%s], reproduction %.2f, territory %.2f)\n",
			sp.Name, sp.Diet, sp.PreferredBiome, sp.Population,
			strings.Join(sp.Prey, ", "), strings.Join(sp.Predators, ", "),
			sp.ReproductionRate, sp.TerritorySize)
	}

	fmt.Fprintf(&b, "\nGrid summary (%dx%d):\n", state.GridSize, state.GridSize)
	counts := world.BiomeCounts(state)
	for _, biome := range world.Biomes {
		if counts[biome] > 0 {
			fmt.Fprintf(&b, "- %s: %d tiles\n", biome, counts[biome])
		}
	}

	if n := len(state.EventsLog); n > 0 {
		b.WriteString("\nRecent events:\n")
		for _, e := range state.EventsLog[max(0, n-5):] {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}

	if iv != nil {
		fmt.Fprintf(&b, "\n**USER INTERVENTION**: %s\n", iv.Describe())
	}

	b.WriteString(`
Advance the simulation by one turn. Consider:
1. How populations change based on predator-prey relationships
2. Seasonal effects (move to the next season if appropriate)
3. Any natural events (storms, disease, migration)
4. Effects of the user intervention if provided

`)
	b.WriteString(forecastFormat)
	return b.String()
}

func buildChatPrompt(state *world.State, message string) string {
	parts := make([]string, 0, len(state.Species))
	for _, sp := range state.Species {
		parts = append(parts, fmt.Sprintf("%s(%d)", sp.Name, sp.Population))
	}

	return fmt.Sprintf(`Current ecosystem (Turn %d, %s, %.1f°C):
Species: %s

User question: %s

Provide a helpful, scientifically grounded answer about this ecosystem.
If the user asks what they should do, suggest interesting interventions.
Keep the answer concise but informative. Plain text, no JSON.`,
		state.Turn, state.Season, state.Temperature, strings.Join(parts, ", "), message)
}

// wireForecast is the model's JSON. Populations arrive as numbers of any
// shape, and some answers nest the payload under "new_state".
type wireForecast struct {
	Species     []wireSpecies `json:"species"`
	Season      string        `json:"season"`
	Temperature *float64      `json:"temperature"`
	Narration   string        `json:"narration"`
	Events      []wireEvent   `json:"events"`
	Warnings    []string      `json:"warnings"`
	NewState    *struct {
		Species     []wireSpecies `json:"species"`
		Season      string        `json:"season"`
		Temperature *float64      `json:"temperature"`
	} `json:"new_state"`
}

type wireSpecies struct {
	Name             string   `json:"name"`
	Population       float64  `json:"population"`
	Diet             string   `json:"diet"`
	Prey             []string `json:"prey"`
	Predators        []string `json:"predators"`
	PreferredBiome   string   `json:"preferred_biome"`
	ReproductionRate float64  `json:"reproduction_rate"`
	TerritorySize    float64  `json:"territory_size"`
}

type wireEvent struct {
	Description     string        `json:"description"`
	AffectedSpecies []string      `json:"affected_species"`
	AffectedTiles   []world.Coord `json:"affected_tiles"`
	Severity        string        `json:"severity"`
}

// extractJSON strips markdown fences and surrounding prose, returning the
// outermost {...} of the response.
func extractJSON(resp string) (string, error) {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")

	start := strings.Index(resp, "{")
	end := strings.LastIndex(resp, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("%w: no JSON object found in response", engine.ErrOracleMalformed)
	}
	return resp[start : end+1], nil
}

func parseForecast(resp string) (*engine.Forecast, error) {
	raw, err := extractJSON(resp)
	if err != nil {
		return nil, err
	}

	var w wireForecast
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, fmt.Errorf("%w: parse forecast: %v", engine.ErrOracleMalformed, err)
	}
	if w.NewState != nil && len(w.Species) == 0 {
		w.Species = w.NewState.Species
		if w.Season == "" {
			w.Season = w.NewState.Season
		}
		if w.Temperature == nil {
			w.Temperature = w.NewState.Temperature
		}
	}
	if w.Temperature == nil {
		return nil, fmt.Errorf("%w: forecast has no temperature", engine.ErrOracleMalformed)
	}

	fc := &engine.Forecast{
		Season:      strings.ToLower(strings.TrimSpace(w.Season)),
		Temperature: *w.Temperature,
		Narration:   strings.TrimSpace(w.Narration),
		Warnings:    w.Warnings,
	}

	for _, ws := range w.Species {
		sp, err := sanitizeSpecies(ws)
		if err != nil {
			return nil, err
		}
		fc.Species = append(fc.Species, sp)
	}

	for _, we := range w.Events {
		fc.Events = append(fc.Events, world.Event{
			Description:     strings.TrimSpace(we.Description),
			AffectedSpecies: orEmpty(we.AffectedSpecies),
			AffectedTiles:   orEmptyCoords(we.AffectedTiles),
			Severity:        parseSeverity(we.Severity),
		})
	}
	return fc, nil
}

// sanitizeSpecies normalises one species. Unknown diets or biomes are
// malformed; out-of-range numbers are clamped.
func sanitizeSpecies(ws wireSpecies) (world.Species, error) {
	name := strings.TrimSpace(ws.Name)

	diet, err := world.ParseDiet(strings.ToLower(strings.TrimSpace(ws.Diet)))
	if err != nil {
		return world.Species{}, fmt.Errorf("%w: species %q: %v", engine.ErrOracleMalformed, name, err)
	}
	biome, err := world.ParseBiome(strings.ToLower(strings.TrimSpace(ws.PreferredBiome)))
	if err != nil {
		return world.Species{}, fmt.Errorf("%w: species %q: %v", engine.ErrOracleMalformed, name, err)
	}

	pop := ws.Population
	if math.IsNaN(pop) || pop < 0 {
		pop = 0
	}
	if pop > math.MaxInt32 {
		pop = math.MaxInt32
	}

	return world.Species{
		Name:             name,
		Population:       int(math.Round(pop)),
		Diet:             diet,
		Prey:             orEmpty(ws.Prey),
		Predators:        orEmpty(ws.Predators),
		PreferredBiome:   biome,
		ReproductionRate: math.Max(0, math.Min(2, ws.ReproductionRate)),
		TerritorySize:    math.Max(0, ws.TerritorySize),
	}, nil
}

func parseSeverity(s string) world.Severity {
	switch sev := world.Severity(strings.ToLower(strings.TrimSpace(s))); sev {
	case world.SeverityLow, world.SeverityMedium, world.SeverityHigh:
		return sev
	}
	return world.SeverityMedium
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func orEmptyCoords(list []world.Coord) []world.Coord {
	if list == nil {
		return []world.Coord{}
	}
	return list
}
