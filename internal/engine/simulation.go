// Turn orchestration: ask the oracle for next-turn populations, re-derive the
// tiles locally, and assemble the replacement state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talgya/ecosim/internal/world"
)

// DefaultLogLimit is how many events_log entries a state keeps.
const DefaultLogLimit = 50

// FallbackReply is returned by Query when the oracle has nothing usable.
const FallbackReply = "The ecosystem is quiet for now. I couldn't form an answer, please ask again in a moment."

var errEmptyForecast = errors.New("forecast has no species")

// Simulation advances ecosystem states. It keeps no world state of its own;
// every call takes a state and returns a new one, so callers must serialise
// advances on a given world themselves.
type Simulation struct {
	Oracle   Oracle
	Retry    RetryPolicy
	LogLimit int // events_log entries kept per state; 0 = DefaultLogLimit
}

// Result is the outcome of one advanced turn.
type Result struct {
	NewState  *world.State  `json:"new_state"`
	Events    []world.Event `json:"events"`
	Narration string        `json:"narration"`
	Warnings  []string      `json:"warnings"`
}

// NewSimulation creates a Simulation with the default retry policy.
func NewSimulation(oracle Oracle) *Simulation {
	return &Simulation{
		Oracle:   oracle,
		Retry:    DefaultRetryPolicy(),
		LogLimit: DefaultLogLimit,
	}
}

// Advance runs one turn. The oracle supplies species, season, temperature and
// narrative; tiles are re-derived from the prior layout and the turn counter is
// always state.Turn+1. The input state is never modified, and on error no
// partial state is returned.
func (s *Simulation) Advance(ctx context.Context, state *world.State, iv *Intervention) (*Result, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: nil state", world.ErrInvalidState)
	}
	if err := iv.Validate(); err != nil {
		return nil, err
	}

	prior := state.Clone()

	fc, season, err := s.forecast(ctx, prior, iv)
	if err != nil {
		slog.Warn("turn aborted", "turn", state.Turn, "error", err)
		return nil, err
	}

	next := &world.State{
		Turn:        prior.Turn + 1,
		GridSize:    prior.GridSize,
		Tiles:       DeriveTiles(prior.Tiles, fc.Species, season),
		Species:     world.CloneSpecies(fc.Species),
		Season:      SeasonName(season),
		Temperature: fc.Temperature,
		EventsLog:   s.extendLog(prior.EventsLog, iv, fc.Events),
	}

	slog.Info("turn advanced",
		"turn", next.Turn,
		"season", next.Season,
		"temperature", next.Temperature,
		"species", len(next.Species),
		"population", next.Population(),
		"events", len(fc.Events),
		"warnings", len(fc.Warnings),
	)

	return &Result{
		NewState:  next,
		Events:    fc.Events,
		Narration: fc.Narration,
		Warnings:  fc.Warnings,
	}, nil
}

// forecast calls the oracle under the retry policy. Transient failures are
// retried; malformed answers abort at once.
func (s *Simulation) forecast(ctx context.Context, prior *world.State, iv *Intervention) (*Forecast, Season, error) {
	if s.Oracle == nil {
		return nil, 0, fmt.Errorf("%w: no oracle configured", ErrOracleUnavailable)
	}

	attempts := s.Retry.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := s.Retry.wait(ctx); err != nil {
				return nil, 0, fmt.Errorf("%w: %v (last error: %v)", ErrOracleUnavailable, err, lastErr)
			}
		}

		// Each attempt sees a fresh copy.
		fc, err := s.Oracle.Forecast(ctx, prior.Clone(), iv)
		var season Season
		if err == nil {
			season, err = checkForecast(fc)
		}
		if err == nil {
			return fc, season, nil
		}
		if errors.Is(err, ErrOracleMalformed) {
			return nil, 0, err
		}

		lastErr = err
		slog.Warn("oracle attempt failed", "attempt", attempt, "max_attempts", attempts, "error", err)
	}

	return nil, 0, fmt.Errorf("%w after %d attempts: %v", ErrOracleUnavailable, attempts, lastErr)
}

// checkForecast validates the parts of a forecast that become state.
func checkForecast(fc *Forecast) (Season, error) {
	if fc == nil || len(fc.Species) == 0 {
		return 0, errEmptyForecast
	}

	season, err := ParseSeason(fc.Season)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOracleMalformed, err)
	}

	seen := make(map[string]bool, len(fc.Species))
	for _, sp := range fc.Species {
		switch {
		case strings.TrimSpace(sp.Name) == "":
			return 0, fmt.Errorf("%w: species with empty name", ErrOracleMalformed)
		case seen[sp.Name]:
			return 0, fmt.Errorf("%w: duplicate species %q", ErrOracleMalformed, sp.Name)
		case sp.Population < 0:
			return 0, fmt.Errorf("%w: species %q has negative population", ErrOracleMalformed, sp.Name)
		case !sp.Diet.Valid():
			return 0, fmt.Errorf("%w: species %q has unknown diet %q", ErrOracleMalformed, sp.Name, sp.Diet)
		case !sp.PreferredBiome.Valid():
			return 0, fmt.Errorf("%w: species %q has unknown biome %q", ErrOracleMalformed, sp.Name, sp.PreferredBiome)
		}
		seen[sp.Name] = true
	}
	return season, nil
}

// extendLog appends this turn's intervention and event descriptions and keeps
// the most recent LogLimit entries.
func (s *Simulation) extendLog(prev []string, iv *Intervention, events []world.Event) []string {
	entries := append([]string{}, prev...)
	if iv != nil {
		entries = append(entries, "Intervention: "+iv.Describe())
	}
	for _, e := range events {
		if e.Description != "" {
			entries = append(entries, e.Description)
		}
	}

	limit := s.LogLimit
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries
}

// Query answers a question about state without advancing it. Oracle failures
// are masked behind FallbackReply.
func (s *Simulation) Query(ctx context.Context, state *world.State, message string) string {
	if s.Oracle == nil || state == nil {
		return FallbackReply
	}

	reply, err := s.Oracle.Converse(ctx, state.Clone(), message)
	if err != nil {
		slog.Warn("query failed, using fallback", "error", err)
		return FallbackReply
	}
	if strings.TrimSpace(reply) == "" {
		slog.Warn("query returned empty reply, using fallback")
		return FallbackReply
	}
	return reply
}
