package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/talgya/ecosim/internal/config"
	"github.com/talgya/ecosim/internal/telemetry"
	"github.com/talgya/ecosim/internal/world"
)

const turnReply = `{
  "species": [
    {"name": "Grass", "population": 5000, "diet": "producer", "prey": [], "predators": ["Rabbit"], "preferred_biome": "grassland", "reproduction_rate": 1.5, "territory_size": 0.01},
    {"name": "Rabbit", "population": 300, "diet": "herbivore", "prey": ["Grass"], "predators": [], "preferred_biome": "grassland", "reproduction_rate": 0.8, "territory_size": 0.5}
  ],
  "season": "spring",
  "temperature": 16,
  "narration": "The meadow thins as rabbits multiply.",
  "events": [{"description": "Rabbits overgraze the meadow", "affected_species": ["Rabbit"], "severity": "medium"}],
  "warnings": []
}`

// fakeOracle answers forecast prompts with turnReply and anything else with
// a short chat answer.
func fakeOracle(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		text := turnReply
		if len(req.Messages) > 0 && strings.Contains(req.Messages[0].Content, "User question") {
			text = "Rabbits are thriving."
		}
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": text}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// resetFlags restores every flag of cmd and its subcommands to its default,
// since flag variables outlive a single Execute.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// run executes the CLI with a fresh database and config in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{
		"--config", filepath.Join(dir, "ecosim.yaml"),
		"--db", filepath.Join(dir, "ecosim.db"),
		"--log-level", "error",
	}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	srv := fakeOracle(t)
	t.Setenv(config.APIKeyEnv, "test-key")

	body := "oracle:\n  base_url: " + srv.URL + "\n  retry_delay: 0s\ntelemetry:\n  dir: " + filepath.Join(dir, "telemetry") + "\n"
	if err := os.WriteFile(filepath.Join(dir, "ecosim.yaml"), []byte(body), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return dir
}

func TestCLIWorkflow(t *testing.T) {
	dir := setupCLI(t)

	out, err := run(t, dir, "new", "--grid", "6")
	if err != nil {
		t.Fatalf("new failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Created world") || !strings.Contains(out, "10,000") {
		t.Errorf("unexpected new output:\n%s", out)
	}

	out, err = run(t, dir, "advance", "--action", "introduce rabbits")
	if err != nil {
		t.Fatalf("advance failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Turn 1") || !strings.Contains(out, "The meadow thins") {
		t.Errorf("unexpected advance output:\n%s", out)
	}

	out, err = run(t, dir, "chat", "how", "are", "the", "rabbits?")
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if strings.TrimSpace(out) != "Rabbits are thriving." {
		t.Errorf("unexpected chat output %q", out)
	}

	out, err = run(t, dir, "show", "--map")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "Rabbits overgraze the meadow") || !strings.Contains(out, "grassland") || !strings.Contains(out, "F F g g") {
		t.Errorf("unexpected show output:\n%s", out)
	}

	out, err = run(t, dir, "history", "--csv", "-")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	records, err := telemetry.ReadCSV(strings.NewReader(out))
	if err != nil {
		t.Fatalf("history csv unreadable: %v\n%s", err, out)
	}
	if len(records) != 2 || records[1].Population != 5300 {
		t.Errorf("unexpected history records %+v", records)
	}

	// Telemetry rows for turn 0 and turn 1.
	data, err := os.ReadFile(filepath.Join(dir, "telemetry", "turns.csv"))
	if err != nil {
		t.Fatalf("telemetry not written: %v", err)
	}
	if n := len(strings.Split(strings.TrimSpace(string(data)), "\n")); n != 3 {
		t.Errorf("expected header + 2 rows, got %d lines", n)
	}

	exported := filepath.Join(dir, "state.json")
	if _, err := run(t, dir, "export", exported); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	out, err = run(t, dir, "load", exported)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !strings.Contains(out, "(turn 1)") {
		t.Errorf("unexpected load output %q", out)
	}

	out, err = run(t, dir, "worlds")
	if err != nil {
		t.Fatalf("worlds failed: %v", err)
	}
	if strings.Count(out, "\n") != 2 || strings.Count(out, "*") != 1 {
		t.Errorf("expected two worlds, one current:\n%s", out)
	}
}

func TestCLIAdvanceNeedsWorld(t *testing.T) {
	dir := setupCLI(t)
	if _, err := run(t, dir, "advance"); err == nil || !strings.Contains(err.Error(), "ecosim new") {
		t.Errorf("expected missing-world error, got %v", err)
	}
}

func TestCLILoadRejectsInvalidState(t *testing.T) {
	dir := setupCLI(t)

	s, _ := world.Generate(3)
	s.GridSize = 4
	data, _ := json.Marshal(s)
	path := filepath.Join(dir, "bad.json")
	os.WriteFile(path, data, 0644)

	if _, err := run(t, dir, "load", path); err == nil {
		t.Error("expected invalid state to be rejected")
	}
}

func TestCLIFlagsDoNotLeak(t *testing.T) {
	dir := setupCLI(t)

	if _, err := run(t, dir, "new", "--grid", "4"); err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if _, err := run(t, dir, "show", "--map"); err != nil {
		t.Fatalf("show failed: %v", err)
	}

	out, err := run(t, dir, "new")
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if !strings.Contains(out, "(8x8)") || flagGrid != 0 {
		t.Errorf("--grid leaked into the next run:\n%s", out)
	}
	if flagShowMap || flagAction != "" {
		t.Errorf("flags not reset: map=%v action=%q", flagShowMap, flagAction)
	}
}

func TestCLINewSurvivesTelemetryFailure(t *testing.T) {
	dir := setupCLI(t)

	// A regular file where the telemetry directory should go.
	blocked := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocked, nil, 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	body := "telemetry:\n  dir: " + filepath.Join(blocked, "telemetry") + "\n"
	if err := os.WriteFile(filepath.Join(dir, "ecosim.yaml"), []byte(body), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	out, err := run(t, dir, "new", "--grid", "3")
	if err != nil {
		t.Fatalf("new should not fail on telemetry errors: %v", err)
	}
	if !strings.Contains(out, "Created world") {
		t.Errorf("unexpected new output:\n%s", out)
	}
	if _, err := run(t, dir, "show"); err != nil {
		t.Errorf("world was not made current: %v", err)
	}
}

func TestCLIConfigWritesYAML(t *testing.T) {
	dir := setupCLI(t)
	dbPath := filepath.Join(dir, "ecosim.db")
	path := filepath.Join(dir, "effective.yaml")

	if _, err := run(t, dir, "config", path); err != nil {
		t.Fatalf("config failed: %v", err)
	}

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if loaded.Storage.Path != dbPath || loaded.Oracle.RetryDelay != 0 || loaded.Log.Level != "error" {
		t.Errorf("effective settings lost: %+v", loaded)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "test-key") {
		t.Error("API key written to config file")
	}
}
