// Package persistence provides SQLite-based storage for ecosystem worlds.
// Every committed turn is kept as a full state snapshot.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/talgya/ecosim/internal/world"
)

var (
	// ErrNoWorld is returned when a world, turn or current-world pointer is missing.
	ErrNoWorld = errors.New("no such world")
	// ErrTurnConflict is returned when a turn is not the direct successor of
	// the latest stored turn, e.g. when two writers advance the same world.
	ErrTurnConflict = errors.New("turn conflict")
)

const metaCurrentWorld = "current_world"

// DB wraps a SQLite connection for world persistence.
type DB struct {
	conn *sqlx.DB
}

// WorldRow is one stored world.
type WorldRow struct {
	ID        string `db:"id"`
	GridSize  int    `db:"grid_size"`
	CreatedAt string `db:"created_at"`
	Turns     int    `db:"turns"`
}

// TurnRow summarises one stored turn without its state blob.
type TurnRow struct {
	Turn        int     `db:"turn"`
	Season      string  `db:"season"`
	Temperature float64 `db:"temperature"`
	Population  int     `db:"population"`
	Species     int     `db:"species"`
	Narration   string  `db:"narration"`
	CreatedAt   string  `db:"created_at"`
}

// EventRow is one stored event.
type EventRow struct {
	Turn        int    `db:"turn"`
	Description string `db:"description"`
	Severity    string `db:"severity"`
	Species     string `db:"species"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	// Write transactions take the lock at BEGIN so a second writer waits on
	// busy_timeout and then sees the first writer's turn.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS worlds (
		id TEXT PRIMARY KEY,
		grid_size INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS turns (
		world_id TEXT NOT NULL REFERENCES worlds(id) ON DELETE CASCADE,
		turn INTEGER NOT NULL,
		season TEXT NOT NULL,
		temperature REAL NOT NULL,
		population INTEGER NOT NULL,
		species INTEGER NOT NULL,
		narration TEXT NOT NULL,
		state_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (world_id, turn)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		world_id TEXT NOT NULL REFERENCES worlds(id) ON DELETE CASCADE,
		turn INTEGER NOT NULL,
		description TEXT NOT NULL,
		severity TEXT NOT NULL,
		species TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_world_turn ON events(world_id, turn);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// CreateWorld stores state as turn 0 of a new world and returns its ID.
func (db *DB) CreateWorld(state *world.State) (string, error) {
	if err := world.Validate(state); err != nil {
		return "", err
	}

	id := uuid.NewString()
	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT INTO worlds (id, grid_size, created_at) VALUES (?, ?, ?)",
		id, state.GridSize, now()); err != nil {
		return "", fmt.Errorf("insert world: %w", err)
	}
	if err := insertTurn(tx, id, state, ""); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	slog.Info("world created", "world", id, "grid_size", state.GridSize, "turn", state.Turn)
	return id, nil
}

// SaveTurn appends state to a world along with the turn's narration and
// events. state.Turn must follow the latest stored turn directly.
func (db *DB) SaveTurn(worldID string, state *world.State, narration string, events []world.Event) error {
	if err := world.Validate(state); err != nil {
		return err
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var latest sql.NullInt64
	if err := tx.Get(&latest, "SELECT MAX(turn) FROM turns WHERE world_id = ?", worldID); err != nil {
		return fmt.Errorf("latest turn: %w", err)
	}
	if !latest.Valid {
		return fmt.Errorf("%w: %s", ErrNoWorld, worldID)
	}
	if int64(state.Turn) != latest.Int64+1 {
		return fmt.Errorf("%w: world %s is at turn %d, got turn %d", ErrTurnConflict, worldID, latest.Int64, state.Turn)
	}

	if err := insertTurn(tx, worldID, state, narration); err != nil {
		return err
	}

	for _, e := range events {
		affected := e.AffectedSpecies
		if affected == nil {
			affected = []string{}
		}
		species, err := json.Marshal(affected)
		if err != nil {
			return fmt.Errorf("marshal event species: %w", err)
		}
		_, err = tx.Exec(
			"INSERT INTO events (world_id, turn, description, severity, species) VALUES (?, ?, ?, ?, ?)",
			worldID, state.Turn, e.Description, string(e.Severity), string(species),
		)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Debug("turn saved", "world", worldID, "turn", state.Turn, "events", len(events))
	return nil
}

func insertTurn(tx *sqlx.Tx, worldID string, state *world.State, narration string) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO turns
		(world_id, turn, season, temperature, population, species, narration, state_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		worldID, state.Turn, state.Season, state.Temperature, state.Population(),
		len(state.Species), narration, string(stateJSON), now(),
	)
	if isPrimaryKeyViolation(err) {
		return fmt.Errorf("%w: turn %d already stored for world %s", ErrTurnConflict, state.Turn, worldID)
	}
	if err != nil {
		return fmt.Errorf("insert turn %d: %w", state.Turn, err)
	}
	return nil
}

func isPrimaryKeyViolation(err error) bool {
	var serr *sqlite.Error
	return errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// LoadLatest returns the most recent state of a world.
func (db *DB) LoadLatest(worldID string) (*world.State, error) {
	return db.loadState(worldID,
		"SELECT state_json FROM turns WHERE world_id = ? ORDER BY turn DESC LIMIT 1", worldID)
}

// LoadTurn returns the state of a world at a given turn.
func (db *DB) LoadTurn(worldID string, turn int) (*world.State, error) {
	return db.loadState(worldID,
		"SELECT state_json FROM turns WHERE world_id = ? AND turn = ?", worldID, turn)
}

func (db *DB) loadState(worldID, query string, args ...any) (*world.State, error) {
	var raw string
	err := db.conn.Get(&raw, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoWorld, worldID)
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	var state world.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("%w: decode stored state: %v", world.ErrInvalidState, err)
	}
	if err := world.Validate(&state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Worlds lists stored worlds, newest first.
func (db *DB) Worlds() ([]WorldRow, error) {
	var rows []WorldRow
	err := db.conn.Select(&rows, `
		SELECT w.id, w.grid_size, w.created_at, COUNT(t.turn) AS turns
		FROM worlds w LEFT JOIN turns t ON t.world_id = w.id
		GROUP BY w.id ORDER BY w.created_at DESC, w.id`)
	return rows, err
}

// Turns returns the per-turn summaries of a world in turn order.
func (db *DB) Turns(worldID string) ([]TurnRow, error) {
	var rows []TurnRow
	err := db.conn.Select(&rows, `
		SELECT turn, season, temperature, population, species, narration, created_at
		FROM turns WHERE world_id = ? ORDER BY turn`, worldID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoWorld, worldID)
	}
	return rows, nil
}

// RecentEvents returns the most recent N events of a world, newest first.
func (db *DB) RecentEvents(worldID string, limit int) ([]EventRow, error) {
	var events []EventRow
	err := db.conn.Select(&events,
		"SELECT turn, description, severity, species FROM events WHERE world_id = ? ORDER BY id DESC LIMIT ?",
		worldID, limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// SetCurrentWorld marks worldID as the world CLI commands act on.
func (db *DB) SetCurrentWorld(worldID string) error {
	return db.SaveMeta(metaCurrentWorld, worldID)
}

// CurrentWorld returns the world CLI commands act on.
func (db *DB) CurrentWorld() (string, error) {
	id, err := db.GetMeta(metaCurrentWorld)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: no current world, run 'ecosim new' first", ErrNoWorld)
	}
	return id, err
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
