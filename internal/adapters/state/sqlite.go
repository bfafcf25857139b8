// Package state persists the workout hierarchy in SQLite.
package state

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nmolargik/setdeck/internal/core"
	_ "modernc.org/sqlite"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

// SQLiteStore implements core.Persister with SQLite storage. Flush replaces
// the persisted hierarchy with the given snapshot inside one transaction, so
// a partial write is never observable by a later Load.
type SQLiteStore struct {
	dbPath string
	db     *sql.DB
	mu     sync.RWMutex
}

// NewSQLiteStore opens (or creates) the database at dbPath and applies
// pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	s := &SQLiteStore{dbPath: dbPath}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	s.db = db

	if err := s.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// migrate runs pending schema migrations.
func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("checking schema version: %w", err)
	}

	migrations := []string{migrationV1}
	for i, migration := range migrations {
		version := i + 1
		if version <= currentVersion {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration transaction: %w", err)
		}

		for _, stmt := range splitStatements(migration) {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("applying migration v%d: %w", version, err)
			}
		}

		_, err = tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			version, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration v%d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration v%d: %w", version, err)
		}
	}

	return nil
}

// splitStatements splits a migration script into individual statements.
func splitStatements(script string) []string {
	var stmts []string
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || strings.HasPrefix(stmt, "--") {
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}

// Flush replaces the persisted hierarchy with snap atomically.
func (s *SQLiteStore) Flush(ctx context.Context, snap *core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Child tables first; FK constraints are on, so parents go last.
	for _, table := range []string{"set_history", "sets", "exercises", "routines"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, r := range snap.Routines {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO routines (id, day, last_updated) VALUES (?, ?, ?)",
			r.ID.String(), r.Day, r.LastUpdated,
		); err != nil {
			return fmt.Errorf("inserting routine %s: %w", r.ID, err)
		}
	}

	for _, e := range snap.Exercises {
		if err := insertExercise(ctx, tx, e); err != nil {
			return fmt.Errorf("inserting exercise %s: %w", e.ID, err)
		}
	}

	for _, set := range snap.Sets {
		if err := insertSet(ctx, tx, set); err != nil {
			return fmt.Errorf("inserting set %s: %w", set.ID, err)
		}
	}

	for _, h := range snap.History {
		if err := insertHistory(ctx, tx, h); err != nil {
			return fmt.Errorf("inserting history %s: %w", h.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertExercise(ctx context.Context, tx *sql.Tx, e *core.Exercise) error {
	var musclesJSON []byte
	if len(e.MuscleGroups) > 0 {
		var err error
		musclesJSON, err = json.Marshal(e.MuscleGroups)
		if err != nil {
			return fmt.Errorf("marshaling muscle groups: %w", err)
		}
	}

	warmupInt := 0
	if e.IsWarmup {
		warmupInt = 1
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO exercises (
			id, routine_id, name, note, video_url, is_warmup,
			muscle_groups, equipment, order_index
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID.String(), e.RoutineID.String(), e.Name,
		nullableStringPtr(e.Note), nullableStringPtr(e.VideoURL), warmupInt,
		nullableString(musclesJSON), nullableStringPtr(e.Equipment), e.OrderIndex,
	)
	return err
}

func insertSet(ctx context.Context, tx *sql.Tx, set *core.Set) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sets (
			id, exercise_id, set_type, target_reps, weight,
			target_duration_secs, description, rpe, order_index
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		set.ID.String(), set.ExerciseID.String(), string(set.Type),
		nullableInt(set.TargetReps), nullableFloat(set.Weight),
		nullableSeconds(set.TargetDuration), nullableStringPtr(set.Description),
		nullableInt(set.RPE), set.OrderIndex,
	)
	return err
}

func insertHistory(ctx context.Context, tx *sql.Tx, h *core.SetHistory) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO set_history (
			id, set_id, completed_date, actual_reps, actual_weight,
			actual_weight_unit, actual_duration_secs, actual_description,
			actual_rpe, note
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		h.ID.String(), h.SetID.String(), h.CompletedDate,
		nullableInt(h.ActualReps), nullableFloat(h.ActualWeight),
		nullableStringPtr(h.ActualWeightUnit), nullableSeconds(h.ActualDuration),
		nullableStringPtr(h.ActualDescription), nullableInt(h.ActualRPE),
		nullableStringPtr(h.Note),
	)
	return err
}

// Load retrieves the full persisted hierarchy. Children are returned with
// their parent-ID fields set; the store rebuilds parent child-ID slices in
// index order.
func (s *SQLiteStore) Load(ctx context.Context) (*core.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &core.Snapshot{}

	if err := s.loadRoutines(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadExercises(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadSets(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadHistory(ctx, snap); err != nil {
		return nil, err
	}

	linkChildren(snap)
	return snap, nil
}

func (s *SQLiteStore) loadRoutines(ctx context.Context, snap *core.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, day, last_updated FROM routines ORDER BY day ASC")
	if err != nil {
		return fmt.Errorf("loading routines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r core.Routine
		var id string
		if err := rows.Scan(&id, &r.Day, &r.LastUpdated); err != nil {
			return fmt.Errorf("scanning routine: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return fmt.Errorf("parsing routine id: %w", err)
		}
		snap.Routines = append(snap.Routines, &r)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadExercises(ctx context.Context, snap *core.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, routine_id, name, note, video_url, is_warmup,
		       muscle_groups, equipment, order_index
		FROM exercises ORDER BY routine_id, order_index ASC
	`)
	if err != nil {
		return fmt.Errorf("loading exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e core.Exercise
		var id, routineID string
		var note, videoURL, musclesJSON, equipment sql.NullString
		var warmup int
		if err := rows.Scan(&id, &routineID, &e.Name, &note, &videoURL,
			&warmup, &musclesJSON, &equipment, &e.OrderIndex); err != nil {
			return fmt.Errorf("scanning exercise: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return fmt.Errorf("parsing exercise id: %w", err)
		}
		if e.RoutineID, err = uuid.Parse(routineID); err != nil {
			return fmt.Errorf("parsing exercise routine id: %w", err)
		}
		e.IsWarmup = warmup != 0
		e.Note = stringPtr(note)
		e.VideoURL = stringPtr(videoURL)
		e.Equipment = stringPtr(equipment)
		if musclesJSON.Valid && musclesJSON.String != "" {
			if err := json.Unmarshal([]byte(musclesJSON.String), &e.MuscleGroups); err != nil {
				return fmt.Errorf("unmarshaling muscle groups: %w", err)
			}
		}
		snap.Exercises = append(snap.Exercises, &e)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadSets(ctx context.Context, snap *core.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, exercise_id, set_type, target_reps, weight,
		       target_duration_secs, description, rpe, order_index
		FROM sets ORDER BY exercise_id, order_index ASC
	`)
	if err != nil {
		return fmt.Errorf("loading sets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var set core.Set
		var id, exerciseID, setType string
		var targetReps, rpe sql.NullInt64
		var weight, durationSecs sql.NullFloat64
		var description sql.NullString
		if err := rows.Scan(&id, &exerciseID, &setType, &targetReps, &weight,
			&durationSecs, &description, &rpe, &set.OrderIndex); err != nil {
			return fmt.Errorf("scanning set: %w", err)
		}
		if set.ID, err = uuid.Parse(id); err != nil {
			return fmt.Errorf("parsing set id: %w", err)
		}
		if set.ExerciseID, err = uuid.Parse(exerciseID); err != nil {
			return fmt.Errorf("parsing set exercise id: %w", err)
		}
		set.Type = core.SetType(setType)
		set.TargetReps = intPtr(targetReps)
		set.Weight = floatPtr(weight)
		set.TargetDuration = durationPtr(durationSecs)
		set.Description = stringPtr(description)
		set.RPE = intPtr(rpe)
		snap.Sets = append(snap.Sets, &set)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadHistory(ctx context.Context, snap *core.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, set_id, completed_date, actual_reps, actual_weight,
		       actual_weight_unit, actual_duration_secs, actual_description,
		       actual_rpe, note
		FROM set_history ORDER BY completed_date ASC
	`)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h core.SetHistory
		var id, setID string
		var reps, rpe sql.NullInt64
		var weight, durationSecs sql.NullFloat64
		var weightUnit, description, note sql.NullString
		if err := rows.Scan(&id, &setID, &h.CompletedDate, &reps, &weight,
			&weightUnit, &durationSecs, &description, &rpe, &note); err != nil {
			return fmt.Errorf("scanning history: %w", err)
		}
		if h.ID, err = uuid.Parse(id); err != nil {
			return fmt.Errorf("parsing history id: %w", err)
		}
		if h.SetID, err = uuid.Parse(setID); err != nil {
			return fmt.Errorf("parsing history set id: %w", err)
		}
		h.ActualReps = intPtr(reps)
		h.ActualWeight = floatPtr(weight)
		h.ActualWeightUnit = stringPtr(weightUnit)
		h.ActualDuration = durationPtr(durationSecs)
		h.ActualDescription = stringPtr(description)
		h.ActualRPE = intPtr(rpe)
		h.Note = stringPtr(note)
		snap.History = append(snap.History, &h)
	}
	return rows.Err()
}

// linkChildren rebuilds parent child-ID slices from the ordered child rows.
func linkChildren(snap *core.Snapshot) {
	routines := make(map[uuid.UUID]*core.Routine, len(snap.Routines))
	for _, r := range snap.Routines {
		routines[r.ID] = r
	}
	exercises := make(map[uuid.UUID]*core.Exercise, len(snap.Exercises))
	for _, e := range snap.Exercises {
		exercises[e.ID] = e
		if r, ok := routines[e.RoutineID]; ok {
			r.ExerciseIDs = append(r.ExerciseIDs, e.ID)
		}
	}
	sets := make(map[uuid.UUID]*core.Set, len(snap.Sets))
	for _, set := range snap.Sets {
		sets[set.ID] = set
		if e, ok := exercises[set.ExerciseID]; ok {
			e.SetIDs = append(e.SetIDs, set.ID)
		}
	}
	for _, h := range snap.History {
		if set, ok := sets[h.SetID]; ok {
			set.HistoryIDs = append(set.HistoryIDs, h.ID)
		}
	}
}

// SetFlag persists a boolean marker.
func (s *SQLiteStore) SetFlag(ctx context.Context, key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	valueInt := 0
	if value {
		valueInt = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_flags (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, valueInt, time.Now())
	if err != nil {
		return fmt.Errorf("setting flag %s: %w", key, err)
	}
	return nil
}

// Flag reads a boolean marker; missing keys are false.
func (s *SQLiteStore) Flag(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value int
	err := s.db.QueryRowContext(ctx, "SELECT value FROM app_flags WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading flag %s: %w", key, err)
	}
	return value != 0, nil
}

// IntegrityCheck runs SQLite's integrity check, returning its verdict.
func (s *SQLiteStore) IntegrityCheck(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return "", fmt.Errorf("integrity check: %w", err)
	}
	return result, nil
}

// Helper functions for nullable values

func nullableString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func nullableStringPtr(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullableInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullableFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullableSeconds(d *time.Duration) sql.NullFloat64 {
	if d == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: d.Seconds(), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}

func durationPtr(nf sql.NullFloat64) *time.Duration {
	if !nf.Valid {
		return nil
	}
	v := time.Duration(nf.Float64 * float64(time.Second))
	return &v
}

// Verify that SQLiteStore implements core.Persister.
var _ core.Persister = (*SQLiteStore)(nil)
