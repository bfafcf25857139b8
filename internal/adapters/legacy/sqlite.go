// Package legacy reads the flat pre-SetDeck schema: weekday-tagged exercises
// with goal-typed sets, no routine entity. The adapter is read-only; the
// migration pipeline consumes it exactly once.
package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nmolargik/setdeck/internal/core"
	_ "modernc.org/sqlite"
)

// SQLiteSource implements core.LegacySource over the old database file.
type SQLiteSource struct {
	dbPath string
	db     *sql.DB
	mu     sync.RWMutex
}

// NewSQLiteSource opens the legacy database at dbPath. A missing or empty
// file yields an empty exercise list, which the migration pipeline treats as
// "nothing to migrate".
func NewSQLiteSource(dbPath string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening legacy database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteSource{dbPath: dbPath, db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// ensureSchema creates the legacy tables when opening a fresh file, so that
// a never-installed legacy app reads as an empty source rather than an error.
func (s *SQLiteSource) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS exercises (
			id TEXT PRIMARY KEY,
			weekday INTEGER NOT NULL,
			order_index INTEGER NOT NULL,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS exercise_sets (
			id TEXT PRIMARY KEY,
			exercise_id TEXT NOT NULL REFERENCES exercises(id),
			goal_type TEXT NOT NULL,
			repetitions_to_do INTEGER NOT NULL,
			duration_to_do INTEGER NOT NULL,
			weight_to_lift INTEGER NOT NULL,
			timestamp TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ensuring legacy schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Exercises returns every legacy exercise ordered by (weekday, orderIndex),
// each carrying its sets in original insertion order.
func (s *SQLiteSource) Exercises(ctx context.Context) ([]*core.LegacyExercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, weekday, order_index, name
		FROM exercises
		ORDER BY weekday ASC, order_index ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("loading legacy exercises: %w", err)
	}
	defer rows.Close()

	var exercises []*core.LegacyExercise
	byID := make(map[uuid.UUID]*core.LegacyExercise)
	for rows.Next() {
		var ex core.LegacyExercise
		var id string
		if err := rows.Scan(&id, &ex.Weekday, &ex.OrderIndex, &ex.Name); err != nil {
			return nil, fmt.Errorf("scanning legacy exercise: %w", err)
		}
		if ex.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing legacy exercise id: %w", err)
		}
		exercises = append(exercises, &ex)
		byID[ex.ID] = exercises[len(exercises)-1]
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating legacy exercises: %w", err)
	}

	if err := s.attachSets(ctx, byID); err != nil {
		return nil, err
	}
	return exercises, nil
}

func (s *SQLiteSource) attachSets(ctx context.Context, byID map[uuid.UUID]*core.LegacyExercise) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, exercise_id, goal_type, repetitions_to_do,
		       duration_to_do, weight_to_lift, timestamp
		FROM exercise_sets
		ORDER BY timestamp ASC, rowid ASC
	`)
	if err != nil {
		return fmt.Errorf("loading legacy sets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var set core.LegacySet
		var id, exerciseID, goalType string
		if err := rows.Scan(&id, &exerciseID, &goalType, &set.RepetitionsToDo,
			&set.DurationToDo, &set.WeightToLift, &set.Timestamp); err != nil {
			return fmt.Errorf("scanning legacy set: %w", err)
		}
		if set.ID, err = uuid.Parse(id); err != nil {
			return fmt.Errorf("parsing legacy set id: %w", err)
		}
		set.GoalType = core.GoalType(goalType)

		parentID, err := uuid.Parse(exerciseID)
		if err != nil {
			return fmt.Errorf("parsing legacy set exercise id: %w", err)
		}
		if parent, ok := byID[parentID]; ok {
			parent.Sets = append(parent.Sets, set)
		}
	}
	return rows.Err()
}

// Verify that SQLiteSource implements core.LegacySource.
var _ core.LegacySource = (*SQLiteSource)(nil)
