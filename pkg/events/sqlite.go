package events

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/jonasrmichel/swap-agent/pkg/types"
)

// SQLiteSink appends execution results to a SQLite table, the durable form
// of the audit log. WAL mode keeps appends cheap.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the audit database at dbPath.
func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS executions (
			trade_id INTEGER NOT NULL,
			actor TEXT NOT NULL,
			profit INTEGER NOT NULL,
			path TEXT NOT NULL,
			ts INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create executions table: %w", err)
	}

	return &SQLiteSink{db: db}, nil
}

// Emit appends the event.
func (s *SQLiteSink) Emit(result *types.ExecutionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT INTO executions (trade_id, actor, profit, path, ts, payload) VALUES (?, ?, ?, ?, ?, ?)",
		result.TradeID, result.Actor.String(), result.Profit,
		result.PathString(), result.Timestamp.UnixMilli(), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution: %w", err)
	}
	return nil
}

// Count returns the number of stored executions for an actor.
func (s *SQLiteSink) Count(actor types.Address) (int64, error) {
	var n int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM executions WHERE actor = ?", actor.String(),
	).Scan(&n)
	return n, err
}

// Load returns all stored executions in insertion order.
func (s *SQLiteSink) Load() ([]*types.ExecutionResult, error) {
	rows, err := s.db.Query("SELECT payload FROM executions ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var results []*types.ExecutionResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var result types.ExecutionResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
		}
		results = append(results, &result)
	}
	return results, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
