package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eduplatform-web/internal/domain"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS client_state (
		key        TEXT PRIMARY KEY,
		value      BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

const indexSQL = `CREATE INDEX IF NOT EXISTS idx_client_state_updated_at ON client_state (updated_at)`

// EnsureSchema creates the client_state table if it does not exist
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	return NewTxManager(db).Serializable().WithTx(ctx, "ensure client_state schema", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("failed to create client_state table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create client_state index: %w", err)
		}
		return nil
	})
}

// StateRepository implements domain.StateStore on a client_state table
type StateRepository struct {
	db         *sql.DB
	loadStmt   *sql.Stmt
	saveStmt   *sql.Stmt
	deleteStmt *sql.Stmt
}

// NewStateRepository creates a new StateRepository with prepared statements.
// EnsureSchema must have run first.
func NewStateRepository(db *sql.DB) (*StateRepository, error) {
	repo := &StateRepository{db: db}

	var err error
	repo.loadStmt, err = db.Prepare(`SELECT value FROM client_state WHERE key = $1`)
	if err != nil {
		if IsUndefinedTable(err) {
			return nil, fmt.Errorf("client_state table missing: %w", err)
		}
		return nil, fmt.Errorf("failed to prepare load statement: %w", err)
	}

	repo.saveStmt, err = db.Prepare(`
		INSERT INTO client_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare save statement: %w", err)
	}

	repo.deleteStmt, err = db.Prepare(`DELETE FROM client_state WHERE key = $1`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	return repo, nil
}

func (r *StateRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.loadStmt.QueryRowContext(ctx, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state %s: %w", key, err)
	}
	return value, nil
}

func (r *StateRepository) Save(ctx context.Context, key string, data []byte) error {
	if _, err := r.saveStmt.ExecContext(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save state %s: %w", key, err)
	}
	return nil
}

func (r *StateRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.deleteStmt.ExecContext(ctx, key); err != nil {
		return fmt.Errorf("failed to delete state %s: %w", key, err)
	}
	return nil
}

// Ping reports whether the database is reachable
func (r *StateRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the prepared statements
func (r *StateRepository) Close() error {
	for _, stmt := range []*sql.Stmt{r.loadStmt, r.saveStmt, r.deleteStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
