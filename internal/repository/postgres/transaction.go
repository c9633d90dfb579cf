package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// TxManager runs client_state changes that span more than one statement
type TxManager struct {
	db   *sql.DB
	opts *sql.TxOptions
}

func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// Serializable makes every transaction of tm run at SERIALIZABLE isolation
func (tm *TxManager) Serializable() *TxManager {
	return &TxManager{db: tm.db, opts: &sql.TxOptions{Isolation: sql.LevelSerializable}}
}

// WithTx runs fn as the state operation op. A failing fn is rolled back and
// its error returned; a failed rollback is joined to it.
func (tm *TxManager) WithTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	tx, err := tm.db.BeginTx(ctx, tm.opts)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%s: %w", op, errors.Join(err, fmt.Errorf("rollback: %w", rbErr)))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}
