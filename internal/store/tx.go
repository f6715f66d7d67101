package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx agrupa las escrituras de una corrida. Cada registro se procesa dentro
// de un savepoint para poder descartarlo sin perder los anteriores.
type Tx struct {
	tx  *sql.Tx
	d   dialect
	seq int
}

// Begin abre una transacción.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	return &Tx{tx: tx, d: s.d}, nil
}

func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Rollback descarta la transacción. Llamarlo después de Commit es no-op.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("store: rollback: %w", err)
	}
	return nil
}

// Savepoint marca un punto de retorno y retorna su nombre.
func (t *Tx) Savepoint(ctx context.Context) (string, error) {
	t.seq++
	name := fmt.Sprintf("rec_%d", t.seq)
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return "", fmt.Errorf("store: savepoint: %w", err)
	}
	return name, nil
}

// RollbackTo deshace todo lo escrito desde el savepoint name.
func (t *Tx) RollbackTo(ctx context.Context, name string) error {
	if _, err := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
		return fmt.Errorf("store: rollback to %s: %w", name, err)
	}
	return nil
}

// Release confirma el savepoint name dentro de la transacción.
func (t *Tx) Release(ctx context.Context, name string) error {
	if _, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("store: release %s: %w", name, err)
	}
	return nil
}

// Columns retorna las columnas de table vistas desde la transacción.
func (t *Tx) Columns(ctx context.Context, table string) (map[string]bool, error) {
	return tableColumns(ctx, t.tx, t.d, table)
}

// lookupID ejecuta un SELECT id. ok=false si no hay filas.
func (t *Tx) lookupID(ctx context.Context, query string, args ...any) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, t.d.rebind(query), args...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// insert ejecuta un INSERT y retorna el id generado.
func (t *Tx) insert(ctx context.Context, query string, args ...any) (int64, error) {
	if t.d.returningID() {
		var id int64
		if err := t.tx.QueryRowContext(ctx, t.d.rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := t.tx.ExecContext(ctx, t.d.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (t *Tx) exec(ctx context.Context, query string, args ...any) error {
	_, err := t.tx.ExecContext(ctx, t.d.rebind(query), args...)
	return err
}
