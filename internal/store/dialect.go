package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// dialect encapsula lo que cambia entre motores.
type dialect interface {
	name() string
	driverName() string
	// rebind reescribe los "?" al estilo del motor.
	rebind(q string) string
	// columnsQuery retorna la query de columnas de una tabla; la primera
	// columna del resultado es el nombre.
	columnsQuery(table string) (string, []any)
	// returningID indica si el INSERT debe pedir el id con RETURNING.
	returningID() bool
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "mysql":
		return mysqlDialect{}, nil
	case "postgres":
		return postgresDialect{}, nil
	case "sqlite":
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("store: driver no soportado: %q", driver)
	}
}

type mysqlDialect struct{}

func (mysqlDialect) name() string           { return "mysql" }
func (mysqlDialect) driverName() string     { return "mysql" }
func (mysqlDialect) rebind(q string) string { return q }
func (mysqlDialect) returningID() bool      { return false }
func (mysqlDialect) columnsQuery(table string) (string, []any) {
	// SHOW COLUMNS retorna Field, Type, Null, Key, Default, Extra.
	return "SHOW COLUMNS FROM " + table, nil
}

type postgresDialect struct{}

func (postgresDialect) name() string       { return "postgres" }
func (postgresDialect) driverName() string { return "pgx" }
func (postgresDialect) returningID() bool  { return true }

// rebind pasa de "?" a "$1, $2...". Las queries de este paquete no usan "?"
// dentro de literales.
func (postgresDialect) rebind(q string) string {
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

func (postgresDialect) columnsQuery(table string) (string, []any) {
	return `SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1`, []any{table}
}

type sqliteDialect struct{}

func (sqliteDialect) name() string           { return "sqlite" }
func (sqliteDialect) driverName() string     { return "sqlite" }
func (sqliteDialect) rebind(q string) string { return q }
func (sqliteDialect) returningID() bool      { return false }
func (sqliteDialect) columnsQuery(table string) (string, []any) {
	return "SELECT name FROM pragma_table_info(?)", []any{table}
}

// queryer es lo común entre *sql.DB y *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// tableColumns lee los nombres de columna (en minúscula) de table.
func tableColumns(ctx context.Context, q queryer, d dialect, table string) (map[string]bool, error) {
	query, args := d.columnsQuery(table)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: columns %s: %w", table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("store: columns %s: %w", table, err)
	}
	cols := make(map[string]bool)
	for rows.Next() {
		raw := make([]sql.RawBytes, len(names))
		dest := make([]any, len(names))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("store: columns %s: %w", table, err)
		}
		cols[strings.ToLower(string(raw[0]))] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: columns %s: %w", table, err)
	}
	return cols, nil
}
