package store

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Formato de archivo: {version}_{name}_up.sql (ej: 0001_moviles_up.sql).
// Cada archivo puede tener varias sentencias separadas por ";" al final de
// línea.

// Migration representa una migración individual.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationResult resultado de aplicar migraciones.
type MigrationResult struct {
	Applied  []int
	Skipped  []int
	Duration time.Duration
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)_up\.sql$`)

// ParseMigrations lee las migraciones de dir dentro de fsys, ordenadas por
// versión.
func ParseMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("store: migrations: %w", err)
	}

	var migrations []Migration
	seen := map[int]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := migrationFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		version, _ := strconv.Atoi(m[1])
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("store: migrations: versión %d duplicada (%s, %s)", version, prev, e.Name())
		}
		seen[version] = e.Name()

		content, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("store: migrations: reading %s: %w", e.Name(), err)
		}
		migrations = append(migrations, Migration{Version: version, Name: m[2], SQL: string(content)})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// Migrate aplica las migraciones pendientes de dir. Cada migración corre en
// su propia transacción (en MySQL el DDL hace commit implícito igual).
func (s *Store) Migrate(ctx context.Context, fsys fs.FS, dir string) (*MigrationResult, error) {
	start := time.Now()
	res := &MigrationResult{}

	if err := s.ensureMigrationsTable(ctx); err != nil {
		return res, fmt.Errorf("store: creating migrations table: %w", err)
	}
	applied, err := s.appliedVersions(ctx)
	if err != nil {
		return res, fmt.Errorf("store: getting applied migrations: %w", err)
	}
	migrations, err := ParseMigrations(fsys, dir)
	if err != nil {
		return res, err
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			res.Skipped = append(res.Skipped, mig.Version)
			continue
		}
		if err := s.applyMigration(ctx, mig); err != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("store: applying migration %d_%s: %w", mig.Version, mig.Name, err)
		}
		res.Applied = append(res.Applied, mig.Version)
	}
	res.Duration = time.Since(start)
	return res, nil
}

func (s *Store) ensureMigrationsTable(ctx context.Context) error {
	var createSQL string
	switch s.d.name() {
	case "postgres":
		createSQL = `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				applied_at TIMESTAMPTZ DEFAULT NOW()
			)`
	case "mysql":
		createSQL = `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`
	default:
		createSQL = `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INT PRIMARY KEY,
				name TEXT NOT NULL,
				applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`
	}
	_, err := s.db.ExecContext(ctx, createSQL)
	return err
}

func (s *Store) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (s *Store) applyMigration(ctx context.Context, mig Migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(mig.SQL) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		s.d.rebind("INSERT INTO schema_migrations (version, name) VALUES (?, ?)"),
		mig.Version, mig.Name,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// splitStatements corta el script en sentencias. Ignora líneas "--".
func splitStatements(script string) []string {
	var (
		out []string
		cur strings.Builder
	)
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			if stmt := strings.TrimSpace(cur.String()); stmt != "" {
				out = append(out, strings.TrimSuffix(stmt, ";"))
			}
			cur.Reset()
		}
	}
	if stmt := strings.TrimSpace(cur.String()); stmt != "" {
		out = append(out, stmt)
	}
	return out
}
