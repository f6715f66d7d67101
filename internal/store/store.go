// Package store persiste los viajes en la base de "moviles" usando
// database/sql. Soporta MySQL (go-sql-driver), PostgreSQL (pgx stdlib) y
// SQLite (modernc, usado en tests y corridas locales).
//
// Las queries se escriben con placeholders "?" y el dialecto las reescribe
// cuando hace falta. Todas las escrituras de una corrida pasan por un Tx.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Nombres de tabla fijados por la base existente.
const (
	TablePredios  = "moviles_predios"
	TablePersonal = "moviles_personal"
	TableMovil    = "moviles_movil"
	TableViajes   = "moviles_viajes"
)

// ErrNoColumns indica que moviles_viajes no tiene ninguna columna conocida.
var ErrNoColumns = errors.New("store: no matching columns found in moviles_viajes")

// MySQLConfig son los datos sueltos (MYSQL_*) cuando no hay DSN.
type MySQLConfig struct {
	Host     string
	User     string
	Password string
	Database string
}

// Config configuración de conexión.
type Config struct {
	Driver       string // "mysql" | "postgres" | "sqlite"
	DSN          string
	MySQL        MySQLConfig
	MaxOpenConns int
}

// Store es la conexión abierta más su dialecto.
type Store struct {
	db *sql.DB
	d  dialect
}

// Open abre y verifica la conexión.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if dsn == "" && cfg.Driver == "mysql" {
		dsn = MySQLDSN(cfg.MySQL)
	}
	if dsn == "" {
		return nil, fmt.Errorf("store: %s: DSN vacío", cfg.Driver)
	}

	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("store: %s: open: %w", cfg.Driver, err)
	}

	switch {
	case cfg.Driver == "sqlite":
		// Una sola conexión: SQLite serializa escrituras y ":memory:" es
		// por conexión.
		db.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	default:
		db.SetMaxOpenConns(4)
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: %s: ping failed: %w", cfg.Driver, err)
	}
	return &Store{db: db, d: d}, nil
}

// MySQLDSN arma el DSN a partir de MYSQL_*. parseTime para leer DATE/DATETIME
// como time.Time.
func MySQLDSN(c MySQLConfig) string {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = c.Host
	if _, _, err := net.SplitHostPort(c.Host); err != nil {
		mc.Addr = net.JoinHostPort(c.Host, "3306")
	}
	mc.DBName = c.Database
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// Driver retorna el nombre del dialecto ("mysql", "postgres", "sqlite").
func (s *Store) Driver() string { return s.d.name() }

// DB expone la conexión (migraciones, health checks).
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// Columns retorna las columnas existentes de table.
func (s *Store) Columns(ctx context.Context, table string) (map[string]bool, error) {
	return tableColumns(ctx, s.db, s.d, table)
}
