package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/viajes/internal/observability/logger"
)

// MissingError lista las variables requeridas que faltan.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return "Missing environment variables: " + strings.Join(e.Vars, ", ")
}

// Validate verifica lo necesario para hablar con Airtable y que los valores
// con formato (duraciones, ids) sean parseables. Los faltantes se reportan
// todos juntos en un *MissingError.
func (c *Config) Validate() error {
	var missing []string
	if c.AirtableToken() == "" {
		missing = append(missing, "AIRTABLE_TOKEN or AIRTABLE_API_KEY")
	}
	if c.Airtable.BaseID == "" {
		missing = append(missing, "AIRTABLE_BASE_ID")
	}
	if c.Airtable.Table == "" {
		missing = append(missing, "AIRTABLE_TABLE_NAME")
	}
	if len(missing) > 0 {
		return &MissingError{Vars: missing}
	}

	var errs []error
	switch c.Storage.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("storage.driver inválido: %q (mysql|postgres|sqlite)", c.Storage.Driver))
	}
	for name, v := range map[string]string{
		"airtable.timeout": c.Airtable.Timeout,
		"sync.interval":    c.Sync.Interval,
		"sync.lock_ttl":    c.Sync.LockTTL,
	} {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s inválido: %q", name, v))
		}
	}
	if _, err := parseOptionalID(c.Sync.EmpresaID); err != nil {
		errs = append(errs, fmt.Errorf("empresa_id: %w", err))
	}
	if _, err := parseOptionalID(c.Sync.AreaID); err != nil {
		errs = append(errs, fmt.Errorf("area_id: %w", err))
	}
	if c.Airtable.MaxRetries < 0 {
		errs = append(errs, errors.New("airtable.max_retries no puede ser negativo"))
	}
	if c.Airtable.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("airtable.requests_per_second no puede ser negativo"))
	}
	return errors.Join(errs...)
}

// ValidateStorage verifica que haya con qué abrir la base.
func (c *Config) ValidateStorage() error {
	if c.Storage.DSN != "" {
		return nil
	}
	if c.Storage.Driver == "mysql" && c.Storage.MySQL.Host != "" {
		return nil
	}
	return errors.New("falta STORAGE_DSN (o MYSQL_HOST/MYSQL_USER/MYSQL_PASSWORD/MYSQL_DATABASE)")
}

// IsDevelopment es el flag de modo desarrollo del proceso.
// Usa el mismo criterio que el logger para elegir consola o JSON.
func (c *Config) IsDevelopment() bool {
	return logger.IsDevelopmentEnv(c.App.Env)
}

// AirtableToken prefiere el PAT (AIRTABLE_TOKEN) sobre la API key legacy.
func (c *Config) AirtableToken() string {
	if t := strings.TrimSpace(c.Airtable.Token); t != "" {
		return t
	}
	return strings.TrimSpace(c.Airtable.APIKey)
}

// AirtableTimeout parsea airtable.timeout (default 30s).
func (c *Config) AirtableTimeout() time.Duration {
	return parseDurationOr(c.Airtable.Timeout, 30*time.Second)
}

// SyncInterval parsea sync.interval (default 5m).
func (c *Config) SyncInterval() time.Duration {
	return parseDurationOr(c.Sync.Interval, 5*time.Minute)
}

// LockTTL parsea sync.lock_ttl (default 10m).
func (c *Config) LockTTL() time.Duration {
	return parseDurationOr(c.Sync.LockTTL, 10*time.Minute)
}

// EmpresaID retorna el id de empresa o nil si no está configurado.
func (c *Config) EmpresaID() *int64 {
	id, _ := parseOptionalID(c.Sync.EmpresaID)
	return id
}

// AreaID retorna el id de área o nil si no está configurado.
func (c *Config) AreaID() *int64 {
	id, _ := parseOptionalID(c.Sync.AreaID)
	return id
}

func parseOptionalID(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("no numérico: %q", s)
	}
	return &v, nil
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
