package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/viajes/internal/security/secretbox"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env" toml:"app_env"`
	} `yaml:"app" toml:"app"`

	Log struct {
		Level string `yaml:"level" toml:"level"`
	} `yaml:"log" toml:"log"`

	Airtable struct {
		Token   string `yaml:"token" toml:"token"`     // PAT (preferido)
		APIKey  string `yaml:"api_key" toml:"api_key"` // legacy
		BaseID  string `yaml:"base_id" toml:"base_id"`
		Table   string `yaml:"table" toml:"table"`
		BaseURL string `yaml:"base_url" toml:"base_url"`
		Timeout string `yaml:"timeout" toml:"timeout"`
		// MaxRetries por página ante 429/5xx/errores de red.
		MaxRetries int `yaml:"max_retries" toml:"max_retries"`
		// RequestsPerSecond: Airtable permite 5 req/s por base.
		RequestsPerSecond int `yaml:"requests_per_second" toml:"requests_per_second"`
	} `yaml:"airtable" toml:"airtable"`

	Storage struct {
		Driver string `yaml:"driver" toml:"driver"` // mysql | postgres | sqlite
		DSN    string `yaml:"dsn" toml:"dsn"`
		MySQL  struct {
			Host     string `yaml:"host" toml:"host"`
			User     string `yaml:"user" toml:"user"`
			Password string `yaml:"password" toml:"password"`
			Database string `yaml:"database" toml:"database"`
		} `yaml:"mysql" toml:"mysql"`
		MaxOpenConns int `yaml:"max_open_conns" toml:"max_open_conns"`
	} `yaml:"storage" toml:"storage"`

	Sync struct {
		EmpresaID             string            `yaml:"empresa_id" toml:"empresa_id"`
		AreaID                string            `yaml:"area_id" toml:"area_id"`
		AllowPlaceholderMovil bool              `yaml:"allow_placeholder_movil" toml:"allow_placeholder_movil"`
		PlaceholderPrefix     string            `yaml:"placeholder_prefix" toml:"placeholder_prefix"`
		Destinos              map[string]string `yaml:"destinos" toml:"destinos"`
		DeleteConcurrency     int               `yaml:"delete_concurrency" toml:"delete_concurrency"`
		Interval              string            `yaml:"interval" toml:"interval"` // watch
		LockTTL               string            `yaml:"lock_ttl" toml:"lock_ttl"`
	} `yaml:"sync" toml:"sync"`

	Redis struct {
		Addr     string `yaml:"addr" toml:"addr"` // vacío => lock y rate en memoria
		Password string `yaml:"password" toml:"password"`
		DB       int    `yaml:"db" toml:"db"`
		Prefix   string `yaml:"prefix" toml:"prefix"`
	} `yaml:"redis" toml:"redis"`

	Metrics struct {
		Addr string `yaml:"addr" toml:"addr"`
	} `yaml:"metrics" toml:"metrics"`

	Notify struct {
		// Always: notificar también corridas sin fallas.
		Always bool `yaml:"always" toml:"always"`
		SMTP   struct {
			Host     string   `yaml:"host" toml:"host"`
			Port     int      `yaml:"port" toml:"port"`
			Username string   `yaml:"username" toml:"username"`
			Password string   `yaml:"password" toml:"password"`
			From     string   `yaml:"from" toml:"from"`
			TLS      string   `yaml:"tls" toml:"tls"` // auto | starttls | ssl | none
			To       []string `yaml:"to" toml:"to"`
		} `yaml:"smtp" toml:"smtp"`
		Discord struct {
			Token     string `yaml:"token" toml:"token"`
			ChannelID string `yaml:"channel_id" toml:"channel_id"`
		} `yaml:"discord" toml:"discord"`
	} `yaml:"notify" toml:"notify"`
}

// DefaultDestinos traduce los códigos de destino que carga el chofer.
var DefaultDestinos = map[string]string{
	"ASPP": "ASERRADERO PUERTO PIRAY",
	"PPE":  "PLANTA PUERTO ESPERANZA",
}

// LoadEnvFiles carga .env (y los archivos extra) sin pisar variables ya
// presentes en el entorno. Los archivos inexistentes se ignoran.
func LoadEnvFiles(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

// Load lee el archivo (si path no es vacío), aplica defaults, variables de
// entorno y descifra los valores "enc:". No valida: ver Validate.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			if err := toml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: toml: %w", err)
			}
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: yaml: %w", err)
			}
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()
	if err := c.revealSecrets(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	c.App.Env = strings.ToLower(strings.TrimSpace(c.App.Env))
	if c.Log.Level == "" {
		if c.IsDevelopment() {
			c.Log.Level = "debug"
		} else {
			c.Log.Level = "info"
		}
	}
	if c.Airtable.BaseURL == "" {
		c.Airtable.BaseURL = "https://api.airtable.com/v0"
	}
	if c.Airtable.Timeout == "" {
		c.Airtable.Timeout = "30s"
	}
	if c.Airtable.MaxRetries == 0 {
		c.Airtable.MaxRetries = 5
	}
	if c.Airtable.RequestsPerSecond == 0 {
		c.Airtable.RequestsPerSecond = 5
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "mysql"
	}
	if c.Sync.PlaceholderPrefix == "" {
		c.Sync.PlaceholderPrefix = "UNKNOWN"
	}
	if len(c.Sync.Destinos) == 0 {
		c.Sync.Destinos = make(map[string]string, len(DefaultDestinos))
		for k, v := range DefaultDestinos {
			c.Sync.Destinos[k] = v
		}
	}
	if c.Sync.DeleteConcurrency == 0 {
		c.Sync.DeleteConcurrency = 2
	}
	if c.Sync.Interval == "" {
		c.Sync.Interval = "5m"
	}
	if c.Sync.LockTTL == "" {
		c.Sync.LockTTL = "10m"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "viajes:"
	}
	if c.Notify.SMTP.Port == 0 {
		c.Notify.SMTP.Port = 587
	}
	if c.Notify.SMTP.TLS == "" {
		c.Notify.SMTP.TLS = "auto"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

// getEnvFirst retorna la primera variable seteada de keys.
func getEnvFirst(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := getEnvStr(k); ok {
			return v, true
		}
	}
	return "", false
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// getEnvFlag acepta 1/true/yes (case-insensitive) como verdadero.
func getEnvFlag(key string) (bool, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true, true
	default:
		return false, true
	}
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// parse env of form "k1=v1<sep>k2=v2" into map
func parseKVList(s, sep string) map[string]string {
	s = strings.TrimSpace(s)
	if s == "" {
		return map[string]string{}
	}
	items := strings.Split(s, sep)
	out := make(map[string]string, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if i := strings.IndexRune(it, '='); i > 0 {
			k := strings.TrimSpace(it[:i])
			v := strings.TrimSpace(it[i+1:])
			if k != "" && v != "" {
				out[k] = v
			}
		}
	}
	return out
}

// applyEnvOverrides: pisa el archivo de config con variables de entorno.
// Los nombres AIRTABLE_*, MYSQL_*, MOVILES_* son los que ya usa el .env del backend.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// AIRTABLE
	if v, ok := getEnvStr("AIRTABLE_TOKEN"); ok {
		c.Airtable.Token = v
	}
	if v, ok := getEnvStr("AIRTABLE_API_KEY"); ok {
		c.Airtable.APIKey = v
	}
	if v, ok := getEnvStr("AIRTABLE_BASE_ID"); ok {
		c.Airtable.BaseID = v
	}
	if v, ok := getEnvStr("AIRTABLE_TABLE_NAME"); ok {
		c.Airtable.Table = v
	}
	if v, ok := getEnvStr("AIRTABLE_BASE_URL"); ok {
		c.Airtable.BaseURL = v
	}
	if v, ok := getEnvStr("AIRTABLE_TIMEOUT"); ok {
		c.Airtable.Timeout = v
	}
	if v, ok := getEnvInt("AIRTABLE_MAX_RETRIES"); ok {
		c.Airtable.MaxRetries = v
	}
	if v, ok := getEnvInt("AIRTABLE_REQUESTS_PER_SECOND"); ok {
		c.Airtable.RequestsPerSecond = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("MYSQL_HOST"); ok {
		c.Storage.MySQL.Host = v
	}
	if v, ok := getEnvStr("MYSQL_USER"); ok {
		c.Storage.MySQL.User = v
	}
	if v, ok := getEnvStr("MYSQL_PASSWORD"); ok {
		c.Storage.MySQL.Password = v
	}
	if v, ok := getEnvStr("MYSQL_DATABASE"); ok {
		c.Storage.MySQL.Database = v
	}
	if v, ok := getEnvInt("STORAGE_MAX_OPEN_CONNS"); ok {
		c.Storage.MaxOpenConns = v
	}

	// SYNC
	if v, ok := getEnvFirst("MOVILES_EMPRESA_ID", "EMPRESA_ID", "COMPANY_ID"); ok {
		c.Sync.EmpresaID = v
	}
	if v, ok := getEnvFirst("MOVILES_AREA_ID", "AREA_ID"); ok {
		c.Sync.AreaID = v
	}
	if v, ok := getEnvFlag("ALLOW_PLACEHOLDER_MOVIL"); ok {
		c.Sync.AllowPlaceholderMovil = v
	}
	if v, ok := getEnvStr("PLACEHOLDER_MOVIL_PREFIX"); ok {
		c.Sync.PlaceholderPrefix = v
	}
	if v, ok := getEnvStr("SYNC_DESTINOS"); ok {
		c.Sync.Destinos = parseKVList(v, ";")
	}
	if v, ok := getEnvInt("SYNC_DELETE_CONCURRENCY"); ok {
		c.Sync.DeleteConcurrency = v
	}
	if v, ok := getEnvStr("SYNC_INTERVAL"); ok {
		c.Sync.Interval = v
	}
	if v, ok := getEnvStr("SYNC_LOCK_TTL"); ok {
		c.Sync.LockTTL = v
	}

	// REDIS
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Redis.Prefix = v
	}

	// METRICS
	if v, ok := getEnvStr("METRICS_ADDR"); ok {
		c.Metrics.Addr = v
	}

	// NOTIFY
	if v, ok := getEnvFlag("NOTIFY_ALWAYS"); ok {
		c.Notify.Always = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.Notify.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.Notify.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.Notify.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.Notify.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.Notify.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_TLS"); ok {
		c.Notify.SMTP.TLS = v
	}
	if v, ok := getEnvCSV("NOTIFY_EMAIL_TO"); ok {
		c.Notify.SMTP.To = v
	}
	if v, ok := getEnvStr("DISCORD_BOT_TOKEN"); ok {
		c.Notify.Discord.Token = v
	}
	if v, ok := getEnvStr("DISCORD_CHANNEL_ID"); ok {
		c.Notify.Discord.ChannelID = v
	}
}

// revealSecrets descifra los campos sensibles con prefijo "enc:".
func (c *Config) revealSecrets() error {
	fields := []*string{
		&c.Airtable.Token,
		&c.Airtable.APIKey,
		&c.Storage.DSN,
		&c.Storage.MySQL.Password,
		&c.Redis.Password,
		&c.Notify.SMTP.Password,
		&c.Notify.Discord.Token,
	}
	var box *secretbox.Box
	for _, f := range fields {
		if !secretbox.IsSealed(*f) {
			continue
		}
		if box == nil {
			b, err := secretbox.FromEnv()
			if err != nil {
				return fmt.Errorf("config: secreto cifrado: %w", err)
			}
			box = b
		}
		pt, err := box.Open(strings.TrimSpace(*f))
		if err != nil {
			return fmt.Errorf("config: secreto cifrado: %w", err)
		}
		*f = pt
	}
	return nil
}
