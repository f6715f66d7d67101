package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/viajes/internal/airtable"
	"github.com/dropDatabas3/viajes/internal/cache"
	"github.com/dropDatabas3/viajes/internal/config"
	"github.com/dropDatabas3/viajes/internal/lock"
	"github.com/dropDatabas3/viajes/internal/metrics"
	"github.com/dropDatabas3/viajes/internal/notify"
	"github.com/dropDatabas3/viajes/internal/observability/devlog"
	"github.com/dropDatabas3/viajes/internal/observability/logger"
	"github.com/dropDatabas3/viajes/internal/rate"
	"github.com/dropDatabas3/viajes/internal/store"
	"github.com/dropDatabas3/viajes/internal/syncer"
	"github.com/dropDatabas3/viajes/internal/util"
)

// app junta las dependencias armadas a partir de la config.
type app struct {
	cfg      *config.Config
	log      devlog.Logger
	redis    *rdb.Client
	limiter  rate.Limiter
	locker   lock.Locker
	metrics  *metrics.Sync
	airtable *airtable.Client
	store    *store.Store
	notifier notify.Notifier
	memo     *cache.Memo
}

// loadConfig carga .env + archivo y valida. Los errores son configError.
func loadConfig(path string) (*config.Config, error) {
	config.LoadEnvFiles(".env")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, configError{err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, configError{err}
	}
	return cfg, nil
}

func initLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "viajes-sync",
		Version:     version,
	})
}

// setup arma todo lo necesario para correr en mode. La base solo se abre
// en los modos que escriben.
func setup(ctx context.Context, configPath string, mode syncer.Mode) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if mode.Writes() {
		if err := cfg.ValidateStorage(); err != nil {
			return nil, configError{err}
		}
	}
	initLogger(cfg)

	a := &app{
		cfg:  cfg,
		log:  devlog.New(cfg.IsDevelopment(), devlog.ZapSink(logger.Named("sync"))),
		memo: cache.New(0),
	}

	if cfg.Redis.Addr != "" {
		a.redis = rdb.NewClient(&rdb.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, errors.Join(errors.New("redis no disponible"), err)
		}
		a.limiter = rate.NewRedisLimiter(a.redis, cfg.Redis.Prefix+"rl:", cfg.Airtable.RequestsPerSecond, time.Second)
		a.locker = lock.NewRedis(a.redis, cfg.Redis.Prefix)
		logger.L().Info("redis conectado", logger.Addr(cfg.Redis.Addr))
	} else {
		a.limiter = rate.PerSecond(cfg.Airtable.RequestsPerSecond)
		a.locker = lock.NewMemory()
	}

	m, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.metrics = m

	a.airtable, err = airtable.New(airtable.Options{
		BaseURL:    cfg.Airtable.BaseURL,
		Token:      cfg.AirtableToken(),
		BaseID:     cfg.Airtable.BaseID,
		Table:      cfg.Airtable.Table,
		HTTPClient: &http.Client{Timeout: cfg.AirtableTimeout()},
		MaxRetries: cfg.Airtable.MaxRetries,
		Limiter:    a.limiter,
		Observer:   a.metrics,
		Log:        devlog.New(cfg.IsDevelopment(), devlog.ZapSink(logger.Named("airtable"))),
	})
	if err != nil {
		a.Close()
		return nil, configError{err}
	}

	if mode.Writes() {
		if a.store, err = openStore(ctx, cfg); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.notifier = buildNotifier(cfg)
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	s, err := store.Open(ctx, store.Config{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN,
		MySQL: store.MySQLConfig{
			Host:     cfg.Storage.MySQL.Host,
			User:     cfg.Storage.MySQL.User,
			Password: cfg.Storage.MySQL.Password,
			Database: cfg.Storage.MySQL.Database,
		},
		MaxOpenConns: cfg.Storage.MaxOpenConns,
	})
	if err != nil {
		return nil, err
	}
	logger.L().Info("base abierta", logger.String("driver", s.Driver()))
	return s, nil
}

// buildNotifier arma los canales configurados. nil si no hay ninguno.
func buildNotifier(cfg *config.Config) notify.Notifier {
	var out notify.Multi
	sc := cfg.Notify.SMTP
	if sc.Host != "" && len(sc.To) > 0 {
		n := notify.NewSMTPNotifier(sc.Host, sc.Port, sc.From, sc.Username, sc.Password, sc.To)
		n.TLSMode = sc.TLS
		out = append(out, n)
		logger.L().Debug("aviso por mail habilitado", logger.String("to", util.MaskEmails(sc.To)))
	}
	dc := cfg.Notify.Discord
	if dc.Token != "" && dc.ChannelID != "" {
		n, err := notify.NewDiscordNotifier(dc.Token, dc.ChannelID)
		if err != nil {
			logger.L().Warn("discord deshabilitado", logger.Err(err))
		} else {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Syncer arma un syncer para mode con las dependencias de la app.
func (a *app) Syncer(mode syncer.Mode, limit int) *syncer.Syncer {
	sc := a.cfg.Sync
	d := syncer.Deps{
		Source:   a.airtable,
		Memo:     a.memo,
		Log:      a.log,
		Report:   os.Stdout,
		Locker:   a.locker,
		Metrics:  a.metrics,
		Notifier: a.notifier,
		Policy:   notify.Policy{Always: a.cfg.Notify.Always},
		Store:    a.store,
	}
	return syncer.New(d, syncer.Options{
		Mode:                  mode,
		Limit:                 limit,
		EmpresaID:             a.cfg.EmpresaID(),
		AreaID:                a.cfg.AreaID(),
		AllowPlaceholderMovil: sc.AllowPlaceholderMovil,
		PlaceholderPrefix:     sc.PlaceholderPrefix,
		Destinos:              sc.Destinos,
		DeleteConcurrency:     sc.DeleteConcurrency,
		LockKey:               "sync:" + a.cfg.Airtable.BaseID,
		LockTTL:               a.cfg.LockTTL(),
	})
}

// health arma los checks de /healthz.
func (a *app) health() map[string]metrics.HealthFunc {
	checks := map[string]metrics.HealthFunc{}
	if a.store != nil {
		checks["db"] = a.store.Ping
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}
	return checks
}

func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = logger.Sync()
}
