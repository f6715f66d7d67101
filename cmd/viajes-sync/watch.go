package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/viajes/internal/lock"
	"github.com/dropDatabas3/viajes/internal/metrics"
	"github.com/dropDatabas3/viajes/internal/observability/logger"
	"github.com/dropDatabas3/viajes/internal/syncer"
)

func watchCmd(flags *rootFlags) *cobra.Command {
	var (
		interval    time.Duration
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Corre el sync cada --interval y expone /metrics y /healthz",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := flags.mode()
			a, err := setup(cmd.Context(), flags.configPath, mode)
			if err != nil {
				return err
			}
			defer a.Close()

			if interval <= 0 {
				interval = a.cfg.SyncInterval()
			}
			if metricsAddr == "" {
				metricsAddr = a.cfg.Metrics.Addr
			}
			return watch(cmd.Context(), a, a.Syncer(mode, 0), interval, metricsAddr)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "intervalo entre corridas (default sync.interval, 5m)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "dirección del server de métricas (env METRICS_ADDR; vacío = deshabilitado)")
	return cmd
}

// watch corre s cada interval hasta que ctx se cancela. Los errores de una
// corrida se loguean y no cortan el loop.
func watch(ctx context.Context, a *app, s *syncer.Syncer, interval time.Duration, addr string) error {
	log := logger.Named("watch")
	g, ctx := errgroup.WithContext(ctx)

	if addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           metrics.Router(prometheus.DefaultGatherer, a.health()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("metrics escuchando", logger.Addr(addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			sum, err := s.Run(ctx)
			switch {
			case err == nil:
			case errors.Is(err, lock.ErrLocked):
				log.Info("corrida salteada: lock tomado")
			case ctx.Err() != nil:
				return nil
			default:
				log.Error("corrida fallida", logger.RunID(sum.RunID), logger.Err(err))
			}
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
			}
		}
	})

	log.Info("watch iniciado", logger.Duration(interval))
	return g.Wait()
}
