package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/viajes/internal/config"
	"github.com/dropDatabas3/viajes/internal/observability/logger"
	"github.com/dropDatabas3/viajes/migrations"
)

// migrateCmd crea las tablas moviles_* si no existen. Solo necesita la
// config de la base, no la de Airtable.
func migrateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones embebidas del driver configurado",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnvFiles(".env")
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return configError{err}
			}
			if err := cfg.ValidateStorage(); err != nil {
				return configError{err}
			}
			initLogger(cfg)
			defer logger.Sync()

			fsys, dir, err := migrations.For(cfg.Storage.Driver)
			if err != nil {
				return configError{err}
			}
			s, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.Migrate(cmd.Context(), fsys, dir)
			if err != nil {
				return err
			}
			logger.L().Info("migraciones aplicadas",
				logger.Count(len(res.Applied)),
				logger.Int("skipped", len(res.Skipped)),
				logger.Duration(res.Duration),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "applied=%v skipped=%v\n", res.Applied, res.Skipped)
			return nil
		},
	}
}
