package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/viajes/internal/syncer"
)

// version se pisa con -ldflags "-X main.version=..."
var version = "dev"

// configError marca errores de configuración (exit 2).
type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

type rootFlags struct {
	configPath string
	dryRun     bool
	limit      int
	confirm    bool
	mysql      bool
}

func (f *rootFlags) mode() syncer.Mode {
	return syncer.ModeFromFlags(f.dryRun, f.confirm, f.mysql)
}

func main() {
	flags := &rootFlags{configPath: os.Getenv("CONFIG_PATH")}

	root := &cobra.Command{
		Use:   "viajes-sync",
		Short: "Sincroniza los viajes de Airtable con la base de moviles",
		Long: `Sin flags corre en modo simulación: lee Airtable y reporta qué haría.
--mysql escribe en la base; --confirm además borra en Airtable lo sincronizado.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), flags)
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", flags.configPath, "archivo YAML/TOML de configuración (env CONFIG_PATH)")
	root.Flags().BoolVar(&flags.dryRun, "dry-run", false, "solo listar registros de Airtable")
	root.Flags().IntVar(&flags.limit, "limit", 0, "cantidad de registros a listar en --dry-run (0 = todos)")
	root.PersistentFlags().BoolVar(&flags.confirm, "confirm", false, "escribir en la base y borrar en Airtable lo sincronizado")
	root.PersistentFlags().BoolVar(&flags.mysql, "mysql", false, "escribir en la base sin borrar en Airtable")

	root.AddCommand(
		watchCmd(flags),
		migrateCmd(flags),
		checkCmd(flags),
		encryptCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		var ce configError
		if errors.As(err, &ce) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// runOnce ejecuta una corrida en el modo que indican los flags.
func runOnce(ctx context.Context, flags *rootFlags) error {
	a, err := setup(ctx, flags.configPath, flags.mode())
	if err != nil {
		return err
	}
	defer a.Close()

	s := a.Syncer(flags.mode(), flags.limit)
	_, err = s.Run(ctx)
	return err
}
