package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/viajes/internal/syncer"
	"github.com/dropDatabas3/viajes/internal/util"
)

// checkCmd valida config, credenciales de Airtable y conexión a la base sin
// sincronizar nada.
func checkCmd(flags *rootFlags) *cobra.Command {
	var withDB bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verifica la config, el acceso a Airtable y (con --db) la base",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := syncer.ModeSimulate
			if withDB {
				mode = syncer.ModeWrite
			}
			a, err := setup(cmd.Context(), flags.configPath, mode)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			out := cmd.OutOrStdout()
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := a.airtable.Ping(gctx); err != nil {
					return fmt.Errorf("airtable: %w", err)
				}
				fmt.Fprintf(out, "airtable: ok (%s, token %s)\n", a.airtable.URL(), util.MaskSecret(a.cfg.AirtableToken()))
				return nil
			})
			for name, check := range a.health() {
				g.Go(func() error {
					if err := check(gctx); err != nil {
						return fmt.Errorf("%s: %w", name, err)
					}
					fmt.Fprintln(out, name+": ok")
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			if to := a.cfg.Notify.SMTP.To; a.cfg.Notify.SMTP.Host != "" && len(to) > 0 {
				fmt.Fprintf(out, "smtp: %s:%d -> %s\n", a.cfg.Notify.SMTP.Host, a.cfg.Notify.SMTP.Port, util.MaskEmails(to))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withDB, "db", false, "verificar también la conexión a la base")
	return cmd
}
