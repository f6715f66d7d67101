package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dropDatabas3/viajes/internal/config"
	"github.com/dropDatabas3/viajes/internal/security/secretbox"
)

// encryptCmd cifra un secreto para pegarlo en config.yaml o .env como
// "enc:...". Lee de la terminal sin eco, o de stdin si viene por pipe.
func encryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt",
		Short: "Cifra un valor con SECRETBOX_MASTER_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnvFiles(".env")
			box, err := secretbox.FromEnv()
			if err != nil {
				return configError{err}
			}

			plain, err := readSecret(cmd)
			if err != nil {
				return err
			}
			if plain == "" {
				return errors.New("valor vacío")
			}
			sealed, err := box.Seal(plain)
			if err != nil {
				return fmt.Errorf("encrypt: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), sealed)
			return nil
		},
	}
}

func readSecret(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), "valor: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
