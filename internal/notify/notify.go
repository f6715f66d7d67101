// Package notify avisa el resultado de una corrida de sync por mail (SMTP)
// y/o Discord.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hako/durafmt"
)

// Summary es el resultado de una corrida.
type Summary struct {
	RunID     string
	Mode      string
	StartedAt time.Time
	Duration  time.Duration

	Fetched      int
	Inserted     int
	Updated      int
	Skipped      int
	Failed       int
	Deleted      int
	DeleteFailed int

	// Err es el error que cortó la corrida (fetch, commit). nil si terminó.
	Err error
}

// HasFailures indica si hubo algo que mirar.
func (s Summary) HasFailures() bool {
	return s.Err != nil || s.Failed > 0 || s.DeleteFailed > 0
}

// Subject es el asunto del aviso.
func (s Summary) Subject() string {
	status := "OK"
	if s.HasFailures() {
		status = "CON ERRORES"
	}
	return fmt.Sprintf("[viajes-sync] %s %s", s.Mode, status)
}

// Text es el cuerpo en texto plano del aviso.
func (s Summary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Corrida %s (%s)\n", s.RunID, s.Mode)
	if !s.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Inicio: %s\n", s.StartedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "Duración: %s\n", humanDuration(s.Duration))
	fmt.Fprintf(&b, "Leídos: %d | Nuevos: %d | Actualizados: %d | Omitidos: %d | Fallidos: %d\n",
		s.Fetched, s.Inserted, s.Updated, s.Skipped, s.Failed)
	if s.Deleted > 0 || s.DeleteFailed > 0 {
		fmt.Fprintf(&b, "Borrados en Airtable: %d (fallidos: %d)\n", s.Deleted, s.DeleteFailed)
	}
	if s.Err != nil {
		fmt.Fprintf(&b, "Error: %v\n", s.Err)
	}
	return b.String()
}

func humanDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return durafmt.Parse(d.Round(time.Second)).LimitFirstN(2).String()
}

// Notifier envía el resumen de una corrida.
type Notifier interface {
	Notify(ctx context.Context, s Summary) error
}

// Multi envía a todos los notifiers y junta los errores.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, s Summary) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Policy decide si una corrida amerita aviso.
type Policy struct {
	// Always avisa también las corridas sin errores.
	Always bool
}

func (p Policy) ShouldNotify(s Summary) bool {
	return p.Always || s.HasFailures()
}
