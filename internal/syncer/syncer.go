// Package syncer pasa los viajes cargados en Airtable a la base de moviles.
//
// Modos (según los flags del CLI):
//   - dry-run: lista los registros, sin tocar la base.
//   - simulate (default): reporta qué haría, sin tocar la base.
//   - mysql: escribe en la base pero no borra en Airtable.
//   - confirm: escribe y, después del commit, borra en Airtable lo sincronizado.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/viajes/internal/airtable"
	"github.com/dropDatabas3/viajes/internal/cache"
	"github.com/dropDatabas3/viajes/internal/lock"
	"github.com/dropDatabas3/viajes/internal/metrics"
	"github.com/dropDatabas3/viajes/internal/notify"
	"github.com/dropDatabas3/viajes/internal/observability/devlog"
	"github.com/dropDatabas3/viajes/internal/store"
)

// Mode es el modo de corrida.
type Mode string

const (
	ModeDryRun   Mode = "dry-run"
	ModeSimulate Mode = "simulate"
	ModeWrite    Mode = "mysql"
	ModeConfirm  Mode = "confirm"
)

// Writes indica si el modo escribe en la base.
func (m Mode) Writes() bool { return m == ModeWrite || m == ModeConfirm }

// ModeFromFlags resuelve el modo desde los flags del CLI. --dry-run gana
// sobre todo; --confirm sobre --mysql.
func ModeFromFlags(dryRun, confirm, mysql bool) Mode {
	switch {
	case dryRun:
		return ModeDryRun
	case confirm:
		return ModeConfirm
	case mysql:
		return ModeWrite
	default:
		return ModeSimulate
	}
}

// Summary es el resultado de una corrida.
type Summary = notify.Summary

// ErrFetch envuelve los errores al leer de Airtable.
var ErrFetch = errors.New("syncer: airtable fetch failed")

// Source es la parte del cliente de Airtable que usa el sync.
type Source interface {
	List(ctx context.Context) ([]airtable.Record, error)
	DeleteAll(ctx context.Context, ids []string, workers int) []airtable.DeleteResult
}

// Options parametriza las corridas.
type Options struct {
	Mode  Mode
	Limit int // solo dry-run; 0 = todos

	EmpresaID             *int64
	AreaID                *int64
	AllowPlaceholderMovil bool
	PlaceholderPrefix     string
	Destinos              map[string]string
	DeleteConcurrency     int

	LockKey string
	LockTTL time.Duration
}

// Deps son las dependencias del sync. Solo Source es obligatoria; Store lo
// es en los modos que escriben.
type Deps struct {
	Source   Source
	Store    *store.Store
	Memo     *cache.Memo
	Log      devlog.Logger
	Report   io.Writer
	Locker   lock.Locker
	Metrics  *metrics.Sync
	Notifier notify.Notifier
	Policy   notify.Policy
}

// Syncer ejecuta corridas. Una instancia puede usarse para muchas corridas
// (modo watch), pero no en paralelo: para eso está el lock.
type Syncer struct {
	d    Deps
	opts Options
	rep  *reporter

	now    func() time.Time
	suffix func() string
}

// New arma un Syncer aplicando defaults.
func New(d Deps, opts Options) *Syncer {
	if d.Log == nil {
		d.Log = devlog.New(false, devlog.Discard)
	}
	if d.Memo == nil {
		d.Memo = cache.New(0)
	}
	if opts.PlaceholderPrefix == "" {
		opts.PlaceholderPrefix = "UNKNOWN"
	}
	if opts.DeleteConcurrency <= 0 {
		opts.DeleteConcurrency = 2
	}
	if opts.LockKey == "" {
		opts.LockKey = "viajes-sync"
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Minute
	}
	if opts.Mode == "" {
		opts.Mode = ModeSimulate
	}
	return &Syncer{
		d:      d,
		opts:   opts,
		rep:    &reporter{out: d.Report},
		now:    time.Now,
		suffix: randomSuffix,
	}
}

const placeholderAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randomSuffix() string {
	b := make([]byte, 4)
	for i := range b {
		b[i] = placeholderAlphabet[rand.IntN(len(placeholderAlphabet))]
	}
	return string(b)
}

// Run ejecuta una corrida completa y retorna su resumen. El error es el
// que cortó la corrida; las fallas por registro solo se cuentan.
func (s *Syncer) Run(ctx context.Context) (sum Summary, err error) {
	sum = Summary{
		RunID:     uuid.NewString(),
		Mode:      string(s.opts.Mode),
		StartedAt: s.now(),
	}
	log := s.d.Log
	log.Info("sync_start", sum.RunID, sum.Mode)

	defer func() {
		sum.Duration = s.now().Sub(sum.StartedAt)
		sum.Err = err
		s.finish(ctx, sum)
	}()

	if s.opts.Mode.Writes() {
		if s.d.Store == nil {
			return sum, errors.New("syncer: modo " + sum.Mode + " requiere base de datos")
		}
		if s.d.Locker != nil {
			release, err := s.d.Locker.Acquire(ctx, s.opts.LockKey, s.opts.LockTTL)
			if err != nil {
				s.rep.emit(event{"error": "sync_locked", "message": err.Error()})
				return sum, fmt.Errorf("syncer: %w", err)
			}
			defer func() {
				if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
					log.Warn("lock_release_failed", rerr.Error())
				}
			}()
		}
	}

	records, err := s.d.Source.List(ctx)
	if err != nil {
		s.rep.emit(event{"error": "airtable_fetch_failed", "message": err.Error()})
		log.Error("airtable_fetch_failed", err.Error())
		return sum, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	sum.Fetched = len(records)
	s.rep.emit(event{"info": "fetched_records_count", "count": len(records)})
	log.Info("fetched_records_count", len(records))

	switch s.opts.Mode {
	case ModeDryRun:
		s.dryRun(records)
		return sum, nil
	case ModeSimulate:
		s.simulate(records)
		return sum, nil
	}

	synced, err := s.write(ctx, records, &sum)
	if err != nil {
		return sum, err
	}
	if s.opts.Mode == ModeConfirm && len(synced) > 0 {
		s.deleteSynced(ctx, synced, &sum)
	}
	return sum, nil
}

func (s *Syncer) dryRun(records []airtable.Record) {
	limit := s.opts.Limit
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}
	for i, rec := range records[:limit] {
		s.rep.emit(event{"record_index": i, "id": rec.ID, "fields": fieldsOf(rec)})
	}
	s.rep.emit(event{"info": "dry_run_complete", "printed": limit})
}

func (s *Syncer) simulate(records []airtable.Record) {
	for _, rec := range records {
		s.rep.emit(event{"action": "simulate_insert_or_update", "record_id": rec.ID, "fields": fieldsOf(rec)})
		s.rep.emit(event{"action": "simulate_delete", "record_id": rec.ID})
	}
}

func fieldsOf(rec airtable.Record) map[string]any {
	if rec.Fields == nil {
		return map[string]any{}
	}
	return rec.Fields
}

// write procesa los registros en una transacción, cada uno en su savepoint,
// y hace commit al final. Retorna los ids de Airtable sincronizados.
func (s *Syncer) write(ctx context.Context, records []airtable.Record, sum *Summary) ([]string, error) {
	log := s.d.Log
	tx, err := s.d.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	cols, err := tx.Columns(ctx, store.TableViajes)
	if err != nil {
		return nil, err
	}
	// La transacción es nueva: nada memorizado de antes sigue siendo válido
	// si la corrida anterior terminó en rollback.
	s.d.Memo.Flush()

	var synced []string
	for _, rec := range records {
		sp, err := tx.Savepoint(ctx)
		if err != nil {
			return nil, err
		}

		res, err := s.syncRecord(ctx, tx, cols, rec)
		switch {
		case err != nil:
			sum.Failed++
			s.d.Metrics.Record(metrics.RecordFailed)
			s.rep.emit(event{"error": "insert_viaje_failed", "record_id": rec.ID, "message": err.Error()})
			log.Error("insert_viaje_failed", rec.ID, err.Error())
		case res.skipped:
			sum.Skipped++
			s.d.Metrics.Record(metrics.RecordSkipped)
		}
		if err != nil || res.skipped {
			// Nada del registro queda a medias (ni choferes ni móviles).
			if rerr := tx.RollbackTo(ctx, sp); rerr != nil {
				return nil, rerr
			}
			s.d.Memo.Flush()
		}
		if rerr := tx.Release(ctx, sp); rerr != nil {
			return nil, rerr
		}
		if err != nil || res.skipped {
			continue
		}

		if res.updated {
			sum.Updated++
			s.d.Metrics.Record(metrics.RecordUpdated)
		} else {
			sum.Inserted++
			s.d.Metrics.Record(metrics.RecordSynced)
		}
		synced = append(synced, rec.ID)
		s.rep.emit(event{"info": "viaje_synced", "record_id": rec.ID, "viaje_id": res.viajeID, "updated": res.updated})
		log.Trace("viaje_synced", rec.ID, res.viajeID)
	}

	if err := tx.Commit(); err != nil {
		s.d.Memo.Flush()
		s.rep.emit(event{"error": "commit_failed", "message": err.Error()})
		return nil, err
	}
	return synced, nil
}

// deleteSynced borra en Airtable lo que ya quedó commiteado.
func (s *Syncer) deleteSynced(ctx context.Context, ids []string, sum *Summary) {
	for _, r := range s.d.Source.DeleteAll(ctx, ids, s.opts.DeleteConcurrency) {
		if r.Err == nil {
			sum.Deleted++
			s.d.Metrics.Record(metrics.RecordDeleted)
			s.rep.emit(event{"info": "airtable_record_deleted", "record_id": r.ID})
			continue
		}
		sum.DeleteFailed++
		var apiErr *airtable.APIError
		if errors.As(r.Err, &apiErr) {
			e := event{"error": "airtable_delete_failed", "record_id": r.ID, "status": apiErr.Status, "body": apiErr.Body}
			if apiErr.Hint != "" {
				e["hint"] = apiErr.Hint
			}
			s.rep.emit(e)
		} else {
			s.rep.emit(event{"warning": "failed_to_delete_airtable_record_network", "record_id": r.ID, "message": r.Err.Error()})
		}
		s.d.Log.Warn("airtable_delete_failed", r.ID, r.Err.Error())
	}
}

// finish cierra la corrida: reporte, métricas y aviso.
func (s *Syncer) finish(ctx context.Context, sum Summary) {
	e := event{
		"info":     "sync_complete",
		"run_id":   sum.RunID,
		"mode":     sum.Mode,
		"fetched":  sum.Fetched,
		"inserted": sum.Inserted,
		"updated":  sum.Updated,
		"skipped":  sum.Skipped,
		"failed":   sum.Failed,
		"deleted":  sum.Deleted,
	}
	if sum.DeleteFailed > 0 {
		e["delete_failed"] = sum.DeleteFailed
	}
	s.rep.emit(e)

	ok := !sum.HasFailures()
	s.d.Metrics.RunFinished(sum.Mode, ok, sum.Duration, s.now())
	if ok {
		s.d.Log.Info("sync_complete", sum.RunID, sum.Fetched, sum.Duration.String())
	} else {
		s.d.Log.Warn("sync_complete_with_failures", sum.RunID, sum.Failed, sum.DeleteFailed)
	}

	if s.d.Notifier != nil && s.d.Policy.ShouldNotify(sum) {
		if err := s.d.Notifier.Notify(context.WithoutCancel(ctx), sum); err != nil {
			s.d.Log.Warn("notify_failed", strings.TrimSpace(err.Error()))
		}
	}
}
