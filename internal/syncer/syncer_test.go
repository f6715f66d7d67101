package syncer

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/viajes/internal/airtable"
	"github.com/dropDatabas3/viajes/internal/lock"
	"github.com/dropDatabas3/viajes/internal/metrics"
	"github.com/dropDatabas3/viajes/internal/notify"
	"github.com/dropDatabas3/viajes/internal/observability/devlog"
	"github.com/dropDatabas3/viajes/internal/store"
	"github.com/dropDatabas3/viajes/migrations"
)

type fakeSource struct {
	mu        sync.Mutex
	records   []airtable.Record
	listErr   error
	deleted   []string
	deleteErr map[string]error
}

func (f *fakeSource) List(context.Context) ([]airtable.Record, error) {
	return f.records, f.listErr
}

func (f *fakeSource) DeleteAll(_ context.Context, ids []string, _ int) []airtable.DeleteResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]airtable.DeleteResult, len(ids))
	for i, id := range ids {
		out[i] = airtable.DeleteResult{ID: id, Err: f.deleteErr[id]}
		if f.deleteErr[id] == nil {
			f.deleted = append(f.deleted, id)
		}
	}
	return out
}

type fakeNotifier struct{ got []notify.Summary }

func (f *fakeNotifier) Notify(_ context.Context, s notify.Summary) error {
	f.got = append(f.got, s)
	return nil
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, store.Config{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	fsys, dir, err := migrations.For("sqlite")
	require.NoError(t, err)
	_, err = s.Migrate(ctx, fsys, dir)
	require.NoError(t, err)
	return s
}

func count(t *testing.T, s *store.Store, q string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB().QueryRow(q, args...).Scan(&n))
	return n
}

// lines decodifica el reporte JSON lines.
func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, sonic.UnmarshalString(l, &m), l)
		out = append(out, m)
	}
	return out
}

func find(evs []map[string]any, key, val string) []map[string]any {
	var out []map[string]any
	for _, e := range evs {
		if e[key] == val {
			out = append(out, e)
		}
	}
	return out
}

func ptr[T any](v T) *T { return &v }

var sample = []airtable.Record{
	{ID: "rec1", Fields: map[string]any{
		"Fecha": "2024-05-03", "Origen": "59400", "Destino": "PPE", "Producto": "Pino",
		"TN_Pulpable": "10,5", "Chofer": "Juan Perez", "CUIT": "20123456789", "Patente": "AB123CD",
	}},
	{ID: "rec2", Fields: map[string]any{"Fecha": "04/05/2024", "Chofer": "Ana Gomez", "Destino": "ASPP"}},
	{ID: "rec3", Fields: map[string]any{"Movil": []any{"AC999ZZ"}, "Chofer": "Luis Diaz Lopez", "TNChips": float64(8)}},
}

func TestModeFromFlags(t *testing.T) {
	assert.Equal(t, ModeDryRun, ModeFromFlags(true, true, true))
	assert.Equal(t, ModeConfirm, ModeFromFlags(false, true, true))
	assert.Equal(t, ModeWrite, ModeFromFlags(false, false, true))
	assert.Equal(t, ModeSimulate, ModeFromFlags(false, false, false))
	assert.True(t, ModeConfirm.Writes())
	assert.False(t, ModeSimulate.Writes())
}

func TestRun_DryRun(t *testing.T) {
	var buf bytes.Buffer
	src := &fakeSource{records: sample}
	s := New(Deps{Source: src, Report: &buf}, Options{Mode: ModeDryRun, Limit: 2})

	sum, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Fetched)

	evs := lines(t, &buf)
	assert.Equal(t, "fetched_records_count", evs[0]["info"])
	assert.EqualValues(t, 3, evs[0]["count"])
	assert.Equal(t, "rec1", evs[1]["id"])
	assert.EqualValues(t, 0, evs[1]["record_index"])
	assert.Equal(t, "rec2", evs[2]["id"])
	done := find(evs, "info", "dry_run_complete")
	require.Len(t, done, 1)
	assert.EqualValues(t, 2, done[0]["printed"])
	assert.Empty(t, src.deleted)
}

func TestRun_Simulate_NoDatabase(t *testing.T) {
	var buf bytes.Buffer
	src := &fakeSource{records: sample}
	s := New(Deps{Source: src, Report: &buf}, Options{})

	sum, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "simulate", sum.Mode)

	evs := lines(t, &buf)
	assert.Len(t, find(evs, "action", "simulate_insert_or_update"), 3)
	assert.Len(t, find(evs, "action", "simulate_delete"), 3)
	assert.Empty(t, src.deleted)
}

func TestRun_WriteRequiresStore(t *testing.T) {
	s := New(Deps{Source: &fakeSource{}}, Options{Mode: ModeWrite})
	_, err := s.Run(context.Background())
	require.Error(t, err)
}

func TestRun_Write(t *testing.T) {
	var buf bytes.Buffer
	st := openStore(t)
	src := &fakeSource{records: sample}
	rec := &devlog.Recorder{}
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	s := New(Deps{Source: src, Store: st, Report: &buf, Log: devlog.New(true, rec), Metrics: m},
		Options{Mode: ModeWrite, Destinos: map[string]string{"PPE": "PLANTA PUERTO ESPERANZA"}, EmpresaID: ptr(int64(7))})

	sum, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Fetched)
	assert.Equal(t, 2, sum.Inserted)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 0, sum.Failed)
	assert.Empty(t, src.deleted, "modo mysql no borra en Airtable")

	assert.Equal(t, 2, count(t, st, "SELECT COUNT(*) FROM moviles_viajes"))
	assert.Equal(t, 1, count(t, st, "SELECT COUNT(*) FROM moviles_predios WHERE id = 59400"))
	// rec2 se omitió: su chofer no queda creado.
	assert.Equal(t, 0, count(t, st, "SELECT COUNT(*) FROM moviles_personal WHERE nombre = 'Ana'"))
	assert.Equal(t, 1, count(t, st, "SELECT COUNT(*) FROM moviles_personal WHERE cuit = '20123456789'"))
	assert.Equal(t, 1, count(t, st, "SELECT COUNT(*) FROM moviles_personal WHERE nombre = 'Luis' AND apellido = 'Diaz Lopez' AND cuit = ''"))

	var destino string
	var tn float64
	var cliente int64
	require.NoError(t, st.DB().QueryRow(
		"SELECT destino, tn_pulpable, cliente_id FROM moviles_viajes WHERE record_id = 'rec1'").Scan(&destino, &tn, &cliente))
	assert.Equal(t, "PLANTA PUERTO ESPERANZA", destino)
	assert.Equal(t, 10.5, tn)
	assert.EqualValues(t, 7, cliente)

	evs := lines(t, &buf)
	missing := find(evs, "error", "missing_movil_id")
	require.Len(t, missing, 1)
	assert.Equal(t, "rec2", missing[0]["record_id"])
	assert.Len(t, find(evs, "warning", "missing_patente"), 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Records.WithLabelValues(metrics.RecordSynced)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Records.WithLabelValues(metrics.RecordSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("mysql", "ok")))

	// Modo dev: hay trazas por registro.
	assert.NotEmpty(t, rec.On(devlog.ChannelLog))

	// Segunda corrida: los mismos registros se actualizan.
	buf.Reset()
	sum, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Inserted)
	assert.Equal(t, 2, sum.Updated)
	assert.Equal(t, 2, count(t, st, "SELECT COUNT(*) FROM moviles_viajes"))
	assert.Equal(t, 1, count(t, st, "SELECT COUNT(*) FROM moviles_personal WHERE nombre = 'Luis'"))
}

func TestRun_ConfirmWithPlaceholder(t *testing.T) {
	var buf bytes.Buffer
	st := openStore(t)
	src := &fakeSource{records: sample, deleteErr: map[string]error{
		"rec3": &airtable.APIError{Status: 403, Body: map[string]any{"error": "NOT_AUTHORIZED"}, Hint: "permisos"},
	}}
	n := &fakeNotifier{}

	s := New(Deps{Source: src, Store: st, Report: &buf, Notifier: n},
		Options{Mode: ModeConfirm, AllowPlaceholderMovil: true, PlaceholderPrefix: "TMP"})
	s.suffix = func() string { return "AB12" }

	sum, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Inserted)
	assert.Equal(t, 2, sum.Deleted)
	assert.Equal(t, 1, sum.DeleteFailed)
	assert.ElementsMatch(t, []string{"rec1", "rec2"}, src.deleted)
	assert.Equal(t, 1, count(t, st, "SELECT COUNT(*) FROM moviles_movil WHERE patente = 'TMP-AB12'"))

	evs := lines(t, &buf)
	require.Len(t, find(evs, "info", "created_placeholder_movil"), 1)
	failed := find(evs, "error", "airtable_delete_failed")
	require.Len(t, failed, 1)
	assert.Equal(t, "rec3", failed[0]["record_id"])
	assert.Equal(t, "permisos", failed[0]["hint"])

	// Hubo fallas de borrado: se notifica.
	require.Len(t, n.got, 1)
	assert.Equal(t, 1, n.got[0].DeleteFailed)
}

func TestRun_FailedRecordRollsBack(t *testing.T) {
	var buf bytes.Buffer
	st := openStore(t)
	_, err := st.DB().Exec(`CREATE TRIGGER no_insert BEFORE INSERT ON moviles_viajes
		BEGIN SELECT RAISE(ABORT, 'insert bloqueado'); END`)
	require.NoError(t, err)

	src := &fakeSource{records: sample[:1]}
	n := &fakeNotifier{}
	s := New(Deps{Source: src, Store: st, Report: &buf, Notifier: n}, Options{Mode: ModeConfirm})

	sum, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.Empty(t, src.deleted)
	assert.Equal(t, 0, count(t, st, "SELECT COUNT(*) FROM moviles_predios"))
	assert.Equal(t, 0, count(t, st, "SELECT COUNT(*) FROM moviles_personal"))
	assert.Equal(t, 0, count(t, st, "SELECT COUNT(*) FROM moviles_movil"))

	evs := lines(t, &buf)
	failed := find(evs, "error", "insert_viaje_failed")
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0]["message"], "insert bloqueado")
	require.Len(t, n.got, 1)
}

func TestRun_FetchFailure(t *testing.T) {
	var buf bytes.Buffer
	n := &fakeNotifier{}
	src := &fakeSource{listErr: errors.New("status 503 after 5 retries")}
	s := New(Deps{Source: src, Report: &buf, Notifier: n, Policy: notify.Policy{}}, Options{})

	sum, err := s.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)
	assert.Equal(t, err, sum.Err)

	evs := lines(t, &buf)
	require.Len(t, find(evs, "error", "airtable_fetch_failed"), 1)
	require.Len(t, n.got, 1)
	assert.True(t, n.got[0].HasFailures())
}

func TestRun_Locked(t *testing.T) {
	st := openStore(t)
	locker := lock.NewMemory()
	release, err := locker.Acquire(context.Background(), "viajes-sync", time.Minute)
	require.NoError(t, err)
	defer release(context.Background())

	s := New(Deps{Source: &fakeSource{records: sample}, Store: st, Locker: locker}, Options{Mode: ModeWrite})
	_, err = s.Run(context.Background())
	assert.ErrorIs(t, err, lock.ErrLocked)
	assert.Equal(t, 0, count(t, st, "SELECT COUNT(*) FROM moviles_viajes"))
}

func TestRun_EndToEndAirtable(t *testing.T) {
	var (
		mu      sync.Mutex
		deleted []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if r.URL.Query().Get("offset") == "" {
				w.Write([]byte(`{"records":[{"id":"recA","fields":{"Patente":"AA111BB","CUIT":"20111111112"}}],"offset":"p2"}`))
				return
			}
			w.Write([]byte(`{"records":[{"id":"recB","fields":{"Patente":"BB222CC","Origen":{"id":"12"}}}]}`))
		case http.MethodDelete:
			mu.Lock()
			deleted = append(deleted, r.URL.Query()["records[]"]...)
			mu.Unlock()
			w.Write([]byte(`{"records":[]}`))
		}
	}))
	defer srv.Close()

	client, err := airtable.New(airtable.Options{
		BaseURL: srv.URL, Token: "t", BaseID: "app", Table: "Viajes", HTTPClient: srv.Client(),
		Sleep: func(context.Context, time.Duration) error { return nil },
	})
	require.NoError(t, err)

	st := openStore(t)
	s := New(Deps{Source: client, Store: st}, Options{Mode: ModeConfirm})
	sum, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Inserted)
	assert.Equal(t, 2, sum.Deleted)
	assert.ElementsMatch(t, []string{"recA", "recB"}, deleted)
	assert.Equal(t, 1, count(t, st, "SELECT COUNT(*) FROM moviles_predios WHERE id = 12"))
}
