package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := New(reg)
	require.NoError(t, err)
	b, err := New(reg)
	require.NoError(t, err)

	a.Record(RecordSynced)
	b.Record(RecordSynced)
	assert.Equal(t, 2.0, testutil.ToFloat64(a.Records.WithLabelValues(RecordSynced)))
}

func TestSync_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := New(reg)
	require.NoError(t, err)

	s.ObserveRequest("GET", 200)
	s.ObserveRequest("GET", 0)
	s.ObserveRetry()
	at := time.Unix(1700000000, 0)
	s.RunFinished("confirm", true, 3*time.Second, at)
	s.RunFinished("confirm", false, time.Second, at.Add(time.Hour))

	assert.Equal(t, 1.0, testutil.ToFloat64(s.AirtableRequests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.AirtableRequests.WithLabelValues("GET", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.AirtableRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Runs.WithLabelValues("confirm", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Runs.WithLabelValues("confirm", "error")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(s.LastSuccess))
}

func TestSync_NilSafe(t *testing.T) {
	var s *Sync
	s.ObserveRequest("GET", 200)
	s.ObserveRetry()
	s.Record(RecordFailed)
	s.RunFinished("simulate", true, 0, time.Now())
}

func TestRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := New(reg)
	require.NoError(t, err)
	s.Record(RecordSkipped)

	healthy := true
	srv := httptest.NewServer(Router(reg, map[string]HealthFunc{
		"db": func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("down")
		},
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `viajes_sync_records_total{result="skipped"} 1`)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	healthy = false
	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "db: down\n", string(body))
}
