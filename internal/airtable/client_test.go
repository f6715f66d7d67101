package airtable

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return nil
}

type countingObserver struct {
	requests atomic.Int64
	retries  atomic.Int64
}

func (o *countingObserver) ObserveRequest(string, int) { o.requests.Add(1) }
func (o *countingObserver) ObserveRetry()              { o.retries.Add(1) }

func newTestClient(t *testing.T, h http.HandlerFunc, mutate ...func(*Options)) (*Client, *sleepRecorder) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	sr := &sleepRecorder{}
	opts := Options{
		BaseURL:    srv.URL + "/v0",
		Token:      "pat-test",
		BaseID:     "appBase",
		Table:      "Viajes Camiones",
		HTTPClient: srv.Client(),
		Sleep:      sr.sleep,
	}
	for _, m := range mutate {
		m(&opts)
	}
	c, err := New(opts)
	require.NoError(t, err)
	return c, sr
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{BaseID: "a", Table: "b"})
	assert.Error(t, err)
	_, err = New(Options{Token: "t", Table: "b"})
	assert.Error(t, err)

	c, err := New(Options{Token: "t", BaseID: "app1", Table: "Viajes 2024/25"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.airtable.com/v0/app1/Viajes%202024%2F25", c.URL())
}

func TestList_Paginates(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer pat-test", r.Header.Get("Authorization"))
		assert.Equal(t, "/v0/appBase/Viajes%20Camiones", r.URL.EscapedPath())
		switch r.URL.Query().Get("offset") {
		case "":
			w.Write([]byte(`{"records":[{"id":"rec1","fields":{"Patente":"AB123CD","TNPulpable":12.5}}],"offset":"itr2"}`))
		case "itr2":
			w.Write([]byte(`{"records":[{"id":"rec2","fields":{}},{"id":"rec3","fields":{"Fecha":"2024-05-01"}}]}`))
		default:
			t.Errorf("unexpected offset %q", r.URL.Query().Get("offset"))
		}
	})

	recs, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "rec1", recs[0].ID)
	assert.Equal(t, "AB123CD", recs[0].Fields["Patente"])
	assert.Equal(t, 12.5, recs[0].Fields["TNPulpable"])
	assert.Equal(t, "rec3", recs[2].ID)
}

func TestList_RetriesRateLimitWithRetryAfter(t *testing.T) {
	var calls atomic.Int64
	obs := &countingObserver{}
	c, sr := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"errors":[{"error":"RATE_LIMIT_REACHED"}]}`))
			return
		}
		w.Write([]byte(`{"records":[]}`))
	}, func(o *Options) { o.Observer = obs })

	recs, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, []time.Duration{3 * time.Second}, sr.waits)
	assert.EqualValues(t, 2, obs.requests.Load())
	assert.EqualValues(t, 1, obs.retries.Load())
}

func TestList_ServerErrorsExhaustRetries(t *testing.T) {
	var calls atomic.Int64
	c, sr := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	}, func(o *Options) { o.MaxRetries = 2 })

	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502 after 2 retries")
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sr.waits)
}

func TestList_NotFoundHint(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"NOT_FOUND"}`))
	})

	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "NOT_FOUND", apiErr.Message)
	assert.Contains(t, apiErr.Hint, c.URL())
}

func TestList_ErrorObject(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"type":"INVALID_REQUEST_UNKNOWN","message":"Invalid request: parameter validation failed"}}`))
	})

	_, err := c.List(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "Invalid request: parameter validation failed", apiErr.Message)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestList_BadShapes(t *testing.T) {
	for name, body := range map[string]string{
		"non-json":   `<html>oops</html>`,
		"no-records": `{"items":[]}`,
		"array":      `[1,2,3]`,
	} {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})
			_, err := c.List(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestPing_RequestsSingleRecord(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("maxRecords"))
		w.Write([]byte(`{"records":[{"id":"rec1","fields":{}}]}`))
	})
	assert.NoError(t, c.Ping(context.Background()))
}

func TestDelete_SendsRecordsQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, []string{"rec1", "rec2"}, r.URL.Query()["records[]"])
		w.Write([]byte(`{"records":[{"id":"rec1","deleted":true},{"id":"rec2","deleted":true}]}`))
	})
	assert.NoError(t, c.Delete(context.Background(), []string{"rec1", "rec2"}))
	assert.NoError(t, c.Delete(context.Background(), nil))
}

func TestDelete_TooMany(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	ids := make([]string, DeleteBatchSize+1)
	assert.Error(t, c.Delete(context.Background(), ids))
}

func TestDelete_ForbiddenHint(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"type":"INVALID_PERMISSIONS_OR_MODEL_NOT_FOUND","message":"Invalid permissions"}}`))
	})
	err := c.Delete(context.Background(), []string{"rec1"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Contains(t, apiErr.Hint, "data.records:delete")
	assert.IsType(t, map[string]any{}, apiErr.Body)
}

func TestDeleteAll_Batches(t *testing.T) {
	var (
		mu      sync.Mutex
		batches [][]string
	)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids := r.URL.Query()["records[]"]
		mu.Lock()
		batches = append(batches, ids)
		mu.Unlock()
		if ids[0] == "rec20" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`forbidden`))
			return
		}
		w.Write([]byte(`{"records":[]}`))
	})

	ids := make([]string, 25)
	for i := range ids {
		ids[i] = "rec" + string(rune('0'+i/10)) + string(rune('0'+i%10))
	}
	res := c.DeleteAll(context.Background(), ids, 2)
	require.Len(t, res, 25)
	assert.Len(t, batches, 3)
	for i, r := range res {
		assert.Equal(t, ids[i], r.ID)
		if i >= 20 {
			assert.Error(t, r.Err, r.ID)
		} else {
			assert.NoError(t, r.Err, r.ID)
		}
	}
	var apiErr *APIError
	require.True(t, errors.As(res[24].Err, &apiErr))
	assert.Equal(t, "forbidden", apiErr.Body)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, 32*time.Second, backoff(5))
	assert.Equal(t, 60*time.Second, backoff(6))
	assert.Equal(t, 60*time.Second, backoff(40))
}
