// Package metrics define las métricas Prometheus del sync y el router que
// las expone. Los collectors viven en un Sync (no en globals) para que cada
// test use su propio registry.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resultados por registro.
const (
	RecordSynced  = "synced"
	RecordUpdated = "updated"
	RecordSkipped = "skipped"
	RecordFailed  = "failed"
	RecordDeleted = "deleted"
)

// Sync agrupa los collectors de una corrida de sync.
type Sync struct {
	Runs             *prometheus.CounterVec
	Records          *prometheus.CounterVec
	AirtableRequests *prometheus.CounterVec
	AirtableRetries  prometheus.Counter
	Duration         prometheus.Histogram
	LastSuccess      prometheus.Gauge
}

// New crea y registra los collectors en reg (o el default si es nil). Si ya
// estaban registrados se reutilizan los existentes.
func New(reg prometheus.Registerer) (*Sync, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &Sync{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "viajes_sync_runs_total",
			Help: "Corridas de sync por modo y resultado",
		}, []string{"mode", "result"}),
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "viajes_sync_records_total",
			Help: "Registros procesados por resultado",
		}, []string{"result"}),
		AirtableRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "viajes_airtable_requests_total",
			Help: "Requests a la API de Airtable por método y status",
		}, []string{"method", "status"}),
		AirtableRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "viajes_airtable_retries_total",
			Help: "Reintentos contra la API de Airtable",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "viajes_sync_duration_seconds",
			Help:    "Duración de las corridas de sync",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "viajes_sync_last_success_timestamp_seconds",
			Help: "Unix time de la última corrida sin errores",
		}),
	}

	var err error
	if s.Runs, err = register(reg, s.Runs); err != nil {
		return nil, err
	}
	if s.Records, err = register(reg, s.Records); err != nil {
		return nil, err
	}
	if s.AirtableRequests, err = register(reg, s.AirtableRequests); err != nil {
		return nil, err
	}
	if s.AirtableRetries, err = register(reg, s.AirtableRetries); err != nil {
		return nil, err
	}
	if s.Duration, err = register(reg, s.Duration); err != nil {
		return nil, err
	}
	if s.LastSuccess, err = register(reg, s.LastSuccess); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveRequest cuenta un request a Airtable. status 0 = error de red.
func (s *Sync) ObserveRequest(method string, status int) {
	if s == nil {
		return
	}
	label := strconv.Itoa(status)
	if status == 0 {
		label = "error"
	}
	s.AirtableRequests.WithLabelValues(method, label).Inc()
}

// ObserveRetry cuenta un reintento contra Airtable.
func (s *Sync) ObserveRetry() {
	if s == nil {
		return
	}
	s.AirtableRetries.Inc()
}

// Record cuenta un registro con el resultado dado.
func (s *Sync) Record(result string) {
	if s == nil {
		return
	}
	s.Records.WithLabelValues(result).Inc()
}

// RunFinished registra el fin de una corrida. ok=true actualiza LastSuccess.
func (s *Sync) RunFinished(mode string, ok bool, d time.Duration, at time.Time) {
	if s == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	s.Runs.WithLabelValues(mode, result).Inc()
	s.Duration.Observe(d.Seconds())
	if ok {
		s.LastSuccess.Set(float64(at.Unix()))
	}
}
