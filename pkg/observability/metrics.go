package observability

import (
	"errors"
	"time"

	"github.com/aretw0/treetagger/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records engine sessions and batches.
type Metrics struct {
	sessions      *prometheus.CounterVec
	batches       *prometheus.CounterVec
	tokens        prometheus.Counter
	records       prometheus.Counter
	batchDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treetagger_sessions_total",
				Help: "Engine sessions by event (started, failed)",
			},
			[]string{"model", "event"},
		),
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treetagger_batches_total",
				Help: "Processed batches by outcome",
			},
			[]string{"model", "outcome"},
		),
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treetagger_tokens_total",
			Help: "Tokens submitted to the engine",
		}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treetagger_records_total",
			Help: "Records delivered to handlers",
		}),
		batchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "treetagger_batch_duration_seconds",
				Help:    "Duration of batch round trips",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model"},
		),
	}

	for _, c := range []prometheus.Collector{m.sessions, m.batches, m.tokens, m.records, m.batchDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) SessionStarted(model string) {
	m.sessions.WithLabelValues(model, "started").Inc()
}

func (m *Metrics) SessionFailed(model string, err error) {
	m.sessions.WithLabelValues(model, "failed").Inc()
}

func (m *Metrics) BatchCompleted(model string, tokens, records int, elapsed time.Duration, err error) {
	m.batches.WithLabelValues(model, Outcome(err)).Inc()
	m.tokens.Add(float64(tokens))
	m.records.Add(float64(records))
	m.batchDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}

// Outcome maps a batch error to a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrProtocol):
		return "protocol"
	case errors.Is(err, domain.ErrWriteFailure):
		return "write"
	case errors.Is(err, domain.ErrHandler):
		return "handler"
	case errors.Is(err, domain.ErrSessionTerminated):
		return "terminated"
	case errors.Is(err, domain.ErrStartFailure):
		return "start"
	default:
		return "error"
	}
}
