package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"geocraft/internal/app"
	"geocraft/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes gameplay and storage metrics. It implements app.EventRecorder.
type Recorder struct {
	gatherer prometheus.Gatherer

	SessionsStarted *prometheus.CounterVec
	SessionsEnded   *prometheus.CounterVec
	Choices         *prometheus.CounterVec
	Reveals         *prometheus.CounterVec
	Connections     prometheus.Gauge
	TableOperations *prometheus.HistogramVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		gatherer: reg,
		SessionsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geocraft_sessions_started_total",
				Help: "Sessions started or resumed",
			},
			[]string{"type", "mode", "resumed"},
		),
		SessionsEnded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geocraft_sessions_ended_total",
				Help: "Sessions ended by reason",
			},
			[]string{"type", "reason"},
		),
		Choices: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geocraft_choices_total",
				Help: "Answers submitted",
			},
			[]string{"type", "correct"},
		),
		Reveals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geocraft_reveals_total",
				Help: "Paid flag and hint reveals",
			},
			[]string{"kind"},
		),
		Connections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "geocraft_ws_connections",
			Help: "Open websocket connections",
		}),
		TableOperations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geocraft_account_table_duration_seconds",
				Help:    "Account table operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) SessionStarted(typ domain.PlayType, mode domain.Mode, resumed bool) {
	r.SessionsStarted.WithLabelValues(string(typ), string(mode), strconv.FormatBool(resumed)).Inc()
}

func (r *Recorder) SessionEnded(typ domain.PlayType, reason string) {
	r.SessionsEnded.WithLabelValues(string(typ), reason).Inc()
}

func (r *Recorder) ChoiceMade(typ domain.PlayType, correct bool) {
	r.Choices.WithLabelValues(string(typ), strconv.FormatBool(correct)).Inc()
}

func (r *Recorder) Revealed(kind string) {
	r.Reveals.WithLabelValues(kind).Inc()
}

func (r *Recorder) ConnectionOpened() { r.Connections.Inc() }
func (r *Recorder) ConnectionClosed() { r.Connections.Dec() }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// InstrumentTable times every operation of table.
func (r *Recorder) InstrumentTable(table app.AccountTable) app.AccountTable {
	return &instrumentedTable{next: table, hist: r.TableOperations}
}

type instrumentedTable struct {
	next app.AccountTable
	hist *prometheus.HistogramVec
}

func (t *instrumentedTable) Load(ctx context.Context) ([]domain.Account, error) {
	defer t.observe("load", time.Now())
	return t.next.Load(ctx)
}

func (t *instrumentedTable) Save(ctx context.Context, accounts []domain.Account) error {
	defer t.observe("save", time.Now())
	return t.next.Save(ctx, accounts)
}

func (t *instrumentedTable) Append(ctx context.Context, account domain.Account) error {
	defer t.observe("append", time.Now())
	return t.next.Append(ctx, account)
}

func (t *instrumentedTable) observe(op string, start time.Time) {
	t.hist.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
