package light

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"

	prometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "light"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of headers verified and stored, by chain.
	HeadersSynced metrics.Counter
	// Number of rejected headers, by chain and reason.
	HeadersRejected metrics.Counter
	// Highest stored height, by chain.
	Height metrics.Gauge
	// Number of accepted epoch changes, by chain.
	EpochChanges metrics.Counter
	// Number of peers in the latest accepted peer set, by chain.
	ConsensusPeers metrics.Gauge
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		HeadersSynced: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "headers_synced",
			Help:      "Number of headers verified and stored.",
		}, append(labels, "chain_id")).With(labelsAndValues...),
		HeadersRejected: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "headers_rejected",
			Help:      "Number of rejected headers.",
		}, append(labels, "chain_id", "reason")).With(labelsAndValues...),
		Height: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "height",
			Help:      "Highest stored header height.",
		}, append(labels, "chain_id")).With(labelsAndValues...),
		EpochChanges: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "epoch_changes",
			Help:      "Number of accepted consensus peer set changes.",
		}, append(labels, "chain_id")).With(labelsAndValues...),
		ConsensusPeers: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "consensus_peers",
			Help:      "Number of peers in the active consensus peer set.",
		}, append(labels, "chain_id")).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		HeadersSynced:   discard.NewCounter(),
		HeadersRejected: discard.NewCounter(),
		Height:          discard.NewGauge(),
		EpochChanges:    discard.NewCounter(),
		ConsensusPeers:  discard.NewGauge(),
	}
}
