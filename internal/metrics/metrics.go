// Package metrics records per-run Prometheus metrics and writes them in the
// text exposition format for the node_exporter textfile collector. The tool
// is short-lived, so there is no HTTP endpoint; each run replaces the file.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// namespace prefixes every metric name.
const namespace = "checkversion"

// Recorder holds all metrics owned by a checkversion run.
// Metrics are registered against an injected registry so tests can use a
// fresh prometheus.Registry without polluting the default one.
type Recorder struct {
	// resolutionsTotal counts resolved versions by decision source.
	resolutionsTotal *prometheus.CounterVec

	// vcsFailuresTotal counts version-control queries that degraded to a
	// default value, by query ("tag" or "branch").
	vcsFailuresTotal *prometheus.CounterVec

	// lastWriteTimestamp is the Unix time of the last version file write.
	lastWriteTimestamp prometheus.Gauge

	// info is always 1 and carries the project and written version as labels.
	info *prometheus.GaugeVec
}

// New registers all metrics against reg and returns the Recorder.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		resolutionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Number of version resolutions, partitioned by decision source.",
		}, []string{"source"}),

		vcsFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vcs",
			Name:      "query_failures_total",
			Help:      "Version-control queries that failed and fell back to a default.",
		}, []string{"query"}),

		lastWriteTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_write_timestamp_seconds",
			Help:      "Unix time the version file was last written.",
		}),

		info: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "info",
			Help:      "Constant 1, labelled with the project and the version written.",
		}, []string{"project", "version"}),
	}
}

// ObserveResolution counts one resolution from source.
func (r *Recorder) ObserveResolution(source string) {
	r.resolutionsTotal.WithLabelValues(source).Inc()
}

// ObserveVCSFailure counts one degraded version-control query.
func (r *Recorder) ObserveVCSFailure(query string) {
	r.vcsFailuresTotal.WithLabelValues(query).Inc()
}

// ObserveWrite records a successful version file write at t.
func (r *Recorder) ObserveWrite(project, version string, t time.Time) {
	r.lastWriteTimestamp.Set(float64(t.Unix()))
	r.info.Reset()
	r.info.WithLabelValues(project, version).Set(1)
}

// WriteTextfile gathers g and atomically writes it to path.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
