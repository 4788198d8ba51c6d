package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder provides observability for report generation. It owns a private
// registry so batch runs can dump it to a textfile without touching the
// default registry. A nil Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	// Generated documents by activity and variant
	Artifacts *prometheus.CounterVec

	// Records that went into a successful generation
	Records *prometheus.CounterVec

	// Failed generations by activity and error code
	Failures *prometheus.CounterVec

	// Generation latency by activity
	Duration *prometheus.HistogramVec

	// Commands applied by the delivery layer, by command and outcome
	Deliveries *prometheus.CounterVec
}

// New creates a Recorder with all generation metrics registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		Artifacts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avisos_artifacts_generated_total",
			Help: "Total generated report documents by activity and variant",
		}, []string{"activity", "variant"}),

		Records: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avisos_records_processed_total",
			Help: "Total operation records included in generated reports",
		}, []string{"activity"}),

		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avisos_generation_failures_total",
			Help: "Total failed generations by activity and error code",
		}, []string{"activity", "code"}),

		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "avisos_generation_duration_seconds",
			Help:    "Duration of one generation call",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"activity"}),

		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avisos_delivery_commands_total",
			Help: "Total delivery commands applied by command and outcome",
		}, []string{"command", "outcome"}), // outcome: "ok", "error"
	}
}

// Registry exposes the private registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveGeneration records a successful generation.
func (r *Recorder) ObserveGeneration(activity string, records int, d time.Duration) {
	if r != nil {
		r.Records.WithLabelValues(activity).Add(float64(records))
		r.Duration.WithLabelValues(activity).Observe(d.Seconds())
	}
}

// ObserveArtifact records one generated document.
func (r *Recorder) ObserveArtifact(activity, variant string) {
	if r != nil {
		r.Artifacts.WithLabelValues(activity, variant).Inc()
	}
}

// ObserveFailure records a failed generation.
func (r *Recorder) ObserveFailure(activity, code string) {
	if r != nil {
		if code == "" {
			code = "UNKNOWN"
		}
		r.Failures.WithLabelValues(activity, code).Inc()
	}
}

// ObserveDelivery records one applied command.
func (r *Recorder) ObserveDelivery(command string, err error) {
	if r != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		r.Deliveries.WithLabelValues(command, outcome).Inc()
	}
}

// WriteTextfile writes the registry in the text exposition format for the
// node-exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
