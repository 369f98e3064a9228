package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Recorder holds the run's Prometheus collectors on a private registry. A batch run
// has no scrape endpoint, so the registry is exported once via WriteTextfile.
type Recorder struct {
	registry *prometheus.Registry
	logger   *zap.Logger

	datasetRows      prometheus.Gauge
	datasetApps      prometheus.Gauge
	datasetFunctions prometheus.Gauge
	stageDuration    *prometheus.GaugeVec
	chartsRendered   *prometheus.CounterVec
	undefinedStats   *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its collectors registered.
func NewRecorder(logger *zap.Logger) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		logger:   logger,
		datasetRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tracelens_dataset_rows",
			Help: "Number of invocation records loaded from the trace.",
		}),
		datasetApps: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tracelens_dataset_apps",
			Help: "Number of distinct applications in the trace.",
		}),
		datasetFunctions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tracelens_dataset_functions",
			Help: "Number of distinct (application, function) pairs in the trace.",
		}),
		stageDuration: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tracelens_stage_duration_seconds",
				Help: "Wall-clock time spent in each pipeline stage, including time waiting on chart windows.",
			},
			[]string{"stage"},
		),
		chartsRendered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracelens_charts_rendered_total",
				Help: "Charts rendered, by chart kind.",
			},
			[]string{"kind"},
		),
		undefinedStats: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracelens_undefined_statistics_total",
				Help: "Statistics reported as undefined because the data could not support them.",
			},
			[]string{"statistic"},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) SetDatasetRows(n int) {
	r.datasetRows.Set(float64(n))
}

func (r *Recorder) SetDatasetShape(apps, functions int) {
	r.datasetApps.Set(float64(apps))
	r.datasetFunctions.Set(float64(functions))
}

// ObserveStage records how long a stage took.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Set(d.Seconds())
	r.logger.Debug("Stage finished", zap.String("stage", stage), zap.Duration("elapsed", d))
}

func (r *Recorder) ChartRendered(kind string) {
	r.chartsRendered.WithLabelValues(kind).Inc()
}

// UndefinedStatistic counts a statistic reported as undefined and logs why.
func (r *Recorder) UndefinedStatistic(statistic string, cause error) {
	r.undefinedStats.WithLabelValues(statistic).Inc()
	r.logger.Warn("Statistic undefined",
		zap.String("statistic", statistic),
		zap.Error(cause),
	)
}

// WriteTextfile writes the registry in text exposition format to path, for the
// node-exporter textfile collector. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	r.logger.Info("Metrics written", zap.String("path", path))
	return nil
}
