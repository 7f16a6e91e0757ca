// Package metrics records conversion metrics for Prometheus.
package metrics

import (
	"time"

	"github.com/philipparndt/vecstl/pkg/convert"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OutcomeSuccess labels conversions that produced a mesh
const OutcomeSuccess = "success"

// Collector holds the conversion metrics
type Collector struct {
	conversionsTotal   *prometheus.CounterVec
	conversionDuration *prometheus.HistogramVec
	meshFaces          prometheus.Histogram
	skippedPolygons    prometheus.Counter
	rejectedUploads    *prometheus.CounterVec
}

// NewCollector registers the metrics on reg under namespace
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		conversionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Total number of conversions by input format and outcome",
			},
			[]string{"format", "outcome"},
		),
		conversionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "conversion_duration_seconds",
				Help:      "Conversion duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"format"},
		),
		meshFaces: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mesh_faces",
				Help:      "Number of faces in produced meshes",
				Buckets:   prometheus.ExponentialBuckets(12, 4, 10),
			},
		),
		skippedPolygons: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skipped_polygons_total",
				Help:      "Polygons and loops skipped with a warning",
			},
		),
		rejectedUploads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejected_uploads_total",
				Help:      "Uploads rejected before conversion",
			},
			[]string{"reason"},
		),
	}
}

// RecordConversion records one conversion. res is nil when err is set.
func (c *Collector) RecordConversion(format string, duration time.Duration, res *convert.Result, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = convert.Classify(err).String()
	}

	c.conversionsTotal.WithLabelValues(format, outcome).Inc()
	c.conversionDuration.WithLabelValues(format).Observe(duration.Seconds())

	if res != nil {
		c.meshFaces.Observe(float64(res.FaceCount))
		c.skippedPolygons.Add(float64(len(res.Warnings)))
	}
}

// RecordRejectedUpload counts a request refused before conversion, e.g.
// because it was too large
func (c *Collector) RecordRejectedUpload(reason string) {
	c.rejectedUploads.WithLabelValues(reason).Inc()
}
