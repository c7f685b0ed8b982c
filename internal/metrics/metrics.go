// Package metrics holds Prometheus instruments for repository builds and
// queries. A CLI session has no scrape endpoint, so the registry is written
// out in text exposition format when the session ends.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry collects every imgrepo metric.
var Registry = prometheus.NewRegistry()

// BuildBuckets spans single-image views to large directories, 10ms to 5min.
var BuildBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300}

var (
	// ViewsBuilt counts constructed repository views, root and children.
	ViewsBuilt = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "imgrepo_views_built_total",
			Help: "Repository views constructed",
		},
	)

	// ImagesIndexed counts images that entered a view.
	ImagesIndexed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "imgrepo_images_indexed_total",
			Help: "Images indexed into views",
		},
	)

	// ImagesSkipped counts files excluded from a view, by reason.
	ImagesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgrepo_images_skipped_total",
			Help: "Files excluded from views",
		},
		[]string{"reason"},
	)

	// BuildDuration records view construction time in seconds.
	BuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imgrepo_view_build_duration_seconds",
			Help:    "View build duration",
			Buckets: BuildBuckets,
		},
	)

	// KMeansIterations records assignment rounds per cluster build.
	KMeansIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imgrepo_kmeans_iterations",
			Help:    "k-means iterations per build",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// Searches counts searches by mode (text, image) and outcome.
	Searches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgrepo_searches_total",
			Help: "Searches run",
		},
		[]string{"mode", "outcome"},
	)

	// CorruptionChecks counts corruption audits.
	CorruptionChecks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "imgrepo_corruption_checks_total",
			Help: "Corruption checks run",
		},
	)

	// CorruptedImages counts images flagged by corruption audits.
	CorruptedImages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "imgrepo_corrupted_images_total",
			Help: "Images flagged as changed since indexing",
		},
	)
)

func init() {
	Registry.MustRegister(
		ViewsBuilt,
		ImagesIndexed,
		ImagesSkipped,
		BuildDuration,
		KMeansIterations,
		Searches,
		CorruptionChecks,
		CorruptedImages,
	)
}

// WriteTextfile writes the registry to path in text exposition format,
// suitable for a node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("cannot write metrics %s: %w", path, err)
	}
	return nil
}
