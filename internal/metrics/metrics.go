// Package metrics records ranking and classification activity on a private prometheus registry.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "talent_matcher"

// Metrics is safe to use through a nil pointer, in which case every call is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	rankTotal       *prometheus.CounterVec
	rankDuration    prometheus.Histogram
	vacanciesScored prometheus.Counter
	classifications *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	rankTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rank_requests_total",
			Help:      "Total ranking requests by status.",
		},
		[]string{"status"},
	)
	rankDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rank_duration_seconds",
			Help:      "Ranking duration in seconds, fetch included.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
	)
	vacanciesScored := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vacancies_scored_total",
			Help:      "Total candidate/vacancy pairs scored.",
		},
	)
	classifications := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Total job postings classified by winning unit.",
		},
		[]string{"unit", "fallback"},
	)
	cacheLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_cache_lookups_total",
			Help:      "Score cache lookups by result.",
		},
		[]string{"result"},
	)

	registry.MustRegister(rankTotal, rankDuration, vacanciesScored, classifications, cacheLookups)

	return &Metrics{
		registry:        registry,
		rankTotal:       rankTotal,
		rankDuration:    rankDuration,
		vacanciesScored: vacanciesScored,
		classifications: classifications,
		cacheLookups:    cacheLookups,
	}
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRank(duration time.Duration, scored int, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}

	m.rankTotal.WithLabelValues(status).Inc()
	m.rankDuration.Observe(duration.Seconds())
	if scored > 0 {
		m.vacanciesScored.Add(float64(scored))
	}
}

func (m *Metrics) ObserveClassification(unit string, fallback bool) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(unit, strconv.FormatBool(fallback)).Inc()
}

func (m *Metrics) ObserveCacheLookup(hit bool, err error) {
	if m == nil {
		return
	}

	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case hit:
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// WriteTextfile dumps the registry in the format read by the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
