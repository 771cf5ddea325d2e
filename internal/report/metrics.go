package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the gauges exported after a run. A nil *Metrics ignores
// every call.
type Metrics struct {
	registry      *prometheus.Registry
	nodes         *prometheus.GaugeVec
	edges         *prometheus.GaugeVec
	cycles        prometheus.Counter
	views         prometheus.Gauge
	stageDuration *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		nodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ontoforge",
			Name:      "nodes",
			Help:      "Nodes in each ontology store.",
		}, []string{"origin"}),
		edges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ontoforge",
			Name:      "edges",
			Help:      "Edges in each ontology store.",
		}, []string{"origin"}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ontoforge",
			Name:      "cycles_total",
			Help:      "is_a cycles cut while building hierarchies.",
		}),
		views: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ontoforge",
			Name:      "views",
			Help:      "Hierarchy views written.",
		}),
		stageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ontoforge",
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
		}, []string{"stage"}),
	}
	m.registry.MustRegister(m.nodes, m.edges, m.cycles, m.views, m.stageDuration)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// SetGraph records the size of a store. The merged store uses "merged".
func (m *Metrics) SetGraph(origin string, nodes, edges int) {
	if m == nil {
		return
	}
	m.nodes.WithLabelValues(origin).Set(float64(nodes))
	m.edges.WithLabelValues(origin).Set(float64(edges))
}

func (m *Metrics) AddCycles(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cycles.Add(float64(n))
}

func (m *Metrics) SetViews(n int) {
	if m == nil {
		return
	}
	m.views.Set(float64(n))
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

// WriteTextfile writes the metrics in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
