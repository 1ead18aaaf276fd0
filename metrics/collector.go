// Package metrics exposes quad tree statistics to Prometheus.
package metrics

import (
	quadtree "github.com/bmharper/quadtree-go"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "quadtree"
	treeLabel = "tree"
)

// Source provides a statistics snapshot. *quadtree.QuadTree satisfies it for
// every instantiation. A QuadTree is not safe for concurrent use, so a source
// read from the scrape goroutine must synchronize with the tree owner.
type Source interface {
	Stats() quadtree.Stats
}

type stat struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	value     func(s *quadtree.Stats) float64
}

// Collector turns Stats into const metrics on every scrape. The tree name is a
// constant label, so collectors for several trees can share a registry.
type Collector struct {
	source Source
	stats  []stat
}

func NewCollector(tree string, source Source) *Collector {
	labels := prometheus.Labels{treeLabel: tree}
	gauge := func(name, help string, value func(s *quadtree.Stats) float64) stat {
		return stat{
			desc:      prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, labels),
			valueType: prometheus.GaugeValue,
			value:     value,
		}
	}
	counter := func(name, help string, value func(s *quadtree.Stats) float64) stat {
		s := gauge(name+"_total", help, value)
		s.valueType = prometheus.CounterValue
		return s
	}

	return &Collector{
		source: source,
		stats: []stat{
			gauge("leaves", "The number of keys stored in the tree.",
				func(s *quadtree.Stats) float64 { return float64(s.Leaves) }),
			gauge("cross_leaves", "The number of keys stored on a branch because they straddle its quadrants.",
				func(s *quadtree.Stats) float64 { return float64(s.CrossLeaves) }),
			gauge("overhang_leaves", "The number of keys whose box reaches past the tree region.",
				func(s *quadtree.Stats) float64 { return float64(s.Overhang) }),
			gauge("branches", "The number of materialized branches.",
				func(s *quadtree.Stats) float64 { return float64(s.Branches) }),
			gauge("split_branches", "The number of branches that route to their children.",
				func(s *quadtree.Stats) float64 { return float64(s.SplitBranches) }),
			gauge("max_depth", "The depth of the deepest branch.",
				func(s *quadtree.Stats) float64 { return float64(s.MaxDepth) }),
			gauge("pooled_branches", "The number of recycled branches waiting for reuse.",
				func(s *quadtree.Stats) float64 { return float64(s.PooledBranches) }),
			gauge("pooled_leaves", "The number of recycled leaves waiting for reuse.",
				func(s *quadtree.Stats) float64 { return float64(s.PooledLeaves) }),
			counter("inserts", "The number of new keys inserted.",
				func(s *quadtree.Stats) float64 { return float64(s.Inserts) }),
			counter("updates", "The number of existing keys moved to a new box.",
				func(s *quadtree.Stats) float64 { return float64(s.Updates) }),
			counter("rejected", "The number of inserts refused because the box is outside the tree region.",
				func(s *quadtree.Stats) float64 { return float64(s.Rejected) }),
			counter("removed", "The number of keys removed.",
				func(s *quadtree.Stats) float64 { return float64(s.Removed) }),
			counter("splits", "The number of branch splits.",
				func(s *quadtree.Stats) float64 { return float64(s.Splits) }),
			counter("selects", "The number of queries that reached the tree.",
				func(s *quadtree.Stats) float64 { return float64(s.Selects) }),
			counter("culled", "The number of queries or regions dropped by the distance pre-filter.",
				func(s *quadtree.Stats) float64 { return float64(s.Culled) }),
		},
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, s := range c.stats {
		ch <- s.desc
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snapshot := c.source.Stats()
	for _, s := range c.stats {
		ch <- prometheus.MustNewConstMetric(s.desc, s.valueType, s.value(&snapshot))
	}
}
