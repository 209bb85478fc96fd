package metrics

import (
	"net/http"
	"time"

	"github.com/l1jgo/spectators/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spectators"

// Metrics holds the process collectors on a private registry.
// Collectors are safe for concurrent use; the game loop writes, the HTTP
// handler reads.
type Metrics struct {
	reg *prometheus.Registry

	cacheOps     *prometheus.CounterVec
	cacheEntries prometheus.Gauge
	creatures    *prometheus.GaugeVec
	leaves       prometheus.Gauge
	visibility   *prometheus.CounterVec
	tickDuration prometheus.Histogram

	prev world.CacheStats
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Spectator cache lookups and maintenance by outcome.",
		}, []string{"op"}),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Cached query signatures at the last sample.",
		}),
		creatures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "creatures",
			Help:      "Creatures in-world by category.",
		}, []string{"kind"}),
		leaves: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "grid",
			Name:      "leaves",
			Help:      "Allocated grid leaves.",
		}),
		visibility: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visibility_changes_total",
			Help:      "Known-set changes emitted by the visibility scan.",
		}, []string{"change"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one game loop tick.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
	}
	m.reg.MustRegister(
		m.cacheOps, m.cacheEntries, m.creatures, m.leaves, m.visibility, m.tickDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// ObserveCache adds the counter deltas since the previous sample.
func (m *Metrics) ObserveCache(stats world.CacheStats, entries int) {
	add := func(op string, cur, prev uint64) {
		if cur > prev {
			m.cacheOps.WithLabelValues(op).Add(float64(cur - prev))
		}
	}
	add("hit", stats.Hits, m.prev.Hits)
	add("miss", stats.Misses, m.prev.Misses)
	add("widen", stats.Widened, m.prev.Widened)
	add("filter", stats.Filtered, m.prev.Filtered)
	add("dedup", stats.Dedups, m.prev.Dedups)
	add("clear", stats.Clears, m.prev.Clears)
	m.prev = stats
	m.cacheEntries.Set(float64(entries))
}

// SetCreatures records the per-category population.
func (m *Metrics) SetCreatures(counts map[world.Category]int) {
	for _, kind := range []world.Category{world.CategoryMonster, world.CategoryNpc, world.CategorySummon, world.CategoryPlayer} {
		m.creatures.WithLabelValues(kind.String()).Set(float64(counts[kind]))
	}
}

func (m *Metrics) SetLeaves(n int) { m.leaves.Set(float64(n)) }

func (m *Metrics) CreatureAppeared() { m.visibility.WithLabelValues("appeared").Inc() }
func (m *Metrics) CreatureVanished() { m.visibility.WithLabelValues("vanished").Inc() }

func (m *Metrics) ObserveTick(d time.Duration) { m.tickDuration.Observe(d.Seconds()) }
