package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

var poolConnectionsDesc = prometheus.NewDesc(
	prometheus.BuildFQName(namespace, "db", "pool_connections"),
	"Number of database connections by state",
	[]string{"state"}, nil,
)

// PoolCollector reports pgxpool statistics at scrape time.
type PoolCollector struct {
	pool *pgxpool.Pool
}

// NewPoolCollector creates a collector for pool.
func NewPoolCollector(pool *pgxpool.Pool) *PoolCollector {
	return &PoolCollector{pool: pool}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolConnectionsDesc
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stat()
	for state, n := range map[string]int32{
		"in_use":       s.AcquiredConns(),
		"idle":         s.IdleConns(),
		"constructing": s.ConstructingConns(),
		"total":        s.TotalConns(),
		"max":          s.MaxConns(),
	} {
		ch <- prometheus.MustNewConstMetric(poolConnectionsDesc, prometheus.GaugeValue, float64(n), state)
	}
}

// RegisterPool exposes pool statistics on the default registry and returns
// a func that removes them again.
func RegisterPool(pool *pgxpool.Pool) (unregister func(), err error) {
	c := NewPoolCollector(pool)
	if err := prometheus.Register(c); err != nil {
		return nil, err
	}
	return func() { prometheus.Unregister(c) }, nil
}
