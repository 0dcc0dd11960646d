package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestPoolCollector_Describe(t *testing.T) {
	ch := make(chan *prometheus.Desc, 2)
	(&PoolCollector{}).Describe(ch)
	close(ch)

	var descs []*prometheus.Desc
	for d := range ch {
		descs = append(descs, d)
	}
	if assert.Len(t, descs, 1) {
		assert.Contains(t, descs[0].String(), `"adboard_db_pool_connections"`)
	}
}
