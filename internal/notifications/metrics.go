package notifications

import (
	"time"

	"github.com/bissquit/adboard/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type deliveryStatus string

const (
	statusSuccess deliveryStatus = "success"
	statusRetry   deliveryStatus = "retry"
	statusFailed  deliveryStatus = "failed"
)

// Drop reasons.
const (
	dropQueueFull = "queue_full"
	dropStopped   = "stopped"
)

var (
	deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adboard",
		Subsystem: "notifications",
		Name:      "sent_total",
		Help:      "Delivery attempts by channel and outcome.",
	}, []string{"channel_type", "status"})

	sendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "adboard",
		Subsystem: "notifications",
		Name:      "send_duration_seconds",
		Help:      "Duration of successful sends.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"channel_type"})

	drops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adboard",
		Subsystem: "notifications",
		Name:      "queue_dropped_total",
		Help:      "Notifications rejected by Enqueue.",
	}, []string{"reason"})
)

func observeDelivery(ch domain.ChannelType, status deliveryStatus) {
	deliveries.WithLabelValues(string(ch), string(status)).Inc()
}

func observeSendDuration(ch domain.ChannelType, d time.Duration) {
	sendDuration.WithLabelValues(string(ch)).Observe(d.Seconds())
}

func observeDrop(reason string) {
	drops.WithLabelValues(reason).Inc()
}
