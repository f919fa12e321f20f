package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedPushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cafedash_feed_pushes_total",
		Help: "Total number of order snapshots applied by live feeds.",
	})

	OrderAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cafedash_order_alerts_total",
		Help: "Total number of new-order audio cues triggered.",
	})

	AlertFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cafedash_alert_failures_total",
		Help: "Total number of audio cues that could not be delivered.",
	})

	StatusUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafedash_status_updates_total",
		Help: "Total number of order status updates handled by the relay.",
	},
		[]string{"result"},
	)

	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafedash_notification_failures_total",
		Help: "Total number of downstream status notifications that failed.",
	},
		[]string{"notifier"},
	)

	FeedErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cafedash_feed_errors_total",
		Help: "Total number of live feed subscriptions that ended in error.",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cafedash_active_sessions",
		Help: "Current number of live dashboard sessions.",
	})
)
