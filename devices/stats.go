package devices

import (
	"errors"

	"github.com/decred/slog"
	"github.com/prometheus/client_golang/prometheus"
)

// stats holds the manager metrics.
type stats struct {
	refreshes      *prometheus.CounterVec
	platformErrors *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	connected      prometheus.Gauge
}

func newStats() *stats {
	return &stats{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devices_refreshes_total",
			Help: "Number of device cache refreshes by scope",
		}, []string{"scope"}),
		platformErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devices_platform_errors_total",
			Help: "Number of failed platform calls by operation",
		}, []string{"op"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devices_notifications_total",
			Help: "Number of delegate notifications by event",
		}, []string{"event"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "devices_connected",
			Help: "Number of devices in the current cache",
		}),
	}
}

// register adds the metrics to reg. Metrics that are already registered
// (for example by a previous manager) are logged and skipped.
func (s *stats) register(reg prometheus.Registerer, log slog.Logger) {
	for _, c := range []prometheus.Collector{s.refreshes, s.platformErrors,
		s.notifications, s.connected} {

		err := reg.Register(c)
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			log.Debugf("Device metric already registered")
		} else if err != nil {
			log.Warnf("Unable to register device metric: %v", err)
		}
	}
}
