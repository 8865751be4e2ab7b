package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jonesrussell/social-swarm/internal/models"
)

// promMetrics mirrors the Redis counters into the Prometheus registry so
// the /metrics endpoint exposes the same numbers the analytics API serves.
type promMetrics struct {
	publishTotal   *prometheus.CounterVec
	campaignsTotal *prometheus.CounterVec
}

var (
	promOnce     sync.Once
	promInstance *promMetrics
)

// newPromMetrics registers the collectors once; trackers created later
// share the same instance.
func newPromMetrics() *promMetrics {
	promOnce.Do(func() {
		promInstance = &promMetrics{
			publishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "socialswarm_publish_total",
				Help: "Publish attempts by platform and outcome.",
			}, []string{"platform", "status"}),
			campaignsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "socialswarm_campaigns_total",
				Help: "Completed campaigns by final status.",
			}, []string{"status"}),
		}
	})
	return promInstance
}

func (p *promMetrics) observePublish(platform string, success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	p.publishTotal.WithLabelValues(platform, status).Inc()
}

func (p *promMetrics) observeCampaign(result *models.CampaignResult) {
	p.campaignsTotal.WithLabelValues(string(result.Status)).Inc()
}
