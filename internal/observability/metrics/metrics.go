package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for the lead intake flow.
type LeadMetrics struct {
	submissionsTotal *prometheus.CounterVec
	emailTotal       *prometheus.CounterVec
	emailLatency     *prometheus.HistogramVec
	webhookTotal     *prometheus.CounterVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadintake",
			Subsystem: "form",
			Name:      "submissions_total",
			Help:      "Lead form submissions by outcome",
		}, []string{"outcome"}),
		emailTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadintake",
			Subsystem: "email",
			Name:      "send_total",
			Help:      "Notification email sends by provider and result",
		}, []string{"provider", "status"}),
		emailLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadintake",
			Subsystem: "email",
			Name:      "send_latency_seconds",
			Help:      "Latency of the synchronous provider send",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadintake",
			Subsystem: "webhook",
			Name:      "forward_total",
			Help:      "CRM webhook forwards by result",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.emailTotal, m.emailLatency, m.webhookTotal)
	return m
}

// ObserveSubmission records the final outcome of one request
// (accepted, honeypot, validation, too_large, unsupported_media, config, delivery, internal).
func (m *LeadMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *LeadMetrics) ObserveEmail(provider, status string, seconds float64) {
	if m == nil {
		return
	}
	m.emailTotal.WithLabelValues(provider, status).Inc()
	m.emailLatency.WithLabelValues(provider).Observe(seconds)
}

func (m *LeadMetrics) ObserveWebhook(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.webhookTotal.WithLabelValues(status).Inc()
}
