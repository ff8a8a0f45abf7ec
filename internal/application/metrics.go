package application

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "commitwatch"

// Metrics holds the Prometheus counters for the detection and dispatch path.
// A nil *Metrics is valid and records nothing, so tests and callers that do
// not scrape can pass nil.
type Metrics struct {
	cyclesTotal       prometheus.Counter
	reposChecked      prometheus.Counter
	checkErrors       prometheus.Counter
	commitsDetected   prometheus.Counter
	notificationsSent prometheus.Counter
	deliveryErrors    prometheus.Counter
}

// NewMetrics creates and registers the counters on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "poll",
			Name:      "cycles_total",
			Help:      "Total number of completed detection cycles.",
		}),
		reposChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "poll",
			Name:      "repos_checked_total",
			Help:      "Total number of per-repository checks performed.",
		}),
		checkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "poll",
			Name:      "check_errors_total",
			Help:      "Total number of per-repository checks that failed.",
		}),
		commitsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "poll",
			Name:      "commits_detected_total",
			Help:      "Total number of new commits detected.",
		}),
		notificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "notify",
			Name:      "sent_total",
			Help:      "Total number of notifications delivered.",
		}),
		deliveryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "notify",
			Name:      "delivery_errors_total",
			Help:      "Total number of failed delivery attempts.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.cyclesTotal,
			m.reposChecked,
			m.checkErrors,
			m.commitsDetected,
			m.notificationsSent,
			m.deliveryErrors,
		)
	}

	return m
}

func (m *Metrics) cycleCompleted() {
	if m == nil {
		return
	}
	m.cyclesTotal.Inc()
}

func (m *Metrics) repoChecked() {
	if m == nil {
		return
	}
	m.reposChecked.Inc()
}

func (m *Metrics) checkFailed() {
	if m == nil {
		return
	}
	m.checkErrors.Inc()
}

func (m *Metrics) commitDetected() {
	if m == nil {
		return
	}
	m.commitsDetected.Inc()
}

func (m *Metrics) notificationSent() {
	if m == nil {
		return
	}
	m.notificationsSent.Inc()
}

func (m *Metrics) deliveryFailed() {
	if m == nil {
		return
	}
	m.deliveryErrors.Inc()
}
