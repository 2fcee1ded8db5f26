// Package metrics holds the Prometheus collectors of the bot.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "complaintbot"

var (
	once      sync.Once
	gaugeOnce sync.Once

	// EventsTotal counts handled inbound events by kind and outcome.
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Inbound events handled, labeled by event kind and outcome.",
	}, []string{"kind", "outcome"})

	// Submissions counts records handed to moderation.
	Submissions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "intake",
		Name:      "submissions_total",
		Help:      "Complaints confirmed by reporters.",
	})

	// Drafts counts draft operations by action (saved, resumed, deleted).
	Drafts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "intake",
		Name:      "drafts_total",
		Help:      "Draft operations, labeled by action.",
	}, []string{"action"})

	// Toxicity is the pre-sanitization toxicity of accepted descriptions.
	Toxicity = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "intake",
		Name:      "description_toxicity",
		Help:      "Toxicity score of descriptions before sanitization.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})

	// Decisions counts moderation decisions.
	Decisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "moderation",
		Name:      "decisions_total",
		Help:      "Moderation decisions, labeled by decision.",
	}, []string{"decision"})

	// SinkFailures counts failed deliveries to external collaborators.
	SinkFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_failures_total",
		Help:      "Failed deliveries, labeled by sink.",
	}, []string{"sink"})
)

// Register registers the collectors with the default registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			EventsTotal,
			Submissions,
			Drafts,
			Toxicity,
			Decisions,
			SinkFailures,
		)
	})
}

// Gauges reports the sizes of the in-memory stores.
type Gauges struct {
	Sessions   func() int
	Drafts     func() int
	Pending    func() int
	AdminTasks func() int
}

// RegisterGauges registers gauge functions over the stores. Only the first
// call has effect.
func RegisterGauges(g Gauges) {
	gaugeOnce.Do(func() {
		prometheus.MustRegister(
			gaugeFunc("open_sessions", "Active intake sessions.", g.Sessions),
			gaugeFunc("drafts", "Parked drafts.", g.Drafts),
			gaugeFunc("pending_records", "Records waiting for moderation.", g.Pending),
			gaugeFunc("admin_contexts", "Open editing and rejection contexts.", g.AdminTasks),
		)
	})
}

func gaugeFunc(name, help string, f func() int) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, func() float64 {
		if f == nil {
			return 0
		}
		return float64(f())
	})
}
