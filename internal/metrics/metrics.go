package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	availabilityRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "velora",
			Name:      "availability_requests_total",
			Help:      "Count of availability lookups by generation mode.",
		},
		[]string{"mode"},
	)

	slotsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "velora",
			Name:      "slots_generated_total",
			Help:      "Count of bookable slots returned to callers.",
		},
	)

	waitlistFill = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "velora",
			Name:      "waitlist_fill_total",
			Help:      "Count of waitlist auto-fill runs by outcome reason.",
		},
		[]string{"reason"},
	)

	waitlistSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "velora",
			Name:      "waitlist_candidates_skipped_total",
			Help:      "Count of waitlist candidates skipped during fill runs.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(availabilityRequests, slotsGenerated, waitlistFill, waitlistSkipped)
	})
}

func IncAvailabilityRequest(mode string) {
	availabilityRequests.WithLabelValues(mode).Inc()
}

func AddSlotsGenerated(n int) {
	slotsGenerated.Add(float64(n))
}

func IncWaitlistFill(reason string) {
	waitlistFill.WithLabelValues(reason).Inc()
}

func AddWaitlistSkipped(n int) {
	waitlistSkipped.Add(float64(n))
}
