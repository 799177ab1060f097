package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "salon"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	slotsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_generated_total",
			Help:      "Candidate slots produced by the availability engine.",
		},
	)

	bookingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_requests_total",
			Help:      "Booking requests by outcome.",
		},
		[]string{"outcome"},
	)

	permissionFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_fallbacks_total",
			Help:      "Permission resolutions that failed closed, by reason.",
		},
		[]string{"reason"},
	)

	sessionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_expired_total",
			Help:      "Admin sessions ended by the inactivity timer.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, slotsGenerated, bookingRequests, permissionFallbacks, sessionsExpired)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func AddSlotsGenerated(n int) {
	slotsGenerated.Add(float64(n))
}

// IncBooking counts a booking request; outcome is created, unavailable, invalid or error.
func IncBooking(outcome string) {
	bookingRequests.WithLabelValues(outcome).Inc()
}

func IncPermissionFallback(reason string) {
	permissionFallbacks.WithLabelValues(reason).Inc()
}

func IncSessionExpired() {
	sessionsExpired.Inc()
}
