package monitoring

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	reservationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_outcomes_total",
			Help: "Reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	bookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Booking state machine transitions",
		},
		[]string{"from", "to"},
	)

	proofResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proof_resolutions_total",
			Help: "Payment proof resolutions by decision",
		},
		[]string{"decision"},
	)

	gateCheckins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_checkins_total",
			Help: "Gate check-in attempts by outcome",
		},
		[]string{"outcome"},
	)

	issuanceRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "code_issuance_retries_total",
			Help: "Entry code generation retries caused by collisions",
		},
	)

	livePins = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "live_pins_total",
			Help: "Live PINs (non-terminal bookings) per resource",
		},
		[]string{"resource_id"},
	)

	reservationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reservation_check_duration_seconds",
			Help:    "Duration of the serialized check-and-reserve section",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)

func TrackReservation(outcome string) {
	reservationOutcomes.WithLabelValues(outcome).Inc()
}

func TrackTransition(from, to string) {
	bookingTransitions.WithLabelValues(from, to).Inc()
}

func TrackProofResolution(decision string) {
	proofResolutions.WithLabelValues(decision).Inc()
}

func TrackGateCheckin(outcome string) {
	gateCheckins.WithLabelValues(outcome).Inc()
}

func TrackIssuanceRetry() {
	issuanceRetries.Inc()
}

func TrackReservationDuration(d time.Duration) {
	reservationDuration.Observe(d.Seconds())
}

type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}

	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()
		m.collectPinMetrics(ctx)
	}
}

func (m *Monitor) collectPinMetrics(ctx context.Context) {
	keys, _ := m.redis.Keys(ctx, "pins:*").Result()
	for _, key := range keys {
		resourceID := strings.TrimPrefix(key, "pins:")
		count, _ := m.redis.SCard(ctx, key).Result()
		livePins.WithLabelValues(resourceID).Set(float64(count))
	}
}
