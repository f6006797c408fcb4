package monitoring

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"quiz-engine/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	AttemptsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_attempts_started_total",
			Help: "Total number of attempts admitted by the guard",
		},
	)

	AttemptsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_attempts_completed_total",
			Help: "Total number of attempts scored and completed",
		},
	)

	AttemptsDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_attempts_denied_total",
			Help: "Total number of admissions denied, by denial code",
		},
		[]string{"reason"},
	)

	AnswersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_answers_submitted_total",
			Help: "Total number of answers submitted, by correctness",
		},
		[]string{"correct"},
	)

	SweepDeletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_sweep_deletions_total",
			Help: "Total number of rows reclaimed by the sweeper, by kind",
		},
		[]string{"kind"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(AttemptsStarted)
	prometheus.MustRegister(AttemptsCompleted)
	prometheus.MustRegister(AttemptsDenied)
	prometheus.MustRegister(AnswersSubmitted)
	prometheus.MustRegister(SweepDeletions)
}

func RecordAttemptStarted() {
	AttemptsStarted.Inc()
}

func RecordAttemptCompleted() {
	AttemptsCompleted.Inc()
}

func RecordAttemptDenied(reason string) {
	AttemptsDenied.WithLabelValues(reason).Inc()
}

func RecordAnswerSubmitted(correct bool) {
	AnswersSubmitted.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

func RecordSweepDeletions(kind string, count int) {
	if count <= 0 {
		return
	}
	SweepDeletions.WithLabelValues(kind).Add(float64(count))
}

// MetricsMiddleware observes every request. It runs before the error
// handler writes the response, so error statuses are resolved with the
// same mapping the handler uses.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		duration := time.Since(start).Seconds()
		status := c.Response().StatusCode()
		if err != nil {
			status = middleware.HTTPStatusFor(err)
		}

		endpoint := c.Route().Path

		RequestCounter.WithLabelValues(
			c.Method(),
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Method(),
			endpoint,
		).Observe(duration)

		return err
	}
}

// NewMetricsServer builds the standalone HTTP server that exposes
// /metrics. It is served apart from the API so scrapes bypass auth.
func NewMetricsServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
}
