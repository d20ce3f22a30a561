package metrics

import (
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "easybuy",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		},
		[]string{"method", "route", "status"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "easybuy",
			Name:      "lifecycle_transitions_total",
			Help:      "Booking and payment lifecycle transitions by kind and outcome.",
		},
		[]string{"transition", "outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, transitions)
	})
}

func IncHTTP(method, route string, status int) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Transition counts a lifecycle step; outcome is "ok" or the error class.
func Transition(name, outcome string) {
	transitions.WithLabelValues(name, outcome).Inc()
}

// Middleware counts every request by its matched route pattern. Chain
// errors are rendered through the app's ErrorHandler first so the recorded
// status is the one the client sees.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		IncHTTP(c.Method(), c.Route().Path, c.Response().StatusCode())
		return nil
	}
}
