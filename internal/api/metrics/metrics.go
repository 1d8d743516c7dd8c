// Package metrics defines the Prometheus metrics of the account service. It is
// the single source of truth for metric names, labels and help strings.
//
// Build one Recorder at startup with NewRecorder and pass it to the service
// (as ports.AccountMetrics), the activation runner and the HTTP router.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/usersmanager/account-service/internal/core/ports"
)

const namespace = "accounts"

// Recorder owns every custom metric of the service.
type Recorder struct {
	// accountsCreatedTotal counts accounts that reached active status.
	// Label:
	//   - role: "user" or "admin"
	accountsCreatedTotal *prometheus.CounterVec

	// createRejectedTotal counts creations refused by a uniqueness rule.
	// Label:
	//   - reason: "duplicate_login" or "admin_already_exists"
	createRejectedTotal *prometheus.CounterVec

	accountsBlockedTotal prometheus.Counter

	// authenticationsTotal counts Authenticate calls.
	// Label:
	//   - result: "success" or "failure"
	authenticationsTotal *prometheus.CounterVec

	// activationDuration measures the time from scheduling to active status.
	// Label:
	//   - result: "ok" or "error"
	activationDuration *prometheus.HistogramVec

	pendingActivations prometheus.Gauge

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var _ ports.AccountMetrics = (*Recorder)(nil)

// NewRecorder registers all metrics with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)

	return &Recorder{
		accountsCreatedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "created_total",
				Help:      "Total number of accounts created and activated, by role.",
			},
			[]string{"role"},
		),
		createRejectedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "create_rejected_total",
				Help:      "Total number of account creations rejected, by reason.",
			},
			[]string{"reason"},
		),
		accountsBlockedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blocked_total",
				Help:      "Total number of accounts blocked.",
			},
		),
		authenticationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authentications_total",
				Help:      "Total number of authentication attempts, by result.",
			},
			[]string{"result"},
		),
		activationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "activation_duration_seconds",
				Help:      "Time between scheduling an activation and its completion.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		pendingActivations: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pending_activations",
				Help:      "Current number of accounts waiting for activation.",
			},
		),
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests, by method, route and status code.",
			},
			[]string{"method", "route", "code"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests, by method and route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func (r *Recorder) AccountCreated(role string) {
	r.accountsCreatedTotal.WithLabelValues(role).Inc()
}

func (r *Recorder) CreateRejected(reason string) {
	r.createRejectedTotal.WithLabelValues(reason).Inc()
}

func (r *Recorder) AccountBlocked() {
	r.accountsBlockedTotal.Inc()
}

func (r *Recorder) AuthenticationResult(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	r.authenticationsTotal.WithLabelValues(result).Inc()
}

func (r *Recorder) ActivationCompleted(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.activationDuration.WithLabelValues(result).Observe(d.Seconds())
}

// PendingActivations is the gauge the activation runner keeps up to date.
func (r *Recorder) PendingActivations() prometheus.Gauge {
	return r.pendingActivations
}

// Middleware records request count and latency per route template.
// Errors are rendered here so the recorded status matches the response.
func (r *Recorder) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			code := c.Response().Status
			if code == 0 {
				code = http.StatusOK
			}

			r.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
			r.httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
