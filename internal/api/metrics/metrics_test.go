package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	m := &dto.Metric{}
	metric, ok := c.(prometheus.Metric)
	if !ok {
		t.Fatalf("collector %T is not a single metric", c)
	}
	if err := metric.Write(m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	switch {
	case m.Counter != nil:
		return m.GetCounter().GetValue()
	case m.Gauge != nil:
		return m.GetGauge().GetValue()
	case m.Histogram != nil:
		return float64(m.GetHistogram().GetSampleCount())
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestRecorder_AccountCounters(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.AccountCreated("user")
	r.AccountCreated("user")
	r.AccountCreated("admin")
	r.CreateRejected("duplicate_login")
	r.AccountBlocked()

	if got := counterValue(t, r.accountsCreatedTotal.WithLabelValues("user")); got != 2 {
		t.Errorf("expected 2 user creations, got %v", got)
	}
	if got := counterValue(t, r.accountsCreatedTotal.WithLabelValues("admin")); got != 1 {
		t.Errorf("expected 1 admin creation, got %v", got)
	}
	if got := counterValue(t, r.createRejectedTotal.WithLabelValues("duplicate_login")); got != 1 {
		t.Errorf("expected 1 rejection, got %v", got)
	}
	if got := counterValue(t, r.accountsBlockedTotal); got != 1 {
		t.Errorf("expected 1 block, got %v", got)
	}
}

func TestRecorder_AuthenticationAndActivation(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.AuthenticationResult(true)
	r.AuthenticationResult(false)
	r.AuthenticationResult(false)
	r.ActivationCompleted(time.Second, nil)
	r.ActivationCompleted(time.Second, errors.New("store down"))

	if got := counterValue(t, r.authenticationsTotal.WithLabelValues("failure")); got != 2 {
		t.Errorf("expected 2 failures, got %v", got)
	}
	if got := counterValue(t, r.activationDuration.WithLabelValues("ok").(prometheus.Collector)); got != 1 {
		t.Errorf("expected 1 successful activation sample, got %v", got)
	}
	if got := counterValue(t, r.activationDuration.WithLabelValues("error").(prometheus.Collector)); got != 1 {
		t.Errorf("expected 1 failed activation sample, got %v", got)
	}
}

func TestRecorder_PendingGauge(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	g := r.PendingActivations()
	g.Inc()
	g.Inc()
	g.Dec()

	if got := counterValue(t, g); got != 1 {
		t.Errorf("expected 1 pending activation, got %v", got)
	}
}

func TestRecorder_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRecorder(reg)

	defer func() {
		if recover() == nil {
			t.Fatal("expected second registration to panic")
		}
	}()
	NewRecorder(reg)
}

func TestRecorder_Middleware(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())
	e := echo.New()
	e.Use(r.Middleware())
	e.GET("/user", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.DELETE("/user", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "account not found")
	})

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(method, "/user?login=alice", nil))
	}

	if got := counterValue(t, r.httpRequestsTotal.WithLabelValues("GET", "/user", "200")); got != 1 {
		t.Errorf("expected 1 GET 200, got %v", got)
	}
	if got := counterValue(t, r.httpRequestsTotal.WithLabelValues("DELETE", "/user", "404")); got != 1 {
		t.Errorf("expected 1 DELETE 404, got %v", got)
	}
}
