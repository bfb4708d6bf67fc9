package middleware

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private prometheus registry with per-route request counters
// and latency histograms.  A private registry keeps parallel tests and
// multiple servers in one process from colliding on registration.
type Metrics struct {
    registry *prometheus.Registry
    requests *prometheus.CounterVec
    duration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
    m := &Metrics{
        registry: prometheus.NewRegistry(),
        requests: prometheus.NewCounterVec(
            prometheus.CounterOpts{
                Name: "http_requests_total",
                Help: "Total number of HTTP requests",
            },
            []string{"route", "method", "code"},
        ),
        duration: prometheus.NewHistogramVec(
            prometheus.HistogramOpts{
                Name:    "http_request_duration_seconds",
                Help:    "Histogram of response latency (seconds) for HTTP requests",
                Buckets: prometheus.DefBuckets,
            },
            []string{"route", "method"},
        ),
    }
    m.registry.MustRegister(
        m.requests,
        m.duration,
        collectors.NewGoCollector(),
        collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
    )
    return m
}

// Middleware records every request.  A handler error is resolved through the
// error handler here so the recorded code matches the response.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil && !c.Response().Committed {
                c.Error(err)
            }

            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            method := c.Request().Method
            code := strconv.Itoa(c.Response().Status)

            m.requests.WithLabelValues(route, method, code).Inc()
            m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
            return err
        }
    }
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
    return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
