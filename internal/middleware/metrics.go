package middleware

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "portal_http_requests_total",
        Help: "HTTP requests by method, route and status.",
    }, []string{"method", "route", "status"})

    httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
        Name:    "portal_http_request_duration_seconds",
        Help:    "HTTP request latency by method and route.",
        Buckets: prometheus.DefBuckets,
    }, []string{"method", "route"})

    rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "portal_rate_limited_total",
        Help: "Requests rejected by the token bucket, by route.",
    }, []string{"route"})
)

// Metrics records request count and latency per route template.
func Metrics() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err) // resolve the final status before recording
            }
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            method := c.Request().Method
            httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
            httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
            return nil
        }
    }
}
