package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "microlearn",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "microlearn",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latencies by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	assignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "microlearn",
		Name:      "assignments_total",
		Help:      "Course assignment submissions by outcome.",
	}, []string{"outcome"})
)

const (
	outcomeAssigned = "assigned"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		err := next(ctx)

		code := strconv.Itoa(ctx.Response().Status)
		if err != nil { // the error handler has not run yet
			code = "error"
			if he, ok := err.(*echo.HTTPError); ok {
				code = strconv.Itoa(he.Code)
			}
		}
		route := ctx.Path()
		httpRequests.WithLabelValues(ctx.Request().Method, route, code).Inc()
		httpDuration.WithLabelValues(ctx.Request().Method, route).Observe(time.Since(start).Seconds())
		return err
	}
}
