package interceptor

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pnwamk/cryptol/pkg/protocol"
)

var (
	evalCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eval_calls_total",
			Help: "Total number of remote evaluation calls",
		},
		[]string{"method", "status"},
	)
	evalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eval_call_duration_seconds",
			Help:    "Duration of remote evaluation calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(evalCallsTotal)
	prometheus.MustRegister(evalDuration)
}

func Metrics() Interceptor {
	return func(ctx context.Context, req *protocol.Request, invoker Invoker) (*protocol.Response, error) {
		start := time.Now()

		resp, err := invoker(ctx, req)

		duration := time.Since(start).Seconds()

		status := "success"
		if err != nil {
			status = "transport_error"
		} else if resp.IsError() {
			status = "eval_error"
		}

		evalCallsTotal.WithLabelValues(req.Method, status).Inc()
		evalDuration.WithLabelValues(req.Method).Observe(duration)

		return resp, err
	}
}
