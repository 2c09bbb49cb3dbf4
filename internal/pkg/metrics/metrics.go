// Package metrics holds the prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tierfox"

var (
	ReconcileOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "membership_reconcile_total",
		Help:      "Membership reconciliations by outcome.",
	}, []string{"outcome"})

	ChainCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chain_cache_lookups_total",
		Help:      "Chain read cache lookups by kind and result.",
	}, []string{"kind", "result"})

	ChainCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "chain_call_duration_seconds",
		Help:      "Latency of chain RPC reads.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	TransactionStates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transactions_observed_total",
		Help:      "Terminal transaction states observed by the tracker.",
	}, []string{"kind", "state"})

	LikesFlushed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "likes_flushed_total",
		Help:      "Likes written from redis to the posts table.",
	})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObserveChainCall records the duration of a chain read started at start.
func ObserveChainCall(method string, start time.Time) {
	ChainCallDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// HTTPMiddleware measures every request by its matched route pattern.
func HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		httpRequestDuration.
			WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
