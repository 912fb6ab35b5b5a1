/*
Package monitoring provides Prometheus metrics for the jsrt host.

# Overview

Metrics cover the context layer: context lifecycle, built-in cache
initializations, cross-context registry activity (registrations, cache
hits, explicit unregistrations, collector-driven finalizations and
revocations), scope stack depth and script run durations. The debug server
adds HTTP request metrics through Middleware.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	iso := jsrt.NewIsolate(jsrt.WithMetrics(metrics))

	timer := monitoring.NewTimer(metrics)
	// ... run script ...
	timer.Stop(err)

Every recorder tolerates a nil *Metrics.

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
