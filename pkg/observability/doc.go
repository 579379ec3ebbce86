/*
Package observability turns funnel lifecycle hooks into logs and Prometheus
metrics.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(metrics.Hooks(), observability.LogHooks(logger))
	eng := funnel.New(backend, funnel.WithLifecycleHooks(hooks))
*/
package observability
