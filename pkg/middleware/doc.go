// Package middleware provides HTTP middleware for saascannon servers.
//
// # OpenTelemetry Middleware
//
// OpenTelemetry traces every request, continuing the caller's trace when
// the request carries one. The span lives in the request context, so
// outgoing calls made while serving the request inherit it.
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/metrics"
//	    }),
//	)
//
// # Prometheus Metrics
//
// Prometheus counts requests by chi route pattern, method and status,
// and times them:
//
//	reg := prometheus.NewRegistry()
//	server.NewHandler(app, server.HandlerConfig{
//	    Gatherer: reg,
//	    Middlewares: []func(http.Handler) http.Handler{
//	        middleware.Prometheus(middleware.WithRegistry(reg)),
//	    },
//	})
//
// Both are plain func(http.Handler) http.Handler values and work with any
// chi router; the route label and span name need chi routing.
package middleware
