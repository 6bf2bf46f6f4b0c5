// Package middleware provides navigation observers for production routers.
//
// This package includes:
//   - OpenTelemetry tracing of every transition
//   - Prometheus metrics about navigations and their outcomes
//
// Both are router.Observer values and plug in with router.WithObserver.
//
// # OpenTelemetry
//
// The tracing observer starts one span per transition and ends it when the
// navigation commits or fails. Guards receive the span through their
// context, so work they do (permission lookups, data loading) is traced as
// part of the navigation:
//
//	r, _ := router.New(
//	    router.WithRoutes(routes...),
//	    router.WithObserver(middleware.OpenTelemetry(
//	        middleware.WithTracerName("my-app"),
//	    )),
//	)
//
// Navigation failures (redirected, aborted, cancelled, duplicated) are
// expected outcomes; they are recorded as span events, not errors.
//
// # Prometheus Metrics
//
// The metrics observer collects:
//   - vnav_router_navigations_total: navigations by outcome
//   - vnav_router_navigation_duration_seconds: time from start to settle
//   - vnav_router_navigation_errors_total: errors by category
//   - vnav_router_pending_navigations: navigations in flight
//
//	m := middleware.Prometheus(middleware.WithRegistry(reg))
//	r, _ := router.New(router.WithObserver(m))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package middleware
