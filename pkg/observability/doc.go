/*
Package observability provides tools for monitoring outline operations.

Metrics exposes Prometheus counters, a duration histogram and an in-flight gauge
fed by domain.LifecycleHooks. Combine fans one set of hooks out to several
observers, for example metrics plus structured logging.
*/
package observability
