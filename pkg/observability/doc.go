/*
Package observability exports tagger activity as Prometheus metrics.

Metrics implements the tagger Observer hooks and can be registered on any
prometheus.Registerer. The HTTP service exposes them on /metrics.
*/
package observability
