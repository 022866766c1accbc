// Package observability exposes what a running task is doing: Prometheus metrics fed from the
// scheduler lifecycle hooks, and a bounded log of recent failure reports.
package observability
