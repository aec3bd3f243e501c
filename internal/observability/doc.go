// Package observability provides structured logging and metrics
// for the carrier gateway.
//
// This package implements:
//   - Structured logging with contextual fields (zap-based)
//   - Prometheus metrics for carrier calls, fan-out outcomes and webhooks
//
// Carrier calls, fan-out slots and webhook events are instrumented.
package observability
