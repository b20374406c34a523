// Package prometheus renders goAuthClient engine metrics in the Prometheus
// text exposition format.
//
// Counters are named goauthclient_*_total. The exchange latency histogram
// is goauthclient_exchange_latency_seconds. Nothing is registered in a
// global registry; callers mount [PrometheusExporter.Handler] themselves.
package prometheus
