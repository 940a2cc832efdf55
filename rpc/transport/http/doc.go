// Package http implements the RPC transport over plain HTTP. Requests are
// POSTed to /rpc as opaque bytes; the server additionally exposes /healthz
// and a Prometheus /metrics endpoint. The client load-balances across its
// configured endpoints round-robin with simple retries.
package http
