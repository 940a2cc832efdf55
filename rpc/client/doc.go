// Package client implements the Go client for the RPC server. It mirrors
// the server's operations one-to-one and reconstructs server-side error
// codes so callers can react to forbidden, not-found and unavailable
// conditions programmatically.
package client
