// Package cmd implements the nkv command line interface: serve runs the
// server, ns talks to a running server over RPC and token administers API
// tokens directly in the database.
package cmd
