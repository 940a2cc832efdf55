// Package transport defines the byte-level transport interfaces between the
// RPC server and its clients. A transport moves opaque request and response
// bytes; framing, serialization and dispatch live in the layers above.
package transport
