// Package server implements the RPC server: it owns the engine lifecycle,
// decodes incoming messages, resolves the request token to its permission
// set and dispatches the operation through the adapter. Transport and
// serialization are pluggable via their interfaces.
package server
