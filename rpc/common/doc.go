// Package common holds the pieces shared between the RPC server and client:
// the wire message structure with its factory functions, the server and
// client configuration structs and the logging setup.
package common
