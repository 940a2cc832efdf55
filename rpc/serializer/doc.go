// Package serializer converts wire messages to and from bytes. Two codecs
// are provided: json (human readable, interoperable) and gob (compact,
// Go-to-Go). The server and client must agree on the codec; it is selected
// via configuration.
package serializer
