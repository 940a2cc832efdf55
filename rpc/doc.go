// Package rpc contains the network layer of nkv, split into common (wire
// messages and configuration), serializer (codecs), transport (byte
// transports), server and client.
package rpc
