// Package durable implements the persistent tier on top of a SQL document
// table (SQLite via gorm). Entries are stored as one JSON text row per
// (namespace, key); sorted listings and rank queries are pushed down to the
// database with json_extract, and expiry is enforced by filtering every
// query while a background reaper reclaims the expired rows. The package
// also houses the write-behind batcher used for buffered durable writes.
package durable
