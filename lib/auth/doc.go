// Package auth maps bearer tokens to namespace permissions. Tokens live in
// the durable database (or in the static server configuration when running
// without one) and resolve to a PermissionSet that the engine consults on
// every operation. Resolved sets are cached with a short TTL so the token
// table is not hit per request.
package auth
