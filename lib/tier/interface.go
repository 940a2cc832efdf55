package tier

import (
	"fmt"
	"sync/atomic"
	"time"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Name identifies one of the two backing representations for entries.
type Name string

const (
	Memory  Name = "memory"
	Durable Name = "durable"
)

// Direction is the requested ordering for sorted listings and rank queries.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Valid returns whether the direction is one of the two supported values.
func (d Direction) Valid() bool {
	return d == Ascending || d == Descending
}

// ITier is the capability interface shared by the in-memory and the durable
// tier. Both implementations must produce identical externally-observable
// behavior for every operation: same page shape, same ordering and tie-break
// rules, same error conditions. The caller selects the tier per call via the
// persistence flag; entries are never merged or migrated between tiers.
type ITier interface {
	// Write inserts or overwrites the entry for (namespace, key).
	// ttlSeconds <= 0 means the entry never expires.
	Write(namespace, key string, payload map[string]any, ttlSeconds int64) (Entry, error)
	// Read returns the live entry for (namespace, key).
	// The boolean return value indicates whether the entry was found;
	// expired entries are never returned.
	Read(namespace, key string) (Entry, bool, error)
	// Delete removes the entry for (namespace, key) and reports whether
	// it was present.
	Delete(namespace, key string) (bool, error)
	// ListByRecency returns entries ordered by write cursor descending.
	// A cursor > 0 restricts the listing to entries written strictly
	// before it; cursor 0 starts from the newest entry.
	ListByRecency(namespace string, cursor int64, pageSize int) (Page, error)
	// ListBySorted returns entries ordered by a named payload field,
	// see SortQuery for filter and default-value semantics.
	ListBySorted(namespace string, query SortQuery) (Page, error)
	// Rank returns the 1-based position of the entry when the namespace is
	// ordered by the named field in the given direction. A missing entry
	// yields RetCNotFound; a missing field without a default value yields
	// RetCFieldMissing.
	Rank(namespace, key string, query RankQuery) (int64, error)
	// Name returns the tier identifier reported in pages.
	Name() Name
}

// --------------------------------------------------------------------------
// Data Types
// --------------------------------------------------------------------------

// Entry is a single stored value. An Entry is unique per (namespace, key)
// within a tier; the two tiers are independent views of the same key.
type Entry struct {
	Key         string
	Payload     map[string]any
	WriteCursor int64 // wall-clock ms at write time, doubles as recency cursor
	ExpireAt    int64 // ms epoch, 0 = never expires
}

// Expired returns whether the entry is past its expiry at the given instant.
func (e Entry) Expired(nowMillis int64) bool {
	return e.ExpireAt != 0 && nowMillis >= e.ExpireAt
}

// Item is the externally visible projection of an Entry inside a Page.
type Item struct {
	Key  string         `json:"key"`
	Data map[string]any `json:"data"`
}

// Page is the uniform pagination result produced by both tiers.
type Page struct {
	Items      []Item `json:"items"`
	PageSize   int    `json:"page_size"`
	TotalItems int64  `json:"total_items"`
	NextCursor any    `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
	Tier       Name   `json:"tier"`
}

// SortQuery parameterizes a field-sorted listing.
//
// The effective sort value of an entry is its payload field value, or Default
// if the field is missing and a Default was supplied. Entries missing the
// field are excluded entirely when Default is nil.
//
// Cursor carries the effective sort value of the last item of the previous
// page; the listing is filtered to values strictly past it in the requested
// direction. Because the cursor carries no secondary tie-break key, a page
// boundary that falls inside a run of equal values skips the rest of that
// run; HasMore counts only entries strictly past the boundary for the same
// reason, so it never announces a page the cursor could not reach.
type SortQuery struct {
	Field     string
	Direction Direction
	Cursor    any // nil = start from the top
	Default   any // nil = exclude entries missing the field
	PageSize  int
}

// RankQuery parameterizes a rank computation. Default follows the same
// substitution rule as SortQuery.Default.
type RankQuery struct {
	Field     string
	Direction Direction
	Default   any
}

// --------------------------------------------------------------------------
// Write Cursor
// --------------------------------------------------------------------------

var lastCursor atomic.Int64

// NextWriteCursor returns the current wall-clock time in ms, bumped to stay
// strictly monotonic within the process so consecutive writes never share a
// recency cursor.
//
/// Thread-safety: This function is thread-safe; it uses a CAS loop to ensure
// the cursor only increases.
func NextWriteCursor() int64 {
	for {
		now := time.Now().UnixMilli()
		last := lastCursor.Load()
		if now <= last {
			now = last + 1
		}
		if lastCursor.CompareAndSwap(last, now) {
			return now
		}
	}
}

// ExpireAt converts a ttl in seconds to an absolute ms-epoch deadline
// relative to the write cursor. ttlSeconds <= 0 means never (returns 0).
func ExpireAt(writeCursor, ttlSeconds int64) int64 {
	if ttlSeconds <= 0 {
		return 0
	}
	return writeCursor + ttlSeconds*1000
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("TierError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// NewErrorf creates a new Error with the given code and a formatted message.
func NewErrorf(code RetCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// CodeOf extracts the RetCode from an error. Errors that are not *Error are
// reported as internal so no detail-bearing class is ever guessed.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	if te, ok := err.(*Error); ok {
		return te.Code
	}
	return RetCInternalError
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess          RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                   // 1: Operation failed due to an internal error.
	RetCUnauthenticated                 // 2: Missing, unknown or inactive API token.
	RetCForbidden                       // 3: Token valid but namespace not allowed.
	RetCNotFound                        // 4: The addressed entry does not exist.
	RetCFieldMissing                    // 5: Entry exists but lacks the requested field (caller usage error).
	RetCUnavailable                     // 6: Durable tier requested but not configured/reachable.
	RetCInvalidOperation                // 7: Malformed or unsupported operation.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnauthenticated:
		return "Unauthenticated"
	case RetCForbidden:
		return "Forbidden"
	case RetCNotFound:
		return "NotFound"
	case RetCFieldMissing:
		return "FieldMissing"
	case RetCUnavailable:
		return "Unavailable"
	case RetCInvalidOperation:
		return "InvalidOperation"
	default:
		return "Unknown"
	}
}
