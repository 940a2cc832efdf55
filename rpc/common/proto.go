package common

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/nkv/lib/engine"
	"github.com/ValentinKolb/nkv/lib/tier"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Authentication (requests only)
	Token string `json:"token,omitempty"`

	// General fields
	Namespace  string             `json:"namespace,omitempty"`   // Target namespace
	Key        string             `json:"key,omitempty"`         // Used for: Write, Get, Delete, Rank
	Data       map[string]any     `json:"data,omitempty"`        // Used for: Write (request), Get (response)
	TTLSeconds int64              `json:"ttl_seconds,omitempty"` // Used for: Write
	Persist    bool               `json:"persist,omitempty"`     // Selects the durable tier
	Buffered   bool               `json:"buffered,omitempty"`    // Routes durable writes through the batcher
	Batch      []engine.BatchItem `json:"batch,omitempty"`       // Used for: BatchWrite

	// Query fields
	Cursor    any    `json:"cursor,omitempty"`    // Pagination continuation
	PageSize  int    `json:"page_size,omitempty"` // Used for: ListRecency, ListSorted
	Field     string `json:"field,omitempty"`     // Used for: ListSorted, Rank
	Direction string `json:"direction,omitempty"` // "asc" or "desc"
	Default   any    `json:"default,omitempty"`   // Substitute for entries missing the field

	// Response only fields
	Ok          bool       `json:"ok,omitempty"`           // Used for: Get, Delete responses
	Page        *tier.Page `json:"page,omitempty"`         // Used for: ListRecency, ListSorted responses
	Rank        int64      `json:"rank,omitempty"`         // Used for: Rank responses
	WriteCursor int64      `json:"write_cursor,omitempty"` // Used for: Write responses
	Code        uint64     `json:"code,omitempty"`         // Error code, zero on success
	Err         string     `json:"err,omitempty"`          // Empty if no error
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// withError attaches an error's code and text to a response message.
func (m *Message) withError(err error) *Message {
	if err != nil {
		m.Code = uint64(tier.CodeOf(err))
		m.Err = err.Error()
	}
	return m
}

// NewWriteRequest creates a new Write request
func NewWriteRequest(ns, key string, data map[string]any, ttlSeconds int64, persist, buffered bool) *Message {
	return &Message{
		MsgType:    MsgTWrite,
		Namespace:  ns,
		Key:        key,
		Data:       data,
		TTLSeconds: ttlSeconds,
		Persist:    persist,
		Buffered:   buffered,
	}
}

// NewWriteResponse creates a new Write response
func NewWriteResponse(entry tier.Entry, err error) *Message {
	return (&Message{
		MsgType:     MsgTWrite,
		Key:         entry.Key,
		WriteCursor: entry.WriteCursor,
	}).withError(err)
}

// NewGetRequest creates a new Get request
func NewGetRequest(ns, key string, persist bool) *Message {
	return &Message{
		MsgType:   MsgTGet,
		Namespace: ns,
		Key:       key,
		Persist:   persist,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(entry tier.Entry, ok bool, err error) *Message {
	return (&Message{
		MsgType:     MsgTGet,
		Key:         entry.Key,
		Data:        entry.Payload,
		WriteCursor: entry.WriteCursor,
		Ok:          ok,
	}).withError(err)
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(ns, key string, persist bool) *Message {
	return &Message{
		MsgType:   MsgTDelete,
		Namespace: ns,
		Key:       key,
		Persist:   persist,
	}
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(removed bool, err error) *Message {
	return (&Message{
		MsgType: MsgTDelete,
		Ok:      removed,
	}).withError(err)
}

// NewListRecencyRequest creates a new ListRecency request
func NewListRecencyRequest(ns string, cursor int64, pageSize int, persist bool) *Message {
	var c any
	if cursor > 0 {
		c = cursor
	}
	return &Message{
		MsgType:   MsgTListRecency,
		Namespace: ns,
		Cursor:    c,
		PageSize:  pageSize,
		Persist:   persist,
	}
}

// NewListSortedRequest creates a new ListSorted request
func NewListSortedRequest(ns string, q tier.SortQuery, persist bool) *Message {
	return &Message{
		MsgType:   MsgTListSorted,
		Namespace: ns,
		Field:     q.Field,
		Direction: string(q.Direction),
		Cursor:    q.Cursor,
		Default:   q.Default,
		PageSize:  q.PageSize,
		Persist:   persist,
	}
}

// NewListResponse creates a response for either listing operation
func NewListResponse(msgType MessageType, page tier.Page, err error) *Message {
	msg := &Message{MsgType: msgType}
	if err == nil {
		msg.Page = &page
	}
	return msg.withError(err)
}

// NewRankRequest creates a new Rank request
func NewRankRequest(ns, key string, q tier.RankQuery, persist bool) *Message {
	return &Message{
		MsgType:   MsgTRank,
		Namespace: ns,
		Key:       key,
		Field:     q.Field,
		Direction: string(q.Direction),
		Default:   q.Default,
		Persist:   persist,
	}
}

// NewRankResponse creates a new Rank response
func NewRankResponse(rank int64, err error) *Message {
	return (&Message{
		MsgType: MsgTRank,
		Rank:    rank,
	}).withError(err)
}

// NewBatchWriteRequest creates a new BatchWrite request
func NewBatchWriteRequest(items []engine.BatchItem, persist, buffered bool) *Message {
	return &Message{
		MsgType:  MsgTBatchWrite,
		Batch:    items,
		Persist:  persist,
		Buffered: buffered,
	}
}

// NewBatchWriteResponse creates a new BatchWrite response
func NewBatchWriteResponse(err error) *Message {
	return (&Message{
		MsgType: MsgTBatchWrite,
	}).withError(err)
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err error) *Message {
	return (&Message{MsgType: MsgTError}).withError(err)
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTWrite:
		return "write"
	case MsgTGet:
		return "get"
	case MsgTDelete:
		return "delete"
	case MsgTListRecency:
		return "listRecency"
	case MsgTListSorted:
		return "listSorted"
	case MsgTRank:
		return "rank"
	case MsgTBatchWrite:
		return "batchWrite"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "write":
		*t = MsgTWrite
	case "get":
		*t = MsgTGet
	case "delete":
		*t = MsgTDelete
	case "listRecency":
		*t = MsgTListRecency
	case "listSorted":
		*t = MsgTListSorted
	case "rank":
		*t = MsgTRank
	case "batchWrite":
		*t = MsgTBatchWrite
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// Entry operations

	MsgTWrite  // Store an entry
	MsgTGet    // Read an entry by key
	MsgTDelete // Delete an entry

	// Query operations

	MsgTListRecency // Page a namespace from newest to oldest
	MsgTListSorted  // Page a namespace ordered by a payload field
	MsgTRank        // Position of an entry ordered by a payload field

	// Batch operations

	MsgTBatchWrite // Apply multiple writes, possibly across namespaces
)
