package durable

import (
	"encoding/json"

	"github.com/ValentinKolb/nkv/lib/tier"
)

// --------------------------------------------------------------------------
// Persisted Layout
// --------------------------------------------------------------------------

// Document is the persisted form of an entry: one row per (namespace, key)
// with a uniqueness constraint on the pair and an index on expire_at for the
// background reaper. The payload is stored as JSON text so sorted queries
// can compute effective sort values with json_extract.
type Document struct {
	ID          uint   `gorm:"primaryKey"`
	Namespace   string `gorm:"size:255;not null;uniqueIndex:idx_documents_ns_key,priority:1"`
	Key         string `gorm:"size:255;not null;uniqueIndex:idx_documents_ns_key,priority:2"`
	Payload     string `gorm:"type:text"`
	WriteCursor int64  `gorm:"index"`
	ExpireAt    int64  `gorm:"index"` // ms epoch, 0 = never expires
}

// TableName implements the gorm table name convention.
func (Document) TableName() string {
	return "documents"
}

// entry converts a document back into its tier representation.
func (d Document) entry() (tier.Entry, error) {
	payload, err := decodePayload(d.Payload)
	if err != nil {
		return tier.Entry{}, err
	}
	return tier.Entry{
		Key:         d.Key,
		Payload:     payload,
		WriteCursor: d.WriteCursor,
		ExpireAt:    d.ExpireAt,
	}, nil
}

// --------------------------------------------------------------------------
// Payload Codec
// --------------------------------------------------------------------------

func encodePayload(payload map[string]any) (string, error) {
	if payload == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", tier.NewErrorf(tier.RetCInternalError, "failed to encode payload: %v", err)
	}
	return string(raw), nil
}

func decodePayload(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, tier.NewErrorf(tier.RetCInternalError, "failed to decode payload: %v", err)
	}
	return payload, nil
}
