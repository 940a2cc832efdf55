package durable

import (
	"errors"
	"time"

	"github.com/ValentinKolb/nkv/lib/tier"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tier is the durable implementation of tier.ITier on top of a SQL document
// table. It is exported (rather than hidden behind the interface like the
// memory tier) because the write-behind batcher additionally needs the
// BulkUpsert capability.
type Tier struct {
	db *gorm.DB
}

// NewTier creates the durable tier and migrates its document table.
func NewTier(db *gorm.DB) (*Tier, error) {
	if err := db.AutoMigrate(&Document{}); err != nil {
		return nil, tier.NewErrorf(tier.RetCInternalError, "failed to migrate document table: %v", err)
	}
	return &Tier{db: db}, nil
}

// UpsertOp is a descriptor for one durable write, queued by the write-behind
// batcher or applied directly. It has no identity beyond its queue position.
type UpsertOp struct {
	Namespace  string
	Key        string
	Payload    map[string]any
	TTLSeconds int64
}

// --------------------------------------------------------------------------
// Interface Methods (docu see tier/interface.go)
// --------------------------------------------------------------------------

func (t *Tier) Write(ns, key string, payload map[string]any, ttlSeconds int64) (tier.Entry, error) {
	raw, err := encodePayload(payload)
	if err != nil {
		return tier.Entry{}, err
	}

	cursor := tier.NextWriteCursor()
	doc := Document{
		Namespace:   ns,
		Key:         key,
		Payload:     raw,
		WriteCursor: cursor,
		ExpireAt:    tier.ExpireAt(cursor, ttlSeconds),
	}

	// find-and-replace-or-insert keyed by (namespace, key)
	res := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "write_cursor", "expire_at"}),
	}).Create(&doc)
	if res.Error != nil {
		return tier.Entry{}, tier.NewErrorf(tier.RetCInternalError, "upsert failed: %v", res.Error)
	}

	return tier.Entry{Key: key, Payload: payload, WriteCursor: cursor, ExpireAt: doc.ExpireAt}, nil
}

// BulkUpsert applies all operations as a single unordered batch; the
// documents are independent, so one bad document does not abort the rest.
func (t *Tier) BulkUpsert(ops []UpsertOp) error {
	if len(ops) == 0 {
		return nil
	}

	docs := make([]Document, 0, len(ops))
	for _, op := range ops {
		raw, err := encodePayload(op.Payload)
		if err != nil {
			continue // skip the bad document, apply the rest
		}
		cursor := tier.NextWriteCursor()
		docs = append(docs, Document{
			Namespace:   op.Namespace,
			Key:         op.Key,
			Payload:     raw,
			WriteCursor: cursor,
			ExpireAt:    tier.ExpireAt(cursor, op.TTLSeconds),
		})
	}

	res := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "write_cursor", "expire_at"}),
	}).Create(&docs)
	if res.Error != nil {
		return tier.NewErrorf(tier.RetCInternalError, "bulk upsert failed: %v", res.Error)
	}
	return nil
}

func (t *Tier) Read(ns, key string) (tier.Entry, bool, error) {
	var doc Document
	err := t.live().Where("namespace = ? AND key = ?", ns, key).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tier.Entry{}, false, nil
	}
	if err != nil {
		return tier.Entry{}, false, tier.NewErrorf(tier.RetCInternalError, "read failed: %v", err)
	}

	entry, err := doc.entry()
	if err != nil {
		return tier.Entry{}, false, err
	}
	return entry, true, nil
}

func (t *Tier) Delete(ns, key string) (bool, error) {
	res := t.db.Where("namespace = ? AND key = ?", ns, key).Delete(&Document{})
	if res.Error != nil {
		return false, tier.NewErrorf(tier.RetCInternalError, "delete failed: %v", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (t *Tier) Name() tier.Name {
	return tier.Durable
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// live restricts a query to documents that have not passed their expiry.
// This filter is the correctness guarantee: the reaper only reclaims space,
// and an expired document must never be returned even before it runs.
func (t *Tier) live() *gorm.DB {
	return t.db.Model(&Document{}).Where("expire_at = 0 OR expire_at > ?", time.Now().UnixMilli())
}
