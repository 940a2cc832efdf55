package memory

import (
	"sort"

	"github.com/ValentinKolb/nkv/lib/tier"
)

// --------------------------------------------------------------------------
// Query Operations (docu see tier/interface.go)
// --------------------------------------------------------------------------

// Everything in the memory tier is resident, so all listing operations work
// on a point-in-time snapshot of the namespace: totals come from the full
// snapshot, pages from sorting and slicing the filtered set.

func (t *tierImpl) ListByRecency(ns string, cursor int64, pageSize int) (tier.Page, error) {
	if pageSize <= 0 {
		return tier.Page{}, tier.NewError(tier.RetCInvalidOperation, "page size must be positive")
	}

	live := t.snapshot(ns)
	total := int64(len(live))

	sort.Slice(live, func(i, j int) bool {
		if live[i].WriteCursor != live[j].WriteCursor {
			return live[i].WriteCursor > live[j].WriteCursor
		}
		return live[i].Key < live[j].Key
	})

	filtered := live
	if cursor > 0 {
		filtered = filtered[:0:0]
		for _, e := range live {
			if e.WriteCursor < cursor {
				filtered = append(filtered, e)
			}
		}
	}

	page := tier.Page{
		PageSize:   pageSize,
		TotalItems: total,
		HasMore:    len(filtered) > pageSize,
		Tier:       tier.Memory,
	}
	for _, e := range filtered[:min(pageSize, len(filtered))] {
		page.Items = append(page.Items, tier.Item{Key: e.Key, Data: e.Payload})
	}
	if n := len(page.Items); n > 0 {
		page.NextCursor = filtered[n-1].WriteCursor
	}
	return page, nil
}

func (t *tierImpl) ListBySorted(ns string, q tier.SortQuery) (tier.Page, error) {
	if err := validateSort(q.Field, q.Direction, q.PageSize); err != nil {
		return tier.Page{}, err
	}

	live := t.snapshot(ns)
	total := int64(len(live))

	ranked := materialize(live, q.Field, q.Default)

	// strictly past the cursor in the requested direction
	if q.Cursor != nil {
		kept := ranked[:0]
		for _, r := range ranked {
			c := tier.Compare(r.eff, q.Cursor)
			if (q.Direction == tier.Ascending && c > 0) || (q.Direction == tier.Descending && c < 0) {
				kept = append(kept, r)
			}
		}
		ranked = kept
	}

	sort.Slice(ranked, func(i, j int) bool {
		c := tier.Compare(ranked[i].eff, ranked[j].eff)
		if c != 0 {
			if q.Direction == tier.Ascending {
				return c < 0
			}
			return c > 0
		}
		return ranked[i].entry.Key < ranked[j].entry.Key
	})

	page := tier.Page{
		PageSize:   q.PageSize,
		TotalItems: total,
		Tier:       tier.Memory,
	}
	sliced := ranked[:min(q.PageSize, len(ranked))]
	for _, r := range sliced {
		page.Items = append(page.Items, tier.Item{Key: r.entry.Key, Data: r.entry.Payload})
	}
	if n := len(sliced); n > 0 {
		last := sliced[n-1].eff
		page.NextCursor = last

		// "has more" mirrors cursor continuation: only entries strictly past
		// the last page item count, so ties on the page boundary are never
		// announced as a further page the cursor could not reach
		for _, r := range ranked[n:] {
			c := tier.Compare(r.eff, last)
			if (q.Direction == tier.Ascending && c > 0) || (q.Direction == tier.Descending && c < 0) {
				page.HasMore = true
				break
			}
		}
	}
	return page, nil
}

func (t *tierImpl) Rank(ns, key string, q tier.RankQuery) (int64, error) {
	if err := validateSort(q.Field, q.Direction, 1); err != nil {
		return 0, err
	}

	store := t.registry.GetOrCreate(ns)
	target, ok := store.Get(key)
	if !ok {
		return 0, tier.NewErrorf(tier.RetCNotFound, "no entry %q in namespace %q", key, ns)
	}

	targetEff, ok := effectiveValue(target, q.Field, q.Default)
	if !ok {
		return 0, tier.NewErrorf(tier.RetCFieldMissing, "entry %q has no value for field %q and no default was supplied", key, q.Field)
	}

	// linear scan counting entries whose effective value is strictly better,
	// where "better" is higher for descending order and lower for ascending
	var better int64
	for _, r := range materialize(t.snapshot(ns), q.Field, q.Default) {
		c := tier.Compare(r.eff, targetEff)
		if (q.Direction == tier.Descending && c > 0) || (q.Direction == tier.Ascending && c < 0) {
			better++
		}
	}
	return better + 1, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// snapshot returns all live entries of a namespace, re-checking expiry on
// every key so expired-but-not-yet-purged entries never leak into a page.
func (t *tierImpl) snapshot(ns string) []tier.Entry {
	store := t.registry.GetOrCreate(ns)
	entries := make([]tier.Entry, 0, store.Len())
	for _, key := range store.Keys() {
		if e, ok := store.Get(key); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// sortedEntry pairs an entry with its effective sort value.
type sortedEntry struct {
	entry tier.Entry
	eff   any
}

// materialize computes the effective sort value for every entry. Entries
// missing the field are substituted with the default, or excluded entirely
// when no default is supplied.
func materialize(entries []tier.Entry, field string, def any) []sortedEntry {
	ranked := make([]sortedEntry, 0, len(entries))
	for _, e := range entries {
		if eff, ok := effectiveValue(e, field, def); ok {
			ranked = append(ranked, sortedEntry{entry: e, eff: eff})
		}
	}
	return ranked
}

// effectiveValue returns the entry's sort value for a field, falling back to
// the default. The boolean is false if the field is absent and def is nil.
func effectiveValue(e tier.Entry, field string, def any) (any, bool) {
	if e.Payload != nil {
		if v, ok := e.Payload[field]; ok && v != nil {
			return v, true
		}
	}
	if def != nil {
		return def, true
	}
	return nil, false
}

func validateSort(field string, direction tier.Direction, pageSize int) error {
	if field == "" {
		return tier.NewError(tier.RetCInvalidOperation, "sort field must not be empty")
	}
	if !direction.Valid() {
		return tier.NewErrorf(tier.RetCInvalidOperation, "invalid sort direction %q", direction)
	}
	if pageSize <= 0 {
		return tier.NewError(tier.RetCInvalidOperation, "page size must be positive")
	}
	return nil
}
