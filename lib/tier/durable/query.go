package durable

import (
	"errors"

	"github.com/ValentinKolb/nkv/lib/tier"
	"gorm.io/gorm"
)

// --------------------------------------------------------------------------
// Query Operations (docu see tier/interface.go)
// --------------------------------------------------------------------------

func (t *Tier) ListByRecency(ns string, cursor int64, pageSize int) (tier.Page, error) {
	if pageSize <= 0 {
		return tier.Page{}, tier.NewError(tier.RetCInvalidOperation, "page size must be positive")
	}

	total, err := t.countNamespace(ns)
	if err != nil {
		return tier.Page{}, err
	}

	q := t.live().Where("namespace = ?", ns)
	if cursor > 0 {
		q = q.Where("write_cursor < ?", cursor)
	}

	var docs []Document
	if err := q.Order("write_cursor DESC, key ASC").Limit(pageSize).Find(&docs).Error; err != nil {
		return tier.Page{}, tier.NewErrorf(tier.RetCInternalError, "recency listing failed: %v", err)
	}

	page := tier.Page{
		PageSize:   pageSize,
		TotalItems: total,
		Tier:       tier.Durable,
	}
	for _, doc := range docs {
		entry, err := doc.entry()
		if err != nil {
			return tier.Page{}, err
		}
		page.Items = append(page.Items, tier.Item{Key: entry.Key, Data: entry.Payload})
	}

	if n := len(docs); n > 0 {
		last := docs[n-1].WriteCursor
		page.NextCursor = last

		// probe for at least one record beyond the page
		more, err := t.exists(t.live().Where("namespace = ? AND write_cursor < ?", ns, last))
		if err != nil {
			return tier.Page{}, err
		}
		page.HasMore = more
	}
	return page, nil
}

func (t *Tier) ListBySorted(ns string, q tier.SortQuery) (tier.Page, error) {
	if err := validateSort(q.Field, q.Direction, q.PageSize); err != nil {
		return tier.Page{}, err
	}

	total, err := t.countNamespace(ns)
	if err != nil {
		return tier.Page{}, err
	}

	eff := newEffectiveField(q.Field, q.Default)
	op := cmpOperator(q.Direction)

	pageQuery := eff.scope(t.live().Where("namespace = ?", ns))
	if q.Cursor != nil {
		pageQuery = eff.where(pageQuery, op, q.Cursor)
	}

	// the effective value is selected as a computed column so the ORDER BY
	// can reference it by alias; the rows are scanned by hand because the
	// alias carries no fixed SQL type (numbers and text both pass through it)
	rows, err := eff.selectValue(pageQuery).
		Order("sort_value " + orderKeyword(q.Direction) + ", key ASC").
		Limit(q.PageSize).
		Rows()
	if err != nil {
		return tier.Page{}, tier.NewErrorf(tier.RetCInternalError, "sorted listing failed: %v", err)
	}
	defer rows.Close()

	page := tier.Page{
		PageSize:   q.PageSize,
		TotalItems: total,
		Tier:       tier.Durable,
	}
	var lastValue any
	for rows.Next() {
		var (
			key, raw  string
			sortValue any
		)
		if err := rows.Scan(&key, &raw, &sortValue); err != nil {
			return tier.Page{}, tier.NewErrorf(tier.RetCInternalError, "sorted listing scan failed: %v", err)
		}
		payload, err := decodePayload(raw)
		if err != nil {
			return tier.Page{}, err
		}
		page.Items = append(page.Items, tier.Item{Key: key, Data: payload})
		lastValue = sortValue
	}
	if err := rows.Err(); err != nil {
		return tier.Page{}, tier.NewErrorf(tier.RetCInternalError, "sorted listing failed: %v", err)
	}

	if len(page.Items) > 0 {
		last := normalizeSortValue(lastValue)
		page.NextCursor = last

		// "has more" is an existence probe past the last page item, not a
		// count. The probe is built from scratch: deriving it from the page
		// query would carry its ORDER BY and LIMIT clauses along.
		probe := eff.where(eff.scope(t.live().Where("namespace = ?", ns)), op, last)
		more, err := t.exists(probe)
		if err != nil {
			return tier.Page{}, err
		}
		page.HasMore = more
	}
	return page, nil
}

func (t *Tier) Rank(ns, key string, q tier.RankQuery) (int64, error) {
	if err := validateSort(q.Field, q.Direction, 1); err != nil {
		return 0, err
	}

	var doc Document
	err := t.live().Where("namespace = ? AND key = ?", ns, key).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, tier.NewErrorf(tier.RetCNotFound, "no entry %q in namespace %q", key, ns)
	}
	if err != nil {
		return 0, tier.NewErrorf(tier.RetCInternalError, "rank lookup failed: %v", err)
	}

	payload, err := decodePayload(doc.Payload)
	if err != nil {
		return 0, err
	}
	target, ok := payload[q.Field]
	if !ok || target == nil {
		if q.Default == nil {
			return 0, tier.NewErrorf(tier.RetCFieldMissing, "entry %q has no value for field %q and no default was supplied", key, q.Field)
		}
		target = q.Default
	}

	// rank = documents with a strictly better effective value + 1
	eff := newEffectiveField(q.Field, q.Default)
	better := eff.where(eff.scope(t.live().Where("namespace = ?", ns)), betterOperator(q.Direction), target)

	var count int64
	if err := better.Count(&count).Error; err != nil {
		return 0, tier.NewErrorf(tier.RetCInternalError, "rank count failed: %v", err)
	}
	return count + 1, nil
}

// --------------------------------------------------------------------------
// Effective Sort Field
// --------------------------------------------------------------------------

// effectiveField builds the SQL for the default-substituted sort value of a
// payload field. With a default the value is computed via COALESCE (so
// documents missing the field participate with the default); without one,
// documents missing the field are excluded entirely.
type effectiveField struct {
	path string // json path "$.<field>"
	def  any
}

func newEffectiveField(field string, def any) effectiveField {
	return effectiveField{path: "$." + field, def: def}
}

// scope applies the missing-field exclusion when no default is set.
func (f effectiveField) scope(q *gorm.DB) *gorm.DB {
	if f.def == nil {
		return q.Where("json_extract(payload, ?) IS NOT NULL", f.path)
	}
	return q
}

// where appends a comparison of the effective value against an operand.
func (f effectiveField) where(q *gorm.DB, op string, operand any) *gorm.DB {
	if f.def == nil {
		return q.Where("json_extract(payload, ?) "+op+" ?", f.path, normalizeSortValue(operand))
	}
	return q.Where("COALESCE(json_extract(payload, ?), ?) "+op+" ?", f.path, f.def, normalizeSortValue(operand))
}

// selectValue selects the row columns plus the effective value as sort_value.
func (f effectiveField) selectValue(q *gorm.DB) *gorm.DB {
	if f.def == nil {
		return q.Select("key, payload, json_extract(payload, ?) AS sort_value", f.path)
	}
	return q.Select("key, payload, COALESCE(json_extract(payload, ?), ?) AS sort_value", f.path, f.def)
}

// normalizeSortValue maps SQL-typed sort values onto the representation the
// memory tier produces (JSON numbers are float64, text is string), so
// cursors from one tier filter correctly and pages look identical.
func normalizeSortValue(v any) any {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case []byte:
		return string(n)
	default:
		return v
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *Tier) countNamespace(ns string) (int64, error) {
	var total int64
	if err := t.live().Where("namespace = ?", ns).Count(&total).Error; err != nil {
		return 0, tier.NewErrorf(tier.RetCInternalError, "count failed: %v", err)
	}
	return total, nil
}

// exists probes a scoped query for at least one matching row.
func (t *Tier) exists(q *gorm.DB) (bool, error) {
	var probe []int
	if err := q.Select("1").Limit(1).Find(&probe).Error; err != nil {
		return false, tier.NewErrorf(tier.RetCInternalError, "existence probe failed: %v", err)
	}
	return len(probe) > 0, nil
}

// cmpOperator is the strictly-past-cursor comparison for a direction.
func cmpOperator(d tier.Direction) string {
	if d == tier.Ascending {
		return ">"
	}
	return "<"
}

// betterOperator selects documents with a strictly better value than the
// operand: higher for descending order, lower for ascending.
func betterOperator(d tier.Direction) string {
	if d == tier.Descending {
		return ">"
	}
	return "<"
}

func orderKeyword(d tier.Direction) string {
	if d == tier.Ascending {
		return "ASC"
	}
	return "DESC"
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
