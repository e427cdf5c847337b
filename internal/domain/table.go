package domain

import (
	"slices"
	"strings"
	"time"
)

// Table is an ordered set of records. It is a value: every transform returns a
// new Table and leaves its input untouched.
type Table struct {
	records      []Record
	extraColumns []string
	located      bool
	generatedAt  time.Time
}

// NewTable copies records and the pass-through column names into a Table.
func NewTable(records []Record, extraColumns []string) Table {
	t := Table{
		records:      make([]Record, len(records)),
		extraColumns: slices.Clone(extraColumns),
	}
	for i, r := range records {
		r.Extra = cloneExtra(r.Extra)
		t.records[i] = r
	}
	return t
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.records) }

// Record returns row i.
func (t Table) Record(i int) Record {
	r := t.records[i]
	r.Extra = cloneExtra(r.Extra)
	return r
}

// Records returns a copy of every row.
func (t Table) Records() []Record {
	out := make([]Record, len(t.records))
	for i := range t.records {
		out[i] = t.Record(i)
	}
	return out
}

// ExtraColumns returns the pass-through input columns in header order.
func (t Table) ExtraColumns() []string { return slices.Clone(t.extraColumns) }

// Located reports whether geocoding ran over this table.
func (t Table) Located() bool { return t.located }

// GeneratedAt is the time the table was stamped for export; zero until Stamp.
func (t Table) GeneratedAt() time.Time { return t.generatedAt }

// Stamp records the export time using the package clock.
func (t Table) Stamp() Table {
	out := t.derive(t.Records())
	out.generatedAt = clock.Now().UTC()
	return out
}

// States returns the distinct states in order of first appearance.
func (t Table) States() []string {
	seen := make(map[string]struct{}, len(t.records))
	var states []string
	for _, r := range t.records {
		if _, ok := seen[r.State]; ok {
			continue
		}
		seen[r.State] = struct{}{}
		states = append(states, r.State)
	}
	return states
}

// Filter returns the rows for which keep reports true, in table order.
func (t Table) Filter(keep func(Record) bool) Table {
	var out []Record
	for i := range t.records {
		if keep(t.records[i]) {
			out = append(out, t.Record(i))
		}
	}
	return t.derive(out)
}

// Concat appends other's rows after t's. Pass-through columns are merged in
// first-seen order.
func (t Table) Concat(other Table) Table {
	merged := append(t.Records(), other.Records()...)
	out := t.derive(merged)
	for _, c := range other.extraColumns {
		if !slices.Contains(out.extraColumns, c) {
			out.extraColumns = append(out.extraColumns, c)
		}
	}
	out.located = t.located || other.located
	return out
}

// SortByStateYear orders rows by state then year. The sort is stable.
func (t Table) SortByStateYear() Table {
	sorted := t.Records()
	slices.SortStableFunc(sorted, func(a, b Record) int {
		if c := strings.Compare(a.State, b.State); c != 0 {
			return c
		}
		return a.Year - b.Year
	})
	return t.derive(sorted)
}

// mapRecords applies fn to a copy of every row.
func (t Table) mapRecords(fn func(Record) Record) Table {
	out := t.Records()
	for i := range out {
		out[i] = fn(out[i])
	}
	return t.derive(out)
}

// derive builds a Table with t's metadata around records. records must not be
// shared with t.
func (t Table) derive(records []Record) Table {
	return Table{
		records:      records,
		extraColumns: slices.Clone(t.extraColumns),
		located:      t.located,
		generatedAt:  t.generatedAt,
	}
}
