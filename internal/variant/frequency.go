package variant

import (
	"slices"
	"sort"
	"strings"
)

// maxReducePasses bounds the fixpoint loop in Reduce. Each pass can only merge rows,
// so the table settles after two passes in practice.
const maxReducePasses = 8

// Observation is one raw allele frequency observation from a study.
type Observation struct {
	Deleted     string
	Inserted    string
	AlleleCount int64
	TotalCount  int64
}

// BuildFrequencyTable describes every observation and reduces them to one row per
// distinct variant, with observed frequencies filled in.
func BuildFrequencyTable(obs []Observation) []Row {
	rows := make([]Row, 0, len(obs))
	for _, o := range obs {
		d := Describe(o.Deleted, o.Inserted)
		rows = append(rows, Row{
			Type:        d.Type,
			Description: d.Text,
			Deleted:     d.Deleted,
			Inserted:    d.Inserted,
			AlleleCount: o.AlleleCount,
			TotalCount:  o.TotalCount,
		})
	}
	return Reduce(rows)
}

// Reduce groups rows by key and applies the duplication collapse and standard-form
// merge until the table stops changing. Reduce(Reduce(x)) equals Reduce(x).
func Reduce(rows []Row) []Row {
	out := group(rows)
	for pass := 0; pass < maxReducePasses; pass++ {
		next := group(mergeStandard(collapseDuplications(out)))
		if slices.Equal(next, out) {
			break
		}
		out = next
	}
	return out
}

// group sums counts of rows sharing a key and orders the result by key. Fields other
// than the key and counts are taken from the first row of each group.
func group(rows []Row) []Row {
	index := make(map[Key]int, len(rows))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		k := r.Key()
		if i, ok := index[k]; ok {
			out[i].AlleleCount += r.AlleleCount
			out[i].TotalCount += r.TotalCount
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Key().less(out[j].Key())
	})
	for i := range out {
		out[i].ObservedFrequency = Frequency(out[i].AlleleCount, out[i].TotalCount)
	}
	return out
}

// collapseDuplications treats an insertion observed against the non-duplicated
// reference as evidence for the duplication: when a table holds both ins and dup rows,
// no std row, and every row shares one (inserted, deleted) pair, only the dup rows are
// kept and they carry the counts of the whole table. Reference observations never
// count towards the duplication.
func collapseDuplications(rows []Row) []Row {
	if len(rows) < 2 {
		return rows
	}

	var hasIns, hasDup bool
	for _, r := range rows {
		switch r.Type {
		case TypeInsert:
			hasIns = true
		case TypeDup:
			hasDup = true
		case TypeStandard:
			return rows
		}
	}
	if !hasIns || !hasDup {
		return rows
	}

	var alleles, total int64
	for _, r := range rows {
		if r.Inserted != rows[0].Inserted || r.Deleted != rows[0].Deleted {
			return rows
		}
		alleles += r.AlleleCount
		total += r.TotalCount
	}

	var out []Row
	for _, r := range rows {
		if r.Type != TypeDup {
			continue
		}
		r.AlleleCount = alleles
		r.TotalCount = total
		out = append(out, r)
	}
	return out
}

// mergeStandard collapses multiple representations of "no variation". The shortest
// deleted text in the table replaces deleted and inserted of every row containing it.
func mergeStandard(rows []Row) []Row {
	std := 0
	for _, r := range rows {
		if r.Type == TypeStandard {
			std++
		}
	}
	if std <= 1 {
		return rows
	}

	shortest := rows[0].Deleted
	for _, r := range rows[1:] {
		if len(r.Deleted) < len(shortest) {
			shortest = r.Deleted
		}
	}

	out := make([]Row, len(rows))
	copy(out, rows)
	for i := range out {
		if strings.Contains(out[i].Deleted, shortest) {
			out[i].Deleted = shortest
			out[i].Inserted = shortest
		}
	}
	return out
}
