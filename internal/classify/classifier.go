// Package classify matches genotype calls against annotation rows.
package classify

import (
	"strings"

	"go.uber.org/zap"

	"github.com/genomenote/rsclass/internal/genotype"
	"github.com/genomenote/rsclass/internal/variant"
)

// Unmatched marks a call that no annotation row explains. Such calls are only
// reported when the classifier keeps unmatched calls.
const Unmatched = "unmatched"

// Table holds annotation rows by identifier, each identifier's rows in table order.
type Table map[string][]variant.Row

// NewTable groups rows by identifier.
func NewTable(rows []variant.Row) Table {
	t := make(Table)
	for _, r := range rows {
		t[r.Identifier] = append(t[r.Identifier], r)
	}
	return t
}

// ClassifiedCall is a genotype call with the annotation row that explains it.
type ClassifiedCall struct {
	Call           genotype.Call
	Row            variant.Row
	Classification string
}

// Matched reports whether the call was explained by an annotation row.
func (c ClassifiedCall) Matched() bool {
	return c.Classification != Unmatched
}

// rule inspects one row for a call and returns the classification on a match.
type rule func(alleles string, row variant.Row) (string, bool)

// passes are tried in order; the first pass with any matching row wins.
var passes = []rule{
	matchSNV,
	matchIndel,
	matchHomozygousDeletion,
	matchHomozygousInsertion,
	matchStandard,
}

func matchSNV(alleles string, row variant.Row) (string, bool) {
	return string(variant.TypeSNV), row.Type == variant.TypeSNV && strings.Contains(alleles, row.Inserted)
}

func matchIndel(alleles string, row variant.Row) (string, bool) {
	return string(row.Type), alleles == "DI" && row.Type.IsIndel()
}

func matchHomozygousDeletion(alleles string, row variant.Row) (string, bool) {
	return string(variant.TypeStandard), alleles == "DD" && row.Type == variant.TypeStandard &&
		row.Deleted == "" && row.Inserted == ""
}

func matchHomozygousInsertion(alleles string, row variant.Row) (string, bool) {
	return string(variant.TypeStandard), alleles == "II" && row.Type == variant.TypeStandard &&
		row.Deleted != "" && row.Inserted != ""
}

func matchStandard(alleles string, row variant.Row) (string, bool) {
	return string(variant.TypeStandard), row.Type == variant.TypeStandard &&
		(alleles == row.Inserted || alleles == row.Inserted+row.Inserted)
}

// Classifier assigns a variant classification to genotype calls.
type Classifier struct {
	keepUnmatched bool
	logger        *zap.Logger
}

// NewClassifier creates a classifier that drops unmatched calls.
func NewClassifier() *Classifier {
	return &Classifier{logger: zap.NewNop()}
}

// SetKeepUnmatched controls whether calls with annotation rows but no matching
// row are reported with the Unmatched classification.
func (c *Classifier) SetKeepUnmatched(keep bool) {
	c.keepUnmatched = keep
}

// SetLogger sets the logger.
func (c *Classifier) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Classify joins calls to table on identifier and classifies each joined call.
// A call yields one entry per matching pass. Calls without annotation rows are
// dropped. The result is ordered by chromosome, then position.
func (c *Classifier) Classify(calls []genotype.Call, table Table) []ClassifiedCall {
	var out []ClassifiedCall
	var joined, unmatched int

	for _, call := range calls {
		rows := table[call.Identifier]
		if len(rows) == 0 {
			continue
		}
		joined++

		matches := classifyCall(call, rows)
		if len(matches) == 0 {
			unmatched++
			if c.keepUnmatched {
				out = append(out, ClassifiedCall{Call: call, Classification: Unmatched})
			}
			continue
		}
		out = append(out, matches...)
	}

	SortCalls(out)

	c.logger.Debug("classified genotype calls",
		zap.Int("calls", len(calls)),
		zap.Int("joined", joined),
		zap.Int("unmatched", unmatched),
		zap.Int("reported", len(out)))
	return out
}

// classifyCall runs every pass and returns one ClassifiedCall per pass that
// matched, in pass order. Within a pass the row with the highest observed
// frequency wins, the earliest row on ties.
func classifyCall(call genotype.Call, rows []variant.Row) []ClassifiedCall {
	var out []ClassifiedCall
	for _, match := range passes {
		best := -1
		var class string
		for i, row := range rows {
			cls, ok := match(call.Alleles, row)
			if !ok {
				continue
			}
			if best < 0 || row.ObservedFrequency > rows[best].ObservedFrequency {
				best, class = i, cls
			}
		}
		if best >= 0 {
			out = append(out, ClassifiedCall{Call: call, Row: rows[best], Classification: class})
		}
	}
	return out
}
