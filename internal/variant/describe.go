// Package variant provides allele-level variant description and frequency table reduction.
package variant

import "strings"

// Type is the classification of a sequence change.
type Type string

// Variant types.
const (
	TypeSNV      Type = "snv"
	TypeDeletion Type = "del"
	TypeInsert   Type = "ins"
	TypeDup      Type = "dup"
	TypeStandard Type = "std"
	TypeUnknown  Type = "unknown"
)

// IsIndel returns true for deletion, insertion and duplication types.
func (t Type) IsIndel() bool {
	return t == TypeDeletion || t == TypeInsert || t == TypeDup
}

// Description is the canonical form of a deleted/inserted allele pair.
type Description struct {
	Type     Type
	Text     string // e.g. "A>G", "delA", "insTA", "dupTA", "std"
	Deleted  string // residual deleted sequence
	Inserted string // residual inserted sequence
}

// Describe classifies a reference (deleted) and observed (inserted) allele sequence.
// Checks run in a fixed order and the first match wins; the prefix checks are not
// symmetric, so an empty inserted sequence is always a deletion.
func Describe(deleted, inserted string) Description {
	if deleted == inserted {
		return Description{Type: TypeStandard, Text: "std", Deleted: deleted, Inserted: inserted}
	}

	if strings.HasPrefix(deleted, inserted) {
		rest := deleted[len(inserted):]
		return Description{Type: TypeDeletion, Text: "del" + rest, Deleted: rest}
	}

	if strings.HasPrefix(inserted, deleted) {
		tail := inserted[len(deleted):]
		if strings.HasSuffix(deleted, tail) {
			return Description{Type: TypeDup, Text: "dup" + tail, Inserted: tail}
		}
		return Description{Type: TypeInsert, Text: "ins" + tail, Inserted: tail}
	}

	if len(deleted) == 1 && len(inserted) == 1 {
		return Description{Type: TypeSNV, Text: deleted + ">" + inserted, Deleted: deleted, Inserted: inserted}
	}

	return Description{Type: TypeUnknown, Text: "unknown", Deleted: deleted, Inserted: inserted}
}
