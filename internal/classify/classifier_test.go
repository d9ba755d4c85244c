package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genomenote/rsclass/internal/genotype"
	"github.com/genomenote/rsclass/internal/variant"
)

func row(id string, typ variant.Type, deleted, inserted string, freq float64) variant.Row {
	return variant.Row{
		Identifier:        id,
		Type:              typ,
		Description:       variant.Describe(deleted, inserted).Text,
		Deleted:           deleted,
		Inserted:          inserted,
		ObservedFrequency: freq,
	}
}

func call(id, chrom string, pos int64, alleles string) genotype.Call {
	return genotype.Call{Identifier: id, Chromosome: chrom, Position: pos, Alleles: alleles, SampleID: "1"}
}

func TestClassify_EndToEndSNV(t *testing.T) {
	calls := []genotype.Call{call("rs1", "1", 100, "AG")}

	table := NewTable([]variant.Row{row("rs1", variant.TypeSNV, "A", "G", 0.1)})
	got := NewClassifier().Classify(calls, table)
	require.Len(t, got, 1)
	assert.Equal(t, "snv", got[0].Classification)
	assert.Equal(t, "G", got[0].Row.Inserted)
	assert.True(t, got[0].Matched())

	table = NewTable([]variant.Row{row("rs1", variant.TypeStandard, "A", "A", 0.9)})
	assert.Empty(t, NewClassifier().Classify(calls, table))
}

func TestClassify_Rules(t *testing.T) {
	tests := []struct {
		name    string
		alleles string
		rows    []variant.Row
		want    string
		wantRow int
	}{
		{
			name:    "snv inserted in alleles",
			alleles: "CT",
			rows:    []variant.Row{row("rs1", variant.TypeSNV, "C", "T", 0.3)},
			want:    "snv",
		},
		{
			name:    "snv not in alleles",
			alleles: "CC",
			rows:    []variant.Row{row("rs1", variant.TypeSNV, "C", "T", 0.3)},
			want:    "",
		},
		{
			name:    "indel deletion",
			alleles: "DI",
			rows: []variant.Row{
				row("rs1", variant.TypeStandard, "AT", "AT", 0.7),
				row("rs1", variant.TypeDeletion, "T", "", 0.3),
			},
			want:    "del",
			wantRow: 1,
		},
		{
			name:    "indel insertion",
			alleles: "DI",
			rows:    []variant.Row{row("rs1", variant.TypeInsert, "", "GC", 0.3)},
			want:    "ins",
		},
		{
			name:    "indel duplication",
			alleles: "DI",
			rows:    []variant.Row{row("rs1", variant.TypeDup, "", "TA", 0.3)},
			want:    "dup",
		},
		{
			name:    "homozygous deletion",
			alleles: "DD",
			rows: []variant.Row{
				row("rs1", variant.TypeStandard, "", "", 0.4),
			},
			want: "std",
		},
		{
			name:    "homozygous deletion needs empty alleles",
			alleles: "DD",
			rows:    []variant.Row{row("rs1", variant.TypeStandard, "T", "T", 0.4)},
			want:    "",
		},
		{
			name:    "homozygous insertion",
			alleles: "II",
			rows:    []variant.Row{row("rs1", variant.TypeStandard, "T", "T", 0.4)},
			want:    "std",
		},
		{
			name:    "homozygous insertion needs sequence",
			alleles: "II",
			rows:    []variant.Row{row("rs1", variant.TypeStandard, "", "", 0.4)},
			want:    "",
		},
		{
			name:    "std doubled",
			alleles: "GG",
			rows:    []variant.Row{row("rs1", variant.TypeStandard, "G", "G", 0.9)},
			want:    "std",
		},
		{
			name:    "std direct",
			alleles: "G",
			rows:    []variant.Row{row("rs1", variant.TypeStandard, "G", "G", 0.9)},
			want:    "std",
		},
		{
			name:    "std mismatch",
			alleles: "GA",
			rows:    []variant.Row{row("rs1", variant.TypeStandard, "G", "G", 0.9)},
			want:    "",
		},
		{
			name:    "unknown rows never match",
			alleles: "AT",
			rows:    []variant.Row{row("rs1", variant.TypeUnknown, "AT", "TA", 0.9)},
			want:    "",
		},
		{
			name:    "highest frequency within pass",
			alleles: "AG",
			rows: []variant.Row{
				row("rs1", variant.TypeSNV, "C", "A", 0.2),
				row("rs1", variant.TypeSNV, "C", "G", 0.5),
			},
			want:    "snv",
			wantRow: 1,
		},
		{
			name:    "first row on frequency tie",
			alleles: "AG",
			rows: []variant.Row{
				row("rs1", variant.TypeSNV, "C", "A", 0.5),
				row("rs1", variant.TypeSNV, "C", "G", 0.5),
			},
			want: "snv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewClassifier().Classify(
				[]genotype.Call{call("rs1", "1", 1, tt.alleles)},
				NewTable(tt.rows),
			)
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Classification)
			assert.Equal(t, tt.rows[tt.wantRow], got[0].Row)
		})
	}
}

func TestClassify_OneEntryPerMatchingPass(t *testing.T) {
	rows := []variant.Row{
		row("rs1", variant.TypeStandard, "A", "A", 0.9),
		row("rs1", variant.TypeSNV, "G", "A", 0.1),
		row("rs1", variant.TypeSNV, "G", "C", 0.05),
	}
	calls := []genotype.Call{call("rs1", "1", 1, "AA"), call("rs2", "1", 2, "AA")}

	got := NewClassifier().Classify(calls, NewTable(rows))
	require.Len(t, got, 2)
	assert.Equal(t, "snv", got[0].Classification)
	assert.Equal(t, rows[1], got[0].Row)
	assert.Equal(t, "std", got[1].Classification)
	assert.Equal(t, rows[0], got[1].Row)
}

func TestClassify_DropsUnannotatedCalls(t *testing.T) {
	calls := []genotype.Call{
		call("rs1", "1", 1, "AG"),
		call("rs2", "1", 2, "AG"),
		call("i3000001", "1", 3, "DI"),
	}
	table := NewTable([]variant.Row{row("rs1", variant.TypeSNV, "A", "G", 0.1)})

	got := NewClassifier().Classify(calls, table)
	require.Len(t, got, 1)
	assert.Equal(t, "rs1", got[0].Call.Identifier)
}

func TestClassify_KeepUnmatched(t *testing.T) {
	calls := []genotype.Call{
		call("rs1", "1", 1, "CC"),
		call("rs2", "1", 2, "AG"),
	}
	table := NewTable([]variant.Row{row("rs1", variant.TypeSNV, "C", "T", 0.1)})

	c := NewClassifier()
	c.SetKeepUnmatched(true)
	got := c.Classify(calls, table)

	require.Len(t, got, 1)
	assert.Equal(t, Unmatched, got[0].Classification)
	assert.False(t, got[0].Matched())
	assert.Equal(t, variant.Row{}, got[0].Row)
}

func TestClassify_Ordering(t *testing.T) {
	calls := []genotype.Call{
		call("rs5", "2", 50, "AG"),
		call("rs1", "1", 300, "AG"),
		call("rs3", "X", 10, "AG"),
		call("rs2", "1", 20, "AG"),
		call("rs4", "2", 5, "AG"),
	}
	var rows []variant.Row
	for _, c := range calls {
		rows = append(rows, row(c.Identifier, variant.TypeSNV, "A", "G", 0.1))
	}

	got := NewClassifier().Classify(calls, NewTable(rows))
	require.Len(t, got, 5)

	var order []string
	for _, cc := range got {
		order = append(order, cc.Call.Identifier)
	}
	assert.Equal(t, []string{"rs2", "rs1", "rs4", "rs5", "rs3"}, order)
}

func TestCompareChromosomes(t *testing.T) {
	labels := []string{"X", "10", "MT", "2", "chr1", "Y", "1"}
	calls := make([]ClassifiedCall, len(labels))
	for i, l := range labels {
		calls[i] = ClassifiedCall{Call: genotype.Call{Chromosome: l}}
	}
	SortCalls(calls)

	var got []string
	for _, c := range calls {
		got = append(got, c.Call.Chromosome)
	}
	assert.Equal(t, []string{"chr1", "1", "2", "10", "MT", "X", "Y"}, got)

	assert.Zero(t, CompareChromosomes("1", "chr1"))
	assert.Negative(t, CompareChromosomes("9", "10"))
	assert.Positive(t, CompareChromosomes("X", "22"))
}

func TestNewTable(t *testing.T) {
	table := NewTable([]variant.Row{
		row("rs1", variant.TypeSNV, "A", "G", 0.1),
		row("rs2", variant.TypeSNV, "A", "G", 0.1),
		row("rs1", variant.TypeStandard, "A", "A", 0.9),
	})
	require.Len(t, table["rs1"], 2)
	assert.Equal(t, variant.TypeSNV, table["rs1"][0].Type)
	assert.Len(t, table["rs2"], 1)
}
