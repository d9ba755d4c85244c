// Package output writes classified genotype reports.
package output

import (
	"strconv"

	"github.com/genomenote/rsclass/internal/classify"
)

// Columns is the report column order shared by every writer.
var Columns = []string{
	"sample_id",
	"rsid",
	"chromosome",
	"position",
	"alleles",
	"classification",
	"variant_type",
	"description",
	"deleted",
	"inserted",
	"allele_count",
	"total_count",
	"observed_frequency",
	"diseases",
	"significance",
	"submissions",
	"gene_locus",
	"gene_name",
}

// values renders cc in Columns order. Empty text fields become "-".
func values(cc classify.ClassifiedCall) []string {
	c, r := cc.Call, cc.Row
	return []string{
		dash(c.SampleID),
		c.Identifier,
		c.Chromosome,
		strconv.FormatInt(c.Position, 10),
		dash(c.Alleles),
		cc.Classification,
		dash(string(r.Type)),
		dash(r.Description),
		dash(r.Deleted),
		dash(r.Inserted),
		strconv.FormatInt(r.AlleleCount, 10),
		strconv.FormatInt(r.TotalCount, 10),
		strconv.FormatFloat(r.ObservedFrequency, 'g', 6, 64),
		dash(r.Diseases),
		dash(r.Significance),
		strconv.FormatInt(r.Submissions, 10),
		dash(r.GeneLocus),
		dash(r.GeneName),
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
