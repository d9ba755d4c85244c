// Package clinical summarizes ClinVar and gene annotations of a RefSNP record.
package clinical

import (
	"strings"

	"github.com/genomenote/rsclass/internal/refsnp"
	"github.com/genomenote/rsclass/internal/variant"
)

// Placeholder disease names that carry no information.
var ignoredDiseases = map[string]bool{
	"not provided":  true,
	"not specified": true,
}

// Summary holds the record-level clinical fields shared by every row of a record.
type Summary struct {
	Diseases     string
	Significance string
	GeneLocus    string
	GeneName     string
	Submissions  int64
}

// Summarize collects diseases, significance labels, genes and the submission
// count across all allele annotations. Multi-valued fields are joined with
// ", " in first-seen order.
func Summarize(annotations []refsnp.AlleleAnnotation) Summary {
	var diseases, significance, loci, names orderedSet
	submissions := make(map[string]bool)

	for _, aa := range annotations {
		for _, c := range aa.Clinical {
			for _, d := range c.DiseaseNames {
				if ignoredDiseases[strings.ToLower(strings.TrimSpace(d))] {
					continue
				}
				diseases.add(d)
			}
			for _, s := range c.ClinicalSignificances {
				significance.add(s)
			}
		}
		for _, asm := range aa.AssemblyAnnotation {
			for _, g := range asm.Genes {
				loci.add(g.Locus)
				names.add(g.Name)
			}
		}
		for _, s := range aa.Submissions {
			submissions[s] = true
		}
	}

	return Summary{
		Diseases:     diseases.String(),
		Significance: significance.String(),
		GeneLocus:    loci.String(),
		GeneName:     names.String(),
		Submissions:  int64(len(submissions)),
	}
}

// Apply copies the summary onto every row.
func (s Summary) Apply(rows []variant.Row) {
	for i := range rows {
		rows[i].Diseases = s.Diseases
		rows[i].Significance = s.Significance
		rows[i].GeneLocus = s.GeneLocus
		rows[i].GeneName = s.GeneName
		rows[i].Submissions = s.Submissions
	}
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func (o *orderedSet) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if o.seen == nil {
		o.seen = make(map[string]bool)
	}
	if o.seen[v] {
		return
	}
	o.seen[v] = true
	o.items = append(o.items, v)
}

func (o *orderedSet) String() string {
	return strings.Join(o.items, ", ")
}
