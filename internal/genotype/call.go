// Package genotype reads consumer genotyping exports (23andMe, AncestryDNA)
// into genotype calls.
package genotype

import (
	"path/filepath"
	"strings"
)

// Format identifies the vendor layout of a raw genotype file.
type Format string

const (
	Format23andMe  Format = "23andme"
	FormatAncestry Format = "ancestry"
)

// Call is one observed genotype at a RefSNP position.
type Call struct {
	Identifier string
	Chromosome string
	Position   int64
	Alleles    string
	SampleID   string
	Source     Format
}

// SampleID derives the sample identifier from a file name. Files named
// user<N>_... yield "<N>"; anything else yields the base name without extension.
func SampleID(path string) string {
	base := filepath.Base(path)
	if prefix, _, ok := strings.Cut(base, "_"); ok && strings.HasPrefix(prefix, "user") {
		n := strings.TrimPrefix(prefix, "user")
		if n != "" && strings.Trim(n, "0123456789") == "" {
			return n
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Identifiers returns the distinct identifiers of calls in first-seen order.
func Identifiers(calls []Call) []string {
	seen := make(map[string]bool, len(calls))
	ids := make([]string, 0, len(calls))
	for _, c := range calls {
		if seen[c.Identifier] {
			continue
		}
		seen[c.Identifier] = true
		ids = append(ids, c.Identifier)
	}
	return ids
}
