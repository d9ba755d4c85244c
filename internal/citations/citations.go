// Package citations loads the ClinVar citation index, which names the RefSNP
// identifiers that appear in the literature.
package citations

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

// DefaultURL is the ClinVar variant citations table.
const DefaultURL = "https://ftp.ncbi.nlm.nih.gov/pub/clinvar/tab_delimited/var_citations.txt"

// Citation is one row of var_citations.txt.
type Citation struct {
	AlleleID       string `csv:"#AlleleID"`
	VariationID    string `csv:"VariationID"`
	RS             string `csv:"rs"`
	NSV            string `csv:"nsv"`
	CitationSource string `csv:"citation_source"`
	CitationID     string `csv:"citation_id"`
}

// Set is a set of rs identifiers.
type Set map[string]bool

// Filter returns the identifiers of ids that are in s, keeping their order.
func (s Set) Filter(ids []string) []string {
	var out []string
	for _, id := range ids {
		if s[id] {
			out = append(out, id)
		}
	}
	return out
}

// Read parses a tab separated citations table.
func Read(r io.Reader) ([]*Citation, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var records []*Citation
	if err := gocsv.UnmarshalCSV(cr, &records); err != nil {
		return nil, fmt.Errorf("parse citations: %w", err)
	}
	return records, nil
}

// Load reads a citations table and returns the cited rs identifiers. Rows
// without a positive rs number are ignored.
func Load(r io.Reader) (Set, error) {
	records, err := Read(r)
	if err != nil {
		return nil, err
	}

	set := make(Set)
	for _, rec := range records {
		n, err := strconv.ParseUint(strings.TrimSpace(rec.RS), 10, 64)
		if err != nil || n == 0 {
			continue
		}
		set["rs"+strconv.FormatUint(n, 10)] = true
	}
	return set, nil
}

// LoadFile is Load for a file on disk.
func LoadFile(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open citations: %w", err)
	}
	defer f.Close()
	return Load(f)
}
