// Package refsnp reads and fetches NCBI dbSNP RefSNP records.
package refsnp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/genomenote/rsclass/internal/variant"
)

// ErrInvalidIdentifier is returned for identifiers that are not of the form rs<N>.
var ErrInvalidIdentifier = errors.New("not a RefSNP identifier")

// Record is the subset of a RefSNP v0 document used for annotation.
type Record struct {
	RefSNPID            ID                   `json:"refsnp_id"`
	PrimarySnapshotData *PrimarySnapshotData `json:"primary_snapshot_data,omitempty"`
	MergedSnapshotData  *MergedSnapshotData  `json:"merged_snapshot_data,omitempty"`
}

// PrimarySnapshotData holds the live annotation of a record.
type PrimarySnapshotData struct {
	AlleleAnnotations []AlleleAnnotation `json:"allele_annotations"`
}

// MergedSnapshotData is present when a record was merged into another one.
type MergedSnapshotData struct {
	MergedInto []ID `json:"merged_into"`
}

// AlleleAnnotation groups frequency, clinical and gene data for one allele.
type AlleleAnnotation struct {
	Frequency          []FrequencyObservation `json:"frequency"`
	Clinical           []ClinicalAnnotation   `json:"clinical"`
	Submissions        []string               `json:"submissions"`
	AssemblyAnnotation []AssemblyAnnotation   `json:"assembly_annotation"`
}

// FrequencyObservation is one study's allele count at the position.
type FrequencyObservation struct {
	StudyName   string      `json:"study_name"`
	Observation Observation `json:"observation"`
	AlleleCount int64       `json:"allele_count"`
	TotalCount  int64       `json:"total_count"`
}

// Observation is the SPDI allele a frequency refers to.
type Observation struct {
	SeqID            string `json:"seq_id"`
	Position         int64  `json:"position"`
	DeletedSequence  string `json:"deleted_sequence"`
	InsertedSequence string `json:"inserted_sequence"`
}

// ClinicalAnnotation is one ClinVar assertion attached to the record.
type ClinicalAnnotation struct {
	AccessionVersion      string   `json:"accession_version"`
	DiseaseNames          []string `json:"disease_names"`
	ClinicalSignificances []string `json:"clinical_significances"`
	GeneIDs               []ID     `json:"gene_ids"`
}

// AssemblyAnnotation lists the genes overlapping the record on one assembly.
type AssemblyAnnotation struct {
	SeqID string `json:"seq_id"`
	Genes []Gene `json:"genes"`
}

// Gene is a gene overlapping the record.
type Gene struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Locus string `json:"locus"`
}

// ID is a numeric identifier that may be encoded as a JSON string or number.
type ID string

// UnmarshalJSON accepts both "123" and 123.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Parse decodes a RefSNP JSON document.
func Parse(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode refsnp record: %w", err)
	}
	return &rec, nil
}

// MergedInto returns the rs identifier this record was merged into, or "" if the
// record is live.
func (r *Record) MergedInto() string {
	if r.MergedSnapshotData == nil || len(r.MergedSnapshotData.MergedInto) == 0 {
		return ""
	}
	next := string(r.MergedSnapshotData.MergedInto[0])
	if next == "" {
		return ""
	}
	return "rs" + strings.TrimPrefix(next, "rs")
}

// AlleleAnnotations returns the allele annotations, or nil when the snapshot
// sections are missing.
func (r *Record) AlleleAnnotations() []AlleleAnnotation {
	if r.PrimarySnapshotData == nil {
		return nil
	}
	return r.PrimarySnapshotData.AlleleAnnotations
}

// Observations flattens the frequency observations of every allele annotation.
func (r *Record) Observations() []variant.Observation {
	var obs []variant.Observation
	for _, aa := range r.AlleleAnnotations() {
		for _, f := range aa.Frequency {
			obs = append(obs, variant.Observation{
				Deleted:     f.Observation.DeletedSequence,
				Inserted:    f.Observation.InsertedSequence,
				AlleleCount: f.AlleleCount,
				TotalCount:  f.TotalCount,
			})
		}
	}
	return obs
}

// IsIdentifier reports whether id has the form rs<N>.
func IsIdentifier(id string) bool {
	_, err := Number(id)
	return err == nil
}

// Number returns the numeric part of an rs identifier.
func Number(id string) (uint64, error) {
	if !strings.HasPrefix(id, "rs") {
		return 0, fmt.Errorf("%q: %w", id, ErrInvalidIdentifier)
	}
	n, err := strconv.ParseUint(id[2:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", id, ErrInvalidIdentifier)
	}
	return n, nil
}
