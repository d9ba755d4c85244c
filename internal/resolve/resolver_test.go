package resolve

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genomenote/rsclass/internal/refsnp"
	"github.com/genomenote/rsclass/internal/variant"
)

// fakeFetcher serves records from a map and counts calls per identifier.
type fakeFetcher struct {
	mu      sync.Mutex
	records map[string]*refsnp.Record
	calls   map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{records: map[string]*refsnp.Record{}, calls: map[string]int{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, id string) (*refsnp.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	rec, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, refsnp.ErrNotFound)
	}
	return rec, nil
}

func (f *fakeFetcher) merged(id, into string) {
	f.records[id] = &refsnp.Record{
		MergedSnapshotData: &refsnp.MergedSnapshotData{MergedInto: []refsnp.ID{refsnp.ID(into)}},
	}
}

func (f *fakeFetcher) live(id string, freq ...refsnp.FrequencyObservation) {
	f.records[id] = &refsnp.Record{
		PrimarySnapshotData: &refsnp.PrimarySnapshotData{
			AlleleAnnotations: []refsnp.AlleleAnnotation{{
				Frequency: freq,
				Clinical: []refsnp.ClinicalAnnotation{{
					DiseaseNames:          []string{"Alzheimer disease"},
					ClinicalSignificances: []string{"risk factor"},
				}},
				Submissions: []string{"SUB1"},
				AssemblyAnnotation: []refsnp.AssemblyAnnotation{{
					Genes: []refsnp.Gene{{Locus: "APOE", Name: "apolipoprotein E"}},
				}},
			}},
		},
	}
}

func freq(deleted, inserted string, allele, total int64) refsnp.FrequencyObservation {
	return refsnp.FrequencyObservation{
		Observation: refsnp.Observation{DeletedSequence: deleted, InsertedSequence: inserted},
		AlleleCount: allele,
		TotalCount:  total,
	}
}

func TestResolve_Live(t *testing.T) {
	f := newFakeFetcher()
	f.live("rs429358", freq("T", "T", 80, 100), freq("T", "C", 20, 100))

	rows, err := NewResolver(f).Resolve(context.Background(), "rs429358")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	snv := rows[0]
	assert.Equal(t, "rs429358", snv.Identifier)
	assert.Equal(t, variant.TypeSNV, snv.Type)
	assert.Equal(t, "T>C", snv.Description)
	assert.InDelta(t, 0.2, snv.ObservedFrequency, 1e-9)
	assert.Equal(t, "Alzheimer disease", snv.Diseases)
	assert.Equal(t, "risk factor", snv.Significance)
	assert.Equal(t, "APOE", snv.GeneLocus)
	assert.Equal(t, "apolipoprotein E", snv.GeneName)
	assert.Equal(t, int64(1), snv.Submissions)

	assert.Equal(t, variant.TypeStandard, rows[1].Type)
	assert.Equal(t, "Alzheimer disease", rows[1].Diseases)
}

func TestResolve_RedirectChainTagsOriginal(t *testing.T) {
	f := newFakeFetcher()
	f.merged("rsA", "rsB")
	f.merged("rsB", "rsC")
	f.live("rsC", freq("A", "G", 1, 4))

	rows, err := NewResolver(f).Resolve(context.Background(), "rsA")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "rsA", rows[0].Identifier)
	assert.Equal(t, 1, f.calls["rsB"])
	assert.Equal(t, 1, f.calls["rsC"])
}

func TestResolve_NumericMergeTarget(t *testing.T) {
	f := newFakeFetcher()
	f.merged("rs100", "328")
	f.live("rs328", freq("C", "G", 1, 2))

	rows, err := NewResolver(f).Resolve(context.Background(), "rs100")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "rs100", rows[0].Identifier)
}

func TestResolve_Loop(t *testing.T) {
	f := newFakeFetcher()
	f.merged("rs1", "rs2")
	f.merged("rs2", "rs3")
	f.merged("rs3", "rs1")

	_, err := NewResolver(f).Resolve(context.Background(), "rs1")
	assert.ErrorIs(t, err, ErrRedirectLoop)
}

func TestResolve_SelfLoop(t *testing.T) {
	f := newFakeFetcher()
	f.merged("rs1", "rs1")

	_, err := NewResolver(f).Resolve(context.Background(), "rs1")
	assert.ErrorIs(t, err, ErrRedirectLoop)
}

func TestResolve_Limit(t *testing.T) {
	f := newFakeFetcher()
	f.merged("rs1", "rs2")
	f.merged("rs2", "rs3")
	f.merged("rs3", "rs4")
	f.live("rs4", freq("A", "G", 1, 4))

	r := NewResolver(f)
	r.SetMaxRedirects(2)
	_, err := r.Resolve(context.Background(), "rs1")
	assert.ErrorIs(t, err, ErrRedirectLimit)
	assert.Zero(t, f.calls["rs4"])

	r.SetMaxRedirects(3)
	rows, err := r.Resolve(context.Background(), "rs1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestResolve_DefaultLimit(t *testing.T) {
	f := newFakeFetcher()
	for i := 0; i < 12; i++ {
		f.merged(fmt.Sprintf("rs%d", i), fmt.Sprintf("rs%d", i+1))
	}
	f.live("rs12", freq("A", "G", 1, 4))

	_, err := NewResolver(f).Resolve(context.Background(), "rs0")
	assert.ErrorIs(t, err, ErrRedirectLimit)

	rows, err := NewResolver(f).Resolve(context.Background(), "rs2")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestResolve_NoFrequencyData(t *testing.T) {
	f := newFakeFetcher()
	f.live("rs5")
	f.records["rs6"] = &refsnp.Record{}

	r := NewResolver(f)
	for _, id := range []string{"rs5", "rs6"} {
		rows, err := r.Resolve(context.Background(), id)
		require.NoError(t, err, id)
		assert.Empty(t, rows, id)
	}
}

func TestResolve_FetchError(t *testing.T) {
	f := newFakeFetcher()
	f.merged("rs1", "rs2")

	_, err := NewResolver(f).Resolve(context.Background(), "rs1")
	assert.ErrorIs(t, err, refsnp.ErrNotFound)
}
