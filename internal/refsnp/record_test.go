package refsnp

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genomenote/rsclass/internal/variant"
)

func loadRecord(t *testing.T, name string) *Record {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	rec, err := Parse(data)
	require.NoError(t, err)
	return rec
}

func TestParse_Live(t *testing.T) {
	rec := loadRecord(t, "rs328.json")

	assert.Equal(t, ID("328"), rec.RefSNPID)
	assert.Empty(t, rec.MergedInto())
	require.Len(t, rec.AlleleAnnotations(), 2)

	clinical := rec.AlleleAnnotations()[0].Clinical
	require.Len(t, clinical, 2)
	assert.Equal(t, []ID{"4023"}, clinical[0].GeneIDs)
	assert.Equal(t, []ID{"4023"}, clinical[1].GeneIDs)

	obs := rec.Observations()
	assert.Equal(t, []variant.Observation{
		{Deleted: "C", Inserted: "C", AlleleCount: 4500, TotalCount: 5008},
		{Deleted: "C", Inserted: "G", AlleleCount: 508, TotalCount: 5008},
	}, obs)
}

func TestParse_Merged(t *testing.T) {
	rec := loadRecord(t, "rs100.json")

	assert.Equal(t, "rs328", rec.MergedInto())
	assert.Nil(t, rec.AlleleAnnotations())
	assert.Empty(t, rec.Observations())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`{"refsnp_id": [`))
	assert.Error(t, err)
}

func TestNumber(t *testing.T) {
	tests := []struct {
		id      string
		want    uint64
		wantErr bool
	}{
		{"rs1", 1, false},
		{"rs123456789", 123456789, false},
		{"i3000001", 0, true},
		{"rs", 0, true},
		{"RS12", 0, true},
		{"rs12a", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := Number(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIdentifier)
				assert.False(t, IsIdentifier(tt.id))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsIdentifier(tt.id))
		})
	}
}
