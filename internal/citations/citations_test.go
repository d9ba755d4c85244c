package citations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	set, err := LoadFile("testdata/var_citations.txt")
	require.NoError(t, err)
	assert.Equal(t, Set{"rs397704705": true, "rs7412": true}, set)
}

func TestRead(t *testing.T) {
	in := "#AlleleID\tVariationID\trs\tnsv\tcitation_source\tcitation_id\n" +
		"15041\t2\t397704705\t\tPubMed\t20613862\n"

	records, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "397704705", records[0].RS)
	assert.Equal(t, "PubMed", records[0].CitationSource)
	assert.Equal(t, "15041", records[0].AlleleID)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("testdata/nope.txt")
	assert.Error(t, err)
}

func TestSetFilter(t *testing.T) {
	s := Set{"rs1": true, "rs3": true}
	assert.Equal(t, []string{"rs3", "rs1"}, s.Filter([]string{"rs3", "rs2", "rs1"}))
	assert.Empty(t, s.Filter([]string{"rs2"}))
}
