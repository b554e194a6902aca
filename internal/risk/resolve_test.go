package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	records := []TaxpayerRecord{
		{TaxpayerID: "T1", TaxpayerName: "Acme"},
		{TaxpayerID: "T2", TaxpayerName: "Globex"},
	}
	index := BuildIndex(records, nil)

	rec, err := Resolve(records, index, "T2")
	require.NoError(t, err)
	assert.Equal(t, "Globex", rec.TaxpayerName)
}

func TestResolveNotFound(t *testing.T) {
	records := []TaxpayerRecord{{TaxpayerID: "T1"}}
	index := BuildIndex(records, nil)

	_, err := Resolve(records, index, "T9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBuildIndexDuplicateKeepsFirst(t *testing.T) {
	records := []TaxpayerRecord{
		{TaxpayerID: "T1", TaxpayerName: "First"},
		{TaxpayerID: "T1", TaxpayerName: "Second"},
	}
	index := BuildIndex(records, nil)

	require.Len(t, index, 1)
	rec, err := Resolve(records, index, "T1")
	require.NoError(t, err)
	assert.Equal(t, "First", rec.TaxpayerName)
}
