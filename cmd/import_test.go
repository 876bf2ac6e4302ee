package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDocuments(t *testing.T) {
	docs, err := decodeDocuments([]byte(`  {"id":"E1","type":"BIRTH","actions":[]}`))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "E1", docs[0].ID)

	docs, err = decodeDocuments([]byte(`[{"id":"E1","type":"BIRTH"},{"id":"E2","type":"DEATH"}]`))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "E2", docs[1].ID)

	_, err = decodeDocuments([]byte(`[{"id":`))
	assert.Error(t, err)
}
