package milvus

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfq-match/logic/recall"
)

func TestSupplierRows(t *testing.T) {
	docs := []*schema.Document{
		{ID: "sup-a", Content: "Capital Tech Partners", MetaData: map[string]any{recall.MetaHomeState: "MD"}},
		{ID: "sup-b", Content: "Pacific Office Supply"},
	}
	rows, err := supplierRows(context.Background(), docs, [][]float64{{0.5, 0.25}, {1, 0}})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0].(map[string]interface{})
	assert.Equal(t, "sup-a", first[fieldID])
	assert.Equal(t, []float32{0.5, 0.25}, first[fieldVector])
	assert.Equal(t, "MD", first[fieldHomeState])
	assert.JSONEq(t, `{"home_state":"MD"}`, string(first[fieldMetadata].([]byte)))

	second := rows[1].(map[string]interface{})
	assert.Equal(t, "", second[fieldHomeState])
	assert.Equal(t, "{}", string(second[fieldMetadata].([]byte)))

	_, err = supplierRows(context.Background(), docs, [][]float64{{1}})
	assert.Error(t, err)
}

func TestSearchResultToDocuments(t *testing.T) {
	result := client.SearchResult{
		ResultCount: 2,
		IDs:         entity.NewColumnVarChar(fieldID, []string{"sup-a", "sup-b"}),
		Scores:      []float32{0, 3},
		Fields: []entity.Column{
			entity.NewColumnVarChar(fieldContent, []string{"Capital Tech Partners", "Pacific Office Supply"}),
			entity.NewColumnVarChar(fieldHomeState, []string{"MD", "CA"}),
		},
	}
	docs, err := searchResultToDocuments(context.Background(), result)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "sup-a", docs[0].ID)
	assert.Equal(t, 1.0, docs[0].Score())
	assert.Equal(t, "Capital Tech Partners", docs[0].Content)
	assert.Equal(t, "MD", docs[0].MetaData[recall.MetaHomeState])
	assert.Equal(t, 0.25, docs[1].Score())

	empty, err := searchResultToDocuments(context.Background(), client.SearchResult{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSupplierFields(t *testing.T) {
	fields := supplierFields(768)
	require.Len(t, fields, 5)
	assert.True(t, fields[0].PrimaryKey)
	assert.Equal(t, "768", fields[1].TypeParams["dim"])
}
