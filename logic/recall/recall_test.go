package recall

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rfq-match/types"
)

func scored(id string, score float64) *schema.Document {
	return (&schema.Document{ID: id, MetaData: map[string]any{}}).WithScore(score)
}

type fakeRetriever struct {
	docs  []*schema.Document
	err   error
	query string
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, _ ...retriever.Option) ([]*schema.Document, error) {
	f.query = query
	return f.docs, f.err
}

type fakeSearcher struct {
	docs []*schema.Document
	err  error
	topK int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, topK int) ([]*schema.Document, error) {
	f.topK = topK
	return f.docs, f.err
}

func laptopReq() *types.StructuredRequirement {
	return &types.StructuredRequirement{
		DocumentID: "doc-1",
		Title:      "Dell Latitude laptops",
		Items:      []types.LineItem{{Name: "Dell Latitude 5440 laptop"}},
		Compliance: types.ComplianceFlags{BrandRestrictions: []string{"Dell"}},
		Keywords:   []string{"laptop"},
	}
}

func TestFuse(t *testing.T) {
	vector := []*schema.Document{scored("sup-a", 0.9), scored("sup-b", 0.5), scored("sup-c", 0.1)}
	keyword := []*schema.Document{scored("sup-b", 12), scored("sup-d", 4)}

	got := Fuse(vector, keyword, DefaultFusionConfig())
	require.Len(t, got, 4)

	// sup-b: vector 0.5 + keyword 1.0 = 0.6*0.5 + 0.4*1.0 = 0.7
	assert.Equal(t, "sup-b", got[0].SupplierID)
	assert.InDelta(t, 0.7, got[0].Score, 1e-9)
	assert.Equal(t, []string{SourceKeyword, SourceVector}, got[0].Sources)

	assert.Equal(t, "sup-a", got[1].SupplierID)
	assert.InDelta(t, 0.6, got[1].Score, 1e-9)

	// sup-c 与 sup-d 都是 0，按 ID 排
	assert.Equal(t, "sup-c", got[2].SupplierID)
	assert.Equal(t, "sup-d", got[3].SupplierID)

	// 入参分数不变
	assert.Equal(t, 0.9, vector[0].Score())
}

func TestFuse_EqualScoresAndTopK(t *testing.T) {
	vector := []*schema.Document{scored("sup-a", 0.3), scored("sup-b", 0.3), nil, {ID: ""}}
	got := Fuse(vector, nil, FusionConfig{VectorWeight: 0.6, KeywordWeight: 0.4, TopK: 1})
	require.Len(t, got, 1)
	assert.Equal(t, "sup-a", got[0].SupplierID)
	assert.InDelta(t, 0.6, got[0].Score, 1e-9)

	assert.Empty(t, Fuse(nil, nil, DefaultFusionConfig()))
}

func TestRecall_BothSources(t *testing.T) {
	vec := &fakeRetriever{docs: []*schema.Document{scored("sup-a", 0.8)}}
	kw := &fakeSearcher{docs: []*schema.Document{scored("sup-b", 3)}}
	r := NewRecaller(kw, vec, DefaultFusionConfig(), zap.NewNop())

	got, err := r.Recall(context.Background(), laptopReq())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sup-a", "sup-b"}, CandidateIDs(got))
	assert.Contains(t, vec.query, "Dell Latitude 5440 laptop")
	assert.Equal(t, DefaultFusionConfig().TopK, kw.topK)
}

func TestRecall_OneSourceFails(t *testing.T) {
	vec := &fakeRetriever{err: errors.New("milvus: collection not loaded")}
	kw := &fakeSearcher{docs: []*schema.Document{scored("sup-b", 3)}}
	r := NewRecaller(kw, vec, DefaultFusionConfig(), nil)

	got, err := r.Recall(context.Background(), laptopReq())
	require.NoError(t, err)
	assert.Equal(t, []string{"sup-b"}, CandidateIDs(got))
}

func TestRecall_Failures(t *testing.T) {
	vec := &fakeRetriever{err: errors.New("milvus down")}
	kw := &fakeSearcher{err: errors.New("es down")}
	_, err := NewRecaller(kw, vec, DefaultFusionConfig(), nil).Recall(context.Background(), laptopReq())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "milvus down")
	assert.Contains(t, err.Error(), "es down")

	_, err = NewRecaller(nil, nil, DefaultFusionConfig(), nil).Recall(context.Background(), laptopReq())
	assert.ErrorIs(t, err, ErrDisabled)

	var nilRecaller *Recaller
	assert.False(t, nilRecaller.Enabled())

	_, err = NewRecaller(kw, nil, DefaultFusionConfig(), nil).Recall(context.Background(), &types.StructuredRequirement{})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestRequirementQuery(t *testing.T) {
	assert.Equal(t, "Dell Latitude laptops Dell Latitude 5440 laptop Dell laptop", RequirementQuery(laptopReq()))

	onlyLines := &types.StructuredRequirement{Requirements: []string{"Provide 24x7 on-site support"}}
	assert.Equal(t, "Provide 24x7 on-site support", RequirementQuery(onlyLines))
}

func TestSupplierDocuments(t *testing.T) {
	suppliers := []types.Supplier{
		{
			ID:               "sup-a",
			Name:             "Capital Tech Partners",
			Capabilities:     []string{"end_user_computing"},
			AuthorizedBrands: map[string]string{"HP": "gold", "Dell": "platinum"},
			Certifications:   []string{"SDVOSB"},
			Geography:        types.Geography{HomeState: "MD"},
		},
		{ID: "sup-old", Name: "Retired Supply", Status: types.SupplierInactive},
	}
	docs := SupplierDocuments(suppliers)
	require.Len(t, docs, 1)
	assert.Equal(t, "sup-a", docs[0].ID)
	assert.Equal(t, "MD", docs[0].MetaData[MetaHomeState])
	assert.Equal(t, "Capital Tech Partners\ncapabilities: end user computing\nauthorized brands: Dell, HP\ncertifications: SDVOSB", docs[0].Content)
}

type nanEmbedder struct{}

func (nanEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{0.1, math.NaN(), math.Inf(1)}
	}
	return out, nil
}

func TestCleanEmbedder(t *testing.T) {
	vecs, err := NewCleanEmbedder(nanEmbedder{}, zap.NewNop()).EmbedStrings(context.Background(), []string{"laptop"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.1, 0, 0}}, vecs)
}
