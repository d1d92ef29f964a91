package milvus

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/retriever/milvus"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"rfq-match/logic/recall"
)

// NewSupplierRetriever 语义检索供应商画像，返回的分数已从 L2 距离换算成相似度
func NewSupplierRetriever(ctx context.Context, cli client.Client, emb embedding.Embedder, collection string, topK int) (retriever.Retriever, error) {
	retr, err := milvus.NewRetriever(ctx, &milvus.RetrieverConfig{
		Client:            cli,
		Collection:        collection,
		VectorField:       fieldVector,
		OutputFields:      []string{fieldContent, fieldHomeState},
		DocumentConverter: searchResultToDocuments,
		MetricType:        entity.L2,
		TopK:              topK,
		Embedding:         emb,
	})
	if err != nil {
		return nil, fmt.Errorf("new milvus retriever: %w", err)
	}
	return retr, nil
}

// searchResultToDocuments L2 距离越小越相似，换成 1/(1+d) 后越大越好，才能和 ES 分数一起融合
func searchResultToDocuments(_ context.Context, result client.SearchResult) ([]*schema.Document, error) {
	if result.IDs == nil {
		return nil, nil
	}
	docs := make([]*schema.Document, result.IDs.Len())
	for i := 0; i < result.IDs.Len(); i++ {
		id, err := result.IDs.GetAsString(i)
		if err != nil {
			return nil, fmt.Errorf("milvus result id: %w", err)
		}
		doc := &schema.Document{ID: id, MetaData: map[string]any{}}
		if i < len(result.Scores) {
			doc = doc.WithScore(distanceToSimilarity(float64(result.Scores[i])))
		}
		for _, field := range result.Fields {
			switch field.Name() {
			case fieldContent:
				if v, err := field.GetAsString(i); err == nil {
					doc.Content = v
				}
			case fieldHomeState:
				if v, err := field.GetAsString(i); err == nil {
					doc.MetaData[recall.MetaHomeState] = v
				}
			}
		}
		docs[i] = doc
	}
	return docs, nil
}

func distanceToSimilarity(d float64) float64 {
	if d < 0 {
		d = 0
	}
	return 1 / (1 + d)
}
