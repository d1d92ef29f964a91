package es

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"rfq-match/logic/recall"
)

// Search BM25 检索在用供应商，返回的 Document.ID 是供应商 ID，分数是 _score
func (s *SupplierIndex) Search(ctx context.Context, query string, topK int) ([]*schema.Document, error) {
	body, err := json.Marshal(buildSearchQuery(query, topK))
	if err != nil {
		return nil, fmt.Errorf("encode es query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("es search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.String())
	}

	docs, err := parseHits(res.Body)
	if err != nil {
		return nil, err
	}
	s.log.Debug("es supplier search", zap.String("query", query), zap.Int("hits", len(docs)))
	return docs, nil
}

// buildSearchQuery multi_match 各字段加权，只过滤在用的
func buildSearchQuery(query string, topK int) map[string]any {
	if topK <= 0 {
		topK = 50
	}
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []map[string]any{
					{
						"multi_match": map[string]any{
							"query":  query,
							"fields": []string{"name^3", "brands^3", "capabilities^2", "profile"},
						},
					},
				},
				"filter": []map[string]any{
					{"term": map[string]any{"status": "active"}},
				},
			},
		},
		"size":    topK,
		"_source": []string{"supplier_id", "name", "home_state"},
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string         `json:"_id"`
			Score  float64        `json:"_score"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func parseHits(r io.Reader) ([]*schema.Document, error) {
	var resp searchResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode es response: %w", err)
	}
	docs := make([]*schema.Document, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		id := hit.ID
		if v, ok := hit.Source["supplier_id"].(string); ok && v != "" {
			id = v
		}
		if id == "" {
			continue
		}
		doc := &schema.Document{
			ID: id,
			MetaData: map[string]any{
				recall.MetaName:      hit.Source["name"],
				recall.MetaHomeState: hit.Source["home_state"],
			},
		}
		docs = append(docs, doc.WithScore(hit.Score))
	}
	return docs, nil
}
