// Package recall 用 ES 关键词 + Milvus 向量两路检索收窄候选供应商
package recall

import (
	"sort"

	"github.com/cloudwego/eino/schema"
)

// 候选来源
const (
	SourceVector  = "milvus"
	SourceKeyword = "es"
)

// FusionConfig 两路检索的融合配置
type FusionConfig struct {
	VectorWeight  float64 // Milvus 向量检索权重，默认 0.6
	KeywordWeight float64 // ES 关键词检索权重，默认 0.4
	TopK          int     // 最终保留的候选数，默认 50
}

func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		VectorWeight:  0.6,
		KeywordWeight: 0.4,
		TopK:          50,
	}
}

// Candidate 融合后的候选供应商
type Candidate struct {
	SupplierID string   `json:"supplier_id"`
	Score      float64  `json:"score"`
	Sources    []string `json:"sources"`
}

// Fuse 合并两路检索结果:
// 1. 每路分数各自 Min-Max 归一化到 [0,1]
// 2. 按供应商 ID 去重，同时命中两路的分数累加
// 3. 加权融合 score = vector*0.6 + keyword*0.4
// 4. 按分数降序，同分按 ID 升序，截取 TopK
func Fuse(vectorDocs, keywordDocs []*schema.Document, cfg FusionConfig) []Candidate {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultFusionConfig().TopK
	}

	byID := make(map[string]*Candidate)
	accumulate := func(docs []*schema.Document, weight float64, source string) {
		for id, score := range normalizeScores(docs) {
			c, ok := byID[id]
			if !ok {
				c = &Candidate{SupplierID: id}
				byID[id] = c
			}
			c.Score += score * weight
			c.Sources = append(c.Sources, source)
		}
	}
	accumulate(vectorDocs, cfg.VectorWeight, SourceVector)
	accumulate(keywordDocs, cfg.KeywordWeight, SourceKeyword)

	results := make([]Candidate, 0, len(byID))
	for _, c := range byID {
		sort.Strings(c.Sources)
		results = append(results, *c)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].SupplierID < results[j].SupplierID
	})

	if len(results) > cfg.TopK {
		results = results[:cfg.TopK]
	}
	return results
}

// normalizeScores Min-Max 归一化，不修改入参；同一 ID 出现多次取最高分
// 所有分数相同时全部记为 1.0
func normalizeScores(docs []*schema.Document) map[string]float64 {
	raw := make(map[string]float64, len(docs))
	for _, doc := range docs {
		if doc == nil || doc.ID == "" {
			continue
		}
		s := doc.Score()
		if prev, ok := raw[doc.ID]; !ok || s > prev {
			raw[doc.ID] = s
		}
	}
	if len(raw) == 0 {
		return raw
	}

	first := true
	var minScore, maxScore float64
	for _, s := range raw {
		if first {
			minScore, maxScore, first = s, s, false
			continue
		}
		minScore = min(minScore, s)
		maxScore = max(maxScore, s)
	}

	out := make(map[string]float64, len(raw))
	for id, s := range raw {
		if maxScore == minScore {
			out[id] = 1.0
			continue
		}
		out[id] = (s - minScore) / (maxScore - minScore)
	}
	return out
}
