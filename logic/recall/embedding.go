package recall

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cloudwego/eino-ext/components/embedding/ollama"
	"github.com/cloudwego/eino/components/embedding"
	"go.uber.org/zap"
)

// NewEmbedder 用 Ollama 的 embedding 模型，外面再包一层 CleanEmbedder
func NewEmbedder(ctx context.Context, baseURL, model string, log *zap.Logger) (*CleanEmbedder, error) {
	emb, err := ollama.NewEmbedder(ctx, &ollama.EmbeddingConfig{
		BaseURL: baseURL,
		Model:   model,
		Timeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("new ollama embedder: %w", err)
	}
	return NewCleanEmbedder(emb, log), nil
}

// CleanEmbedder 包装原始 embedder，把 NaN/Inf 置 0，否则 Milvus 写入会失败
type CleanEmbedder struct {
	inner embedding.Embedder
	log   *zap.Logger
}

func NewCleanEmbedder(inner embedding.Embedder, log *zap.Logger) *CleanEmbedder {
	if log == nil {
		log = zap.NewNop()
	}
	return &CleanEmbedder{inner: inner, log: log}
}

func (e *CleanEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	vectors, err := e.inner.EmbedStrings(ctx, texts, opts...)
	if err != nil {
		return nil, err
	}

	cleaned := 0
	for _, vec := range vectors {
		for j, val := range vec {
			if math.IsNaN(val) || math.IsInf(val, 0) {
				vec[j] = 0
				cleaned++
			}
		}
	}
	if cleaned > 0 {
		e.log.Warn("embedding contained NaN/Inf values", zap.Int("cleaned", cleaned), zap.Int("texts", len(texts)))
	}
	return vectors, nil
}
