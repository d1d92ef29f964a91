package recall

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rfq-match/types"
)

var (
	// ErrDisabled 两路检索都没有配置
	ErrDisabled = errors.New("supplier recall disabled")
	// ErrEmptyQuery 需求里没有可用于检索的文本
	ErrEmptyQuery = errors.New("empty recall query")
)

// KeywordSearcher ES 关键词检索
type KeywordSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]*schema.Document, error)
}

// Recaller 两路并发检索 + 融合，任一路失败时只用另一路
type Recaller struct {
	keyword KeywordSearcher
	vector  retriever.Retriever
	cfg     FusionConfig
	log     *zap.Logger
}

// NewRecaller keyword / vector 都可以为 nil
func NewRecaller(keyword KeywordSearcher, vector retriever.Retriever, cfg FusionConfig, log *zap.Logger) *Recaller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recaller{keyword: keyword, vector: vector, cfg: cfg, log: log}
}

// Enabled 至少配置了一路
func (r *Recaller) Enabled() bool {
	return r != nil && (r.keyword != nil || r.vector != nil)
}

// Recall 返回融合后的候选，两路都失败才返回错误
func (r *Recaller) Recall(ctx context.Context, req *types.StructuredRequirement) ([]Candidate, error) {
	if !r.Enabled() {
		return nil, ErrDisabled
	}
	query := RequirementQuery(req)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	var vectorDocs, keywordDocs []*schema.Document
	var vectorErr, keywordErr error

	// 两路互不影响，错误只记录不中断
	var g errgroup.Group
	if r.vector != nil {
		g.Go(func() error {
			vectorDocs, vectorErr = r.vector.Retrieve(ctx, query, retriever.WithTopK(r.cfg.TopK))
			return nil
		})
	}
	if r.keyword != nil {
		g.Go(func() error {
			keywordDocs, keywordErr = r.keyword.Search(ctx, query, r.cfg.TopK)
			return nil
		})
	}
	_ = g.Wait()

	if vectorErr != nil {
		r.log.Warn("vector recall failed", zap.String("document_id", req.DocumentID), zap.Error(vectorErr))
	}
	if keywordErr != nil {
		r.log.Warn("keyword recall failed", zap.String("document_id", req.DocumentID), zap.Error(keywordErr))
	}
	vectorOK := r.vector != nil && vectorErr == nil
	keywordOK := r.keyword != nil && keywordErr == nil
	if !vectorOK && !keywordOK {
		return nil, fmt.Errorf("recall: %w", errors.Join(vectorErr, keywordErr))
	}

	candidates := Fuse(vectorDocs, keywordDocs, r.cfg)
	r.log.Debug("suppliers recalled",
		zap.String("document_id", req.DocumentID),
		zap.Int("vector_hits", len(vectorDocs)),
		zap.Int("keyword_hits", len(keywordDocs)),
		zap.Int("candidates", len(candidates)),
	)
	return candidates, nil
}

// CandidateIDs 按融合顺序取 ID
func CandidateIDs(candidates []Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.SupplierID
	}
	return ids
}
