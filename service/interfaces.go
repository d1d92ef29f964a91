package service

import (
	"context"

	"rfq-match/logic/recall"
	"rfq-match/types"
)

// DocumentExtractor 分类 + 抽取 + 校验，由 extract.Dispatcher 实现
type DocumentExtractor interface {
	Extract(ctx context.Context, doc *types.Document) (*types.ExtractionResult, error)
}

// CatalogStore 供应商目录 (PG)
type CatalogStore interface {
	ListActiveSuppliers(ctx context.Context) ([]types.Supplier, error)
	UpsertSupplier(ctx context.Context, s *types.Supplier) error
}

// MatchStore 排序历史 + 反馈 (PG)
type MatchStore interface {
	AppendMatchHistory(ctx context.Context, run *types.MatchRun) error
	// GetMatches found 表示该文档跑过排序，与结果条数无关
	GetMatches(ctx context.Context, documentID string) ([]types.StoredMatch, bool, error)
	AppendFeedback(ctx context.Context, fb *types.Feedback) error
}

// EventPublisher 下游事件 (Kafka)
type EventPublisher interface {
	PublishDocumentClassified(ctx context.Context, ev types.DocumentClassified) error
	PublishSuppliersRanked(ctx context.Context, ev types.SuppliersRanked) error
}

// SupplierRecall ES + Milvus 候选召回
type SupplierRecall interface {
	Enabled() bool
	Recall(ctx context.Context, req *types.StructuredRequirement) ([]recall.Candidate, error)
}

// MatchCache 排序结果读缓存 (Redis)
type MatchCache interface {
	Get(ctx context.Context, documentID string) ([]types.StoredMatch, bool, error)
	Set(ctx context.Context, documentID string, matches []types.StoredMatch) error
	Invalidate(ctx context.Context, documentID string) error
}

// SupplierIndexer 供应商变更后立即同步到召回索引
type SupplierIndexer interface {
	IndexSuppliers(ctx context.Context, suppliers []types.Supplier) (int, error)
}
