package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rfq-match/logic/extract"
	"rfq-match/logic/match"
	"rfq-match/logic/recall"
	"rfq-match/monitor"
	"rfq-match/types"
)

// MatchService 文档流水线 (分类 -> 抽取 -> 召回 -> 排序 -> 持久化 -> 事件) 以及对外查询接口
type MatchService struct {
	extractor DocumentExtractor
	engine    *match.Engine
	catalog   CatalogStore
	matches   MatchStore

	// 以下可选，nil 表示未启用
	recall   SupplierRecall
	cache    MatchCache
	events   EventPublisher
	indexers []SupplierIndexer

	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

type Option func(*MatchService)

func WithRecall(r SupplierRecall) Option {
	return func(s *MatchService) { s.recall = r }
}

func WithCache(c MatchCache) Option {
	return func(s *MatchService) { s.cache = c }
}

func WithPublisher(p EventPublisher) Option {
	return func(s *MatchService) { s.events = p }
}

func WithSupplierIndexers(idx ...SupplierIndexer) Option {
	return func(s *MatchService) { s.indexers = append(s.indexers, idx...) }
}

func WithClock(now func() time.Time) Option {
	return func(s *MatchService) { s.now = now }
}

func WithIDGenerator(f func() string) Option {
	return func(s *MatchService) { s.newID = f }
}

func NewMatchService(extractor DocumentExtractor, engine *match.Engine, catalog CatalogStore, matches MatchStore, log *zap.Logger, opts ...Option) *MatchService {
	s := &MatchService{
		extractor: extractor,
		engine:    engine,
		catalog:   catalog,
		matches:   matches,
		log:       log.Named("service"),
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process 完整处理一个文档。校验有硬错误时不排序，只返回抽取结果。
// 目录/历史读写失败返回 TransientServiceError，调用方 (消费者) 会重试；重复处理覆盖上一次结果
func (s *MatchService) Process(ctx context.Context, doc *types.Document) (*types.ProcessResult, error) {
	if doc == nil {
		return nil, &types.ExtractionError{Dialect: types.DialectGeneric, Err: errors.New("nil document")}
	}
	doc = extract.NormalizeDocument(doc)
	if doc.ID == "" {
		doc.ID = s.newID()
	}
	start := s.now()

	ext, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}
	req := ext.Requirement
	s.publishClassified(ctx, doc.ID, ext)

	result := &types.ProcessResult{Extraction: *ext, Degraded: req.ModelDegraded}
	if !ext.Validation.IsValid {
		s.log.Warn("validation failed, manual review required",
			zap.String("document_id", doc.ID),
			zap.String("dialect", req.Dialect),
			zap.Strings("errors", ext.Validation.Errors))
		return result, nil
	}

	suppliers, err := s.candidates(ctx, req)
	if err != nil {
		return nil, &types.TransientServiceError{Service: "catalog", Err: err}
	}

	cfg := s.engine.Config()
	ranked, err := s.engine.FilterByThreshold(ctx, req, suppliers, cfg.PipelineMinScore)
	if err != nil {
		return nil, err
	}
	if len(ranked) > cfg.TopN {
		ranked = ranked[:cfg.TopN]
	}
	for i := range ranked {
		if len(ranked[i].Errors) > 0 {
			result.Degraded = true
		}
	}
	result.Matches = ranked

	run := &types.MatchRun{
		DocumentID: doc.ID,
		Dialect:    req.Dialect,
		Candidates: len(suppliers),
		Results:    ranked,
		RankedAt:   s.now(),
	}
	if err := s.matches.AppendMatchHistory(ctx, run); err != nil {
		return nil, &types.TransientServiceError{Service: "postgres", Err: fmt.Errorf("append match history: %w", err)}
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, doc.ID); err != nil {
			s.log.Warn("invalidate match cache", zap.String("document_id", doc.ID), zap.Error(err))
		}
	}
	s.publishRanked(ctx, doc.ID, ranked)

	s.log.Info("document processed",
		zap.String("document_id", doc.ID),
		zap.String("dialect", req.Dialect),
		zap.Float64("confidence", req.Confidence),
		zap.Int("candidates", len(suppliers)),
		zap.Int("matches", len(ranked)),
		zap.Bool("degraded", result.Degraded),
		zap.Duration("cost", s.now().Sub(start)))
	return result, nil
}

// candidates 总是对全部在用供应商打分。召回只调整顺序 (命中的排前面)，
// 召回漏掉的供应商照样进入排序；召回不可用/失败/为空时按目录原顺序
func (s *MatchService) candidates(ctx context.Context, req *types.StructuredRequirement) ([]types.Supplier, error) {
	suppliers, err := s.catalog.ListActiveSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	if s.recall == nil || !s.recall.Enabled() {
		return suppliers, nil
	}

	cands, err := s.recall.Recall(ctx, req)
	switch {
	case errors.Is(err, recall.ErrEmptyQuery):
		monitor.RecallFallbacks.WithLabelValues("empty_query").Inc()
	case err != nil:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		monitor.RecallFallbacks.WithLabelValues("error").Inc()
		s.log.Warn("supplier recall failed", zap.String("document_id", req.DocumentID), zap.Error(err))
	case len(cands) == 0:
		monitor.RecallFallbacks.WithLabelValues("empty").Inc()
	default:
		ordered, hits := recalledFirst(suppliers, recall.CandidateIDs(cands))
		if hits == 0 {
			// 索引里的供应商都已下线
			monitor.RecallFallbacks.WithLabelValues("stale_index").Inc()
		}
		s.log.Debug("candidates ordered by recall",
			zap.String("document_id", req.DocumentID),
			zap.Int("recalled", hits),
			zap.Int("catalog", len(suppliers)))
		return ordered, nil
	}
	return suppliers, nil
}

// recalledFirst 召回命中的按融合顺序排前面，其余保持目录顺序；返回命中数
func recalledFirst(suppliers []types.Supplier, ids []string) ([]types.Supplier, int) {
	pos := make(map[string]int, len(suppliers))
	for i, sup := range suppliers {
		pos[sup.ID] = i
	}
	taken := make([]bool, len(suppliers))
	out := make([]types.Supplier, 0, len(suppliers))
	for _, id := range ids {
		if i, ok := pos[id]; ok && !taken[i] {
			taken[i] = true
			out = append(out, suppliers[i])
		}
	}
	hits := len(out)
	for i, sup := range suppliers {
		if !taken[i] {
			out = append(out, sup)
		}
	}
	return out, hits
}

// 事件发布失败只记日志，不影响已经持久化的结果
func (s *MatchService) publishClassified(ctx context.Context, docID string, ext *types.ExtractionResult) {
	if s.events == nil {
		return
	}
	err := s.events.PublishDocumentClassified(ctx, types.DocumentClassified{
		DocumentID:        docID,
		Dialect:           ext.Requirement.Dialect,
		Confidence:        ext.Requirement.Confidence,
		IsValid:           ext.Validation.IsValid,
		RecommendedAction: ext.Validation.RecommendedAction,
		OccurredAt:        s.now(),
	})
	if err != nil {
		s.log.Warn("publish document classified", zap.String("document_id", docID), zap.Error(err))
	}
}

func (s *MatchService) publishRanked(ctx context.Context, docID string, ranked []types.SupplierMatchResult) {
	if s.events == nil {
		return
	}
	suppliers := make([]types.RankedSupplier, len(ranked))
	for i, r := range ranked {
		suppliers[i] = types.RankedSupplier{
			SupplierID:     r.SupplierID,
			CompositeScore: r.CompositeScore,
			Confidence:     r.Confidence,
		}
	}
	err := s.events.PublishSuppliersRanked(ctx, types.SuppliersRanked{
		DocumentID: docID,
		Suppliers:  suppliers,
		OccurredAt: s.now(),
	})
	if err != nil {
		s.log.Warn("publish suppliers ranked", zap.String("document_id", docID), zap.Error(err))
	}
}
