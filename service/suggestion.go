package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"rfq-match/logic/extract"
	"rfq-match/types"
)

var (
	// ErrEmptySuggestion 条目和需求描述都为空
	ErrEmptySuggestion = errors.New("items or requirements are required")
	ErrInvalidSupplier = errors.New("supplier id and name are required")
	ErrInvalidFeedback = errors.New("document_id, supplier_id and label are required")
)

// Suggest 不经过文档抽取，直接按条目+需求描述排序，阈值比流水线宽松
func (s *MatchService) Suggest(ctx context.Context, in types.SuggestRequest) ([]types.SupplierMatchResult, error) {
	if len(in.Items) == 0 && len(nonBlank(in.Requirements)) == 0 {
		return nil, ErrEmptySuggestion
	}
	cfg := s.engine.Config()
	req := s.inlineRequirement(in)

	minScore := cfg.SuggestionMinScore
	if p := in.Preferences.MinScore; p != nil {
		minScore = min(max(*p, 0), 1)
	}
	topN := cfg.TopN
	if in.Preferences.TopN > 0 {
		topN = in.Preferences.TopN
	}

	suppliers, err := s.candidates(ctx, req)
	if err != nil {
		return nil, err
	}
	ranked, err := s.engine.FilterByThreshold(ctx, req, suppliers, minScore)
	if err != nil {
		return nil, err
	}
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	s.log.Debug("suggestions",
		zap.String("request_id", req.DocumentID),
		zap.Int("candidates", len(suppliers)),
		zap.Int("returned", len(ranked)),
		zap.Float64("min_score", minScore))
	return ranked, nil
}

// inlineRequirement 条目名和需求描述跑一遍规则抽取，再和显式偏好合并
func (s *MatchService) inlineRequirement(in types.SuggestRequest) *types.StructuredRequirement {
	prefs := in.Preferences
	lines := nonBlank(in.Requirements)
	keywords, flags := extract.InlineSignals(in.Items, lines)
	flags.TAARequired = flags.TAARequired || prefs.TAARequired
	flags.BrandRestrictions = mergeUnique(prefs.Brands, flags.BrandRestrictions)
	flags.RequiredCertifications = mergeUnique(prefs.Certifications, flags.RequiredCertifications)
	return &types.StructuredRequirement{
		DocumentID:       "suggest-" + s.newID(),
		Dialect:          types.DialectInline,
		Confidence:       1,
		ExtractedAt:      s.now(),
		Items:            in.Items,
		Requirements:     lines,
		Keywords:         keywords,
		DeliveryLocation: strings.TrimSpace(prefs.DeliveryLocation),
		Compliance:       flags,
		RuleConfidence:   1,
	}
}

// GetMatches 先查缓存再查 PG。跑过排序但没有供应商过阈值时 Found=true、Matches 为空；
// 从没跑过时 Found=false
func (s *MatchService) GetMatches(ctx context.Context, documentID string) (*types.MatchesResponse, error) {
	resp := &types.MatchesResponse{DocumentID: documentID, Matches: []types.StoredMatch{}}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, documentID)
		if err != nil {
			s.log.Warn("match cache unavailable", zap.String("document_id", documentID), zap.Error(err))
		}
		if ok {
			resp.Found = true
			if cached != nil {
				resp.Matches = cached
			}
			return resp, nil
		}
	}

	stored, found, err := s.matches.GetMatches(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get matches: %w", err)
	}
	if !found {
		return resp, nil
	}
	resp.Found = true
	if stored != nil {
		resp.Matches = stored
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, documentID, resp.Matches); err != nil {
			s.log.Warn("fill match cache", zap.String("document_id", documentID), zap.Error(err))
		}
	}
	return resp, nil
}

// SubmitFeedback 只追加，不影响打分
func (s *MatchService) SubmitFeedback(ctx context.Context, in types.FeedbackRequest) (*types.Feedback, error) {
	if in.DocumentID == "" || in.SupplierID == "" || in.Label == "" {
		return nil, ErrInvalidFeedback
	}
	fb := &types.Feedback{
		ID:         s.newID(),
		DocumentID: in.DocumentID,
		SupplierID: in.SupplierID,
		Label:      strings.ToLower(strings.TrimSpace(in.Label)),
		Rating:     min(max(in.Rating, 0), 5),
		Comment:    in.Comment,
		CreatedAt:  s.now(),
	}
	if err := s.matches.AppendFeedback(ctx, fb); err != nil {
		return nil, fmt.Errorf("append feedback: %w", err)
	}
	return fb, nil
}

// UpsertSupplier 写目录后尽量同步召回索引，索引失败等定时任务补齐
func (s *MatchService) UpsertSupplier(ctx context.Context, sup *types.Supplier) error {
	if strings.TrimSpace(sup.ID) == "" || strings.TrimSpace(sup.Name) == "" {
		return ErrInvalidSupplier
	}
	if sup.Status == "" {
		sup.Status = types.SupplierActive
	}
	if err := s.catalog.UpsertSupplier(ctx, sup); err != nil {
		return fmt.Errorf("upsert supplier: %w", err)
	}
	for _, idx := range s.indexers {
		if _, err := idx.IndexSuppliers(ctx, []types.Supplier{*sup}); err != nil {
			s.log.Warn("index supplier", zap.String("supplier_id", sup.ID), zap.Error(err))
		}
	}
	return nil
}

// mergeUnique 保持先后顺序，忽略大小写去重
func mergeUnique(a, b []string) []string {
	if len(a)+len(b) == 0 {
		return nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(a)+len(b))
	for _, v := range append(append([]string{}, a...), b...) {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
