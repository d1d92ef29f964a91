package match

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rfq-match/monitor"
	"rfq-match/types"
)

// Engine 在一组供应商上跑全部适用策略，合成综合分并排序
type Engine struct {
	cfg        Config
	strategies []Strategy
	adjuster   WeightAdjuster
	log        *zap.Logger
	now        func() time.Time
}

type EngineOption func(*Engine)

// WithStrategies 替换默认策略集合
func WithStrategies(strategies ...Strategy) EngineOption {
	return func(e *Engine) { e.strategies = strategies }
}

func WithWeightAdjuster(a WeightAdjuster) EngineOption {
	return func(e *Engine) {
		if a != nil {
			e.adjuster = a
		}
	}
}

func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(cfg Config, log *zap.Logger, opts ...EngineOption) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	e := &Engine{
		cfg:        cfg,
		strategies: DefaultStrategies(cfg),
		adjuster:   IdentityAdjuster{},
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Config() Config { return e.cfg }

// RankSuppliers 按综合分降序返回全部在用供应商的结果，分数相同按 ID 升序
func (e *Engine) RankSuppliers(ctx context.Context, req *types.StructuredRequirement, suppliers []types.Supplier) ([]types.SupplierMatchResult, error) {
	if req == nil {
		return nil, fmt.Errorf("rank suppliers: nil requirement")
	}
	start := time.Now()
	defer func() { monitor.RankingDuration.Observe(time.Since(start).Seconds()) }()

	applicable := make([]Strategy, 0, len(e.strategies))
	for _, s := range e.strategies {
		if s.IsApplicable(req) {
			applicable = append(applicable, s)
		}
	}

	active := make([]*types.Supplier, 0, len(suppliers))
	for i := range suppliers {
		if suppliers[i].IsActive() {
			active = append(active, &suppliers[i])
		}
	}

	// 每个 goroutine 只写自己的下标，排序在全部完成之后做
	results := make([]types.SupplierMatchResult, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, sup := range active {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.evaluate(req, sup, applicable)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CompositeScore != results[j].CompositeScore {
			return results[i].CompositeScore > results[j].CompositeScore
		}
		return results[i].SupplierID < results[j].SupplierID
	})

	e.log.Debug("suppliers ranked",
		zap.String("document_id", req.DocumentID),
		zap.Int("candidates", len(suppliers)),
		zap.Int("active", len(active)),
		zap.Int("strategies", len(applicable)),
		zap.Duration("took", time.Since(start)),
	)
	return results, nil
}

// TopN 排序后截取前 n 个，n<=0 用配置的默认值
func (e *Engine) TopN(ctx context.Context, req *types.StructuredRequirement, suppliers []types.Supplier, n int) ([]types.SupplierMatchResult, error) {
	if n <= 0 {
		n = e.cfg.TopN
	}
	ranked, err := e.RankSuppliers(ctx, req, suppliers)
	if err != nil {
		return nil, err
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// FilterByThreshold 只保留综合分不低于 minScore 的结果，顺序不变
func (e *Engine) FilterByThreshold(ctx context.Context, req *types.StructuredRequirement, suppliers []types.Supplier, minScore float64) ([]types.SupplierMatchResult, error) {
	ranked, err := e.RankSuppliers(ctx, req, suppliers)
	if err != nil {
		return nil, err
	}
	out := ranked[:0]
	for _, r := range ranked {
		if r.CompositeScore >= minScore {
			out = append(out, r)
		}
	}
	return out, nil
}

func (e *Engine) evaluate(req *types.StructuredRequirement, sup *types.Supplier, strategies []Strategy) types.SupplierMatchResult {
	res := types.SupplierMatchResult{
		SupplierID:   sup.ID,
		SupplierName: sup.Name,
		Scores:       make([]types.MatchScore, 0, len(strategies)),
	}

	var weighted, weights, confidence float64
	for _, s := range strategies {
		score, err := e.safeScore(s, req, sup)
		if err != nil {
			monitor.StrategyErrors.WithLabelValues(s.Name()).Inc()
			e.log.Warn("strategy failed, excluded from composite",
				zap.String("strategy", s.Name()),
				zap.String("supplier_id", sup.ID),
				zap.Error(err),
			)
			res.Errors = append(res.Errors, types.StrategyFailure{Strategy: s.Name(), Message: err.Error()})
			continue
		}
		score.Value = clamp01(score.Value)
		score.Confidence = clamp01(score.Confidence)
		score.Strategy = s.Name()
		score.ScoredAt = e.now()
		res.Scores = append(res.Scores, score)

		w := e.adjuster.Adjust(s.Name(), s.Weight())
		weighted += score.Value * w
		weights += w
		confidence += score.Confidence

		if failures, err := cast.ToStringSliceE(score.Details[DetailCriticalFailures]); err == nil {
			res.CriticalFailures = append(res.CriticalFailures, failures...)
		}
	}

	if weights > 0 {
		res.CompositeScore = clamp01(weighted / weights)
	}
	if n := len(res.Scores); n > 0 {
		res.Confidence = confidence / float64(n)
	}
	e.narrate(&res)
	return res
}

// safeScore 策略 panic 也当作该策略失败处理
func (e *Engine) safeScore(s Strategy, req *types.StructuredRequirement, sup *types.Supplier) (score types.MatchScore, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &types.StrategyError{Strategy: s.Name(), SupplierID: sup.ID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	score, err = s.Score(req, sup)
	if err != nil {
		err = &types.StrategyError{Strategy: s.Name(), SupplierID: sup.ID, Err: err}
	}
	return score, err
}

// narrate 生成给人看的优势/劣势/建议，不参与打分
func (e *Engine) narrate(res *types.SupplierMatchResult) {
	for _, score := range res.Scores {
		name, v := score.Strategy, score.Value
		switch {
		case v >= e.cfg.StrengthThreshold:
			res.Strengths = append(res.Strengths, fmt.Sprintf("strong %s match (%.2f)", name, v))
		case v <= e.cfg.WeaknessThreshold:
			res.Weaknesses = append(res.Weaknesses, fmt.Sprintf("weak %s match (%.2f)", name, v))
		}
	}
	res.Weaknesses = append(res.Weaknesses, res.CriticalFailures...)

	for _, cf := range res.CriticalFailures {
		switch {
		case strings.Contains(cf, "TAA"):
			res.Recommendations = append(res.Recommendations, "confirm TAA country-of-origin for quoted items before award")
		case strings.Contains(cf, "authorized reseller"):
			res.Recommendations = append(res.Recommendations, "request manufacturer authorization letter or consider an authorized partner")
		}
	}
	if len(res.Errors) > 0 {
		res.Recommendations = append(res.Recommendations, "some scoring strategies failed; review this supplier manually")
	}
	if res.CompositeScore >= e.cfg.StrengthThreshold && len(res.CriticalFailures) == 0 {
		res.Recommendations = append(res.Recommendations, "strong candidate; request a quote")
	}
	res.Recommendations = dedupeStrings(res.Recommendations)
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
