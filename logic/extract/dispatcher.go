package extract

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"rfq-match/monitor"
	"rfq-match/types"
)

// MinDialectConfidence 最高分低于该值时强制使用兜底抽取器
const MinDialectConfidence = 0.1

// Dispatcher 按置信度为文档挑选抽取器
type Dispatcher struct {
	extractors []Extractor
	fallback   Extractor
	log        *zap.Logger
}

// NewDispatcher extractors 的注册顺序就是平分时的优先顺序
func NewDispatcher(log *zap.Logger, fallback Extractor, extractors ...Extractor) *Dispatcher {
	return &Dispatcher{
		extractors: extractors,
		fallback:   fallback,
		log:        log.Named("dispatcher"),
	}
}

// NewDefaultDispatcher NASA SEWP、GSA eBuy、DLA DIBBS，最后是 generic
func NewDefaultDispatcher(infer Inferencer, log *zap.Logger, opts ...Option) *Dispatcher {
	generic := NewGenericExtractor(infer, log, opts...)
	return NewDispatcher(log, generic,
		NewNASASEWPExtractor(infer, log, opts...),
		NewGSAEBuyExtractor(infer, log, opts...),
		NewDLADibbsExtractor(infer, log, opts...),
		generic,
	)
}

// Select 返回最高分的抽取器；严格大于才替换，所以平分时先注册的胜出
func (d *Dispatcher) Select(doc *types.Document) (Extractor, types.Selection) {
	scores := make([]types.DialectScore, 0, len(d.extractors))
	var best Extractor
	bestScore := -1.0
	for _, ex := range d.extractors {
		c := ex.Confidence(doc)
		scores = append(scores, types.DialectScore{Dialect: ex.Dialect(), Confidence: c})
		if c > bestScore {
			best, bestScore = ex, c
		}
	}

	sel := types.Selection{Scores: scores}
	if best == nil || bestScore < MinDialectConfidence {
		best = d.fallback
		sel.Forced = true
	}
	sel.Dialect = best.Dialect()
	sel.Confidence = max(bestScore, 0)

	fields := make([]zap.Field, 0, len(scores)+3)
	if doc != nil {
		fields = append(fields, zap.String("document_id", doc.ID))
	}
	fields = append(fields, zap.String("selected", sel.Dialect), zap.Bool("forced", sel.Forced))
	for _, s := range scores {
		fields = append(fields, zap.Float64(s.Dialect, s.Confidence))
	}
	d.log.Info("dialect scores", fields...)
	monitor.DocumentsClassified.WithLabelValues(sel.Dialect, strconv.FormatBool(sel.Forced)).Inc()

	return best, sel
}

// Extract 选择 + 抽取 + 校验
func (d *Dispatcher) Extract(ctx context.Context, doc *types.Document) (*types.ExtractionResult, error) {
	ex, sel := d.Select(doc)
	req, err := ex.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &types.ExtractionResult{
		Requirement: req,
		Validation:  ex.Validate(req),
		Selection:   sel,
	}, nil
}
