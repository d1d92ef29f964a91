package extract

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"rfq-match/logic/chat"
	"rfq-match/monitor"
	"rfq-match/types"
	"rfq-match/vars"
)

const (
	// 送给模型的正文上限
	maxPromptContent = 10000
	// 低于该置信度给出警告
	lowConfidence = 0.5
)

var (
	errEmptyDocument = errors.New("document has no subject or body")
	errNoInferencer  = errors.New("no inferencer configured")
)

var outputSchema = chat.SchemaFor[modelOutput]()

// dialectProfile 描述一种方言：证据、提示词、合并优先级和校验规则
type dialectProfile struct {
	dialect  string
	evidence []Evidence
	hints    string
	// rulesFirst 冲突时规则结果优先；generic 为 false，模型结果优先
	rulesFirst bool
	// ruleWeight 最终置信度里规则阶段的占比
	ruleWeight float64
	// idPattern 方言的关键编号，缺失是硬错误；nil 表示没有关键编号
	idPattern *regexp.Regexp
	// refine 方言专有的规则字段 (extras、NSN 等)
	refine   func(text string, req *types.StructuredRequirement)
	validate func(req *types.StructuredRequirement, v *types.ValidationResult)
}

// HybridExtractor 规则阶段 + 模型阶段 + 合并，所有方言共用，差异都在 dialectProfile 里
type HybridExtractor struct {
	profile dialectProfile
	infer   Inferencer
	log     *zap.Logger
	now     func() time.Time
}

type Option func(*HybridExtractor)

// WithClock 固定 ExtractedAt，测试用
func WithClock(now func() time.Time) Option {
	return func(e *HybridExtractor) { e.now = now }
}

func newHybrid(profile dialectProfile, infer Inferencer, log *zap.Logger, opts ...Option) *HybridExtractor {
	e := &HybridExtractor{
		profile: profile,
		infer:   infer,
		log:     log.Named("extractor").With(zap.String("dialect", profile.dialect)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *HybridExtractor) Dialect() string { return e.profile.dialect }

func (e *HybridExtractor) Confidence(doc *types.Document) float64 {
	return ScoreEvidence(doc, e.profile.evidence)
}

// Extract 模型阶段失败 (非取消) 不返回错误，结果标记为 ModelDegraded
func (e *HybridExtractor) Extract(ctx context.Context, doc *types.Document) (*types.StructuredRequirement, error) {
	if doc == nil || doc.IsEmpty() {
		return nil, &types.ExtractionError{Dialect: e.profile.dialect, Err: errEmptyDocument}
	}
	if err := ctx.Err(); err != nil {
		return nil, &types.ExtractionError{Dialect: e.profile.dialect, Err: err}
	}
	doc = NormalizeDocument(doc)

	rule := e.ruleExtract(doc)
	ruleConf := e.ruleCoverage(rule)

	modelReq, modelConf, err := e.modelExtract(ctx, doc)
	degraded := false
	if err != nil {
		if ctx.Err() != nil {
			return nil, &types.ExtractionError{Dialect: e.profile.dialect, Err: ctx.Err()}
		}
		e.log.Warn("model phase abandoned, using rule output only",
			zap.String("document_id", doc.ID), zap.Error(err))
		monitor.ModelDegraded.WithLabelValues(e.profile.dialect).Inc()
		modelReq, modelConf, degraded = nil, 0, true
	}

	req := e.merge(rule, modelReq)
	req.DocumentID = doc.ID
	req.Dialect = e.profile.dialect
	req.ExtractedAt = e.now()
	req.RuleConfidence = ruleConf
	req.ModelConfidence = modelConf
	req.ModelDegraded = degraded
	req.Confidence = clamp01(e.profile.ruleWeight*ruleConf + (1-e.profile.ruleWeight)*modelConf)

	e.log.Debug("extracted",
		zap.String("document_id", doc.ID),
		zap.Float64("confidence", req.Confidence),
		zap.Int("items", len(req.Items)),
		zap.Bool("degraded", degraded))
	return req, nil
}

func (e *HybridExtractor) ruleExtract(doc *types.Document) *types.StructuredRequirement {
	text := fullText(doc)
	req := &types.StructuredRequirement{
		Title:            cleanTitle(doc.Subject),
		Agency:           extractAgency(text),
		Items:            extractItems(doc.Body),
		Deadlines:        extractDeadlines(text),
		Contacts:         extractContacts(doc.Body),
		Compliance:       extractCompliance(text),
		DeliveryLocation: extractDeliveryLocation(doc.Body),
		Requirements:     extractRequirementLines(doc.Body),
		Attachments:      extractAttachments(doc),
		Keywords:         extractKeywords(text),
	}
	if e.profile.idPattern != nil {
		req.SolicitationID = firstSubmatch(e.profile.idPattern, text)
	}
	if e.profile.refine != nil {
		e.profile.refine(text, req)
	}
	fillPartNumbers(req.Items, doc.Body)
	return req
}

// ruleCoverage 规则阶段的置信度 = 命中字段的权重占比
func (e *HybridExtractor) ruleCoverage(req *types.StructuredRequirement) float64 {
	type factor struct {
		weight float64
		hit    bool
	}
	c := req.Compliance
	factors := []factor{
		{0.25, len(req.Items) > 0},
		{0.15, len(req.Deadlines) > 0},
		{0.1, len(req.Contacts) > 0},
		{0.1, req.DeliveryLocation != ""},
		{0.1, c.TAARequired || len(c.BrandRestrictions) > 0 || len(c.RequiredCertifications) > 0},
	}
	if e.profile.idPattern != nil {
		factors = append(factors, factor{0.3, req.SolicitationID != ""})
	}
	total, earned := 0.0, 0.0
	for _, f := range factors {
		total += f.weight
		if f.hit {
			earned += f.weight
		}
	}
	return earned / total
}

func (e *HybridExtractor) modelExtract(ctx context.Context, doc *types.Document) (*types.StructuredRequirement, float64, error) {
	if e.infer == nil {
		return nil, 0, errNoInferencer
	}
	fields, conf, err := e.infer.Infer(ctx, e.prompt(doc), outputSchema)
	if err != nil {
		return nil, 0, err
	}
	return fromModel(fields), clamp01(conf), nil
}

func (e *HybridExtractor) prompt(doc *types.Document) string {
	content := fmt.Sprintf("Subject: %s\nFrom: %s\n\n%s", doc.Subject, doc.Sender, doc.Body)
	if len(content) > maxPromptContent {
		content = strings.ToValidUTF8(content[:maxPromptContent], "")
	}
	prompt := strings.ReplaceAll(vars.EXTRACT_RFQ, "{{.Content}}", content)
	prompt = strings.ReplaceAll(prompt, "{{.CurrentDate}}", e.now().Format("2006-01-02"))
	return strings.ReplaceAll(prompt, "{{.Hints}}", e.profile.hints)
}

// merge 字段级合并：primary 有值就用 primary，否则用 secondary
func (e *HybridExtractor) merge(rule, model *types.StructuredRequirement) *types.StructuredRequirement {
	if model == nil {
		return rule
	}
	p, s := rule, model
	if !e.profile.rulesFirst {
		p, s = model, rule
	}
	return &types.StructuredRequirement{
		SolicitationID:   pickString(p.SolicitationID, s.SolicitationID),
		Title:            pickString(p.Title, s.Title),
		Agency:           pickString(p.Agency, s.Agency),
		Items:            pick(p.Items, s.Items),
		Deadlines:        pick(p.Deadlines, s.Deadlines),
		Contacts:         pick(p.Contacts, s.Contacts),
		DeliveryLocation: pickString(p.DeliveryLocation, s.DeliveryLocation),
		Requirements:     pick(p.Requirements, s.Requirements),
		Attachments:      dedupe(append(append([]string{}, rule.Attachments...), model.Attachments...)),
		Keywords:         dedupe(append(append([]string{}, p.Keywords...), s.Keywords...)),
		Extras:           mergeExtras(p.Extras, s.Extras),
		Compliance: types.ComplianceFlags{
			TAARequired:            p.Compliance.TAARequired || s.Compliance.TAARequired,
			BrandRestrictions:      pick(p.Compliance.BrandRestrictions, s.Compliance.BrandRestrictions),
			RequiredCertifications: pick(p.Compliance.RequiredCertifications, s.Compliance.RequiredCertifications),
			SecurityClearance:      pickString(p.Compliance.SecurityClearance, s.Compliance.SecurityClearance),
			EnvironmentalStandard:  pickString(p.Compliance.EnvironmentalStandard, s.Compliance.EnvironmentalStandard),
		},
	}
}

// Validate 只有硬错误让 IsValid=false
func (e *HybridExtractor) Validate(req *types.StructuredRequirement) types.ValidationResult {
	var v types.ValidationResult
	if req == nil {
		v.AddError("no requirement extracted")
		return v.Finalize()
	}
	if e.profile.idPattern != nil && req.SolicitationID == "" {
		v.AddError(fmt.Sprintf("missing %s solicitation id", e.profile.dialect))
	}
	if len(req.Items) == 0 {
		v.AddWarning("no line items extracted")
	}
	if !hasDeadline(req, "response") {
		v.AddWarning("no response deadline found")
	}
	if req.ModelDegraded {
		v.AddWarning("model phase unavailable, fields come from rules only")
	} else if req.Confidence < lowConfidence {
		v.AddWarning(fmt.Sprintf("low extraction confidence %.2f", req.Confidence))
	}
	if e.profile.validate != nil {
		e.profile.validate(req, &v)
	}
	return v.Finalize()
}

func hasDeadline(req *types.StructuredRequirement, kind string) bool {
	for _, d := range req.Deadlines {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

func pickString(primary, secondary string) string {
	if primary != "" {
		return primary
	}
	return secondary
}

func pick[T any](primary, secondary []T) []T {
	if len(primary) > 0 {
		return primary
	}
	return secondary
}

func mergeExtras(primary, secondary map[string]string) map[string]string {
	if len(primary) == 0 && len(secondary) == 0 {
		return nil
	}
	out := make(map[string]string, len(primary)+len(secondary))
	for k, v := range secondary {
		out[k] = v
	}
	for k, v := range primary {
		out[k] = v
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
