package extract

import (
	"regexp"

	"go.uber.org/zap"

	"rfq-match/types"
	"rfq-match/vars"
)

// generic 的证据权重很低，通常低于分发阈值，只在被强制选中或其他方言都为 0 时使用
var genericEvidence = []Evidence{
	{FieldSubject, regexp.MustCompile(`(?i)\bRFQ\b|\bRFP\b|request for (?:quot|proposal)|solicitation`), 0.05},
	{FieldBody, regexp.MustCompile(`(?i)\bquot(?:e|ation)\b|\bsolicitation\b`), 0.03},
	{FieldSender, regexp.MustCompile(`(?i)\.(?:gov|mil)$`), 0.02},
}

// NewGenericExtractor 兜底抽取器：规则覆盖最少，合并时模型结果优先
func NewGenericExtractor(infer Inferencer, log *zap.Logger, opts ...Option) *HybridExtractor {
	return newHybrid(dialectProfile{
		dialect:    types.DialectGeneric,
		evidence:   genericEvidence,
		hints:      vars.HINTS_GENERIC,
		rulesFirst: false,
		ruleWeight: 0.3,
		validate: func(req *types.StructuredRequirement, v *types.ValidationResult) {
			if len(req.Items) == 0 && len(req.Requirements) == 0 {
				v.AddError("no line items or requirement lines found")
			}
		},
	}, infer, log, opts...)
}
