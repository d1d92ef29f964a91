package extract

import (
	"context"
	"regexp"

	"github.com/invopop/jsonschema"

	"rfq-match/types"
)

// Extractor 一种文档方言的抽取器
type Extractor interface {
	Dialect() string
	// Confidence 该抽取器适用于 doc 的程度，[0,1]
	Confidence(doc *types.Document) float64
	Extract(ctx context.Context, doc *types.Document) (*types.StructuredRequirement, error)
	Validate(req *types.StructuredRequirement) types.ValidationResult
}

// Inferencer 文本理解服务，返回解析后的字段和模型自报置信度
type Inferencer interface {
	Infer(ctx context.Context, prompt string, schema *jsonschema.Schema) (map[string]any, float64, error)
}

// 证据来源字段
const (
	FieldSubject    = "subject"
	FieldSender     = "sender"
	FieldBody       = "body"
	FieldAttachment = "attachment"
)

// Evidence 一条可加分的证据，命中即累加 Weight
type Evidence struct {
	Field   string
	Pattern *regexp.Regexp
	Weight  float64
}

// ScoreEvidence 所有命中证据的权重之和，上限 1.0
func ScoreEvidence(doc *types.Document, evidence []Evidence) float64 {
	if doc == nil {
		return 0
	}
	score := 0.0
	for _, ev := range evidence {
		if ev.matches(doc) {
			score += ev.Weight
		}
	}
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

func (ev Evidence) matches(doc *types.Document) bool {
	switch ev.Field {
	case FieldSubject:
		return ev.Pattern.MatchString(doc.Subject)
	case FieldSender:
		return ev.Pattern.MatchString(doc.SenderDomain()) || ev.Pattern.MatchString(doc.Sender)
	case FieldBody:
		return ev.Pattern.MatchString(doc.Body)
	case FieldAttachment:
		for _, a := range doc.Attachments {
			if ev.Pattern.MatchString(a.Filename) {
				return true
			}
		}
	}
	return false
}
