package match

import (
	"regexp"
	"strings"

	"rfq-match/types"
)

// Strategy 独立的打分算法，无状态，只读取两个入参
type Strategy interface {
	Name() string
	Weight() float64
	IsApplicable(req *types.StructuredRequirement) bool
	Score(req *types.StructuredRequirement, s *types.Supplier) (types.MatchScore, error)
}

// DefaultStrategies 合规、技术、地理三种策略，权重来自 cfg
func DefaultStrategies(cfg Config) []Strategy {
	return []Strategy{
		NewComplianceStrategy(cfg),
		NewTechnicalStrategy(cfg),
		NewGeographicStrategy(cfg),
	}
}

// DetailCriticalFailures MatchScore.Details 里记录关键失败的 key
const DetailCriticalFailures = "critical_failures"

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeKey "8(a)" -> "8a", "HUB Zone" -> "hubzone"
func normalizeKey(s string) string {
	return nonAlnumRe.ReplaceAllString(strings.ToLower(s), "")
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "or": true, "of": true, "a": true,
	"an": true, "to": true, "in": true, "on": true, "inc": true, "llc": true, "corp": true,
	"ea": true, "each": true, "qty": true, "new": true, "all": true, "must": true, "be": true,
}

// tokenize 小写、去停用词、去单字符
func tokenize(texts ...string) map[string]bool {
	out := map[string]bool{}
	for _, text := range texts {
		for _, tok := range nonAlnumRe.Split(strings.ToLower(text), -1) {
			if len(tok) < 2 || stopwords[tok] {
				continue
			}
			if len(tok) > 3 {
				tok = strings.TrimSuffix(tok, "s")
			}
			out[tok] = true
		}
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
