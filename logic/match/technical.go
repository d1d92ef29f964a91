package match

import (
	"strings"

	"rfq-match/types"
)

// 技术匹配五个子项的内部权重
const (
	techTokenWeight      = 0.2
	techBrandWeight      = 0.3
	techCapabilityWeight = 0.3
	techPartWeight       = 0.1
	techKeywordWeight    = 0.1

	// 没有可比较的数据时的中性分
	neutralScore = 0.5
)

// capabilityByKeyword 需求关键词 -> 供应商能力标签
var capabilityByKeyword = map[string]string{
	"laptop":             "end_user_computing",
	"notebook":           "end_user_computing",
	"desktop":            "end_user_computing",
	"workstation":        "end_user_computing",
	"tablet":             "end_user_computing",
	"monitor":            "end_user_computing",
	"display":            "end_user_computing",
	"docking station":    "end_user_computing",
	"rugged":             "end_user_computing",
	"server":             "data_center",
	"rack":               "data_center",
	"ups":                "data_center",
	"gpu":                "data_center",
	"memory":             "data_center",
	"storage":            "storage",
	"san":                "storage",
	"nas":                "storage",
	"backup":             "storage",
	"ssd":                "storage",
	"hard drive":         "storage",
	"switch":             "networking",
	"router":             "networking",
	"wireless":           "networking",
	"access point":       "networking",
	"network":            "networking",
	"cabling":            "networking",
	"firewall":           "security",
	"cybersecurity":      "security",
	"software":           "software",
	"license":            "software",
	"subscription":       "software",
	"cloud":              "cloud",
	"printer":            "print",
	"scanner":            "print",
	"toner":              "print",
	"phone":              "unified_communications",
	"headset":            "unified_communications",
	"video conferencing": "unified_communications",
	"installation":       "professional_services",
	"training":           "professional_services",
	"maintenance":        "support_services",
	"warranty":           "support_services",
	"support":            "support_services",
}

// TechnicalStrategy 名称/能力的模糊匹配
type TechnicalStrategy struct {
	weight float64
}

func NewTechnicalStrategy(cfg Config) TechnicalStrategy {
	return TechnicalStrategy{weight: cfg.TechnicalWeight}
}

func (TechnicalStrategy) Name() string { return StrategyTechnical }

func (t TechnicalStrategy) Weight() float64 { return t.weight }

// IsApplicable 需求里至少要有条目、关键词、需求行或品牌之一
func (TechnicalStrategy) IsApplicable(req *types.StructuredRequirement) bool {
	return len(req.Items) > 0 || len(req.Keywords) > 0 || len(req.Requirements) > 0 ||
		len(req.Compliance.BrandRestrictions) > 0
}

func (t TechnicalStrategy) Score(req *types.StructuredRequirement, s *types.Supplier) (types.MatchScore, error) {
	signals := 0

	token, ok := tokenOverlap(req, s)
	if ok {
		signals++
	}
	brand, ok := brandCrossCheck(req.Compliance.BrandRestrictions, s.AuthorizedBrands)
	if ok {
		signals++
	}
	capability, required, ok := capabilityMatch(req.Keywords, s.Capabilities)
	if ok {
		signals++
	}
	part := partNumberSignal(req)
	keyword, ok := keywordOverlap(req.Keywords, s)
	if ok {
		signals++
	}

	value := techTokenWeight*token +
		techBrandWeight*brand +
		techCapabilityWeight*capability +
		techPartWeight*part +
		techKeywordWeight*keyword

	return types.MatchScore{
		Value:      clamp01(value),
		Confidence: clamp01(0.4 + 0.15*float64(signals)),
		Strategy:   StrategyTechnical,
		Details: map[string]any{
			"token_overlap":         token,
			"brand_cross_check":     brand,
			"capability_match":      capability,
			"required_capabilities": required,
			"part_number_signal":    part,
			"keyword_overlap":       keyword,
		},
	}, nil
}

// tokenOverlap 需求条目 token 在供应商名称+能力 token 中的覆盖率
func tokenOverlap(req *types.StructuredRequirement, s *types.Supplier) (float64, bool) {
	texts := make([]string, 0, len(req.Items)+len(req.Keywords))
	for _, item := range req.Items {
		texts = append(texts, item.Name)
	}
	texts = append(texts, req.Keywords...)
	reqTokens := tokenize(texts...)
	if len(reqTokens) == 0 {
		return neutralScore, false
	}
	// 新建切片，供应商数据在并发打分中是只读的
	supplierTexts := make([]string, 0, 1+len(s.Capabilities)+len(s.AuthorizedBrands))
	supplierTexts = append(supplierTexts, s.Name)
	supplierTexts = append(supplierTexts, s.Capabilities...)
	supplierTexts = append(supplierTexts, brandNames(s)...)
	supplierTokens := tokenize(supplierTexts...)
	if len(supplierTokens) == 0 {
		return 0, true
	}
	hits := 0
	for tok := range reqTokens {
		if supplierTokens[tok] {
			hits++
		}
	}
	// 供应商描述通常比需求短，按较小集合归一
	denom := min(len(reqTokens), len(supplierTokens))
	return clamp01(float64(hits) / float64(denom)), true
}

func brandNames(s *types.Supplier) []string {
	out := make([]string, 0, len(s.AuthorizedBrands))
	for b := range s.AuthorizedBrands {
		out = append(out, b)
	}
	return out
}

// brandCrossCheck 有效授权 ≈1.0，点名但未授权或授权失效 0.1
func brandCrossCheck(brands []string, authorized map[string]string) (float64, bool) {
	if len(brands) == 0 {
		return neutralScore, false
	}
	var sum float64
	for _, b := range brands {
		if _, ok := authorizationScore(authorized, b); ok {
			sum += 1.0
		} else {
			sum += 0.1
		}
	}
	return sum / float64(len(brands)), true
}

// capabilityMatch 由关键词推断所需能力，再看供应商覆盖了多少
func capabilityMatch(keywords, capabilities []string) (float64, []string, bool) {
	needed := map[string]bool{}
	var required []string
	for _, kw := range keywords {
		if c, ok := capabilityByKeyword[strings.ToLower(kw)]; ok && !needed[c] {
			needed[c] = true
			required = append(required, c)
		}
	}
	if len(required) == 0 {
		return neutralScore, nil, false
	}
	have := map[string]bool{}
	for _, c := range capabilities {
		have[normalizeKey(c)] = true
	}
	hits := 0
	for _, c := range required {
		if have[normalizeKey(c)] {
			hits++
		}
	}
	return float64(hits) / float64(len(required)), required, true
}

// partNumberSignal 需求带料号说明采购目标明确，只是弱信号
func partNumberSignal(req *types.StructuredRequirement) float64 {
	for _, item := range req.Items {
		if item.PartNumber != "" {
			return 0.8
		}
	}
	return neutralScore
}

// keywordOverlap 需求关键词出现在供应商名称/能力里的比例，用于拉开接近的分数
func keywordOverlap(keywords []string, s *types.Supplier) (float64, bool) {
	if len(keywords) == 0 {
		return neutralScore, false
	}
	hay := strings.ToLower(s.Name + " " + strings.Join(s.Capabilities, " "))
	hay = strings.ReplaceAll(hay, "_", " ")
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(hay, strings.ToLower(kw)) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords)), true
}
