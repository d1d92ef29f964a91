package match

import (
	"fmt"
	"strings"

	"rfq-match/types"
)

// 合规子项的分值
const (
	pointsTAA            = 25.0
	pointsEnvironmental  = 10.0
	pointsCertifications = 20.0
	pointsClearance      = 15.0
	pointsExperience     = 10.0
	pointsBrand          = 20.0
)

var epeatTier = map[string]float64{
	"gold":   1.0,
	"silver": 0.8,
	"bronze": 0.6,
}

// certValue 资质价值，预留类 (set-aside) 更高
var certValue = map[string]float64{
	"sdvosb":        1.0,
	"8a":            1.0,
	"hubzone":       1.0,
	"edwosb":        1.0,
	"wosb":          0.9,
	"vosb":          0.9,
	"smallbusiness": 0.8,
	"cmmc":          0.7,
	"iso9001":       0.5,
}

// smallBusinessTypes 这些资质都隐含小企业身份
var smallBusinessTypes = []string{"sdvosb", "8a", "hubzone", "edwosb", "wosb", "vosb", "smallbusiness"}

var clearanceTier = map[string]int{
	"public trust":   1,
	"confidential":   2,
	"secret":         3,
	"top secret":     4,
	"ts/sci":         5,
	"top secret/sci": 5,
}

// brandAuthorization 授权等级 -> 分数，未授权为 0
var brandAuthorization = map[string]float64{
	"platinum":   1.0,
	"gold":       1.0,
	"authorized": 0.9,
	"silver":     0.8,
	"registered": 0.6,
}

// ComplianceStrategy 按分值累计各子项，TAA 和品牌授权缺失记为关键失败
type ComplianceStrategy struct {
	weight float64
}

func NewComplianceStrategy(cfg Config) ComplianceStrategy {
	return ComplianceStrategy{weight: cfg.ComplianceWeight}
}

func (ComplianceStrategy) Name() string { return StrategyCompliance }

func (c ComplianceStrategy) Weight() float64 { return c.weight }

// IsApplicable 联邦经验一项总是适用
func (ComplianceStrategy) IsApplicable(*types.StructuredRequirement) bool { return true }

type subFactor struct {
	name   string
	max    float64
	earned float64
	known  bool // 供应商是否提供了该项数据
}

func (c ComplianceStrategy) Score(req *types.StructuredRequirement, s *types.Supplier) (types.MatchScore, error) {
	flags := req.Compliance
	var factors []subFactor
	var critical []string

	if flags.TAARequired {
		f := subFactor{name: "taa", max: pointsTAA, known: true}
		if s.Compliance.TAACompliant {
			f.earned = pointsTAA
		} else {
			critical = append(critical, "supplier is not TAA compliant")
		}
		factors = append(factors, f)
	}

	if strings.Contains(strings.ToUpper(flags.EnvironmentalStandard), "EPEAT") {
		level := strings.ToLower(s.Compliance.EPEATLevel)
		factors = append(factors, subFactor{
			name:   "environmental",
			max:    pointsEnvironmental,
			earned: pointsEnvironmental * epeatTier[level],
			known:  level != "",
		})
	}

	if len(flags.RequiredCertifications) > 0 {
		factors = append(factors, subFactor{
			name:   "certifications",
			max:    pointsCertifications,
			earned: pointsCertifications * certificationOverlap(flags.RequiredCertifications, s.Certifications),
			known:  len(s.Certifications) > 0,
		})
	}

	if flags.SecurityClearance != "" {
		factors = append(factors, subFactor{
			name:   "clearance",
			max:    pointsClearance,
			earned: pointsClearance * clearanceMatch(flags.SecurityClearance, s.Compliance.SecurityClearances),
			known:  len(s.Compliance.SecurityClearances) > 0,
		})
	}

	factors = append(factors, subFactor{
		name:   "federal_experience",
		max:    pointsExperience,
		earned: pointsExperience * federalExperience(req.Agency, s.PastPerformance),
		known:  s.PastPerformance.FederalContracts > 0 || len(s.PastPerformance.Agencies) > 0,
	})

	if len(flags.BrandRestrictions) > 0 {
		ratio, unauthorized := brandCoverage(flags.BrandRestrictions, s.AuthorizedBrands)
		for _, b := range unauthorized {
			critical = append(critical, fmt.Sprintf("supplier is not an authorized reseller for %s", b))
		}
		factors = append(factors, subFactor{
			name:   "brand_authorization",
			max:    pointsBrand,
			earned: pointsBrand * ratio,
			known:  s.AuthorizedBrands != nil,
		})
	}

	var earned, total float64
	known := 0
	details := make(map[string]any, len(factors)+1)
	for _, f := range factors {
		earned += f.earned
		total += f.max
		if f.known {
			known++
		}
		details[f.name] = map[string]float64{"earned": f.earned, "max": f.max}
	}
	if len(critical) > 0 {
		details[DetailCriticalFailures] = critical
	}

	return types.MatchScore{
		Value:      clamp01(earned / total),
		Confidence: clamp01(0.5 + 0.5*float64(known)/float64(len(factors))),
		Details:    details,
		Strategy:   StrategyCompliance,
	}, nil
}

// certificationOverlap 按价值加权的覆盖率
func certificationOverlap(required, held []string) float64 {
	heldSet := map[string]bool{}
	for _, h := range held {
		heldSet[normalizeKey(h)] = true
	}
	var total, earned float64
	for _, r := range required {
		key := normalizeKey(r)
		v, ok := certValue[key]
		if !ok {
			v = 0.5
		}
		total += v
		if heldSet[key] || (key == "smallbusiness" && anyOf(heldSet, smallBusinessTypes)) {
			earned += v
		}
	}
	if total == 0 {
		return 0
	}
	return earned / total
}

func anyOf(set map[string]bool, keys []string) bool {
	for _, k := range keys {
		if set[k] {
			return true
		}
	}
	return false
}

// clearanceMatch 达到等级满分；有较低等级给部分分
func clearanceMatch(required string, held []string) float64 {
	need := clearanceTier[strings.ToLower(strings.TrimSpace(required))]
	if need == 0 {
		need = 1
	}
	best := 0
	for _, h := range held {
		if t := clearanceTier[strings.ToLower(strings.TrimSpace(h))]; t > best {
			best = t
		}
	}
	if best >= need {
		return 1
	}
	return 0.5 * float64(best) / float64(need)
}

// federalExperience 按合同数分档，服务过同一机构加分
func federalExperience(agency string, p types.PastPerformance) float64 {
	var v float64
	switch {
	case p.FederalContracts >= 50:
		v = 1.0
	case p.FederalContracts >= 10:
		v = 0.8
	case p.FederalContracts >= 1:
		v = 0.5
	default:
		v = 0.2
	}
	if agency != "" {
		for _, a := range p.Agencies {
			if strings.EqualFold(a, agency) {
				v += 0.2
				break
			}
		}
	}
	if p.Rating > 0 {
		v = 0.8*v + 0.2*(p.Rating/5)
	}
	return clamp01(v)
}

// brandCoverage 返回点名品牌的平均授权分和未授权的品牌；expired/none 等未知等级按未授权处理
func brandCoverage(brands []string, authorized map[string]string) (float64, []string) {
	var sum float64
	var missing []string
	for _, b := range brands {
		v, ok := authorizationScore(authorized, b)
		if !ok {
			missing = append(missing, b)
			continue
		}
		sum += v
	}
	return sum / float64(len(brands)), missing
}

// authorizationScore 供应商对某品牌的授权分，只认 brandAuthorization 里的等级
func authorizationScore(authorized map[string]string, brand string) (float64, bool) {
	key := normalizeKey(brand)
	for b, level := range authorized {
		if normalizeKey(b) != key {
			continue
		}
		v, ok := brandAuthorization[strings.ToLower(strings.TrimSpace(level))]
		return v, ok
	}
	return 0, false
}
