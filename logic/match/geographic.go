package match

import (
	"strings"

	"rfq-match/types"
)

// 地理策略子项权重
const (
	geoProximityWeight    = 0.5
	geoFootprintWeight    = 0.25
	geoHeadquarterWeight  = 0.1
	geoSupportTierWeight  = 0.15
	geoUnknownSupplierLoc = 0.4
)

var supportTier = map[string]float64{
	types.Support24x7:          1.0,
	types.SupportBusinessHours: 0.7,
	types.SupportBestEffort:    0.4,
}

// GeographicStrategy 交付地点与供应商地理覆盖的匹配
type GeographicStrategy struct {
	weight float64
}

func NewGeographicStrategy(cfg Config) GeographicStrategy {
	return GeographicStrategy{weight: cfg.GeographicWeight}
}

func (GeographicStrategy) Name() string { return StrategyGeographic }

func (g GeographicStrategy) Weight() float64 { return g.weight }

func (GeographicStrategy) IsApplicable(*types.StructuredRequirement) bool { return true }

// Score 找不到交付地点时返回中性分 0.5，置信度 0.3
func (g GeographicStrategy) Score(req *types.StructuredRequirement, s *types.Supplier) (types.MatchScore, error) {
	state, method := locateState(req.DeliveryLocation, true)
	if state == "" {
		state, method = locateState(strings.Join(req.Requirements, "\n"), false)
	}
	if state == "" {
		return types.MatchScore{
			Value:      0.5,
			Confidence: 0.3,
			Strategy:   StrategyGeographic,
			Details:    map[string]any{"reason": "no delivery location"},
		}, nil
	}

	geo := s.Geography
	prox := proximity(state, geo.HomeState)
	if prox < 0 {
		prox = geoUnknownSupplierLoc
	}
	hq := proximity(state, geo.Headquarters)
	if hq < 0 {
		hq = geoUnknownSupplierLoc
	}
	footprint := footprintCoverage(state, geo.DeliveryRegions)
	support, ok := supportTier[strings.ToLower(geo.SupportCoverage)]
	if !ok {
		support = 0.3
	}

	value := geoProximityWeight*prox +
		geoFootprintWeight*footprint +
		geoHeadquarterWeight*hq +
		geoSupportTierWeight*support

	confidence := 0.9
	if method == locatedByCity {
		confidence = 0.7
	}
	if geo.HomeState == "" {
		confidence -= 0.2
	}

	return types.MatchScore{
		Value:      clamp01(value),
		Confidence: clamp01(confidence),
		Strategy:   StrategyGeographic,
		Details: map[string]any{
			"delivery_state": state,
			"located_by":     method,
			"proximity":      prox,
			"footprint":      footprint,
			"headquarters":   hq,
			"support_tier":   support,
		},
	}, nil
}

// footprintCoverage 声明的配送范围：全国或包含该州 1.0，包含同分区的州 0.6，未声明 0.4
func footprintCoverage(state string, regions []string) float64 {
	if len(regions) == 0 {
		return geoUnknownSupplierLoc
	}
	best := 0.2
	for _, r := range regions {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r == "NATIONWIDE" || r == state {
			return 1.0
		}
		if d := censusDivision[r]; d != "" && d == censusDivision[state] {
			best = 0.6
		}
	}
	return best
}
