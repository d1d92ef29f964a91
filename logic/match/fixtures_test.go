package match

import (
	"errors"
	"time"

	"rfq-match/types"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func laptopRequirement() *types.StructuredRequirement {
	return &types.StructuredRequirement{
		DocumentID: "doc-nasa-1",
		Dialect:    types.DialectNASASEWP,
		Agency:     "NASA",
		Items: []types.LineItem{
			{Name: "Dell Latitude 5440 laptop", PartNumber: "LAT5440-I7", Quantity: 25, Unit: "EA"},
		},
		Keywords: []string{"laptop", "docking station"},
		Compliance: types.ComplianceFlags{
			TAARequired:            true,
			BrandRestrictions:      []string{"Dell"},
			RequiredCertifications: []string{"SDVOSB"},
			EnvironmentalStandard:  "EPEAT Gold",
		},
		DeliveryLocation: "Greenbelt, MD 20771",
	}
}

// authorizedLocal TAA 合规、Dell 白金授权、马里兰本地
func authorizedLocal() types.Supplier {
	return types.Supplier{
		ID:             "sup-a",
		Name:           "Capital Tech Partners",
		Status:         types.SupplierActive,
		Certifications: []string{"SDVOSB"},
		Compliance:     types.SupplierCompliance{TAACompliant: true, EPEATLevel: "gold"},
		AuthorizedBrands: map[string]string{
			"Dell": "platinum",
		},
		Geography: types.Geography{
			HomeState:       "MD",
			DeliveryRegions: []string{"nationwide"},
			Headquarters:    "MD",
			SupportCoverage: types.Support24x7,
		},
		PastPerformance: types.PastPerformance{FederalContracts: 60, Agencies: []string{"NASA"}, Rating: 4.5},
		Capabilities:    []string{"end_user_computing", "laptop"},
	}
}

// unauthorizedRemote 不满足 TAA，也没有品牌授权，在加州
func unauthorizedRemote() types.Supplier {
	return types.Supplier{
		ID:     "sup-b",
		Name:   "Pacific Office Supply",
		Status: types.SupplierActive,
		Geography: types.Geography{
			HomeState:       "CA",
			DeliveryRegions: []string{"CA"},
			Headquarters:    "CA",
			SupportCoverage: types.SupportBestEffort,
		},
		PastPerformance: types.PastPerformance{FederalContracts: 2},
		Capabilities:    []string{"print"},
	}
}

// failingStrategy 总是返回错误
type failingStrategy struct{}

func (failingStrategy) Name() string { return "flaky" }
func (failingStrategy) Weight() float64 { return 0.5 }
func (failingStrategy) IsApplicable(*types.StructuredRequirement) bool { return true }
func (failingStrategy) Score(*types.StructuredRequirement, *types.Supplier) (types.MatchScore, error) {
	return types.MatchScore{}, errors.New("upstream catalog attribute service unavailable")
}

type panickingStrategy struct{}

func (panickingStrategy) Name() string { return "explosive" }
func (panickingStrategy) Weight() float64 { return 0.2 }
func (panickingStrategy) IsApplicable(*types.StructuredRequirement) bool { return true }
func (panickingStrategy) Score(*types.StructuredRequirement, *types.Supplier) (types.MatchScore, error) {
	panic("nil map in scoring table")
}

// skipGeo 把地理策略的权重调成 0
type skipGeo struct{}

func (skipGeo) Adjust(strategy string, base float64) float64 {
	if strategy == StrategyGeographic {
		return 0
	}
	return base
}
