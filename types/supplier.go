package types

const (
	SupplierActive   = "active"
	SupplierInactive = "inactive"
)

// 支持覆盖等级
const (
	Support24x7          = "24x7"
	SupportBusinessHours = "business_hours"
	SupportBestEffort    = "best_effort"
)

// Supplier 供应商目录条目，对核心逻辑只读
type Supplier struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Status         string             `json:"status"`
	Certifications []string           `json:"certifications,omitempty"` // SDVOSB, 8(a), HUBZone ...
	Compliance     SupplierCompliance `json:"compliance"`
	// AuthorizedBrands 品牌 -> 授权等级 (platinum/gold/authorized)
	AuthorizedBrands map[string]string `json:"authorized_brands,omitempty"`
	Geography        Geography         `json:"geography"`
	PastPerformance  PastPerformance   `json:"past_performance"`
	Capabilities     []string          `json:"capabilities,omitempty"`
	Contact          Contact           `json:"contact"`
}

type SupplierCompliance struct {
	TAACompliant       bool     `json:"taa_compliant"`
	EPEATLevel         string   `json:"epeat_level,omitempty"` // gold/silver/bronze
	Accreditations     []string `json:"accreditations,omitempty"`
	SecurityClearances []string `json:"security_clearances,omitempty"`
}

type Geography struct {
	HomeState       string   `json:"home_state,omitempty"`       // 两位州代码
	DeliveryRegions []string `json:"delivery_regions,omitempty"` // 州代码，或 "nationwide"
	Headquarters    string   `json:"headquarters,omitempty"`     // 州代码
	SupportCoverage string   `json:"support_coverage,omitempty"`
}

type PastPerformance struct {
	FederalContracts int      `json:"federal_contracts"`
	Agencies         []string `json:"agencies,omitempty"`
	Rating           float64  `json:"rating,omitempty"` // 0-5
}

func (s *Supplier) IsActive() bool {
	return s.Status == "" || s.Status == SupplierActive
}
