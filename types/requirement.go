package types

import "time"

// 文档方言 (不同采购系统的模板)
const (
	DialectNASASEWP = "nasa_sewp"
	DialectGSAEBuy  = "gsa_ebuy"
	DialectDLADibbs = "dla_dibbs"
	DialectGeneric  = "generic"
	DialectInline   = "inline" // suggest 接口直接构造的需求
)

// StructuredRequirement 抽取结果。由唯一一个抽取器生成，生成后不再修改；重新抽取会得到新的值
type StructuredRequirement struct {
	DocumentID     string          `json:"document_id"`
	Dialect        string          `json:"dialect"`
	Confidence     float64         `json:"confidence"`
	ExtractedAt    time.Time       `json:"extracted_at"`
	SolicitationID string          `json:"solicitation_id,omitempty"`
	Title          string          `json:"title,omitempty"`
	Agency         string          `json:"agency,omitempty"`
	Items          []LineItem      `json:"items,omitempty"`
	Deadlines      []Deadline      `json:"deadlines,omitempty"`
	Contacts       []Contact       `json:"contacts,omitempty"`
	Compliance     ComplianceFlags `json:"compliance"`
	// DeliveryLocation 原始文本，例如 "Greenbelt, MD 20771"
	DeliveryLocation string            `json:"delivery_location,omitempty"`
	Requirements     []string          `json:"requirements,omitempty"`
	Attachments      []string          `json:"attachments,omitempty"`
	Keywords         []string          `json:"keywords,omitempty"`
	Extras           map[string]string `json:"extras,omitempty"`

	RuleConfidence  float64 `json:"rule_confidence"`
	ModelConfidence float64 `json:"model_confidence"`
	// ModelDegraded 模型阶段重试耗尽，只保留了规则结果
	ModelDegraded bool `json:"model_degraded,omitempty"`
}

type LineItem struct {
	Name       string `json:"name"`
	PartNumber string `json:"part_number,omitempty"`
	Quantity   int    `json:"quantity,omitempty"`
	Unit       string `json:"unit,omitempty"`
}

type Deadline struct {
	Kind string `json:"kind"`           // response / delivery / questions
	Date string `json:"date,omitempty"` // YYYY-MM-DD
	Raw  string `json:"raw,omitempty"`
}

type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`
}

// ComplianceFlags 合规要求
type ComplianceFlags struct {
	TAARequired            bool     `json:"taa_required"`
	BrandRestrictions      []string `json:"brand_restrictions,omitempty"`
	RequiredCertifications []string `json:"required_certifications,omitempty"`
	SecurityClearance      string   `json:"security_clearance,omitempty"`
	EnvironmentalStandard  string   `json:"environmental_standard,omitempty"` // 例如 EPEAT
}

// ExtractionResult 抽取输出 + 校验结果，下游据此决定是否需要人工复核
type ExtractionResult struct {
	Requirement *StructuredRequirement `json:"requirement"`
	Validation  ValidationResult       `json:"validation"`
	Selection   Selection              `json:"selection"`
}

// Selection 分发器的选择记录
type Selection struct {
	Dialect    string         `json:"dialect"`
	Confidence float64        `json:"confidence"`
	Forced     bool           `json:"forced"` // 低于阈值，强制使用 generic
	Scores     []DialectScore `json:"scores"`
}

type DialectScore struct {
	Dialect    string  `json:"dialect"`
	Confidence float64 `json:"confidence"`
}
