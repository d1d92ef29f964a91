package types

// --- API 请求/响应结构 ---

// SuggestRequest 不经过文档抽取，直接用条目+需求描述找供应商
type SuggestRequest struct {
	Items        []LineItem  `json:"items"`
	Requirements []string    `json:"requirements"`
	Preferences  Preferences `json:"preferences"`
}

// Preferences 可选偏好
type Preferences struct {
	TopN             int      `json:"top_n,omitempty"`
	MinScore         *float64 `json:"min_score,omitempty"`
	DeliveryLocation string   `json:"delivery_location,omitempty"`
	TAARequired      bool     `json:"taa_required,omitempty"`
	Brands           []string `json:"brands,omitempty"`
	Certifications   []string `json:"certifications,omitempty"`
}

type FeedbackRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	SupplierID string `json:"supplier_id" binding:"required"`
	Label      string `json:"label" binding:"required"` // selected / rejected / irrelevant ...
	Rating     int    `json:"rating" binding:"min=0,max=5"`
	Comment    string `json:"comment"`
}

// ProcessResult 单个文档完整处理的输出
type ProcessResult struct {
	Extraction ExtractionResult      `json:"extraction"`
	Matches    []SupplierMatchResult `json:"matches"`
	Degraded   bool                  `json:"degraded"` // 模型阶段降级或部分策略失败
}

// MatchesResponse GetMatches 的返回
type MatchesResponse struct {
	DocumentID string        `json:"document_id"`
	Found      bool          `json:"found"`
	Matches    []StoredMatch `json:"matches"`
}
