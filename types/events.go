package types

import "time"

// Kafka 事件名
const (
	EventDocumentClassified = "document.classified"
	EventSuppliersRanked    = "suppliers.ranked"
)

// DocumentClassified 文档完成分类+抽取后发布
type DocumentClassified struct {
	Event             string    `json:"event"`
	DocumentID        string    `json:"document_id"`
	Dialect           string    `json:"dialect"`
	Confidence        float64   `json:"confidence"`
	IsValid           bool      `json:"is_valid"`
	RecommendedAction string    `json:"recommended_action"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// RankedSupplier 事件里的精简排名条目
type RankedSupplier struct {
	SupplierID     string  `json:"supplier_id"`
	CompositeScore float64 `json:"composite_score"`
	Confidence     float64 `json:"confidence"`
}

// SuppliersRanked 排序完成后发布
type SuppliersRanked struct {
	Event      string           `json:"event"`
	DocumentID string           `json:"document_id"`
	Suppliers  []RankedSupplier `json:"suppliers"`
	OccurredAt time.Time        `json:"occurred_at"`
}
