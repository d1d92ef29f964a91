package postgres

import (
	"time"

	"rfq-match/types"
)

// SupplierRecord 对应 suppliers 表，完整画像存 JSON，常用过滤字段单独成列
type SupplierRecord struct {
	ID        string         `gorm:"column:id;primaryKey;type:varchar(64)"`
	Name      string         `gorm:"column:name;type:varchar(255);not null"`
	Status    string         `gorm:"column:status;type:varchar(16);default:active;index"`
	HomeState string         `gorm:"column:home_state;type:varchar(8);index"`
	Profile   types.Supplier `gorm:"column:profile;serializer:json"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SupplierRecord) TableName() string {
	return "suppliers"
}

func newSupplierRecord(s *types.Supplier) *SupplierRecord {
	status := s.Status
	if status == "" {
		status = types.SupplierActive
	}
	profile := *s
	profile.Status = status
	return &SupplierRecord{
		ID:        s.ID,
		Name:      s.Name,
		Status:    status,
		HomeState: s.Geography.HomeState,
		Profile:   profile,
	}
}

// Supplier 以列为准回填画像，避免两处不一致
func (r *SupplierRecord) Supplier() types.Supplier {
	s := r.Profile
	s.ID = r.ID
	s.Name = r.Name
	s.Status = r.Status
	return s
}

// MatchRunRecord 排序运行头，每个文档一行，重复处理时覆盖
type MatchRunRecord struct {
	DocumentID string    `gorm:"column:document_id;primaryKey;type:varchar(128)"`
	Dialect    string    `gorm:"column:dialect;type:varchar(32)"`
	Candidates int       `gorm:"column:candidates"`
	Matched    int       `gorm:"column:matched"`
	RankedAt   time.Time `gorm:"column:ranked_at;index"`
}

func (MatchRunRecord) TableName() string {
	return "match_runs"
}

// MatchRecord 一次排序运行中的一名供应商，(document_id, rank) 唯一
type MatchRecord struct {
	ID             uint               `gorm:"primaryKey"`
	DocumentID     string             `gorm:"column:document_id;type:varchar(128);not null;uniqueIndex:idx_match_doc_rank"`
	Rank           int                `gorm:"column:rank_no;not null;uniqueIndex:idx_match_doc_rank"`
	SupplierID     string             `gorm:"column:supplier_id;type:varchar(64);index"`
	SupplierName   string             `gorm:"column:supplier_name;type:varchar(255)"`
	CompositeScore float64            `gorm:"column:composite_score"`
	Confidence     float64            `gorm:"column:confidence"`
	StrategyScores map[string]float64 `gorm:"column:strategy_scores;serializer:json"`
	Strengths      []string           `gorm:"column:strengths;serializer:json"`
	Weaknesses     []string           `gorm:"column:weaknesses;serializer:json"`
	Dialect        string             `gorm:"column:dialect;type:varchar(32)"`

	CreatedAt time.Time
}

func (MatchRecord) TableName() string {
	return "supplier_matches"
}

func (r *MatchRecord) StoredMatch() types.StoredMatch {
	return types.StoredMatch{
		DocumentID:     r.DocumentID,
		Rank:           r.Rank,
		SupplierID:     r.SupplierID,
		SupplierName:   r.SupplierName,
		CompositeScore: r.CompositeScore,
		Confidence:     r.Confidence,
		StrategyScores: r.StrategyScores,
		Strengths:      r.Strengths,
		Weaknesses:     r.Weaknesses,
		Dialect:        r.Dialect,
		CreatedAt:      r.CreatedAt,
	}
}

// FeedbackRecord 人工反馈，只追加
type FeedbackRecord struct {
	ID         string `gorm:"column:id;primaryKey;type:varchar(64)"`
	DocumentID string `gorm:"column:document_id;type:varchar(128);index"`
	SupplierID string `gorm:"column:supplier_id;type:varchar(64);index"`
	Label      string `gorm:"column:label;type:varchar(32)"`
	Rating     int    `gorm:"column:rating"`
	Comment    string `gorm:"column:comment;type:text"`

	CreatedAt time.Time
}

func (FeedbackRecord) TableName() string {
	return "match_feedback"
}
