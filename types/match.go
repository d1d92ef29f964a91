package types

import "time"

// MatchScore 单个策略对 (需求, 供应商) 的打分，Value 和 Confidence 都在 [0,1]
type MatchScore struct {
	Value      float64        `json:"value"`
	Confidence float64        `json:"confidence"`
	Details    map[string]any `json:"details,omitempty"`
	Strategy   string         `json:"strategy"`
	ScoredAt   time.Time      `json:"scored_at"`
}

// StrategyFailure 某个策略失败的记录，不参与综合分计算
type StrategyFailure struct {
	Strategy string `json:"strategy"`
	Message  string `json:"message"`
}

// SupplierMatchResult 单个供应商的聚合结果，每次排序临时生成
type SupplierMatchResult struct {
	SupplierID       string            `json:"supplier_id"`
	SupplierName     string            `json:"supplier_name"`
	Scores           []MatchScore      `json:"scores"`
	CompositeScore   float64           `json:"composite_score"`
	Confidence       float64           `json:"confidence"`
	Strengths        []string          `json:"strengths,omitempty"`
	Weaknesses       []string          `json:"weaknesses,omitempty"`
	Recommendations  []string          `json:"recommendations,omitempty"`
	CriticalFailures []string          `json:"critical_failures,omitempty"`
	Errors           []StrategyFailure `json:"errors,omitempty"`
}

// ScoreFor 返回指定策略的分数
func (r *SupplierMatchResult) ScoreFor(strategy string) (MatchScore, bool) {
	for _, s := range r.Scores {
		if s.Strategy == strategy {
			return s, true
		}
	}
	return MatchScore{}, false
}

// StoredMatch 持久化的 top-N 结果
type StoredMatch struct {
	DocumentID     string             `json:"document_id"`
	Rank           int                `json:"rank"`
	SupplierID     string             `json:"supplier_id"`
	SupplierName   string             `json:"supplier_name"`
	CompositeScore float64            `json:"composite_score"`
	Confidence     float64            `json:"confidence"`
	StrategyScores map[string]float64 `json:"strategy_scores"`
	Strengths      []string           `json:"strengths,omitempty"`
	Weaknesses     []string           `json:"weaknesses,omitempty"`
	Dialect        string             `json:"dialect"`
	CreatedAt      time.Time          `json:"created_at"`
}

// MatchRun 一次完整排序的持久化记录；Results 可以为空 (没有供应商过阈值)
type MatchRun struct {
	DocumentID string
	Dialect    string
	Candidates int
	Results    []SupplierMatchResult
	RankedAt   time.Time
}

// Feedback 用户反馈，只追加，暂不参与打分
type Feedback struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	SupplierID string    `json:"supplier_id"`
	Label      string    `json:"label"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
