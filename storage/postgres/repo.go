package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rfq-match/types"
)

// CatalogRepo 供应商目录
type CatalogRepo struct {
	db *gorm.DB
}

func NewCatalogRepo(db *gorm.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// ListActiveSuppliers 排序用的全部在用供应商，按 ID 排序保证输入稳定
func (r *CatalogRepo) ListActiveSuppliers(ctx context.Context) ([]types.Supplier, error) {
	var records []SupplierRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", types.SupplierActive).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrCatalogUnavailable, err)
	}
	return toSuppliers(records), nil
}

// ListAllSuppliers 包含已下线的，重建索引时用来删除
func (r *CatalogRepo) ListAllSuppliers(ctx context.Context) ([]types.Supplier, error) {
	var records []SupplierRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrCatalogUnavailable, err)
	}
	return toSuppliers(records), nil
}

func (r *CatalogRepo) GetSupplier(ctx context.Context, id string) (*types.Supplier, error) {
	var rec SupplierRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s := rec.Supplier()
	return &s, nil
}

// UpsertSupplier 按 ID 插入或整体覆盖
func (r *CatalogRepo) UpsertSupplier(ctx context.Context, s *types.Supplier) error {
	rec := newSupplierRecord(s)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "status", "home_state", "profile", "updated_at"}),
		}).
		Create(rec).Error
}

func toSuppliers(records []SupplierRecord) []types.Supplier {
	out := make([]types.Supplier, len(records))
	for i := range records {
		out[i] = records[i].Supplier()
	}
	return out
}

// MatchRepo 排序结果历史 + 反馈
type MatchRepo struct {
	db *gorm.DB
}

func NewMatchRepo(db *gorm.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// AppendMatchHistory 写入一次排序运行 (运行头 + 名次)；同一文档重复处理时覆盖上一次的结果。
// 没有供应商过阈值时只写运行头
func (r *MatchRepo) AppendMatchHistory(ctx context.Context, run *types.MatchRun) error {
	createdAt := run.RankedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	header := &MatchRunRecord{
		DocumentID: run.DocumentID,
		Dialect:    run.Dialect,
		Candidates: run.Candidates,
		Matched:    len(run.Results),
		RankedAt:   createdAt,
	}
	records := make([]MatchRecord, 0, len(run.Results))
	for i, res := range run.Results {
		scores := make(map[string]float64, len(res.Scores))
		for _, s := range res.Scores {
			scores[s.Strategy] = s.Value
		}
		records = append(records, MatchRecord{
			DocumentID:     run.DocumentID,
			Rank:           i + 1,
			SupplierID:     res.SupplierID,
			SupplierName:   res.SupplierName,
			CompositeScore: res.CompositeScore,
			Confidence:     res.Confidence,
			StrategyScores: scores,
			Strengths:      res.Strengths,
			Weaknesses:     res.Weaknesses,
			Dialect:        run.Dialect,
			CreatedAt:      createdAt,
		})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", run.DocumentID).Delete(&MatchRecord{}).Error; err != nil {
			return err
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"dialect", "candidates", "matched", "ranked_at"}),
		}).Create(header).Error
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
}

// GetMatchRun 最近一次排序的运行头，没跑过返回 ErrNotFound
func (r *MatchRepo) GetMatchRun(ctx context.Context, documentID string) (*MatchRunRecord, error) {
	var rec MatchRunRecord
	err := r.db.WithContext(ctx).Where("document_id = ?", documentID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetMatches 按名次返回；found 由运行头决定，跑过但零结果时返回 (空切片, true)
func (r *MatchRepo) GetMatches(ctx context.Context, documentID string) ([]types.StoredMatch, bool, error) {
	if _, err := r.GetMatchRun(ctx, documentID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return []types.StoredMatch{}, false, nil
		}
		return nil, false, err
	}
	var records []MatchRecord
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("rank_no").
		Find(&records).Error
	if err != nil {
		return nil, false, err
	}
	out := make([]types.StoredMatch, len(records))
	for i := range records {
		out[i] = records[i].StoredMatch()
	}
	return out, true, nil
}

func (r *MatchRepo) AppendFeedback(ctx context.Context, fb *types.Feedback) error {
	return r.db.WithContext(ctx).Create(&FeedbackRecord{
		ID:         fb.ID,
		DocumentID: fb.DocumentID,
		SupplierID: fb.SupplierID,
		Label:      fb.Label,
		Rating:     fb.Rating,
		Comment:    fb.Comment,
		CreatedAt:  fb.CreatedAt,
	}).Error
}

func (r *MatchRepo) ListFeedback(ctx context.Context, documentID string) ([]types.Feedback, error) {
	var records []FeedbackRecord
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at, id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	out := make([]types.Feedback, len(records))
	for i, rec := range records {
		out[i] = types.Feedback{
			ID:         rec.ID,
			DocumentID: rec.DocumentID,
			SupplierID: rec.SupplierID,
			Label:      rec.Label,
			Rating:     rec.Rating,
			Comment:    rec.Comment,
			CreatedAt:  rec.CreatedAt,
		}
	}
	return out, nil
}
