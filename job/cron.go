package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"rfq-match/types"
)

// CatalogSource 包含已下线的供应商，索引端据此删除
type CatalogSource interface {
	ListAllSuppliers(ctx context.Context) ([]types.Supplier, error)
}

// SupplierIndexer ES / Milvus 两路召回索引
type SupplierIndexer interface {
	IndexSuppliers(ctx context.Context, suppliers []types.Supplier) (int, error)
}

type Target struct {
	Name    string
	Indexer SupplierIndexer
}

// Reindexer 把 PG 里的供应商目录同步到召回索引
type Reindexer struct {
	catalog CatalogSource
	targets []Target
	timeout time.Duration
	log     *zap.Logger
}

func NewReindexer(catalog CatalogSource, log *zap.Logger, targets ...Target) *Reindexer {
	return &Reindexer{
		catalog: catalog,
		targets: targets,
		timeout: 10 * time.Minute,
		log:     log.Named("reindex"),
	}
}

// Run 一个索引失败不影响其他索引，错误合并返回
func (r *Reindexer) Run(ctx context.Context) error {
	if len(r.targets) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	suppliers, err := r.catalog.ListAllSuppliers(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	var errs []error
	for _, t := range r.targets {
		n, err := t.Indexer.IndexSuppliers(ctx, suppliers)
		if err != nil {
			r.log.Error("reindex failed", zap.String("target", t.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
			continue
		}
		r.log.Info("reindex done",
			zap.String("target", t.Name),
			zap.Int("suppliers", len(suppliers)),
			zap.Int("indexed", n),
			zap.Duration("cost", time.Since(start)))
	}
	return errors.Join(errs...)
}

// StartCronJob cron 表达式带秒，例如 "0 0 2 * * *" 每天凌晨 2 点；上一次没跑完则跳过
func StartCronJob(spec string, r *Reindexer, log *zap.Logger) (*cron.Cron, error) {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	_, err := c.AddFunc(spec, func() {
		if err := r.Run(context.Background()); err != nil {
			log.Error("[Cron] catalog reindex", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
