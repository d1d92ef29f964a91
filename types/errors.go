package types

import (
	"errors"
	"fmt"
)

var (
	// ErrCatalogUnavailable 供应商目录无法读取，调用方应重试或放弃这次排序
	ErrCatalogUnavailable = errors.New("supplier catalog unavailable")
	// ErrNotFound 查询的记录不存在
	ErrNotFound = errors.New("not found")
)

// ExtractionError 抽取失败 (文档为空、上下文取消等)
type ExtractionError struct {
	Dialect string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Dialect, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// TransientServiceError 外部服务 (LLM、Kafka 等) 的临时失败，可以重试
type TransientServiceError struct {
	Service string
	Err     error
}

func (e *TransientServiceError) Error() string {
	return fmt.Sprintf("%s transient failure: %v", e.Service, e.Err)
}

func (e *TransientServiceError) Unwrap() error { return e.Err }

// StrategyError 单个打分策略失败，只影响该策略
type StrategyError struct {
	Strategy   string
	SupplierID string
	Err        error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s on supplier %s: %v", e.Strategy, e.SupplierID, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

// IsTransient 判断错误链上是否有 TransientServiceError
func IsTransient(err error) bool {
	var te *TransientServiceError
	return errors.As(err, &te)
}
