// Package monitor 暴露 Prometheus 指标
package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rfq_match"

var (
	// DocumentsClassified 按方言统计分类数，forced=true 表示低于阈值走了兜底
	DocumentsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "documents_classified_total",
			Help:      "Documents classified by dialect",
		},
		[]string{"dialect", "forced"},
	)

	// ModelDegraded 模型阶段重试耗尽后只用规则结果
	ModelDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "model_degraded_total",
			Help:      "Extractions that fell back to rule output after model failures",
		},
		[]string{"dialect"},
	)

	// ModelCallDuration 单次模型调用耗时 (含重试)
	ModelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "model_call_duration_seconds",
			Help:      "Duration of structured inference calls in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"result"},
	)

	// StrategyErrors 策略失败次数
	StrategyErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "strategy_errors_total",
			Help:      "Scoring strategy failures by strategy",
		},
		[]string{"strategy"},
	)

	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "ranking_duration_seconds",
			Help:      "Duration of a full supplier ranking in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// RecallFallbacks 召回失败或为空时回退到全量目录
	RecallFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recall",
			Name:      "fallbacks_total",
			Help:      "Candidate recalls that fell back to the full catalog",
		},
		[]string{"reason"},
	)

	// CacheRequests result: hit / miss / error
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Match cache lookups by result",
		},
		[]string{"result"},
	)

	// MessagesConsumed result: ok / invalid / failed
	MessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mq",
			Name:      "messages_consumed_total",
			Help:      "Inbound document messages by processing result",
		},
		[]string{"result"},
	)
)
