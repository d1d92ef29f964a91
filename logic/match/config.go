package match

// 策略名称
const (
	StrategyCompliance = "compliance"
	StrategyTechnical  = "technical"
	StrategyGeographic = "geographic"
)

// Config 排序引擎唯一的权重/阈值来源，策略从这里取权重
type Config struct {
	ComplianceWeight float64
	TechnicalWeight  float64
	GeographicWeight float64

	// PipelineMinScore 文档流水线持久化结果的最低综合分
	PipelineMinScore float64
	// SuggestionMinScore suggest 接口的最低综合分，比流水线宽松
	SuggestionMinScore float64

	TopN    int
	Workers int

	StrengthThreshold float64
	WeaknessThreshold float64
}

func DefaultConfig() Config {
	return Config{
		ComplianceWeight:   0.4,
		TechnicalWeight:    0.3,
		GeographicWeight:   0.3,
		PipelineMinScore:   0.5,
		SuggestionMinScore: 0.1,
		TopN:               10,
		Workers:            8,
		StrengthThreshold:  0.8,
		WeaknessThreshold:  0.3,
	}
}

// WeightFor 未知策略返回 0
func (c Config) WeightFor(strategy string) float64 {
	switch strategy {
	case StrategyCompliance:
		return c.ComplianceWeight
	case StrategyTechnical:
		return c.TechnicalWeight
	case StrategyGeographic:
		return c.GeographicWeight
	}
	return 0
}

// WeightAdjuster 预留的反馈调权扩展点，目前只有恒等实现
type WeightAdjuster interface {
	Adjust(strategy string, base float64) float64
}

type IdentityAdjuster struct{}

func (IdentityAdjuster) Adjust(_ string, base float64) float64 { return base }
