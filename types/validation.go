package types

const (
	ActionProceed      = "proceed"
	ActionManualReview = "manual_review"
)

// ValidationResult Errors 为硬错误 (阻断下游)，Warnings 只做标注
type ValidationResult struct {
	IsValid           bool     `json:"is_valid"`
	Errors            []string `json:"errors,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
	RecommendedAction string   `json:"recommended_action"`
}

func (v *ValidationResult) AddError(msg string) {
	v.Errors = append(v.Errors, msg)
}

func (v *ValidationResult) AddWarning(msg string) {
	v.Warnings = append(v.Warnings, msg)
}

// Finalize 计算 IsValid 和建议动作。只有硬错误会让 IsValid=false；
// 警告超过 1 条也转人工复核，但结果仍然可用
func (v *ValidationResult) Finalize() ValidationResult {
	v.IsValid = len(v.Errors) == 0
	v.RecommendedAction = ActionProceed
	if !v.IsValid || len(v.Warnings) > 1 {
		v.RecommendedAction = ActionManualReview
	}
	return *v
}
