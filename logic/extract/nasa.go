package extract

import (
	"regexp"

	"go.uber.org/zap"

	"rfq-match/types"
	"rfq-match/vars"
)

var (
	sewpIDRe       = regexp.MustCompile(`(?i)\b(?:RFQ|request)\s*(?:ID|#|No\.?|number)\s*[:#]?\s*([A-Z0-9][A-Z0-9\-]{3,})|\bSEWP\s+RFQ\s*[:#]?\s*(\d{5,})`)
	sewpVehicleRe  = regexp.MustCompile(`(?i)\bSEWP\s*(V|VI|IV)\b`)
	sewpGroupRe    = regexp.MustCompile(`(?i)\bgroup\s+([A-D])\b`)
	sewpContractRe = regexp.MustCompile(`\b(NNG\d{2}[A-Z]{2}\d{2}[A-Z])\b`)
)

var nasaEvidence = []Evidence{
	{FieldSubject, regexp.MustCompile(`(?i)\bSEWP\b`), 0.4},
	{FieldSubject, regexp.MustCompile(`(?i)\bRFQ\b|request for quot`), 0.05},
	{FieldSender, regexp.MustCompile(`(?i)(?:^|\.)nasa\.gov$`), 0.3},
	{FieldBody, regexp.MustCompile(`(?i)\bSEWP\s*(?:V|VI|IV)\b|sewp\.nasa\.gov`), 0.15},
	{FieldBody, regexp.MustCompile(`(?i)\bNASA\b`), 0.05},
}

// NewNASASEWPExtractor NASA SEWP 询价
func NewNASASEWPExtractor(infer Inferencer, log *zap.Logger, opts ...Option) *HybridExtractor {
	return newHybrid(dialectProfile{
		dialect:    types.DialectNASASEWP,
		evidence:   nasaEvidence,
		hints:      vars.HINTS_NASA_SEWP,
		rulesFirst: true,
		ruleWeight: 0.6,
		idPattern:  sewpIDRe,
		refine: func(text string, req *types.StructuredRequirement) {
			extras := map[string]string{}
			if v := firstSubmatch(sewpVehicleRe, text); v != "" {
				extras["contract_vehicle"] = "SEWP " + v
			}
			if g := firstSubmatch(sewpGroupRe, text); g != "" {
				extras["sewp_group"] = g
			}
			if c := firstSubmatch(sewpContractRe, text); c != "" {
				extras["contract_number"] = c
			}
			if len(extras) > 0 {
				req.Extras = extras
			}
			if req.Agency == "" {
				req.Agency = "NASA"
			}
		},
	}, infer, log, opts...)
}
