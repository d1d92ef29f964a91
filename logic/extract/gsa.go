package extract

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"rfq-match/types"
	"rfq-match/vars"
)

var (
	ebuyIDRe = regexp.MustCompile(`(?i)\b(RFQ\d{6,8})\b`)
	sinRe    = regexp.MustCompile(`(?i)\bSINs?\s*[:#]?\s*([0-9]{3}[0-9A-Z]{0,5}(?:-[0-9A-Z]+)?)`)
	masRe    = regexp.MustCompile(`(?i)\bMAS\b|multiple award schedule|\bschedule\s+70\b`)
)

var gsaEvidence = []Evidence{
	{FieldSubject, regexp.MustCompile(`(?i)\be-?buy\b`), 0.35},
	{FieldSubject, regexp.MustCompile(`(?i)\bRFQ\d{6,8}\b`), 0.25},
	{FieldSender, regexp.MustCompile(`(?i)(?:^|\.)gsa\.gov$`), 0.25},
	{FieldBody, regexp.MustCompile(`(?i)\bebuy\.gsa\.gov\b|\bSINs?\b`), 0.1},
	{FieldBody, regexp.MustCompile(`(?i)\bMAS\b|multiple award schedule`), 0.05},
}

// NewGSAEBuyExtractor GSA eBuy 询价
func NewGSAEBuyExtractor(infer Inferencer, log *zap.Logger, opts ...Option) *HybridExtractor {
	return newHybrid(dialectProfile{
		dialect:    types.DialectGSAEBuy,
		evidence:   gsaEvidence,
		hints:      vars.HINTS_GSA_EBUY,
		rulesFirst: true,
		ruleWeight: 0.6,
		idPattern:  ebuyIDRe,
		refine: func(text string, req *types.StructuredRequirement) {
			req.SolicitationID = strings.ToUpper(req.SolicitationID)
			extras := map[string]string{}
			if sins := allSubmatches(sinRe, text); len(sins) > 0 {
				extras["sins"] = strings.Join(sins, ",")
			}
			if masRe.MatchString(text) {
				extras["schedule"] = "MAS"
			}
			if len(extras) > 0 {
				req.Extras = extras
			}
		},
	}, infer, log, opts...)
}
