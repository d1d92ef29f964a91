package extract

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"rfq-match/types"
	"rfq-match/vars"
)

var (
	dibbsIDRe = regexp.MustCompile(`(?i)\b(SPE[0-9A-Z]{3}-?\d{2}-?[A-Z]-?[0-9A-Z]{4})\b`)
	nsnRe     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{3}-\d{4})\b`)
	prRe      = regexp.MustCompile(`(?i)\b(?:PR|purchase request)\s*(?:#|No\.?|number)?\s*[:#]?\s*(\d{10})\b`)
)

var dlaEvidence = []Evidence{
	{FieldSubject, regexp.MustCompile(`(?i)\bDIBBS\b`), 0.35},
	{FieldSubject, regexp.MustCompile(`(?i)\bSPE[0-9A-Z]{3}-?\d{2}`), 0.25},
	{FieldSender, regexp.MustCompile(`(?i)(?:^|\.)dla\.mil$`), 0.25},
	{FieldBody, regexp.MustCompile(`\b\d{4}-\d{2}-\d{3}-\d{4}\b`), 0.1},
	{FieldBody, regexp.MustCompile(`(?i)\bdefense logistics agency\b|\bDLA\b`), 0.05},
}

// NewDLADibbsExtractor DLA DIBBS 询价，条目以 NSN 标识
func NewDLADibbsExtractor(infer Inferencer, log *zap.Logger, opts ...Option) *HybridExtractor {
	return newHybrid(dialectProfile{
		dialect:    types.DialectDLADibbs,
		evidence:   dlaEvidence,
		hints:      vars.HINTS_DLA_DIBBS,
		rulesFirst: true,
		ruleWeight: 0.6,
		idPattern:  dibbsIDRe,
		refine: func(text string, req *types.StructuredRequirement) {
			req.SolicitationID = strings.ToUpper(strings.ReplaceAll(req.SolicitationID, "-", ""))
			nsns := allSubmatches(nsnRe, text)
			extras := map[string]string{}
			if len(nsns) > 0 {
				extras["nsn"] = strings.Join(nsns, ",")
			}
			if pr := firstSubmatch(prRe, text); pr != "" {
				extras["purchase_request"] = pr
			}
			if len(extras) > 0 {
				req.Extras = extras
			}
			// 条目行里出现的 NSN 作为料号
			for i := range req.Items {
				if req.Items[i].PartNumber == "" {
					req.Items[i].PartNumber = firstSubmatch(nsnRe, req.Items[i].Name)
				}
			}
			if req.Agency == "" {
				req.Agency = "DLA"
			}
		},
		validate: func(req *types.StructuredRequirement, v *types.ValidationResult) {
			for _, item := range req.Items {
				if !nsnRe.MatchString(item.PartNumber) {
					v.AddWarning("line item without NSN: " + item.Name)
					break
				}
			}
		},
	}, infer, log, opts...)
}
