package extract

import (
	"context"
	"time"

	"github.com/invopop/jsonschema"

	"rfq-match/types"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// fakeInferencer 返回固定字段或固定错误
type fakeInferencer struct {
	fields map[string]any
	conf   float64
	err    error
	calls  int
	prompt string
}

func (f *fakeInferencer) Infer(_ context.Context, prompt string, _ *jsonschema.Schema) (map[string]any, float64, error) {
	f.calls++
	f.prompt = prompt
	if f.err != nil {
		return nil, 0, f.err
	}
	// 每次返回新的 map，避免调用方修改影响下一次
	out := make(map[string]any, len(f.fields))
	for k, v := range f.fields {
		out[k] = v
	}
	return out, f.conf, nil
}

func nasaDoc() *types.Document {
	return &types.Document{
		ID:      "doc-nasa-1",
		Subject: "SEWP V RFQ ID: 304518 - Request for Quote: Dell Latitude laptops",
		Sender:  "Jane Smith <jane.smith@nasa.gov>",
		Body: `NASA Goddard Space Flight Center requests a quote under SEWP V, Group C.

1. Dell Latitude 5440 laptop P/N: LAT5440-I7, Qty: 25 EA
2. Dell WD22TB4 docking station, Qty: 25 EA

- Products must be TAA compliant.
- EPEAT Gold registered products required.
- Brand name only: Dell.

Quotes are due 03/15/2025 by 2:00 PM ET.
Questions due March 10, 2025.
Deliver to: Greenbelt, MD 20771

POC: Jane Smith, jane.smith@nasa.gov, 301-555-0142
Attachments: SOW_Laptops.pdf`,
		Attachments: []types.Attachment{{Filename: "SOW_Laptops.pdf", ContentType: "application/pdf"}},
		ReceivedAt:  fixedNow,
	}
}

func gsaDoc() *types.Document {
	return &types.Document{
		ID:      "doc-gsa-1",
		Subject: "eBuy RFQ1234567 - Cisco Catalyst switches",
		Sender:  "ebuy-notification@gsa.gov",
		Body: `An RFQ has been issued on eBuy under MAS SIN 33411.

Qty 12 EA - Cisco Catalyst 9300 48-port switch
This is a total small business set-aside.
Responses due April 2, 2025.
Ship to: Fort Worth, TX 76102`,
	}
}

func dlaDoc() *types.Document {
	return &types.Document{
		ID:      "doc-dla-1",
		Subject: "DIBBS Solicitation SPE4A724T1234",
		Sender:  "dibbs-bsm@dla.mil",
		Body: `Defense Logistics Agency request for quotation.
PR 7001234567

1. 5998-01-234-5678 circuit card assembly, Qty: 10 EA

Quotes due 2025-04-20.
Deliver to: Mechanicsburg, PA 17050`,
	}
}

func chatterDoc() *types.Document {
	return &types.Document{
		ID:      "doc-chatter",
		Subject: "Lunch on Friday",
		Sender:  "bob@example.com",
		Body:    "See you there.",
	}
}

// stubExtractor 只用于分发测试
type stubExtractor struct {
	dialect string
	conf    float64
}

func (s stubExtractor) Dialect() string { return s.dialect }

func (s stubExtractor) Confidence(*types.Document) float64 { return s.conf }

func (s stubExtractor) Validate(*types.StructuredRequirement) types.ValidationResult {
	return types.ValidationResult{IsValid: true, RecommendedAction: types.ActionProceed}
}

func (s stubExtractor) Extract(_ context.Context, doc *types.Document) (*types.StructuredRequirement, error) {
	return &types.StructuredRequirement{DocumentID: doc.ID, Dialect: s.dialect}, nil
}
