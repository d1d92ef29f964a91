package extract

import (
	"strings"

	"github.com/spf13/cast"

	"rfq-match/types"
)

// modelOutput 只用于生成给模型的 JSON Schema，模型的返回按 map 宽松解析
type modelOutput struct {
	SolicitationID   string          `json:"solicitation_id" jsonschema:"description=solicitation / RFQ identifier exactly as written"`
	Title            string          `json:"title" jsonschema:"description=short title of the request"`
	Agency           string          `json:"agency" jsonschema:"description=requesting agency"`
	Items            []modelItem     `json:"items" jsonschema:"description=requested line items"`
	Deadlines        []modelDeadline `json:"deadlines" jsonschema:"description=response / delivery / question deadlines"`
	Contacts         []modelContact  `json:"contacts"`
	Compliance       modelCompliance `json:"compliance"`
	DeliveryLocation string          `json:"delivery_location" jsonschema:"description=ship-to location as City, ST"`
	Requirements     []string        `json:"requirements" jsonschema:"description=free-text requirement lines"`
	Keywords         []string        `json:"keywords" jsonschema:"description=3 to 8 product or service keywords"`
	Confidence       float64         `json:"confidence" jsonschema:"minimum=0,maximum=1,description=self-reported extraction confidence"`
}

type modelItem struct {
	Name       string `json:"name"`
	PartNumber string `json:"part_number"`
	Quantity   int    `json:"quantity"`
	Unit       string `json:"unit"`
}

type modelDeadline struct {
	Kind string `json:"kind" jsonschema:"enum=response,enum=delivery,enum=questions"`
	Date string `json:"date" jsonschema:"description=YYYY-MM-DD"`
}

type modelContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

type modelCompliance struct {
	TAARequired            bool     `json:"taa_required"`
	BrandRestrictions      []string `json:"brand_restrictions"`
	RequiredCertifications []string `json:"required_certifications"`
	SecurityClearance      string   `json:"security_clearance"`
	EnvironmentalStandard  string   `json:"environmental_standard"`
}

// fromModel 模型返回的类型不可靠 (数字可能是字符串、列表可能是 null)，全部用 cast 宽松转换
func fromModel(fields map[string]any) *types.StructuredRequirement {
	req := &types.StructuredRequirement{
		SolicitationID:   str(fields["solicitation_id"]),
		Title:            str(fields["title"]),
		Agency:           str(fields["agency"]),
		DeliveryLocation: str(fields["delivery_location"]),
		Requirements:     strs(fields["requirements"]),
		Keywords:         lowerAll(strs(fields["keywords"])),
	}

	for _, raw := range cast.ToSlice(fields["items"]) {
		m := cast.ToStringMap(raw)
		name := str(m["name"])
		if name == "" {
			continue
		}
		req.Items = append(req.Items, types.LineItem{
			Name:       name,
			PartNumber: str(m["part_number"]),
			Quantity:   cast.ToInt(m["quantity"]),
			Unit:       strings.ToUpper(str(m["unit"])),
		})
	}

	for _, raw := range cast.ToSlice(fields["deadlines"]) {
		m := cast.ToStringMap(raw)
		date := str(m["date"])
		if parsed := parseDate(date); parsed != "" {
			date = parsed
		}
		if date == "" {
			continue
		}
		req.Deadlines = append(req.Deadlines, types.Deadline{Kind: strings.ToLower(str(m["kind"])), Date: date, Raw: str(m["date"])})
	}

	for _, raw := range cast.ToSlice(fields["contacts"]) {
		m := cast.ToStringMap(raw)
		c := types.Contact{
			Name:  str(m["name"]),
			Email: strings.ToLower(str(m["email"])),
			Phone: str(m["phone"]),
			Role:  str(m["role"]),
		}
		if c.Email != "" || c.Name != "" {
			req.Contacts = append(req.Contacts, c)
		}
	}

	comp := cast.ToStringMap(fields["compliance"])
	req.Compliance = types.ComplianceFlags{
		TAARequired:            cast.ToBool(comp["taa_required"]),
		BrandRestrictions:      strs(comp["brand_restrictions"]),
		RequiredCertifications: strs(comp["required_certifications"]),
		SecurityClearance:      strings.ToLower(str(comp["security_clearance"])),
		EnvironmentalStandard:  str(comp["environmental_standard"]),
	}
	return req
}

func str(v any) string {
	return strings.TrimSpace(cast.ToString(v))
}

func strs(v any) []string {
	var out []string
	for _, s := range cast.ToStringSlice(v) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func lowerAll(in []string) []string {
	for i := range in {
		in[i] = strings.ToLower(in[i])
	}
	return in
}
