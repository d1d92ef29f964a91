package vars

// 抽取提示词。占位符: {{.CurrentDate}} {{.Content}} {{.Hints}}
// 输出的 JSON Schema 由 chat.ModelInferencer 追加在系统消息里
var (
	// 通用模板，各方言在 {{.Hints}} 里补充自己的字段说明
	EXTRACT_RFQ = `
You are a federal procurement analyst. Extract the structured requirement from the
solicitation below.
Current date: {{.CurrentDate}} (use it to resolve relative dates such as "within 30 days").

Rules:
1. Only report values present in the text. Leave a field empty if it is not stated.
2. Dates must be YYYY-MM-DD.
3. items: every requested line item with name, part_number, quantity and unit.
4. compliance: set taa_required when the Trade Agreements Act is mentioned as mandatory;
   list brand names required by the buyer in brand_restrictions ("brand name or equal"
   still counts); list socio-economic set-asides (SDVOSB, 8(a), HUBZone, WOSB) in
   required_certifications.
5. delivery_location: the ship-to place as "City, ST" when available.
6. confidence: your own confidence in the extraction between 0 and 1.
{{.Hints}}

Solicitation:
{{.Content}}

Output JSON only:
`

	HINTS_NASA_SEWP = `
7. This is a NASA SEWP request. solicitation_id is the SEWP RFQ/request ID
   (e.g. "RFQ 123456" or "Request ID 2024-ABC-0001"); agency is the requesting agency.`

	HINTS_GSA_EBUY = `
7. This is a GSA eBuy RFQ. solicitation_id has the form RFQ1234567. Put GSA SINs
   (Special Item Numbers) into keywords.`

	HINTS_DLA_DIBBS = `
7. This is a DLA DIBBS solicitation. solicitation_id starts with SPE (e.g. SPE4A724T1234).
   Use the NSN (national stock number, ####-##-###-####) as part_number for each item.`

	HINTS_GENERIC = `
7. The source system is unknown. Infer title, agency and solicitation_id from context.`
)
