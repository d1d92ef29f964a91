package recall

import (
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"

	"rfq-match/types"
)

// 写入向量库/ES 的元数据字段
const (
	MetaName      = "name"
	MetaHomeState = "home_state"
	MetaStatus    = "status"
)

// SupplierProfile 拼出供应商的检索文本，两路索引共用
func SupplierProfile(s *types.Supplier) string {
	brands := make([]string, 0, len(s.AuthorizedBrands))
	for b := range s.AuthorizedBrands {
		brands = append(brands, b)
	}
	sort.Strings(brands)

	var sb strings.Builder
	sb.WriteString(s.Name)
	if len(s.Capabilities) > 0 {
		sb.WriteString("\ncapabilities: ")
		sb.WriteString(strings.ReplaceAll(strings.Join(s.Capabilities, ", "), "_", " "))
	}
	if len(brands) > 0 {
		sb.WriteString("\nauthorized brands: ")
		sb.WriteString(strings.Join(brands, ", "))
	}
	if len(s.Certifications) > 0 {
		sb.WriteString("\ncertifications: ")
		sb.WriteString(strings.Join(s.Certifications, ", "))
	}
	if len(s.PastPerformance.Agencies) > 0 {
		sb.WriteString("\nagencies served: ")
		sb.WriteString(strings.Join(s.PastPerformance.Agencies, ", "))
	}
	return sb.String()
}

// SupplierDocuments 只转换在用的供应商，ID 即供应商 ID
func SupplierDocuments(suppliers []types.Supplier) []*schema.Document {
	docs := make([]*schema.Document, 0, len(suppliers))
	for i := range suppliers {
		s := &suppliers[i]
		if !s.IsActive() {
			continue
		}
		docs = append(docs, &schema.Document{
			ID:      s.ID,
			Content: SupplierProfile(s),
			MetaData: map[string]any{
				MetaName:      s.Name,
				MetaHomeState: s.Geography.HomeState,
				MetaStatus:    types.SupplierActive,
			},
		})
	}
	return docs
}

// RequirementQuery 从抽取结果拼检索语句: 标题、条目、品牌、关键词
func RequirementQuery(req *types.StructuredRequirement) string {
	parts := make([]string, 0, len(req.Items)+len(req.Keywords)+2)
	if req.Title != "" {
		parts = append(parts, req.Title)
	}
	for _, item := range req.Items {
		parts = append(parts, item.Name)
	}
	parts = append(parts, req.Compliance.BrandRestrictions...)
	parts = append(parts, req.Keywords...)
	if len(parts) == 0 {
		// 只有需求行时取前几行
		n := min(len(req.Requirements), 5)
		parts = append(parts, req.Requirements[:n]...)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
