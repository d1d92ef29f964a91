package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"rfq-match/types"
)

// 规则阶段的正则，全部是 RE2 语法
var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`\(?\b\d{3}\)?[\-.\s]\d{3}[\-.\s]\d{4}\b`)

	dateNumericRe = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b|\b\d{4}-\d{2}-\d{2}\b`)
	dateWordRe    = regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}\b`)

	partNumberRe = regexp.MustCompile(`(?i)\b(?:P/N|PN|MPN|SKU|part\s*(?:no\.?|number|#)|mfr\s*(?:part\s*)?(?:no\.?|#))\s*[:#]?\s*([A-Z0-9][A-Z0-9\-./]{3,})`)

	// 1. Dell Latitude 5440, Qty: 25 EA
	itemNumberedRe = regexp.MustCompile(`(?im)^\s*(?:item\s*)?\d{1,3}[.):]\s+(.+?)[\s,;\-]+(?:qty|quantity)\s*[:=]?\s*(\d+)\s*([A-Za-z]{1,5})?\.?\s*$`)
	// Qty 25 EA - Dell Latitude 5440
	itemQtyFirstRe = regexp.MustCompile(`(?im)^\s*(?:qty|quantity)\s*[:=]?\s*(\d+)\s*([A-Za-z]{1,5})?\s*[x\-:]\s*(.+?)\s*$`)
	// 25 x Dell Latitude 5440
	itemCountRe = regexp.MustCompile(`(?im)^\s*(\d{1,6})\s*(?:x|ea\.?|each)\s+(.+?)\s*$`)

	taaRe       = regexp.MustCompile(`(?i)\bTAA\b|trade agreements? act`)
	epeatRe     = regexp.MustCompile(`(?i)\bEPEAT\b(?:\s+(gold|silver|bronze))?`)
	energyRe    = regexp.MustCompile(`(?i)\benergy\s*star\b`)
	clearanceRe = regexp.MustCompile(`(?i)\b(top secret(?:/sci)?|ts/sci|secret|public trust)\s+(?:security\s+)?clearance|clearance[^.\n]{0,20}?\b(top secret(?:/sci)?|ts/sci|secret|public trust)\b`)

	deliveryLineRe = regexp.MustCompile(`(?im)^\s*(?:deliver(?:y)?(?:\s+(?:to|location|address|point))?|ship(?:ping)?\s+to|place of performance|fob\s+destination)\s*[:\-]\s*(.+?)\s*$`)
	attachmentRe   = regexp.MustCompile(`(?i)\b[\w\-.]+\.(?:pdf|docx?|xlsx?|csv|zip|txt)\b`)
	bulletRe       = regexp.MustCompile(`^\s*(?:[-*•]|\(?[a-z0-9]\))\s+`)
	mandatoryRe    = regexp.MustCompile(`(?i)\b(?:must|shall|required|requirement|mandatory)\b`)
	subjectNoiseRe = regexp.MustCompile(`(?i)^(?:(?:re|fw|fwd)\s*:\s*)+`)
)

// certPattern 业务资质关键字 -> 标准名
type certPattern struct {
	name string
	re   *regexp.Regexp
}

var certPatterns = []certPattern{
	{"SDVOSB", regexp.MustCompile(`(?i)\bSDVOSBC?\b|service[\s\-]disabled veteran`)},
	{"VOSB", regexp.MustCompile(`(?i)\bVOSB\b|veteran[\s\-]owned small business`)},
	{"8(a)", regexp.MustCompile(`(?i)\b8\(a\)`)},
	{"HUBZone", regexp.MustCompile(`(?i)\bhub\s?zone\b`)},
	{"EDWOSB", regexp.MustCompile(`(?i)\bEDWOSB\b`)},
	{"WOSB", regexp.MustCompile(`(?i)\bWOSB\b|women[\s\-]owned small business`)},
	{"Small Business", regexp.MustCompile(`(?i)\bsmall business set[\s\-]aside\b|\btotal small business\b`)},
	{"ISO 9001", regexp.MustCompile(`(?i)\bISO\s?9001\b`)},
	{"CMMC", regexp.MustCompile(`(?i)\bCMMC\b`)},
}

// knownBrands 常见 IT 品牌，匹配到即认为需求点名了该品牌
var knownBrands = []struct {
	name string
	re   *regexp.Regexp
}{
	{"Dell", regexp.MustCompile(`(?i)\bdell\b`)},
	{"HPE", regexp.MustCompile(`(?i)\bHPE\b|hewlett packard enterprise`)},
	{"HP", regexp.MustCompile(`\bHP\b|(?i)\bhp inc\b`)},
	{"Lenovo", regexp.MustCompile(`(?i)\blenovo\b`)},
	{"Cisco", regexp.MustCompile(`(?i)\bcisco\b`)},
	{"Microsoft", regexp.MustCompile(`(?i)\bmicrosoft\b`)},
	{"Apple", regexp.MustCompile(`(?i)\bapple\b|\bmacbook\b|\bipad\b`)},
	{"Panasonic", regexp.MustCompile(`(?i)\bpanasonic\b|\btoughbook\b`)},
	{"Samsung", regexp.MustCompile(`(?i)\bsamsung\b`)},
	{"Juniper", regexp.MustCompile(`(?i)\bjuniper\b`)},
	{"Palo Alto Networks", regexp.MustCompile(`(?i)\bpalo alto networks\b`)},
	{"Fortinet", regexp.MustCompile(`(?i)\bfortinet\b|\bfortigate\b`)},
	{"NetApp", regexp.MustCompile(`(?i)\bnetapp\b`)},
	{"VMware", regexp.MustCompile(`(?i)\bvmware\b`)},
	{"Adobe", regexp.MustCompile(`(?i)\badobe\b`)},
	{"Oracle", regexp.MustCompile(`(?i)\boracle\b`)},
	{"IBM", regexp.MustCompile(`(?i)\bIBM\b`)},
	{"Xerox", regexp.MustCompile(`(?i)\bxerox\b`)},
	{"APC", regexp.MustCompile(`\bAPC\b`)},
	{"Red Hat", regexp.MustCompile(`(?i)\bred hat\b`)},
}

var agencyPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"NASA", regexp.MustCompile(`(?i)\bNASA\b|national aeronautics and space administration`)},
	{"GSA", regexp.MustCompile(`\bGSA\b|(?i)general services administration`)},
	{"DLA", regexp.MustCompile(`\bDLA\b|(?i)defense logistics agency`)},
	{"VA", regexp.MustCompile(`(?i)veterans affairs|\bdept\.? of VA\b`)},
	{"Army", regexp.MustCompile(`(?i)\bU\.?S\.? army\b|\barmy\b`)},
	{"Navy", regexp.MustCompile(`(?i)\bU\.?S\.? navy\b|\bnavy\b|\bNAVSUP\b`)},
	{"Air Force", regexp.MustCompile(`(?i)\bair force\b|\bUSAF\b`)},
	{"DHS", regexp.MustCompile(`\bDHS\b|(?i)homeland security`)},
	{"DOE", regexp.MustCompile(`\bDOE\b|(?i)department of energy`)},
	{"NIH", regexp.MustCompile(`\bNIH\b|(?i)national institutes of health`)},
	{"USDA", regexp.MustCompile(`\bUSDA\b|(?i)department of agriculture`)},
}

// domainVocabulary 领域关键词，技术匹配策略用它推断能力
var domainVocabulary = []string{
	"laptop", "notebook", "desktop", "workstation", "tablet", "server", "storage", "san", "nas",
	"switch", "router", "firewall", "wireless", "access point", "monitor", "display", "printer",
	"scanner", "toner", "software", "license", "subscription", "cloud", "backup", "network",
	"cabling", "ups", "rack", "phone", "headset", "docking station", "memory", "ssd",
	"hard drive", "gpu", "maintenance", "warranty", "installation", "training", "support",
	"cybersecurity", "video conferencing", "rugged",
}

var dateLayouts = []string{
	"2006-01-02", "01/02/2006", "1/2/2006",
	"January 2, 2006", "January 2 2006", "Jan 2, 2006", "Jan 2 2006",
}

// parseDate 统一转换为 YYYY-MM-DD，无法解析返回空
func parseDate(raw string) string {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ".", "")
	s = capitalize(strings.Join(strings.Fields(s), " "))
	s = strings.Replace(s, "Sept ", "Sep ", 1)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

var (
	questionKindRe = regexp.MustCompile(`(?i)\bquestions?\b|\binquir`)
	deliveryKindRe = regexp.MustCompile(`(?i)\bdeliver|\bship\b|\bshipment\b|\bperiod of performance\b`)
	responseKindRe = regexp.MustCompile(`(?i)\bdue\b|\brespon|\bquotes?\b|\bclos(?:e|ing)\b|\bsubmi|\bdeadline\b|\boffers?\b`)
)

// extractDeadlines 逐行找日期，按行内关键字判断类型；没有关键字的日期忽略
func extractDeadlines(text string) []types.Deadline {
	var out []types.Deadline
	seen := map[string]bool{}
	for _, line := range strings.Split(text, "\n") {
		dates := append(dateNumericRe.FindAllString(line, -1), dateWordRe.FindAllString(line, -1)...)
		if len(dates) == 0 {
			continue
		}
		var kind string
		switch {
		case questionKindRe.MatchString(line):
			kind = "questions"
		case deliveryKindRe.MatchString(line):
			kind = "delivery"
		case responseKindRe.MatchString(line):
			kind = "response"
		default:
			continue
		}
		for _, raw := range dates {
			date := parseDate(raw)
			key := kind + "|" + date + "|" + raw
			if date == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, types.Deadline{Kind: kind, Date: date, Raw: strings.TrimSpace(line)})
		}
	}
	return out
}

func extractContacts(text string) []types.Contact {
	var out []types.Contact
	seen := map[string]bool{}
	for _, line := range strings.Split(text, "\n") {
		emails := emailRe.FindAllString(line, -1)
		for _, email := range emails {
			email = strings.ToLower(email)
			if seen[email] {
				continue
			}
			seen[email] = true
			c := types.Contact{Email: email}
			if phone := phoneRe.FindString(line); phone != "" {
				c.Phone = strings.TrimSpace(phone)
			}
			if name := contactName(line, email); name != "" {
				c.Name = name
			}
			if strings.Contains(strings.ToLower(line), "contracting officer") {
				c.Role = "contracting_officer"
			} else if strings.Contains(strings.ToLower(line), "specialist") {
				c.Role = "contract_specialist"
			}
			out = append(out, c)
		}
	}
	return out
}

var contactPrefixRe = regexp.MustCompile(`(?i)^\s*(?:poc|point of contact|contact|contracting officer|contract specialist|buyer)\s*[:\-]\s*`)

// contactName 取 "POC: Jane Doe, jane@x.gov" 里邮箱前的名字
func contactName(line, email string) string {
	idx := strings.Index(strings.ToLower(line), email)
	if idx <= 0 {
		return ""
	}
	head := contactPrefixRe.ReplaceAllString(line[:idx], "")
	head = strings.Trim(head, " ,;:<>()-\t")
	if head == "" || len(head) > 60 || strings.ContainsAny(head, "@0123456789") {
		return ""
	}
	return head
}

func extractItems(text string) []types.LineItem {
	var out []types.LineItem
	for _, m := range itemNumberedRe.FindAllStringSubmatch(text, -1) {
		out = append(out, newLineItem(m[1], m[2], m[3]))
	}
	for _, m := range itemQtyFirstRe.FindAllStringSubmatch(text, -1) {
		out = append(out, newLineItem(m[3], m[1], m[2]))
	}
	if len(out) == 0 {
		for _, m := range itemCountRe.FindAllStringSubmatch(text, -1) {
			out = append(out, newLineItem(m[2], m[1], ""))
		}
	}
	return out
}

func newLineItem(name, qty, unit string) types.LineItem {
	item := types.LineItem{Name: strings.Trim(strings.TrimSpace(name), ",;-"), Unit: "EA"}
	item.Quantity, _ = strconv.Atoi(qty)
	if u := strings.ToUpper(strings.TrimSpace(unit)); u != "" && u != "EACH" {
		item.Unit = u
	}
	if m := partNumberRe.FindStringSubmatch(name); m != nil {
		item.PartNumber = strings.TrimRight(m[1], ".,")
		item.Name = strings.Trim(strings.TrimSpace(partNumberRe.ReplaceAllString(item.Name, "")), ",;- ")
	}
	return item
}

func extractPartNumbers(text string) []string {
	var out []string
	for _, m := range partNumberRe.FindAllStringSubmatch(text, -1) {
		out = append(out, strings.TrimRight(m[1], ".,"))
	}
	return dedupe(out)
}

// fillPartNumbers 条目行里没写料号、但正文别处列了料号时回填。
// 只有一个空缺，或空缺数和剩余料号数相同 (按出现顺序对应) 时才填，否则对应关系不可靠
func fillPartNumbers(items []types.LineItem, text string) {
	used := map[string]bool{}
	var empty []int
	for i, item := range items {
		if item.PartNumber == "" {
			empty = append(empty, i)
		} else {
			used[strings.ToLower(item.PartNumber)] = true
		}
	}
	if len(empty) == 0 {
		return
	}
	var remaining []string
	for _, pn := range extractPartNumbers(text) {
		if !used[strings.ToLower(pn)] {
			remaining = append(remaining, pn)
		}
	}
	if len(remaining) == 0 || (len(empty) > 1 && len(empty) != len(remaining)) {
		return
	}
	for j, i := range empty {
		items[i].PartNumber = remaining[j]
	}
}

func extractCertifications(text string) []string {
	var out []string
	for _, p := range certPatterns {
		if p.re.MatchString(text) {
			out = append(out, p.name)
		}
	}
	return out
}

func extractBrands(text string) []string {
	var out []string
	for _, b := range knownBrands {
		if b.re.MatchString(text) {
			out = append(out, b.name)
		}
	}
	return out
}

// extractAgency 取正文里最先出现的机构
func extractAgency(text string) string {
	best, bestPos := "", -1
	for _, a := range agencyPatterns {
		loc := a.re.FindStringIndex(text)
		if loc != nil && (bestPos == -1 || loc[0] < bestPos) {
			best, bestPos = a.name, loc[0]
		}
	}
	return best
}

func extractCompliance(text string) types.ComplianceFlags {
	flags := types.ComplianceFlags{
		TAARequired:            taaRe.MatchString(text),
		BrandRestrictions:      extractBrands(text),
		RequiredCertifications: extractCertifications(text),
	}
	if m := clearanceRe.FindStringSubmatch(text); m != nil {
		level := m[1]
		if level == "" {
			level = m[2]
		}
		flags.SecurityClearance = strings.ToLower(level)
	}
	if m := epeatRe.FindStringSubmatch(text); m != nil {
		flags.EnvironmentalStandard = strings.TrimSpace("EPEAT " + capitalize(m[1]))
	} else if energyRe.MatchString(text) {
		flags.EnvironmentalStandard = "ENERGY STAR"
	}
	return flags
}

func extractDeliveryLocation(text string) string {
	if m := deliveryLineRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func extractAttachments(doc *types.Document) []string {
	var out []string
	for _, a := range doc.Attachments {
		if a.Filename != "" {
			out = append(out, a.Filename)
		}
	}
	out = append(out, attachmentRe.FindAllString(doc.Body, -1)...)
	return dedupe(out)
}

// extractRequirementLines 列表项或含 must/shall/required 的行
func extractRequirementLines(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) < 8 {
			continue
		}
		if bulletRe.MatchString(line) || mandatoryRe.MatchString(trimmed) {
			out = append(out, strings.TrimSpace(bulletRe.ReplaceAllString(line, "")))
		}
		if len(out) >= 50 {
			break
		}
	}
	return dedupe(out)
}

// InlineSignals 对没有原始文档的请求 (条目名 + 需求描述) 跑关键词和合规规则
func InlineSignals(items []types.LineItem, lines []string) ([]string, types.ComplianceFlags) {
	parts := make([]string, 0, len(items)+len(lines))
	for _, item := range items {
		parts = append(parts, item.Name)
	}
	parts = append(parts, lines...)
	text := strings.Join(parts, "\n")
	return extractKeywords(text), extractCompliance(text)
}

func extractKeywords(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, kw := range domainVocabulary {
		if containsWord(lower, kw) {
			out = append(out, kw)
		}
	}
	return out
}

// containsWord 单词边界匹配，避免 "ups" 命中 "groups"
func containsWord(lower, word string) bool {
	for start := 0; ; {
		idx := strings.Index(lower[start:], word)
		if idx == -1 {
			return false
		}
		i := start + idx
		j := i + len(word)
		before := i == 0 || !isWordByte(lower[i-1])
		after := j == len(lower) || !isWordByte(lower[j]) || (lower[j] == 's' && (j+1 == len(lower) || !isWordByte(lower[j+1])))
		if before && after {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

// capitalize "GOLD" -> "Gold"
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func cleanTitle(subject string) string {
	return strings.TrimSpace(subjectNoiseRe.ReplaceAllString(subject, ""))
}

// firstSubmatch 返回第一个非空的捕获组
func firstSubmatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	for i := 1; i < len(m); i++ {
		if m[i] != "" {
			return strings.TrimSpace(m[i])
		}
	}
	return ""
}

func allSubmatches(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		for i := 1; i < len(m); i++ {
			if m[i] != "" {
				out = append(out, strings.TrimSpace(m[i]))
				break
			}
		}
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
