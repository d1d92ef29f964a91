package match

import (
	"regexp"
	"strings"
)

// 美国人口普查的 9 个分区 (division)，同分区视为相邻
var censusDivision = map[string]string{
	"CT": "new_england", "ME": "new_england", "MA": "new_england", "NH": "new_england", "RI": "new_england", "VT": "new_england",
	"NJ": "middle_atlantic", "NY": "middle_atlantic", "PA": "middle_atlantic",
	"IL": "east_north_central", "IN": "east_north_central", "MI": "east_north_central", "OH": "east_north_central", "WI": "east_north_central",
	"IA": "west_north_central", "KS": "west_north_central", "MN": "west_north_central", "MO": "west_north_central",
	"NE": "west_north_central", "ND": "west_north_central", "SD": "west_north_central",
	"DE": "south_atlantic", "DC": "south_atlantic", "FL": "south_atlantic", "GA": "south_atlantic", "MD": "south_atlantic",
	"NC": "south_atlantic", "SC": "south_atlantic", "VA": "south_atlantic", "WV": "south_atlantic",
	"AL": "east_south_central", "KY": "east_south_central", "MS": "east_south_central", "TN": "east_south_central",
	"AR": "west_south_central", "LA": "west_south_central", "OK": "west_south_central", "TX": "west_south_central",
	"AZ": "mountain", "CO": "mountain", "ID": "mountain", "MT": "mountain", "NV": "mountain", "NM": "mountain", "UT": "mountain", "WY": "mountain",
	"AK": "pacific", "CA": "pacific", "HI": "pacific", "OR": "pacific", "WA": "pacific",
}

// 分区 -> 大区 (region)
var censusRegion = map[string]string{
	"new_england":        "northeast",
	"middle_atlantic":    "northeast",
	"east_north_central": "midwest",
	"west_north_central": "midwest",
	"south_atlantic":     "south",
	"east_south_central": "south",
	"west_south_central": "south",
	"mountain":           "west",
	"pacific":            "west",
}

var stateNames = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR", "california": "CA",
	"colorado": "CO", "connecticut": "CT", "delaware": "DE", "district of columbia": "DC",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID", "illinois": "IL",
	"indiana": "IN", "iowa": "IA", "kansas": "KS", "kentucky": "KY", "louisiana": "LA",
	"maine": "ME", "maryland": "MD", "massachusetts": "MA", "michigan": "MI", "minnesota": "MN",
	"mississippi": "MS", "missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK", "oregon": "OR",
	"pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC", "south dakota": "SD",
	"tennessee": "TN", "texas": "TX", "utah": "UT", "vermont": "VT", "virginia": "VA",
	"washington": "WA", "west virginia": "WV", "wisconsin": "WI", "wyoming": "WY",
}

// cityState 常见交付地点 (NASA 中心、主要军事/联邦设施所在城市)
var cityState = map[string]string{
	"greenbelt":              "MD",
	"goddard":                "MD",
	"houston":                "TX",
	"johnson space center":   "TX",
	"huntsville":             "AL",
	"marshall space flight":  "AL",
	"kennedy space center":   "FL",
	"cape canaveral":         "FL",
	"pasadena":               "CA",
	"jet propulsion":         "CA",
	"moffett field":          "CA",
	"ames research":          "CA",
	"hampton":                "VA",
	"langley":                "VA",
	"cleveland":              "OH",
	"glenn research":         "OH",
	"edwards":                "CA",
	"stennis":                "MS",
	"bay st. louis":          "MS",
	"wallops island":         "VA",
	"arlington":              "VA",
	"fort worth":             "TX",
	"mechanicsburg":          "PA",
	"columbus":               "OH",
	"philadelphia":           "PA",
	"battle creek":           "MI",
	"san diego":              "CA",
	"norfolk":                "VA",
	"colorado springs":       "CO",
	"denver":                 "CO",
	"seattle":                "WA",
	"chicago":                "IL",
	"new york city":          "NY",
	"boston":                 "MA",
	"atlanta":                "GA",
	"dallas":                 "TX",
	"san antonio":            "TX",
	"los angeles":            "CA",
	"san francisco":          "CA",
	"baltimore":              "MD",
	"bethesda":               "MD",
	"fort meade":             "MD",
	"wright-patterson":       "OH",
	"dayton":                 "OH",
	"albuquerque":            "NM",
	"ogden":                  "UT",
	"oklahoma city":          "OK",
	"tinker air force base":  "OK",
	"quantico":               "VA",
	"fort bragg":             "NC",
}

// dcPlaces 要先于州名匹配，否则 "washington" 会落到华盛顿州
var dcPlaces = map[string]string{
	"washington dc":    "DC",
	"washington d.c.":  "DC",
	"washington, dc":   "DC",
	"washington, d.c.": "DC",
	"navy yard":        "DC",
	"bolling":          "DC",
	"fort mcnair":      "DC",
}

var (
	// "MD 20771"，带邮编的缩写在任何文本里都可信
	stateZipRe = regexp.MustCompile(`\b([A-Z]{2}),?\s+\d{5}(?:-\d{4})?\b`)
	// ", MD" 只在交付地址字段里认，自由文本里 "new, IN original packaging" 这类会误判
	stateAbbrRe = regexp.MustCompile(`,\s*([A-Z]{2})\b`)
)

// 定位方式，影响地理策略的置信度
const (
	locatedByAbbr = "state_abbreviation"
	locatedByName = "state_name"
	locatedByCity = "city_lookup"
)

// locateState 从文本找交付州："ST 12345" > ", ST" (仅地址字段) > 华盛顿特区 > 州全名 > 城市表。
// address 为 false 时文本是自由描述，不接受不带邮编的缩写
func locateState(text string, address bool) (string, string) {
	if text == "" {
		return "", ""
	}
	for _, m := range stateZipRe.FindAllStringSubmatch(text, -1) {
		if _, ok := censusDivision[m[1]]; ok {
			return m[1], locatedByAbbr
		}
	}
	if address {
		for _, m := range stateAbbrRe.FindAllStringSubmatch(text, -1) {
			if _, ok := censusDivision[m[1]]; ok {
				return m[1], locatedByAbbr
			}
		}
	}

	lower := strings.ToLower(text)
	if st, ok := longestMatch(lower, dcPlaces); ok {
		return st, locatedByCity
	}
	if st, ok := longestMatch(lower, stateNames); ok {
		return st, locatedByName
	}
	if st, ok := longestMatch(lower, cityState); ok {
		return st, locatedByCity
	}
	return "", ""
}

// longestMatch 取最长的命中项，避免 "virginia" 抢在 "west virginia" 前面；等长按字典序，保证结果稳定
func longestMatch(lower string, table map[string]string) (string, bool) {
	best, bestName := "", ""
	for name, st := range table {
		longer := len(name) > len(bestName) || (len(name) == len(bestName) && name < bestName)
		if longer && containsPhrase(lower, name) {
			best, bestName = st, name
		}
	}
	return best, bestName != ""
}

func containsPhrase(lower, phrase string) bool {
	idx := strings.Index(lower, phrase)
	for idx != -1 {
		end := idx + len(phrase)
		before := idx == 0 || !isLetter(lower[idx-1])
		after := end == len(lower) || !isLetter(lower[end])
		if before && after {
			return true
		}
		next := strings.Index(lower[idx+1:], phrase)
		if next == -1 {
			return false
		}
		idx += next + 1
	}
	return false
}

func isLetter(b byte) bool {
	return 'a' <= b && b <= 'z'
}

// proximity 同州 1.0 / 同分区 0.75 / 同大区 0.6 / 其他 0.25
func proximity(a, b string) float64 {
	a, b = strings.ToUpper(strings.TrimSpace(a)), strings.ToUpper(strings.TrimSpace(b))
	if a == "" || b == "" {
		return -1
	}
	if a == b {
		return 1.0
	}
	da, db := censusDivision[a], censusDivision[b]
	if da != "" && da == db {
		return 0.75
	}
	if da != "" && db != "" && censusRegion[da] == censusRegion[db] {
		return 0.6
	}
	return 0.25
}
