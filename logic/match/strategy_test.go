package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfq-match/types"
)

func TestComplianceStrategy_FullyCompliant(t *testing.T) {
	s := authorizedLocal()
	score, err := NewComplianceStrategy(DefaultConfig()).Score(laptopRequirement(), &s)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, score.Value, 1e-9)
	assert.NotContains(t, score.Details, DetailCriticalFailures)
	assert.Equal(t, map[string]float64{"earned": 25, "max": 25}, score.Details["taa"])
}

func TestComplianceStrategy_MissingAttributesNeverFail(t *testing.T) {
	req := laptopRequirement()
	req.Compliance.SecurityClearance = "Secret"
	empty := types.Supplier{ID: "sup-empty"}

	score, err := NewComplianceStrategy(DefaultConfig()).Score(req, &empty)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score.Value, 0.0)
	assert.Less(t, score.Value, 0.2)
	// 只有 TAA 一项是已知数据
	assert.InDelta(t, 0.5+0.5*1.0/6.0, score.Confidence, 1e-9)
}

func TestComplianceStrategy_OnlyExperienceWhenNothingRequired(t *testing.T) {
	req := &types.StructuredRequirement{Agency: "NASA"}
	s := authorizedLocal()
	score, err := NewComplianceStrategy(DefaultConfig()).Score(req, &s)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score.Value, 1e-9)
	assert.Len(t, score.Details, 1)
}

func TestBrandCoverage_UnknownLevelIsUnauthorized(t *testing.T) {
	ratio, missing := brandCoverage([]string{"Dell", "HP", "Lenovo"}, map[string]string{
		"dell":    "Platinum",
		"HP":      "expired",
		"Lenovo ": "none",
	})
	assert.InDelta(t, 1.0/3.0, ratio, 1e-9)
	assert.Equal(t, []string{"HP", "Lenovo"}, missing)

	req := laptopRequirement()
	s := authorizedLocal()
	s.AuthorizedBrands = map[string]string{"Dell": "expired"}
	score, err := NewComplianceStrategy(DefaultConfig()).Score(req, &s)
	require.NoError(t, err)
	assert.Equal(t, []string{"supplier is not an authorized reseller for Dell"}, score.Details[DetailCriticalFailures])

	tech, err := NewTechnicalStrategy(DefaultConfig()).Score(req, &s)
	require.NoError(t, err)
	assert.Equal(t, 0.1, tech.Details["brand_cross_check"])
}

func TestCertificationOverlap(t *testing.T) {
	assert.InDelta(t, 1.0, certificationOverlap([]string{"Small Business"}, []string{"8(a)"}), 1e-9)
	assert.InDelta(t, 1.0, certificationOverlap([]string{"HUBZone"}, []string{"HUB Zone"}), 1e-9)
	// sdvosb 1.0 + iso9001 0.5，只持有 iso
	assert.InDelta(t, 0.5/1.5, certificationOverlap([]string{"SDVOSB", "ISO 9001"}, []string{"ISO-9001"}), 1e-9)
	assert.Zero(t, certificationOverlap([]string{"SDVOSB"}, nil))
}

func TestClearanceMatch(t *testing.T) {
	assert.Equal(t, 1.0, clearanceMatch("Secret", []string{"Top Secret"}))
	assert.InDelta(t, 0.5*1.0/3.0, clearanceMatch("Secret", []string{"Public Trust"}), 1e-9)
	assert.Zero(t, clearanceMatch("Top Secret", nil))
}

func TestTechnicalStrategy(t *testing.T) {
	tech := NewTechnicalStrategy(DefaultConfig())
	assert.False(t, tech.IsApplicable(&types.StructuredRequirement{}))
	assert.True(t, tech.IsApplicable(laptopRequirement()))

	a, b := authorizedLocal(), unauthorizedRemote()
	sa, err := tech.Score(laptopRequirement(), &a)
	require.NoError(t, err)
	sb, err := tech.Score(laptopRequirement(), &b)
	require.NoError(t, err)

	assert.Greater(t, sa.Value, sb.Value)
	assert.Equal(t, 1.0, sa.Details["brand_cross_check"])
	assert.Equal(t, 0.1, sb.Details["brand_cross_check"])
	assert.Equal(t, 1.0, sa.Details["capability_match"])
	assert.Equal(t, []string{"end_user_computing"}, sa.Details["required_capabilities"])
	assert.Equal(t, 0.8, sa.Details["part_number_signal"])
}

func TestTechnicalStrategy_DoesNotMutateSupplier(t *testing.T) {
	s := authorizedLocal()
	s.Capabilities = make([]string, 1, 8)
	s.Capabilities[0] = "end_user_computing"
	before := append([]string(nil), s.Capabilities[:cap(s.Capabilities)]...)

	_, err := NewTechnicalStrategy(DefaultConfig()).Score(laptopRequirement(), &s)
	require.NoError(t, err)
	assert.Equal(t, before, s.Capabilities[:cap(s.Capabilities)])
}

func TestGeographicStrategy_NoLocationIsNeutral(t *testing.T) {
	req := laptopRequirement()
	req.DeliveryLocation = ""
	s := authorizedLocal()

	score, err := NewGeographicStrategy(DefaultConfig()).Score(req, &s)
	require.NoError(t, err)
	assert.Equal(t, 0.5, score.Value)
	assert.Equal(t, 0.3, score.Confidence)
}

func TestGeographicStrategy_FallsBackToRequirementLines(t *testing.T) {
	req := laptopRequirement()
	req.DeliveryLocation = ""
	req.Requirements = []string{"Items shall be delivered to Johnson Space Center, Houston."}
	s := authorizedLocal()
	s.Geography.HomeState = "TX"

	score, err := NewGeographicStrategy(DefaultConfig()).Score(req, &s)
	require.NoError(t, err)
	assert.Equal(t, "TX", score.Details["delivery_state"])
	assert.Equal(t, locatedByCity, score.Details["located_by"])
	assert.Equal(t, 1.0, score.Details["proximity"])
	assert.InDelta(t, 0.7, score.Confidence, 1e-9)
}

func TestGeographicStrategy_LocalBeatsRemote(t *testing.T) {
	geo := NewGeographicStrategy(DefaultConfig())
	a, b := authorizedLocal(), unauthorizedRemote()

	sa, err := geo.Score(laptopRequirement(), &a)
	require.NoError(t, err)
	sb, err := geo.Score(laptopRequirement(), &b)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, sa.Value, 1e-9)
	// 0.5*0.25 + 0.25*0.2 + 0.1*0.25 + 0.15*0.4
	assert.InDelta(t, 0.26, sb.Value, 1e-9)
}

func TestGeographicStrategy_UnknownSupplierLocation(t *testing.T) {
	empty := types.Supplier{ID: "sup-empty"}
	score, err := NewGeographicStrategy(DefaultConfig()).Score(laptopRequirement(), &empty)
	require.NoError(t, err)
	// 0.5*0.4 + 0.25*0.4 + 0.1*0.4 + 0.15*0.3
	assert.InDelta(t, 0.385, score.Value, 1e-9)
	assert.InDelta(t, 0.7, score.Confidence, 1e-9)
}

func TestLocateState(t *testing.T) {
	cases := []struct {
		text    string
		address bool
		state   string
		method  string
	}{
		{"Greenbelt, MD 20771", true, "MD", locatedByAbbr},
		{"Greenbelt, MD", true, "MD", locatedByAbbr},
		{"Ship to Building 5, Fort Worth TX 76101", false, "TX", locatedByAbbr},
		{"Deliver to the West Virginia data center", false, "WV", locatedByName},
		{"Deliver to the Virginia data center", false, "VA", locatedByName},
		{"Kennedy Space Center receiving dock", false, "FL", locatedByCity},
		{"NASA Headquarters, 300 E Street SW, Washington DC", true, "DC", locatedByCity},
		{"Washington Navy Yard", true, "DC", locatedByCity},
		{"Washington, DC 20546", true, "DC", locatedByAbbr},
		{"Seattle, Washington", true, "WA", locatedByName},
		{"All items must be new, IN original manufacturer packaging", false, "", ""},
		{"no location here", false, "", ""},
		{"", true, "", ""},
	}
	for _, c := range cases {
		t.Run(c.text, func(t *testing.T) {
			state, method := locateState(c.text, c.address)
			assert.Equal(t, c.state, state)
			assert.Equal(t, c.method, method)
		})
	}
}

func TestGeographicStrategy_DCDelivery(t *testing.T) {
	req := &types.StructuredRequirement{DeliveryLocation: "NASA Headquarters, 300 E Street SW, Washington DC"}
	md := &types.Supplier{ID: "sup-md", Geography: types.Geography{HomeState: "MD"}}
	wa := &types.Supplier{ID: "sup-wa", Geography: types.Geography{HomeState: "WA"}}

	s := NewGeographicStrategy(DefaultConfig())
	near, err := s.Score(req, md)
	require.NoError(t, err)
	far, err := s.Score(req, wa)
	require.NoError(t, err)
	assert.Equal(t, "DC", near.Details["delivery_state"])
	assert.Greater(t, near.Value, far.Value)
}

func TestGeographicStrategy_FreeTextAbbreviationIgnored(t *testing.T) {
	req := &types.StructuredRequirement{Requirements: []string{"All items must be new, IN original manufacturer packaging"}}
	score, err := NewGeographicStrategy(DefaultConfig()).Score(req, &types.Supplier{Geography: types.Geography{HomeState: "IN"}})
	require.NoError(t, err)
	assert.Equal(t, 0.5, score.Value)
	assert.Equal(t, "no delivery location", score.Details["reason"])
}

func TestProximity(t *testing.T) {
	assert.Equal(t, 1.0, proximity("MD", "md"))
	assert.Equal(t, 0.75, proximity("MD", "VA"))
	assert.Equal(t, 0.6, proximity("MD", "TX"))
	assert.Equal(t, 0.25, proximity("MD", "CA"))
	assert.Equal(t, -1.0, proximity("MD", ""))
}

func TestFootprintCoverage(t *testing.T) {
	assert.Equal(t, 1.0, footprintCoverage("MD", []string{"Nationwide"}))
	assert.Equal(t, 1.0, footprintCoverage("MD", []string{"va", "md"}))
	assert.Equal(t, 0.6, footprintCoverage("MD", []string{"VA"}))
	assert.Equal(t, 0.2, footprintCoverage("MD", []string{"CA"}))
	assert.Equal(t, 0.4, footprintCoverage("MD", nil))
}

func TestTokenize(t *testing.T) {
	toks := tokenize("Dell Latitude laptops, Qty 25 EA", "the docking stations")
	assert.True(t, toks["laptop"])
	assert.True(t, toks["station"])
	assert.True(t, toks["25"])
	assert.False(t, toks["ea"])
	assert.False(t, toks["the"])
}
