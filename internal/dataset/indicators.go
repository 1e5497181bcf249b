package dataset

import "sort"

// World Bank indicator codes used by the economic views.
const (
	CodeGDPPerCapita          = "NY.GDP.PCAP.CD"
	CodeRDExpenditurePct      = "GB.XPD.RSDV.GD.ZS"
	CodePopulation            = "SP.POP.TOTL"
	CodeResearchersPerMillion = "SP.POP.SCIE.RD.P6"
)

// CountryIndicators is the wide form of the WDI table for one country. A nil
// field means the indicator had no observation inside the averaging window.
type CountryIndicators struct {
	ISO3                  string   `json:"iso3" yaml:"iso3"`
	GDPPerCapita          *float64 `json:"gdp_per_capita" yaml:"gdp_per_capita"`
	RDExpenditurePct      *float64 `json:"rd_expenditure_pct" yaml:"rd_expenditure_pct"`
	Population            *float64 `json:"population" yaml:"population"`
	ResearchersPerMillion *float64 `json:"researchers_per_million" yaml:"researchers_per_million"`
}

// PivotIndicators averages each (iso3, indicator) pair over the inclusive
// year window and returns one wide row per country, sorted by ISO3. Codes
// other than the four known indicators are ignored.
func PivotIndicators(rows []IndicatorRow, yearMin, yearMax int) []CountryIndicators {
	type acc struct {
		sum float64
		n   int
	}
	byCountry := map[string]map[string]*acc{}
	for _, r := range rows {
		if r.Year < yearMin || r.Year > yearMax || r.ISO3 == "" {
			continue
		}
		switch r.Code {
		case CodeGDPPerCapita, CodeRDExpenditurePct, CodePopulation, CodeResearchersPerMillion:
		default:
			continue
		}
		m := byCountry[r.ISO3]
		if m == nil {
			m = map[string]*acc{}
			byCountry[r.ISO3] = m
		}
		a := m[r.Code]
		if a == nil {
			a = &acc{}
			m[r.Code] = a
		}
		a.sum += r.Value
		a.n++
	}

	mean := func(m map[string]*acc, code string) *float64 {
		a := m[code]
		if a == nil || a.n == 0 {
			return nil
		}
		v := a.sum / float64(a.n)
		return &v
	}
	out := make([]CountryIndicators, 0, len(byCountry))
	for iso, m := range byCountry {
		out = append(out, CountryIndicators{
			ISO3:                  iso,
			GDPPerCapita:          mean(m, CodeGDPPerCapita),
			RDExpenditurePct:      mean(m, CodeRDExpenditurePct),
			Population:            mean(m, CodePopulation),
			ResearchersPerMillion: mean(m, CodeResearchersPerMillion),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ISO3 < out[j].ISO3 })
	return out
}
