package analysis

import (
	"github.com/KaramelBytes/talentflow-cli/internal/dataset"
)

// MinEconomyTotalFlow drops small countries from the economic scatter.
const MinEconomyTotalFlow = 50

// EconomyPoint joins one country's balance to its averaged indicators.
type EconomyPoint struct {
	Country               string   `json:"country" yaml:"country"`
	ISO3                  string   `json:"iso3" yaml:"iso3"`
	NetBalance            int64    `json:"net_balance" yaml:"net_balance"`
	Immigration           int64    `json:"immigration" yaml:"immigration"`
	Emigration            int64    `json:"emigration" yaml:"emigration"`
	TotalFlow             int64    `json:"total_flow" yaml:"total_flow"`
	Type                  string   `json:"type" yaml:"type"`
	GDPPerCapita          *float64 `json:"gdp_per_capita" yaml:"gdp_per_capita"`
	RDExpenditurePct      *float64 `json:"rd_expenditure_pct" yaml:"rd_expenditure_pct"`
	Population            *float64 `json:"population" yaml:"population"`
	ResearchersPerMillion *float64 `json:"researchers_per_million" yaml:"researchers_per_million"`
}

// Economy relates net balance to GDP per capita and R&D spending.
type Economy struct {
	Points []EconomyPoint `json:"points" yaml:"points"`
	GDP    Correlation    `json:"gdp_vs_net_balance" yaml:"gdp_vs_net_balance"`
	RD     Correlation    `json:"rd_vs_net_balance" yaml:"rd_vs_net_balance"`
}

// EconomicCorrelation maps each balance country to an ISO3 code through the
// flow table, inner-joins the pivoted indicators on it, and correlates GDP
// and R&D spending with net balance over countries whose total flow exceeds
// MinEconomyTotalFlow. An empty join is ErrInsufficientData.
func EconomicCorrelation(flows *dataset.FlowTable, balances []CountryBalance, indicators []dataset.CountryIndicators) (*Economy, error) {
	if len(indicators) == 0 {
		return nil, insufficient("no indicator rows inside the averaging window")
	}
	iso := map[string]string{}
	for _, r := range flows.Records {
		if _, ok := iso[r.Origin]; !ok && r.OriginISO3 != "" {
			iso[r.Origin] = r.OriginISO3
		}
	}
	for _, r := range flows.Records {
		if _, ok := iso[r.Destination]; !ok && r.DestinationISO3 != "" {
			iso[r.Destination] = r.DestinationISO3
		}
	}
	byISO := make(map[string]dataset.CountryIndicators, len(indicators))
	for _, ind := range indicators {
		byISO[ind.ISO3] = ind
	}

	eco := &Economy{Points: []EconomyPoint{}}
	for _, b := range balances {
		code, ok := iso[b.Country]
		if !ok {
			continue
		}
		ind, ok := byISO[code]
		if !ok {
			continue
		}
		eco.Points = append(eco.Points, EconomyPoint{
			Country:               b.Country,
			ISO3:                  code,
			NetBalance:            b.NetBalance,
			Immigration:           b.Immigration,
			Emigration:            b.Emigration,
			TotalFlow:             b.TotalFlow,
			Type:                  b.Type,
			GDPPerCapita:          ind.GDPPerCapita,
			RDExpenditurePct:      ind.RDExpenditurePct,
			Population:            ind.Population,
			ResearchersPerMillion: ind.ResearchersPerMillion,
		})
	}
	if len(eco.Points) == 0 {
		return nil, insufficient("no country matched the indicator table")
	}

	eco.GDP = indicatorCorrelation(eco.Points, "gdp_per_capita", func(p EconomyPoint) *float64 { return p.GDPPerCapita })
	eco.RD = indicatorCorrelation(eco.Points, "rd_expenditure_pct", func(p EconomyPoint) *float64 { return p.RDExpenditurePct })
	return eco, nil
}

func indicatorCorrelation(points []EconomyPoint, name string, get func(EconomyPoint) *float64) Correlation {
	var x, y []float64
	for _, p := range points {
		v := get(p)
		if v == nil || p.TotalFlow <= MinEconomyTotalFlow {
			continue
		}
		x = append(x, *v)
		y = append(y, float64(p.NetBalance))
	}
	return correlation(name, ColNetBalance, x, y)
}
