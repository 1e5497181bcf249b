package dataset

import "strings"

// Region labels. Otros is the fallback for codes outside the static map.
const (
	Europa       = "Europa"
	Norteamerica = "Norteamérica"
	Asia         = "Asia"
	Sudamerica   = "Sudamérica"
	Oceania      = "Oceanía"
	Africa       = "África"
	Otros        = "Otros"
)

var regionOrder = []string{Europa, Norteamerica, Asia, Sudamerica, Oceania, Africa, Otros}

var regionMap = map[string]string{
	"GBR": Europa, "DEU": Europa, "FRA": Europa, "ITA": Europa,
	"ESP": Europa, "NLD": Europa, "BEL": Europa, "CHE": Europa,
	"AUT": Europa, "SWE": Europa, "NOR": Europa, "DNK": Europa,
	"FIN": Europa, "POL": Europa, "CZE": Europa, "HUN": Europa,
	"ROU": Europa, "BGR": Europa, "GRC": Europa, "PRT": Europa,
	"IRL": Europa, "HRV": Europa, "SVK": Europa, "SVN": Europa,
	"LUX": Europa, "EST": Europa, "LVA": Europa, "LTU": Europa,

	"USA": Norteamerica, "CAN": Norteamerica, "MEX": Norteamerica,

	"CHN": Asia, "JPN": Asia, "IND": Asia, "KOR": Asia,
	"IDN": Asia, "THA": Asia, "MYS": Asia, "SGP": Asia,
	"PHL": Asia, "VNM": Asia, "PAK": Asia, "BGD": Asia,
	"IRN": Asia, "TUR": Asia, "SAU": Asia, "ARE": Asia,
	"ISR": Asia,

	"BRA": Sudamerica, "ARG": Sudamerica, "CHL": Sudamerica,
	"COL": Sudamerica, "PER": Sudamerica, "VEN": Sudamerica,
	"ECU": Sudamerica, "BOL": Sudamerica, "PRY": Sudamerica,
	"URY": Sudamerica,

	"AUS": Oceania, "NZL": Oceania,

	"ZAF": Africa, "EGY": Africa, "NGA": Africa, "KEN": Africa,
	"MAR": Africa, "TUN": Africa, "GHA": Africa, "ETH": Africa,
	"UGA": Africa,
}

// RegionOf maps an ISO3 code to its region, Otros when unmapped.
func RegionOf(iso3 string) string {
	if r, ok := regionMap[strings.ToUpper(strings.TrimSpace(iso3))]; ok {
		return r
	}
	return Otros
}

// Regions lists every region label in display order.
func Regions() []string {
	out := make([]string, len(regionOrder))
	copy(out, regionOrder)
	return out
}

// IsRegion reports whether name is one of the known region labels.
func IsRegion(name string) bool {
	for _, r := range regionOrder {
		if r == name {
			return true
		}
	}
	return false
}
