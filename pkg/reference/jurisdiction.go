// Copyright 2025 Shadow Atlas Contributors
//
// Jurisdiction table: the 50 states, DC, and the 5 inhabited territories,
// keyed by 2-digit Census state FIPS code. This is the join key every other
// table in this package uses.

package reference

import "sort"

// Jurisdiction describes one of the 56 state-equivalent entities the
// pipeline recognizes.
type Jurisdiction struct {
	FIPS      string
	Abbrev    string
	Name      string
	Territory bool // true for DC and the 5 inhabited territories
}

// Jurisdictions is keyed by 2-digit state FIPS.
var Jurisdictions = map[string]Jurisdiction{
	"01": {"01", "AL", "Alabama", false},
	"02": {"02", "AK", "Alaska", false},
	"04": {"04", "AZ", "Arizona", false},
	"05": {"05", "AR", "Arkansas", false},
	"06": {"06", "CA", "California", false},
	"08": {"08", "CO", "Colorado", false},
	"09": {"09", "CT", "Connecticut", false},
	"10": {"10", "DE", "Delaware", false},
	"11": {"11", "DC", "District of Columbia", true},
	"12": {"12", "FL", "Florida", false},
	"13": {"13", "GA", "Georgia", false},
	"15": {"15", "HI", "Hawaii", false},
	"16": {"16", "ID", "Idaho", false},
	"17": {"17", "IL", "Illinois", false},
	"18": {"18", "IN", "Indiana", false},
	"19": {"19", "IA", "Iowa", false},
	"20": {"20", "KS", "Kansas", false},
	"21": {"21", "KY", "Kentucky", false},
	"22": {"22", "LA", "Louisiana", false},
	"23": {"23", "ME", "Maine", false},
	"24": {"24", "MD", "Maryland", false},
	"25": {"25", "MA", "Massachusetts", false},
	"26": {"26", "MI", "Michigan", false},
	"27": {"27", "MN", "Minnesota", false},
	"28": {"28", "MS", "Mississippi", false},
	"29": {"29", "MO", "Missouri", false},
	"30": {"30", "MT", "Montana", false},
	"31": {"31", "NE", "Nebraska", false},
	"32": {"32", "NV", "Nevada", false},
	"33": {"33", "NH", "New Hampshire", false},
	"34": {"34", "NJ", "New Jersey", false},
	"35": {"35", "NM", "New Mexico", false},
	"36": {"36", "NY", "New York", false},
	"37": {"37", "NC", "North Carolina", false},
	"38": {"38", "ND", "North Dakota", false},
	"39": {"39", "OH", "Ohio", false},
	"40": {"40", "OK", "Oklahoma", false},
	"41": {"41", "OR", "Oregon", false},
	"42": {"42", "PA", "Pennsylvania", false},
	"44": {"44", "RI", "Rhode Island", false},
	"45": {"45", "SC", "South Carolina", false},
	"46": {"46", "SD", "South Dakota", false},
	"47": {"47", "TN", "Tennessee", false},
	"48": {"48", "TX", "Texas", false},
	"49": {"49", "UT", "Utah", false},
	"50": {"50", "VT", "Vermont", false},
	"51": {"51", "VA", "Virginia", false},
	"53": {"53", "WA", "Washington", false},
	"54": {"54", "WV", "West Virginia", false},
	"55": {"55", "WI", "Wisconsin", false},
	"56": {"56", "WY", "Wyoming", false},
	"60": {"60", "AS", "American Samoa", true},
	"66": {"66", "GU", "Guam", true},
	"69": {"69", "MP", "Northern Mariana Islands", true},
	"72": {"72", "PR", "Puerto Rico", true},
	"78": {"78", "VI", "United States Virgin Islands", true},
}

// StateFIPSCodes returns every recognized FIPS code in ascending order.
func StateFIPSCodes() []string {
	out := make([]string, 0, len(Jurisdictions))
	for fips := range Jurisdictions {
		out = append(out, fips)
	}
	sort.Strings(out)
	return out
}
