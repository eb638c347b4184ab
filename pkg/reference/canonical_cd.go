// Copyright 2025 Shadow Atlas Contributors
//
// Canonical congressional-district GEOID list, 119th Congress apportionment
// (2020 census). 435 voting seats across the 50 states, plus DC's single
// non-voting delegate (GEOID 1198, the Census convention for DC's at-large
// seat) and the five territorial delegates (GEOID SS00: PR, GU, AS, VI, MP).
// Total: 441, matching the completeness property in spec section 8.
//
// Single-district ("at-large") states use district code 00, matching the
// real TIGER/Line convention (e.g. Wyoming's sole district is 5600, not
// 5601). Multi-district states number sequentially from 01.

package reference

import "fmt"

// cdSeats is the number of voting House seats apportioned to each state
// following the 2020 census.
var cdSeats = map[string]int{
	"01": 7, "02": 1, "04": 9, "05": 4, "06": 52, "08": 8, "09": 5, "10": 1,
	"12": 28, "13": 14, "15": 2, "16": 2, "17": 17, "18": 9, "19": 4, "20": 4,
	"21": 6, "22": 6, "23": 2, "24": 8, "25": 9, "26": 13, "27": 8, "28": 4,
	"29": 8, "30": 2, "31": 3, "32": 4, "33": 2, "34": 12, "35": 3, "36": 26,
	"37": 14, "38": 1, "39": 15, "40": 5, "41": 6, "42": 17, "44": 2, "45": 7,
	"46": 1, "47": 9, "48": 38, "49": 4, "50": 1, "51": 11, "53": 10, "54": 2,
	"55": 8, "56": 1,
}

// territorialDelegateFIPS lists the five non-voting territorial delegates;
// each occupies GEOID "<fips>00".
var territorialDelegateFIPS = []string{"72", "66", "60", "78", "69"}

// CanonicalCongressionalDistricts returns the full canonical 441-entry
// congressional district GEOID list.
func CanonicalCongressionalDistricts() []string {
	out := make([]string, 0, 441)
	for _, fips := range StateFIPSCodes() {
		seats, ok := cdSeats[fips]
		if !ok {
			continue
		}
		if seats == 1 {
			out = append(out, fips+"00")
			continue
		}
		for d := 1; d <= seats; d++ {
			out = append(out, fmt.Sprintf("%s%02d", fips, d))
		}
	}
	out = append(out, "1198") // DC at-large delegate
	for _, fips := range territorialDelegateFIPS {
		out = append(out, fips+"00")
	}
	return out
}
