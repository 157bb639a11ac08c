package main

import "sort"

var stateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"DC": "District of Columbia", "FL": "Florida", "GA": "Georgia",
	"HI": "Hawaii", "ID": "Idaho", "IL": "Illinois", "IN": "Indiana",
	"IA": "Iowa", "KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana",
	"ME": "Maine", "MD": "Maryland", "MA": "Massachusetts", "MI": "Michigan",
	"MN": "Minnesota", "MS": "Mississippi", "MO": "Missouri", "MT": "Montana",
	"NE": "Nebraska", "NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey",
	"NM": "New Mexico", "NY": "New York", "NC": "North Carolina",
	"ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma", "OR": "Oregon",
	"PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington",
	"WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
}

// stateRegions follows the Census Bureau's four-region split; the enrichment
// pipeline derives Trail.Region from it.
var stateRegions = map[string]string{
	"CT": "northeast", "ME": "northeast", "MA": "northeast", "NH": "northeast",
	"NJ": "northeast", "NY": "northeast", "PA": "northeast", "RI": "northeast",
	"VT": "northeast",

	"IL": "midwest", "IN": "midwest", "IA": "midwest", "KS": "midwest",
	"MI": "midwest", "MN": "midwest", "MO": "midwest", "NE": "midwest",
	"ND": "midwest", "OH": "midwest", "SD": "midwest", "WI": "midwest",

	"AL": "south", "AR": "south", "DE": "south", "DC": "south", "FL": "south",
	"GA": "south", "KY": "south", "LA": "south", "MD": "south", "MS": "south",
	"NC": "south", "OK": "south", "SC": "south", "TN": "south", "TX": "south",
	"VA": "south", "WV": "south",

	"AK": "west", "AZ": "west", "CA": "west", "CO": "west", "HI": "west",
	"ID": "west", "MT": "west", "NV": "west", "NM": "west", "OR": "west",
	"UT": "west", "WA": "west", "WY": "west",
}

func stateName(code string) string {
	if name, ok := stateNames[code]; ok {
		return name
	}
	return code
}

// allStateCodes returns every known state code in stable order.
func allStateCodes() []string {
	codes := make([]string, 0, len(stateNames))
	for code := range stateNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
