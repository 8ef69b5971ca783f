// Package extract turns listing card markup and its free-text facts line
// into structured fields.
package extract

import (
	"regexp"

	"homesweep/models"
)

var (
	bedsPattern  = regexp.MustCompile(`(?i)(\d+)\s*(?:beds?|bds?)`)
	bathsPattern = regexp.MustCompile(`(?i)(\d+)\s*ba`)
	sqftPattern  = regexp.MustCompile(`(?i)(\d[\d,]*)\s*sq\.?\s*ft`)
)

type Details struct {
	Bedrooms   models.Field
	Bathrooms  models.Field
	SquareFeet models.Field
}

// ParseDetails reads bed, bath and area counts out of a facts line such as
// "3 bds, 2 ba, 1,200 sqft". Only the first match of each pattern is used and
// anything unrecognised is left absent. Area keeps its thousands separators.
func ParseDetails(text string) Details {
	return Details{
		Bedrooms:   firstGroup(bedsPattern, text),
		Bathrooms:  firstGroup(bathsPattern, text),
		SquareFeet: firstGroup(sqftPattern, text),
	}
}

func firstGroup(re *regexp.Regexp, text string) models.Field {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return models.Field{}
	}
	return models.Some(m[1])
}
