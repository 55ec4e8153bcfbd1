package weather

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// a phrase after "in", up to an optional trailing time/weather word and punctuation
	cityAfterIn = regexp.MustCompile(`in ([a-zA-Z\s]+?)(?:\s+(?:today|now|tomorrow|weather|forecast))?[\s\?\,\.]*$`)
	// a phrase right before "weather"
	cityBeforeWeather = regexp.MustCompile(`([a-zA-Z\s]+?)\s+weather`)
)

// ExtractCityName pulls a city out of free text. The "in <city>" pattern wins
// over "<city> weather"; when neither matches, defaultCity is returned as is.
// A Caser carries state between calls, so each call builds its own.
func ExtractCityName(query, defaultCity string) string {
	text := strings.ToLower(query)
	for _, re := range []*regexp.Regexp{cityAfterIn, cityBeforeWeather} {
		if m := re.FindStringSubmatch(text); m != nil {
			return cases.Title(language.Und).String(strings.TrimSpace(m[1]))
		}
	}
	return defaultCity
}
