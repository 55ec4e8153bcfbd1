package weather

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const parseApology = "Sorry, I couldn’t parse the weather data correctly: "

// Summarize renders the current block of a One Call document as one
// sentence. A malformed document yields an apology, never an error.
func Summarize(doc OneCall, city string) string {
	s, err := summarize(doc, city)
	if err != nil {
		return parseApology + err.Error()
	}
	return s
}

func summarize(doc OneCall, city string) (string, error) {
	current, err := field[map[string]any](doc, "current")
	if err != nil {
		return "", err
	}
	conditions, err := field[[]any](current, "weather")
	if err != nil {
		return "", err
	}
	if len(conditions) == 0 {
		return "", fmt.Errorf("%q is empty", "weather")
	}
	first, ok := conditions[0].(map[string]any)
	if !ok {
		return "", fmt.Errorf("%q entry is %T, not an object", "weather", conditions[0])
	}
	desc, err := field[string](first, "description")
	if err != nil {
		return "", err
	}

	var nums [4]float64
	for i, key := range []string{"temp", "feels_like", "humidity", "wind_speed"} {
		if nums[i], err = field[float64](current, key); err != nil {
			return "", err
		}
	}
	temp, feels, hum, wind := nums[0], nums[1], nums[2], nums[3]

	return fmt.Sprintf("Current weather in %s: %.1f°C (feels like %.1f°C), humidity %s%%, %s, wind %s m/s.",
		city, temp, feels, formatNumber(hum), capitalize(desc), formatNumber(wind)), nil
}

func field[T any](m map[string]any, key string) (T, error) {
	var zero T
	v, ok := m[key]
	if !ok {
		return zero, fmt.Errorf("missing key %q", key)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("key %q has type %T, want %T", key, v, zero)
	}
	return t, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
