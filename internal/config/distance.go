package config

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// metersPerUnit maps accepted linear-unit spellings to meters.
var metersPerUnit = map[string]float64{
	"m":          1,
	"meter":      1,
	"meters":     1,
	"metre":      1,
	"metres":     1,
	"km":         1000,
	"kilometer":  1000,
	"kilometers": 1000,
	"kilometre":  1000,
	"kilometres": 1000,
	"ft":         0.3048,
	"foot":       0.3048,
	"feet":       0.3048,
}

// ParseDistance converts a "value unit" string like "100 meters" to
// meters. A bare number is taken as meters. Negative distances are
// rejected; zero is allowed so a zero-width buffer run stays expressible.
func ParseDistance(s string) (float64, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 || len(fields) > 2 {
		return 0, eris.Errorf("config: cannot parse distance %q", s)
	}

	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, eris.Errorf("config: cannot parse distance value %q", fields[0])
	}
	if value < 0 {
		return 0, eris.Errorf("config: distance %q is negative", s)
	}

	factor := 1.0
	if len(fields) == 2 {
		var ok bool
		factor, ok = metersPerUnit[strings.ToLower(fields[1])]
		if !ok {
			return 0, eris.Errorf("config: unknown linear unit %q", fields[1])
		}
	}

	return value * factor, nil
}
