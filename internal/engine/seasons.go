// Seasonal effects on vegetation.
package engine

import (
	"fmt"
	"strings"
)

// Season is one phase of the yearly cycle.
type Season uint8

// Season constants.
const (
	SeasonSpring Season = iota
	SeasonSummer
	SeasonFall
	SeasonWinter
)

// SeasonName returns the canonical lowercase name used in state and prompts.
func SeasonName(season Season) string {
	switch season {
	case SeasonSpring:
		return "spring"
	case SeasonSummer:
		return "summer"
	case SeasonFall:
		return "fall"
	case SeasonWinter:
		return "winter"
	default:
		return "unknown"
	}
}

func (s Season) String() string {
	return SeasonName(s)
}

// Next returns the following season.
func (s Season) Next() Season {
	return (s + 1) % 4
}

// ParseSeason maps a season label to a Season. Matching is case-insensitive
// and "autumn" is accepted for fall.
func ParseSeason(name string) (Season, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "spring":
		return SeasonSpring, nil
	case "summer":
		return SeasonSummer, nil
	case "fall", "autumn":
		return SeasonFall, nil
	case "winter":
		return SeasonWinter, nil
	}
	return 0, fmt.Errorf("unknown season %q", name)
}

// ApplySeason scales vegetation for the season. Products are truncated.
// Winter keeps at least 10; spring and summer growth caps at 100.
func ApplySeason(vegetation int, season Season) int {
	switch season {
	case SeasonWinter:
		v := int(float64(vegetation) * 0.6)
		if v < 10 {
			v = 10
		}
		return v
	case SeasonSpring:
		v := int(float64(vegetation) * 1.2)
		if v > 100 {
			v = 100
		}
		return v
	case SeasonSummer:
		v := int(float64(vegetation) * 1.1)
		if v > 100 {
			v = 100
		}
		return v
	}
	return vegetation
}
