package duration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	longduration "github.com/k1LoW/duration"
)

var unitMap = map[string]string{
	"h":      "h",
	"hour":   "h",
	"hours":  "h",
	"d":      "d",
	"day":    "d",
	"days":   "d",
	"w":      "w",
	"week":   "w",
	"weeks":  "w",
	"m":      "m",
	"month":  "m",
	"months": "m",
	"y":      "y",
	"year":   "y",
	"years":  "y",
}

var unitDurations = map[string]time.Duration{
	"h": 1 * time.Hour,
	"d": 24 * time.Hour,
	"w": 7 * 24 * time.Hour,
	"m": 30 * 24 * time.Hour,
	"y": 365 * 24 * time.Hour,
}

var (
	// ErrInvalidFormat indicates the input duration string contains invalid characters
	ErrInvalidFormat = errors.New("invalid duration format")

	// ErrInvalidNumber indicates the numeric part is invalid or not positive
	ErrInvalidNumber = errors.New("invalid duration number")

	// ErrInvalidUnit indicates the unit part is not recognized
	ErrInvalidUnit = errors.New("invalid duration unit")
)

// Parse parses a short duration such as "7d", "2weeks" or "1y"
func Parse(input string) (time.Duration, error) {
	if input = strings.TrimSpace(input); input == "" {
		return 0, fmt.Errorf("%w: empty input", ErrInvalidFormat)
	}

	numStr, unit, err := splitNumberAndUnit(strings.ToLower(input))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid characters", ErrInvalidFormat)
	}

	num, err := strconv.Atoi(numStr)
	if err != nil {
		return 0, fmt.Errorf("%w: must be a number", ErrInvalidNumber)
	}

	if num < 0 {
		return 0, fmt.Errorf("%w: must be positive", ErrInvalidNumber)
	}

	if unit == "" {
		return 0, fmt.Errorf("%w: missing unit", ErrInvalidFormat)
	}

	mappedUnit, exists := unitMap[unit]
	if !exists {
		return 0, fmt.Errorf("%w: '%s' (supported: h, d, w, m, y)", ErrInvalidUnit, unit)
	}

	return time.Duration(num) * unitDurations[mappedUnit], nil
}

// ParseLong accepts everything Parse does plus long forms with spaces
// such as "3 days" or "1 day 12 hours". The error of the short form is
// returned when neither parses.
func ParseLong(input string) (time.Duration, error) {
	d, err := Parse(input)
	if err == nil {
		return d, nil
	}
	if !strings.ContainsFunc(input, unicode.IsDigit) {
		return 0, err
	}
	if long, lerr := longduration.Parse(strings.TrimSpace(input)); lerr == nil && long >= 0 {
		return long, nil
	}
	return 0, err
}

func splitNumberAndUnit(input string) (string, string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", "", fmt.Errorf("%w: empty input", ErrInvalidFormat)
	}

	numPart := strings.Builder{}
	unitPart := strings.Builder{}

	for _, r := range input {
		switch {
		case unicode.IsDigit(r):
			numPart.WriteRune(r)
		case unicode.IsLetter(r):
			unitPart.WriteRune(r)
		default:
			return "", "", ErrInvalidFormat
		}
	}
	return numPart.String(), unitPart.String(), nil
}
