package narration

import (
	"fmt"
	"strings"
)

// Rate is the speaking rate applied to synthesized speech.
type Rate string

const (
	RateSlow   Rate = "slow"
	RateNormal Rate = "normal"
	RateFast   Rate = "fast"
)

var rateMultipliers = map[Rate]float64{
	RateSlow:   0.85,
	RateNormal: 1.0,
	RateFast:   1.3,
}

func ParseRate(s string) (Rate, error) {
	r := Rate(strings.ToLower(strings.TrimSpace(s)))
	if r == "" {
		return RateNormal, nil
	}
	if _, ok := rateMultipliers[r]; !ok {
		return "", fmt.Errorf("unknown narration rate %q", s)
	}
	return r, nil
}

// Multiplier returns the tempo factor for r. Unknown rates play at 1.0.
func (r Rate) Multiplier() float64 {
	if m, ok := rateMultipliers[r]; ok {
		return m
	}
	return 1.0
}
