// Package parse converts raw scraped text tokens into typed schedule
// fields. Scraped text is inherently dirty, so every parser is total:
// malformed input yields an absent value and a diagnostic, never a panic.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/routepulse/collector-cli/internal/model"
)

// DurationToleranceMinutes is how far the stated duration may disagree with
// the departure/arrival delta before the derived value wins. Global for all
// sources, matching the single policy the pipeline has always run with.
const DurationToleranceMinutes = 5

var (
	clock24Re  = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	clock12Re  = regexp.MustCompile(`(?i)^(\d{1,2})[:.](\d{2})\s*(AM|PM)$`)
	priceRe    = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	ratingRe   = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	durationRe = regexp.MustCompile(`(?i)(?:(\d+)\s*h(?:rs?)?)?\s*(?:(\d+)\s*m(?:in)?)?`)
	seatsRe    = regexp.MustCompile(`\d+`)
)

// ParseClock normalizes a clock string to 24-hour time of day. It accepts
// "23:45", "6:05", "06:05 PM" and "6.05 pm". Unparseable input returns
// ok=false with a diagnostic.
func ParseClock(s string) (model.ClockTime, bool, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.ClockTime{}, false, "empty time"
	}

	if m := clock12Re.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 1 || hour > 12 || minute > 59 {
			return model.ClockTime{}, false, fmt.Sprintf("time out of range: %q", s)
		}
		if strings.EqualFold(m[3], "PM") && hour != 12 {
			hour += 12
		}
		if strings.EqualFold(m[3], "AM") && hour == 12 {
			hour = 0
		}
		return model.ClockTime{Hour: hour, Minute: minute}, true, ""
	}

	if m := clock24Re.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return model.ClockTime{}, false, fmt.Sprintf("time out of range: %q", s)
		}
		return model.ClockTime{Hour: hour, Minute: minute}, true, ""
	}

	return model.ClockTime{}, false, fmt.Sprintf("unrecognized time format: %q", s)
}

// ParsePrice strips currency decoration (rupee sign, Rs./INR prefixes,
// thousands separators) and returns the fare as a positive decimal.
// A non-positive or unparseable amount is absent, not zero-priced.
func ParsePrice(s string) (float64, bool, string) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" || strings.EqualFold(cleaned, "N/A") {
		return 0, false, "empty price"
	}

	cleaned = strings.NewReplacer("₹", "", ",", "", " ", "").Replace(cleaned)
	for _, prefix := range []string{"Rs.", "Rs", "INR", "rs.", "rs", "inr"} {
		cleaned = strings.TrimPrefix(cleaned, prefix)
	}

	tok := priceRe.FindString(cleaned)
	if tok == "" {
		return 0, false, fmt.Sprintf("no numeric price in %q", s)
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false, fmt.Sprintf("bad price token %q", tok)
	}
	if v <= 0 {
		return 0, false, fmt.Sprintf("non-positive price %v", v)
	}
	return v, true, ""
}

// ParseRating extracts the first numeric token as a star rating. A value
// outside [0,5] is still returned with ok=true and a diagnostic so the
// validator can reject it explicitly; it is never clamped.
func ParseRating(s string) (float64, bool, string) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "N/A") {
		return 0, false, "empty rating"
	}
	tok := ratingRe.FindString(s)
	if tok == "" {
		return 0, false, fmt.Sprintf("no numeric rating in %q", s)
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false, fmt.Sprintf("bad rating token %q", tok)
	}
	if v < 0 || v > 5 {
		return v, true, fmt.Sprintf("rating %v outside 0-5", v)
	}
	return v, true, ""
}

// ParseDuration converts mixed "12h 30m" / "8h" / "45m" tokens to total
// minutes.
func ParseDuration(s string) (int, bool, string) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "N/A") {
		return 0, false, "empty duration"
	}
	m := durationRe.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, false, fmt.Sprintf("unrecognized duration: %q", s)
	}
	hours := 0
	mins := 0
	if m[1] != "" {
		hours, _ = strconv.Atoi(m[1])
	}
	if m[2] != "" {
		mins, _ = strconv.Atoi(m[2])
	}
	return hours*60 + mins, true, ""
}

// ReconcileDuration decides the record's duration in minutes. The stated
// text is kept when it agrees with the departure/arrival delta within
// DurationToleranceMinutes; otherwise the derived value wins and a
// diagnostic is attached, because the time fields are ground truth and the
// free-text duration is not. Arrivals that read earlier than departures are
// treated as next-day.
func ReconcileDuration(stated string, dep, arr model.ClockTime) (int, string) {
	derived := dep.MinutesUntil(arr)

	statedMin, ok, _ := ParseDuration(stated)
	if !ok {
		return derived, ""
	}

	diff := statedMin - derived
	if diff < 0 {
		diff = -diff
	}
	if diff > DurationToleranceMinutes {
		return derived, fmt.Sprintf(
			"stated duration %dm disagrees with derived %dm; using derived",
			statedMin, derived)
	}
	return statedMin, ""
}

// ParseSeats extracts a non-negative seat count from text like "32 Seats".
func ParseSeats(s string) (int, bool, string) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "N/A") {
		return 0, false, "empty seats"
	}
	m := seatsRe.FindString(s)
	if m == "" {
		return 0, false, fmt.Sprintf("no seat count in %q", s)
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false, fmt.Sprintf("bad seat token %q", m)
	}
	return n, true, ""
}
