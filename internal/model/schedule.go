package model

import (
	"fmt"
	"time"
)

// ServiceClass is the controlled vocabulary for bus service types. Operator
// sites describe the same class in a dozen ways ("A/C Sleeper (2+1)",
// "NON AC Seater Pushback"); the classifier maps them onto these values.
type ServiceClass string

const (
	ServiceACSleeper      ServiceClass = "AC Sleeper"
	ServiceNonACSleeper   ServiceClass = "Non-AC Sleeper"
	ServiceACSeater       ServiceClass = "AC Seater"
	ServiceNonACSeater    ServiceClass = "Non-AC Seater"
	ServiceACSemiSleeper  ServiceClass = "AC Semi-Sleeper"
	ServiceNonACSemiSleep ServiceClass = "Non-AC Semi-Sleeper"
	ServiceSemiSleeper    ServiceClass = "Semi-Sleeper"
	ServiceSleeper        ServiceClass = "Sleeper"
	ServiceSeater         ServiceClass = "Seater"
	ServiceAC             ServiceClass = "AC"
	ServiceNonAC          ServiceClass = "Non-AC"
)

// ServiceLabel pairs a classified service class with the verbatim source
// text. Unclassified input is preserved rather than discarded.
type ServiceLabel struct {
	Class        ServiceClass `json:"class,omitempty"`
	Raw          string       `json:"raw,omitempty"`
	Unclassified bool         `json:"unclassified,omitempty"`
}

// ClockTime is a time of day in 24-hour form, independent of date and zone.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// String renders the time as HH:MM.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// MinutesOfDay returns minutes since midnight.
func (c ClockTime) MinutesOfDay() int {
	return c.Hour*60 + c.Minute
}

// MinutesUntil returns the journey length in minutes from c to arr,
// wrapping past midnight when the arrival reads earlier than the departure.
func (c ClockTime) MinutesUntil(arr ClockTime) int {
	d := arr.MinutesOfDay() - c.MinutesOfDay()
	if d < 0 {
		d += 24 * 60
	}
	return d
}

// ScheduleRecord is one bus offering on one route page, normalized and
// validated. Records are immutable after validation and consumed exactly
// once by the store.
type ScheduleRecord struct {
	RouteLabel      string       `json:"route_label"`
	SourceLink      string       `json:"source_link"`
	Operator        string       `json:"operator"`
	Service         ServiceLabel `json:"service"`
	Departure       ClockTime    `json:"departure"`
	Arrival         ClockTime    `json:"arrival"`
	StatedDuration  string       `json:"stated_duration,omitempty"`
	DurationMinutes int          `json:"duration_minutes"`
	Rating          *float64     `json:"rating,omitempty"`
	Price           float64      `json:"price"`
	SeatsAvailable  *int         `json:"seats_available,omitempty"`
	CapturedAt      time.Time    `json:"captured_at"`
	Diagnostics     []string     `json:"diagnostics,omitempty"`
}

// Candidate holds the parsed-but-unvalidated fields assembled by an
// extraction strategy. Absent optional fields stay nil; absent required
// fields are what the validator rejects on.
type Candidate struct {
	RouteLabel     string
	SourceLink     string
	Operator       string
	Service        ServiceLabel
	Departure      *ClockTime
	Arrival        *ClockTime
	StatedDuration string
	Rating         *float64
	Price          *float64
	Seats          *int
	Diagnostics    []string
}

// RouteTarget is one discovered schedule page: a single origin-destination
// pair on one source. Created by discovery, consumed once by the
// orchestrator, never persisted.
type RouteTarget struct {
	Source string `json:"source"`
	Label  string `json:"label"`
	URL    string `json:"url"`
}
