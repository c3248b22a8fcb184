// Package validate checks parsed schedule candidates against required-field
// and range rules. Rejection is an expected, common outcome for scraped
// data and is returned as a value, never raised as a fault.
package validate

import (
	"fmt"
	"time"

	"github.com/routepulse/collector-cli/internal/model"
	"github.com/routepulse/collector-cli/internal/parse"
)

// Reason enumerates why a candidate was rejected.
type Reason string

const (
	ReasonMissingRouteLabel Reason = "missing_route_label"
	ReasonMissingSourceLink Reason = "missing_source_link"
	ReasonMissingOperator   Reason = "missing_operator"
	ReasonMissingDeparture  Reason = "missing_departure"
	ReasonMissingArrival    Reason = "missing_arrival"
	ReasonMissingPrice      Reason = "missing_price"
	ReasonRatingOutOfRange  Reason = "rating_out_of_range"
	ReasonPriceNotPositive  Reason = "price_not_positive"
	ReasonSeatsNegative     Reason = "seats_negative"
	ReasonZeroDuration      Reason = "zero_duration"
)

// Rejection describes one discarded candidate.
type Rejection struct {
	Reason Reason `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func (r *Rejection) String() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

// Validate checks a candidate and, when it passes, seals it into an
// immutable ScheduleRecord stamped with the extraction time. Required-field
// checks run first and short-circuit; range checks follow. A record is
// either fully valid and eligible for ingestion or rejected with a reason;
// there is no partially-valid state.
func Validate(c model.Candidate, capturedAt time.Time) (*model.ScheduleRecord, *Rejection) {
	// Required fields.
	switch {
	case c.RouteLabel == "":
		return nil, &Rejection{Reason: ReasonMissingRouteLabel}
	case c.SourceLink == "":
		return nil, &Rejection{Reason: ReasonMissingSourceLink}
	case c.Operator == "":
		return nil, &Rejection{Reason: ReasonMissingOperator}
	case c.Departure == nil:
		return nil, &Rejection{Reason: ReasonMissingDeparture}
	case c.Arrival == nil:
		return nil, &Rejection{Reason: ReasonMissingArrival}
	case c.Price == nil:
		return nil, &Rejection{Reason: ReasonMissingPrice}
	}

	// Range checks.
	if *c.Price <= 0 {
		return nil, &Rejection{
			Reason: ReasonPriceNotPositive,
			Detail: fmt.Sprintf("price %v", *c.Price),
		}
	}
	if c.Rating != nil && (*c.Rating < 0 || *c.Rating > 5) {
		return nil, &Rejection{
			Reason: ReasonRatingOutOfRange,
			Detail: fmt.Sprintf("rating %v", *c.Rating),
		}
	}
	if c.Seats != nil && *c.Seats < 0 {
		return nil, &Rejection{
			Reason: ReasonSeatsNegative,
			Detail: fmt.Sprintf("seats %d", *c.Seats),
		}
	}
	if *c.Departure == *c.Arrival {
		return nil, &Rejection{
			Reason: ReasonZeroDuration,
			Detail: fmt.Sprintf("departure and arrival both %s", c.Departure),
		}
	}

	duration, diag := parse.ReconcileDuration(c.StatedDuration, *c.Departure, *c.Arrival)
	diags := c.Diagnostics
	if diag != "" {
		diags = append(diags, diag)
	}

	return &model.ScheduleRecord{
		RouteLabel:      c.RouteLabel,
		SourceLink:      c.SourceLink,
		Operator:        c.Operator,
		Service:         c.Service,
		Departure:       *c.Departure,
		Arrival:         *c.Arrival,
		StatedDuration:  c.StatedDuration,
		DurationMinutes: duration,
		Rating:          c.Rating,
		Price:           *c.Price,
		SeatsAvailable:  c.Seats,
		CapturedAt:      capturedAt,
		Diagnostics:     diags,
	}, nil
}
