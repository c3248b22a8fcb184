package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/routepulse/collector-cli/internal/model"
	"github.com/routepulse/collector-cli/internal/parse"
)

// Text-regex fallbacks for when a field selector matches nothing inside a
// container. They run against the container's full text.
var (
	clockTokenRe    = regexp.MustCompile(`\d{1,2}:\d{2}`)
	priceTokenRe    = regexp.MustCompile(`₹\s*[\d,]+(?:\.\d+)?`)
	durationTokenRe = regexp.MustCompile(`(?i)\d+\s*h(?:rs?)?\s*\d+\s*m(?:in)?|\d+\s*h(?:rs?)?|\d+\s*m(?:in)?`)
	seatsTokenRe    = regexp.MustCompile(`(?i)(\d+)\s*Seats?`)
	ratingTokenRe   = regexp.MustCompile(`\d\.\d+`)
	operatorLineRe  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 \-&!.()]*`)
)

// fromContainers builds one candidate per result card.
func (e *Engine) fromContainers(doc *goquery.Document, target model.RouteTarget, capturedAt time.Time) ([]model.ScheduleRecord, []RejectedCandidate) {
	var candidates []model.Candidate
	doc.Find(e.profile.ContainerSelector).Each(func(i int, sel *goquery.Selection) {
		candidates = append(candidates, e.candidateFromContainer(sel, target))
	})
	if len(candidates) == 0 {
		return nil, nil
	}
	return validateAll(candidates, capturedAt)
}

func (e *Engine) candidateFromContainer(sel *goquery.Selection, target model.RouteTarget) model.Candidate {
	text := sel.Text()
	c := model.Candidate{
		RouteLabel: target.Label,
		SourceLink: target.URL,
	}

	// Operator: selector first, then the leading text line.
	if op := strings.TrimSpace(sel.Find(e.profile.OperatorSelector).First().Text()); op != "" {
		c.Operator = parse.Sanitize(op)
	} else if m := operatorLineRe.FindString(strings.TrimSpace(text)); m != "" {
		c.Operator = parse.Sanitize(m)
	}

	// Service class: a dedicated node when present, else the whole card
	// text (the keyword matcher tolerates the noise).
	if svc := strings.TrimSpace(sel.Find(e.profile.ServiceSelector).First().Text()); svc != "" {
		c.Service = parse.ClassifyService(svc)
	} else {
		c.Service = parse.ClassifyService(text)
	}

	// Departure and arrival: field selectors, falling back to the first
	// two clock tokens in document order.
	depText := strings.TrimSpace(sel.Find(e.profile.DepartureSelector).First().Text())
	arrText := strings.TrimSpace(sel.Find(e.profile.ArrivalSelector).First().Text())
	if depText == "" || arrText == "" {
		times := clockTokenRe.FindAllString(text, 2)
		if depText == "" && len(times) > 0 {
			depText = times[0]
		}
		if arrText == "" && len(times) > 1 {
			arrText = times[1]
		}
	}
	if t, ok, diag := parse.ParseClock(depText); ok {
		c.Departure = &t
	} else if diag != "" && depText != "" {
		c.Diagnostics = append(c.Diagnostics, "departure: "+diag)
	}
	if t, ok, diag := parse.ParseClock(arrText); ok {
		c.Arrival = &t
	} else if diag != "" && arrText != "" {
		c.Diagnostics = append(c.Diagnostics, "arrival: "+diag)
	}

	// Fare.
	fareText := strings.TrimSpace(sel.Find(e.profile.FareSelector).First().Text())
	if fareText == "" {
		fareText = priceTokenRe.FindString(text)
	}
	if v, ok, diag := parse.ParsePrice(fareText); ok {
		c.Price = &v
	} else if diag != "" && fareText != "" {
		c.Diagnostics = append(c.Diagnostics, "price: "+diag)
	}

	// Stated duration, kept raw; reconciliation happens at validation.
	c.StatedDuration = strings.TrimSpace(durationTokenRe.FindString(text))

	// Rating: out-of-range values flow through with a diagnostic so the
	// validator rejects them visibly.
	ratingText := strings.TrimSpace(sel.Find(e.profile.RatingSelector).First().Text())
	if ratingText == "" {
		ratingText = ratingTokenRe.FindString(text)
	}
	if v, ok, diag := parse.ParseRating(ratingText); ok {
		c.Rating = &v
		if diag != "" {
			c.Diagnostics = append(c.Diagnostics, "rating: "+diag)
		}
	}

	// Seats.
	seatsText := strings.TrimSpace(sel.Find(e.profile.SeatsSelector).First().Text())
	if seatsText == "" {
		if m := seatsTokenRe.FindStringSubmatch(text); m != nil {
			seatsText = m[1]
		}
	}
	if v, ok, _ := parse.ParseSeats(seatsText); ok {
		c.Seats = &v
	}

	return c
}
