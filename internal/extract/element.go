package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/routepulse/collector-cli/internal/model"
	"github.com/routepulse/collector-cli/internal/parse"
)

// fromElements zips parallel field columns read off the whole document.
// Rows exist only up to the shortest required column (operator, departure,
// arrival); optional columns shorter than that leave fields absent rather
// than shifting rows out of alignment.
func (e *Engine) fromElements(doc *goquery.Document, target model.RouteTarget, capturedAt time.Time) ([]model.ScheduleRecord, []RejectedCandidate) {
	operators := columnTexts(doc, e.profile.OperatorSelector)
	departures := columnTexts(doc, e.profile.DepartureSelector)
	arrivals := columnTexts(doc, e.profile.ArrivalSelector)
	fares := columnTexts(doc, e.profile.FareSelector)
	services := columnTexts(doc, e.profile.ServiceSelector)

	n := len(operators)
	if len(departures) < n {
		n = len(departures)
	}
	if len(arrivals) < n {
		n = len(arrivals)
	}
	if n == 0 {
		return nil, nil
	}

	candidates := make([]model.Candidate, 0, n)
	for i := 0; i < n; i++ {
		c := model.Candidate{
			RouteLabel: target.Label,
			SourceLink: target.URL,
			Operator:   parse.Sanitize(operators[i]),
		}
		if t, ok, _ := parse.ParseClock(departures[i]); ok {
			c.Departure = &t
		}
		if t, ok, _ := parse.ParseClock(arrivals[i]); ok {
			c.Arrival = &t
		}
		if i < len(fares) {
			if v, ok, _ := parse.ParsePrice(fares[i]); ok {
				c.Price = &v
			}
		}
		if i < len(services) {
			c.Service = parse.ClassifyService(services[i])
		} else {
			c.Service = model.ServiceLabel{Unclassified: true}
		}
		candidates = append(candidates, c)
	}
	return validateAll(candidates, capturedAt)
}

func columnTexts(doc *goquery.Document, selector string) []string {
	var out []string
	doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
		out = append(out, strings.TrimSpace(sel.Text()))
	})
	return out
}
