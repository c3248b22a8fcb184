package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routepulse/collector-cli/internal/model"
	"github.com/routepulse/collector-cli/internal/validate"
)

var testTarget = model.RouteTarget{
	Source: "redbus",
	Label:  "Bangalore to Hyderabad",
	URL:    "https://example.test/bus-tickets/bangalore-to-hyderabad",
}

var capturedAt = time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

const containerPage = `
<html><body>
<div class="timeFareBoWrap">
  <div class="travelsName">VRL Travels</div>
  <div class="busType">A/C Sleeper (2+1)</div>
  <p class="boardingTime">21:30</p>
  <p class="droppingTime">05:45</p>
  8h 15m
  <div class="rating"><span>4.3</span></div>
  <p class="finalFare">₹950</p>
  <div class="seatsAvail">12 Seats available</div>
</div>
<div class="timeFareBoWrap">
  <div class="travelsName">SRS Travels</div>
  <div class="busType">Non AC Seater</div>
  <p class="boardingTime">22:00</p>
  <p class="droppingTime">06:30</p>
  8h 30m
  <p class="finalFare">₹700</p>
</div>
<div class="timeFareBoWrap">
  <div class="travelsName">Broken Travels</div>
  <p class="boardingTime">23:00</p>
  <p class="droppingTime">23:00</p>
  <p class="finalFare">₹500</p>
</div>
</body></html>`

func TestExtractContainerStrategy(t *testing.T) {
	e := NewEngine(SiteProfile{})
	result := e.Extract(doc(t, containerPage), testTarget, capturedAt)

	assert.Equal(t, StrategyContainer, result.Strategy)
	require.Len(t, result.Records, 2)
	require.Len(t, result.Rejections, 1)

	first := result.Records[0]
	assert.Equal(t, "VRL Travels", first.Operator)
	assert.Equal(t, model.ServiceACSleeper, first.Service.Class)
	assert.Equal(t, "21:30", first.Departure.String())
	assert.Equal(t, "05:45", first.Arrival.String())
	assert.Equal(t, 495, first.DurationMinutes)
	assert.Equal(t, 950.0, first.Price)
	require.NotNil(t, first.Rating)
	assert.Equal(t, 4.3, *first.Rating)
	require.NotNil(t, first.SeatsAvailable)
	assert.Equal(t, 12, *first.SeatsAvailable)
	assert.Equal(t, testTarget.Label, first.RouteLabel)
	assert.Equal(t, testTarget.URL, first.SourceLink)

	second := result.Records[1]
	assert.Equal(t, model.ServiceNonACSeater, second.Service.Class)
	assert.Nil(t, second.Rating)

	assert.Equal(t, validate.ReasonZeroDuration, result.Rejections[0].Rejection.Reason)
	assert.Equal(t, "Broken Travels", result.Rejections[0].Operator)
}

// One valid container record makes the container strategy authoritative:
// the richer element columns on the same page must be ignored.
func TestExtractContainerWinsOverElements(t *testing.T) {
	page := `
<html><body>
<div class="timeFareBoWrap">
  <div class="travelsName">Solo Travels</div>
  <p class="boardingTime">10:00</p>
  <p class="droppingTime">14:00</p>
  <p class="finalFare">₹400</p>
</div>
<div>
  <div class="travelsName">Ghost A</div><div class="travelsName">Ghost B</div>
  <p class="boardingTime">08:00</p><p class="boardingTime">09:00</p>
  <p class="droppingTime">12:00</p><p class="droppingTime">13:00</p>
  <p class="finalFare">₹100</p><p class="finalFare">₹200</p>
</div>
</body></html>`

	e := NewEngine(SiteProfile{})
	result := e.Extract(doc(t, page), testTarget, capturedAt)

	assert.Equal(t, StrategyContainer, result.Strategy)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "Solo Travels", result.Records[0].Operator)
}

const elementPage = `
<html><body>
<div class="travelsName">Orange Tours</div>
<div class="travelsName">Kallada Travels</div>
<div class="travelsName">Unpriced Lines</div>
<p class="boardingTime">20:15</p>
<p class="boardingTime">21:00</p>
<p class="boardingTime">22:30</p>
<p class="droppingTime">04:00</p>
<p class="droppingTime">05:30</p>
<p class="droppingTime">06:00</p>
<p class="listedFare">₹850</p>
<p class="listedFare">₹1,200</p>
</body></html>`

func TestExtractElementFallback(t *testing.T) {
	e := NewEngine(SiteProfile{FareSelector: `p[class*="listedFare"]`})
	result := e.Extract(doc(t, elementPage), testTarget, capturedAt)

	assert.Equal(t, StrategyElement, result.Strategy)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "Orange Tours", result.Records[0].Operator)
	assert.Equal(t, 850.0, result.Records[0].Price)
	assert.Equal(t, 1200.0, result.Records[1].Price)

	// Third row has no fare column entry and is rejected, not misaligned.
	require.Len(t, result.Rejections, 1)
	assert.Equal(t, validate.ReasonMissingPrice, result.Rejections[0].Rejection.Reason)
	assert.Equal(t, "Unpriced Lines", result.Rejections[0].Operator)
}

func TestExtractExhausted(t *testing.T) {
	page := `<html><body><h1>No buses found for this date</h1></body></html>`
	e := NewEngine(SiteProfile{})
	result := e.Extract(doc(t, page), testTarget, capturedAt)

	assert.Equal(t, StrategyExhausted, result.Strategy)
	assert.Empty(t, result.Records)
}

func TestExtractContainerRegexFallbacks(t *testing.T) {
	// No field markup at all: everything comes from the card text.
	page := `
<html><body>
<div class="bus-item">
Greenline Express
A/C Sleeper
21:15 05:30 8h 15m
4.6
₹1,150
23 Seats
</div>
</body></html>`

	e := NewEngine(SiteProfile{})
	result := e.Extract(doc(t, page), testTarget, capturedAt)

	assert.Equal(t, StrategyContainer, result.Strategy)
	require.Len(t, result.Records, 1)
	r := result.Records[0]
	assert.Equal(t, "Greenline Express", r.Operator)
	assert.Equal(t, model.ServiceACSleeper, r.Service.Class)
	assert.Equal(t, "21:15", r.Departure.String())
	assert.Equal(t, "05:30", r.Arrival.String())
	assert.Equal(t, 1150.0, r.Price)
	require.NotNil(t, r.Rating)
	assert.Equal(t, 4.6, *r.Rating)
	require.NotNil(t, r.SeatsAvailable)
	assert.Equal(t, 23, *r.SeatsAvailable)
}

func TestProfileMergeKeepsOverrides(t *testing.T) {
	p := SiteProfile{ContainerSelector: `li.result-card`}.merged()
	assert.Equal(t, `li.result-card`, p.ContainerSelector)
	assert.Equal(t, DefaultProfile().OperatorSelector, p.OperatorSelector)
}
