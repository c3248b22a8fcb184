// Package extract turns a rendered schedule page into validated records.
// Two strategies run in a fixed order: container parsing reads one result
// card at a time and is authoritative whenever it yields anything valid;
// element parsing zips parallel field columns and only runs when container
// parsing comes up empty. A page where both fail is reported as exhausted
// so the caller can capture it for diagnosis.
package extract

import (
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/routepulse/collector-cli/internal/model"
	"github.com/routepulse/collector-cli/internal/validate"
)

// Strategy identifies which parsing path produced a result.
type Strategy string

const (
	StrategyContainer Strategy = "container"
	StrategyElement   Strategy = "element"
	StrategyExhausted Strategy = "exhausted"
)

// RejectedCandidate pairs a rejection with enough context to log it.
type RejectedCandidate struct {
	Operator  string
	Rejection validate.Rejection
}

// Result is the outcome of extracting one page.
type Result struct {
	Records    []model.ScheduleRecord
	Rejections []RejectedCandidate
	Strategy   Strategy
}

// Engine extracts schedule records using a site profile.
type Engine struct {
	profile SiteProfile
	log     *zap.Logger
}

func NewEngine(profile SiteProfile) *Engine {
	return &Engine{
		profile: profile.merged(),
		log:     zap.L().With(zap.String("component", "extract")),
	}
}

// Extract parses the document for the given route. Container output with at
// least one valid record is final: the element fallback is never consulted,
// even if it might have found more.
func (e *Engine) Extract(doc *goquery.Document, target model.RouteTarget, capturedAt time.Time) Result {
	records, rejections := e.fromContainers(doc, target, capturedAt)
	if len(records) > 0 {
		e.log.Debug("container strategy succeeded",
			zap.String("route", target.Label),
			zap.Int("records", len(records)),
			zap.Int("rejections", len(rejections)),
		)
		return Result{Records: records, Rejections: rejections, Strategy: StrategyContainer}
	}

	e.log.Warn("container strategy found nothing, trying element strategy",
		zap.String("route", target.Label),
	)
	elemRecords, elemRejections := e.fromElements(doc, target, capturedAt)
	rejections = append(rejections, elemRejections...)
	if len(elemRecords) > 0 {
		return Result{Records: elemRecords, Rejections: rejections, Strategy: StrategyElement}
	}

	e.log.Warn("both strategies exhausted", zap.String("route", target.Label))
	return Result{Rejections: rejections, Strategy: StrategyExhausted}
}

// validateAll runs candidates through validation, splitting them into
// records and rejections.
func validateAll(candidates []model.Candidate, capturedAt time.Time) ([]model.ScheduleRecord, []RejectedCandidate) {
	var records []model.ScheduleRecord
	var rejections []RejectedCandidate
	for _, c := range candidates {
		rec, rej := validate.Validate(c, capturedAt)
		if rej != nil {
			rejections = append(rejections, RejectedCandidate{Operator: c.Operator, Rejection: *rej})
			continue
		}
		records = append(records, *rec)
	}
	return records, rejections
}
