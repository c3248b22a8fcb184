// Package orchestrate drives a collection run: discover routes per source,
// visit each route page, extract and ingest records, and log every attempt.
// A run always completes with a summary; individual route or record
// failures never terminate it.
package orchestrate

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/routepulse/collector-cli/internal/browse"
	"github.com/routepulse/collector-cli/internal/config"
	"github.com/routepulse/collector-cli/internal/diag"
	"github.com/routepulse/collector-cli/internal/discover"
	"github.com/routepulse/collector-cli/internal/extract"
	"github.com/routepulse/collector-cli/internal/model"
	"github.com/routepulse/collector-cli/internal/resilience"
	"github.com/routepulse/collector-cli/internal/store"
)

// SessionFactory opens a browsing session for one source worker. Each
// worker owns exactly one session for its whole lifetime.
type SessionFactory func(ctx context.Context, src config.Source) (browse.Session, error)

// Orchestrator coordinates source workers against the store.
type Orchestrator struct {
	store      store.Store
	sink       diag.Sink
	newSession SessionFactory
	cfg        config.ScrapeConfig
	log        *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

func New(st store.Store, sink diag.Sink, factory SessionFactory, cfg config.ScrapeConfig) *Orchestrator {
	if sink == nil {
		sink = diag.NopSink{}
	}
	return &Orchestrator{
		store:      st,
		sink:       sink,
		newSession: factory,
		cfg:        cfg,
		log:        zap.L().With(zap.String("component", "orchestrate")),
		now:        time.Now,
	}
}

// counters aggregates run totals across workers.
type counters struct {
	sourcesFailed   atomic.Int64
	routesAttempted atomic.Int64
	routesSucceeded atomic.Int64
	routesPartial   atomic.Int64
	routesFailed    atomic.Int64
	recordsIngested atomic.Int64
	recordsRejected atomic.Int64
}

// Run processes all sources and always returns a summary. The error return
// is reserved for context cancellation; source-level failures are counted,
// not propagated.
func (o *Orchestrator) Run(ctx context.Context, sources []config.Source) (*model.RunSummary, error) {
	start := o.now()

	// The deadline gates starting new routes; the route in flight when it
	// passes is drained, so workers check it between routes rather than
	// carrying a cancelled context into navigation.
	var deadline time.Time
	if d := o.cfg.Deadline(); d > 0 {
		deadline = start.Add(d)
	}

	var c counters

	parallel := o.cfg.Parallel
	if parallel <= 0 {
		parallel = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for _, src := range sources {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			o.runSource(gctx, src, deadline, &c)
			return nil
		})
	}

	err := g.Wait()

	summary := &model.RunSummary{
		SourcesAttempted: len(sources),
		SourcesFailed:    int(c.sourcesFailed.Load()),
		RoutesAttempted:  int(c.routesAttempted.Load()),
		RoutesSucceeded:  int(c.routesSucceeded.Load()),
		RoutesPartial:    int(c.routesPartial.Load()),
		RoutesFailed:     int(c.routesFailed.Load()),
		RecordsIngested:  int(c.recordsIngested.Load()),
		RecordsRejected:  int(c.recordsRejected.Load()),
		Elapsed:          o.now().Sub(start),
	}
	o.log.Info("run complete",
		zap.Int("sources", summary.SourcesAttempted),
		zap.Int("sources_failed", summary.SourcesFailed),
		zap.Int("routes", summary.RoutesAttempted),
		zap.Int("succeeded", summary.RoutesSucceeded),
		zap.Int("partial", summary.RoutesPartial),
		zap.Int("failed", summary.RoutesFailed),
		zap.Int("ingested", summary.RecordsIngested),
		zap.Int("rejected", summary.RecordsRejected),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, err
}

// runSource works one source start to finish on a single session. Failures
// here cost only this source.
func (o *Orchestrator) runSource(ctx context.Context, src config.Source, deadline time.Time, c *counters) {
	log := o.log.With(zap.String("source", src.Name))

	sess, err := o.newSession(ctx, src)
	if err != nil {
		log.Error("session open failed", zap.Error(err))
		c.sourcesFailed.Add(1)
		return
	}
	defer sess.Close()

	scrollRounds := src.ScrollRounds
	if scrollRounds <= 0 {
		scrollRounds = o.cfg.ScrollRounds
	}
	targets, err := discover.Discover(ctx, sess, discover.Options{
		Source:       src.Name,
		LandingURL:   src.LandingURL,
		LinkPatterns: src.LinkPatterns,
		MaxRoutes:    src.MaxRoutes,
		ScrollRounds: scrollRounds,
	})
	if err != nil {
		log.Error("discovery failed", zap.Error(err))
		c.sourcesFailed.Add(1)
		return
	}
	if len(targets) == 0 {
		log.Warn("no routes discovered")
		return
	}

	engine := extract.NewEngine(src.Profile)

	rps := o.cfg.RoutesPerSecond
	if rps <= 0 {
		rps = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), 1)

	for _, target := range targets {
		if ctx.Err() != nil {
			return
		}
		if !deadline.IsZero() && o.now().After(deadline) {
			log.Warn("run deadline reached, leaving remaining routes",
				zap.Int("remaining", len(targets)),
			)
			return
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		c.routesAttempted.Add(1)
		if fatal := o.processRoute(ctx, sess, engine, target, scrollRounds, c); fatal {
			log.Error("fatal failure, abandoning source")
			c.sourcesFailed.Add(1)
			return
		}
	}
}

// processRoute handles one route page end to end. The returned flag is true
// only for fatal navigation failures that make the rest of the source
// pointless (permanent blocks, bad configuration).
func (o *Orchestrator) processRoute(ctx context.Context, sess browse.Session, engine *extract.Engine, target model.RouteTarget, scrollRounds int, c *counters) bool {
	log := o.log.With(
		zap.String("source", target.Source),
		zap.String("route", target.Label),
	)

	jobID, err := o.store.StartJob(ctx, target)
	if err != nil {
		log.Error("start job failed", zap.Error(err))
		c.routesFailed.Add(1)
		return false
	}

	fail := func(detail string) {
		c.routesFailed.Add(1)
		if err := o.store.FinalizeJob(ctx, jobID, model.JobStatusFailed, 0, detail); err != nil {
			log.Error("finalize job failed", zap.Error(err))
		}
	}

	if err := sess.Navigate(ctx, target.URL); err != nil {
		log.Error("navigation failed", zap.Error(err))
		o.capture(ctx, sess, target)
		fail(err.Error())
		return resilience.IsFatal(err)
	}
	if _, err := sess.ScrollToBottom(ctx, scrollRounds); err != nil {
		log.Warn("scroll failed, extracting what loaded", zap.Error(err))
	}
	doc, err := sess.Document(ctx)
	if err != nil {
		log.Error("page read failed", zap.Error(err))
		fail(err.Error())
		return false
	}

	result := engine.Extract(doc, target, o.now().UTC())
	c.recordsRejected.Add(int64(len(result.Rejections)))

	if result.Strategy == extract.StrategyExhausted {
		log.Warn("extraction exhausted, capturing page")
		o.capture(ctx, sess, target)
		fail("extraction exhausted: no records found")
		return false
	}

	ingest, err := o.store.BulkIngest(ctx, result.Records)
	if err != nil {
		log.Error("ingest failed", zap.Error(err))
		fail(err.Error())
		return false
	}
	c.recordsIngested.Add(int64(ingest.Accepted))
	c.recordsRejected.Add(int64(ingest.Rejected))

	stored := ingest.Accepted + ingest.Duplicates
	rejected := len(result.Rejections) + ingest.Rejected

	status := model.JobStatusSuccess
	detail := ""
	switch {
	case stored == 0:
		status = model.JobStatusFailed
		detail = "no records ingested"
		c.routesFailed.Add(1)
	case rejected > 0:
		status = model.JobStatusPartial
		detail = rejectionSummary(rejected)
		c.routesPartial.Add(1)
	default:
		c.routesSucceeded.Add(1)
	}

	if err := o.store.FinalizeJob(ctx, jobID, status, ingest.Accepted, detail); err != nil {
		log.Error("finalize job failed", zap.Error(err))
	}

	log.Info("route done",
		zap.String("status", string(status)),
		zap.String("strategy", string(result.Strategy)),
		zap.Int("accepted", ingest.Accepted),
		zap.Int("duplicates", ingest.Duplicates),
		zap.Int("rejected", rejected),
	)
	return false
}

func rejectionSummary(n int) string {
	return fmt.Sprintf("%d records rejected", n)
}

// capture snapshots the current page for later diagnosis. Best effort: a
// failed capture is logged and swallowed.
func (o *Orchestrator) capture(ctx context.Context, sess browse.Session, target model.RouteTarget) {
	html, err := sess.HTML(ctx)
	if err != nil {
		o.log.Warn("page capture failed", zap.Error(err))
		return
	}
	screenshot, err := sess.Screenshot(ctx)
	if err != nil {
		o.log.Warn("screenshot failed", zap.Error(err))
	}
	if err := o.sink.Save(ctx, diag.Capture{
		Target:     target,
		TakenAt:    o.now().UTC(),
		HTML:       html,
		Screenshot: screenshot,
	}); err != nil {
		o.log.Warn("saving capture failed", zap.Error(err))
	}
}
