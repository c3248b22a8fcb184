package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/routepulse/collector-cli/internal/browse"
	"github.com/routepulse/collector-cli/internal/config"
	"github.com/routepulse/collector-cli/internal/diag"
	"github.com/routepulse/collector-cli/internal/orchestrate"
	"github.com/routepulse/collector-cli/internal/store"
)

const summaryRounding = 100 * time.Millisecond

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run a collection pass over the configured sources",
	Long: `Run a collection pass: discover route pages per source, scrape each
schedule listing, validate records, and ingest them.

Sources come from the sources file (scrape.sources_file). Use --sources to
restrict to specific source names, --deadline to bound the run, and
--dry-run to scrape without writing records.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "scrape"))

		sources, err := config.LoadSources(cfg.Scrape.SourcesFile)
		if err != nil {
			return err
		}
		if only, _ := cmd.Flags().GetString("sources"); only != "" {
			sources, err = filterSources(sources, splitAndTrim(only))
			if err != nil {
				return err
			}
		}

		scrapeCfg := cfg.Scrape
		if deadline, _ := cmd.Flags().GetInt("deadline"); deadline > 0 {
			scrapeCfg.DeadlineSecs = deadline
		}
		if parallel, _ := cmd.Flags().GetInt("parallel"); parallel > 0 {
			scrapeCfg.Parallel = parallel
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		var sink diag.Sink = diag.NopSink{}
		if !dryRun {
			sink, err = diag.NewFileSink(scrapeCfg.CaptureDir)
			if err != nil {
				return err
			}
		}

		runStore := store.Store(st)
		if dryRun {
			log.Info("dry run: records will be discarded")
			runStore = &dryRunStore{Store: st}
		}

		factory := func(ctx context.Context, src config.Source) (browse.Session, error) {
			if src.Static {
				return browse.NewStaticSession(sessionOptions())
			}
			return browse.NewChromeSession(ctx, sessionOptions())
		}

		o := orchestrate.New(runStore, sink, factory, scrapeCfg)

		log.Info("starting collection run",
			zap.Int("sources", len(sources)),
			zap.Int("parallel", scrapeCfg.Parallel),
			zap.Bool("dry_run", dryRun),
		)

		summary, err := o.Run(ctx, sources)
		if err != nil {
			return eris.Wrap(err, "scrape")
		}

		cmd.Printf("Run complete in %s\n", summary.Elapsed.Round(summaryRounding))
		cmd.Printf("  sources:   %d attempted, %d failed\n", summary.SourcesAttempted, summary.SourcesFailed)
		cmd.Printf("  routes:    %d attempted, %d ok, %d partial, %d failed\n",
			summary.RoutesAttempted, summary.RoutesSucceeded, summary.RoutesPartial, summary.RoutesFailed)
		cmd.Printf("  records:   %d ingested, %d rejected\n", summary.RecordsIngested, summary.RecordsRejected)
		return nil
	},
}

func sessionOptions() browse.Options {
	return browse.Options{
		Headless:        cfg.Browser.Headless,
		NavigateTimeout: cfg.Browser.NavigateTimeout,
		ScrollPause:     cfg.Browser.ScrollPauseMs,
		UserAgent:       cfg.Browser.UserAgent,
		RetryAttempts:   cfg.Scrape.MaxAttempts,
		RetryBase:       cfg.Scrape.RetryBase(),
	}
}

func filterSources(sources []config.Source, names []string) ([]config.Source, error) {
	byName := make(map[string]config.Source, len(sources))
	for _, s := range sources {
		byName[s.Name] = s
	}
	out := make([]config.Source, 0, len(names))
	for _, name := range names {
		s, ok := byName[name]
		if !ok {
			return nil, eris.Errorf("unknown source %q", name)
		}
		out = append(out, s)
	}
	return out, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	scrapeCmd.Flags().String("sources", "", "comma-separated source names to run (default: all)")
	scrapeCmd.Flags().Int("deadline", 0, "run deadline in seconds (in-flight routes are drained)")
	scrapeCmd.Flags().Int("parallel", 0, "override concurrent source workers")
	scrapeCmd.Flags().Bool("dry-run", false, "scrape and validate but discard records")
	rootCmd.AddCommand(scrapeCmd)
}
