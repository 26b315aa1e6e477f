package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/quakelens/internal/coordinator"
	"github.com/rewired-gh/quakelens/internal/logger"
	"github.com/rewired-gh/quakelens/internal/models"
	"github.com/rewired-gh/quakelens/internal/notify"
	"github.com/rewired-gh/quakelens/internal/seismo"
)

var (
	analyzeFile      string
	analyzeCatalogue string
	analyzeNotify    bool
	analyzeEvents    bool

	analyzeCmd = &cobra.Command{
		Use:   "analyze",
		Short: "Run every analysis on one catalogue",
		Long: `Runs the Gutenberg-Richter fit, completeness estimate, temporal
analysis with declustering and moment summary on one catalogue, read from
--file or fetched from the API with --catalogue.`,
		Args: cobra.NoArgs,
		RunE: runAnalyze,
	}
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "Catalogue JSON document")
	analyzeCmd.Flags().StringVar(&analyzeCatalogue, "catalogue", "", "Catalogue ID to fetch from the API")
	analyzeCmd.Flags().BoolVar(&analyzeNotify, "notify", false, "Send the summary to Telegram")
	analyzeCmd.Flags().BoolVar(&analyzeEvents, "events", false, "List a stratified sample of the events")
	analyzeCmd.MarkFlagsMutuallyExclusive("file", "catalogue")
	analyzeCmd.MarkFlagsOneRequired("file", "catalogue")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifier *notify.Client
	if analyzeNotify {
		n, err := newNotifier(cfg)
		if err != nil {
			return err
		}
		notifier = n
	}

	var files, ids []string
	name := analyzeFile
	if analyzeFile != "" {
		files = []string{analyzeFile}
	} else {
		ids = []string{analyzeCatalogue}
		name = analyzeCatalogue
	}

	summary, sample, err := analyze(ctx, files, ids)
	if err != nil {
		logger.Error("Analysis of %s failed: %v", name, err)
		if notifier != nil {
			if sendErr := notifier.SendError(ctx, name, err); sendErr != nil {
				logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
			}
		}
		return err
	}

	out := cmd.OutOrStdout()
	writeSummary(out, summary)
	if analyzeEvents {
		writeEvents(out, sample)
	}

	if notifier != nil {
		if err := notifier.Send(ctx, summary); err != nil {
			logger.Error("Failed to send Telegram notification: %v", err)
			return err
		}
		logger.Info("Sent Telegram summary for %s", summary.Catalogue)
	}
	return nil
}

// analyze loads one catalogue and runs every single-catalogue analysis on it.
func analyze(ctx context.Context, files, ids []string) (notify.Summary, []models.CatalogEvent, error) {
	start := time.Now()
	opts, err := newAnalysisOptions(cfg.Analysis)
	if err != nil {
		return notify.Summary{}, nil, err
	}

	cats, err := loadCatalogues(ctx, cfg, files, ids)
	if err != nil {
		return notify.Summary{}, nil, err
	}
	src := cats[0]
	events := aboveMagnitude(src.catalogue.Events, cfg.Analysis.MinMagnitude)

	eng := newEngine(cfg)
	defer eng.Close()
	c := eng.coord

	logger.Info("Analysing %d events from %s", len(events), src.catalogue.Name)
	grH := c.SubmitGutenbergRichter(ctx, events, opts.gr)
	mcH := c.SubmitCompleteness(ctx, events, opts.mc)
	tempH := c.SubmitTemporal(ctx, events, opts.temporal)
	momH := c.SubmitMoment(ctx, events, opts.moment)

	s := notify.Summary{
		Catalogue:   src.catalogue.Name,
		Events:      len(events),
		Dropped:     src.dropped,
		GeneratedAt: time.Now(),
	}
	if s.Catalogue == "" {
		s.Catalogue = src.catalogue.ID
	}

	if s.GR, err = coordinator.Result[*models.GRResult](ctx, grH); err != nil {
		if s.GRReason, err = unavailable(err); err != nil {
			return s, nil, fmt.Errorf("gutenberg-richter fit failed: %w", err)
		}
	}
	if s.Completeness, err = coordinator.Result[*models.McResult](ctx, mcH); err != nil {
		if s.McReason, err = unavailable(err); err != nil {
			return s, nil, fmt.Errorf("completeness estimate failed: %w", err)
		}
	}
	if s.Temporal, err = coordinator.Result[*models.TemporalResult](ctx, tempH); err != nil {
		return s, nil, fmt.Errorf("temporal analysis failed: %w", err)
	}
	if s.Moment, err = coordinator.Result[*models.MomentResult](ctx, momH); err != nil {
		if _, err = unavailable(err); err != nil {
			return s, nil, fmt.Errorf("moment summary failed: %w", err)
		}
	}

	sample, err := c.Sample(events)
	if err != nil {
		return s, nil, fmt.Errorf("failed to sample events: %w", err)
	}
	logger.Debug("Sampled %d of %d events for display", len(sample), len(events))

	logger.Info("Analysis of %s completed in %v", s.Catalogue, time.Since(start))
	return s, sample, nil
}

// unavailable turns an expected no-result error into its reason and passes
// every other error through.
func unavailable(err error) (string, error) {
	if seismo.Unavailable(err) {
		return err.Error(), nil
	}
	return "", err
}

func writeSummary(w io.Writer, s notify.Summary) {
	fmt.Fprintf(w, "Catalogue: %s\n", s.Catalogue)
	fmt.Fprintf(w, "Events:    %d", s.Events)
	if s.Dropped > 0 {
		fmt.Fprintf(w, " (%d invalid dropped)", s.Dropped)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if s.GR != nil {
		fmt.Fprintf(tw, "b-value\t%.3f\t(a %.3f, R² %.3f, Mc %.2f)\n",
			s.GR.BValue, s.GR.AValue, s.GR.RSquared, s.GR.Completeness)
	} else {
		fmt.Fprintf(tw, "b-value\tunavailable\t(%s)\n", s.GRReason)
	}
	if s.Completeness != nil {
		fmt.Fprintf(tw, "Mc\t%.2f\t(%s, %.0f%% of events above)\n",
			s.Completeness.Mc, s.Completeness.Method, s.Completeness.Confidence*100)
	} else {
		fmt.Fprintf(tw, "Mc\tunavailable\t(%s)\n", s.McReason)
	}
	if t := s.Temporal; t != nil {
		fmt.Fprintf(tw, "Rate\t%.2f/day\t(%.1f/month over %.1f days)\n", t.EventsPerDay, t.EventsPerMonth, t.TimeSpanDays)
		fmt.Fprintf(tw, "Clusters\t%d\t(%d clustered, %d background)\n", len(t.Clusters), t.ClusteredEvents, t.BackgroundEvents)
	}
	if m := s.Moment; m != nil {
		fmt.Fprintf(tw, "Moment\t%.3e N·m\t(Mw %.2f, largest %s M%.1f with %.1f%%)\n",
			m.TotalMoment, m.TotalMomentMagnitude, m.LargestEvent.EventID,
			m.LargestEvent.Magnitude, m.LargestEvent.PercentOfTotal)
	}
	_ = tw.Flush()

	if s.Temporal != nil && len(s.Temporal.Clusters) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CLUSTER\tTYPE\tMAINSHOCK\tMAX M\tEVENTS\tDAYS\tEXTENT KM")
		for _, c := range s.Temporal.Clusters {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%d\t%.1f\t%.1f\n",
				c.ID[:8], c.ClusterType, c.Mainshock, c.MaxMagnitude, c.EventCount, c.DurationDays, c.SpatialExtentKm)
		}
		_ = tw.Flush()
	}
}

func writeEvents(w io.Writer, events []models.CatalogEvent) {
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EVENT\tTIME\tMAG\tLAT\tLON\tDEPTH")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%s\t%s\t%s\n",
			e.ID, e.Time.UTC().Format(time.RFC3339), e.Magnitude,
			optional(e.Latitude, 4), optional(e.Longitude, 4), optional(e.Depth, 1))
	}
	_ = tw.Flush()
}

func optional(v *float64, decimals int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}
