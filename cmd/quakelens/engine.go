package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rewired-gh/quakelens/internal/catalog"
	"github.com/rewired-gh/quakelens/internal/config"
	"github.com/rewired-gh/quakelens/internal/coordinator"
	"github.com/rewired-gh/quakelens/internal/logger"
	"github.com/rewired-gh/quakelens/internal/models"
	"github.com/rewired-gh/quakelens/internal/notify"
	"github.com/rewired-gh/quakelens/internal/seismo"
)

// engine is the coordinator plus its optional metrics endpoint.
type engine struct {
	coord  *coordinator.Coordinator
	server *http.Server
}

func newEngine(c *config.Config) *engine {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := coordinator.NewMetrics(reg)

	e := &engine{
		coord: coordinator.New(
			coordinator.NewCache(c.Coordinator.CacheMaxEntries, metrics),
			metrics,
			coordinator.Options{
				SampleBudget:      c.Coordinator.SampleBudget,
				SampleTopFraction: c.Coordinator.SampleTopFraction,
			},
		),
	}

	if c.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		e.server = &http.Server{
			Addr:              c.Metrics.ListenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed: %v", err)
			}
		}()
		logger.Info("Serving metrics on %s/metrics", c.Metrics.ListenAddr)
	}
	return e
}

func (e *engine) Close() {
	if e.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.server.Shutdown(ctx); err != nil {
		logger.Warn("Failed to stop metrics server: %v", err)
	}
}

// analysisOptions are the estimator options derived from configuration.
type analysisOptions struct {
	gr       seismo.GROptions
	mc       seismo.McOptions
	temporal seismo.TemporalOptions
	moment   seismo.MomentOptions
	mfd      seismo.MFDOptions
}

func newAnalysisOptions(a config.AnalysisConfig) (analysisOptions, error) {
	windows, err := seismo.WindowTableByName(a.DeclusterWindows)
	if err != nil {
		return analysisOptions{}, err
	}
	correction := a.McCorrection

	return analysisOptions{
		gr: seismo.GROptions{BinWidth: a.BinWidth, McCorrection: &correction},
		mc: seismo.McOptions{BinWidth: a.BinWidth, Correction: &correction},
		temporal: seismo.TemporalOptions{
			DayCap: a.DayCap,
			Decluster: seismo.DeclusterOptions{
				Windows:        windows,
				MinClusterSize: a.MinClusterSize,
				BinWidth:       a.BinWidth,
			},
		},
		moment: seismo.MomentOptions{BinWidth: a.BinWidth},
		mfd:    seismo.MFDOptions{BinWidth: a.BinWidth, MinMagnitude: a.MinMagnitude},
	}, nil
}

// aboveMagnitude keeps events at or above floor. A nil floor keeps all.
func aboveMagnitude(events []models.CatalogEvent, floor *float64) []models.CatalogEvent {
	if floor == nil {
		return events
	}
	out := make([]models.CatalogEvent, 0, len(events))
	for _, e := range events {
		if e.Magnitude >= *floor {
			out = append(out, e)
		}
	}
	return out
}

// loaded is a catalogue read from a file or the API.
type loaded struct {
	catalogue models.Catalogue
	dropped   int
}

func loadFile(path string) (loaded, error) {
	f, err := os.Open(path)
	if err != nil {
		return loaded{}, fmt.Errorf("failed to open catalogue: %w", err)
	}
	defer f.Close()

	doc, err := catalog.Decode(f)
	if err != nil {
		return loaded{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	cat, report := doc.Catalogue(id)
	if report.Invalid() > 0 {
		logger.Warn("Dropped %d of %d events from %s: %s", report.Invalid(), report.Total, path, report)
	}
	logger.Info("Loaded %d events from %s", len(cat.Events), path)
	return loaded{catalogue: cat, dropped: report.Invalid()}, nil
}

func loadCatalogues(ctx context.Context, c *config.Config, files, ids []string) ([]loaded, error) {
	out := make([]loaded, 0, len(files)+len(ids))
	for _, path := range files {
		l, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if len(ids) == 0 {
		return out, nil
	}

	client := catalog.NewClient(c.Catalog.APIBaseURL, c.Catalog.Timeout, catalog.ClientConfig{
		MaxRetries:     c.Catalog.MaxRetries,
		RetryDelayBase: c.Catalog.RetryDelayBase,
	})
	for _, id := range ids {
		cat, report, err := client.FetchCatalogue(ctx, id, catalog.EventQuery{MinMagnitude: c.Analysis.MinMagnitude})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch catalogue %s: %w", id, err)
		}
		logger.Info("Fetched %d events for catalogue %s", len(cat.Events), id)
		out = append(out, loaded{catalogue: cat, dropped: report.Invalid()})
	}
	return out, nil
}

// newNotifier returns nil when alerts are disabled.
func newNotifier(c *config.Config) (*notify.Client, error) {
	if !c.Telegram.Enabled {
		logger.Debug("Telegram notifications disabled")
		return nil, nil
	}
	n, err := notify.NewClient(c.Telegram.BotToken, c.Telegram.ChatID, c.Telegram.MaxRetries, c.Telegram.RetryDelayBase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram client: %w", err)
	}
	logger.Info("Telegram client initialized successfully")
	return n, nil
}
