package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/trogers1052/market-analytics/internal/logger"
	"github.com/trogers1052/market-analytics/internal/models"
)

// SymbolLister lists the symbols with stored history
type SymbolLister interface {
	GetSymbols() ([]string, error)
}

// SymbolAnalyzer analyzes one stored symbol
type SymbolAnalyzer interface {
	AnalyzeSymbol(ctx context.Context, symbol string) (*models.AnalysisResult, error)
}

// Pruner removes stored rows older than a cutoff
type Pruner interface {
	DeletePriceDataOlderThan(date time.Time) (int64, error)
	DeleteIndicatorsOlderThan(date time.Time) (int64, error)
}

// RunSummary reports the outcome of one pass over all symbols
type RunSummary struct {
	Analyzed         int
	Failed           int
	PricesPruned     int64
	IndicatorsPruned int64
	Took             time.Duration
}

// Scheduler re-analyzes every stored symbol on a cron schedule
type Scheduler struct {
	cron     *cron.Cron
	lister   SymbolLister
	analyzer SymbolAnalyzer
	pruner   Pruner
	maxAge   time.Duration
	log      *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	now      func() time.Time
}

// New registers the analysis pass under a standard five-field cron spec
func New(spec string, lister SymbolLister, analyzer SymbolAnalyzer, log *slog.Logger) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:     cron.New(),
		lister:   lister,
		analyzer: analyzer,
		log:      logger.OrDefault(log),
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
	}

	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to register analysis schedule %q: %w", spec, err)
	}
	return s, nil
}

// WithRetention makes every pass first delete bars and indicator values
// older than maxAge. A non-positive maxAge keeps everything.
func (s *Scheduler) WithRetention(p Pruner, maxAge time.Duration) *Scheduler {
	if maxAge > 0 {
		s.pruner = p
		s.maxAge = maxAge
	}
	return s
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "next_run", s.NextRun())
}

// NextRun returns the time of the next scheduled pass
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now())
}

// Stop cancels a pass in progress and waits for it to return, or for ctx to end
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler did not stop in time: %w", ctx.Err())
	}
}

func (s *Scheduler) tick() {
	if _, err := s.RunOnce(s.ctx); err != nil {
		s.log.Error("scheduled analysis failed", "error", err)
	}
}

// RunOnce prunes expired rows when retention is set, then analyzes every
// stored symbol sequentially. A failing symbol is logged and counted; only a
// failure to prune or to list symbols is returned.
func (s *Scheduler) RunOnce(ctx context.Context) (RunSummary, error) {
	start := time.Now()
	var summary RunSummary

	if s.pruner != nil {
		if err := s.prune(&summary); err != nil {
			return summary, err
		}
	}

	symbols, err := s.lister.GetSymbols()
	if err != nil {
		return summary, fmt.Errorf("failed to list symbols: %w", err)
	}

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.analyzer.AnalyzeSymbol(ctx, symbol); err != nil {
			summary.Failed++
			s.log.Warn("symbol analysis failed", "symbol", symbol, "error", err)
			continue
		}
		summary.Analyzed++
	}

	summary.Took = time.Since(start)
	s.log.Info("scheduled analysis pass finished",
		"analyzed", summary.Analyzed, "failed", summary.Failed, "took", summary.Took)
	return summary, ctx.Err()
}

func (s *Scheduler) prune(summary *RunSummary) error {
	cutoff := s.now().Add(-s.maxAge)

	n, err := s.pruner.DeleteIndicatorsOlderThan(cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune indicators: %w", err)
	}
	summary.IndicatorsPruned = n

	n, err = s.pruner.DeletePriceDataOlderThan(cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune price data: %w", err)
	}
	summary.PricesPruned = n

	if summary.IndicatorsPruned+summary.PricesPruned > 0 {
		s.log.Info("pruned expired rows", "cutoff", cutoff,
			"prices", summary.PricesPruned, "indicators", summary.IndicatorsPruned)
	}
	return nil
}
