// Package service orchestrates the analysis engine over stored price history
// and fans results out to downstream publishers.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trogers1052/market-analytics/internal/analysis"
	"github.com/trogers1052/market-analytics/internal/logger"
	"github.com/trogers1052/market-analytics/internal/metrics"
	"github.com/trogers1052/market-analytics/internal/models"
)

// ErrNoHistory is returned when a symbol has no stored price bars
var ErrNoHistory = errors.New("no price history")

// Repository is the persistence the service needs
type Repository interface {
	GetPriceHistory(symbol string, limit int) ([]models.PricePoint, error)
	CreatePriceDataBatch(prices []*models.PriceDataDaily) error
	SaveAnalysisResult(r *models.AnalysisRecord) error
	SaveIndicatorSeries(symbol string, series []models.IndicatorSeries) (int, error)
}

// Publisher delivers completed analyses to a downstream channel
type Publisher interface {
	Name() string
	Publish(ctx context.Context, result *models.AnalysisResult) error
}

// AnalysisService runs analyses and ingests price bars
type AnalysisService struct {
	engine       *analysis.Engine
	repo         Repository
	publishers   []Publisher
	metrics      *metrics.Metrics
	log          *slog.Logger
	historyLimit int
	now          func() time.Time
}

// New creates an AnalysisService. metrics may be nil.
func New(engine *analysis.Engine, repo Repository, publishers []Publisher, m *metrics.Metrics, log *slog.Logger, historyLimit int) *AnalysisService {
	return &AnalysisService{
		engine:       engine,
		repo:         repo,
		publishers:   publishers,
		metrics:      m,
		log:          logger.OrDefault(log),
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// AnalyzeSymbol analyzes the stored history of a symbol, persists the
// summary and indicator values, then notifies every publisher. Publisher
// failures are logged and never fail the call.
func (s *AnalysisService) AnalyzeSymbol(ctx context.Context, symbol string) (*models.AnalysisResult, error) {
	symbol = strings.ToUpper(symbol)
	if !models.IsValidSymbol(symbol) {
		return nil, fmt.Errorf("%w: invalid symbol %q", analysis.ErrInvalidInput, symbol)
	}

	history, err := s.repo.GetPriceHistory(symbol, s.historyLimit)
	if err != nil {
		s.metrics.AnalysisFailed("load")
		return nil, fmt.Errorf("failed to load history for %s: %w", symbol, err)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoHistory)
	}

	result, err := s.analyze(history)
	if err != nil {
		return nil, err
	}

	if err := s.store(result); err != nil {
		s.metrics.AnalysisFailed("store")
		return nil, err
	}

	s.publish(ctx, result)

	s.log.Info("analysis completed",
		append(logger.Attrs(ctx),
			"symbol", symbol,
			"recommendation", result.Recommendation.String(),
			"confidence", result.Confidence,
			"bars", len(history),
		)...)
	return result, nil
}

// AnalyzeSeries analyzes a caller-supplied series without persisting or
// publishing it. Every point is validated first.
func (s *AnalysisService) AnalyzeSeries(ctx context.Context, points []models.PricePoint) (*models.AnalysisResult, error) {
	points, err := s.normalize(points)
	if err != nil {
		s.metrics.Rejected("invalid")
		s.log.Debug("series analysis rejected", append(logger.Attrs(ctx), "error", err)...)
		return nil, err
	}

	result, err := s.analyze(points)
	if err != nil {
		s.log.Debug("series analysis rejected", append(logger.Attrs(ctx), "error", err)...)
		return nil, err
	}
	return result, nil
}

// IngestBars validates and stores price bars received from source.
// Nothing is stored when any bar is invalid.
func (s *AnalysisService) IngestBars(ctx context.Context, source string, points []models.PricePoint) error {
	if len(points) == 0 {
		return fmt.Errorf("%w: no price bars provided", analysis.ErrInvalidInput)
	}

	points, err := s.normalize(points)
	if err != nil {
		s.metrics.Rejected("invalid")
		return err
	}

	rows := make([]*models.PriceDataDaily, 0, len(points))
	for _, p := range points {
		rows = append(rows, models.PriceDataFromPoint(p))
	}

	if err := s.repo.CreatePriceDataBatch(rows); err != nil {
		return fmt.Errorf("failed to store price bars: %w", err)
	}

	s.metrics.Ingested(source, len(rows))
	s.log.Debug("price bars stored", append(logger.Attrs(ctx), "source", source, "count", len(rows))...)
	return nil
}

// normalize returns a copy of points with upper-cased symbols, or the first
// validation failure wrapped in analysis.ErrInvalidInput
func (s *AnalysisService) normalize(points []models.PricePoint) ([]models.PricePoint, error) {
	now := s.now()
	out := make([]models.PricePoint, len(points))
	for i, p := range points {
		p.Symbol = strings.ToUpper(p.Symbol)
		if err := p.Validate(now); err != nil {
			return nil, fmt.Errorf("%w: bar %d: %v", analysis.ErrInvalidInput, i, err)
		}
		out[i] = p
	}
	return out, nil
}

func (s *AnalysisService) analyze(points []models.PricePoint) (*models.AnalysisResult, error) {
	start := time.Now()
	result, err := s.engine.Analyze(points)
	if err != nil {
		s.metrics.AnalysisFailed("analyze")
		return nil, err
	}
	s.metrics.ObserveAnalysis(result.Symbol, result.Recommendation.String(), result.Confidence, len(points), time.Since(start))
	return result, nil
}

func (s *AnalysisService) store(result *models.AnalysisResult) error {
	if err := s.repo.SaveAnalysisResult(models.NewAnalysisRecord(result)); err != nil {
		return fmt.Errorf("failed to store analysis for %s: %w", result.Symbol, err)
	}
	n, err := s.repo.SaveIndicatorSeries(result.Symbol, result.Indicators)
	if err != nil {
		return fmt.Errorf("failed to store indicators for %s: %w", result.Symbol, err)
	}
	s.metrics.IndicatorValuesSaved(n)
	return nil
}

func (s *AnalysisService) publish(ctx context.Context, result *models.AnalysisResult) {
	for _, p := range s.publishers {
		if err := p.Publish(ctx, result); err != nil {
			s.metrics.PublishFailed(p.Name())
			s.log.Warn("failed to publish analysis",
				append(logger.Attrs(ctx), "publisher", p.Name(), "symbol", result.Symbol, "error", err)...)
		}
	}
}
