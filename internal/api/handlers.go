package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/trogers1052/market-analytics/internal/analysis"
	"github.com/trogers1052/market-analytics/internal/indicators"
	"github.com/trogers1052/market-analytics/internal/logger"
	"github.com/trogers1052/market-analytics/internal/metrics"
	"github.com/trogers1052/market-analytics/internal/models"
)

const (
	maxBodyBytes        = 10 << 20
	defaultHistoryLimit = 30
	defaultPriceWindow  = 90 * 24 * time.Hour
	maxHistoryLimit     = 1000
	maxPrecision        = 10
)

// Analyzer runs analyses and ingests price bars
type Analyzer interface {
	AnalyzeSymbol(ctx context.Context, symbol string) (*models.AnalysisResult, error)
	AnalyzeSeries(ctx context.Context, points []models.PricePoint) (*models.AnalysisResult, error)
	IngestBars(ctx context.Context, source string, points []models.PricePoint) error
}

// Store serves stored prices, analyses and indicator values
type Store interface {
	GetPriceDataRange(symbol string, r models.TimeRange) ([]*models.PriceDataDaily, error)
	DeletePriceDataBySymbol(symbol string) error
	GetLatestAnalysis(symbol string) (*models.AnalysisRecord, error)
	GetAnalysisHistory(symbol string, limit int) ([]*models.AnalysisRecord, error)
	GetIndicatorHistory(symbol string, indicatorType string, limit int) ([]*models.TechnicalIndicator, error)
	GetLatestIndicators(symbol string) ([]*models.TechnicalIndicator, error)
	DeleteIndicatorsBySymbol(symbol string) error
	Ping() error
}

// Snapshots serves the cached summary of the last analysis per symbol
type Snapshots interface {
	Latest(ctx context.Context, symbol string) (*models.AnalysisEvent, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	analyzer  Analyzer
	store     Store
	calc      *indicators.Calculator
	snapshots Snapshots
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// NewHandler creates a new Handler. metrics may be nil.
func NewHandler(analyzer Analyzer, store Store, calc *indicators.Calculator, m *metrics.Metrics, log *slog.Logger) *Handler {
	if calc == nil {
		calc = indicators.NewCalculator()
	}
	return &Handler{
		analyzer: analyzer,
		store:    store,
		calc:     calc,
		metrics:  m,
		log:      logger.OrDefault(log),
	}
}

// WithSnapshots enables GET /stocks/{symbol}/snapshot backed by s
func (h *Handler) WithSnapshots(s Snapshots) *Handler {
	h.snapshots = s
	return h
}

type seriesRequest struct {
	Data []models.PricePoint `json:"data"`
}

// Analyze handles POST /analyze
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.analyzer.AnalyzeSeries(r.Context(), req.Data)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, result)
}

type indicatorRequest struct {
	Prices    []float64 `json:"prices"`
	Period    int       `json:"period"`
	Fast      int       `json:"fast"`
	Slow      int       `json:"slow"`
	Signal    int       `json:"signal"`
	StdDev    float64   `json:"std_dev"`
	Precision *int      `json:"precision"`
}

type allIndicatorsResponse struct {
	RSI       []float64                  `json:"rsi"`
	SMAShort  []float64                  `json:"sma_short"`
	SMALong   []float64                  `json:"sma_long"`
	MACD      indicators.MACDResult      `json:"macd"`
	Bollinger indicators.BollingerResult `json:"bollinger"`
}

// CalculateIndicator handles POST /indicators/{name}
func (h *Handler) CalculateIndicator(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(mux.Vars(r)["name"])

	var req indicatorRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	calc := h.calc
	if req.Precision != nil {
		if *req.Precision < 0 || *req.Precision > maxPrecision {
			h.respondError(w, r, badRequest("precision", "must be between 0 and %d", maxPrecision))
			return
		}
		calc = indicators.NewCalculatorWithPrecision(*req.Precision)
	}

	var out any
	switch name {
	case "sma":
		out = map[string][]float64{"values": calc.SMA(req.Prices, orDefault(req.Period, analysis.SMAShortPeriod))}
	case "ema":
		out = map[string][]float64{"values": calc.EMA(req.Prices, orDefault(req.Period, analysis.SMAShortPeriod))}
	case "rsi":
		out = map[string][]float64{"values": calc.RSI(req.Prices, orDefault(req.Period, analysis.RSIPeriod))}
	case "macd":
		out = calc.MACD(req.Prices,
			orDefault(req.Fast, analysis.MACDFastPeriod),
			orDefault(req.Slow, analysis.MACDSlowPeriod),
			orDefault(req.Signal, analysis.MACDSignalPeriod))
	case "bollinger":
		out = calc.Bollinger(req.Prices, orDefault(req.Period, indicators.DefaultBollingerPeriod), orDefaultFloat(req.StdDev, indicators.DefaultBollingerK))
	case "all":
		out = allIndicatorsResponse{
			RSI:       calc.RSI(req.Prices, analysis.RSIPeriod),
			SMAShort:  calc.SMA(req.Prices, analysis.SMAShortPeriod),
			SMALong:   calc.SMA(req.Prices, analysis.SMALongPeriod),
			MACD:      calc.MACD(req.Prices, analysis.MACDFastPeriod, analysis.MACDSlowPeriod, analysis.MACDSignalPeriod),
			Bollinger: calc.Bollinger(req.Prices, indicators.DefaultBollingerPeriod, indicators.DefaultBollingerK),
		}
	default:
		h.respondError(w, r, badRequest("name", "unknown indicator %q", name))
		return
	}

	h.respondJSON(w, r, http.StatusOK, out)
}

// IngestPrices handles POST /stocks/{symbol}/prices
func (h *Handler) IngestPrices(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	var req seriesRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	for i := range req.Data {
		switch {
		case req.Data[i].Symbol == "":
			req.Data[i].Symbol = symbol
		case !strings.EqualFold(req.Data[i].Symbol, symbol):
			h.respondError(w, r, badRequest("data", "bar %d has symbol %q, expected %q", i, req.Data[i].Symbol, symbol))
			return
		default:
			req.Data[i].Symbol = symbol
		}
	}

	if err := h.analyzer.IngestBars(r.Context(), "http", req.Data); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, map[string]any{"symbol": symbol, "stored": len(req.Data)})
}

// AnalyzeStock handles GET /stocks/{symbol}/analysis
func (h *Handler) AnalyzeStock(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	result, err := h.analyzer.AnalyzeSymbol(r.Context(), symbol)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, result)
}

// GetLatestAnalysis handles GET /stocks/{symbol}/analysis/latest
func (h *Handler) GetLatestAnalysis(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	record, err := h.store.GetLatestAnalysis(symbol)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, record)
}

// GetIndicatorHistory handles GET /stocks/{symbol}/indicators?type=RSI_14&limit=30
func (h *Handler) GetIndicatorHistory(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	indicatorType := r.URL.Query().Get("type")
	if indicatorType == "" {
		indicatorType = models.IndicatorRSI14
	}

	limit, err := parseLimit(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	values, err := h.store.GetIndicatorHistory(symbol, strings.ToUpper(indicatorType), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if values == nil {
		values = []*models.TechnicalIndicator{}
	}

	h.respondJSON(w, r, http.StatusOK, values)
}

// GetPriceRange handles GET /stocks/{symbol}/prices?start=2024-01-01&end=2024-03-31.
// The window defaults to the last 90 days. Dates may also be RFC 3339 timestamps.
func (h *Handler) GetPriceRange(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	end := time.Now().UTC()
	if raw := r.URL.Query().Get("end"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			h.respondError(w, r, badRequest("end", "%v", err))
			return
		}
		end = t
	}
	start := end.Add(-defaultPriceWindow)
	if raw := r.URL.Query().Get("start"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			h.respondError(w, r, badRequest("start", "%v", err))
			return
		}
		start = t
	}
	if start.After(end) {
		h.respondError(w, r, badRequest("start", "must not be after end"))
		return
	}

	bars, err := h.store.GetPriceDataRange(symbol, models.NewTimeRange(start, end))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := priceRangeResponse{Symbol: symbol, Start: start, End: end, Bars: bars}
	if len(bars) > 0 {
		first := bars[0].Close.InexactFloat64()
		last := bars[len(bars)-1].Close.InexactFloat64()
		resp.ChangePercent = indicators.RoundTo(models.PercentChange(first, last), h.calc.Precision())
	}
	if resp.Bars == nil {
		resp.Bars = []*models.PriceDataDaily{}
	}

	h.respondJSON(w, r, http.StatusOK, resp)
}

type priceRangeResponse struct {
	Symbol        string                   `json:"symbol"`
	Start         time.Time                `json:"start"`
	End           time.Time                `json:"end"`
	Bars          []*models.PriceDataDaily `json:"bars"`
	ChangePercent float64                  `json:"change_percent"`
}

// DeleteStock handles DELETE /stocks/{symbol}: stored bars and indicator
// values go, past analysis summaries stay
func (h *Handler) DeleteStock(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])
	if !models.IsValidSymbol(symbol) {
		h.respondError(w, r, badRequest("symbol", "invalid symbol %q", symbol))
		return
	}

	if err := h.store.DeleteIndicatorsBySymbol(symbol); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.store.DeletePriceDataBySymbol(symbol); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.log.Info("symbol data deleted", append(logger.Attrs(r.Context()), "symbol", symbol)...)
	h.respondJSON(w, r, http.StatusOK, map[string]any{"symbol": symbol, "deleted": true})
}

// GetAnalysisHistory handles GET /stocks/{symbol}/analysis/history?limit=30
func (h *Handler) GetAnalysisHistory(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	limit, err := parseLimit(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	records, err := h.store.GetAnalysisHistory(symbol, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if records == nil {
		records = []*models.AnalysisRecord{}
	}

	h.respondJSON(w, r, http.StatusOK, records)
}

// GetLatestIndicators handles GET /stocks/{symbol}/indicators/latest
func (h *Handler) GetLatestIndicators(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	values, err := h.store.GetLatestIndicators(symbol)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if values == nil {
		values = []*models.TechnicalIndicator{}
	}

	h.respondJSON(w, r, http.StatusOK, values)
}

// GetSnapshot handles GET /stocks/{symbol}/snapshot
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	event, err := h.snapshots.Latest(r.Context(), symbol)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, event)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.Ping(); err != nil {
			h.log.Warn("health check failed", append(logger.Attrs(r.Context()), "error", err)...)
			h.respondJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	h.respondJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("", "request body is required")
		}
		return badRequest("", "invalid request body: %v", err)
	}
	return nil
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxHistoryLimit {
		return 0, badRequest("limit", "must be an integer between 1 and %d", maxHistoryLimit)
	}
	return n, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC 3339, got %q", raw)
	}
	return t, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// respondJSON encodes data before touching the response so an encoding
// failure still produces a well-formed 500
func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		h.log.Error("failed to encode response",
			append(logger.Attrs(r.Context()), "path", r.URL.Path, "error", err)...)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: http.StatusText(status), RequestID: logger.RequestID(r.Context())})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.log.Debug("failed to write response", append(logger.Attrs(r.Context()), "error", err)...)
	}
}
