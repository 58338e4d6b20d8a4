package database

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/market-analytics/internal/models"
)

func TestAnalysisResultsRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)

	newResult := func(symbol string, at time.Time, sig models.SignalType) *models.AnalysisResult {
		sharpe := 1.25
		return &models.AnalysisResult{
			Symbol:     symbol,
			ComputedAt: at,
			Indicators: []models.IndicatorSeries{
				{Name: models.SeriesRSI14, Values: []float64{0, 0, 55}},
				{Name: models.SeriesSMA20, Values: []float64{0, 0, 0}},
			},
			Risk: models.RiskMetrics{
				Volatility:  0.21,
				SharpeRatio: &sharpe,
				MaxDrawdown: 0.05,
			},
			Recommendation: sig,
			Confidence:     50,
		}
	}

	t.Run("SaveAnalysisResult assigns an ID", func(t *testing.T) {
		testDB.TruncateAll(t)

		rec := models.NewAnalysisRecord(newResult("AAPL", time.Now().UTC(), models.SignalBuy))
		require.NoError(t, testDB.SaveAnalysisResult(rec))

		_, err := uuid.Parse(rec.ID)
		assert.NoError(t, err)
		assert.False(t, rec.CreatedAt.IsZero())
	})

	t.Run("GetLatestAnalysis returns newest record", func(t *testing.T) {
		testDB.TruncateAll(t)

		base := time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC)
		require.NoError(t, testDB.SaveAnalysisResult(models.NewAnalysisRecord(newResult("MSFT", base, models.SignalSell))))
		require.NoError(t, testDB.SaveAnalysisResult(models.NewAnalysisRecord(newResult("MSFT", base.Add(24*time.Hour), models.SignalBuy))))

		latest, err := testDB.GetLatestAnalysis("MSFT")
		require.NoError(t, err)
		assert.Equal(t, "Buy", latest.Recommendation)
		assert.Equal(t, 3, latest.BarCount)
		assert.Equal(t, 2, latest.IndicatorCount)
		require.NotNil(t, latest.SharpeRatio)
		assert.Equal(t, "1.25", latest.SharpeRatio.String())
		assert.Nil(t, latest.Beta, "beta is never stored")
	})

	t.Run("GetLatestAnalysis wraps ErrNotFound", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.GetLatestAnalysis("NONE")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("GetAnalysisHistory is newest first and limited", func(t *testing.T) {
		testDB.TruncateAll(t)

		base := time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC)
		for i := 0; i < 4; i++ {
			rec := models.NewAnalysisRecord(newResult("NVDA", base.AddDate(0, 0, i), models.SignalHold))
			require.NoError(t, testDB.SaveAnalysisResult(rec))
		}

		history, err := testDB.GetAnalysisHistory("NVDA", 3)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.True(t, history[0].ComputedAt.After(history[1].ComputedAt))
	})
}
