package database

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/market-analytics/internal/models"
)

func TestTechnicalIndicatorsRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)

	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	t.Run("CreateTechnicalIndicatorBatch defaults timeframe and upserts", func(t *testing.T) {
		testDB.TruncateAll(t)

		err := testDB.CreateTechnicalIndicatorBatch([]*models.TechnicalIndicator{
			{Symbol: "GOOGL", Date: day(15), IndicatorType: models.IndicatorRSI14, Value: decimal.NewFromFloat(45.5)},
		})
		require.NoError(t, err)

		err = testDB.CreateTechnicalIndicatorBatch([]*models.TechnicalIndicator{
			{Symbol: "GOOGL", Date: day(15), IndicatorType: models.IndicatorRSI14, Value: decimal.NewFromFloat(52.25)},
		})
		require.NoError(t, err)

		got, err := testDB.GetIndicator("GOOGL", day(15), models.IndicatorRSI14, "")
		require.NoError(t, err)
		assert.Equal(t, models.DefaultTimeframe, got.Timeframe)
		assert.True(t, decimal.NewFromFloat(52.25).Equal(got.Value))
	})

	t.Run("GetIndicator wraps ErrNotFound", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.GetIndicator("GOOGL", day(15), models.IndicatorMACD, "daily")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("SaveIndicatorSeries skips placeholders and unknown series", func(t *testing.T) {
		testDB.TruncateAll(t)

		ts := []time.Time{day(15), day(16), day(17)}
		series := []models.IndicatorSeries{
			{Name: models.SeriesSMA20, Timestamps: ts, Values: []float64{0, 0, 101.5}},
			{Name: models.SeriesRSI14, Timestamps: ts, Values: []float64{0, 55, 61.25}},
			{Name: "EMA(9)", Timestamps: ts, Values: []float64{1, 2, 3}},
		}

		n, err := testDB.SaveIndicatorSeries("AAPL", series)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		rsi, err := testDB.GetIndicatorHistory("AAPL", models.IndicatorRSI14, 10)
		require.NoError(t, err)
		require.Len(t, rsi, 2)
		assert.Equal(t, 17, rsi[0].Date.UTC().Day(), "history is newest first")
		assert.True(t, decimal.NewFromFloat(61.25).Equal(rsi[0].Value))
	})

	t.Run("SaveIndicatorSeries with nothing to store", func(t *testing.T) {
		testDB.TruncateAll(t)

		n, err := testDB.SaveIndicatorSeries("AAPL", []models.IndicatorSeries{
			{Name: models.SeriesSMA50, Timestamps: []time.Time{day(15)}, Values: []float64{0}},
		})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("GetIndicatorHistory respects limit", func(t *testing.T) {
		testDB.TruncateAll(t)

		var rows []*models.TechnicalIndicator
		for i := 0; i < 5; i++ {
			rows = append(rows, &models.TechnicalIndicator{
				Symbol: "MSFT", Date: day(10 + i), IndicatorType: models.IndicatorSMA20,
				Value: decimal.NewFromFloat(370 + float64(i)),
			})
		}
		require.NoError(t, testDB.CreateTechnicalIndicatorBatch(rows))

		history, err := testDB.GetIndicatorHistory("MSFT", models.IndicatorSMA20, 2)
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})

	t.Run("GetLatestIndicators returns one row per type", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.CreateTechnicalIndicatorBatch([]*models.TechnicalIndicator{
			{Symbol: "NVDA", Date: day(15), IndicatorType: models.IndicatorRSI14, Value: decimal.NewFromFloat(40)},
			{Symbol: "NVDA", Date: day(16), IndicatorType: models.IndicatorRSI14, Value: decimal.NewFromFloat(45)},
			{Symbol: "NVDA", Date: day(16), IndicatorType: models.IndicatorMACD, Value: decimal.NewFromFloat(1.5)},
		}))

		latest, err := testDB.GetLatestIndicators("NVDA")
		require.NoError(t, err)
		require.Len(t, latest, 2)

		byType := map[string]*models.TechnicalIndicator{}
		for _, ind := range latest {
			byType[ind.IndicatorType] = ind
		}
		assert.True(t, decimal.NewFromFloat(45).Equal(byType[models.IndicatorRSI14].Value))
		assert.True(t, decimal.NewFromFloat(1.5).Equal(byType[models.IndicatorMACD].Value))
	})

	t.Run("DeleteIndicatorsBySymbol and DeleteIndicatorsOlderThan", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.CreateTechnicalIndicatorBatch([]*models.TechnicalIndicator{
			{Symbol: "AMD", Date: day(10), IndicatorType: models.IndicatorRSI14, Value: decimal.NewFromFloat(40)},
			{Symbol: "AMD", Date: day(20), IndicatorType: models.IndicatorRSI14, Value: decimal.NewFromFloat(50)},
			{Symbol: "TSLA", Date: day(20), IndicatorType: models.IndicatorRSI14, Value: decimal.NewFromFloat(60)},
		}))

		deleted, err := testDB.DeleteIndicatorsOlderThan(day(15))
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		require.NoError(t, testDB.DeleteIndicatorsBySymbol("AMD"))

		amd, err := testDB.GetLatestIndicators("AMD")
		require.NoError(t, err)
		assert.Empty(t, amd)

		tsla, err := testDB.GetLatestIndicators("TSLA")
		require.NoError(t, err)
		assert.Len(t, tsla, 1)
	})
}
