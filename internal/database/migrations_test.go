package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)

	tableColumns := map[string][]string{
		"price_data_daily": {
			"id", "symbol", "date", "open", "high", "low", "close",
			"volume", "bid", "ask", "created_at",
		},
		"technical_indicators": {
			"id", "symbol", "date", "indicator_type", "value",
			"timeframe", "created_at",
		},
		"analysis_results": {
			"id", "symbol", "computed_at", "recommendation", "confidence",
			"volatility", "sharpe_ratio", "max_drawdown", "beta",
			"indicator_count", "bar_count", "created_at",
		},
	}

	for table, columns := range tableColumns {
		t.Run(table+" table has correct columns", func(t *testing.T) {
			for _, colName := range columns {
				var exists bool
				err := testDB.GetRawConn().QueryRow(`
					SELECT EXISTS (
						SELECT FROM information_schema.columns
						WHERE table_name = $1 AND column_name = $2
					)
				`, table, colName).Scan(&exists)

				require.NoError(t, err)
				assert.True(t, exists, "column %s should exist in %s table", colName, table)
			}
		})
	}

	t.Run("nullable risk columns", func(t *testing.T) {
		for _, colName := range []string{"sharpe_ratio", "beta"} {
			var nullable string
			err := testDB.GetRawConn().QueryRow(`
				SELECT is_nullable
				FROM information_schema.columns
				WHERE table_name = 'analysis_results' AND column_name = $1
			`, colName).Scan(&nullable)

			require.NoError(t, err)
			assert.Equal(t, "YES", nullable, "%s should be nullable", colName)
		}
	})

	t.Run("indexes exist", func(t *testing.T) {
		expectedIndexes := []struct {
			table string
			index string
		}{
			{"price_data_daily", "idx_price_data_symbol"},
			{"price_data_daily", "idx_price_data_date"},
			{"technical_indicators", "idx_indicators_symbol"},
			{"technical_indicators", "idx_indicators_date"},
			{"analysis_results", "idx_analysis_results_symbol_computed"},
		}

		for _, idx := range expectedIndexes {
			var exists bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM pg_indexes
					WHERE tablename = $1 AND indexname = $2
				)
			`, idx.table, idx.index).Scan(&exists)

			require.NoError(t, err)
			assert.True(t, exists, "index %s should exist on table %s", idx.index, idx.table)
		}
	})

	t.Run("migrate is idempotent", func(t *testing.T) {
		assert.NoError(t, testDB.Migrate(migrationsDir()))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, testDB.Ping())
	})
}
