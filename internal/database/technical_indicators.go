package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/trogers1052/market-analytics/internal/models"
)

const indicatorColumns = `id, symbol, date, indicator_type, value, timeframe, created_at`

func scanIndicator(row rowScanner) (*models.TechnicalIndicator, error) {
	var t models.TechnicalIndicator
	err := row.Scan(&t.ID, &t.Symbol, &t.Date, &t.IndicatorType, &t.Value, &t.Timeframe, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (db *DB) queryIndicators(query string, args ...any) ([]*models.TechnicalIndicator, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indicators []*models.TechnicalIndicator
	for rows.Next() {
		t, err := scanIndicator(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan indicator: %w", err)
		}
		indicators = append(indicators, t)
	}
	return indicators, rows.Err()
}

// CreateTechnicalIndicatorBatch upserts multiple indicator values in one transaction
func (db *DB) CreateTechnicalIndicatorBatch(indicators []*models.TechnicalIndicator) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO technical_indicators (symbol, date, indicator_type, value, timeframe, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol, date, indicator_type, timeframe) DO UPDATE SET
			value = EXCLUDED.value
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, t := range indicators {
		timeframe := t.Timeframe
		if timeframe == "" {
			timeframe = models.DefaultTimeframe
		}
		_, err := stmt.Exec(t.Symbol, t.Date, t.IndicatorType, t.Value, timeframe, now)
		if err != nil {
			return fmt.Errorf("failed to insert indicator for %s: %w", t.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SaveIndicatorSeries stores the non-placeholder points of engine series.
// Series without a stored indicator type are ignored. Returns the number of
// values written.
func (db *DB) SaveIndicatorSeries(symbol string, series []models.IndicatorSeries) (int, error) {
	var rows []*models.TechnicalIndicator
	for _, s := range series {
		rows = append(rows, models.TechnicalIndicatorsFromSeries(symbol, s)...)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := db.CreateTechnicalIndicatorBatch(rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// GetIndicator retrieves a specific indicator for a symbol on a date
func (db *DB) GetIndicator(symbol string, date time.Time, indicatorType string, timeframe string) (*models.TechnicalIndicator, error) {
	if timeframe == "" {
		timeframe = models.DefaultTimeframe
	}
	query := `SELECT ` + indicatorColumns + `
		FROM technical_indicators
		WHERE symbol = $1 AND date = $2 AND indicator_type = $3 AND timeframe = $4
	`
	t, err := scanIndicator(db.conn.QueryRow(query, symbol, date, indicatorType, timeframe))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("indicator %s %s on %s: %w", symbol, indicatorType, date.Format("2006-01-02"), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get indicator: %w", err)
	}
	return t, nil
}

// GetIndicatorHistory retrieves historical values for a specific indicator, newest first
func (db *DB) GetIndicatorHistory(symbol string, indicatorType string, limit int) ([]*models.TechnicalIndicator, error) {
	indicators, err := db.queryIndicators(`SELECT `+indicatorColumns+`
		FROM technical_indicators
		WHERE symbol = $1 AND indicator_type = $2
		ORDER BY date DESC
		LIMIT $3
	`, symbol, indicatorType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get indicator history: %w", err)
	}
	return indicators, nil
}

// GetLatestIndicators retrieves the most recent value of each indicator for a symbol
func (db *DB) GetLatestIndicators(symbol string) ([]*models.TechnicalIndicator, error) {
	indicators, err := db.queryIndicators(`
		SELECT DISTINCT ON (indicator_type) `+indicatorColumns+`
		FROM technical_indicators
		WHERE symbol = $1
		ORDER BY indicator_type, date DESC
	`, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest indicators: %w", err)
	}
	return indicators, nil
}

// DeleteIndicatorsBySymbol removes all indicators for a symbol
func (db *DB) DeleteIndicatorsBySymbol(symbol string) error {
	query := `DELETE FROM technical_indicators WHERE symbol = $1`
	_, err := db.conn.Exec(query, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete indicators for %s: %w", symbol, err)
	}
	return nil
}

// DeleteIndicatorsOlderThan removes indicators older than a specified date
func (db *DB) DeleteIndicatorsOlderThan(date time.Time) (int64, error) {
	query := `DELETE FROM technical_indicators WHERE date < $1`
	result, err := db.conn.Exec(query, date)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old indicators: %w", err)
	}
	return result.RowsAffected()
}
