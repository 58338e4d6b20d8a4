package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/market-analytics/internal/models"
)

const priceDataColumns = `id, symbol, date, open, high, low, close, volume, bid, ask, created_at`

const upsertPriceData = `
	INSERT INTO price_data_daily (symbol, date, open, high, low, close, volume, bid, ask, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (symbol, date) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		volume = EXCLUDED.volume,
		bid = EXCLUDED.bid,
		ask = EXCLUDED.ask
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPriceData(row rowScanner) (*models.PriceDataDaily, error) {
	var p models.PriceDataDaily
	var bid, ask decimal.NullDecimal

	err := row.Scan(
		&p.ID, &p.Symbol, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume, &bid, &ask, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if bid.Valid {
		p.Bid = &bid.Decimal
	}
	if ask.Valid {
		p.Ask = &ask.Decimal
	}
	return &p, nil
}

func nullableDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// CreatePriceData inserts a price bar, replacing any bar stored for the same symbol and date
func (db *DB) CreatePriceData(p *models.PriceDataDaily) error {
	err := db.conn.QueryRow(upsertPriceData+" RETURNING id",
		p.Symbol, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume,
		nullableDecimal(p.Bid), nullableDecimal(p.Ask), time.Now(),
	).Scan(&p.ID)

	if err != nil {
		return fmt.Errorf("failed to create price data: %w", err)
	}
	return nil
}

// CreatePriceDataBatch upserts multiple price bars in one transaction
func (db *DB) CreatePriceDataBatch(prices []*models.PriceDataDaily) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertPriceData)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range prices {
		_, err := stmt.Exec(p.Symbol, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume,
			nullableDecimal(p.Bid), nullableDecimal(p.Ask), now)
		if err != nil {
			return fmt.Errorf("failed to insert price data for %s: %w", p.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPriceDataBySymbolAndDate retrieves the bar for a symbol at an exact timestamp
func (db *DB) GetPriceDataBySymbolAndDate(symbol string, date time.Time) (*models.PriceDataDaily, error) {
	query := `SELECT ` + priceDataColumns + `
		FROM price_data_daily
		WHERE symbol = $1 AND date = $2
	`
	p, err := scanPriceData(db.conn.QueryRow(query, symbol, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("price data for %s on %s: %w", symbol, date.Format("2006-01-02"), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get price data: %w", err)
	}
	return p, nil
}

// GetPriceDataRange retrieves bars for a symbol within a date range, oldest first
func (db *DB) GetPriceDataRange(symbol string, r models.TimeRange) ([]*models.PriceDataDaily, error) {
	query := `SELECT ` + priceDataColumns + `
		FROM price_data_daily
		WHERE symbol = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`
	rows, err := db.conn.Query(query, symbol, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("failed to get price data range: %w", err)
	}
	defer rows.Close()

	var prices []*models.PriceDataDaily
	for rows.Next() {
		p, err := scanPriceData(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price data: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price data: %w", err)
	}

	return prices, nil
}

// GetPriceHistory returns the most recent limit bars of a symbol as an
// analysis-ready series sorted by ascending timestamp
func (db *DB) GetPriceHistory(symbol string, limit int) ([]models.PricePoint, error) {
	query := `SELECT ` + priceDataColumns + ` FROM (
			SELECT ` + priceDataColumns + `
			FROM price_data_daily
			WHERE symbol = $1
			ORDER BY date DESC
			LIMIT $2
		) recent
		ORDER BY date ASC
	`
	rows, err := db.conn.Query(query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}
	defer rows.Close()

	var points []models.PricePoint
	for rows.Next() {
		p, err := scanPriceData(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price data: %w", err)
		}
		points = append(points, p.ToPricePoint())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price data: %w", err)
	}

	return points, nil
}

// GetSymbols lists every symbol with stored price data
func (db *DB) GetSymbols() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT symbol FROM price_data_daily ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to get symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// DeletePriceDataBySymbol removes all price data for a symbol
func (db *DB) DeletePriceDataBySymbol(symbol string) error {
	query := `DELETE FROM price_data_daily WHERE symbol = $1`
	_, err := db.conn.Exec(query, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete price data for %s: %w", symbol, err)
	}
	return nil
}

// DeletePriceDataOlderThan removes price data older than a specified date
func (db *DB) DeletePriceDataOlderThan(date time.Time) (int64, error) {
	query := `DELETE FROM price_data_daily WHERE date < $1`
	result, err := db.conn.Exec(query, date)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old price data: %w", err)
	}
	return result.RowsAffected()
}
