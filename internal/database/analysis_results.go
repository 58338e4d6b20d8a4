package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/market-analytics/internal/models"
)

const analysisColumns = `id, symbol, computed_at, recommendation, confidence, volatility,
	sharpe_ratio, max_drawdown, beta, indicator_count, bar_count, created_at`

func scanAnalysis(row rowScanner) (*models.AnalysisRecord, error) {
	var r models.AnalysisRecord
	var sharpe, beta decimal.NullDecimal

	err := row.Scan(
		&r.ID, &r.Symbol, &r.ComputedAt, &r.Recommendation, &r.Confidence, &r.Volatility,
		&sharpe, &r.MaxDrawdown, &beta, &r.IndicatorCount, &r.BarCount, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sharpe.Valid {
		r.SharpeRatio = &sharpe.Decimal
	}
	if beta.Valid {
		r.Beta = &beta.Decimal
	}
	return &r, nil
}

// SaveAnalysisResult stores the summary of an analysis run and fills in its ID
func (db *DB) SaveAnalysisResult(r *models.AnalysisRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	query := `
		INSERT INTO analysis_results (id, symbol, computed_at, recommendation, confidence, volatility,
			sharpe_ratio, max_drawdown, beta, indicator_count, bar_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`
	err := db.conn.QueryRow(query,
		r.ID, r.Symbol, r.ComputedAt, r.Recommendation, r.Confidence, r.Volatility,
		nullableDecimal(r.SharpeRatio), r.MaxDrawdown, nullableDecimal(r.Beta),
		r.IndicatorCount, r.BarCount, time.Now(),
	).Scan(&r.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save analysis result: %w", err)
	}
	return nil
}

// GetLatestAnalysis retrieves the most recent stored analysis for a symbol
func (db *DB) GetLatestAnalysis(symbol string) (*models.AnalysisRecord, error) {
	query := `SELECT ` + analysisColumns + `
		FROM analysis_results
		WHERE symbol = $1
		ORDER BY computed_at DESC
		LIMIT 1
	`
	r, err := scanAnalysis(db.conn.QueryRow(query, symbol))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis for %s: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest analysis: %w", err)
	}
	return r, nil
}

// GetAnalysisHistory retrieves stored analyses for a symbol, newest first
func (db *DB) GetAnalysisHistory(symbol string, limit int) ([]*models.AnalysisRecord, error) {
	query := `SELECT ` + analysisColumns + `
		FROM analysis_results
		WHERE symbol = $1
		ORDER BY computed_at DESC
		LIMIT $2
	`
	rows, err := db.conn.Query(query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis history: %w", err)
	}
	defer rows.Close()

	var records []*models.AnalysisRecord
	for rows.Next() {
		r, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}
	return records, nil
}
