package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceDataDaily represents a stored OHLCV bar for a stock
type PriceDataDaily struct {
	ID        int              `json:"id"`
	Symbol    string           `json:"symbol"`
	Date      time.Time        `json:"date"`
	Open      decimal.Decimal  `json:"open"`
	High      decimal.Decimal  `json:"high"`
	Low       decimal.Decimal  `json:"low"`
	Close     decimal.Decimal  `json:"close"`
	Volume    int64            `json:"volume"`
	Bid       *decimal.Decimal `json:"bid,omitempty"`
	Ask       *decimal.Decimal `json:"ask,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// PriceDataFromPoint converts an observation into a storable bar.
// Missing open/high/low fall back to the observation price.
func PriceDataFromPoint(p PricePoint) *PriceDataDaily {
	price := decimal.NewFromFloat(p.Price)
	row := &PriceDataDaily{
		Symbol: p.Symbol,
		Date:   p.Timestamp,
		Open:   orPrice(p.Open, price),
		High:   orPrice(p.High, price),
		Low:    orPrice(p.Low, price),
		Close:  price,
		Volume: int64(p.Volume),
	}
	if p.Bid != nil {
		bid := decimal.NewFromFloat(*p.Bid)
		row.Bid = &bid
	}
	if p.Ask != nil {
		ask := decimal.NewFromFloat(*p.Ask)
		row.Ask = &ask
	}
	return row
}

// ToPricePoint converts a stored bar back into an observation for analysis
func (p *PriceDataDaily) ToPricePoint() PricePoint {
	open, _ := p.Open.Float64()
	high, _ := p.High.Float64()
	low, _ := p.Low.Float64()
	closePrice, _ := p.Close.Float64()

	point := NewOHLCVPoint(p.Symbol, p.Date, open, high, low, closePrice, uint64(max(p.Volume, 0)))
	if p.Bid != nil {
		bid, _ := p.Bid.Float64()
		point.Bid = &bid
	}
	if p.Ask != nil {
		ask, _ := p.Ask.Float64()
		point.Ask = &ask
	}
	return point
}

func orPrice(v *float64, price decimal.Decimal) decimal.Decimal {
	if v == nil {
		return price
	}
	return decimal.NewFromFloat(*v)
}
