package model

import "github.com/shopspring/decimal"

// Position is one holding inside a point-in-time portfolio snapshot. It is
// owned by the portfolio collaborator and read-only here; quantity and
// average price are immutable for the lifetime of a snapshot.
type Position struct {
	Symbol              string          `json:"symbol"`
	Quantity            decimal.Decimal `json:"quantity"`
	AveragePrice        decimal.Decimal `json:"average_price"`
	Currency            string          `json:"currency"`
	SnapshotPrice       decimal.Decimal `json:"snapshot_price"`
	SnapshotMarketValue decimal.Decimal `json:"snapshot_market_value"`
}

// CostBasis is average price times quantity.
func (p Position) CostBasis() decimal.Decimal {
	return p.AveragePrice.Mul(p.Quantity)
}
