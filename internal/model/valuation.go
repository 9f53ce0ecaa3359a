package model

import (
	"github.com/shopspring/decimal"

	"streamfolio/internal/model/enum"
)

// ValuationRow is the derived live valuation of a single position.
type ValuationRow struct {
	Symbol         string
	Currency       string
	Quantity       decimal.Decimal
	EffectivePrice decimal.Decimal
	MarketValue    decimal.Decimal
	CostBasis      decimal.Decimal
	PnL            decimal.Decimal
	PnLPercent     decimal.Decimal
	Provenance     enum.PriceProvenance
}

// AggregateValuation sums the per-position rows. It is derived output, never
// independently tracked state.
type AggregateValuation struct {
	MarketValue decimal.Decimal
	CostBasis   decimal.Decimal
	PnL         decimal.Decimal
	PnLPercent  decimal.Decimal
}

// Valuation is the full output of one revaluation pass.
type Valuation struct {
	PerPosition []ValuationRow
	Aggregate   AggregateValuation
}
