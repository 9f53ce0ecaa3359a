package valuation

import (
	"github.com/shopspring/decimal"

	"streamfolio/internal/model"
	"streamfolio/internal/model/enum"
)

// QuoteSource reads the latest known quote per symbol.
type QuoteSource interface {
	Get(symbol string) (model.Quote, bool)
}

// SymbolSet reports subscription membership.
type SymbolSet interface {
	Contains(symbol string) bool
}

var hundred = decimal.NewFromInt(100)

// Revalue overlays live quotes onto a portfolio snapshot and derives market
// value and P&L per position plus the aggregate. It is a pure function of
// its inputs, safe to call on every quote update or snapshot refresh; the
// aggregate always equals the sum of the per-position rows.
func Revalue(positions []model.Position, quotes QuoteSource, subscribed SymbolSet) model.Valuation {
	rows := make([]model.ValuationRow, 0, len(positions))
	aggregate := model.AggregateValuation{
		MarketValue: decimal.Zero,
		CostBasis:   decimal.Zero,
		PnL:         decimal.Zero,
		PnLPercent:  decimal.Zero,
	}

	for _, position := range positions {
		row := revaluePosition(position, quotes, subscribed)
		aggregate.MarketValue = aggregate.MarketValue.Add(row.MarketValue)
		aggregate.CostBasis = aggregate.CostBasis.Add(row.CostBasis)
		aggregate.PnL = aggregate.PnL.Add(row.PnL)
		rows = append(rows, row)
	}

	if aggregate.CostBasis.IsPositive() {
		aggregate.PnLPercent = aggregate.PnL.Div(aggregate.CostBasis).Mul(hundred)
	}
	return model.Valuation{PerPosition: rows, Aggregate: aggregate}
}

func revaluePosition(position model.Position, quotes QuoteSource, subscribed SymbolSet) model.ValuationRow {
	symbol := model.NormalizeSymbol(position.Symbol)

	effectivePrice := position.SnapshotPrice
	provenance := enum.ProvenanceSnapshotOnly
	if q, ok := quotes.Get(symbol); ok {
		effectivePrice = q.Price
		provenance = enum.ProvenanceLive
	} else if subscribed != nil && subscribed.Contains(symbol) {
		provenance = enum.ProvenanceSubscribedNoQuote
	}

	marketValue := effectivePrice.Mul(position.Quantity)
	costBasis := position.CostBasis()
	pnl := marketValue.Sub(costBasis)
	pnlPercent := decimal.Zero
	if costBasis.IsPositive() {
		pnlPercent = pnl.Div(costBasis).Mul(hundred)
	}

	return model.ValuationRow{
		Symbol:         symbol,
		Currency:       position.Currency,
		Quantity:       position.Quantity,
		EffectivePrice: effectivePrice,
		MarketValue:    marketValue,
		CostBasis:      costBasis,
		PnL:            pnl,
		PnLPercent:     pnlPercent,
		Provenance:     provenance,
	}
}
