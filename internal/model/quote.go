package model

import (
	"time"

	"github.com/shopspring/decimal"

	"streamfolio/internal/model/enum"
)

// Quote is the latest known price for a symbol. Quotes are transient and
// fully replaced on each update; only the previous price survives long
// enough to derive the tick direction.
type Quote struct {
	Symbol        string
	Price         decimal.Decimal
	Bid           decimal.Decimal
	Ask           decimal.Decimal
	ChangeAbs     decimal.Decimal
	ChangePercent decimal.Decimal
	Source        string
	ObservedAt    time.Time
	Direction     enum.Direction
}
