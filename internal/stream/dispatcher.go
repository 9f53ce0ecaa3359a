package stream

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"streamfolio/internal/model"
	"streamfolio/pkg/exception"
)

// Event is a decoded inbound frame.
type Event interface {
	eventKind() string
}

// ConnectedEvent acknowledges the session; informational only.
type ConnectedEvent struct {
	ClientID string
}

// SubscribedEvent acknowledges a subscribe request; informational only.
type SubscribedEvent struct {
	Ticker string
}

// PriceUpdateEvent carries a live quote. It is the only event kind that
// mutates the quote store.
type PriceUpdateEvent struct {
	Ticker        string
	Price         decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
	Bid           decimal.Decimal
	Ask           decimal.Decimal
	Source        string
	Timestamp     int64
}

// UnknownEvent is a well-formed frame of an unrecognized kind; ignored.
type UnknownEvent struct {
	Type string
}

func (ConnectedEvent) eventKind() string   { return eventConnected }
func (SubscribedEvent) eventKind() string  { return eventSubscribed }
func (PriceUpdateEvent) eventKind() string { return eventPriceUpdate }
func (e UnknownEvent) eventKind() string   { return e.Type }

// Quote converts the update into the stored quote shape. Timestamps are epoch
// milliseconds on the wire; zero means the receive time stands in.
func (e PriceUpdateEvent) Quote() model.Quote {
	var observed time.Time
	if e.Timestamp > 0 {
		observed = time.UnixMilli(e.Timestamp)
	}
	return model.Quote{
		Symbol:        e.Ticker,
		Price:         e.Price,
		Bid:           e.Bid,
		Ask:           e.Ask,
		ChangeAbs:     e.Change,
		ChangePercent: e.ChangePercent,
		Source:        e.Source,
		ObservedAt:    observed,
	}
}

// Decode turns a raw inbound frame into a typed event. Parse failures and
// frames without a type come back as exception.ErrMalformedFrame; callers
// log and drop them so the receive path never sees a failure.
func Decode(raw []byte) (Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.Wrap(exception.ErrMalformedFrame, err.Error())
	}
	if envelope.Type == "" {
		return nil, errors.Wrap(exception.ErrMalformedFrame, "missing type")
	}

	switch envelope.Type {
	case eventConnected:
		var msg struct {
			ClientID string `json:"client_id"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, errors.Wrap(exception.ErrMalformedFrame, err.Error())
		}
		return ConnectedEvent{ClientID: msg.ClientID}, nil

	case eventSubscribed:
		var msg struct {
			Ticker string `json:"ticker"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, errors.Wrap(exception.ErrMalformedFrame, err.Error())
		}
		return SubscribedEvent{Ticker: model.NormalizeSymbol(msg.Ticker)}, nil

	case eventPriceUpdate:
		var msg struct {
			Ticker        string          `json:"ticker"`
			Price         decimal.Decimal `json:"price"`
			Change        decimal.Decimal `json:"change"`
			ChangePercent decimal.Decimal `json:"change_percent"`
			Bid           decimal.Decimal `json:"bid"`
			Ask           decimal.Decimal `json:"ask"`
			Source        string          `json:"source"`
			Timestamp     int64           `json:"timestamp"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, errors.Wrap(exception.ErrMalformedFrame, err.Error())
		}
		if msg.Ticker == "" {
			return nil, errors.Wrap(exception.ErrMalformedFrame, "price_update missing ticker")
		}
		return PriceUpdateEvent{
			Ticker:        model.NormalizeSymbol(msg.Ticker),
			Price:         msg.Price,
			Change:        msg.Change,
			ChangePercent: msg.ChangePercent,
			Bid:           msg.Bid,
			Ask:           msg.Ask,
			Source:        msg.Source,
			Timestamp:     msg.Timestamp,
		}, nil

	default:
		return UnknownEvent{Type: envelope.Type}, nil
	}
}
