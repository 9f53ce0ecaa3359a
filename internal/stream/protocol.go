package stream

import (
	"encoding/json"

	"github.com/yanun0323/errors"
)

// Event kinds on the price-update channel.
const (
	eventConnected   = "connected"
	eventSubscribed  = "subscribed"
	eventPriceUpdate = "price_update"

	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
)

type controlRequest struct {
	Type   string `json:"type"`
	Ticker string `json:"ticker"`
}

func encodeSubscribe(symbol string) ([]byte, error) {
	payload, err := json.Marshal(controlRequest{Type: actionSubscribe, Ticker: symbol})
	if err != nil {
		return nil, errors.Wrap(err, "marshal subscribe request")
	}
	return payload, nil
}

func encodeUnsubscribe(symbol string) ([]byte, error) {
	payload, err := json.Marshal(controlRequest{Type: actionUnsubscribe, Ticker: symbol})
	if err != nil {
		return nil, errors.Wrap(err, "marshal unsubscribe request")
	}
	return payload, nil
}
