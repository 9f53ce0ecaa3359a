package exception

import "errors"

// Stream errors
var (
	ErrMalformedFrame = errors.New("stream: malformed frame")
	ErrEmptySymbol    = errors.New("stream: empty symbol")
)
