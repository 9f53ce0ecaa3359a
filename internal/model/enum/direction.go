package enum

// Direction is the short-lived tick direction of a quote relative to the
// previously stored price for the same symbol.
type Direction uint8

const (
	DirectionNone Direction = iota
	DirectionUp
	DirectionDown
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "none"
	}
}
