package model

import "strings"

// NormalizeSymbol canonicalizes an instrument identifier. Symbols are the
// join key between snapshot positions, the subscription registry, and the
// quote store, so every boundary normalizes before use.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
