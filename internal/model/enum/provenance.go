package enum

// PriceProvenance records where a valuation row's effective price came from.
type PriceProvenance uint8

const (
	// ProvenanceSnapshotOnly means the symbol is not subscribed; the snapshot
	// price is the only price available.
	ProvenanceSnapshotOnly PriceProvenance = iota
	// ProvenanceSubscribedNoQuote means the symbol is subscribed but no live
	// quote has arrived yet.
	ProvenanceSubscribedNoQuote
	// ProvenanceLive means a live quote backs the effective price.
	ProvenanceLive
)

func (p PriceProvenance) String() string {
	switch p {
	case ProvenanceLive:
		return "live"
	case ProvenanceSubscribedNoQuote:
		return "subscribed-no-quote"
	default:
		return "snapshot-only"
	}
}
