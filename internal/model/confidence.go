package model

// Confidence grades how much trust a derived metric deserves given the
// provenance of its inputs.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// confidenceRank orders confidence levels; lower is weaker.
var confidenceRank = map[Confidence]int{
	ConfidenceLow:    0,
	ConfidenceMedium: 1,
	ConfidenceHigh:   2,
}

// Rank returns the numeric position of c in the confidence order.
// Unknown levels rank below low.
func (c Confidence) Rank() int {
	r, ok := confidenceRank[c]
	if !ok {
		return -1
	}
	return r
}

// WeakerThan reports whether c ranks strictly below other.
func (c Confidence) WeakerThan(other Confidence) bool {
	return c.Rank() < other.Rank()
}

// Weakest returns the lowest-ranked of the given levels. It returns
// ConfidenceHigh when called with no arguments so it can seed a fold.
func Weakest(levels ...Confidence) Confidence {
	out := ConfidenceHigh
	for _, l := range levels {
		if l.WeakerThan(out) {
			out = l
		}
	}
	return out
}

// ConfidenceFromSources derives a confidence level from the provenance
// tags of the inputs feeding a metric. Any defaulted input caps the level
// at low; a majority of inferred over explicit caps it at medium. Tags
// that are not recognized count as defaulted.
func ConfidenceFromSources(sources ...Source) Confidence {
	var explicit, inferred int
	for _, s := range sources {
		switch s {
		case SourceExplicit:
			explicit++
		case SourceInferred:
			inferred++
		default:
			return ConfidenceLow
		}
	}
	if inferred > explicit {
		return ConfidenceMedium
	}
	return ConfidenceHigh
}
