// Package progress derives the displayed completion signal of a negotiation
// and classifies scores into qualitative bands.
package progress

import (
	"math"

	"github.com/nirmal141/negotAItion/internal/session"
)

// Band is the qualitative reading of a 0-100 score.
type Band string

const (
	BandGood             Band = "Good"
	BandFair             Band = "Fair"
	BandNeedsImprovement Band = "Needs Improvement"
)

// Tone is the display palette for a band. The same palette colors both the
// progress bar and per-strategy effectiveness.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
)

// Score returns the session's completion score. An agreed price forces 100;
// otherwise the service-supplied score is used verbatim.
func Score(s *session.Session) int {
	if s.Terminal() {
		return 100
	}
	return s.ProgressScore
}

// BandOf classifies a score.
func BandOf(score int) Band {
	switch {
	case score >= 70:
		return BandGood
	case score >= 40:
		return BandFair
	default:
		return BandNeedsImprovement
	}
}

// ToneOf returns the palette entry for a score.
func ToneOf(score int) Tone {
	switch {
	case score >= 70:
		return ToneSuccess
	case score >= 40:
		return ToneWarning
	default:
		return ToneDanger
	}
}

// Effectiveness expresses how often a strategy advanced the negotiation, as a
// whole percentage. A never-used strategy scores zero.
func Effectiveness(st session.StrategyStats) int {
	if st.Used == 0 {
		return 0
	}
	return int(math.Round(float64(st.Effective) / float64(st.Used) * 100))
}
