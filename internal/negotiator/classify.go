package negotiator

import (
	"context"
	"strings"

	"github.com/nirmal141/negotAItion/internal/logger"
	"github.com/nirmal141/negotAItion/internal/money"
)

// Classification is the negotiator's reading of a seller reply.
type Classification string

const (
	ClassAccept       Classification = "accept"
	ClassCounterOffer Classification = "counter-offer"
	ClassReject       Classification = "reject"
)

var acceptancePhrases = []string{
	"accept", "agreed", "deal", "sold", "you got it",
	"we have a deal", "i'll take it", "that works",
}

var rejectionPhrases = []string{
	"cannot go below", "can't go below", "can't go any lower",
	"won't go below", "won't accept less than", "minimum is",
	"lowest i can go", "bottom line is", "absolute bottom line",
	"can't accept", "cannot accept", "won't accept", "don't accept",
	"reject", "decline", "not acceptable", "too low",
	"can't do that", "cannot do that", "won't do that",
}

// floorPhrases are the rejections that state an explicit price floor.
var floorPhrases = []string{
	"cannot go below", "can't go below", "can't go any lower",
	"won't go below", "won't accept less than", "minimum is",
	"lowest i can go", "bottom line is", "absolute bottom line",
}

// classify decides whether the seller accepted, countered or rejected.
// Phrase matching handles the clear cases; ambiguous replies are sent back to
// the LLM for a one-word verdict.
func (n *Negotiator) classify(ctx context.Context, reply, buyerOffer string) (Classification, error) {
	lower := strings.ToLower(reply)
	_, hasSellerPrice := money.Extract(reply)
	buyerPrice, hasBuyerPrice := money.Extract(buyerOffer)

	hasAcceptance := containsAny(lower, acceptancePhrases)
	hasRejection := containsAny(lower, rejectionPhrases)
	// Conflicting signals: the rejection language wins.
	if hasAcceptance && hasRejection {
		hasAcceptance = false
	}

	floor, hasFloor := constraintPrice(reply)

	switch {
	case hasFloor && hasBuyerPrice && floor > buyerPrice:
		return ClassReject, nil
	case hasRejection && !hasAcceptance:
		return ClassReject, nil
	case hasAcceptance:
		return ClassAccept, nil
	case hasSellerPrice && !hasFloor:
		return ClassCounterOffer, nil
	}

	return n.classifyWithLLM(ctx, reply, buyerOffer)
}

func (n *Negotiator) classifyWithLLM(ctx context.Context, reply, buyerOffer string) (Classification, error) {
	prompt := "Given the buyer's offer: '" + buyerOffer + "'\nAnd the seller's response: '" + reply + `'

IMPORTANT: Pay careful attention to any language indicating the seller won't go below a certain price.

Classify the seller's response as exactly one of these:
- 'accept' (seller agrees to the buyer's price)
- 'counter-offer' (seller proposes a different price)
- 'reject' (seller rejects without a specific counter-offer or states they can't go below a price higher than the buyer's offer)

If the seller states they cannot go below a certain price that is HIGHER than what the buyer offered, this should be classified as 'reject'.

Return only the classification word.`

	out, err := n.complete(ctx, prompt, 20)
	if err != nil {
		return "", err
	}
	verdict := strings.ToLower(strings.TrimSpace(out))
	switch {
	case strings.Contains(verdict, "counter"):
		return ClassCounterOffer, nil
	case strings.Contains(verdict, "accept"):
		return ClassAccept, nil
	case strings.Contains(verdict, "reject"):
		return ClassReject, nil
	}
	logger.L.Warn("unrecognized classification verdict", "verdict", verdict)
	return ClassReject, nil
}

// floorWindow is how far past a floor phrase the price may appear, counted in
// characters.
const floorWindow = 50

// constraintPrice finds a price floor stated in a rejection, scanning a short
// window after the first floor phrase that appears. The scan stays entirely on
// the lowered text: lowering can change rune byte lengths, so offsets found in
// it must never be used to slice the original reply. Dollar amounts are
// unaffected by lowering.
func constraintPrice(reply string) (money.Amount, bool) {
	lower := strings.ToLower(reply)
	for _, phrase := range floorPhrases {
		idx := strings.Index(lower, phrase)
		if idx < 0 {
			continue
		}
		window := lower[idx+len(phrase):]
		if runes := []rune(window); len(runes) > floorWindow {
			window = string(runes[:floorWindow])
		}
		if a, ok := money.Extract(window); ok {
			return a, true
		}
	}
	return 0, false
}

func containsAny(haystack string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(haystack, p) {
			return true
		}
	}
	return false
}
