package negotiator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/nirmal141/negotAItion/internal/money"
	"github.com/nirmal141/negotAItion/internal/session"
)

// sellerReply simulates the seller's answer to the buyer's latest offer. The
// buyer's entry is already part of the session history at this point.
func (n *Negotiator) sellerReply(ctx context.Context, sess *session.Session, buyerOffer string) (string, error) {
	return n.complete(ctx, n.sellerPrompt(sess, buyerOffer), 1000)
}

func (n *Negotiator) sellerPrompt(sess *session.Session, buyerOffer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an experienced car seller in a negotiation. The current negotiation history is:\n%s\n\nThe buyer just said: '%s'\n", transcript(sess), buyerOffer)

	buyerPrice, hasBuyerPrice := money.Extract(buyerOffer)
	if hasBuyerPrice {
		fmt.Fprintf(&b, "\nThe buyer's current offer is: %s\n", money.Format(buyerPrice))
	}

	buyerPrices := sess.AmountsBy(session.PartyBuyer)
	if standingFirm(buyerPrices) {
		b.WriteString("\nNote: The buyer is standing firm on their previous offer.\n")
	}

	minimum := n.sellerMinimum(sess)
	if hasBuyerPrice && buyerPrice < minimum {
		fmt.Fprintf(&b, "\nIMPORTANT: Your minimum acceptable price is %s. You cannot accept anything lower than this.\n", money.Format(minimum))
	}

	if len(buyerPrices) > 0 {
		fmt.Fprintf(&b, "\nNegotiation statistics:\n")
		fmt.Fprintf(&b, "- Buyer's first offer: %s\n", money.Format(buyerPrices[0]))
		fmt.Fprintf(&b, "- Buyer's latest offer: %s\n", money.Format(buyerPrices[len(buyerPrices)-1]))
		fmt.Fprintf(&b, "- Buyer's price trend: %s\n", trend(buyerPrices))
		fmt.Fprintf(&b, "- Number of offers exchanged: %d\n", len(sess.History)/2)
	}

	b.WriteString(`
Generate a realistic response as the seller. Your response should:
1. Be a single paragraph
2. Consider the negotiation history and buyer's behavior
3. Include a specific counter-offer price if you're not accepting
4. Be firm but professional

If the buyer is standing firm below your minimum acceptable price, clearly communicate your minimum price.
If the buyer's offer is good (at or above your minimum), consider accepting it.
If you're making a counter-offer, include a specific dollar amount.
If you have already stated a minimum price and the buyer is still below it, be firm but polite in rejecting.`)
	return b.String()
}

// sellerMinimum is the stated floor when the seller has given one, otherwise
// the configured minimum of the simulated seller.
func (n *Negotiator) sellerMinimum(sess *session.Session) money.Amount {
	if sess.SellerMinimum != nil {
		return *sess.SellerMinimum
	}
	return money.Amount(n.cfg.MinPrice)
}

// standingFirm reports whether the buyer's newest price repeats the previous
// one. The newest price is the offer currently on the table.
func standingFirm(buyerPrices []money.Amount) bool {
	if len(buyerPrices) < 2 {
		return false
	}
	last := buyerPrices[len(buyerPrices)-1]
	prev := buyerPrices[len(buyerPrices)-2]
	return math.Abs(float64(last-prev)) < 0.01
}

func trend(prices []money.Amount) string {
	if len(prices) < 2 {
		return "unknown"
	}
	switch {
	case prices[len(prices)-1] > prices[0]:
		return "increasing"
	case prices[len(prices)-1] < prices[0]:
		return "decreasing"
	default:
		return "stable"
	}
}
