package negotiator

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/nirmal141/negotAItion/internal/money"
	"github.com/nirmal141/negotAItion/internal/session"
)

// generateOffers asks the LLM for the buyer's next candidate offers. The
// reply is expected as a numbered list; if nothing parseable comes back, a
// fixed fallback set is used so the caller always has at least one option.
func (n *Negotiator) generateOffers(ctx context.Context, sess *session.Session) ([]string, error) {
	out, err := n.complete(ctx, n.offerPrompt(sess), 1000)
	if err != nil {
		return nil, err
	}
	offers := parseNumberedLines(out)
	if len(offers) == 0 {
		offers = n.fallbackOffers(sess)
	}
	if len(offers) > n.cfg.OffersPerTurn {
		offers = offers[:n.cfg.OffersPerTurn]
	}
	return offers, nil
}

func (n *Negotiator) offerPrompt(sess *session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert negotiator helping a buyer purchase a car. The current negotiation history is:\n%s\n\n", transcript(sess))

	if s := sess.Sentiment; s != nil {
		fmt.Fprintf(&b, "Analysis of the seller's last response:\n")
		fmt.Fprintf(&b, "- Positivity: %.0f/10\n", s.Positivity)
		fmt.Fprintf(&b, "- Openness to negotiation: %.0f/10\n", s.Openness)
		fmt.Fprintf(&b, "- Firmness on position: %.0f/10\n", s.Firmness)
		fmt.Fprintf(&b, "- Flexibility: %.0f/10\n\n", s.Flexibility)
	}

	if sess.SellerMinimum != nil {
		fmt.Fprintf(&b, "IMPORTANT: The seller has clearly stated they cannot go below %s. Your generated offers should acknowledge this constraint.\n\n", money.Format(*sess.SellerMinimum))
	}

	fmt.Fprintf(&b, "Generate exactly %d possible strategic offers the buyer can make next.\n\n", n.cfg.OffersPerTurn)

	buyerLast, hasBuyerLast := sess.LastAmountBy(session.PartyBuyer)
	if hasBuyerLast {
		fmt.Fprintf(&b, "IMPORTANT: One of the options MUST be to stand firm on the previous offer of %s.\n\n", money.Format(buyerLast))
	}
	if sess.SellerMinimum != nil && hasBuyerLast && buyerLast < *sess.SellerMinimum {
		fmt.Fprintf(&b, "IMPORTANT: Since the seller won't go below %s and the buyer's last offer was %s, include at least one option that acknowledges this price gap and tries to meet the seller's minimum or find a creative compromise (such as asking for additional features, warranty, etc. at the higher price).\n\n",
			money.Format(*sess.SellerMinimum), money.Format(buyerLast))
	}

	b.WriteString(`Each offer should:
1. Include a specific price in dollars
2. Be a natural, persuasive sentence
3. Use a different negotiation tactic
4. Consider the seller's previous responses

Format your response exactly like this:

1. [First offer with specific price]
2. [Second offer with specific price]
3. [Third offer with specific price]
4. [Fourth offer with specific price]

Make sure each offer includes a specific dollar amount.`)
	return b.String()
}

// fallbackOffers is the degraded candidate set when LLM output is unusable.
func (n *Negotiator) fallbackOffers(sess *session.Session) []string {
	offers := []string{"I would like to offer $20,000 for the car."}
	if last, ok := sess.LastAmountBy(session.PartyBuyer); ok {
		offers = append(offers, fmt.Sprintf("I'm standing firm at my offer of %s.", money.Format(last)))
	}
	return offers
}

// parseNumberedLines pulls "1. offer text" style lines out of an LLM reply.
func parseNumberedLines(out string) []string {
	var offers []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !unicode.IsDigit(rune(line[0])) {
			continue
		}
		_, rest, found := strings.Cut(line, ". ")
		if !found {
			continue
		}
		offers = append(offers, strings.TrimSpace(rest))
	}
	return offers
}

// transcript renders the history the way the prompts expect it.
func transcript(sess *session.Session) string {
	var b strings.Builder
	for i, e := range sess.History {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", e.Party, e.Text)
	}
	return b.String()
}
