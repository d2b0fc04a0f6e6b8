// Package strategy synthesizes counteroffer phrasings from a chosen
// negotiation strategy and the parties' prior amounts.
package strategy

import (
	"fmt"

	"github.com/nirmal141/negotAItion/internal/money"
)

// Strategy is a named rule selecting how a counteroffer amount is derived
// from prior amounts.
type Strategy string

const (
	IncreaseOffer   Strategy = "increase"
	StandFirm       Strategy = "stand_firm"
	SplitDifference Strategy = "split_difference"
	FinalOffer      Strategy = "final_offer"
	WalkAway        Strategy = "walk_away"
)

// All lists every strategy in display order.
var All = []Strategy{IncreaseOffer, StandFirm, SplitDifference, FinalOffer, WalkAway}

// Parse maps a wire identifier to a Strategy.
func Parse(id string) (Strategy, bool) {
	switch Strategy(id) {
	case IncreaseOffer, StandFirm, SplitDifference, FinalOffer, WalkAway:
		return Strategy(id), true
	}
	return "", false
}

// DisplayName returns the human-readable name of the strategy.
func (s Strategy) DisplayName() string {
	switch s {
	case IncreaseOffer:
		return "Increase Offer"
	case StandFirm:
		return "Stand Firm"
	case SplitDifference:
		return "Split the Difference"
	case FinalOffer:
		return "Final Offer"
	case WalkAway:
		return "Threaten to Walk Away"
	}
	return string(s)
}

// Synthesize computes the strategy's target amount and renders it into four
// fixed phrasings. current is the candidate list for the turn; its first
// element's embedded amount is the fallback "current price". buyerLast and
// sellerLast come from the history scanner and may be nil.
//
// When neither the primary rule nor its fallback has the amounts it needs,
// the caller's original candidates are returned unchanged.
func Synthesize(strat Strategy, current []string, buyerLast, sellerLast *money.Amount) []string {
	var cur *money.Amount
	if len(current) > 0 {
		if a, ok := money.Extract(current[0]); ok {
			cur = &a
		}
	}

	switch strat {
	case IncreaseOffer:
		if cur != nil {
			return increaseTemplates(*cur * 1.05)
		}

	case StandFirm:
		// The buyer's own last price wins over whatever the current
		// candidates say.
		if buyerLast != nil {
			return standFirmTemplates(*buyerLast, true)
		}
		if cur != nil {
			return standFirmTemplates(*cur, false)
		}

	case SplitDifference:
		// Both split paths require an uncrossed market; an inverted one
		// falls through to the unmodified candidates.
		if buyerLast != nil && sellerLast != nil && *buyerLast < *sellerLast {
			mid := money.Round((*buyerLast + *sellerLast) / 2)
			return splitTemplates(mid, *sellerLast, *buyerLast)
		}
		if cur != nil && sellerLast != nil && *cur < *sellerLast {
			return splitFallbackTemplates(money.Round((*cur + *sellerLast) / 2))
		}

	case FinalOffer:
		switch {
		case buyerLast != nil && sellerLast != nil && *buyerLast < *sellerLast:
			// 60% of the way from buyer to seller, a bit past the midpoint.
			return finalTemplates(money.Round(*buyerLast + 0.6*(*sellerLast-*buyerLast)))
		case buyerLast != nil:
			return finalTemplates(money.Round(*buyerLast * 1.05))
		case cur != nil:
			return finalTemplates(money.Round(*cur * 1.03))
		}

	case WalkAway:
		if buyerLast != nil {
			return walkAwayTemplates(*buyerLast)
		}
		if cur != nil {
			return walkAwayTemplates(*cur)
		}
	}

	return current
}

func increaseTemplates(a money.Amount) []string {
	p := money.Format(a)
	return []string{
		fmt.Sprintf("I'd like to increase my offer to %s. I believe this is a fair price considering the vehicle's condition.", p),
		fmt.Sprintf("I can go up to %s which is more than my previous offer. This shows my serious interest in the vehicle.", p),
		fmt.Sprintf("Let me improve my offer to %s. I think this is a reasonable step up.", p),
		fmt.Sprintf("I'm willing to raise my offer to %s which I believe is competitive for this market.", p),
	}
}

func standFirmTemplates(a money.Amount, fromBuyer bool) []string {
	p := money.Format(a)
	if fromBuyer {
		return []string{
			fmt.Sprintf("I'm standing firm at my previous offer of %s. I believe this is already a fair price.", p),
			fmt.Sprintf("My offer of %s remains unchanged. I've done my research and this is the market value.", p),
			fmt.Sprintf("I'm not willing to change my offer of %s. This reflects the vehicle's actual value.", p),
			fmt.Sprintf("I'm holding at %s. I believe this is already generous considering comparable vehicles.", p),
		}
	}
	return []string{
		fmt.Sprintf("I'm standing firm at %s. I believe this is already a fair offer.", p),
		fmt.Sprintf("My offer of %s remains unchanged. I've done my research and this is the market value.", p),
		fmt.Sprintf("I'm not willing to change my offer of %s. This is my best offer based on the vehicle's condition.", p),
		fmt.Sprintf("I'm holding at %s. I believe this is already generous considering comparable vehicles.", p),
	}
}

func splitTemplates(mid, seller, buyer money.Amount) []string {
	p := money.Format(mid)
	return []string{
		fmt.Sprintf("Let's meet in the middle at %s. This is a fair compromise between your %s and my %s.", p, money.Format(seller), money.Format(buyer)),
		fmt.Sprintf("I propose we split the difference and settle at %s. This way we both win.", p),
		fmt.Sprintf("How about we compromise at %s? This is exactly halfway between our positions.", p),
		fmt.Sprintf("I suggest %s as a fair middle ground between your asking price and my offer.", p),
	}
}

func splitFallbackTemplates(mid money.Amount) []string {
	p := money.Format(mid)
	return []string{
		fmt.Sprintf("Let's meet in the middle at %s. This is a fair compromise for both of us.", p),
		fmt.Sprintf("I propose we split the difference and settle at %s. This way we both win.", p),
		fmt.Sprintf("How about we compromise at %s? This is exactly halfway between our positions.", p),
		fmt.Sprintf("I suggest %s as a fair middle ground between your asking price and my offer.", p),
	}
}

func finalTemplates(a money.Amount) []string {
	p := money.Format(a)
	return []string{
		fmt.Sprintf("This is my final offer: %s. I cannot go any higher than this.", p),
		fmt.Sprintf("%s is absolutely my final offer. I'll have to walk away if we can't agree on this price.", p),
		fmt.Sprintf("I'm making my final offer of %s. This is the absolute maximum I can pay.", p),
		fmt.Sprintf("My final and best offer is %s. I hope we can close the deal at this price.", p),
	}
}

func walkAwayTemplates(a money.Amount) []string {
	p := money.Format(a)
	return []string{
		fmt.Sprintf("I'm prepared to walk away if we can't agree on %s. There are other options available to me.", p),
		fmt.Sprintf("If we can't reach an agreement at %s, I'll unfortunately need to look elsewhere.", p),
		fmt.Sprintf("%s is my offer, and I'm ready to walk away if needed. I've seen similar vehicles for less.", p),
		fmt.Sprintf("I have other options if we can't agree on %s. I hope we can make this work, but I'm prepared to move on.", p),
	}
}
