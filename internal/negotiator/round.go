package negotiator

import (
	"context"
	"fmt"
	"math"

	"github.com/qmuntal/stateless"

	"github.com/nirmal141/negotAItion/internal/logger"
	"github.com/nirmal141/negotAItion/internal/money"
	"github.com/nirmal141/negotAItion/internal/session"
	"github.com/nirmal141/negotAItion/internal/strategy"
)

// Round FSM states and triggers. One offer submission walks the machine from
// Submitted to Done; any collaborator failure lands in Failed and leaves the
// caller's session untouched.
var (
	stateSubmitted   stateless.State = "Submitted"
	stateSellerTurn  stateless.State = "SellerTurn"
	stateClassifying stateless.State = "Classifying"
	stateUpdating    stateless.State = "UpdatingSession"
	stateDone        stateless.State = "Done"
	stateFailed      stateless.State = "Failed"

	triggerOfferSent     stateless.Trigger = "OfferSent"
	triggerSellerReplied stateless.Trigger = "SellerReplied"
	triggerClassified    stateless.Trigger = "Classified"
	triggerUpdated       stateless.Trigger = "SessionUpdated"
	triggerFailed        stateless.Trigger = "Failed"
)

type roundContext struct {
	reply string
	class Classification
	err   error
}

// Round plays one negotiation round: the buyer's chosen offer goes into the
// history, the simulated seller answers, the answer is classified and the
// session state, metrics, sentiment and candidate offers are refreshed.
//
// The passed session is never mutated; the updated copy is returned. On
// error the caller keeps its session exactly as it was.
func (n *Negotiator) Round(ctx context.Context, sess *session.Session, req Request) (*session.Session, error) {
	if sess.Terminal() {
		return nil, ErrTerminal
	}
	if req.OfferIndex < 0 || req.OfferIndex >= len(sess.AvailableOffers) {
		return nil, ErrInvalidOfferIndex
	}
	var strat strategy.Strategy
	if req.Strategy != "" {
		s, ok := strategy.Parse(req.Strategy)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, req.Strategy)
		}
		strat = s
	}

	work := sess.Clone()

	chosen := req.OfferText
	if chosen == "" {
		chosen = work.AvailableOffers[req.OfferIndex]
	}

	if req.ExplicitPrice != nil {
		if strat == strategy.StandFirm {
			// Standing firm means the buyer's own last price, no matter what
			// the chosen phrasing happened to say.
			if last, ok := work.LastAmountBy(session.PartyBuyer); ok {
				chosen = money.Rewrite(chosen, last)
				work.UpdateOffer(last)
			} else {
				work.UpdateOffer(*req.ExplicitPrice)
			}
		} else {
			work.UpdateOffer(*req.ExplicitPrice)
		}
	}

	if strat != "" {
		work.RecordStrategyUse(string(strat))
	}
	work.Append(session.PartyBuyer, chosen)

	rc := &roundContext{}
	fsm := stateless.NewStateMachine(stateSubmitted)

	fsm.Configure(stateSubmitted).
		Permit(triggerOfferSent, stateSellerTurn)

	fsm.Configure(stateSellerTurn).
		OnEntry(func(c context.Context, _ ...any) error {
			reply, err := n.sellerReply(c, work, chosen)
			if err != nil {
				rc.err = err
				return fsm.FireCtx(c, triggerFailed)
			}
			rc.reply = reply
			return fsm.FireCtx(c, triggerSellerReplied)
		}).
		Permit(triggerSellerReplied, stateClassifying).
		Permit(triggerFailed, stateFailed)

	fsm.Configure(stateClassifying).
		OnEntry(func(c context.Context, _ ...any) error {
			class, err := n.classify(c, rc.reply, chosen)
			if err != nil {
				rc.err = err
				return fsm.FireCtx(c, triggerFailed)
			}
			rc.class = class
			return fsm.FireCtx(c, triggerClassified)
		}).
		Permit(triggerClassified, stateUpdating).
		Permit(triggerFailed, stateFailed)

	fsm.Configure(stateUpdating).
		OnEntry(func(c context.Context, _ ...any) error {
			n.applyRound(c, work, strat, chosen, rc.reply, rc.class)
			return fsm.FireCtx(c, triggerUpdated)
		}).
		Permit(triggerUpdated, stateDone).
		Permit(triggerFailed, stateFailed)

	if err := fsm.FireCtx(ctx, triggerOfferSent); err != nil {
		return nil, fmt.Errorf("round fsm: %w", err)
	}

	st, err := fsm.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("round fsm state: %w", err)
	}
	if st == stateDone {
		logger.L.Info("round completed", "id", work.ID, "classification", rc.class, "rounds", work.Metrics.Rounds)
		return work, nil
	}
	if rc.err != nil {
		return nil, rc.err
	}
	return nil, fmt.Errorf("round ended in unexpected state: %v", st)
}

// applyRound folds the classified seller reply back into the session.
func (n *Negotiator) applyRound(ctx context.Context, work *session.Session, strat strategy.Strategy, chosen, reply string, class Classification) {
	work.Append(session.PartySeller, reply)

	buyerPrice, hasBuyerPrice := money.Extract(chosen)
	if !hasBuyerPrice {
		buyerPrice, hasBuyerPrice = work.LastAmountBy(session.PartyBuyer)
	}
	sellerPrice, hasSellerPrice := money.Extract(reply)

	switch class {
	case ClassAccept:
		switch {
		case hasBuyerPrice:
			work.SetAgreedPrice(buyerPrice)
		case hasSellerPrice:
			work.SetAgreedPrice(sellerPrice)
		case work.CurrentOffer != nil:
			work.SetAgreedPrice(*work.CurrentOffer)
		}
	case ClassCounterOffer:
		if hasSellerPrice {
			work.UpdateOffer(sellerPrice)
		}
	case ClassReject:
		if floor, ok := constraintPrice(reply); ok {
			f := floor
			work.SellerMinimum = &f
			if work.CurrentOffer == nil || *work.CurrentOffer < floor {
				work.Append(session.PartySystem,
					fmt.Sprintf("The seller has indicated they cannot go below %s.", money.Format(floor)))
			}
		}
	}

	n.updateRoundMetrics(work)

	if strat != "" {
		effective := class == ClassAccept ||
			(class == ClassCounterOffer && sellerConceded(work))
		work.RecordStrategyOutcome(string(strat), effective)
	}

	sent := n.analyzeSentiment(ctx, reply)
	work.Sentiment = &sent

	if !work.Terminal() {
		offers, err := n.generateOffers(ctx, work)
		if err != nil {
			logger.L.Warn("offer generation failed, using fallback offers", "error", err)
			offers = n.fallbackOffers(work)
		}
		work.AvailableOffers = offers
	}

	work.ProgressScore = progressFor(work.Metrics.Rounds)

	// The note goes on after the seller entry's amount was captured, so the
	// annotation can never leak into price extraction.
	if strat != "" {
		work.AnnotateLastSeller(strategyNote(strat))
	}
}

func (n *Negotiator) updateRoundMetrics(work *session.Session) {
	work.Metrics.Rounds++

	buyer := work.AmountsBy(session.PartyBuyer)
	if len(buyer) >= 2 {
		last, prev := buyer[len(buyer)-1], buyer[len(buyer)-2]
		switch {
		case last > prev:
			work.Metrics.BuyerConcessions++
		case math.Abs(float64(last-prev)) < 0.01:
			work.Metrics.StandFirmCount++
		}
	}

	seller := work.AmountsBy(session.PartySeller)
	if len(seller) >= 2 && seller[len(seller)-1] < seller[len(seller)-2] {
		work.Metrics.SellerConcessions++
	}
}

// sellerConceded reports whether the seller's newest price undercuts their
// previous one.
func sellerConceded(work *session.Session) bool {
	seller := work.AmountsBy(session.PartySeller)
	return len(seller) >= 2 && seller[len(seller)-1] < seller[len(seller)-2]
}

func progressFor(rounds int) int {
	if rounds*20 > 100 {
		return 100
	}
	return rounds * 20
}

func strategyNote(strat strategy.Strategy) string {
	return fmt.Sprintf("\n\n<span style=\"font-size: 0.8rem; color: #6c757d; font-style: italic;\">The seller is responding to your %q strategy.</span>", strat.DisplayName())
}

// SynthesizeOffers renders the session's current candidates through a
// strategy, feeding the synthesizer the parties' last known amounts.
func SynthesizeOffers(sess *session.Session, strat strategy.Strategy) []string {
	var buyerLast, sellerLast *money.Amount
	if a, ok := sess.LastAmountBy(session.PartyBuyer); ok {
		buyerLast = &a
	}
	if a, ok := sess.LastAmountBy(session.PartySeller); ok {
		sellerLast = &a
	}
	return strategy.Synthesize(strat, sess.AvailableOffers, buyerLast, sellerLast)
}
