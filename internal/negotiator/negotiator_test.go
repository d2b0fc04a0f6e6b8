package negotiator

import (
	"context"
	"math/rand"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/nirmal141/negotAItion/internal/config"
	"github.com/nirmal141/negotAItion/internal/money"
	"github.com/nirmal141/negotAItion/internal/session"
)

type mockLLM struct {
	calls   []openai.ChatCompletionResponse
	err     error
	prompts []string
}

func (m *mockLLM) CreateChatCompletion(ctx context.Context, r openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	m.prompts = append(m.prompts, r.Messages[len(r.Messages)-1].Content)
	if len(m.calls) == 0 {
		panic("mockLLM: no more responses configured")
	}
	resp := m.calls[0]
	m.calls = m.calls[1:]
	return resp, nil
}

func textResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func newTestNegotiator(m *mockLLM) *Negotiator {
	return New(m,
		config.LLMConfig{Model: "gpt"},
		config.NegotiationConfig{MinPrice: 18000, MaxPrice: 30000, OffersPerTurn: 4},
		rand.New(rand.NewSource(1)))
}

const offerList = `1. I can offer $21,000 for the car, paid in full today.
2. Would you take $20,500 if I pick it up this week?
3. I'm standing firm at my offer of $21,000.
4. How about $21,500 with the extended warranty included?`

func amt(v float64) *money.Amount {
	a := money.Amount(v)
	return &a
}

// midSession builds a session the way StartSession would have left it,
// without spending mock LLM calls on setup.
func midSession() *session.Session {
	s := session.New()
	s.Append(session.PartySeller, "Welcome! I'm asking $25,000 for my 2019 Honda Accord.")
	s.UpdateOffer(25000)
	s.AvailableOffers = []string{
		"I would like to offer $20,000 for the car.",
		"Would you take $19,500 in cash?",
		"How about $20,500 with the winter tires?",
		"I can stretch to $21,000 if it passes inspection.",
	}
	return s
}

func TestStartSession(t *testing.T) {
	m := &mockLLM{calls: []openai.ChatCompletionResponse{textResponse(offerList)}}
	n := newTestNegotiator(m)

	sess, err := n.StartSession(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	require.False(t, sess.Terminal())

	require.Len(t, sess.History, 1)
	require.Equal(t, session.PartySeller, sess.History[0].Party)
	require.NotNil(t, sess.History[0].Amount)

	require.NotNil(t, sess.CurrentOffer)
	require.GreaterOrEqual(t, float64(*sess.CurrentOffer), 18000*1.15-1)
	require.LessOrEqual(t, float64(*sess.CurrentOffer), 30000.0)

	require.Len(t, sess.AvailableOffers, 4)
	require.Contains(t, sess.AvailableOffers[0], "$21,000")
	require.Equal(t, 0, sess.ProgressScore)
}

func TestStartSession_FallbackOffers(t *testing.T) {
	m := &mockLLM{calls: []openai.ChatCompletionResponse{textResponse("sorry, nothing useful")}}
	n := newTestNegotiator(m)

	sess, err := n.StartSession(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, sess.AvailableOffers)
	require.Contains(t, sess.AvailableOffers[0], "$20,000")
}

func TestStartSession_LLMError(t *testing.T) {
	n := newTestNegotiator(&mockLLM{err: context.DeadlineExceeded})
	_, err := n.StartSession(context.Background())
	require.Error(t, err)
}

func TestRound_CounterOffer(t *testing.T) {
	m := &mockLLM{calls: []openai.ChatCompletionResponse{
		textResponse("I appreciate the offer, but given its condition I could do $23,500."),
		textResponse(`{"positivity": 7, "openness": 8, "firmness": 6, "flexibility": 7}`),
		textResponse(offerList),
	}}
	n := newTestNegotiator(m)
	sess := midSession()

	updated, err := n.Round(context.Background(), sess, Request{
		OfferIndex:    0,
		ExplicitPrice: amt(20000),
	})
	require.NoError(t, err)

	// The input session stays untouched.
	require.Len(t, sess.History, 1)
	require.Equal(t, money.Amount(25000), *sess.CurrentOffer)

	require.Len(t, updated.History, 3)
	require.Equal(t, session.PartyBuyer, updated.History[1].Party)
	require.Equal(t, session.PartySeller, updated.History[2].Party)
	require.Equal(t, money.Amount(23500), *updated.CurrentOffer)
	require.False(t, updated.Terminal())

	require.Equal(t, 1, updated.Metrics.Rounds)
	require.Equal(t, 1, updated.Metrics.SellerConcessions, "25,000 -> 23,500 is a concession")
	require.Equal(t, 20, updated.ProgressScore)

	require.NotNil(t, updated.Sentiment)
	require.Equal(t, 7.0, updated.Sentiment.Positivity)

	require.Len(t, updated.AvailableOffers, 4)
}

func TestRound_Accept(t *testing.T) {
	m := &mockLLM{calls: []openai.ChatCompletionResponse{
		textResponse("You got it, we have a deal at $21,000."),
		textResponse(`{"positivity": 9, "openness": 9, "firmness": 3, "flexibility": 8}`),
	}}
	n := newTestNegotiator(m)
	sess := midSession()

	updated, err := n.Round(context.Background(), sess, Request{
		OfferIndex:    3,
		ExplicitPrice: amt(21000),
	})
	require.NoError(t, err)
	require.True(t, updated.Terminal())
	require.Equal(t, money.Amount(21000), *updated.AgreedPrice)
	// Terminal sessions keep no candidate offers.
	require.Empty(t, updated.AvailableOffers)
}

func TestRound_RejectWithFloor(t *testing.T) {
	m := &mockLLM{calls: []openai.ChatCompletionResponse{
		textResponse("I'm sorry, I can't go below $23,000 for this vehicle."),
		textResponse(`{"positivity": 4, "openness": 5, "firmness": 9, "flexibility": 2}`),
		textResponse(offerList),
	}}
	n := newTestNegotiator(m)
	sess := midSession()

	updated, err := n.Round(context.Background(), sess, Request{
		OfferIndex:    0,
		ExplicitPrice: amt(20000),
	})
	require.NoError(t, err)
	require.False(t, updated.Terminal())

	require.NotNil(t, updated.SellerMinimum)
	require.Equal(t, money.Amount(23000), *updated.SellerMinimum)

	// A System note records the stated floor.
	last := updated.History[len(updated.History)-1]
	require.Equal(t, session.PartySystem, last.Party)
	require.Contains(t, last.Text, "$23,000")
	require.Nil(t, last.Amount)
}

func TestRound_StandFirmRewritesPrice(t *testing.T) {
	m := &mockLLM{calls: []openai.ChatCompletionResponse{
		textResponse("I hear you, but I could still do $23,000 if you decide today."),
		textResponse(`{"positivity": 6, "openness": 7, "firmness": 7, "flexibility": 5}`),
		textResponse(offerList),
	}}
	n := newTestNegotiator(m)

	sess := midSession()
	sess.Append(session.PartyBuyer, "I would like to offer $21,000 for the car.")
	sess.Append(session.PartySeller, "I could do $24,000.")

	updated, err := n.Round(context.Background(), sess, Request{
		OfferIndex:    2,
		OfferText:     "I'm standing firm at my previous offer of $22,500. I believe this is fair.",
		ExplicitPrice: amt(22500),
		Strategy:      "stand_firm",
	})
	require.NoError(t, err)

	// The phrasing is forced onto the buyer's actual last price.
	buyerEntry := updated.History[3]
	require.Equal(t, session.PartyBuyer, buyerEntry.Party)
	require.Contains(t, buyerEntry.Text, "$21,000")
	require.NotContains(t, buyerEntry.Text, "$22,500")
	// The seller's counter then becomes the offer on the table.
	require.Equal(t, money.Amount(23000), *updated.CurrentOffer)

	require.Equal(t, 1, updated.Metrics.StandFirmCount)

	st := updated.Metrics.StrategyEffectiveness["stand_firm"]
	require.NotNil(t, st)
	require.Equal(t, 1, st.Used)
	require.Equal(t, 1, st.Effective, "24,000 -> 23,000 counter is an improvement")

	// The seller's reply carries the strategy annotation, added after its
	// amount was captured.
	sellerEntry := updated.History[4]
	require.Equal(t, session.PartySeller, sellerEntry.Party)
	require.Contains(t, sellerEntry.Text, "Stand Firm")
	require.NotNil(t, sellerEntry.Amount)
	require.Equal(t, money.Amount(23000), *sellerEntry.Amount)
}

func TestRound_TransportFailureLeavesSessionUntouched(t *testing.T) {
	n := newTestNegotiator(&mockLLM{err: context.DeadlineExceeded})
	sess := midSession()

	_, err := n.Round(context.Background(), sess, Request{OfferIndex: 0})
	require.Error(t, err)
	require.Len(t, sess.History, 1)
	require.Len(t, sess.AvailableOffers, 4)
	require.Equal(t, 0, sess.Metrics.Rounds)
}

func TestRound_Validation(t *testing.T) {
	n := newTestNegotiator(&mockLLM{})
	sess := midSession()

	_, err := n.Round(context.Background(), sess, Request{OfferIndex: 9})
	require.ErrorIs(t, err, ErrInvalidOfferIndex)

	_, err = n.Round(context.Background(), sess, Request{OfferIndex: -1})
	require.ErrorIs(t, err, ErrInvalidOfferIndex)

	_, err = n.Round(context.Background(), sess, Request{OfferIndex: 0, Strategy: "bluff"})
	require.ErrorIs(t, err, ErrUnknownStrategy)

	sess.SetAgreedPrice(21000)
	_, err = n.Round(context.Background(), sess, Request{OfferIndex: 0})
	require.ErrorIs(t, err, ErrTerminal)
}

func TestSynthesizeOffers_EndToEnd(t *testing.T) {
	sess := session.New()
	sess.Append(session.PartyBuyer, "$9000")
	sess.AvailableOffers = []string{"I would like to offer $9,500 for the car."}

	got := SynthesizeOffers(sess, "stand_firm")
	require.Len(t, got, 4)
	for _, offer := range got {
		require.Contains(t, offer, "$9,000")
	}
}
