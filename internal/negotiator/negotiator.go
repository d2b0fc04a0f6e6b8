// Package negotiator implements the negotiation service: it opens sessions,
// simulates the seller with an LLM, classifies replies and keeps the
// session's metrics, sentiment and progress up to date.
package negotiator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/sashabaranov/go-openai"

	"github.com/nirmal141/negotAItion/internal/config"
	"github.com/nirmal141/negotAItion/internal/llm"
	"github.com/nirmal141/negotAItion/internal/logger"
	"github.com/nirmal141/negotAItion/internal/money"
	"github.com/nirmal141/negotAItion/internal/session"
)

var (
	// ErrTerminal is returned for offers against an already settled session.
	ErrTerminal = errors.New("negotiation already settled")
	// ErrInvalidOfferIndex is returned when the chosen index is out of range.
	ErrInvalidOfferIndex = errors.New("invalid offer index")
	// ErrUnknownStrategy is returned for a strategy tag outside the enumeration.
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// Request carries one submitted offer.
type Request struct {
	OfferIndex    int           `json:"offer_index"`
	OfferText     string        `json:"offer_text,omitempty"`
	ExplicitPrice *money.Amount `json:"explicit_price,omitempty"`
	Strategy      string        `json:"strategy,omitempty"`
}

// Negotiator runs negotiation sessions against an LLM-simulated seller.
type Negotiator struct {
	llm   llm.Client
	model string
	cfg   config.NegotiationConfig
	rng   *rand.Rand
}

// New creates a negotiator. rng may be nil, in which case the global source
// seeds the seller's asking price.
func New(client llm.Client, llmCfg config.LLMConfig, cfg config.NegotiationConfig, rng *rand.Rand) *Negotiator {
	if cfg.OffersPerTurn <= 0 {
		cfg.OffersPerTurn = 4
	}
	return &Negotiator{llm: client, model: llmCfg.Model, cfg: cfg, rng: rng}
}

// StartSession opens a fresh session: the seller greets with a randomized
// asking price inside the configured band and the buyer gets an initial set
// of candidate offers.
func (n *Negotiator) StartSession(ctx context.Context) (*session.Session, error) {
	sess := session.New()

	asking := money.Round(money.Amount(n.askingPrice()))
	greeting := fmt.Sprintf(
		"Welcome! I'm selling a 2019 Honda Accord in excellent condition. It has low mileage, a clean history, and has been well-maintained. I'm asking %s for it, which is competitive for this model in this condition.",
		money.Format(asking))
	sess.Append(session.PartySeller, greeting)
	sess.UpdateOffer(asking)

	offers, err := n.generateOffers(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("generate initial offers: %w", err)
	}
	sess.AvailableOffers = offers

	logger.L.Info("negotiation started", "id", sess.ID, "asking", money.Format(asking))
	return sess, nil
}

func (n *Negotiator) askingPrice() float64 {
	low := n.cfg.MinPrice * 1.15
	high := n.cfg.MaxPrice
	if high <= low {
		return low
	}
	if n.rng != nil {
		return low + n.rng.Float64()*(high-low)
	}
	return low + rand.Float64()*(high-low)
}

// complete sends a single-prompt chat completion and returns the first
// choice's content.
func (n *Negotiator) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := n.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     n.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
