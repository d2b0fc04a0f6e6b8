// Package session holds the negotiation aggregate: the ordered conversation
// history, the candidate offers for the current turn and the running metrics.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/nirmal141/negotAItion/internal/money"
)

// Party is the attributed speaker of a history entry.
type Party string

const (
	PartyBuyer  Party = "Buyer"
	PartySeller Party = "Seller"
	PartySystem Party = "System"
)

// Entry is one statement in the conversation history. Amount is captured once
// at append time so that annotations added to Text later never change what
// the entry is worth numerically.
type Entry struct {
	Party  Party         `json:"party"`
	Text   string        `json:"text"`
	Amount *money.Amount `json:"amount,omitempty"`
}

// StrategyStats counts how often a strategy was used and how often it moved
// the negotiation forward.
type StrategyStats struct {
	Used      int `json:"used"`
	Effective int `json:"effective"`
}

// Metrics are monotonically non-decreasing counters over the session's life.
type Metrics struct {
	Rounds                int                       `json:"rounds"`
	BuyerConcessions      int                       `json:"buyer_concessions"`
	SellerConcessions     int                       `json:"seller_concessions"`
	StandFirmCount        int                       `json:"stand_firm_count"`
	StrategyEffectiveness map[string]*StrategyStats `json:"strategy_effectiveness"`
}

// Sentiment scores the seller's last reply on four 0-10 axes. The four fields
// are always set together or the whole struct is absent.
type Sentiment struct {
	Positivity  float64 `json:"positivity"`
	Openness    float64 `json:"openness"`
	Firmness    float64 `json:"firmness"`
	Flexibility float64 `json:"flexibility"`
}

// Session is the aggregate root. History is append-only; AvailableOffers is
// replaced wholesale each turn; the session is terminal once AgreedPrice is
// set.
type Session struct {
	ID              string        `json:"negotiation_id"`
	History         []Entry       `json:"history"`
	AvailableOffers []string      `json:"available_offers"`
	CurrentOffer    *money.Amount `json:"current_offer"`
	AgreedPrice     *money.Amount `json:"agreed_price"`
	Metrics         Metrics       `json:"metrics"`
	Sentiment       *Sentiment    `json:"sentiment"`
	ProgressScore   int           `json:"progress_score"`
	SellerMinimum   *money.Amount `json:"-"`
	CreatedAt       time.Time     `json:"created_at"`
	LastUpdated     time.Time     `json:"last_updated"`
}

// New returns an empty session with a fresh id.
func New() *Session {
	now := time.Now().UTC()
	return &Session{
		ID: uuid.NewString(),
		Metrics: Metrics{
			StrategyEffectiveness: make(map[string]*StrategyStats),
		},
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// Clone returns a deep copy. Rounds are played against a clone so a failed
// collaborator call leaves the stored session exactly as it was.
func (s *Session) Clone() *Session {
	c := *s
	c.History = make([]Entry, len(s.History))
	for i, e := range s.History {
		e.Amount = cloneAmount(e.Amount)
		c.History[i] = e
	}
	c.AvailableOffers = append([]string(nil), s.AvailableOffers...)
	c.CurrentOffer = cloneAmount(s.CurrentOffer)
	c.AgreedPrice = cloneAmount(s.AgreedPrice)
	c.SellerMinimum = cloneAmount(s.SellerMinimum)
	if s.Sentiment != nil {
		v := *s.Sentiment
		c.Sentiment = &v
	}
	c.Metrics.StrategyEffectiveness = make(map[string]*StrategyStats, len(s.Metrics.StrategyEffectiveness))
	for k, v := range s.Metrics.StrategyEffectiveness {
		st := *v
		c.Metrics.StrategyEffectiveness[k] = &st
	}
	return &c
}

func cloneAmount(a *money.Amount) *money.Amount {
	if a == nil {
		return nil
	}
	v := *a
	return &v
}

// Append adds an entry to the history. The embedded amount is extracted here,
// before anything else gets a chance to annotate the text. System entries
// never carry an amount.
func (s *Session) Append(p Party, text string) {
	e := Entry{Party: p, Text: text}
	if p == PartyBuyer || p == PartySeller {
		if a, ok := money.Extract(text); ok {
			e.Amount = &a
		}
	}
	s.History = append(s.History, e)
	s.LastUpdated = time.Now().UTC()
}

// AnnotateLastSeller appends note to the text of the most recent history
// entry if, and only if, that entry belongs to the seller. The entry's
// captured amount is unaffected.
func (s *Session) AnnotateLastSeller(note string) {
	if len(s.History) == 0 {
		return
	}
	last := &s.History[len(s.History)-1]
	if last.Party != PartySeller {
		return
	}
	last.Text += note
}

// LastAmountBy scans history newest-first and returns the amount of the first
// entry spoken by p that carries one.
func LastAmountBy(history []Entry, p Party) (money.Amount, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Party == p && history[i].Amount != nil {
			return *history[i].Amount, true
		}
	}
	return 0, false
}

// LastAmountBy is the scanner over this session's own history.
func (s *Session) LastAmountBy(p Party) (money.Amount, bool) {
	return LastAmountBy(s.History, p)
}

// AmountsBy returns every amount spoken by p in chronological order.
func (s *Session) AmountsBy(p Party) []money.Amount {
	var out []money.Amount
	for _, e := range s.History {
		if e.Party == p && e.Amount != nil {
			out = append(out, *e.Amount)
		}
	}
	return out
}

// UpdateOffer replaces the current offer price.
func (s *Session) UpdateOffer(a money.Amount) {
	s.CurrentOffer = &a
	s.LastUpdated = time.Now().UTC()
}

// SetAgreedPrice finalizes the negotiation. Terminal sessions keep no
// available offers.
func (s *Session) SetAgreedPrice(a money.Amount) {
	s.AgreedPrice = &a
	s.AvailableOffers = nil
	s.LastUpdated = time.Now().UTC()
}

// Terminal reports whether an agreed price has been reached.
func (s *Session) Terminal() bool {
	return s.AgreedPrice != nil
}

// RecordStrategyUse bumps the usage counter for a strategy.
func (s *Session) RecordStrategyUse(name string) {
	if name == "" {
		return
	}
	s.strategyStats(name).Used++
}

// RecordStrategyOutcome marks the most recent use of a strategy as effective.
func (s *Session) RecordStrategyOutcome(name string, effective bool) {
	if name == "" || !effective {
		return
	}
	s.strategyStats(name).Effective++
}

func (s *Session) strategyStats(name string) *StrategyStats {
	if s.Metrics.StrategyEffectiveness == nil {
		s.Metrics.StrategyEffectiveness = make(map[string]*StrategyStats)
	}
	st, ok := s.Metrics.StrategyEffectiveness[name]
	if !ok {
		st = &StrategyStats{}
		s.Metrics.StrategyEffectiveness[name] = st
	}
	return st
}
