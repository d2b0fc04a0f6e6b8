package negotiator

import (
	"context"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/nirmal141/negotAItion/internal/money"
)

func TestClassify_PhraseRules(t *testing.T) {
	n := newTestNegotiator(&mockLLM{}) // no LLM calls expected

	cases := []struct {
		name  string
		reply string
		offer string
		want  Classification
	}{
		{
			name:  "explicit acceptance",
			reply: "That works for me, we have a deal.",
			offer: "I can do $21,000.",
			want:  ClassAccept,
		},
		{
			name:  "plain counter with price",
			reply: "I was hoping for more. How about $23,500?",
			offer: "I can do $21,000.",
			want:  ClassCounterOffer,
		},
		{
			name:  "rejection without price",
			reply: "That's too low, I have to decline.",
			offer: "I can do $15,000.",
			want:  ClassReject,
		},
		{
			name:  "floor above buyer offer",
			reply: "My absolute bottom line is $23,000.",
			offer: "I can do $20,000.",
			want:  ClassReject,
		},
		{
			name:  "conflicting signals favor rejection",
			reply: "I'd love to say deal, but I cannot accept that.",
			offer: "I can do $19,000.",
			want:  ClassReject,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := n.classify(context.Background(), c.reply, c.offer)
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}
}

func TestClassify_AmbiguousGoesToLLM(t *testing.T) {
	m := &mockLLM{calls: []openai.ChatCompletionResponse{textResponse("counter-offer")}}
	n := newTestNegotiator(m)

	// No price, no phrase from either list: phrase rules cannot decide.
	got, err := n.classify(context.Background(), "Let me think about it and talk to my wife.", "I can do $20,000.")
	require.NoError(t, err)
	require.Equal(t, ClassCounterOffer, got)
	require.Len(t, m.prompts, 1)
	require.Contains(t, m.prompts[0], "Classify the seller's response")
}

func TestClassify_UnrecognizedVerdictDefaultsToReject(t *testing.T) {
	m := &mockLLM{calls: []openai.ChatCompletionResponse{textResponse("maybe?")}}
	n := newTestNegotiator(m)

	got, err := n.classify(context.Background(), "Hmm.", "I can do $20,000.")
	require.NoError(t, err)
	require.Equal(t, ClassReject, got)
}

func TestConstraintPrice(t *testing.T) {
	a, ok := constraintPrice("I simply cannot go below $23,000 on this one.")
	require.True(t, ok)
	require.Equal(t, money.Amount(23000), a)

	a, ok = constraintPrice("The lowest I can go is $22,500.")
	require.True(t, ok)
	require.Equal(t, money.Amount(22500), a)

	_, ok = constraintPrice("I won't budge, sorry.")
	require.False(t, ok)

	// The floor must be stated near the phrase, not anywhere in the reply.
	_, ok = constraintPrice("I cannot go below my reserve. It's a 2019 model, well maintained, garaged, with a long service record and new tires worth $1,200.")
	require.False(t, ok)
}

func TestConstraintPrice_MultibyteReplies(t *testing.T) {
	// "Ⱥ" grows from 2 to 3 bytes when lowered, shifting every later byte
	// offset between the reply and its lowered form.
	a, ok := constraintPrice("Ⱥ minimum is $22,000, take it or leave it.")
	require.True(t, ok)
	require.Equal(t, money.Amount(22000), a)

	// A shifted phrase ending at the very end of the reply must not read
	// past it.
	_, ok = constraintPrice("Ⱥ minimum is")
	require.False(t, ok)

	// The look-ahead window counts characters, not bytes.
	a, ok = constraintPrice("I cannot go below " + strings.Repeat("é", 40) + " $23,000.")
	require.True(t, ok)
	require.Equal(t, money.Amount(23000), a)
}
