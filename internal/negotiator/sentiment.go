package negotiator

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/nirmal141/negotAItion/internal/logger"
	"github.com/nirmal141/negotAItion/internal/session"
)

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// neutralSentiment is used when the analysis cannot be parsed; the four
// fields always travel together.
func neutralSentiment() session.Sentiment {
	return session.Sentiment{Positivity: 5, Openness: 5, Firmness: 5, Flexibility: 5}
}

// analyzeSentiment scores a seller reply on four 0-10 axes. Failures degrade
// to a neutral reading instead of surfacing an error.
func (n *Negotiator) analyzeSentiment(ctx context.Context, text string) session.Sentiment {
	prompt := `Analyze the following negotiation message for sentiment and intent:
"` + text + `"

Rate each of these aspects on a scale of 0-10:
- Positivity (how positive the tone is)
- Openness (willingness to continue negotiating)
- Firmness (how firm they are on their position)
- Flexibility (willingness to compromise)

Return only a JSON object with these ratings, like:
{
  "positivity": 7,
  "openness": 6,
  "firmness": 8,
  "flexibility": 4
}`

	out, err := n.complete(ctx, prompt, 200)
	if err != nil {
		logger.L.Warn("sentiment analysis failed", "error", err)
		return neutralSentiment()
	}

	raw := jsonObjectPattern.FindString(out)
	if raw == "" {
		return neutralSentiment()
	}
	var s session.Sentiment
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		logger.L.Warn("sentiment parse failed", "error", err)
		return neutralSentiment()
	}
	s.Positivity = clampScore(s.Positivity)
	s.Openness = clampScore(s.Openness)
	s.Firmness = clampScore(s.Firmness)
	s.Flexibility = clampScore(s.Flexibility)
	return s
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
