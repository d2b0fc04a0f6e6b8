package llm

import (
	"github.com/sashabaranov/go-openai"

	"github.com/nirmal141/negotAItion/internal/config"
)

// NewClient creates an OpenAI-compatible chat client from the configuration.
func NewClient(cfg config.LLMConfig) *openai.Client {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(c)
}
