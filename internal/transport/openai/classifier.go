// Package openai implements the LLM-backed request classifier over an
// OpenAI-compatible chat API. Classification stays total: any provider
// failure or unusable answer falls back to the deterministic capability
// registry, so routing never depends on the provider being up.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/crossdex/internal/registry"
)

// Classifier asks the model which registered domains a request needs and
// validates the answer against the capability registry.
type Classifier struct {
	client   *openai.Client
	model    string
	registry *registry.Registry
	logger   *zap.Logger
}

// Config holds the classifier provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewClassifier creates an OpenAI-compatible classifier with the registry as
// its fallback.
func NewClassifier(cfg *Config, reg *registry.Registry) *Classifier {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		registry: reg,
		logger:   logger,
	}
}

// classifierAnswer is the JSON the model is instructed to return.
type classifierAnswer struct {
	Domains []string `json:"domains"`
}

// Classify asks the model for the required domain set. The registry result
// is computed first and serves two roles: its matched terms annotate the
// model's domains, and it is the complete answer whenever the model fails,
// answers nothing usable, or names unregistered domains only.
func (c *Classifier) Classify(ctx context.Context, text string) (registry.Classification, error) {
	reg := c.registry.Classify(text)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.systemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return registry.Classification{}, ctx.Err()
		}
		c.logger.Warn("classifier provider unavailable, using registry",
			zap.Error(parseAPIError(err)),
		)
		return reg, nil
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("classifier returned no choices, using registry")
		return reg, nil
	}

	domains := c.validDomains(resp.Choices[0].Message.Content)
	if len(domains) == 0 {
		c.logger.Warn("classifier answer unusable, using registry",
			zap.String("answer", resp.Choices[0].Message.Content),
		)
		return reg, nil
	}

	out := registry.Classification{Matched: make(map[string][]string, len(domains))}
	for _, d := range domains {
		out.Domains = append(out.Domains, d)
		out.Matched[d] = reg.Matched[d]
	}
	return out, nil
}

// SubQuery formulates the per-domain sub-query from the matched terms.
func (c *Classifier) SubQuery(domain, text string, matched []string) string {
	return c.registry.SubQuery(domain, text, matched)
}

func (c *Classifier) systemPrompt() string {
	return fmt.Sprintf(
		"You route record queries to data domains. The registered domains are: %s. "+
			"Answer with JSON only, of the form {\"domains\": [\"...\"]}, listing every "+
			"domain needed to answer the user's query, most relevant first.",
		strings.Join(c.registry.Domains(), ", "),
	)
}

// validDomains parses the model answer and keeps registered domains only,
// deduplicated, in the model's order.
func (c *Classifier) validDomains(answer string) []string {
	answer = strings.TrimSpace(answer)
	answer = strings.TrimPrefix(answer, "```json")
	answer = strings.TrimPrefix(answer, "```")
	answer = strings.TrimSuffix(answer, "```")

	var parsed classifierAnswer
	if err := json.Unmarshal([]byte(strings.TrimSpace(answer)), &parsed); err != nil {
		return nil
	}

	seen := map[string]bool{}
	var out []string
	for _, d := range parsed.Domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" || seen[d] || !c.registry.Known(d) {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// parseAPIError extracts a human-readable error from the API response.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("classifier API error %d: %s", reqErr.HTTPStatusCode, detail)
		}
		return fmt.Errorf("classifier API error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("classifier API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("classifier request failed: %w", err)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
