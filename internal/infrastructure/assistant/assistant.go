// Package assistant wraps the chat-completion model used for free-text
// component extraction, retry suggestions, and the reaction narrative.
//
// The assistant is an accelerator, not a dependency: when no API key is
// configured every call fails fast with CodeAssistantUnavailable and the
// callers fall back (heuristic parsing, no retry suggestion, no narrative).
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/synthbench/reagent/internal/config"
	"github.com/synthbench/reagent/internal/domain/reaction"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/logging"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/metrics"
	"github.com/synthbench/reagent/pkg/errors"
)

const extractionSystemPrompt = `You are a chemistry lab assistant. Extract every chemical component from the reaction description. Respond with ONLY a JSON array, no prose. Each element:
{"name": string, "cas": string or "", "aliases": [string], "quantity": number or null, "unit": "g"|"mg"|"mol"|"mmol"|"ml" or "", "role": "reactant"|"product"|"solvent"|"additive"|"catalyst", "coefficient": number}
The description may be in English or German (Edukt=reactant, Produkt=product, Lösemittel=solvent). Use null for unknown quantities, 1 for unknown coefficients.`

const suggestionSystemPrompt = `You are a chemistry nomenclature expert. A compound name could not be found in a compound database. Suggest exactly ONE alternative name or spelling that the database is more likely to know (an IUPAC name, a common name, or a corrected spelling). Respond with ONLY the name, no prose, no quotes.`

const narrativeSystemPrompt = `You are a chemistry lab assistant. Write a short assessment (3-5 sentences) of the reaction setup you are given: plausibility, the limiting reagent, and anything notable about amounts or hazards. Plain text only.`

// Client calls the configured chat-completion endpoint.  A nil inner model
// means the assistant is disabled.
type Client struct {
	llm         llms.Model
	temperature float64
	timeout     time.Duration
	logger      logging.Logger
	metrics     *metrics.Metrics
}

// NewClient builds the assistant client.  An empty API key yields a disabled
// client rather than an error.
func NewClient(cfg config.AssistantConfig, logger logging.Logger, m *metrics.Metrics) (*Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &Client{
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger.Named("assistant"),
		metrics:     m,
	}
	if c.timeout <= 0 {
		c.timeout = config.DefaultAssistantTimeout
	}
	if cfg.APIKey == "" {
		c.logger.Warn("no assistant API key configured, extraction and retry suggestions disabled")
		return c, nil
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeAssistantUnavailable, "initializing assistant client")
	}
	c.llm = llm
	return c, nil
}

// Enabled reports whether the assistant can be called.
func (c *Client) Enabled() bool { return c.llm != nil }

// ExtractComponents turns a free-text reaction description into raw
// components.  Model output is parsed tolerantly and normalized; components
// without a usable name are dropped rather than failing the batch.
func (c *Client) ExtractComponents(ctx context.Context, text string) ([]reaction.RawComponent, error) {
	raw, err := c.complete(ctx, "extract", extractionSystemPrompt, text)
	if err != nil {
		return nil, err
	}
	components, err := parseComponentArray(raw)
	if err != nil {
		return nil, err
	}
	if len(components) == 0 {
		return nil, errors.New(errors.CodeAssistantParseError, "assistant returned no usable components")
	}
	c.logger.Info("components extracted", logging.Int("count", len(components)))
	return components, nil
}

// SuggestAlternativeName asks for one alternative lookup name for a compound
// that missed on all its candidates.  A suggestion identical to an already
// tried candidate is discarded; the empty return then means "nothing new to
// try" and is not an error.
func (c *Client) SuggestAlternativeName(ctx context.Context, name string, attempts []reaction.Attempt, reactionContext string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Compound not found: %q\n", name)
	if len(attempts) > 0 {
		b.WriteString("Already tried without success:\n")
		for _, a := range attempts {
			fmt.Fprintf(&b, "- %s (%s)\n", a.Candidate, a.Outcome)
		}
	}
	if reactionContext != "" {
		fmt.Fprintf(&b, "Reaction context: %s\n", reactionContext)
	}

	raw, err := c.complete(ctx, "suggest", suggestionSystemPrompt, b.String())
	if err != nil {
		return "", err
	}
	suggestion := cleanSuggestion(raw)
	if suggestion == "" {
		return "", nil
	}
	for _, a := range attempts {
		if strings.EqualFold(a.Candidate, suggestion) {
			c.logger.Debug("suggestion already tried", logging.String("suggestion", suggestion))
			return "", nil
		}
	}
	if strings.EqualFold(suggestion, name) {
		return "", nil
	}
	return suggestion, nil
}

// Narrative produces the free-text reaction assessment shown alongside the
// stoichiometry table.
func (c *Client) Narrative(ctx context.Context, components []*reaction.ResolvedComponent, summary string) (string, error) {
	var b strings.Builder
	b.WriteString("Reaction setup:\n")
	for _, comp := range components {
		if comp == nil {
			continue
		}
		fmt.Fprintf(&b, "- %s", comp.Name)
		if comp.Compound != nil {
			fmt.Fprintf(&b, " (%s, M = %.2f g/mol)", comp.Compound.Formula, comp.Compound.MolarMass)
		}
		if comp.Quantity != nil {
			fmt.Fprintf(&b, ", %g %s", *comp.Quantity, comp.Unit)
		}
		if comp.Equivalents != nil {
			fmt.Fprintf(&b, ", %.2f eq", *comp.Equivalents)
		}
		fmt.Fprintf(&b, ", role %s\n", comp.Role)
	}
	fmt.Fprintf(&b, "%s\n", summary)

	return c.complete(ctx, "narrative", narrativeSystemPrompt, b.String())
}

func (c *Client) complete(ctx context.Context, operation, system, user string) (string, error) {
	if c.llm == nil {
		return "", errors.New(errors.CodeAssistantUnavailable, "assistant is not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.llm.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(schema.ChatMessageTypeSystem, system),
			llms.TextParts(schema.ChatMessageTypeHuman, user),
		},
		llms.WithTemperature(c.temperature),
	)
	if err != nil {
		c.observe(operation, metrics.OutcomeError)
		return "", errors.Wrap(err, errors.CodeAssistantUnavailable, "assistant call failed")
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		c.observe(operation, metrics.OutcomeError)
		return "", errors.New(errors.CodeAssistantParseError, "assistant returned an empty response")
	}
	c.observe(operation, metrics.OutcomeHit)
	return resp.Choices[0].Content, nil
}

func (c *Client) observe(operation, outcome string) {
	if c.metrics != nil {
		c.metrics.AssistantCalls.WithLabelValues(operation, outcome).Inc()
	}
}
