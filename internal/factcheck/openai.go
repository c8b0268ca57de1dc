package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/groundcheck/groundcheck/internal/model"
)

const extractSystemPrompt = `You extract checkable factual claims from text. ` +
	`Respond with a JSON array only, no prose. Each element: ` +
	`{"text": <exact sentence from the input>, "type": one of ` +
	`"factual"|"statistical"|"attribution"|"temporal"|"comparative", ` +
	`"confidence": number 0..1}. Return [] when nothing is checkable.`

// OpenAIExtractor extracts claims with an OpenAI chat model
type OpenAIExtractor struct {
	client *openai.Client
	cfg    model.LLMConfig
}

// NewOpenAIExtractor creates an OpenAI-backed extractor
func NewOpenAIExtractor(cfg model.LLMConfig) (*OpenAIExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIExtractor{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Name returns the extractor name
func (e *OpenAIExtractor) Name() string {
	return "openai"
}

// llmClaim is the shape the model is asked to emit
type llmClaim struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// ExtractClaims asks the model for claims and maps them back onto the
// source text
func (e *OpenAIExtractor) ExtractClaims(ctx context.Context, text string) ([]model.Claim, error) {
	chatModel := e.cfg.Model
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}
	maxTokens := e.cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}
	timeout := time.Duration(e.cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseLLMClaims(text, resp.Choices[0].Message.Content)
}

// parseLLMClaims decodes the model output and drops anything that does
// not round-trip to a valid claim
func parseLLMClaims(source, content string) ([]model.Claim, error) {
	content = strings.TrimSpace(content)
	// Models occasionally wrap JSON in a fenced block
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw []llmClaim
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal claims: %w", err)
	}

	var claims []model.Claim
	for _, rc := range raw {
		claimType := model.ClaimType(rc.Type)
		if rc.Text == "" || !claimType.Valid() {
			continue
		}
		confidence := rc.Confidence
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}

		claim := model.Claim{
			ID:         newClaimID(),
			Text:       rc.Text,
			Type:       claimType,
			Confidence: confidence,
		}
		if start := strings.Index(source, rc.Text); start >= 0 {
			claim.SourceOffset = &model.SourceOffset{Start: start, End: start + len(rc.Text)}
		}
		claims = append(claims, claim)
	}

	return claims, nil
}
