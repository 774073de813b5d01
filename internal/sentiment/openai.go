package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAIChatClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// OpenAIClassifier scores batches through a chat model instead of the
// local artifact. Selected with SENTIMENT_BACKEND=openai.
type OpenAIClassifier struct {
	client openAIChatClient
	model  string
}

func NewOpenAIClassifier(apiKey, model string) *OpenAIClassifier {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClassifier{
		client: &openAIClient{client: client},
		model:  model,
	}
}

func (c *OpenAIClassifier) ProbPositive(ctx context.Context, texts []string) ([]float64, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("openai classifier is not configured")
	}
	if len(texts) == 0 {
		return nil, ErrEmptyBatch
	}

	var sb strings.Builder
	for i, text := range texts {
		sb.WriteString(fmt.Sprintf("id=%d\ntext=%s\n\n", i, strings.TrimSpace(text)))
	}

	systemPrompt := "You classify crypto social-media text as positive or negative. Return ONLY a JSON array. Each object requires: id (int), prob_positive (0..1). One object per input id. No markdown."
	userPrompt := "Items:\n" + sb.String()

	completion, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty classifier completion")
	}

	raw := trimCodeFence(completion.Choices[0].Message.Content)

	var parsed []struct {
		ID           int     `json:"id"`
		ProbPositive float64 `json:"prob_positive"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse classifier json: %w", err)
	}

	probs := make([]float64, len(texts))
	seen := make([]bool, len(texts))
	for _, row := range parsed {
		if row.ID < 0 || row.ID >= len(texts) {
			continue
		}
		probs[row.ID] = clamp(row.ProbPositive, 0, 1)
		seen[row.ID] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("classifier response missing id %d", i)
		}
	}
	return probs, nil
}

func trimCodeFence(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "```") {
		v = strings.TrimPrefix(v, "```")
		v = strings.TrimSpace(v)
		if strings.HasPrefix(strings.ToLower(v), "json") {
			v = strings.TrimSpace(v[4:])
		}
		v = strings.TrimSuffix(v, "```")
		v = strings.TrimSpace(v)
	}
	return v
}

type openAIClient struct {
	client openai.Client
}

func (c *openAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
