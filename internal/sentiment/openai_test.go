package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
)

type mockChatClient struct {
	content  string
	err      error
	gotModel string
	gotMsgs  int
}

func (m *mockChatClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	m.gotModel = params.Model
	m.gotMsgs = len(params.Messages)
	if m.err != nil {
		return nil, m.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: m.content}},
		},
	}, nil
}

func TestOpenAIClassifierParsesResponse(t *testing.T) {
	t.Parallel()

	mock := &mockChatClient{content: `[{"id":0,"prob_positive":0.9},{"id":1,"prob_positive":0.1}]`}
	clf := &OpenAIClassifier{client: mock, model: "gpt-4o-mini"}

	probs, err := clf.ProbPositive(context.Background(), []string{"btc up", "btc down"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(probs) != 2 || probs[0] != 0.9 || probs[1] != 0.1 {
		t.Fatalf("unexpected probabilities: %v", probs)
	}
	if mock.gotModel != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %s", mock.gotModel)
	}
	if mock.gotMsgs != 2 {
		t.Fatalf("expected system+user messages, got %d", mock.gotMsgs)
	}
}

func TestOpenAIClassifierStripsCodeFence(t *testing.T) {
	t.Parallel()

	mock := &mockChatClient{content: "```json\n[{\"id\":0,\"prob_positive\":0.75}]\n```"}
	clf := &OpenAIClassifier{client: mock, model: "gpt-4o-mini"}

	probs, err := clf.ProbPositive(context.Background(), []string{"hodl"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probs[0] != 0.75 {
		t.Fatalf("unexpected probability: %v", probs)
	}
}

func TestOpenAIClassifierMissingID(t *testing.T) {
	t.Parallel()

	mock := &mockChatClient{content: `[{"id":0,"prob_positive":0.6}]`}
	clf := &OpenAIClassifier{client: mock, model: "gpt-4o-mini"}

	if _, err := clf.ProbPositive(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error when an id is missing from the response")
	}
}

func TestOpenAIClassifierClampsProbabilities(t *testing.T) {
	t.Parallel()

	mock := &mockChatClient{content: `[{"id":0,"prob_positive":1.7}]`}
	clf := &OpenAIClassifier{client: mock, model: "gpt-4o-mini"}

	probs, err := clf.ProbPositive(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probs[0] != 1 {
		t.Fatalf("expected probability clamp to 1, got %v", probs)
	}
}

func TestOpenAIClassifierUpstreamError(t *testing.T) {
	t.Parallel()

	boom := errors.New("quota exceeded")
	clf := &OpenAIClassifier{client: &mockChatClient{err: boom}, model: "gpt-4o-mini"}

	if _, err := clf.ProbPositive(context.Background(), []string{"a"}); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestNewOpenAIClassifierRequiresKey(t *testing.T) {
	t.Parallel()

	if clf := NewOpenAIClassifier("   ", "gpt-4o-mini"); clf != nil {
		t.Fatal("expected nil classifier without an api key")
	}
}
