package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// Config holds the inference service configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	EmbeddingModel string
	ChatModel      string
	// Dimensions constrains the embedding output length. Must match the
	// vector index dimensionality.
	Dimensions int
}

// OpenAIEngine implements Engine against any OpenAI-compatible API.
type OpenAIEngine struct {
	client *openai.Client
	config *Config
}

// NewOpenAIEngine creates an inference engine backed by an OpenAI-compatible
// endpoint.
func NewOpenAIEngine(cfg *Config) (*OpenAIEngine, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required, set NOTETREE_AI_API_KEY")
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIEngine{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// Embed generates an embedding vector for the given text.
func (e *OpenAIEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(e.config.EmbeddingModel),
		Dimensions: e.config.Dimensions,
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "create embedding")
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}

// Classify assigns the content one of the known note categories.
func (e *OpenAIEngine) Classify(ctx context.Context, content string) (string, error) {
	prompt := fmt.Sprintf(
		"Classify the note below into exactly one of these categories: %s.\nReply with the category name only.\n\nNote:\n%s",
		strings.Join(Categories, ", "), content)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "classify content")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty classification response")
	}

	return NormalizeCategory(resp.Choices[0].Message.Content), nil
}

// GenerateAnswer produces an answer grounded strictly in contextText.
func (e *OpenAIEngine) GenerateAnswer(ctx context.Context, contextText, query string) (string, error) {
	if contextText == "" {
		return "I couldn't find any relevant notes to answer your question.", nil
	}

	system := "You are a helpful knowledge assistant. " +
		"Answer the user question strictly based on the Context provided. " +
		"If the answer is not in the context, state that you don't know. Do not hallucinate."
	user := fmt.Sprintf("Context:\n%s\n\nUser Question: %s", contextText, query)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "generate answer")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty answer response")
	}
	return resp.Choices[0].Message.Content, nil
}

// NormalizeCategory maps a raw model reply onto the known category set,
// falling back to CategoryGeneral.
func NormalizeCategory(raw string) string {
	label := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"'.`))
	for _, category := range Categories {
		if strings.EqualFold(label, category) {
			return category
		}
	}
	return CategoryGeneral
}
