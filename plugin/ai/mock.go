package ai

import (
	"context"
	"sync/atomic"
)

// MockEngine is a mock implementation of Engine for testing.
type MockEngine struct {
	EmbedFunc          func(ctx context.Context, text string) ([]float32, error)
	ClassifyFunc       func(ctx context.Context, content string) (string, error)
	GenerateAnswerFunc func(ctx context.Context, contextText, query string) (string, error)

	// Dimensions controls the default embedding length when EmbedFunc is
	// unset.
	Dimensions int

	EmbedCalls    atomic.Int32
	ClassifyCalls atomic.Int32
	AnswerCalls   atomic.Int32
}

// NewMockEngine creates a MockEngine producing deterministic vectors of the
// given dimensionality.
func NewMockEngine(dimensions int) *MockEngine {
	return &MockEngine{Dimensions: dimensions}
}

func (m *MockEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	m.EmbedCalls.Add(1)
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	vector := make([]float32, m.Dimensions)
	for i := range vector {
		vector[i] = float32(len(text)%7) * 0.1
	}
	return vector, nil
}

func (m *MockEngine) Classify(ctx context.Context, content string) (string, error) {
	m.ClassifyCalls.Add(1)
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, content)
	}
	return CategoryGeneral, nil
}

func (m *MockEngine) GenerateAnswer(ctx context.Context, contextText, query string) (string, error) {
	m.AnswerCalls.Add(1)
	if m.GenerateAnswerFunc != nil {
		return m.GenerateAnswerFunc(ctx, contextText, query)
	}
	return "mock answer", nil
}
