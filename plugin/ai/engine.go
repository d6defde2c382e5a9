// Package ai provides the inference service boundary used by the job
// handlers: text embedding, content classification, and grounded answer
// generation. All three calls are slow, network-bound, and fallible; callers
// run them under the worker retry policy.
package ai

import "context"

// Engine is the AI inference service interface.
type Engine interface {
	// Embed generates a fixed-length vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Classify assigns the content one of the known note categories.
	Classify(ctx context.Context, content string) (string, error)

	// GenerateAnswer produces an answer to query grounded strictly in
	// contextText.
	GenerateAnswer(ctx context.Context, contextText, query string) (string, error)
}

// Categories are the note categories the classifier may assign. Anything the
// model returns outside this set is normalized to CategoryGeneral.
var Categories = []string{"React", "NestJS", "DevOps", "Architecture", "General"}

// CategoryGeneral is the fallback category.
const CategoryGeneral = "General"
