package llm

import (
	"context"

	"github.com/raine/wardrobe-editorial/internal/editorial"
)

// Image is a resolved image reference ready to be sent inline.
type Image struct {
	MIMEType string
	Data     []byte
}

// Input is one model call: the assembled prompt and its resolved images,
// in the same order as the prompt's image parts.
type Input struct {
	Prompt editorial.Prompt
	Images []Image
}

// Usage contains token usage and cost information.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// Generator is the opaque generation capability. The returned content may
// be a string, a sequence of parts or a single {text} object; callers
// flatten it with editorial.NormalizeResponse. Failures are classified
// *editorial.Error values.
type Generator interface {
	Generate(ctx context.Context, in Input) (any, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, in Input) (any, error)

func (f GeneratorFunc) Generate(ctx context.Context, in Input) (any, error) {
	return f(ctx, in)
}
