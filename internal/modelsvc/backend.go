package modelsvc

import (
	"context"

	"gend/pkg/types"
)

// Prompt is an encoded, possibly truncated, model input.
type Prompt struct {
	// Text is the input actually fed to the model after truncation.
	Text string
	// Tokens is the token count of Text.
	Tokens int
}

// Tokenizer encodes input text within a fixed token budget.
type Tokenizer interface {
	// Encode tokenizes text and truncates it to maxTokens. Truncation
	// is policy, not an error.
	Encode(text string, maxTokens int) (Prompt, error)
}

// Model runs inference and decodes the output sequence to text.
type Model interface {
	// Generate produces output text for the encoded input using the
	// given decoding parameters. Implementations must return when the
	// context is canceled.
	Generate(ctx context.Context, p Prompt, params types.GenerateParams) (string, error)
}

// Backend loads a pretrained model by name. This is the entire surface
// consumed from the external inference engine.
type Backend interface {
	Load(ctx context.Context, name, path string, device Device) (Model, Tokenizer, error)
}

// BackendOptions carry runtime tuning for the concrete backend.
// Zero values use backend defaults.
type BackendOptions struct {
	CtxSize   int
	Threads   int
	GPULayers int
}
