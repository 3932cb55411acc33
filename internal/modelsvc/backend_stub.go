//go:build !llama

package modelsvc

import "context"

// This file provides a no-CGO stub for the llama backend. It compiles
// when the 'llama' build tag is NOT set, keeping default builds and CI
// CGO-free. The real backend lives in backend_llama.go (tagged 'llama').

type stubBackend struct{}

// NewBackend returns a backend that refuses to load without the
// 'llama' build tag. This avoids mocked behavior in production
// binaries built without CGO support: such a binary serves degraded.
func NewBackend(opts BackendOptions) Backend {
	return stubBackend{}
}

func (stubBackend) Load(ctx context.Context, name, path string, device Device) (Model, Tokenizer, error) {
	return nil, nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
