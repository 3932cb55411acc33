//go:build llama

package modelsvc

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"

	"gend/pkg/types"
)

const (
	defaultCtxSize = 2048
	defaultThreads = 4
	// GPU layers offloaded when the device is cuda and no explicit
	// count was configured.
	defaultGPULayers = 32
)

type llamaBackend struct {
	opts BackendOptions
}

// NewBackend returns the in-process go-llama.cpp backend.
func NewBackend(opts BackendOptions) Backend {
	if opts.CtxSize <= 0 {
		opts.CtxSize = defaultCtxSize
	}
	if opts.Threads <= 0 {
		opts.Threads = defaultThreads
	}
	return &llamaBackend{opts: opts}
}

func (b *llamaBackend) Load(ctx context.Context, name, path string, device Device) (Model, Tokenizer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, errors.New("model " + name + ": no model file resolved")
	}
	mo := []llama.ModelOption{
		llama.SetContext(b.opts.CtxSize),
	}
	if device == DeviceCUDA {
		layers := b.opts.GPULayers
		if layers <= 0 {
			layers = defaultGPULayers
		}
		mo = append(mo, llama.SetGPULayers(layers))
	}
	m, err := llama.New(path, mo...)
	if err != nil {
		return nil, nil, err
	}
	return &llamaModel{model: m, threads: b.opts.Threads}, &llamaTokenizer{model: m}, nil
}

// llamaTokenizer encodes through the loaded model's vocabulary.
type llamaTokenizer struct {
	model *llama.LLama
}

func (t *llamaTokenizer) Encode(text string, maxTokens int) (Prompt, error) {
	n, _, err := t.model.TokenizeString(text)
	if err != nil {
		return Prompt{}, err
	}
	if int(n) <= maxTokens {
		return Prompt{Text: text, Tokens: int(n)}, nil
	}
	// Binary search the longest rune prefix that fits the budget.
	runes := []rune(text)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		n, _, err = t.model.TokenizeString(string(runes[:mid]))
		if err != nil {
			return Prompt{}, err
		}
		if int(n) <= maxTokens {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	cut := string(runes[:lo])
	n, _, err = t.model.TokenizeString(cut)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{Text: cut, Tokens: int(n)}, nil
}

// llamaModel owns the loaded model handle for the process lifetime.
type llamaModel struct {
	model   *llama.LLama
	threads int
}

func (m *llamaModel) Generate(ctx context.Context, p Prompt, params types.GenerateParams) (string, error) {
	m.model.SetTokenCallback(func(string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	})
	po := []llama.PredictOption{
		llama.SetTokens(max(1, params.MaxLength)),
		llama.SetThreads(max(1, m.threads)),
		llama.SetTemperature(float32(params.Temperature)),
	}
	// llama.cpp has no beam search; NumBeams is accepted and ignored.
	out, err := m.model.Predict(p.Text, po...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}
