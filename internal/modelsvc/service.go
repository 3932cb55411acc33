package modelsvc

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gend/pkg/types"
)

// Service owns the single model instance for the process. It is
// constructed in the not-loaded state and becomes ready exactly once,
// when Load succeeds; the model is never unloaded or reloaded.
type Service struct {
	mu        sync.RWMutex
	modelName string
	device    Device
	loaded    bool
	model     Model
	tokenizer Tokenizer
	lastErr   string

	backend        Backend
	modelPath      string
	maxInputTokens int

	// genCh is a single-slot admission gate: one in-flight generation
	// at a time, because the underlying runtime is not guaranteed safe
	// for concurrent calls on one instance. Queries never take it.
	genCh chan struct{}

	log zerolog.Logger
}

// New constructs a Service in the not-loaded state.
func New(backend Backend, cfg Config, log zerolog.Logger) *Service {
	if cfg.MaxInputTokens <= 0 {
		cfg.MaxInputTokens = defaultMaxInputTokens
	}
	if cfg.Device == "" {
		cfg.Device = DeviceCPU
	}
	return &Service{
		modelName:      cfg.ModelName,
		device:         cfg.Device,
		backend:        backend,
		modelPath:      cfg.ModelPath,
		maxInputTokens: cfg.MaxInputTokens,
		genCh:          make(chan struct{}, 1),
		log:            log,
	}
}

// Load fetches the model and tokenizer through the backend. On failure
// both handles are cleared and the service stays not-loaded. Repeated
// calls reload without guarding; the only caller is the startup hook.
func (s *Service) Load(ctx context.Context) error {
	s.log.Info().Str("model", s.modelName).Str("device", string(s.device)).Msg("loading model")
	mdl, tok, err := s.backend.Load(ctx, s.modelName, s.modelPath, s.device)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.model = nil
		s.tokenizer = nil
		s.loaded = false
		s.lastErr = err.Error()
		s.log.Error().Err(err).Str("model", s.modelName).Msg("model load failed")
		return err
	}
	s.model = mdl
	s.tokenizer = tok
	s.loaded = true
	s.lastErr = ""
	s.log.Info().Str("model", s.modelName).Str("device", string(s.device)).Msg("model loaded")
	return nil
}

// Ready reports whether the model can serve generation requests. This
// is a derived predicate, not a stored field: the loaded flag alone is
// not trusted.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readyLocked()
}

func (s *Service) readyLocked() bool {
	return s.loaded && s.model != nil && s.tokenizer != nil
}

// Info returns a read-only snapshot of the service state.
func (s *Service) Info() types.ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.ModelInfo{
		ModelName: s.modelName,
		IsLoaded:  s.loaded,
		Device:    string(s.device),
		Ready:     s.readyLocked(),
		LastError: s.lastErr,
	}
}

// Generate runs the tokenize-generate-decode pipeline for text and
// returns the output plus the wall-clock duration of exactly that
// pipeline. Parameters arrive pre-validated; the service trusts them.
func (s *Service) Generate(ctx context.Context, text string, params types.GenerateParams) (string, time.Duration, error) {
	s.mu.RLock()
	mdl := s.model
	tok := s.tokenizer
	ready := s.readyLocked()
	s.mu.RUnlock()
	if !ready {
		return "", 0, ErrNotLoaded()
	}

	select {
	case s.genCh <- struct{}{}:
	case <-ctx.Done():
		return "", 0, ctx.Err()
	}
	defer func() { <-s.genCh }()

	start := time.Now()
	prompt, err := tok.Encode(text, s.maxInputTokens)
	if err != nil {
		return "", 0, ErrGenerationFailed(err)
	}
	out, err := mdl.Generate(ctx, prompt, params)
	if err != nil {
		if ctx.Err() != nil {
			return "", 0, ctx.Err()
		}
		return "", 0, ErrGenerationFailed(err)
	}
	elapsed := time.Since(start)
	s.log.Info().
		Dur("elapsed", elapsed).
		Int("input_tokens", prompt.Tokens).
		Int("max_length", params.MaxLength).
		Msg("generation complete")
	return out, elapsed, nil
}
