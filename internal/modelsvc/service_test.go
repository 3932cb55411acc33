package modelsvc

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gend/pkg/types"
)

type fakeTokenizer struct {
	err    error
	gotMax int
}

func (f *fakeTokenizer) Encode(text string, maxTokens int) (Prompt, error) {
	f.gotMax = maxTokens
	if f.err != nil {
		return Prompt{}, f.err
	}
	if len(text) > maxTokens {
		text = text[:maxTokens]
	}
	return Prompt{Text: text, Tokens: len(text)}, nil
}

type fakeModel struct {
	out   string
	err   error
	delay time.Duration

	inflight    int32
	maxInflight int32
	calls       int32
}

func (f *fakeModel) Generate(ctx context.Context, p Prompt, params types.GenerateParams) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	cur := atomic.AddInt32(&f.inflight, 1)
	for {
		old := atomic.LoadInt32(&f.maxInflight)
		if cur <= old || atomic.CompareAndSwapInt32(&f.maxInflight, old, cur) {
			break
		}
	}
	defer atomic.AddInt32(&f.inflight, -1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	if f.out != "" {
		return f.out, nil
	}
	return "echo: " + p.Text, nil
}

type fakeBackend struct {
	mdl   Model
	tok   Tokenizer
	err   error
	calls int
}

func (f *fakeBackend) Load(ctx context.Context, name, path string, device Device) (Model, Tokenizer, error) {
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.mdl, f.tok, nil
}

func newTestService(b Backend) *Service {
	return New(b, Config{ModelName: "t5-small", Device: DeviceCPU}, zerolog.Nop())
}

func TestNewStartsNotLoaded(t *testing.T) {
	s := newTestService(&fakeBackend{mdl: &fakeModel{}, tok: &fakeTokenizer{}})
	if s.Ready() {
		t.Fatal("new service must not be ready")
	}
	info := s.Info()
	if info.IsLoaded || info.Ready {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.ModelName != "t5-small" || info.Device != "cpu" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestLoadSuccess(t *testing.T) {
	b := &fakeBackend{mdl: &fakeModel{}, tok: &fakeTokenizer{}}
	s := newTestService(b)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !s.Ready() {
		t.Fatal("expected ready after load")
	}
	info := s.Info()
	if !info.IsLoaded || !info.Ready || info.LastError != "" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if b.calls != 1 {
		t.Fatalf("backend calls=%d", b.calls)
	}
}

func TestLoadFailureClearsHandles(t *testing.T) {
	b := &fakeBackend{mdl: &fakeModel{}, tok: &fakeTokenizer{}}
	s := newTestService(b)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	b.err = errors.New("weights corrupt")
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if s.Ready() {
		t.Fatal("failed load must leave service not ready")
	}
	s.mu.RLock()
	mdl, tok := s.model, s.tokenizer
	s.mu.RUnlock()
	if mdl != nil || tok != nil {
		t.Fatal("failed load must clear both handles")
	}
	info := s.Info()
	if info.IsLoaded || !strings.Contains(info.LastError, "weights corrupt") {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestGenerateNotLoaded(t *testing.T) {
	s := newTestService(&fakeBackend{mdl: &fakeModel{}, tok: &fakeTokenizer{}})
	for i := 0; i < 3; i++ {
		_, _, err := s.Generate(context.Background(), "hi", types.GenerateParams{MaxLength: 150, Temperature: 1, NumBeams: 4})
		if !IsNotLoaded(err) {
			t.Fatalf("expected not-loaded error, got %v", err)
		}
		if !strings.Contains(err.Error(), "not loaded") {
			t.Fatalf("message must mention the model is not loaded: %q", err)
		}
		var he interface{ StatusCode() int }
		if !errors.As(err, &he) || he.StatusCode() != 503 {
			t.Fatalf("expected 503 mapping, got %v", err)
		}
	}
}

func TestGenerateSuccess(t *testing.T) {
	tok := &fakeTokenizer{}
	s := newTestService(&fakeBackend{mdl: &fakeModel{}, tok: tok})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	out, elapsed, err := s.Generate(context.Background(), "hello", types.GenerateParams{MaxLength: 150, Temperature: 1, NumBeams: 4})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "echo: hello" {
		t.Fatalf("out=%q", out)
	}
	if elapsed < 0 {
		t.Fatalf("elapsed=%v", elapsed)
	}
	if tok.gotMax != defaultMaxInputTokens {
		t.Fatalf("token budget=%d, want %d", tok.gotMax, defaultMaxInputTokens)
	}
}

func TestGenerateWrapsTokenizerError(t *testing.T) {
	s := newTestService(&fakeBackend{mdl: &fakeModel{}, tok: &fakeTokenizer{err: errors.New("bad utf8")}})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	_, _, err := s.Generate(context.Background(), "hi", types.GenerateParams{MaxLength: 150, Temperature: 1, NumBeams: 4})
	if !IsGenerationFailed(err) {
		t.Fatalf("expected generation failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad utf8") {
		t.Fatalf("cause text lost: %q", err)
	}
}

func TestGenerateWrapsModelError(t *testing.T) {
	s := newTestService(&fakeBackend{mdl: &fakeModel{err: errors.New("inference blew up")}, tok: &fakeTokenizer{}})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	_, _, err := s.Generate(context.Background(), "hi", types.GenerateParams{MaxLength: 150, Temperature: 1, NumBeams: 4})
	if !IsGenerationFailed(err) {
		t.Fatalf("expected generation failure, got %v", err)
	}
	var he interface{ StatusCode() int }
	if !errors.As(err, &he) || he.StatusCode() != 500 {
		t.Fatalf("expected 500 mapping, got %v", err)
	}
}

func TestGenerateSerializesModelAccess(t *testing.T) {
	mdl := &fakeModel{delay: 5 * time.Millisecond}
	s := newTestService(&fakeBackend{mdl: mdl, tok: &fakeTokenizer{}})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := s.Generate(context.Background(), "hi", types.GenerateParams{MaxLength: 10, Temperature: 1, NumBeams: 1}); err != nil {
				t.Errorf("generate: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := atomic.LoadInt32(&mdl.maxInflight); got != 1 {
		t.Fatalf("max in-flight generations=%d, want 1", got)
	}
	if got := atomic.LoadInt32(&mdl.calls); got != 8 {
		t.Fatalf("calls=%d, want 8", got)
	}
}

func TestGenerateCanceledWhileQueued(t *testing.T) {
	mdl := &fakeModel{delay: 50 * time.Millisecond}
	s := newTestService(&fakeBackend{mdl: mdl, tok: &fakeTokenizer{}})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	started := make(chan struct{})
	go func() {
		close(started)
		_, _, _ = s.Generate(context.Background(), "long", types.GenerateParams{MaxLength: 10, Temperature: 1, NumBeams: 1})
	}()
	<-started
	time.Sleep(5 * time.Millisecond) // let the first call take the slot
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := s.Generate(ctx, "hi", types.GenerateParams{MaxLength: 10, Temperature: 1, NumBeams: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDetectDevice(t *testing.T) {
	if d := DetectDevice("cpu"); d != DeviceCPU {
		t.Fatalf("cpu -> %s", d)
	}
	if d := DetectDevice("cuda"); d != DeviceCUDA {
		t.Fatalf("cuda -> %s", d)
	}
	if d := DetectDevice("auto"); d != DeviceCPU && d != DeviceCUDA {
		t.Fatalf("auto -> %s", d)
	}
}
