package stream

import (
	"context"
	"strings"
	"sync"

	"github.com/glinthq/glint/internal/engine"
	"github.com/glinthq/glint/internal/highlight"
)

// fakeEngine scripts tokenizer construction for controller and session
// tests: it can refuse configurations and hand out gated tokenizers.
type fakeEngine struct {
	mu           sync.Mutex
	newErr       error
	container    *highlight.ContainerStyle
	created      []string // "language/theme" per construction
	lastTok      *fakeTokenizer
	enqueueGate  chan struct{}
	enqueueBegan chan string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		container: &highlight.ContainerStyle{BackgroundColor: "#101010", TextColor: "#f0f0f0"},
	}
}

func (e *fakeEngine) NewTokenizer(language, theme string) (engine.Tokenizer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.newErr != nil {
		return nil, e.newErr
	}
	e.created = append(e.created, language+"/"+theme)
	tok := &fakeTokenizer{gate: e.enqueueGate, began: e.enqueueBegan}
	e.lastTok = tok
	return tok, nil
}

func (e *fakeEngine) ThemeStyle(string) (*highlight.ContainerStyle, error) {
	return e.container, nil
}

func (e *fakeEngine) createdCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.created)
}

func (e *fakeEngine) createdConfigs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string{}, e.created...)
}

func (e *fakeEngine) tokenizer() *fakeTokenizer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastTok
}

// fakeTokenizer buffers text and reports one stable token per settled
// region and one unstable token for the pending tail, mirroring the
// newline-graduation contract of the real engine.
type fakeTokenizer struct {
	mu       sync.Mutex
	buf      string
	cleared  int
	enqueues []string
	failNext error

	gate  chan struct{} // when set, Enqueue blocks until the gate closes
	began chan string   // when set, receives the chunk as Enqueue starts
}

var stableStyle = highlight.StyleAttributes{Color: "#110011"}
var unstableStyle = highlight.StyleAttributes{Color: "#220022"}

func (f *fakeTokenizer) Enqueue(ctx context.Context, chunk string) error {
	if f.began != nil {
		f.began <- chunk
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueues = append(f.enqueues, chunk)
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.buf += chunk
	return nil
}

func (f *fakeTokenizer) Stable() []highlight.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := strings.LastIndexByte(f.buf, '\n')
	if idx < 0 {
		return nil
	}
	return []highlight.Token{{Content: f.buf[:idx+1], Style: stableStyle}}
}

func (f *fakeTokenizer) Unstable() []highlight.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	tail := f.buf
	if idx := strings.LastIndexByte(f.buf, '\n'); idx >= 0 {
		tail = f.buf[idx+1:]
	}
	if tail == "" {
		return nil
	}
	return []highlight.Token{{Content: tail, Style: unstableStyle}}
}

func (f *fakeTokenizer) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buf = ""
	f.cleared++
}

func (f *fakeTokenizer) enqueuedChunks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.enqueues...)
}

func (f *fakeTokenizer) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

func (f *fakeTokenizer) setFailNext(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = err
}
