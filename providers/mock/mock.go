// Package mock provides a test double for every clarity provider seam.
// It's designed for testing code that depends on clarity providers without
// making actual API calls.
//
// Example usage:
//
//	provider := &mock.Provider{}
//	provider.GenerateFn = func(ctx context.Context, req clarity.Request) (clarity.Response, error) {
//		return clarity.Response{Text: "mock response"}, nil
//	}
//	svc := clarity.NewService(creds, clarity.WithGenerator(provider))
package mock

import (
	"context"
	"sync"

	"github.com/montanaflynn/clarity"
)

// Provider is a test double. Configure the function fields to control
// behavior; unset functions return an internal error. Calls are recorded.
type Provider struct {
	GenerateFn   func(ctx context.Context, req clarity.Request) (clarity.Response, error)
	UploadFn     func(ctx context.Context, path, mime string) (clarity.RemoteFile, error)
	GetFn        func(ctx context.Context, name string) (clarity.RemoteFile, error)
	DeleteFn     func(ctx context.Context, name string) error
	SynthesizeFn func(ctx context.Context, text string) ([]byte, error)
	DetectFn     func(ctx context.Context, image []byte) (string, error)
	NameVal      string

	mu    sync.Mutex
	calls map[string]int
	reqs  []clarity.Request
}

// Name returns the provider name.
func (m *Provider) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock"
}

func (m *Provider) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

// Calls returns how many times method was invoked.
func (m *Provider) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (m *Provider) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// Requests returns the generation requests received so far.
func (m *Provider) Requests() []clarity.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]clarity.Request(nil), m.reqs...)
}

func notSet(fn string) error {
	return clarity.NewError(clarity.Internal, "mock "+fn+" not set").WithProviderName("mock")
}

// Generate implements clarity.Generator.
func (m *Provider) Generate(ctx context.Context, req clarity.Request) (clarity.Response, error) {
	m.record("Generate")
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()
	if m.GenerateFn == nil {
		return clarity.Response{}, notSet("GenerateFn")
	}
	return m.GenerateFn(ctx, req)
}

// UploadFile implements clarity.FileProcessor.
func (m *Provider) UploadFile(ctx context.Context, path, mime string) (clarity.RemoteFile, error) {
	m.record("UploadFile")
	if m.UploadFn == nil {
		return clarity.RemoteFile{}, notSet("UploadFn")
	}
	return m.UploadFn(ctx, path, mime)
}

// GetFile implements clarity.FileProcessor.
func (m *Provider) GetFile(ctx context.Context, name string) (clarity.RemoteFile, error) {
	m.record("GetFile")
	if m.GetFn == nil {
		return clarity.RemoteFile{}, notSet("GetFn")
	}
	return m.GetFn(ctx, name)
}

// DeleteFile implements clarity.FileProcessor.
func (m *Provider) DeleteFile(ctx context.Context, name string) error {
	m.record("DeleteFile")
	if m.DeleteFn == nil {
		return nil
	}
	return m.DeleteFn(ctx, name)
}

// Synthesize implements clarity.Synthesizer.
func (m *Provider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	m.record("Synthesize")
	if m.SynthesizeFn == nil {
		return nil, notSet("SynthesizeFn")
	}
	return m.SynthesizeFn(ctx, text)
}

// DetectText implements clarity.TextDetector.
func (m *Provider) DetectText(ctx context.Context, image []byte) (string, error) {
	m.record("DetectText")
	if m.DetectFn == nil {
		return "", notSet("DetectFn")
	}
	return m.DetectFn(ctx, image)
}
