// Package gemini provides a Google Gemini implementation of the clarity
// Generator and FileProcessor seams. It handles text generation, image
// understanding, JSON-schema constrained output and the asynchronous file API
// used for long audio and video.
//
// Example usage:
//
//	provider, err := gemini.New(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	svc := clarity.NewService(creds,
//		clarity.WithGenerator(provider),
//		clarity.WithMediaProcessor(provider),
//	)
//
// The provider automatically uses the GEMINI_API_KEY environment variable
// if no API key is explicitly provided via WithAPIKey or WithAPIKeyFromEnv.
//
// Default model: gemini-2.0-flash
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/montanaflynn/clarity"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	// DefaultModelName is the Gemini model used when no override is provided.
	DefaultModelName = "gemini-2.0-flash"

	providerName = "gemini"
)

var (
	// ErrAPIKeyRequired is returned when no API key is configured.
	ErrAPIKeyRequired = errors.New("gemini: API key required (set GEMINI_API_KEY or use WithAPIKey/WithAPIKeyFromEnv)")
)

// Option configures the Gemini provider.
type Option func(*settings)

type settings struct {
	apiKey    string
	apiKeySet bool
	model     string
	logger    *zap.Logger
}

// WithAPIKey sets the API key to use.
func WithAPIKey(key string) Option {
	return func(s *settings) {
		s.apiKeySet = true
		s.apiKey = key
	}
}

// WithAPIKeyFromEnv reads the API key from the given environment variable.
func WithAPIKeyFromEnv(env string) Option {
	return func(s *settings) {
		s.apiKeySet = true
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			s.apiKey = v
		}
	}
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(s *settings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithLogger sets a custom logger for provider-level logs.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// Provider is a Gemini-backed implementation of clarity.MediaProcessor.
type Provider struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

// New constructs a Gemini provider using functional options.
// It does not perform network I/O.
func New(ctx context.Context, opts ...Option) (*Provider, error) {
	cfg := settings{
		model:  DefaultModelName,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	switch {
	case cfg.apiKeySet && cfg.apiKey == "":
		return nil, ErrAPIKeyRequired
	case !cfg.apiKeySet && cfg.apiKey == "":
		cfg.apiKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		if cfg.apiKey == "" {
			return nil, ErrAPIKeyRequired
		}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("new gemini client: %w", err)
	}

	return &Provider{
		client: client,
		model:  cfg.model,
		log:    cfg.logger.With(zap.String("provider", providerName)),
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// Model returns the configured model.
func (p *Provider) Model() string {
	return p.model
}

// Generate performs text or JSON generation using the configured model.
func (p *Provider) Generate(ctx context.Context, req clarity.Request) (clarity.Response, error) {
	if err := clarity.ValidateRequest(req); err != nil {
		return clarity.Response{}, err.WithProviderName(providerName)
	}

	parts, err := toGenAIParts(req.Inputs)
	if err != nil {
		return clarity.Response{}, clarity.NewError(clarity.InvalidArgument, err.Error()).WithProviderName(providerName)
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	config := &genai.GenerateContentConfig{}
	if schema, ok := clarity.GetJSONOutput(req.Output); ok {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = toGenAISchema(schema)
	}

	p.log.Debug("generate request", zap.String("model", model), zap.Any("parts", summarizeParts(req.Inputs)))

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return clarity.Response{}, mapError("generate content", err)
	}

	out := clarity.Response{
		Text:     resp.Text(),
		Provider: providerName,
		Model:    model,
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = clarity.Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return out, nil
}

// UploadFile sends a local file to the Gemini file API.
func (p *Provider) UploadFile(ctx context.Context, path, mime string) (clarity.RemoteFile, error) {
	f, err := p.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{MIMEType: mime})
	if err != nil {
		return clarity.RemoteFile{}, mapError("upload file", err)
	}
	p.log.Debug("file uploaded", zap.String("name", f.Name), zap.String("state", string(f.State)))
	return toRemoteFile(f), nil
}

// GetFile fetches the current state of an uploaded file.
func (p *Provider) GetFile(ctx context.Context, name string) (clarity.RemoteFile, error) {
	f, err := p.client.Files.Get(ctx, name, nil)
	if err != nil {
		return clarity.RemoteFile{}, mapError("get file", err)
	}
	return toRemoteFile(f), nil
}

// DeleteFile removes an uploaded file from Gemini storage.
func (p *Provider) DeleteFile(ctx context.Context, name string) error {
	if _, err := p.client.Files.Delete(ctx, name, nil); err != nil {
		return mapError("delete file", err)
	}
	return nil
}

func toRemoteFile(f *genai.File) clarity.RemoteFile {
	rf := clarity.RemoteFile{
		Name: f.Name,
		URI:  f.URI,
		MIME: f.MIMEType,
	}
	switch f.State {
	case genai.FileStateProcessing:
		rf.State = clarity.FileStateProcessing
	case genai.FileStateFailed:
		rf.State = clarity.FileStateFailed
	default:
		rf.State = clarity.FileStateActive
	}
	return rf
}

func toGenAIParts(inputs []clarity.Input) ([]*genai.Part, error) {
	out := make([]*genai.Part, 0, len(inputs))
	for i, in := range inputs {
		if text, ok := clarity.AsTextInput(in); ok {
			out = append(out, genai.NewPartFromText(text))
			continue
		}
		if data, mime, ok := clarity.AsFileInput(in); ok {
			if len(data) == 0 {
				return nil, fmt.Errorf("input %d: file data is empty", i)
			}
			if mime == "" {
				mime = "image/png"
			}
			out = append(out, genai.NewPartFromBytes(data, mime))
			continue
		}
		if uri, mime, ok := clarity.AsRemoteFileInput(in); ok {
			if uri == "" {
				return nil, fmt.Errorf("input %d: remote file URI is empty", i)
			}
			out = append(out, genai.NewPartFromURI(uri, mime))
			continue
		}
		return nil, fmt.Errorf("input %d: unknown input type %T", i, in)
	}
	return out, nil
}

func toGenAISchema(s *clarity.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Items:    toGenAISchema(s.Items),
		Required: s.Required,
	}
	switch s.Type {
	case clarity.SchemaArray:
		out.Type = genai.TypeArray
	case clarity.SchemaObject:
		out.Type = genai.TypeObject
	case clarity.SchemaNumber:
		out.Type = genai.TypeNumber
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenAISchema(prop)
		}
	}
	return out
}

func mapError(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return clarity.NewError(clarity.Timeout, op).WithCause(err).WithProviderName(providerName)
	case apiStatus(err) == http.StatusTooManyRequests:
		return clarity.NewError(clarity.RateLimited, op).WithCause(err).WithProviderName(providerName).WithRetryable(true)
	}
	return clarity.NewError(clarity.Unavailable, op).WithCause(err).WithProviderName(providerName)
}

// apiStatus returns the HTTP status carried by a genai.APIError, or 0.
func apiStatus(err error) int {
	var v genai.APIError
	if errors.As(err, &v) {
		return v.Code
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return p.Code
	}
	return 0
}

func summarizeParts(inputs []clarity.Input) []map[string]any {
	var out []map[string]any
	for _, in := range inputs {
		if text, ok := clarity.AsTextInput(in); ok {
			out = append(out, map[string]any{"type": "text", "len": len(text)})
		} else if data, mime, ok := clarity.AsFileInput(in); ok {
			out = append(out, map[string]any{"type": "file", "mime": mime, "len": len(data)})
		} else if uri, mime, ok := clarity.AsRemoteFileInput(in); ok {
			out = append(out, map[string]any{"type": "remote", "mime": mime, "uri": uri})
		}
	}
	return out
}
