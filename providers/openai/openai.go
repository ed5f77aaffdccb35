// Package openai provides an OpenAI implementation of the clarity.Generator
// seam using the Responses API. It serves text transformations and diagram
// explanation; media transcription stays on Gemini.
//
// Example usage:
//
//	provider, err := openai.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	svc := clarity.NewService(creds, clarity.WithGenerator(provider))
//
// The provider automatically uses the OPENAI_API_KEY environment variable
// if no API key is explicitly provided via WithAPIKey or WithAPIKeyFromEnv.
//
// Default model: gpt-4.1-mini
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/montanaflynn/clarity"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultModelName is the OpenAI model used when no override is provided.
	DefaultModelName = "gpt-4.1-mini"

	providerName = "openai"
)

var (
	// ErrAPIKeyRequired is returned when no API key is configured.
	ErrAPIKeyRequired = errors.New("openai: API key required (set OPENAI_API_KEY or use WithAPIKey/WithAPIKeyFromEnv)")
)

// Option configures the OpenAI provider.
type Option func(*settings)

type settings struct {
	apiKey    string
	apiKeySet bool
	model     string
	logger    *zap.Logger
}

// WithAPIKey sets the API key explicitly.
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

// Provider is an OpenAI-backed implementation of clarity.Generator.
type Provider struct {
	client openai.Client
	model  string
	log    *zap.Logger
}

// New constructs an OpenAI provider using functional options.
func New(opts ...Option) (*Provider, error) {
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
		cfg.apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		if cfg.apiKey == "" {
			return nil, ErrAPIKeyRequired
		}
	}

	return &Provider{
		client: openai.NewClient(option.WithAPIKey(cfg.apiKey)),
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

// Generate performs text generation from ordered text and image inputs.
func (p *Provider) Generate(ctx context.Context, req clarity.Request) (clarity.Response, error) {
	if err := clarity.ValidateRequest(req); err != nil {
		return clarity.Response{}, err.WithProviderName(providerName)
	}
	if !clarity.IsTextOutput(req.Output) {
		return clarity.Response{}, clarity.NewError(clarity.Unsupported, "only text output is supported").WithProviderName(providerName)
	}

	item, err := toResponseInput(req.Inputs)
	if err != nil {
		return clarity.Response{}, err
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	p.log.Debug("generate request", zap.String("model", model), zap.Int("inputs", len(req.Inputs)))

	resp, err := p.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: shared.ChatModel(model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{item},
		},
	})
	if err != nil {
		return clarity.Response{}, mapError("generate content", err)
	}

	return clarity.Response{
		Text:     resp.OutputText(),
		Provider: providerName,
		Model:    model,
		Usage: clarity.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
	}, nil
}

// toResponseInput flattens ordered inputs into a single user message.
func toResponseInput(inputs []clarity.Input) (responses.ResponseInputItemUnionParam, error) {
	content := make(responses.ResponseInputMessageContentListParam, 0, len(inputs))
	for i, in := range inputs {
		if text, ok := clarity.AsTextInput(in); ok {
			content = append(content, responses.ResponseInputContentUnionParam{
				OfInputText: &responses.ResponseInputTextParam{Text: text},
			})
			continue
		}
		if data, mime, ok := clarity.AsFileInput(in); ok {
			if len(data) == 0 {
				return responses.ResponseInputItemUnionParam{}, clarity.NewError(clarity.InvalidArgument, fmt.Sprintf("input %d: file data is empty", i))
			}
			if mime == "" {
				mime = "image/png"
			}
			if !strings.HasPrefix(mime, "image/") {
				return responses.ResponseInputItemUnionParam{}, clarity.NewError(clarity.Unsupported, fmt.Sprintf("input %d: %s is not supported", i, mime))
			}
			dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
			content = append(content, responses.ResponseInputContentUnionParam{
				OfInputImage: &responses.ResponseInputImageParam{
					Detail:   responses.ResponseInputImageDetailAuto,
					ImageURL: openai.String(dataURL),
				},
			})
			continue
		}
		return responses.ResponseInputItemUnionParam{}, clarity.NewError(clarity.Unsupported, fmt.Sprintf("input %d: unsupported input type %T", i, in)).WithProviderName(providerName)
	}

	return responses.ResponseInputItemUnionParam{
		OfMessage: &responses.EasyInputMessageParam{
			Role:    responses.EasyInputMessageRoleUser,
			Type:    responses.EasyInputMessageTypeMessage,
			Content: responses.EasyInputMessageContentUnionParam{OfInputItemContentList: content},
		},
	}, nil
}

// mapError classifies SDK errors. A 429 is retryable.
func mapError(op string, err error) error {
	e := clarity.NewError(clarity.Unavailable, op).WithCause(err).WithProviderName(providerName)
	var apiErr *openai.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		e = clarity.NewError(clarity.Timeout, op).WithCause(err).WithProviderName(providerName)
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests:
		e = clarity.NewError(clarity.RateLimited, op).WithCause(err).WithProviderName(providerName).WithRetryable(true)
	}
	return e
}
