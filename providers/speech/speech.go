// Package speech provides a Google Cloud Text-to-Speech implementation of the
// clarity.Synthesizer seam.
//
// Example usage:
//
//	provider, err := speech.New(ctx, speech.WithCredentialsFile(creds.GoogleCredentialsFile))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer provider.Close()
//	svc := clarity.NewService(creds, clarity.WithSynthesizer(provider))
//
// Defaults: en-US, neutral voice, MP3 encoding.
package speech

import (
	"context"
	"errors"

	"github.com/montanaflynn/clarity"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const providerName = "google-tts"

// DefaultLanguageCode is the voice language used when none is configured.
const DefaultLanguageCode = "en-US"

// ErrCredentialsRequired is returned when no credential file is configured.
var ErrCredentialsRequired = errors.New("speech: credentials file required (use WithCredentialsFile)")

// Option configures the speech provider.
type Option func(*settings)

type settings struct {
	credentialsFile string
	language        string
	gender          texttospeechpb.SsmlVoiceGender
	logger          *zap.Logger
	clientOpts      []option.ClientOption
}

// WithCredentialsFile sets the service account JSON used to authenticate.
func WithCredentialsFile(path string) Option {
	return func(s *settings) { s.credentialsFile = path }
}

// WithLanguage overrides the voice language code.
func WithLanguage(code string) Option {
	return func(s *settings) {
		if code != "" {
			s.language = code
		}
	}
}

// WithVoiceGender overrides the neutral voice.
func WithVoiceGender(g texttospeechpb.SsmlVoiceGender) Option {
	return func(s *settings) { s.gender = g }
}

// WithClientOptions passes extra options to the underlying client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(s *settings) { s.clientOpts = append(s.clientOpts, opts...) }
}

// WithLogger sets a custom logger for provider-level logs.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// Provider synthesizes MP3 speech with Google Cloud Text-to-Speech.
type Provider struct {
	client   *texttospeech.Client
	language string
	gender   texttospeechpb.SsmlVoiceGender
	log      *zap.Logger
}

// New constructs the provider. The client connects lazily.
func New(ctx context.Context, opts ...Option) (*Provider, error) {
	cfg := settings{
		language: DefaultLanguageCode,
		gender:   texttospeechpb.SsmlVoiceGender_NEUTRAL,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.credentialsFile == "" {
		return nil, ErrCredentialsRequired
	}

	clientOpts := append([]option.ClientOption{option.WithCredentialsFile(cfg.credentialsFile)}, cfg.clientOpts...)
	client, err := texttospeech.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, clarity.NewError(clarity.Unauthorized, "new text-to-speech client").WithCause(err).WithProviderName(providerName)
	}

	return &Provider{
		client:   client,
		language: cfg.language,
		gender:   cfg.gender,
		log:      cfg.logger.With(zap.String("provider", providerName)),
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// Synthesize returns MP3 audio for text.
func (p *Provider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := p.client.SynthesizeSpeech(ctx, p.request(text))
	if err != nil {
		return nil, clarity.NewError(clarity.Unavailable, "synthesize speech").WithCause(err).WithProviderName(providerName)
	}
	p.log.Debug("speech synthesized", zap.Int("chars", len(text)), zap.Int("bytes", len(resp.GetAudioContent())))
	return resp.GetAudioContent(), nil
}

func (p *Provider) request(text string) *texttospeechpb.SynthesizeSpeechRequest {
	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: p.language,
			SsmlGender:   p.gender,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}
}

// Close releases the underlying connection.
func (p *Provider) Close() error {
	return p.client.Close()
}
