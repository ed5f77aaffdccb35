// Package vision provides a Google Cloud Vision implementation of the
// clarity.TextDetector seam (optical text detection on diagrams).
//
// Example usage:
//
//	provider, err := vision.New(ctx, vision.WithCredentialsFile(creds.GoogleCredentialsFile))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer provider.Close()
//	svc := clarity.NewService(creds, clarity.WithTextDetector(provider))
package vision

import (
	"context"
	"errors"

	"github.com/montanaflynn/clarity"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const providerName = "google-vision"

// ErrCredentialsRequired is returned when no credential file is configured.
var ErrCredentialsRequired = errors.New("vision: credentials file required (use WithCredentialsFile)")

// Option configures the vision provider.
type Option func(*settings)

type settings struct {
	credentialsFile string
	logger          *zap.Logger
	clientOpts      []option.ClientOption
}

// WithCredentialsFile sets the service account JSON used to authenticate.
func WithCredentialsFile(path string) Option {
	return func(s *settings) { s.credentialsFile = path }
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

// Provider detects text with the Cloud Vision image annotator.
type Provider struct {
	client *vision.ImageAnnotatorClient
	log    *zap.Logger
}

// New constructs the provider. The client connects lazily.
func New(ctx context.Context, opts ...Option) (*Provider, error) {
	cfg := settings{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.credentialsFile == "" {
		return nil, ErrCredentialsRequired
	}

	clientOpts := append([]option.ClientOption{option.WithCredentialsFile(cfg.credentialsFile)}, cfg.clientOpts...)
	client, err := vision.NewImageAnnotatorClient(ctx, clientOpts...)
	if err != nil {
		return nil, clarity.NewError(clarity.Unauthorized, "new image annotator client").WithCause(err).WithProviderName(providerName)
	}
	return &Provider{
		client: client,
		log:    cfg.logger.With(zap.String("provider", providerName)),
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// DetectText returns the full text of the first annotation, or "" when the
// image contains no text.
func (p *Provider) DetectText(ctx context.Context, image []byte) (string, error) {
	resp, err := p.client.BatchAnnotateImages(ctx, textDetectionRequest(image))
	if err != nil {
		return "", clarity.NewError(clarity.Unavailable, "text detection").WithCause(err).WithProviderName(providerName)
	}
	text, err := firstAnnotation(resp)
	if err != nil {
		return "", err
	}
	p.log.Debug("text detected", zap.Int("chars", len(text)))
	return text, nil
}

func textDetectionRequest(image []byte) *visionpb.BatchAnnotateImagesRequest {
	return &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_TEXT_DETECTION}},
		}},
	}
}

func firstAnnotation(resp *visionpb.BatchAnnotateImagesResponse) (string, error) {
	if len(resp.GetResponses()) == 0 {
		return "", nil
	}
	r := resp.GetResponses()[0]
	if e := r.GetError(); e != nil && e.GetMessage() != "" {
		return "", clarity.NewError(clarity.Unavailable, e.GetMessage()).WithProviderName(providerName)
	}
	if len(r.GetTextAnnotations()) == 0 {
		return "", nil
	}
	return r.GetTextAnnotations()[0].GetDescription(), nil
}

// Close releases the underlying connection.
func (p *Provider) Close() error {
	return p.client.Close()
}
