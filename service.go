package clarity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Mock payloads returned when a capability has no usable credentials.
const (
	MockImageExplanation = "[MOCK] Detailed diagram explanation (relationships, trends, components)..."
	MockMediaTranscript  = "[MOCK] Audio/Video transcript (Gemini fallback)..."
	MockTranscript       = "[MOCK] Transcribed text from audio file... (The student is explaining how apps work so fast by using caching and CDNs)"
	MockDetectedText     = "[MOCK] Detected Text: Diagram Labels (X-Axis, Y-Axis, Growth Trend)"
	VisionFallbackText   = "[MOCK] Vision API Error Fallback"
	NoTextDetected       = "No text detected."
)

const (
	DefaultPollInterval  = 2 * time.Second
	DefaultMaxWait       = 10 * time.Minute
	mockEchoLength       = 50
	remoteCleanupTimeout = 30 * time.Second
)

// ISLGlossRules are embedded in the transcription prompt so every segment
// carries a gloss produced under the same rules as the isl kind.
const ISLGlossRules = `ISL Gloss Rules:
1. Remove all articles (a, an, the)
2. Use base verb forms only (no -ing, -ed, -s endings)
3. Place time markers at the beginning
4. Use topic-comment structure (topic first, then comment)
5. Remove prepositions where context is clear
6. Keep only essential content words
7. Use ALL CAPS for each gloss word
8. Separate words with spaces`

var transcriptionPrompt = `Please provide a complete and accurate transcription of the speech in this media file, split into segments of approximately 20-30 seconds each.

For EACH segment, also provide an Indian Sign Language (ISL) Gloss translation following these rules:
` + ISLGlossRules + `

Output must strictly follow the provided JSON schema.`

// TranscriptSchema constrains transcription output to an array of segments.
var TranscriptSchema = &Schema{
	Type: SchemaArray,
	Items: &Schema{
		Type: SchemaObject,
		Properties: map[string]*Schema{
			"start": {Type: SchemaNumber},
			"end":   {Type: SchemaNumber},
			"text":  {Type: SchemaString},
			"isl":   {Type: SchemaString},
		},
		Required: []string{"start", "end", "text", "isl"},
	},
}

// Observer receives one call per adapter invocation.
type Observer interface {
	ObserveResult(capability Capability, outcome Outcome, elapsed time.Duration)
}

// Option configures a Service.
type Option func(*Service)

// WithGenerator sets the provider used for text and image generation.
func WithGenerator(g Generator) Option {
	return func(s *Service) { s.generator = g }
}

// WithMediaProcessor sets the provider used for media transcription.
func WithMediaProcessor(m MediaProcessor) Option {
	return func(s *Service) { s.media = m }
}

// WithSynthesizer sets the text-to-speech provider.
func WithSynthesizer(sy Synthesizer) Option {
	return func(s *Service) { s.synthesizer = sy }
}

// WithTextDetector sets the image text detection provider.
func WithTextDetector(d TextDetector) Option {
	return func(s *Service) { s.detector = d }
}

// WithPrompts overrides the embedded prompt templates.
func WithPrompts(p *PromptStore) Option {
	return func(s *Service) {
		if p != nil {
			s.prompts = p
		}
	}
}

// WithPolling sets the transcription poll interval and the maximum time to
// wait for remote processing. Non-positive values keep the defaults.
func WithPolling(interval, maxWait time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.pollInterval = interval
		}
		if maxWait > 0 {
			s.maxWait = maxWait
		}
	}
}

// WithLogger sets a custom logger for adapter logs.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithObserver registers an observer for adapter outcomes.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// Service exposes every capability. It is safe for concurrent use.
type Service struct {
	creds        Credentials
	generator    Generator
	media        MediaProcessor
	synthesizer  Synthesizer
	detector     TextDetector
	prompts      *PromptStore
	pollInterval time.Duration
	maxWait      time.Duration
	log          *zap.Logger
	observer     Observer
}

// NewService builds a Service. Capabilities whose provider or credential is
// missing run in mock mode.
func NewService(creds Credentials, opts ...Option) *Service {
	s := &Service{
		creds:        creds,
		prompts:      DefaultPromptStore(),
		pollInterval: DefaultPollInterval,
		maxWait:      DefaultMaxWait,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Modes reports, per capability, whether calls go to a live provider.
func (s *Service) Modes() map[Capability]Outcome {
	mode := func(live bool) Outcome {
		if live {
			return OutcomeLive
		}
		return OutcomeMock
	}
	return map[Capability]Outcome{
		CapabilityContent:       mode(s.generativeLive()),
		CapabilityImageExplain:  mode(s.generativeLive()),
		CapabilityTranscription: mode(s.mediaLive()),
		CapabilitySpeech:        mode(s.speechLive()),
		CapabilityTextDetection: mode(s.detectionLive()),
	}
}

func (s *Service) generativeLive() bool {
	return s.creds.HasGenerative() && s.generator != nil
}

func (s *Service) mediaLive() bool {
	return s.creds.HasGemini() && s.media != nil
}

func (s *Service) speechLive() bool {
	return s.creds.HasGoogleCloud() && s.synthesizer != nil
}

func (s *Service) detectionLive() bool {
	return s.creds.HasGoogleCloud() && s.detector != nil
}

func (s *Service) observe(c Capability, start time.Time, r Result) Result {
	if s.observer != nil {
		s.observer.ObserveResult(c, r.Outcome, time.Since(start))
	}
	if r.Failed() {
		s.log.Warn("adapter failed", zap.String("capability", string(c)), zap.Error(r.Err))
	}
	return r
}

// GenerateContent applies the prompt template for kind to text.
func (s *Service) GenerateContent(ctx context.Context, kind Kind, text string) Result {
	start := time.Now()
	if !s.generativeLive() {
		return s.observe(CapabilityContent, start, mockResult(fmt.Sprintf("[MOCK] Generated %s result for: %s...", kind, truncateRunes(text, mockEchoLength))))
	}

	template, err := s.prompts.Load(TemplateFor(kind))
	if err != nil {
		return s.observe(CapabilityContent, start, failedResult("Error: Prompt not found.", NewError(NotFound, "prompt not found for "+string(kind)).WithCause(err)))
	}

	resp, err := s.generator.Generate(ctx, Request{
		Inputs: []Input{InputText(template + "\n" + text)},
		Output: OutputText(),
	})
	if err != nil {
		return s.observe(CapabilityContent, start, failedResult("Error generating content: "+err.Error(), err))
	}
	s.log.Debug("content generated", zap.String("kind", string(kind)), zap.String("provider", resp.Provider), zap.Int("tokens", resp.Usage.TotalTokens))
	return s.observe(CapabilityContent, start, liveResult(resp.Text))
}

// ExplainImage describes the diagram stored at imagePath.
func (s *Service) ExplainImage(ctx context.Context, imagePath string) Result {
	start := time.Now()
	if !s.generativeLive() {
		return s.observe(CapabilityImageExplain, start, mockResult(MockImageExplanation))
	}

	fail := func(err error) Result {
		return s.observe(CapabilityImageExplain, start, failedResult("Error explaining image: "+err.Error(), err))
	}

	template, err := s.prompts.Load(PromptDiagramExplain)
	if err != nil {
		return fail(NewError(NotFound, "diagram prompt not found").WithCause(err))
	}
	img, err := InputImageFromPath(imagePath)
	if err != nil {
		return fail(err)
	}

	resp, err := s.generator.Generate(ctx, Request{
		Inputs: []Input{InputText(template), img},
		Output: OutputText(),
	})
	if err != nil {
		return fail(err)
	}
	return s.observe(CapabilityImageExplain, start, liveResult(resp.Text))
}

// TranscribeMedia uploads filePath for asynchronous processing and returns a
// timestamped transcript with an ISL gloss per segment. The remote copy is
// deleted on every path.
func (s *Service) TranscribeMedia(ctx context.Context, filePath string) Result {
	start := time.Now()
	if !s.mediaLive() {
		return s.observe(CapabilityTranscription, start, mockResult(MockMediaTranscript))
	}

	r, err := s.transcribe(ctx, filePath)
	if err != nil {
		return s.observe(CapabilityTranscription, start, failedResult("Error transcribing media: "+err.Error(), err))
	}
	return s.observe(CapabilityTranscription, start, r)
}

func (s *Service) transcribe(ctx context.Context, filePath string) (Result, error) {
	mime := MIMEFromPath(filePath)
	s.log.Debug("uploading media", zap.String("path", filePath), zap.String("mime", mime))

	file, err := s.media.UploadFile(ctx, filePath, mime)
	if err != nil {
		return Result{}, fmt.Errorf("upload: %w", err)
	}
	defer s.deleteRemote(ctx, file.Name)

	file, err = s.awaitProcessing(ctx, file)
	if err != nil {
		return Result{}, err
	}
	if file.MIME != "" {
		mime = file.MIME
	}

	resp, err := s.media.Generate(ctx, Request{
		Inputs: []Input{InputText(transcriptionPrompt), InputRemoteFile(file.URI, mime)},
		Output: OutputJSON(TranscriptSchema),
	})
	if err != nil {
		return Result{}, err
	}

	var segments []TranscriptSegment
	if err := resp.DecodeJSON(&segments); err != nil {
		return Result{}, err
	}
	s.log.Debug("transcript generated", zap.String("file", file.Name), zap.Int("segments", len(segments)))

	r := liveResult(strings.TrimSpace(resp.Text))
	r.Segments = segments
	return r, nil
}

// awaitProcessing polls while the provider reports the file as processing,
// bounded by maxWait and ctx.
func (s *Service) awaitProcessing(ctx context.Context, file RemoteFile) (RemoteFile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.maxWait)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for file.State == FileStateProcessing {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return file, NewError(Timeout, fmt.Sprintf("file %s still processing after %s", file.Name, s.maxWait)).WithCause(ctx.Err())
			}
			return file, ctx.Err()
		case <-ticker.C:
		}

		name := file.Name
		var err error
		file, err = s.media.GetFile(ctx, name)
		if err != nil {
			return file, fmt.Errorf("get file %s: %w", name, err)
		}
	}

	if file.State == FileStateFailed {
		return file, NewError(Unavailable, "File processing failed on Gemini side.")
	}
	return file, nil
}

func (s *Service) deleteRemote(ctx context.Context, name string) {
	if name == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), remoteCleanupTimeout)
	defer cancel()
	if err := s.media.DeleteFile(ctx, name); err != nil {
		s.log.Warn("remote file cleanup failed", zap.String("file", name), zap.Error(err))
		return
	}
	s.log.Debug("remote file deleted", zap.String("file", name))
}

// TranscribeAudioFile transcribes filePath, degrading to a fixed mock
// transcript when the live attempt fails or returns nothing. It never fails.
func (s *Service) TranscribeAudioFile(ctx context.Context, filePath string) Result {
	r := s.TranscribeMedia(ctx, filePath)
	if r.Failed() || strings.TrimSpace(r.Text) == "" {
		s.log.Info("transcription fell back to mock", zap.String("reason", r.Reason()))
		return mockResult(MockTranscript)
	}
	return r
}

// SynthesizeText renders text as MP3 audio. A mock result carries no audio;
// callers should let the client render speech locally.
func (s *Service) SynthesizeText(ctx context.Context, text string) Result {
	start := time.Now()
	if !s.speechLive() {
		s.log.Debug("speech credentials not resolved")
		return s.observe(CapabilitySpeech, start, Result{Outcome: OutcomeMock})
	}

	audio, err := s.synthesizer.Synthesize(ctx, StripMarkdown(text))
	if err != nil {
		return s.observe(CapabilitySpeech, start, failedResult("", err))
	}
	if len(audio) == 0 {
		return s.observe(CapabilitySpeech, start, failedResult("", NewError(OutputInvalid, "empty audio")))
	}
	return s.observe(CapabilitySpeech, start, Result{Outcome: OutcomeLive, Audio: audio})
}

// AnalyzeImageText returns the text printed in the image at imagePath.
func (s *Service) AnalyzeImageText(ctx context.Context, imagePath string) Result {
	start := time.Now()
	if !s.detectionLive() {
		return s.observe(CapabilityTextDetection, start, mockResult(MockDetectedText))
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return s.observe(CapabilityTextDetection, start, failedResult(VisionFallbackText, err))
	}
	text, err := s.detector.DetectText(ctx, data)
	if err != nil {
		return s.observe(CapabilityTextDetection, start, failedResult(VisionFallbackText, err))
	}
	if text == "" {
		text = NoTextDetected
	}
	return s.observe(CapabilityTextDetection, start, liveResult(text))
}

// StripMarkdown removes the markdown punctuation * # _ : ; so it is not read aloud.
func StripMarkdown(text string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '*', '#', '_', ':', ';':
			return -1
		}
		return r
	}, text)
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
