// Package clarity turns lecture media, diagrams and text into accessible
// formats (plain-language rewrites, ISL gloss, ADHD-friendly summaries,
// timestamped transcripts and speech) by delegating to generative-AI and
// Google Cloud providers.
//
// Every capability is exposed as a method on Service and returns a Result
// tagged with the Outcome that produced it: a live provider answer, a
// deterministic mock used when credentials are missing, or a failure carrying
// a descriptive reason. Adapters never return errors to their callers.
//
// Example usage:
//
//	provider, _ := gemini.New(ctx, gemini.WithAPIKey(key))
//	svc := clarity.NewService(creds,
//		clarity.WithGenerator(provider),
//		clarity.WithMediaProcessor(provider),
//	)
//	res := svc.GenerateContent(ctx, clarity.KindSimplify, "Photosynthesis is...")
//	fmt.Println(res.Outcome, res.Text)
//
// Sub-packages:
//
//   - providers/gemini - Google Gemini generation and media processing
//   - providers/openai - OpenAI generation (text and image understanding)
//   - providers/speech - Google Cloud Text-to-Speech
//   - providers/vision - Google Cloud Vision text detection
//   - providers/mock - test doubles for every provider seam
package clarity

import (
	"errors"
	"fmt"
)

//
// Errors
//

type ErrorCode string

const (
	InvalidArgument ErrorCode = "invalid_argument"
	Unauthorized    ErrorCode = "unauthorized"
	RateLimited     ErrorCode = "rate_limited"
	Timeout         ErrorCode = "timeout"
	Unavailable     ErrorCode = "unavailable"
	Unsupported     ErrorCode = "unsupported"
	OutputInvalid   ErrorCode = "output_invalid"
	NotFound        ErrorCode = "not_found"
	Internal        ErrorCode = "internal"
)

// Error is the typed error carried by failed Results and returned by providers.
type Error struct {
	code         ErrorCode
	message      string
	cause        error
	retryable    bool
	providerName string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Code() ErrorCode {
	return e.code
}

// Message returns the human readable message without code or cause.
func (e *Error) Message() string {
	return e.message
}

func (e *Error) Retryable() bool {
	return e.retryable
}

func (e *Error) ProviderName() string {
	return e.providerName
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{
		code:    code,
		message: message,
	}
}

func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

func (e *Error) WithRetryable(retryable bool) *Error {
	e.retryable = retryable
	return e
}

func (e *Error) WithProviderName(name string) *Error {
	e.providerName = name
	return e
}

func IsRetryable(err error) bool {
	var ce *Error
	if errors.As(err, &ce) && ce.Retryable() {
		return true
	}
	code := GetErrorCode(err)
	return code == RateLimited || code == Timeout || code == Unavailable
}

func GetErrorCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return Internal
}

//
// Results
//

// Outcome tags how a Result was produced.
type Outcome string

const (
	OutcomeLive   Outcome = "live"   // answered by the external provider
	OutcomeMock   Outcome = "mock"   // credentials missing, deterministic placeholder
	OutcomeFailed Outcome = "failed" // provider raised or reported a terminal failure
)

// Capability names an adapter; used for logging and metrics labels.
type Capability string

const (
	CapabilityContent       Capability = "content"
	CapabilityImageExplain  Capability = "image_explain"
	CapabilityTranscription Capability = "transcription"
	CapabilitySpeech        Capability = "speech"
	CapabilityTextDetection Capability = "text_detection"
)

// TranscriptSegment is one timestamped span of a media transcript.
type TranscriptSegment struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Text     string  `json:"text"`
	ISLGloss string  `json:"isl"`
}

// Result is what every adapter returns. For failed results Text still holds a
// descriptive message so clients that only render text have something to show.
type Result struct {
	Outcome  Outcome
	Text     string
	Audio    []byte
	Segments []TranscriptSegment
	Err      error
}

func liveResult(text string) Result {
	return Result{Outcome: OutcomeLive, Text: text}
}

func mockResult(text string) Result {
	return Result{Outcome: OutcomeMock, Text: text}
}

func failedResult(text string, err error) Result {
	return Result{Outcome: OutcomeFailed, Text: text, Err: err}
}

// Failed reports whether the provider call failed.
func (r Result) Failed() bool {
	return r.Outcome == OutcomeFailed
}

// Reason returns the failure description, or "" for non-failed results.
func (r Result) Reason() string {
	if r.Outcome != OutcomeFailed {
		return ""
	}
	if r.Text != "" {
		return r.Text
	}
	if r.Err != nil {
		return r.Err.Error()
	}
	return "provider failure"
}
