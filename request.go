package clarity

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

//
// Inputs
//

type Input interface{ isInput() }

type textInput struct {
	Text string
}

func (textInput) isInput() {}

func InputText(s string) Input {
	return textInput{Text: s}
}

type fileInput struct {
	Data []byte
	MIME string
}

func (fileInput) isInput() {}

// InputFile is inline file content sent with the request.
func InputFile(data []byte, mime string) Input {
	return fileInput{Data: data, MIME: mime}
}

type remoteFileInput struct {
	URI  string
	MIME string
}

func (remoteFileInput) isInput() {}

// InputRemoteFile references a file previously uploaded through a FileProcessor.
func InputRemoteFile(uri, mime string) Input {
	return remoteFileInput{URI: uri, MIME: mime}
}

// Type assertion helpers for providers
func AsTextInput(input Input) (string, bool) {
	if ti, ok := input.(textInput); ok {
		return ti.Text, true
	}
	return "", false
}

func AsFileInput(input Input) ([]byte, string, bool) {
	if fi, ok := input.(fileInput); ok {
		return fi.Data, fi.MIME, true
	}
	return nil, "", false
}

func AsRemoteFileInput(input Input) (string, string, bool) {
	if ri, ok := input.(remoteFileInput); ok {
		return ri.URI, ri.MIME, true
	}
	return "", "", false
}

// InputImageFromPath reads an image and sniffs its MIME type from magic bytes,
// falling back to the file extension.
func InputImageFromPath(path string) (Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError(InvalidArgument, "failed to read image").WithCause(err)
	}
	mime := SniffImageMIME(data)
	if mime == "" {
		mime = MIMEFromPath(path)
	}
	return InputFile(data, mime), nil
}

//
// Output
//

type Output interface{ isOutput() }

type textOutput struct{}

func (textOutput) isOutput() {}

func OutputText() Output {
	return textOutput{}
}

type jsonOutput struct {
	Schema *Schema
}

func (jsonOutput) isOutput() {}

// OutputJSON asks the provider for JSON constrained to schema.
func OutputJSON(schema *Schema) Output {
	return jsonOutput{Schema: schema}
}

func IsTextOutput(output Output) bool {
	_, ok := output.(textOutput)
	return ok
}

func GetJSONOutput(output Output) (*Schema, bool) {
	if jo, ok := output.(jsonOutput); ok {
		return jo.Schema, true
	}
	return nil, false
}

// SchemaType mirrors the OpenAPI subset understood by structured-output providers.
type SchemaType string

const (
	SchemaArray  SchemaType = "array"
	SchemaObject SchemaType = "object"
	SchemaString SchemaType = "string"
	SchemaNumber SchemaType = "number"
)

// Schema is a provider-neutral description of a JSON response shape.
type Schema struct {
	Type       SchemaType
	Items      *Schema
	Properties map[string]*Schema
	Required   []string
}

//
// Request / Response
//

type Request struct {
	Inputs []Input
	Output Output
	Model  string // optional override of the provider default
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type Response struct {
	Text     string
	Provider string
	Model    string
	Usage    Usage
}

// DecodeJSON unmarshals the response text into dst.
func (r Response) DecodeJSON(dst any) error {
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return NewError(OutputInvalid, "empty JSON response")
	}
	if err := json.Unmarshal([]byte(text), dst); err != nil {
		return NewError(OutputInvalid, "response is not valid JSON").WithCause(err)
	}
	return nil
}

//
// Provider seams
//

type Provider interface {
	Name() string
}

// Generator produces text or structured JSON from ordered inputs.
type Generator interface {
	Provider
	Generate(ctx context.Context, req Request) (Response, error)
}

// FileState is the processing state of a remotely uploaded file.
type FileState string

const (
	FileStateProcessing FileState = "PROCESSING"
	FileStateActive     FileState = "ACTIVE"
	FileStateFailed     FileState = "FAILED"
)

// RemoteFile is a file held by a provider's asynchronous processing facility.
type RemoteFile struct {
	Name  string
	URI   string
	MIME  string
	State FileState
}

// FileProcessor uploads media for asynchronous processing by the provider.
type FileProcessor interface {
	UploadFile(ctx context.Context, path, mime string) (RemoteFile, error)
	GetFile(ctx context.Context, name string) (RemoteFile, error)
	DeleteFile(ctx context.Context, name string) error
}

// MediaProcessor can both hold uploaded media and generate from it.
type MediaProcessor interface {
	Generator
	FileProcessor
}

// Synthesizer turns text into encoded speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// TextDetector extracts printed text from an image. It returns "" when the
// image contains no text.
type TextDetector interface {
	DetectText(ctx context.Context, image []byte) (string, error)
}

// ValidateRequest checks the fields every provider needs.
func ValidateRequest(req Request) *Error {
	if len(req.Inputs) == 0 {
		return NewError(InvalidArgument, "inputs must not be empty")
	}
	if req.Output == nil {
		return NewError(InvalidArgument, "output must be specified")
	}
	for _, in := range req.Inputs {
		if v, ok := in.(fileInput); ok && len(v.Data) == 0 {
			return NewError(InvalidArgument, "file data is empty")
		}
	}
	return nil
}

//
// MIME helpers
//

// SniffImageMIME detects image MIME type from magic bytes.
// It supports PNG, JPEG, GIF, and WebP formats.
func SniffImageMIME(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	if string(data[0:4]) == "\x89PNG" {
		return "image/png"
	}
	if data[0] == 0xFF && data[1] == 0xD8 {
		return "image/jpeg"
	}
	if len(data) >= 6 && (string(data[0:6]) == "GIF87a" || string(data[0:6]) == "GIF89a") {
		return "image/gif"
	}
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return "image/webp"
	}
	return ""
}

// MIMEFromPath maps the file extension to a MIME type.
func MIMEFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
