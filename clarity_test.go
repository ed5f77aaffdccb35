package clarity_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/montanaflynn/clarity"
)

func TestError(t *testing.T) {
	root := errors.New("boom")

	err := clarity.NewError(clarity.InvalidArgument, "empty input").WithCause(root).WithProviderName("gemini")
	if err.Code() != clarity.InvalidArgument {
		t.Fatalf("expected code %s, got %s", clarity.InvalidArgument, err.Code())
	}
	if err.Message() != "empty input" {
		t.Fatalf("unexpected message %q", err.Message())
	}
	if err.ProviderName() != "gemini" {
		t.Fatalf("unexpected provider %q", err.ProviderName())
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected cause to unwrap")
	}

	if got := clarity.GetErrorCode(fmt.Errorf("wrap: %w", err)); got != clarity.InvalidArgument {
		t.Fatalf("wrapped code mismatch: %s", got)
	}
	if got := clarity.GetErrorCode(root); got != clarity.Internal {
		t.Fatalf("plain errors should map to internal, got %s", got)
	}
	if got := clarity.GetErrorCode(nil); got != "" {
		t.Fatalf("nil error should have no code, got %s", got)
	}

	if !clarity.IsRetryable(clarity.NewError(clarity.RateLimited, "slow down")) {
		t.Fatalf("rate limited should be retryable")
	}
	if !clarity.IsRetryable(clarity.NewError(clarity.Internal, "flaky").WithRetryable(true)) {
		t.Fatalf("explicit retryable flag should win")
	}
	if clarity.IsRetryable(clarity.NewError(clarity.InvalidArgument, "invalid")) {
		t.Fatalf("invalid argument should not be retryable")
	}
}

func TestResultReason(t *testing.T) {
	tests := []struct {
		name string
		res  clarity.Result
		want string
	}{
		{"live has no reason", clarity.Result{Outcome: clarity.OutcomeLive, Text: "ok"}, ""},
		{"failed text wins", clarity.Result{Outcome: clarity.OutcomeFailed, Text: "Error generating content: x", Err: errors.New("x")}, "Error generating content: x"},
		{"failed falls back to err", clarity.Result{Outcome: clarity.OutcomeFailed, Err: errors.New("quota")}, "quota"},
		{"failed without detail", clarity.Result{Outcome: clarity.OutcomeFailed}, "provider failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.Reason(); got != tt.want {
				t.Fatalf("Reason() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	t.Run("empty inputs rejected", func(t *testing.T) {
		err := clarity.ValidateRequest(clarity.Request{Output: clarity.OutputText()})
		if clarity.GetErrorCode(err) != clarity.InvalidArgument {
			t.Fatalf("expected invalid_argument, got %v", err)
		}
	})

	t.Run("missing output rejected", func(t *testing.T) {
		err := clarity.ValidateRequest(clarity.Request{Inputs: []clarity.Input{clarity.InputText("test")}})
		if clarity.GetErrorCode(err) != clarity.InvalidArgument {
			t.Fatalf("expected invalid_argument, got %v", err)
		}
	})

	t.Run("empty file rejected", func(t *testing.T) {
		err := clarity.ValidateRequest(clarity.Request{
			Inputs: []clarity.Input{clarity.InputFile(nil, "image/png")},
			Output: clarity.OutputText(),
		})
		if clarity.GetErrorCode(err) != clarity.InvalidArgument {
			t.Fatalf("expected invalid_argument, got %v", err)
		}
	})

	t.Run("valid", func(t *testing.T) {
		if err := clarity.ValidateRequest(clarity.Request{
			Inputs: []clarity.Input{clarity.InputText("a"), clarity.InputRemoteFile("files/1", "audio/mpeg")},
			Output: clarity.OutputJSON(clarity.TranscriptSchema),
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestInputAccessors(t *testing.T) {
	if s, ok := clarity.AsTextInput(clarity.InputText("hi")); !ok || s != "hi" {
		t.Fatalf("text input mismatch: %q %v", s, ok)
	}
	if _, _, ok := clarity.AsFileInput(clarity.InputText("hi")); ok {
		t.Fatalf("text input should not be a file")
	}
	uri, mime, ok := clarity.AsRemoteFileInput(clarity.InputRemoteFile("https://files/1", "video/mp4"))
	if !ok || uri != "https://files/1" || mime != "video/mp4" {
		t.Fatalf("remote input mismatch: %q %q %v", uri, mime, ok)
	}
}

func TestInputImageFromPath(t *testing.T) {
	dir := t.TempDir()

	png := filepath.Join(dir, "diagram.jpg")
	if err := os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n...."), 0o600); err != nil {
		t.Fatal(err)
	}
	in, err := clarity.InputImageFromPath(png)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, mime, _ := clarity.AsFileInput(in); mime != "image/png" {
		t.Fatalf("magic bytes should win over extension, got %s", mime)
	}

	odd := filepath.Join(dir, "chart.jpeg")
	if err := os.WriteFile(odd, []byte("??"), 0o600); err != nil {
		t.Fatal(err)
	}
	in, err = clarity.InputImageFromPath(odd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, mime, _ := clarity.AsFileInput(in); mime != "image/jpeg" {
		t.Fatalf("expected extension fallback, got %s", mime)
	}

	if _, err := clarity.InputImageFromPath(filepath.Join(dir, "missing.png")); clarity.GetErrorCode(err) != clarity.InvalidArgument {
		t.Fatalf("expected invalid_argument for missing file, got %v", err)
	}
}

func TestMIMEFromPath(t *testing.T) {
	tests := map[string]string{
		"talk.mp4":  "video/mp4",
		"talk.MP3":  "audio/mpeg",
		"talk.wav":  "audio/wav",
		"chart.png": "image/png",
		"notes":     "application/octet-stream",
	}
	for path, want := range tests {
		if got := clarity.MIMEFromPath(path); got != want {
			t.Errorf("MIMEFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestResponseDecodeJSON(t *testing.T) {
	var segs []clarity.TranscriptSegment
	resp := clarity.Response{Text: ` [{"start":0,"end":21.5,"text":"Hello class","isl":"HELLO CLASS"}] `}
	if err := resp.DecodeJSON(&segs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 1 || segs[0].End != 21.5 || segs[0].ISLGloss != "HELLO CLASS" {
		t.Fatalf("unexpected segments: %+v", segs)
	}

	if err := (clarity.Response{Text: "not json"}).DecodeJSON(&segs); clarity.GetErrorCode(err) != clarity.OutputInvalid {
		t.Fatalf("expected output_invalid, got %v", err)
	}
	if err := (clarity.Response{}).DecodeJSON(&segs); clarity.GetErrorCode(err) != clarity.OutputInvalid {
		t.Fatalf("expected output_invalid for empty text, got %v", err)
	}
}
