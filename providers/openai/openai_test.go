package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/montanaflynn/clarity"

	"github.com/openai/openai-go/v3"
)

// Compile-time check that Provider implements clarity.Generator.
var _ clarity.Generator = (*Provider)(nil)

// Note: We avoid real API calls by using dummy keys; New does not make network requests.

func TestOpenAI_New_APIKeyHandling(t *testing.T) {
	t.Run("explicit empty key errors", func(t *testing.T) {
		_, err := New(WithAPIKey(""))
		if err != ErrAPIKeyRequired {
			t.Fatalf("expected ErrAPIKeyRequired, got %v", err)
		}
	})

	t.Run("explicit non-empty key ok", func(t *testing.T) {
		_, err := New(WithAPIKey("dummy"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("fallback env set", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "dummy")
		_, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("fallback env missing errors", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		_, err := New()
		if err != ErrAPIKeyRequired {
			t.Fatalf("expected ErrAPIKeyRequired, got %v", err)
		}
	})
}

func TestGenerate_RejectsBeforeNetwork(t *testing.T) {
	p, err := New(WithAPIKey("dummy"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	t.Run("json output unsupported", func(t *testing.T) {
		_, err := p.Generate(ctx, clarity.Request{
			Inputs: []clarity.Input{clarity.InputText("x")},
			Output: clarity.OutputJSON(clarity.TranscriptSchema),
		})
		if clarity.GetErrorCode(err) != clarity.Unsupported {
			t.Fatalf("expected unsupported, got %v", err)
		}
	})

	t.Run("remote file unsupported", func(t *testing.T) {
		_, err := p.Generate(ctx, clarity.Request{
			Inputs: []clarity.Input{clarity.InputRemoteFile("uri", "audio/mpeg")},
			Output: clarity.OutputText(),
		})
		if clarity.GetErrorCode(err) != clarity.Unsupported {
			t.Fatalf("expected unsupported, got %v", err)
		}
	})

	t.Run("empty inputs", func(t *testing.T) {
		_, err := p.Generate(ctx, clarity.Request{Output: clarity.OutputText()})
		if clarity.GetErrorCode(err) != clarity.InvalidArgument {
			t.Fatalf("expected invalid_argument, got %v", err)
		}
	})
}

func TestToResponseInput_Image(t *testing.T) {
	item, err := toResponseInput([]clarity.Input{
		clarity.InputText("explain"),
		clarity.InputFile([]byte{0xFF, 0xD8, 0xFF, 0xE0}, "image/jpeg"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.OfMessage == nil {
		t.Fatalf("expected message item")
	}
	content := item.OfMessage.Content.OfInputItemContentList
	if len(content) != 2 {
		t.Fatalf("expected 2 content parts, got %d", len(content))
	}
	if content[1].OfInputImage == nil {
		t.Fatalf("expected image part")
	}

	if _, err := toResponseInput([]clarity.Input{clarity.InputFile([]byte("abc"), "audio/wav")}); clarity.GetErrorCode(err) != clarity.Unsupported {
		t.Fatalf("expected unsupported for audio, got %v", err)
	}
}

func TestMapError(t *testing.T) {
	t.Run("429 is rate limited and retryable", func(t *testing.T) {
		err := mapError("generate content", fmt.Errorf("post: %w", &openai.Error{StatusCode: http.StatusTooManyRequests}))
		if clarity.GetErrorCode(err) != clarity.RateLimited {
			t.Fatalf("expected rate_limited, got %s", clarity.GetErrorCode(err))
		}
		if !clarity.IsRetryable(err) {
			t.Fatalf("expected retryable")
		}
	})

	t.Run("other status is unavailable", func(t *testing.T) {
		err := mapError("generate content", &openai.Error{StatusCode: http.StatusInternalServerError})
		if clarity.GetErrorCode(err) != clarity.Unavailable {
			t.Fatalf("expected unavailable, got %s", clarity.GetErrorCode(err))
		}
	})

	t.Run("deadline is timeout", func(t *testing.T) {
		err := mapError("generate content", context.DeadlineExceeded)
		if clarity.GetErrorCode(err) != clarity.Timeout {
			t.Fatalf("expected timeout, got %s", clarity.GetErrorCode(err))
		}
	})

	t.Run("plain error is unavailable", func(t *testing.T) {
		if got := clarity.GetErrorCode(mapError("generate content", errors.New("dial tcp"))); got != clarity.Unavailable {
			t.Fatalf("expected unavailable, got %s", got)
		}
	})
}
