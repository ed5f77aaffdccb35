package clarity

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

//go:embed prompts/*.txt
var embeddedPrompts embed.FS

// ErrPromptNotFound is returned when no template exists for a prompt name.
var ErrPromptNotFound = errors.New("prompt not found")

// Kind selects a text transformation.
type Kind string

const (
	KindSimplify         Kind = "simplify"
	KindISLGloss         Kind = "isl"
	KindADHDSummary      Kind = "adhd"
	KindCognitiveExplain Kind = "cognitive"
)

// Kinds lists every supported text transformation.
var Kinds = []Kind{KindSimplify, KindISLGloss, KindADHDSummary, KindCognitiveExplain}

// Template file names, looked up in the PromptStore.
const (
	PromptSimplify       = "simplify_prompt.txt"
	PromptISLGloss       = "isl_gloss_prompt.txt"
	PromptADHDSummary    = "adhd_highlight_prompt.txt"
	PromptCognitive      = "cognitive_prompt.txt"
	PromptDiagramExplain = "diagram_explain_prompt.txt"
)

var kindTemplates = map[Kind]string{
	KindSimplify:         PromptSimplify,
	KindISLGloss:         PromptISLGloss,
	KindADHDSummary:      PromptADHDSummary,
	KindCognitiveExplain: PromptCognitive,
}

// TemplateFor returns the template name for kind, or "" for unknown kinds.
func TemplateFor(kind Kind) string {
	return kindTemplates[kind]
}

// PromptStore loads prompt templates by file name.
type PromptStore struct {
	fsys fs.FS
}

// NewPromptStore reads templates from fsys.
func NewPromptStore(fsys fs.FS) *PromptStore {
	return &PromptStore{fsys: fsys}
}

// DefaultPromptStore serves the templates compiled into the binary.
func DefaultPromptStore() *PromptStore {
	sub, err := fs.Sub(embeddedPrompts, "prompts")
	if err != nil {
		panic(err) // the embed pattern guarantees the directory
	}
	return NewPromptStore(sub)
}

// DirPromptStore serves templates from a directory on disk.
func DirPromptStore(dir string) *PromptStore {
	return NewPromptStore(os.DirFS(dir))
}

// Load returns the template contents. Missing or empty templates yield
// ErrPromptNotFound.
func (p *PromptStore) Load(name string) (string, error) {
	if p == nil || p.fsys == nil || name == "" {
		return "", ErrPromptNotFound
	}
	data, err := fs.ReadFile(p.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrPromptNotFound
		}
		return "", fmt.Errorf("load prompt %s: %w", name, err)
	}
	if len(data) == 0 {
		return "", ErrPromptNotFound
	}
	return string(data), nil
}
