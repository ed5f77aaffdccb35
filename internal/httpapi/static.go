package httpapi

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

const indexFile = "index.html"

// staticFiles serves the single-page frontend. Unknown paths fall back to
// index.html so client-side routing works; unknown /api/ paths do not.
type staticFiles struct {
	dir string
}

func (s staticFiles) serve(c *gin.Context) {
	rel := strings.TrimPrefix(c.Request.URL.Path, "/")
	if strings.HasPrefix(rel, "api/") {
		writeError(c, http.StatusNotFound, fmt.Sprintf("API endpoint '%s' not found", rel))
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		writeError(c, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.dir != "" && rel != "" {
		// path.Clean on a rooted path cannot climb above the root.
		full := filepath.Join(s.dir, filepath.FromSlash(path.Clean("/"+rel)))
		if fi, err := os.Stat(full); err == nil && !fi.IsDir() {
			c.Status(http.StatusOK)
			c.File(full)
			return
		}
	}
	s.index(c)
}

func (s staticFiles) index(c *gin.Context) {
	if s.dir == "" {
		writeError(c, http.StatusNotFound, "Resource not found")
		return
	}
	full := filepath.Join(s.dir, indexFile)
	if fi, err := os.Stat(full); err != nil || fi.IsDir() {
		writeError(c, http.StatusNotFound, "Resource not found")
		return
	}
	c.Status(http.StatusOK)
	c.File(full)
}
