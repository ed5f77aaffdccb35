// Package httpapi exposes the clarity Service over HTTP with gin.
package httpapi

import (
	"net/http"
	"time"

	"github.com/montanaflynn/clarity"
	"github.com/montanaflynn/clarity/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options configures the router.
type Options struct {
	// StaticDir holds the frontend; index.html is the fallback page.
	StaticDir string
	// MaxUploadBytes caps request bodies; zero uses clarity.MaxUploadSize.
	MaxUploadBytes int64
	CORSOrigins    []string
	// TempDir is the parent for per-request upload directories.
	TempDir string
	// CleanupGrace delays removal of transcription temp files.
	CleanupGrace time.Duration
	Metrics      *metrics.Collector
	Logger       *zap.Logger
}

// NewRouter wires every route onto a new gin engine.
func NewRouter(svc *clarity.Service, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	maxBytes := opts.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = clarity.MaxUploadSize
	}

	h := &handler{
		svc:       svc,
		log:       log,
		images:    clarity.TempSpace{Dir: opts.TempDir, Logger: log},
		media:     clarity.TempSpace{Dir: opts.TempDir, Grace: opts.CleanupGrace, Logger: log},
		static:    staticFiles{dir: opts.StaticDir},
		maxMemory: maxBytes,
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = maxBytes

	r.Use(RequestID(), Recovery(log), RequestLogger(log))
	if opts.Metrics != nil {
		r.Use(Metrics(opts.Metrics))
	}
	r.Use(CORS(opts.CORSOrigins), BodyLimit(maxBytes))

	api := r.Group("/api")
	{
		api.POST("/audio/transcribe", h.transcribe)
		api.POST("/image/diagram-explain", h.explainDiagram)
		api.POST("/image/text-detect", h.detectText)

		api.POST("/text/simplify", h.generate(clarity.KindSimplify))
		api.POST("/text/isl-gloss", h.generate(clarity.KindISLGloss))
		api.POST("/text/adhd-summary", h.generate(clarity.KindADHDSummary))
		api.POST("/text/cognitive-explain", h.generate(clarity.KindCognitiveExplain))
		api.POST("/text/text-to-speech", h.textToSpeech)
	}

	r.GET("/healthz", h.health)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	r.GET("/", h.static.index)
	r.NoRoute(h.static.serve)
	r.NoMethod(func(c *gin.Context) {
		writeError(c, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}
