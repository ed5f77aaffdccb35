package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/montanaflynn/clarity"
	"github.com/montanaflynn/clarity/internal/config"
	"github.com/montanaflynn/clarity/internal/httpapi"
	"github.com/montanaflynn/clarity/internal/metrics"
	"github.com/montanaflynn/clarity/providers/gemini"
	"github.com/montanaflynn/clarity/providers/openai"
	"github.com/montanaflynn/clarity/providers/speech"
	"github.com/montanaflynn/clarity/providers/vision"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type server struct {
	cfg     config.Config
	logger  *zap.Logger
	http    *http.Server
	closers []io.Closer
}

// newServer builds providers for the credentials that resolve and wires them
// into the HTTP router. Missing credentials leave the capability in mock mode.
func newServer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*server, error) {
	creds := clarity.NewCredentials(
		cfg.Providers.GeminiAPIKey,
		cfg.Providers.OpenAIAPIKey,
		cfg.Credentials.File,
		cfg.Credentials.StripPrefixes,
	)
	if cfg.Credentials.File != "" && !creds.HasGoogleCloud() {
		logger.Warn("google credentials file not found", zap.String("path", cfg.Credentials.File))
	}

	collector := metrics.NewCollector("clarity")
	opts := []clarity.Option{
		clarity.WithLogger(logger.Named("service")),
		clarity.WithPolling(cfg.Transcription.PollInterval, cfg.Transcription.MaxWait),
		clarity.WithObserver(collector),
	}
	if cfg.Prompts.Dir != "" {
		opts = append(opts, clarity.WithPrompts(clarity.DirPromptStore(cfg.Prompts.Dir)))
	}

	s := &server{cfg: cfg, logger: logger}

	if creds.HasGemini() {
		g, err := gemini.New(ctx,
			gemini.WithAPIKey(creds.GeminiAPIKey),
			gemini.WithModel(cfg.Providers.GeminiModel),
			gemini.WithLogger(logger.Named("gemini")),
		)
		if err != nil {
			return nil, fmt.Errorf("gemini provider: %w", err)
		}
		opts = append(opts, clarity.WithMediaProcessor(g))
		if cfg.Providers.Generative == "gemini" || !creds.HasOpenAI() {
			opts = append(opts, clarity.WithGenerator(g))
		}
	}
	if creds.HasOpenAI() && (cfg.Providers.Generative == "openai" || !creds.HasGemini()) {
		o, err := openai.New(
			openai.WithAPIKey(creds.OpenAIAPIKey),
			openai.WithModel(cfg.Providers.OpenAIModel),
			openai.WithLogger(logger.Named("openai")),
		)
		if err != nil {
			return nil, fmt.Errorf("openai provider: %w", err)
		}
		opts = append(opts, clarity.WithGenerator(o))
	}

	if creds.HasGoogleCloud() {
		sp, err := speech.New(ctx,
			speech.WithCredentialsFile(creds.GoogleCredentialsFile),
			speech.WithLogger(logger.Named("speech")),
		)
		if err != nil {
			logger.Warn("speech synthesis unavailable", zap.Error(err))
		} else {
			s.closers = append(s.closers, sp)
			opts = append(opts, clarity.WithSynthesizer(sp))
		}

		v, err := vision.New(ctx,
			vision.WithCredentialsFile(creds.GoogleCredentialsFile),
			vision.WithLogger(logger.Named("vision")),
		)
		if err != nil {
			logger.Warn("text detection unavailable", zap.Error(err))
		} else {
			s.closers = append(s.closers, v)
			opts = append(opts, clarity.WithTextDetector(v))
		}
	}

	svc := clarity.NewService(creds, opts...)
	for capability, mode := range svc.Modes() {
		logger.Info("capability", zap.String("name", string(capability)), zap.String("mode", string(mode)))
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(svc, httpapi.Options{
		StaticDir:      cfg.Static.Dir,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		CORSOrigins:    cfg.Server.CORSOrigins,
		CleanupGrace:   cfg.Transcription.CleanupGrace,
		Metrics:        collector,
		Logger:         logger.Named("http"),
	})

	s.http = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s, nil
}

// run serves until ctx is cancelled, then drains in-flight requests.
func (s *server) run(ctx context.Context) error {
	defer s.close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down http server")
		return s.http.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *server) close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.logger.Warn("close provider", zap.Error(err))
		}
	}
}
