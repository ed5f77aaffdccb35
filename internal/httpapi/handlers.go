package httpapi

import (
	"encoding/base64"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/montanaflynn/clarity"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type handler struct {
	svc       *clarity.Service
	log       *zap.Logger
	images    clarity.TempSpace
	media     clarity.TempSpace
	static    staticFiles
	maxMemory int64
}

type textRequest struct {
	Text string `json:"text"`
}

// upload opens the multipart "file" field. It writes the error response
// itself and reports false when the request cannot continue.
func (h *handler) upload(c *gin.Context) (*clarity.Asset, multipart.File, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, "File too large")
		} else {
			writeError(c, http.StatusBadRequest, "No file part")
		}
		return nil, nil, false
	}
	f, err := fh.Open()
	if err != nil {
		internalError(c, h.log, err)
		return nil, nil, false
	}
	return &clarity.Asset{Filename: fh.Filename, Size: fh.Size, Reader: f}, f, true
}

// bindText decodes {"text": ...}. A missing or malformed body counts as
// empty text and fails validation.
func (h *handler) bindText(c *gin.Context) (string, bool) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, "File too large")
			return "", false
		}
		req.Text = ""
	}
	if ok, msg := clarity.ValidateText(req.Text, 0); !ok {
		writeError(c, http.StatusBadRequest, msg)
		return "", false
	}
	return req.Text, true
}

func (h *handler) transcribe(c *gin.Context) {
	asset, f, ok := h.upload(c)
	if !ok {
		return
	}
	defer f.Close()

	if ok, msg := clarity.ValidateMediaUpload(asset); !ok {
		writeError(c, http.StatusBadRequest, msg)
		return
	}

	ctx := c.Request.Context()
	var res clarity.Result
	err := h.media.Do(ctx, asset.Reader, asset.Filename, func(path string) error {
		res = h.svc.TranscribeAudioFile(ctx, path)
		return nil
	})
	if err != nil {
		internalError(c, h.log, err)
		return
	}
	writeResult(c, http.StatusOK, res, gin.H{"transcript": res.Text})
}

func (h *handler) explainDiagram(c *gin.Context) {
	asset, f, ok := h.upload(c)
	if !ok {
		return
	}
	defer f.Close()

	if ok, msg := clarity.ValidateImageUpload(asset); !ok {
		writeError(c, http.StatusBadRequest, msg)
		return
	}

	ctx := c.Request.Context()
	var res clarity.Result
	err := h.images.Do(ctx, asset.Reader, asset.Filename, func(path string) error {
		res = h.svc.ExplainImage(ctx, path)
		return nil
	})
	if err != nil {
		internalError(c, h.log, err)
		return
	}
	if res.Failed() {
		writeFailure(c, res)
		return
	}
	writeResult(c, http.StatusOK, res, gin.H{"explanation": res.Text})
}

// detectText never fails on provider errors; the fallback text is returned.
func (h *handler) detectText(c *gin.Context) {
	asset, f, ok := h.upload(c)
	if !ok {
		return
	}
	defer f.Close()

	if ok, msg := clarity.ValidateImageUpload(asset); !ok {
		writeError(c, http.StatusBadRequest, msg)
		return
	}

	ctx := c.Request.Context()
	var res clarity.Result
	err := h.images.Do(ctx, asset.Reader, asset.Filename, func(path string) error {
		res = h.svc.AnalyzeImageText(ctx, path)
		return nil
	})
	if err != nil {
		internalError(c, h.log, err)
		return
	}
	writeResult(c, http.StatusOK, res, gin.H{"text": res.Text})
}

func (h *handler) generate(kind clarity.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		text, ok := h.bindText(c)
		if !ok {
			return
		}
		res := h.svc.GenerateContent(c.Request.Context(), kind, text)
		if res.Failed() {
			writeFailure(c, res)
			return
		}
		writeResult(c, http.StatusOK, res, gin.H{"result": res.Text})
	}
}

func (h *handler) textToSpeech(c *gin.Context) {
	text, ok := h.bindText(c)
	if !ok {
		return
	}
	res := h.svc.SynthesizeText(c.Request.Context(), text)
	if len(res.Audio) == 0 {
		c.Header(OutcomeHeader, string(res.Outcome))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":        "TTS Service unavailable",
			"use_frontend": true,
		})
		return
	}
	writeResult(c, http.StatusOK, res, gin.H{
		"audio_content": base64.StdEncoding.EncodeToString(res.Audio),
		"format":        "mp3",
	})
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"providers": h.svc.Modes(),
	})
}
