package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Conceptual-Machines/gyanguru-api/internal/audio"
	"github.com/Conceptual-Machines/gyanguru-api/internal/extract"
	"github.com/gin-gonic/gin"
)

// ToolsHandler exposes the extraction and transcoding stages without a model call
type ToolsHandler struct {
	language     string
	sampleRate   int
	channels     int
	maxBodyBytes int64
}

func NewToolsHandler(language string, sampleRate, channels int) *ToolsHandler {
	return &ToolsHandler{
		language:     language,
		sampleRate:   sampleRate,
		channels:     channels,
		maxBodyBytes: maxToolBodyBytes,
	}
}

// bindJSON decodes a body of at most maxBodyBytes into obj and answers 413 or 400 on failure
func (h *ToolsHandler) bindJSON(c *gin.Context, obj any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	if err := c.ShouldBindJSON(obj); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Request body too large",
				"limit": tooLarge.Limit,
			})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

type ExtractRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"` // Fence tag; defaults to the configured code language
}

type TranscodeRequest struct {
	Data       string `json:"data" binding:"required"` // base64 PCM s16le
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Extract splits a model response into dependencies, code and explanation
func (h *ToolsHandler) Extract(c *gin.Context) {
	var req ExtractRequest
	if !h.bindJSON(c, &req) {
		return
	}

	language := req.Language
	if language == "" {
		language = h.language
	}

	c.JSON(http.StatusOK, extract.NewParser(language).Parse(req.Text))
}

// Transcode converts base64 PCM into a playable WAV file
func (h *ToolsHandler) Transcode(c *gin.Context) {
	var req TranscodeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sampleRate := req.SampleRate
	if sampleRate == 0 {
		sampleRate = h.sampleRate
	}
	channels := req.Channels
	if channels == 0 {
		channels = h.channels
	}

	if err := audio.CheckWAVFormat(sampleRate, channels); err != nil {
		respondError(c, "Failed to transcode audio", err)
		return
	}

	buf, err := audio.DecodeTranscode(req.Data, sampleRate, channels)
	if err != nil {
		respondError(c, "Failed to transcode audio", err)
		return
	}
	wav, err := audio.EncodeWAV(buf)
	if err != nil {
		respondError(c, "Failed to transcode audio", err)
		return
	}

	c.Header("X-Audio-Frames", strconv.Itoa(buf.FrameCount()))
	c.Data(http.StatusOK, contentTypeWAV, wav)
}
