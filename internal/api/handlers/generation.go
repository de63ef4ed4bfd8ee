package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/Conceptual-Machines/gyanguru-api/internal/api/middleware"
	"github.com/Conceptual-Machines/gyanguru-api/internal/logger"
	"github.com/Conceptual-Machines/gyanguru-api/internal/models"
	"github.com/Conceptual-Machines/gyanguru-api/internal/services"
	"github.com/gin-gonic/gin"
)

// statusClientClosedRequest is reported when the caller went away before the generation finished
const statusClientClosedRequest = 499

// LearningGenerator produces the material of each modality
type LearningGenerator interface {
	Explain(ctx context.Context, req models.GenerationRequest) (*models.TextExplanation, error)
	GenerateCode(ctx context.Context, req models.GenerationRequest) (*models.CodeGenerationResult, error)
	GenerateAudioLesson(ctx context.Context, topic string) (*models.AudioLesson, error)
	GenerateVisualDiagrams(ctx context.Context, topic string) (*models.VisualDiagrams, error)
}

type GenerationHandler struct {
	learning LearningGenerator
}

func NewGenerationHandler(learning LearningGenerator) *GenerationHandler {
	return &GenerationHandler{learning: learning}
}

type GenerateRequest struct {
	Topic      string `json:"topic"`
	Complexity string `json:"complexity"` // Brief, Detailed or Comprehensive; text and code only
}

// generateFunc runs one modality and returns its result and the payload kept in history
type generateFunc func(ctx context.Context, req models.GenerationRequest) (result any, payload any, err error)

func (h *GenerationHandler) Text(c *gin.Context) {
	h.generate(c, models.ModalityText, func(ctx context.Context, req models.GenerationRequest) (any, any, error) {
		result, err := h.learning.Explain(ctx, req)
		if err != nil {
			return nil, nil, err
		}
		return result, models.TextPayload{Content: result.Content, Complexity: req.Complexity}, nil
	})
}

func (h *GenerationHandler) Code(c *gin.Context) {
	h.generate(c, models.ModalityCode, func(ctx context.Context, req models.GenerationRequest) (any, any, error) {
		result, err := h.learning.GenerateCode(ctx, req)
		if err != nil {
			return nil, nil, err
		}
		return result, models.CodePayload{
			Code:         result.Code,
			Dependencies: result.Dependencies,
			Explanation:  result.Explanation,
			Complexity:   req.Complexity,
		}, nil
	})
}

func (h *GenerationHandler) Audio(c *gin.Context) {
	h.generate(c, models.ModalityAudio, func(ctx context.Context, req models.GenerationRequest) (any, any, error) {
		result, err := h.learning.GenerateAudioLesson(ctx, req.Topic)
		if err != nil {
			return nil, nil, err
		}
		return result, models.AudioPayload{Script: result.Script}, nil
	})
}

func (h *GenerationHandler) Visual(c *gin.Context) {
	h.generate(c, models.ModalityVisual, func(ctx context.Context, req models.GenerationRequest) (any, any, error) {
		result, err := h.learning.GenerateVisualDiagrams(ctx, req.Topic)
		if err != nil {
			return nil, nil, err
		}
		return result, models.VisualPayload{Prompts: result.Prompts, ImageURLCount: len(result.ImageURLs)}, nil
	})
}

// generate validates the request, runs fn and commits a history item for successful runs
// whose caller is still waiting
func (h *GenerationHandler) generate(c *gin.Context, modality models.ModalityType, fn generateFunc) {
	state, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
		return
	}

	var body GenerateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := models.NewGenerationRequest(body.Topic, body.Complexity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := services.WithProfile(c.Request.Context(), state.ProfileID())
	result, payload, err := fn(ctx, req)
	if err != nil {
		respondError(c, "Failed to generate "+strings.ToLower(string(modality)), err)
		return
	}

	if ctx.Err() != nil {
		fields := logger.WithContext(c)
		fields["modality"] = string(modality)
		logger.Warn("Request cancelled, history not recorded", fields)
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}

	item, err := state.AddHistoryItem(ctx, modality, req.Topic, payload)
	if err != nil {
		respondError(c, "Failed to save history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request_id":   c.GetString("request_id"),
		"result":       result,
		"history_item": item,
	})
}
