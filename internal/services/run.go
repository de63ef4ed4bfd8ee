package services

import (
	"context"
	"sync"
	"time"

	"github.com/Conceptual-Machines/gyanguru-api/internal/llm"
	"github.com/Conceptual-Machines/gyanguru-api/internal/logger"
	"github.com/Conceptual-Machines/gyanguru-api/internal/models"
	"github.com/Conceptual-Machines/gyanguru-api/internal/observability"
)

type profileKey struct{}

// WithProfile attaches the profile a generation runs for, used to attribute traces
func WithProfile(ctx context.Context, profileID string) context.Context {
	return context.WithValue(ctx, profileKey{}, profileID)
}

// ProfileFromContext returns the profile set by WithProfile
func ProfileFromContext(ctx context.Context) string {
	profileID, _ := ctx.Value(profileKey{}).(string)
	return profileID
}

// generationRun tracks one modality call: a Langfuse trace with one generation per model
// call, token metrics and the final outcome
type generationRun struct {
	ctx      context.Context
	service  *LearningService
	modality models.ModalityType
	topic    string
	start    time.Time
	trace    *observability.Trace

	mu    sync.Mutex
	steps int
}

func (s *LearningService) begin(ctx context.Context, modality models.ModalityType, topic string) *generationRun {
	trace := s.langfuse.StartTrace(ctx, serviceName+"."+string(modality), ProfileFromContext(ctx), map[string]interface{}{
		"modality": string(modality),
		"topic":    topic,
	})
	return &generationRun{
		ctx:      ctx,
		service:  s,
		modality: modality,
		topic:    topic,
		start:    time.Now(),
		trace:    trace,
	}
}

// record logs one successful model call. Safe for concurrent use.
func (r *generationRun) record(step, model, input, output string, usage llm.Usage, start time.Time) {
	duration := time.Since(start)

	r.mu.Lock()
	r.steps++
	r.mu.Unlock()

	logger.LogGenerationRequest(r.ctx, string(r.modality), model, duration,
		usage.InputTokens, usage.OutputTokens, usage.TotalTokens, logger.Fields{"step": step})
	r.service.metrics.RecordTokenUsage(r.ctx, model, usage.TotalTokens, usage.InputTokens, usage.OutputTokens)

	generation := r.trace.Generation(step, nil)
	generation.LogResponse(model, input, output, usage.InputTokens, usage.OutputTokens, usage.TotalTokens,
		map[string]interface{}{"modality": string(r.modality), "duration_ms": duration.Milliseconds()})
	generation.Finish()
}

// end records the outcome of the whole modality call
func (r *generationRun) end(err error) {
	duration := time.Since(r.start)
	success := err == nil

	r.service.metrics.RecordGeneration(r.ctx, string(r.modality), duration, success)

	r.mu.Lock()
	steps := r.steps
	r.mu.Unlock()

	fields := logger.Fields{
		"modality":    string(r.modality),
		"topic":       r.topic,
		"duration_ms": duration.Milliseconds(),
		"model_calls": steps,
	}
	if success {
		logger.Info("Learning generation completed", fields)
	} else {
		logger.Error("Learning generation failed", err, fields)
	}

	r.trace.SetMetadata(map[string]interface{}{
		"modality":    string(r.modality),
		"topic":       r.topic,
		"success":     success,
		"model_calls": steps,
	})
	r.trace.Finish()
}

// providerName names the provider that serves model, for errors raised on its responses
func (r *generationRun) providerName(model string) string {
	if r.service.options.Provider != "" {
		return r.service.options.Provider
	}
	return llm.ProviderForModel(model)
}
