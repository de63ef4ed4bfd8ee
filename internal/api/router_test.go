package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Conceptual-Machines/gyanguru-api/internal/api/handlers"
	"github.com/Conceptual-Machines/gyanguru-api/internal/config"
	"github.com/Conceptual-Machines/gyanguru-api/internal/models"
	"github.com/Conceptual-Machines/gyanguru-api/internal/session"
	"github.com/Conceptual-Machines/gyanguru-api/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLearning struct{}

func (stubLearning) Explain(_ context.Context, req models.GenerationRequest) (*models.TextExplanation, error) {
	return &models.TextExplanation{Topic: req.Topic, Complexity: req.Complexity, Content: "content"}, nil
}

func (stubLearning) GenerateCode(context.Context, models.GenerationRequest) (*models.CodeGenerationResult, error) {
	return &models.CodeGenerationResult{Dependencies: []string{}}, nil
}

func (stubLearning) GenerateAudioLesson(_ context.Context, topic string) (*models.AudioLesson, error) {
	return &models.AudioLesson{Topic: topic}, nil
}

func (stubLearning) GenerateVisualDiagrams(_ context.Context, topic string) (*models.VisualDiagrams, error) {
	return &models.VisualDiagrams{Topic: topic, Prompts: []string{}, ImageURLs: []string{}}, nil
}

func newTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return SetupRouter(Dependencies{
		Config:   cfg,
		Sessions: session.NewManager(storage.NewMemoryStore(), 0),
		Learning: stubLearning{},
		Version:  "test",
	})
}

func request(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router *gin.Engine, token, name string) handlers.AuthResponse {
	t.Helper()
	w := request(t, router, http.MethodPost, "/api/auth/login", token, gin.H{"name": name})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var response handlers.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &config.Config{AuthMode: config.AuthModeNone, StorageDriver: "memory"})

	w := request(t, router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Contains(t, w.Body.String(), `"version":"test"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = request(t, router, http.MethodGet, "/api/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_NoAuthMode(t *testing.T) {
	router := newTestRouter(t, &config.Config{AuthMode: config.AuthModeNone})

	w := request(t, router, http.MethodPost, "/api/v1/generations/text", "", gin.H{"topic": "SVM"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	response := login(t, router, "", "Ada")
	assert.Empty(t, response.AccessToken)

	w = request(t, router, http.MethodPost, "/api/v1/generations/text", "", gin.H{"topic": "SVM"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRouter_JWTMode(t *testing.T) {
	router := newTestRouter(t, &config.Config{AuthMode: config.AuthModeJWT, JWTSecret: "secret"})

	first := login(t, router, "", "Ada")
	require.NotEmpty(t, first.AccessToken)
	assert.Positive(t, first.ExpiresIn)

	second := login(t, router, "", "Grace")

	w := request(t, router, http.MethodPost, "/api/v1/generations/text", first.AccessToken, gin.H{"topic": "SVM"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Profiles do not share history
	w = request(t, router, http.MethodGet, "/api/v1/history", second.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)

	// Logging in again with a token keeps the profile
	again := login(t, router, first.AccessToken, "Ada L.")
	w = request(t, router, http.MethodGet, "/api/v1/history", again.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = request(t, router, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
