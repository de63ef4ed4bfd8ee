package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Conceptual-Machines/gyanguru-api/internal/api/middleware"
	"github.com/Conceptual-Machines/gyanguru-api/internal/audio"
	"github.com/Conceptual-Machines/gyanguru-api/internal/config"
	"github.com/Conceptual-Machines/gyanguru-api/internal/llm"
	"github.com/Conceptual-Machines/gyanguru-api/internal/models"
	"github.com/Conceptual-Machines/gyanguru-api/internal/services"
	"github.com/Conceptual-Machines/gyanguru-api/internal/session"
	"github.com/Conceptual-Machines/gyanguru-api/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLearning is a test implementation of LearningGenerator
type fakeLearning struct {
	explainFunc func(ctx context.Context, req models.GenerationRequest) (*models.TextExplanation, error)
	codeFunc    func(ctx context.Context, req models.GenerationRequest) (*models.CodeGenerationResult, error)
	audioFunc   func(ctx context.Context, topic string) (*models.AudioLesson, error)
	visualFunc  func(ctx context.Context, topic string) (*models.VisualDiagrams, error)
}

func (f *fakeLearning) Explain(ctx context.Context, req models.GenerationRequest) (*models.TextExplanation, error) {
	if f.explainFunc != nil {
		return f.explainFunc(ctx, req)
	}
	return &models.TextExplanation{Topic: req.Topic, Complexity: req.Complexity, Content: "explained"}, nil
}

func (f *fakeLearning) GenerateCode(ctx context.Context, req models.GenerationRequest) (*models.CodeGenerationResult, error) {
	if f.codeFunc != nil {
		return f.codeFunc(ctx, req)
	}
	return &models.CodeGenerationResult{Dependencies: []string{"numpy"}, Code: "print(1)\n", Explanation: "prose"}, nil
}

func (f *fakeLearning) GenerateAudioLesson(ctx context.Context, topic string) (*models.AudioLesson, error) {
	if f.audioFunc != nil {
		return f.audioFunc(ctx, topic)
	}
	return &models.AudioLesson{Topic: topic, Script: "script", AudioURL: "data:audio/wav;base64,UklGRg=="}, nil
}

func (f *fakeLearning) GenerateVisualDiagrams(ctx context.Context, topic string) (*models.VisualDiagrams, error) {
	if f.visualFunc != nil {
		return f.visualFunc(ctx, topic)
	}
	return &models.VisualDiagrams{
		Topic:     topic,
		Prompts:   []string{"a", "b"},
		ImageURLs: []string{"data:image/png;base64,A", "data:image/png;base64,B"},
	}, nil
}

// switchableStore fails writes while failWrites is set
type switchableStore struct {
	storage.Store
	failWrites bool
}

func (s *switchableStore) Set(ctx context.Context, key string, value []byte) error {
	if s.failWrites {
		return errors.New("disk full")
	}
	return s.Store.Set(ctx, key, value)
}

type testServer struct {
	router   *gin.Engine
	sessions *session.Manager
	store    *switchableStore
}

func setupTestRouter(t *testing.T, learning LearningGenerator) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &switchableStore{Store: storage.NewMemoryStore()}
	sessions := session.NewManager(store, 0)
	cfg := &config.Config{
		AuthMode:        config.AuthModeNone,
		CodeLanguage:    "python",
		AudioSampleRate: 24000,
		AudioChannels:   1,
	}

	router := gin.New()
	router.Use(middleware.RequestTracking(nil))

	authHandler := NewAuthHandler(cfg, sessions)
	router.POST("/api/auth/login", middleware.NoAuth(), authHandler.Login)

	v1 := router.Group("/api/v1", middleware.NoAuth(), middleware.RequireUser(sessions))
	v1.POST("/auth/logout", authHandler.Logout)
	v1.GET("/me", authHandler.Me)

	generationHandler := NewGenerationHandler(learning)
	v1.POST("/generations/text", generationHandler.Text)
	v1.POST("/generations/code", generationHandler.Code)
	v1.POST("/generations/audio", generationHandler.Audio)
	v1.POST("/generations/visual", generationHandler.Visual)

	historyHandler := NewHistoryHandler()
	v1.GET("/history", historyHandler.List)
	v1.DELETE("/history/:id", historyHandler.Delete)

	toolsHandler := NewToolsHandler(cfg.CodeLanguage, cfg.AudioSampleRate, cfg.AudioChannels)
	v1.POST("/code/extract", toolsHandler.Extract)
	v1.POST("/audio/transcode", toolsHandler.Transcode)

	return &testServer{router: router, sessions: sessions, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return s.doContext(t, context.Background(), method, path, body)
}

func (s *testServer) doContext(t *testing.T, ctx context.Context, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(jsonBody)
	} else {
		reader = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/login", gin.H{"name": "Ada Lovelace"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func (s *testServer) history(t *testing.T) []models.HistoryItem {
	t.Helper()
	state, err := s.sessions.State(context.Background(), middleware.LocalProfileID)
	require.NoError(t, err)
	return state.History(session.Filter{})
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}

func TestLogin(t *testing.T) {
	server := setupTestRouter(t, &fakeLearning{})

	w := server.do(t, http.MethodPost, "/api/auth/login", gin.H{"name": "  Ada Lovelace "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Ada Lovelace", response.User.Name)
	assert.Equal(t, "ada.lovelace@local.gyanguru", response.User.Email)
	assert.Empty(t, response.AccessToken, "no token outside jwt mode")

	w = server.do(t, http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, middleware.LocalProfileID, decode(t, w)["profile_id"])
}

func TestLogin_RequiresName(t *testing.T) {
	server := setupTestRouter(t, &fakeLearning{})

	w := server.do(t, http.MethodPost, "/api/auth/login", gin.H{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = server.do(t, http.MethodGet, "/api/v1/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_KeepsHistory(t *testing.T) {
	server := setupTestRouter(t, &fakeLearning{})
	server.login(t)

	w := server.do(t, http.MethodPost, "/api/v1/generations/text", gin.H{"topic": "SVM"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = server.do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = server.do(t, http.MethodGet, "/api/v1/history", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	server.login(t)
	w = server.do(t, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])
}

func TestGenerate_RequiresLogin(t *testing.T) {
	called := false
	server := setupTestRouter(t, &fakeLearning{
		explainFunc: func(context.Context, models.GenerationRequest) (*models.TextExplanation, error) {
			called = true
			return &models.TextExplanation{}, nil
		},
	})

	w := server.do(t, http.MethodPost, "/api/v1/generations/text", gin.H{"topic": "SVM"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

func TestGenerate_RecordsHistory(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		modality models.ModalityType
		payload  string
	}{
		{
			name:     "text",
			path:     "/api/v1/generations/text",
			modality: models.ModalityText,
			payload:  `{"content":"explained","complexity":"Brief"}`,
		},
		{
			name:     "code",
			path:     "/api/v1/generations/code",
			modality: models.ModalityCode,
			payload:  `{"code":"print(1)\n","dependencies":["numpy"],"explanation":"prose","complexity":"Brief"}`,
		},
		{
			name:     "audio",
			path:     "/api/v1/generations/audio",
			modality: models.ModalityAudio,
			payload:  `{"script":"script"}`,
		},
		{
			name:     "visual",
			path:     "/api/v1/generations/visual",
			modality: models.ModalityVisual,
			payload:  `{"prompts":["a","b"],"imageUrlCount":2}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestRouter(t, &fakeLearning{})
			server.login(t)

			w := server.do(t, http.MethodPost, tt.path, gin.H{"topic": "  Neural Networks ", "complexity": "brief"})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			response := decode(t, w)
			assert.NotNil(t, response["result"])
			assert.NotEmpty(t, response["request_id"])

			items := server.history(t)
			require.Len(t, items, 1)
			assert.Equal(t, tt.modality, items[0].Type)
			assert.Equal(t, "Neural Networks", items[0].Topic)
			assert.JSONEq(t, tt.payload, string(items[0].Data))
		})
	}
}

func TestGenerate_PassesProfileAndComplexity(t *testing.T) {
	var got models.GenerationRequest
	var profile string
	server := setupTestRouter(t, &fakeLearning{
		explainFunc: func(ctx context.Context, req models.GenerationRequest) (*models.TextExplanation, error) {
			got = req
			profile = services.ProfileFromContext(ctx)
			return &models.TextExplanation{Topic: req.Topic, Complexity: req.Complexity, Content: "x"}, nil
		},
	})
	server.login(t)

	w := server.do(t, http.MethodPost, "/api/v1/generations/text", gin.H{"topic": "PCA"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.GenerationRequest{Topic: "PCA", Complexity: models.DefaultComplexity}, got)
	assert.Equal(t, middleware.LocalProfileID, profile)
}

func TestGenerate_Validation(t *testing.T) {
	server := setupTestRouter(t, &fakeLearning{})
	server.login(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "empty topic", body: gin.H{"topic": "   "}},
		{name: "unknown complexity", body: gin.H{"topic": "PCA", "complexity": "Extreme"}},
		{name: "malformed body", body: "not an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := server.do(t, http.MethodPost, "/api/v1/generations/text", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, server.history(t))
}

func TestGenerate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "upstream", err: llm.NewUpstreamError("gemini", "text", errors.New("quota")), status: http.StatusBadGateway},
		{name: "decode", err: &audio.DecodeError{Length: 3, Err: errors.New("bad")}, status: http.StatusBadRequest},
		{name: "transcode", err: &audio.TranscodeError{SampleRate: 0, Channels: 1}, status: http.StatusBadRequest},
		{name: "deadline", err: context.DeadlineExceeded, status: http.StatusGatewayTimeout},
		{name: "other", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestRouter(t, &fakeLearning{
				audioFunc: func(context.Context, string) (*models.AudioLesson, error) {
					return nil, tt.err
				},
			})
			server.login(t)

			w := server.do(t, http.MethodPost, "/api/v1/generations/audio", gin.H{"topic": "RNN"})
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "Failed to generate audio", decode(t, w)["error"])
			assert.Empty(t, server.history(t))
		})
	}
}

func TestGenerate_CancelledRequestDoesNotCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := setupTestRouter(t, &fakeLearning{
		visualFunc: func(context.Context, string) (*models.VisualDiagrams, error) {
			cancel()
			return &models.VisualDiagrams{Prompts: []string{"a"}, ImageURLs: []string{"x"}}, nil
		},
	})
	server.login(t)

	w := server.doContext(t, ctx, http.MethodPost, "/api/v1/generations/visual", gin.H{"topic": "GAN"})
	assert.Equal(t, statusClientClosedRequest, w.Code)
	assert.Empty(t, server.history(t))
}

func TestGenerate_StorageFailure(t *testing.T) {
	server := setupTestRouter(t, &fakeLearning{})
	server.login(t)
	server.store.failWrites = true

	w := server.do(t, http.MethodPost, "/api/v1/generations/code", gin.H{"topic": "K-Means"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to save history", decode(t, w)["error"])
	assert.Empty(t, server.history(t))
}

func TestHistory_FilterAndDelete(t *testing.T) {
	server := setupTestRouter(t, &fakeLearning{})
	server.login(t)

	for _, req := range []struct{ path, topic string }{
		{"/api/v1/generations/text", "Linear Regression"},
		{"/api/v1/generations/code", "Logistic Regression"},
		{"/api/v1/generations/text", "Decision Trees"},
	} {
		w := server.do(t, http.MethodPost, req.path, gin.H{"topic": req.topic})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := server.do(t, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Items []models.HistoryItem `json:"items"`
		Total int                  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Equal(t, 3, listing.Total)
	assert.Equal(t, "Decision Trees", listing.Items[0].Topic, "newest first")

	w = server.do(t, http.MethodGet, "/api/v1/history?q=REGRESSION&type=text", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Equal(t, 1, listing.Total)
	assert.Equal(t, "Linear Regression", listing.Items[0].Topic)

	w = server.do(t, http.MethodGet, "/api/v1/history?type=poetry", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = server.do(t, http.MethodDelete, "/api/v1/history/"+listing.Items[0].ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, server.history(t), 2)

	w = server.do(t, http.MethodDelete, "/api/v1/history/"+listing.Items[0].ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToolsExtract(t *testing.T) {
	server := setupTestRouter(t, &fakeLearning{})
	server.login(t)

	w := server.do(t, http.MethodPost, "/api/v1/code/extract", gin.H{
		"text": "DEPENDENCIES: numpy\n```python\nx = 1\n```\nDone.",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result models.CodeGenerationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, []string{"numpy"}, result.Dependencies)
	assert.Equal(t, "x = 1\n", result.Code)
	assert.Equal(t, "Done.", result.Explanation)

	w = server.do(t, http.MethodPost, "/api/v1/code/extract", gin.H{
		"text":     "```go\nfunc main() {}\n```",
		"language": "go",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "func main() {}\n", result.Code)
	assert.Equal(t, []string{}, result.Dependencies)
}

func TestToolsTranscode(t *testing.T) {
	server := setupTestRouter(t, &fakeLearning{})
	server.login(t)

	pcm := base64.StdEncoding.EncodeToString([]byte{0x00, 0x00, 0xFF, 0x7F, 0x00, 0x80})
	w := server.do(t, http.MethodPost, "/api/v1/audio/transcode", gin.H{"data": pcm})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, contentTypeWAV, w.Header().Get("Content-Type"))
	assert.Equal(t, "3", w.Header().Get("X-Audio-Frames"))
	assert.Equal(t, "RIFF", w.Body.String()[:4])
	assert.Equal(t, 44+6, w.Body.Len())

	w = server.do(t, http.MethodPost, "/api/v1/audio/transcode", gin.H{"data": "%%%"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = server.do(t, http.MethodPost, "/api/v1/audio/transcode", gin.H{"data": pcm, "channels": -2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = server.do(t, http.MethodPost, "/api/v1/audio/transcode", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToolsTranscode_RejectsFormatsAWAVCannotHold(t *testing.T) {
	server := setupTestRouter(t, &fakeLearning{})
	server.login(t)

	pcm := base64.StdEncoding.EncodeToString([]byte{0x01, 0x00, 0x02, 0x00})
	tests := []struct {
		name string
		body gin.H
	}{
		{name: "sample rate wraps byte rate", body: gin.H{"data": pcm, "sample_rate": 1 << 30, "channels": 2}},
		{name: "channel count wraps", body: gin.H{"data": pcm, "channels": 70000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := server.do(t, http.MethodPost, "/api/v1/audio/transcode", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "WAV allows sample rates up to")
			assert.NotContains(t, w.Body.String(), "RIFF")
		})
	}
}

func TestToolsHandler_LimitsBodySize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewToolsHandler("python", 24000, 1)
	handler.maxBodyBytes = 64

	router := gin.New()
	router.POST("/audio/transcode", handler.Transcode)
	router.POST("/code/extract", handler.Extract)

	large, err := json.Marshal(gin.H{"data": base64.StdEncoding.EncodeToString(make([]byte, 256))})
	require.NoError(t, err)

	for _, path := range []string{"/audio/transcode", "/code/extract"} {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(large))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, path)
	}

	small, err := json.Marshal(gin.H{"data": base64.StdEncoding.EncodeToString([]byte{0x01, 0x00})})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/audio/transcode", bytes.NewReader(small))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestStatusForError_Wrapped(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), llm.NewUpstreamError("openai", "image", errors.New("x")))
	assert.Equal(t, http.StatusBadGateway, statusForError(wrapped))
}
