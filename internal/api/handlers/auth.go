package handlers

import (
	"errors"
	"net/http"

	"github.com/Conceptual-Machines/gyanguru-api/internal/api/middleware"
	"github.com/Conceptual-Machines/gyanguru-api/internal/config"
	"github.com/Conceptual-Machines/gyanguru-api/internal/logger"
	"github.com/Conceptual-Machines/gyanguru-api/internal/models"
	"github.com/Conceptual-Machines/gyanguru-api/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthHandler struct {
	cfg      *config.Config
	sessions *session.Manager
}

func NewAuthHandler(cfg *config.Config, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{
		cfg:      cfg,
		sessions: sessions,
	}
}

type LoginRequest struct {
	Name string `json:"name"`
}

type AuthResponse struct {
	User        models.User `json:"user"`
	AccessToken string      `json:"access_token,omitempty"`
	ExpiresIn   int64       `json:"expires_in,omitempty"` // seconds
}

// Login stores the user in the profile. In jwt mode a request without a valid token starts a
// new profile; a token for an existing profile logs in again to the same history.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profileID, ok := middleware.GetProfileID(c)
	if !ok {
		profileID = uuid.New().String()
	}

	state, err := h.sessions.State(c.Request.Context(), profileID)
	if err != nil {
		respondError(c, "Failed to load session", err)
		return
	}

	user, err := state.Login(c.Request.Context(), req.Name)
	if errors.Is(err, session.ErrNameRequired) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, "Failed to save user", err)
		return
	}

	response := AuthResponse{User: user}
	if h.cfg.IsJWTMode() {
		token, err := middleware.IssueToken(h.cfg.JWTSecret, profileID, accessTokenDuration)
		if err != nil {
			respondError(c, "Failed to generate token", err)
			return
		}
		response.AccessToken = token
		response.ExpiresIn = int64(accessTokenDuration.Seconds())
	}

	logger.Info("User logged in", logger.Fields{"profile_id": profileID, "name": user.Name})
	c.JSON(http.StatusOK, response)
}

// Logout removes the user from the profile. History is kept.
func (h *AuthHandler) Logout(c *gin.Context) {
	state, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
		return
	}

	if err := state.Logout(c.Request.Context()); err != nil {
		respondError(c, "Failed to log out", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the user of the current profile
func (h *AuthHandler) Me(c *gin.Context) {
	state, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
		return
	}

	user, _ := state.CurrentUser()
	c.JSON(http.StatusOK, gin.H{
		"user":       user,
		"profile_id": state.ProfileID(),
	})
}
