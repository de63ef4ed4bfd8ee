package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Conceptual-Machines/gyanguru-api/internal/config"
	"github.com/Conceptual-Machines/gyanguru-api/internal/logger"
	"github.com/Conceptual-Machines/gyanguru-api/internal/session"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	bearerPrefix = "Bearer"
	tokenIssuer  = "gyanguru-api"

	contextKeyProfileID = "profile_id"
	contextKeySession   = "session"
)

var errMissingSubject = errors.New("token has no subject")

// Auth selects the authentication middleware for the configured AUTH_MODE
func Auth(cfg *config.Config) gin.HandlerFunc {
	if cfg.IsJWTMode() {
		return JWTAuth(cfg.JWTSecret)
	}
	return NoAuth()
}

// OptionalAuth is like Auth but lets requests without a valid token through
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	if cfg.IsJWTMode() {
		return OptionalJWTAuth(cfg.JWTSecret)
	}
	return NoAuth()
}

// JWTAuth middleware validates bearer tokens and attaches the profile they name to the context
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			c.Abort()
			return
		}

		profileID, err := ParseToken(secret, tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(contextKeyProfileID, profileID)
		c.Next()
	}
}

// OptionalJWTAuth is like JWTAuth but doesn't abort if the token is missing or invalid
func OptionalJWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		if profileID, err := ParseToken(secret, tokenString); err == nil {
			c.Set(contextKeyProfileID, profileID)
		}
		c.Next()
	}
}

// IssueToken signs an HS256 access token whose subject is the profile id
func IssueToken(secret, profileID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Subject:   profileID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates tokenString and returns the profile id it carries
func ParseToken(secret, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return "", errMissingSubject
	}
	return claims.Subject, nil
}

// bearerToken reads the token from the Authorization header, then from the access_token cookie
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == bearerPrefix {
			return parts[1]
		}
	}

	tokenString, _ := c.Cookie("access_token")
	return tokenString
}

// RequireUser loads the session of the authenticated profile and rejects requests from
// profiles that have not logged in
func RequireUser(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		profileID, ok := GetProfileID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			return
		}

		state, err := sessions.State(c.Request.Context(), profileID)
		if err != nil {
			logger.Error("Failed to load session", err, logger.WithContext(c))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
			return
		}

		user, loggedIn := state.CurrentUser()
		if !loggedIn {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
			return
		}

		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.Scope().SetUser(sentry.User{ID: profileID, Username: user.Name})
		}

		c.Set(contextKeySession, state)
		c.Next()
	}
}

// GetProfileID retrieves the profile id set by the auth middleware
func GetProfileID(c *gin.Context) (string, bool) {
	value, exists := c.Get(contextKeyProfileID)
	if !exists {
		return "", false
	}
	profileID, ok := value.(string)
	return profileID, ok && profileID != ""
}

// GetSession retrieves the session set by RequireUser
func GetSession(c *gin.Context) (*session.State, bool) {
	value, exists := c.Get(contextKeySession)
	if !exists {
		return nil, false
	}
	state, ok := value.(*session.State)
	return state, ok
}
