package handlers

import "time"

const (
	// Access tokens issued at login in AUTH_MODE=jwt
	accessTokenDuration = 7 * 24 * time.Hour

	// History query parameters
	historyQueryParam = "q"
	historyTypeParam  = "type"

	contentTypeWAV = "audio/wav"

	// Request bodies of the tool endpoints are capped at this many bytes
	maxToolBodyBytes = 32 << 20
)
