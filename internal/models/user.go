package models

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	localEmailDomain = "local.gyanguru"
	avatarBaseURL    = "https://api.dicebear.com/7.x/avataaars/svg?seed="
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// User is the single-field login identity kept in a profile
type User struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// NewUser derives the local email and avatar from the display name
func NewUser(name string) User {
	slug := whitespaceRun.ReplaceAllString(strings.ToLower(name), ".")
	return User{
		Name:   name,
		Email:  slug + "@" + localEmailDomain,
		Avatar: avatarBaseURL + url.QueryEscape(name),
	}
}

// HistoryItem records one successful generation. Timestamp is in Unix milliseconds.
type HistoryItem struct {
	ID        string          `json:"id"`
	Type      ModalityType    `json:"type"`
	Topic     string          `json:"topic"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// CreatedAt returns the creation instant of the item
func (h HistoryItem) CreatedAt() time.Time {
	return time.UnixMilli(h.Timestamp)
}

// Payloads stored with history items, one per modality
type TextPayload struct {
	Content    string          `json:"content"`
	Complexity ComplexityLevel `json:"complexity"`
}

type CodePayload struct {
	Code         string          `json:"code"`
	Dependencies []string        `json:"dependencies"`
	Explanation  string          `json:"explanation"`
	Complexity   ComplexityLevel `json:"complexity"`
}

type AudioPayload struct {
	Script string `json:"script"`
}

type VisualPayload struct {
	Prompts       []string `json:"prompts"`
	ImageURLCount int      `json:"imageUrlCount"`
}
