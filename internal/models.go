package internal

import (
	"strings"
	"time"
)

// AnalysisResult is the breakdown of a task returned by the analysis service
type AnalysisResult struct {
	Steps              []string               `json:"pasos" yaml:"steps"`
	Ambiguities        []string               `json:"ambiguedades" yaml:"ambiguities"`
	SuggestedQuestions []string               `json:"preguntas_sugeridas" yaml:"suggested_questions"`
	Metadata           map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Example is a sample task offered to new users
type Example struct {
	Category string `json:"categoria" yaml:"category"`
	Text     string `json:"texto" yaml:"text"`
}

// User is the profile of a registered user
type User struct {
	ID            int    `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"nombre_completo,omitempty"`
	IsActive      bool   `json:"is_active,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// DisplayName returns the full name, falling back to the username
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	return u.Username
}

// Credentials is the login payload
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"nombre_completo"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        *User  `json:"user"`
}

// HistoryEntry is one past analysis stored by the server
type HistoryEntry struct {
	ID             int      `json:"id"`
	OriginalText   string   `json:"texto_original"`
	Steps          []string `json:"pasos"`
	Ambiguities    []string `json:"ambiguedades"`
	Questions      []string `json:"preguntas"`
	ResponseTimeMs float64  `json:"tiempo_respuesta_ms,omitempty"`
	Cached         bool     `json:"cached"`
	CreatedAt      string   `json:"created_at"`
}

// Result converts the entry to an AnalysisResult
func (h *HistoryEntry) Result() *AnalysisResult {
	return &AnalysisResult{
		Steps:              h.Steps,
		Ambiguities:        h.Ambiguities,
		SuggestedQuestions: h.Questions,
	}
}

// CreatedTime parses CreatedAt. The server emits ISO-8601 with or without a zone.
func (h *HistoryEntry) CreatedTime() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, h.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// HistoryPage is one page of the user's history
type HistoryPage struct {
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	Entries []HistoryEntry `json:"historial"`
}

// TotalPages returns the number of pages of the given size
func (p *HistoryPage) TotalPages(pageSize int) int {
	if pageSize <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + pageSize - 1) / pageSize
}

// HealthStatus is the service health report
type HealthStatus struct {
	Status    string  `json:"status"`
	AIService string  `json:"ai_service,omitempty"`
	Version   string  `json:"version,omitempty"`
	Uptime    float64 `json:"uptime,omitempty"`
}

// StatusOffline is reported when the service cannot be reached
const StatusOffline = "offline"

// Online reports whether the service answered
func (h HealthStatus) Online() bool {
	return h.Status != "" && h.Status != StatusOffline
}

// VerifyEmailResponse is returned when an email token is accepted
type VerifyEmailResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

// MessageResponse is a generic {message} body
type MessageResponse struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message"`
}
