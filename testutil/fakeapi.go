package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DropConnection as a Failure status closes the connection without a response.
const DropConnection = -1

// Failure is an injected response for one request
type Failure struct {
	Status int
	Body   string
}

// FakeUser is an account known to the fake API
type FakeUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"nombre_completo"`
	Verified bool   `json:"email_verified"`
	Password string `json:"-"`
}

// FakeEntry is a history row held by the fake API
type FakeEntry struct {
	ID             int      `json:"id"`
	OriginalText   string   `json:"texto_original"`
	Steps          []string `json:"pasos"`
	Ambiguities    []string `json:"ambiguedades"`
	Questions      []string `json:"preguntas"`
	ResponseTimeMs float64  `json:"tiempo_respuesta_ms"`
	Cached         bool     `json:"cached"`
	CreatedAt      string   `json:"created_at"`
}

// FakeAPI is an in-process stand-in for the analysis service
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	users    map[string]*FakeUser
	tokens   map[string]string
	history  map[string][]FakeEntry
	failures map[string][]Failure
	calls    map[string]int
	auth     map[string]string
	nextID   int
	examples []map[string]string
	analysis func(text string) map[string]interface{}
}

// NewFakeAPI starts a fake API server that is closed when the test ends
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		users:    make(map[string]*FakeUser),
		tokens:   make(map[string]string),
		history:  make(map[string][]FakeEntry),
		failures: make(map[string][]Failure),
		calls:    make(map[string]int),
		auth:     make(map[string]string),
		examples: []map[string]string{
			{"categoria": "Trabajo", "texto": "Prepara el informe trimestral para la reunión del lunes"},
			{"categoria": "Hogar", "texto": "Organiza la mudanza al nuevo piso antes de fin de mes"},
			{"categoria": "Estudio", "texto": "Estudia para el examen final de estadística"},
		},
		analysis: defaultAnalysis,
	}
	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the server
func (f *FakeAPI) URL() string {
	return f.Server.URL
}

func (f *FakeAPI) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(f.intercept)

	r.Get("/health", f.health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/desambiguar", f.analyze)
		r.Get("/ejemplos", f.listExamples)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", f.register)
			r.Post("/login", f.login)
			r.Get("/me", f.me)
			r.Get("/verify-email", f.verifyEmail)
			r.Post("/resend-verification", f.resendVerification)
		})
		r.Get("/historial", f.listHistory)
		r.Get("/historial/{id}", f.getHistory)
		r.Delete("/historial/{id}", f.deleteHistory)
	})
	return r
}

// intercept counts requests and serves injected failures
func (f *FakeAPI) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		f.mu.Lock()
		f.calls[key]++
		f.auth[key] = r.Header.Get("Authorization")
		var failure *Failure
		if queue := f.failures[key]; len(queue) > 0 {
			failure = &queue[0]
			f.failures[key] = queue[1:]
		}
		f.mu.Unlock()

		if failure == nil {
			next.ServeHTTP(w, r)
			return
		}
		if failure.Status == DropConnection {
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					_ = conn.Close()
					return
				}
			}
			panic(http.ErrAbortHandler)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(failure.Status)
		_, _ = w.Write([]byte(failure.Body))
	})
}

// FailNext makes the next n requests to route ("POST /api/desambiguar")
// answer with failure instead of being handled.
func (f *FakeAPI) FailNext(route string, n int, failure Failure) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.failures[route] = append(f.failures[route], failure)
	}
}

// Calls returns how many requests reached route
func (f *FakeAPI) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

// TotalCalls returns the number of requests received on any route
func (f *FakeAPI) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// LastAuthorization returns the Authorization header of the last request to route
func (f *FakeAPI) LastAuthorization(route string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth[route]
}

// SetAnalysis replaces the analysis returned for a task
func (f *FakeAPI) SetAnalysis(fn func(text string) map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analysis = fn
}

// SetExamples replaces the example list
func (f *FakeAPI) SetExamples(examples []map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.examples = examples
}

// AddUser registers an account and returns its bearer token
func (f *FakeAPI) AddUser(username, password, email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addUserLocked(&FakeUser{Username: username, Password: password, Email: email})
}

func (f *FakeAPI) addUserLocked(u *FakeUser) string {
	f.nextID++
	u.ID = f.nextID
	f.users[u.Username] = u
	token := "token-" + u.Username
	f.tokens[token] = u.Username
	return token
}

// SeedHistory stores past analyses for username, oldest first
func (f *FakeAPI) SeedHistory(username string, texts ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, text := range texts {
		f.appendHistoryLocked(username, text, f.analysis(text))
	}
}

// History returns the stored entries of username, most recent first
func (f *FakeAPI) History(username string) []FakeEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeEntry(nil), f.history[username]...)
}

func (f *FakeAPI) appendHistoryLocked(username, text string, analysis map[string]interface{}) {
	f.nextID++
	entry := FakeEntry{
		ID:             f.nextID,
		OriginalText:   text,
		Steps:          stringsOf(analysis["pasos"]),
		Ambiguities:    stringsOf(analysis["ambiguedades"]),
		Questions:      stringsOf(analysis["preguntas_sugeridas"]),
		ResponseTimeMs: 12.5,
		CreatedAt:      time.Date(2026, 10, 1, 9, 0, f.nextID, 0, time.UTC).Format("2006-01-02T15:04:05"),
	}
	f.history[username] = append([]FakeEntry{entry}, f.history[username]...)
}

func (f *FakeAPI) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"ai_service": "mock",
		"version":    "1.0.0",
		"uptime":     42.0,
	})
}

func (f *FakeAPI) analyze(w http.ResponseWriter, r *http.Request) {
	username, ok := f.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "No autenticado")
		return
	}

	var body struct {
		Texto string `json:"texto"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if utf8.RuneCountInString(strings.TrimSpace(body.Texto)) < 10 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"detail": []map[string]interface{}{
				{"loc": []string{"body", "texto"}, "msg": "ensure this value has at least 10 characters", "type": "value_error"},
			},
		})
		return
	}

	f.mu.Lock()
	analysis := f.analysis(body.Texto)
	f.appendHistoryLocked(username, body.Texto, analysis)
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, analysis)
}

func (f *FakeAPI) listExamples(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	examples := f.examples
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"ejemplos": examples})
}

func (f *FakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"nombre_completo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	f.mu.Lock()
	if _, exists := f.users[body.Username]; exists {
		f.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "El nombre de usuario ya está registrado")
		return
	}
	user := &FakeUser{Username: body.Username, Email: body.Email, Password: body.Password, FullName: body.FullName}
	token := f.addUserLocked(user)
	out := *user
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"access_token": token,
		"token_type":   "bearer",
		"user":         out,
	})
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	f.mu.Lock()
	user, ok := f.users[body.Username]
	if !ok || user.Password != body.Password {
		f.mu.Unlock()
		writeDetail(w, http.StatusUnauthorized, "Usuario o contraseña incorrectos")
		return
	}
	out := *user
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": "token-" + out.Username,
		"token_type":   "bearer",
		"user":         out,
	})
}

func (f *FakeAPI) me(w http.ResponseWriter, r *http.Request) {
	username, ok := f.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Token inválido o expirado")
		return
	}
	f.mu.Lock()
	out := *f.users[username]
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	username := strings.TrimPrefix(token, "verify-")

	f.mu.Lock()
	user, ok := f.users[username]
	if ok && strings.HasPrefix(token, "verify-") {
		user.Verified = true
	}
	f.mu.Unlock()

	if !ok || !strings.HasPrefix(token, "verify-") {
		writeDetail(w, http.StatusBadRequest, "Token de verificación inválido o expirado")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Email verificado correctamente",
		"username": username,
	})
}

func (f *FakeAPI) resendVerification(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	f.mu.Lock()
	found := false
	for _, u := range f.users {
		if u.Email == email {
			found = true
			break
		}
	}
	f.mu.Unlock()

	if !found {
		writeDetail(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Email de verificación reenviado",
	})
}

func (f *FakeAPI) listHistory(w http.ResponseWriter, r *http.Request) {
	username, ok := f.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "No autenticado")
		return
	}
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	f.mu.Lock()
	all := f.history[username]
	total := len(all)
	page := []FakeEntry{}
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		page = append(page, all[offset:end]...)
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":     total,
		"limit":     limit,
		"offset":    offset,
		"historial": page,
	})
}

func (f *FakeAPI) getHistory(w http.ResponseWriter, r *http.Request) {
	username, ok := f.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "No autenticado")
		return
	}
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.history[username] {
		if e.ID == id {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Entrada no encontrada")
}

func (f *FakeAPI) deleteHistory(w http.ResponseWriter, r *http.Request) {
	username, ok := f.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "No autenticado")
		return
	}
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.history[username]
	for i, e := range entries {
		if e.ID == id {
			f.history[username] = append(entries[:i:i], entries[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Entrada eliminada"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Entrada no encontrada")
}

func (f *FakeAPI) authenticate(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	username, ok := f.tokens[token]
	return username, ok
}

// Usernames lists registered accounts in name order
func (f *FakeAPI) Usernames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.users))
	for name := range f.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func defaultAnalysis(text string) map[string]interface{} {
	return map[string]interface{}{
		"pasos": []string{
			fmt.Sprintf("Define the expected outcome of %q", text),
			"List the resources you need",
			"Schedule a first working session",
		},
		"ambiguedades": []string{
			"No deadline was given",
			"The audience is not specified",
		},
		"preguntas_sugeridas": []string{
			"When does this need to be done?",
		},
		"metadata": map[string]interface{}{"modelo": "mock"},
	}
}

func stringsOf(v interface{}) []string {
	switch items := v.(type) {
	case []string:
		return append([]string{}, items...)
	case []interface{}:
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return []string{}
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && v >= 0 {
		return v
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
