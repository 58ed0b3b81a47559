package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/myawesomesite/siteweb/internal/config"
)

// fakeProvider is an in-memory stand-in for the external identity service.
type fakeProvider struct {
	srv *httptest.Server

	mu         sync.Mutex
	users      map[string]*fakeUser
	nextID     int
	failSignUp bool
	failUpdate bool
	updates    int
}

type fakeUser struct {
	ID       string
	Email    string
	Password string
	Metadata map[string]any
}

func newFakeProvider() *fakeProvider {
	p := &fakeProvider{users: make(map[string]*fakeUser)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/signup", p.handleSignUp)
	mux.HandleFunc("POST /auth/v1/token", p.handleToken)
	mux.HandleFunc("GET /auth/v1/admin/users/{id}", p.handleGetUser)
	mux.HandleFunc("PUT /auth/v1/admin/users/{id}", p.handleUpdateUser)
	mux.HandleFunc("GET /rest/v1/auth_users", p.handleFindByName)

	p.srv = httptest.NewServer(mux)
	return p
}

func (p *fakeProvider) close() { p.srv.Close() }

func (p *fakeProvider) add(email, password string, metadata map[string]any) *fakeUser {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	user := &fakeUser{
		ID:       fmt.Sprintf("user-%d", p.nextID),
		Email:    email,
		Password: password,
		Metadata: metadata,
	}
	p.users[user.ID] = user
	return user
}

func (p *fakeProvider) remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.users, id)
}

func userJSON(u *fakeUser) map[string]any {
	metadata := u.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return map[string]any{"id": u.ID, "email": u.Email, "user_metadata": metadata}
}

func (p *fakeProvider) handleSignUp(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	fail := p.failSignUp
	p.mu.Unlock()
	if fail {
		http.Error(w, "signup disabled", http.StatusInternalServerError)
		return
	}

	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	user := p.add(creds.Email, creds.Password, map[string]any{})
	json.NewEncoder(w).Encode(userJSON(user))
}

func (p *fakeProvider) handleToken(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, user := range p.users {
		if user.Email == creds.Email && user.Password == creds.Password {
			json.NewEncoder(w).Encode(map[string]any{"user": userJSON(user)})
			return
		}
	}
	http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
}

func (p *fakeProvider) handleGetUser(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok := p.users[r.PathValue("id")]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(userJSON(user))
}

func (p *fakeProvider) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failUpdate {
		http.Error(w, "update disabled", http.StatusInternalServerError)
		return
	}

	user, ok := p.users[r.PathValue("id")]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var update struct {
		Email    string         `json:"email"`
		Metadata map[string]any `json:"user_metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if update.Email != "" {
		user.Email = update.Email
	}
	if update.Metadata != nil {
		user.Metadata = update.Metadata
	}
	p.updates++
	json.NewEncoder(w).Encode(userJSON(user))
}

func (p *fakeProvider) handleFindByName(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Query().Get("name"), "eq.")

	p.mu.Lock()
	defer p.mu.Unlock()
	matches := []map[string]any{}
	for _, user := range p.users {
		if n, _ := user.Metadata["name"].(string); n == name {
			matches = append(matches, userJSON(user))
		}
	}
	json.NewEncoder(w).Encode(matches)
}

func newTestServer(t *testing.T) (*Server, *fakeProvider) {
	t.Helper()

	provider := newFakeProvider()
	t.Cleanup(provider.close)

	cfg := &config.Config{
		Server: config.ServerConfig{
			ListenAddr: ":0",
			BaseURL:    "http://example.com",
		},
		Provider: config.ProviderConfig{
			URL:    provider.srv.URL,
			APIKey: "test-key",
		},
		Site: config.SiteConfig{
			AdminEmail: "admin@myawesomesite.com",
		},
	}

	srv, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv, provider
}

func doRequest(srv *Server, method, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "site_session" && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func login(t *testing.T, srv *Server, identifier, password string) *http.Cookie {
	t.Helper()
	w := doRequest(srv, http.MethodPost, "/login", url.Values{
		"identifier": {identifier},
		"password":   {password},
	})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/home" {
		t.Fatalf("login did not redirect home: status %d, location %q, body %q",
			w.Code, w.Header().Get("Location"), w.Body.String())
	}
	return sessionCookie(t, w)
}
