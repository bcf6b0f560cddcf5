package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/campusport/portalgate/internal/middleware"
	"github.com/campusport/portalgate/internal/notify"
	"github.com/campusport/portalgate/internal/route"
	"github.com/campusport/portalgate/internal/session"
	"github.com/campusport/portalgate/internal/token"
	"github.com/campusport/portalgate/internal/view"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// testPortal is a minimal upstream: one student account, bearer-gated
// data endpoints, and a counter of protected fetches
type testPortal struct {
	srv *httptest.Server

	mu             sync.Mutex
	protectedCalls []string
}

func newTestPortal(t *testing.T) *testPortal {
	t.Helper()
	p := &testPortal{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/user/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "s@x.com" || req.Password != "studpass" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-stu", "role": "student"})
	})
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-stu" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		p.mu.Lock()
		p.protectedCalls = append(p.protectedCalls, r.URL.Path)
		p.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"endpoint": r.URL.Path})
	})

	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *testPortal) calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.protectedCalls...)
}

func newTestGateway(t *testing.T, portal *testPortal) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := notify.NewRecorder()
	client := session.NewClient(session.Config{
		BaseURL:  portal.srv.URL,
		Store:    token.NewMemoryStore(),
		Notifier: recorder,
	})
	client.Restore(context.Background())

	router := route.NewRouter(client.State())
	registry := view.DefaultRegistry(client)
	handler := NewHandler(client, router, registry, nil, recorder, zap.NewNop())

	engine := gin.New()
	engine.POST("/session/login", handler.Login)
	engine.POST("/session/logout", handler.Logout)
	engine.GET("/session/resolve", handler.ResolveRoute)

	protected := engine.Group("")
	protected.Use(middleware.SessionGate(client.State()))
	protected.GET("/session/me", handler.Me)
	protected.GET("/session/navigation", handler.Navigation)

	engine.GET("/screens/*path", handler.Screen)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var payload map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
			t.Fatalf("response is not JSON: %v\n%s", err, w.Body.String())
		}
	}
	return w, payload
}

func TestGateway_LoginFlow(t *testing.T) {
	portal := newTestPortal(t)
	engine := newTestGateway(t, portal)

	// Protected endpoints reject before login
	if w, _ := doJSON(t, engine, http.MethodGet, "/session/me", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("GET /session/me before login = %d, want 401", w.Code)
	}

	// Bad credentials surface the backend detail as a notification
	w, payload := doJSON(t, engine, http.MethodPost, "/session/login", `{"email":"s@x.com","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d, want 401", w.Code)
	}
	if n, ok := payload["notifications"].([]interface{}); !ok || len(n) != 1 {
		t.Errorf("notifications = %v, want exactly one", payload["notifications"])
	}

	// Successful login
	w, payload = doJSON(t, engine, http.MethodPost, "/session/login", `{"email":"s@x.com","password":"studpass"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d, want 200\n%s", w.Code, w.Body.String())
	}
	data := payload["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	if user["role"] != "student" || user["email"] != "s@x.com" {
		t.Errorf("session user = %v", user)
	}

	// Navigation now lists the student table
	_, payload = doJSON(t, engine, http.MethodGet, "/session/navigation", "")
	entries := payload["data"].([]interface{})
	if len(entries) != 8 {
		t.Errorf("navigation has %d entries, want 8", len(entries))
	}
}

func TestGateway_LoginValidation(t *testing.T) {
	portal := newTestPortal(t)
	engine := newTestGateway(t, portal)

	// Missing fields are rejected at the gateway, before any backend call
	w, _ := doJSON(t, engine, http.MethodPost, "/session/login", `{"email":"","password":""}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty login = %d, want 400", w.Code)
	}
}

func TestGateway_ScreenGating(t *testing.T) {
	portal := newTestPortal(t)
	engine := newTestGateway(t, portal)

	doJSON(t, engine, http.MethodPost, "/session/login", `{"email":"s@x.com","password":"studpass"}`)

	// Allowed screen fetches its data
	w, payload := doJSON(t, engine, http.MethodGet, "/screens/financial", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /screens/financial = %d, want 200\n%s", w.Code, w.Body.String())
	}
	if screen := payload["data"].(map[string]interface{})["screen"]; screen != "Financial" {
		t.Errorf("screen = %v, want Financial", screen)
	}
	if calls := portal.calls(); len(calls) != 1 || calls[0] != "/api/v1/financial/me" {
		t.Errorf("backend calls = %v, want [/api/v1/financial/me]", calls)
	}

	// Teacher-only screen: denied, and no data fetch is triggered
	before := len(portal.calls())
	w, _ = doJSON(t, engine, http.MethodGet, "/screens/attendance", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("GET /screens/attendance as student = %d, want 404", w.Code)
	}
	if after := len(portal.calls()); after != before {
		t.Error("denied navigation still fetched screen data")
	}
}

func TestGateway_Health(t *testing.T) {
	portal := newTestPortal(t)
	gin.SetMode(gin.TestMode)

	recorder := notify.NewRecorder()
	client := session.NewClient(session.Config{
		BaseURL:  portal.srv.URL,
		Store:    token.NewMemoryStore(),
		Notifier: recorder,
	})
	client.Restore(context.Background())
	handler := NewHandler(client, route.NewRouter(client.State()), view.DefaultRegistry(client), nil, recorder, zap.NewNop())

	engine := gin.New()
	engine.GET("/health", handler.Health)

	// No backing services registered: plain ok
	w, payload := doJSON(t, engine, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || payload["status"] != "ok" {
		t.Errorf("health = %d %v, want 200 ok", w.Code, payload)
	}

	handler.AddHealthCheck("redis", func(context.Context) error { return nil })
	handler.AddHealthCheck("postgres", func(context.Context) error { return errors.New("connection refused") })

	// One failing dependency degrades the whole report
	w, payload = doJSON(t, engine, http.MethodGet, "/health", "")
	if w.Code != http.StatusServiceUnavailable || payload["status"] != "degraded" {
		t.Fatalf("health = %d %v, want 503 degraded", w.Code, payload)
	}
	deps := payload["dependencies"].(map[string]interface{})
	if deps["redis"] != "ok" || deps["postgres"] != "unavailable" {
		t.Errorf("dependencies = %v", deps)
	}
}

func TestGateway_ResolveAndLogout(t *testing.T) {
	portal := newTestPortal(t)
	engine := newTestGateway(t, portal)

	_, payload := doJSON(t, engine, http.MethodGet, "/session/resolve?path=/grades", "")
	outcome := payload["data"].(map[string]interface{})
	if outcome["decision"] != string(route.DecisionRedirectLogin) {
		t.Errorf("decision before login = %v, want %s", outcome["decision"], route.DecisionRedirectLogin)
	}

	doJSON(t, engine, http.MethodPost, "/session/login", `{"email":"s@x.com","password":"studpass"}`)

	_, payload = doJSON(t, engine, http.MethodGet, "/session/resolve?path=/grades", "")
	outcome = payload["data"].(map[string]interface{})
	if outcome["decision"] != string(route.DecisionAllow) {
		t.Errorf("decision after login = %v, want %s", outcome["decision"], route.DecisionAllow)
	}

	w, _ := doJSON(t, engine, http.MethodPost, "/session/logout", "")
	if w.Code != http.StatusOK {
		t.Errorf("logout = %d, want 200", w.Code)
	}
	if w, _ := doJSON(t, engine, http.MethodGet, "/session/me", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("GET /session/me after logout = %d, want 401", w.Code)
	}
}
