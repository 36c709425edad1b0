package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiller/backend/internal/domain/identity"
	"github.com/tiller/backend/internal/domain/report"
	"github.com/tiller/backend/internal/domain/shared"
	"github.com/tiller/backend/internal/infrastructure/auth"
	"github.com/tiller/backend/internal/infrastructure/config"
	"github.com/tiller/backend/internal/interfaces/http/handler"
	"github.com/tiller/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// tokenAuthenticator accepts the tokens it knows
type tokenAuthenticator map[string]identity.Role

func (a tokenAuthenticator) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	role, ok := a[token]
	if !ok {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid token")
	}
	return &auth.Claims{UserID: uuid.NewString(), Role: string(role), TokenType: auth.TokenTypeAccess}, nil
}

type stubSearch struct{}

func (stubSearch) Suggestions(_ context.Context, query string) ([]report.Suggestion, error) {
	return []report.Suggestion{{ID: uuid.New(), Name: query, Type: "project"}}, nil
}

type stubMetrics struct {
	routes []string
}

func (m *stubMetrics) RequestStarted(_, route string) func(int) {
	m.routes = append(m.routes, route)
	return func(int) {}
}

func (m *stubMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("tiller_http_requests_total 1\n"))
	})
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		HTTP: config.HTTPConfig{
			MaxBodySize:      1 << 20,
			CORSAllowOrigins: []string{"http://localhost:5173"},
			CORSAllowMethods: []string{"GET", "POST", "PATCH", "DELETE"},
			CORSAllowHeaders: []string{"Authorization", "Content-Type"},
		},
	}
}

func newTestEngine(t *testing.T, metrics MetricsExporter, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	healthy := func(context.Context) error { return nil }
	opts := EngineOptions{
		Config: testConfig(),
		Logger: zap.NewNop(),
		Authenticator: tokenAuthenticator{
			"admin-token": identity.RoleSuperAdmin,
			"user-token":  identity.RoleUser,
		},
		LoginLimiter: limiter,
		Handlers: Handlers{
			Auth:        handler.NewAuthHandler(nil),
			User:        handler.NewUserHandler(nil),
			Department:  handler.NewDepartmentHandler(nil),
			Category:    handler.NewCategoryHandler(nil),
			Client:      handler.NewClientHandler(nil),
			Project:     handler.NewProjectHandler(nil, nil),
			ProjectFile: handler.NewProjectFileHandler(nil),
			Bill:        handler.NewBillHandler(nil, nil),
			Dashboard:   handler.NewDashboardHandler(nil),
			Search:      handler.NewSearchHandler(stubSearch{}),
			Health:      handler.NewHealthHandler("test", "sqlite", map[string]handler.HealthCheck{"database": healthy}),
		},
	}
	if metrics != nil {
		opts.Metrics = metrics
	}
	engine, err := NewEngine(opts)
	require.NoError(t, err)
	return engine
}

func do(engine *gin.Engine, method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env.Error.Code
}

func TestEngine_PublicEndpoints(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	w := do(engine, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = do(engine, http.MethodGet, "/swagger/index.html", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(engine, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(engine, http.MethodGet, "/api/v1/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_NOT_FOUND", errorCode(t, w))
}

func TestEngine_Authentication(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	for _, path := range []string{"/api/v1/projects", "/api/v1/bills", "/api/v1/dashboard/metrics", "/api/v1/auth/me", "/api/v1/projects/1/files"} {
		w := do(engine, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := do(engine, http.MethodGet, "/api/v1/search/suggestions?query=harbour", "bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(engine, http.MethodGet, "/api/v1/search/suggestions?query=harbour", "user-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "harbour")

	w = do(engine, http.MethodPost, "/api/v1/auth/login", "", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code, "login is public and validates its body")
}

func TestEngine_SuperAdminOnlyUserWrites(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	w := do(engine, http.MethodPost, "/api/v1/users", "user-token", []byte(`{}`))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ERR_FORBIDDEN", errorCode(t, w))

	w = do(engine, http.MethodDelete, "/api/v1/users/"+uuid.NewString(), "user-token", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(engine, http.MethodPost, "/api/v1/users", "admin-token", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code, "admin reaches validation")
}

func TestEngine_LoginRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Stop)
	engine := newTestEngine(t, nil, limiter)

	for i := 0; i < 2; i++ {
		w := do(engine, http.MethodPost, "/api/v1/auth/login", "", []byte(`{}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	w := do(engine, http.MethodPost, "/api/v1/auth/login", "", []byte(`{}`))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "ERR_RATE_LIMITED", errorCode(t, w))
}

func TestEngine_Metrics(t *testing.T) {
	metrics := &stubMetrics{}
	engine := newTestEngine(t, metrics, nil)

	do(engine, http.MethodGet, "/api/v1/projects/"+uuid.NewString(), "", nil)
	w := do(engine, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tiller_http_requests_total")
	assert.Contains(t, metrics.routes, "/api/v1/projects/:id")
}

func TestEngine_InvalidTrustedProxies(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.TrustedProxies = []string{"not-an-ip"}
	_, err := NewEngine(EngineOptions{Config: cfg, Logger: zap.NewNop()})
	assert.Error(t, err)
}
