//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	billingapp "github.com/tiller/backend/internal/application/billing"
	identityapp "github.com/tiller/backend/internal/application/identity"
	reportapp "github.com/tiller/backend/internal/application/report"
	"github.com/tiller/backend/internal/domain/identity"
	"github.com/tiller/backend/internal/infrastructure/auth"
	"github.com/tiller/backend/internal/infrastructure/config"
	"github.com/tiller/backend/internal/infrastructure/persistence"
	"github.com/tiller/backend/internal/interfaces/http/handler"
	"github.com/tiller/backend/internal/interfaces/http/middleware"
	"github.com/tiller/backend/internal/interfaces/http/router"
	"github.com/tiller/backend/tests/testutil"
	"go.uber.org/zap"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

type apiServer struct {
	t      *testing.T
	engine *gin.Engine
	token  string
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
	decimal.MarshalJSONWithoutQuotes = true

	tdb := NewTestDB(t)
	svc := newServices(t, tdb)
	log := zap.NewNop()

	cfg := &config.Config{
		App: config.AppConfig{Name: "Tiller", Env: "test"},
		JWT: config.JWTConfig{
			Secret:                 "integration-access-secret-0123456789",
			RefreshSecret:          "integration-refresh-secret-0123456789",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: time.Hour,
			Issuer:                 "tiller-test",
		},
		HTTP: config.HTTPConfig{MaxBodySize: 1 << 20},
	}

	userRepo := persistence.NewGormUserRepository(tdb.DB)
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := auth.NewInMemoryTokenBlacklist()
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	userService := identityapp.NewUserService(userRepo, blacklist, jwtService, log)

	ctx := testutil.ContextWithTimeout(t, time.Minute)
	_, err := userService.Create(ctx, identityapp.CreateUserRequest{
		Name:     "Admin",
		Email:    "admin@example.com",
		Password: "correct-horse",
		Role:     string(identity.RoleSuperAdmin),
	})
	require.NoError(t, err)

	engine, err := router.NewEngine(router.EngineOptions{
		Config:        cfg,
		Logger:        log,
		Authenticator: authService,
		Handlers: router.Handlers{
			Auth:        handler.NewAuthHandler(authService),
			User:        handler.NewUserHandler(userService),
			Department:  handler.NewDepartmentHandler(svc.departments),
			Category:    handler.NewCategoryHandler(svc.categories),
			Client:      handler.NewClientHandler(svc.clients),
			Project:     handler.NewProjectHandler(svc.projects, nil),
			ProjectFile: handler.NewProjectFileHandler(nil),
			Bill:        handler.NewBillHandler(svc.bills, nil),
			Dashboard:   handler.NewDashboardHandler(svc.dashboard),
			Search:      handler.NewSearchHandler(reportapp.NewSearchService(persistence.NewGormSearchRepository(tdb.DB), log)),
			Health:      handler.NewHealthHandler("test", "postgres", map[string]handler.HealthCheck{"database": func(ctx context.Context) error { return tdb.SqlDB.PingContext(ctx) }}),
		},
	})
	require.NoError(t, err)
	return &apiServer{t: t, engine: engine}
}

func (s *apiServer) do(method, path string, body any) (*httptest.ResponseRecorder, apiEnvelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env apiEnvelope
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *apiServer) login() {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "admin@example.com",
		"password": "correct-horse",
	})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var tokens identityapp.LoginResponse
	require.NoError(s.t, json.Unmarshal(env.Data, &tokens))
	s.token = tokens.AccessToken
}

func TestAPI_ProjectLifecycle(t *testing.T) {
	s := newAPIServer(t)

	rec, env := s.do(http.MethodGet, "/api/v1/projects", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "ERR_UNAUTHORIZED", env.Error.Code)

	s.login()

	_, env = s.do(http.MethodPost, "/api/v1/departments", map[string]string{"name": "Consulting"})
	require.True(t, env.Success)
	var dept struct{ ID string }
	require.NoError(t, json.Unmarshal(env.Data, &dept))

	_, env = s.do(http.MethodPost, "/api/v1/categories", map[string]string{"name": "Strategy"})
	require.True(t, env.Success)
	var cat struct{ ID string }
	require.NoError(t, json.Unmarshal(env.Data, &cat))

	rec, env = s.do(http.MethodPost, "/api/v1/projects", map[string]any{
		"projectName":       "Market entry",
		"totalProjectValue": "90000",
		"newClient":         map[string]string{"name": "Initech"},
		"departmentId":      dept.ID,
		"categoryId":        cat.ID,
		"startDate":         "2025-02-01",
		"bills": []map[string]any{
			{"billName": "Discovery", "billPercent": "30"},
			{"billName": "Report", "billPercent": "80"},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "allocation above 100 percent")
	assert.Equal(t, "ERR_ALLOCATION_OVER", env.Error.Code)

	rec, env = s.do(http.MethodPost, "/api/v1/projects", map[string]any{
		"projectName":       "Market entry",
		"totalProjectValue": "90000",
		"newClient":         map[string]string{"name": "Initech"},
		"departmentId":      dept.ID,
		"categoryId":        cat.ID,
		"startDate":         "2025-02-01",
		"bills": []map[string]any{
			{"billName": "Discovery", "billPercent": "30", "tentativeBillingDate": "2025-03-01"},
			{"billName": "Report", "billPercent": "70", "tentativeBillingDate": "2025-06-01"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var project billingapp.ProjectResponse
	require.NoError(t, json.Unmarshal(env.Data, &project))
	require.Len(t, project.Bills, 2)

	discovery := project.Bills[0]
	rec, _ = s.do(http.MethodPost, "/api/v1/bills/"+discovery.ID.String()+"/payments", map[string]string{
		"amount":       "27000",
		"receivedDate": "2025-03-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env = s.do(http.MethodPost, "/api/v1/bills/"+project.Bills[1].ID.String()+"/payments/preview", map[string]any{
		"amount": 70000,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "preview rejects what confirm would reject")
	assert.Equal(t, "ERR_EXCEEDS_REMAINING", env.Error.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/bills?status=PAID", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(1), env.Meta.Total)

	rec, env = s.do(http.MethodDelete, "/api/v1/clients/"+project.Client.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ERR_IN_USE", env.Error.Code)

	rec, _ = s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
