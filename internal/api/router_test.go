package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/taskboard/task-manager/internal/core/domain"
	"github.com/taskboard/task-manager/internal/core/ports"
)

type stubAuthService struct {
	users  []domain.SafeUser
	tokens map[string]domain.TokenClaims
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	if in.Email == "taken@example.com" {
		return nil, domain.ErrUserAlreadyExists
	}
	return &ports.AuthResult{Token: "t", User: domain.SafeUser{ID: 10, Name: in.Name, Email: in.Email, Role: domain.RoleColaborador}}, nil
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return nil, domain.NewCredentialsError(domain.ErrUserNotFound)
}

func (s *stubAuthService) CreateUser(ctx context.Context, actingUserID int64, in ports.CreateUserInput) (*ports.AuthResult, error) {
	if actingUserID != 1 {
		return nil, domain.ErrAuthorization
	}
	return &ports.AuthResult{Token: "t", User: domain.SafeUser{ID: 11, Name: in.Name, Email: in.Email, Role: domain.Role(in.Role)}}, nil
}

func (s *stubAuthService) GetUsers(ctx context.Context) ([]domain.SafeUser, error) {
	return s.users, nil
}

func (s *stubAuthService) VerifyToken(token string) (domain.TokenClaims, error) {
	claims, ok := s.tokens[token]
	if !ok {
		return domain.TokenClaims{}, domain.ErrInvalidToken
	}
	return claims, nil
}

func newTestRouter() http.Handler {
	tokens := map[string]domain.TokenClaims{
		"admin-token": {UserID: 1, Email: "ada@example.com", Role: domain.RoleAdmin},
		"colab-token": {UserID: 2, Email: "cy@example.com", Role: domain.RoleColaborador},
	}
	svc := &stubAuthService{
		users:  []domain.SafeUser{{ID: 1, Name: "Ada", Email: "ada@example.com", Role: domain.RoleAdmin}},
		tokens: tokens,
	}
	return NewRouter(Dependencies{
		AuthService: svc,
		CORSOrigins: []string{"http://localhost:3000"},
		Logger:      zerolog.Nop(),
	})
}

func do(t *testing.T, h http.Handler, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &payload)
	return rec.Code, payload
}

func TestRouter_Register(t *testing.T) {
	h := newTestRouter()

	code, _ := do(t, h, http.MethodPost, "/api/auth/register", "", `{"name":"Cy","email":"cy@example.com","password":"secret1"}`)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}

	code, body := do(t, h, http.MethodPost, "/api/auth/register", "", `{"name":"Cy","email":"taken@example.com","password":"secret1"}`)
	if code != http.StatusConflict || body["error"] != domain.ErrUserAlreadyExists.Error() {
		t.Fatalf("expected 409, got %d %v", code, body)
	}

	code, _ = do(t, h, http.MethodPost, "/api/auth/register", "", `{"name":"Cy","email":"cy@example.com"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestRouter_LoginFailureIsGeneric(t *testing.T) {
	code, body := do(t, newTestRouter(), http.MethodPost, "/api/auth/login", "", `{"email":"nobody@example.com","password":"x"}`)
	if code != http.StatusUnauthorized || body["error"] != "invalid email or password" {
		t.Fatalf("expected generic 401, got %d %v", code, body)
	}
}

func TestRouter_ListUsersRequiresAdmin(t *testing.T) {
	h := newTestRouter()

	code, body := do(t, h, http.MethodGet, "/api/auth/users", "", "")
	if code != http.StatusUnauthorized || body["error"] != "no authorization header provided" {
		t.Fatalf("expected 401, got %d %v", code, body)
	}

	code, _ = do(t, h, http.MethodGet, "/api/auth/users", "bogus", "")
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", code)
	}

	code, _ = do(t, h, http.MethodGet, "/api/auth/users", "colab-token", "")
	if code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}

	code, body = do(t, h, http.MethodGet, "/api/auth/users", "admin-token", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if data, ok := body["data"].([]any); !ok || len(data) != 1 {
		t.Fatalf("unexpected payload: %v", body)
	}
}

func TestRouter_CreateUserRequiresAdmin(t *testing.T) {
	h := newTestRouter()
	payload := `{"name":"Gil","email":"gil@example.com","password":"secret1","role":"gestor"}`

	code, _ := do(t, h, http.MethodPost, "/api/auth/users", "colab-token", payload)
	if code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}

	code, _ = do(t, h, http.MethodPost, "/api/auth/users", "admin-token", payload)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
}

func TestRouter_Me(t *testing.T) {
	code, body := do(t, newTestRouter(), http.MethodGet, "/api/auth/me", "colab-token", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	data, _ := body["data"].(map[string]any)
	if data["role"] != "colaborador" || data["email"] != "cy@example.com" {
		t.Fatalf("unexpected payload: %v", body)
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	h := newTestRouter()

	var metricsBody string
	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		metricsBody = rec.Body.String()
	}

	for _, name := range []string{"taskmanager_requests_total", "taskmanager_request_duration_seconds"} {
		if !strings.Contains(metricsBody, name) {
			t.Fatalf("expected %s in /metrics output", name)
		}
	}
	if !strings.Contains(metricsBody, `url="/health"`) {
		t.Fatalf("expected /health request to be recorded")
	}
}

func TestRouter_HTTPMetricsRecordRenderedStatus(t *testing.T) {
	h := newTestRouter()

	before := requestCount(t, "409", "/api/auth/register")
	do(t, h, http.MethodPost, "/api/auth/register", "", `{"name":"Cy","email":"taken@example.com","password":"secret1"}`)
	after := requestCount(t, "409", "/api/auth/register")

	if after != before+1 {
		t.Fatalf("expected conflict to be counted once, got %v -> %v", before, after)
	}
}

// requestCount sums taskmanager_requests_total for a status code and route.
func requestCount(t *testing.T, code, url string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	var total float64
	for _, mf := range families {
		if mf.GetName() != "taskmanager_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["code"] == code && labels["url"] == url {
				total += m.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestRouter_SetsRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected X-Request-Id header")
	}
}
