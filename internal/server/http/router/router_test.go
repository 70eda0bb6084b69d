package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Feel-The-AGI/workstream-server/internal/adapter/provider"
	"github.com/Feel-The-AGI/workstream-server/internal/app"
	"github.com/Feel-The-AGI/workstream-server/internal/config"
	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
	testhelpers "github.com/Feel-The-AGI/workstream-server/internal/test"
	"github.com/Feel-The-AGI/workstream-server/internal/usecase"
)

const testProviderSecret = "sk_test_router"

type healthOK struct{}

func (healthOK) HealthCheck(context.Context) error { return nil }

// newTestEngine wires the real facade over in-memory repositories so routes
// exercise the same composition the runtime uses.
func newTestEngine(t *testing.T) (*gin.Engine, *testhelpers.ProgramRepositoryStub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	users := testhelpers.NewUserRepositoryStub()
	programs := testhelpers.NewProgramRepositoryStub()
	applications := testhelpers.NewApplicationRepositoryStub()
	payments := testhelpers.NewPaymentRepositoryStub()
	publisher := &testhelpers.PublisherStub{}
	gateway := &testhelpers.ProviderGatewayStub{}

	authUC := usecase.NewAuthUseCase(users, testhelpers.HasherStub{}, testhelpers.StrategyStub{})
	slots := usecase.NewSlotAllocator(programs, logger)
	programUC := usecase.NewProgramUseCase(programs)
	applicationUC := usecase.NewApplicationUseCase(applications, programs, payments, slots, publisher)
	paymentUC := usecase.NewPaymentUseCase(payments, applications, programs, users, gateway, publisher, logger)

	authz := app.NewOwnerAuthorizer(programs)
	facade := app.NewMarketplaceFacade(authUC, programUC, applicationUC, paymentUC, authz)

	cfg := &config.Config{ProviderSecret: testProviderSecret}
	engine := Setup(facade, provider.NewWebhookVerifier(testProviderSecret), healthOK{}, nil, cfg, logger)
	return engine, programs
}

func TestSetupRoutes(t *testing.T) {
	engine, _ := newTestEngine(t)

	body, _ := json.Marshal(map[string]string{"email": "student@test.dev", "password": "pass", "role": "student"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for register, got %d", resp.Code)
	}
	token := resp.Header().Get("Authorization")
	if token == "" {
		t.Fatal("expected authorization header after register")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/applications", nil)
	req.Header.Set("Authorization", token)
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for empty application list, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for healthz, got %d", resp.Code)
	}
}

func TestSetupGuardsAuthenticatedRoutes(t *testing.T) {
	engine, _ := newTestEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/api/programs", nil)
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", resp.Code)
	}
}

func TestSetupApplicationFlow(t *testing.T) {
	engine, programs := newTestEngine(t)
	programs.Seed(model.Program{OwnerID: 77, Title: "Data Engineering", TotalSlots: 3, AvailableSlots: 3, Status: model.ProgramStatusOpen})

	body, _ := json.Marshal(map[string]string{"email": "student@test.dev", "password": "pass", "role": "student"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for register, got %d", resp.Code)
	}
	token := resp.Header().Get("Authorization")

	body, _ = json.Marshal(map[string]any{"program_id": 1})
	req = httptest.NewRequest(http.MethodPost, "/api/applications", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201 for application create, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode application response: %v", err)
	}
	if created.Status != string(model.ApplicationStatusDraft) {
		t.Fatalf("expected DRAFT application, got %q", created.Status)
	}
}

func TestSetupWebhookBypassesAuth(t *testing.T) {
	engine, _ := newTestEngine(t)

	body := []byte(`{"event":"subscription.create","data":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for unsigned webhook, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set(provider.SignatureHeader, provider.Signature(testProviderSecret, body))
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for signed webhook, got %d", resp.Code)
	}
}
