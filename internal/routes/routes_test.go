package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadforte/leadforte_portal/internal/config"
	"github.com/leadforte/leadforte_portal/internal/docstore"
	"github.com/leadforte/leadforte_portal/internal/logging"
	"github.com/leadforte/leadforte_portal/internal/middleware"
)

type testClient struct {
	t   *testing.T
	app *fiber.App
}

func newTestApp(t *testing.T, opts ...func(*config.Config)) testClient {
	t.Helper()
	return newTestAppWithStore(t, nil, opts...)
}

func newTestAppWithStore(t *testing.T, store docstore.Store, opts ...func(*config.Config)) testClient {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	cfg := config.Config{
		AppName:            "Leadforte",
		AppEnv:             "development",
		JWTSecret:          "test-access",
		RefreshSecret:      "test-refresh",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    time.Hour,
		IdempotencyTTL:     time.Minute,
		AdviceTimeout:      time.Second,
		AdviceHistoryLimit: 20,
		AllowAdminSignup:   true,
		LoginRateLimit:     20,
		AdviceRateLimit:    20,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := logging.Discard()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	require.NoError(t, Setup(app, Deps{Cfg: cfg, Cache: cache, Logger: logger, Store: store}))
	return testClient{t: t, app: app}
}

func (tc testClient) do(method, path, token string, body any, headers ...string) (int, map[string]any) {
	tc.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(tc.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := tc.app.Test(req, -1)
	require.NoError(tc.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(tc.t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(tc.t, json.Unmarshal(raw, &out))
	} else if len(raw) > 0 && raw[0] == '[' {
		var items []any
		require.NoError(tc.t, json.Unmarshal(raw, &items))
		out["items"] = items
	}
	return resp.StatusCode, out
}

func (tc testClient) signup(email, name, role string) string {
	tc.t.Helper()
	status, body := tc.do(http.MethodPost, "/api/v1/identity/register", "", map[string]any{
		"email": email, "password": "secret1", "full_name": name, "role": role,
	})
	require.Equal(tc.t, http.StatusCreated, status, body)

	status, body = tc.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": email, "password": "secret1"})
	require.Equal(tc.t, http.StatusOK, status, body)
	token, _ := body["access_token"].(string)
	require.NotEmpty(tc.t, token)
	return token
}

func TestPolicyAndClaimLifecycleOverHTTP(t *testing.T) {
	tc := newTestApp(t)
	client := tc.signup("chidi@example.com", "Chidi Okafor", "")
	admin := tc.signup("ops@leadforte.ng", "Ops Admin", "admin")

	status, body := tc.do(http.MethodPost, "/api/v1/quotes/estimate", "", map[string]any{"category": "motor", "value": 2_500_000, "duration": 1})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 87_500, body["premium"])
	assert.Equal(t, "NGN", body["currency"])
	assert.Equal(t, "Motor", body["category"])

	status, body = tc.do(http.MethodPost, "/api/v1/quotes/estimate", "", map[string]any{"category": "Health", "declared_value": 4})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 180_000, body["premium"])

	status, body = tc.do(http.MethodPost, "/api/v1/policies", client, map[string]any{"category": "Motor", "plan_name": "Comprehensive", "declared_value": 2_500_000})
	require.Equal(t, http.StatusCreated, status, body)
	policyID := body["id"].(string)
	assert.Equal(t, "pending", body["status"])
	assert.EqualValues(t, 87_500, body["premium"])
	assert.Equal(t, "Chidi Okafor", body["owner_name"])

	status, _ = tc.do(http.MethodPost, "/api/v1/claims", client, map[string]any{"policy_id": policyID, "amount": 50_000, "description": "Rear bumper"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = tc.do(http.MethodPatch, "/api/v1/admin/policies/"+policyID, client, map[string]any{"status": "active"})
	assert.Equal(t, http.StatusForbidden, status)

	for i := 0; i < 2; i++ {
		status, body = tc.do(http.MethodPatch, "/api/v1/admin/policies/"+policyID, admin, map[string]any{"status": "active"})
		require.Equal(t, http.StatusOK, status, body)
		assert.Equal(t, "active", body["status"])
	}
	status, _ = tc.do(http.MethodPatch, "/api/v1/admin/policies/"+policyID, admin, map[string]any{"status": "rejected"})
	assert.Equal(t, http.StatusConflict, status)

	status, body = tc.do(http.MethodPost, "/api/v1/claims", client, map[string]any{
		"policy_id": policyID, "amount": 50_000, "description": "Rear bumper",
		"evidence_urls": []string{"https://cdn.example.com/bumper.jpg"},
	})
	require.Equal(t, http.StatusCreated, status, body)
	claimID := body["id"].(string)
	assert.Equal(t, "under-review", body["status"])

	status, body = tc.do(http.MethodGet, "/api/v1/admin/overview", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["pending_policies"])
	assert.EqualValues(t, 1, body["claims_under_review"])

	status, body = tc.do(http.MethodPatch, "/api/v1/admin/claims/"+claimID, admin, map[string]any{"status": "paid"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "paid", body["status"])

	status, body = tc.do(http.MethodGet, "/api/v1/policies/"+policyID, client, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "active", body["status"])

	status, body = tc.do(http.MethodGet, "/api/v1/claims", client, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["items"], 1)
}

func TestOwnerScopingAndAdminGuards(t *testing.T) {
	tc := newTestApp(t)
	alice := tc.signup("alice@example.com", "Alice", "")
	bob := tc.signup("bob@example.com", "Bob", "")

	status, body := tc.do(http.MethodPost, "/api/v1/policies", alice, map[string]any{"category": "Health", "declared_value": 4})
	require.Equal(t, http.StatusCreated, status, body)
	assert.EqualValues(t, 180_000, body["premium"])
	policyID := body["id"].(string)

	status, _ = tc.do(http.MethodGet, "/api/v1/policies/"+policyID, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = tc.do(http.MethodGet, "/api/v1/policies", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["items"], 0)

	status, _ = tc.do(http.MethodGet, "/api/v1/admin/policies", alice, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = tc.do(http.MethodGet, "/api/v1/policies", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLogoutRevokesSession(t *testing.T) {
	tc := newTestApp(t)
	token := tc.signup("ada@example.com", "Ada", "")

	status, body := tc.do(http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "client", body["role"])
	assert.Equal(t, "ada@example.com", body["email"])

	status, _ = tc.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = tc.do(http.MethodGet, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "token invalidated", body["error"])
}

func TestIdempotentPolicySubmission(t *testing.T) {
	tc := newTestApp(t)
	token := tc.signup("kemi@example.com", "Kemi", "")

	payload := map[string]any{"category": "Life", "declared_value": 10_000_000}
	status, first := tc.do(http.MethodPost, "/api/v1/policies", token, payload, "Idempotency-Key", "quote-1")
	require.Equal(t, http.StatusCreated, status)
	status, second := tc.do(http.MethodPost, "/api/v1/policies", token, payload, "Idempotency-Key", "quote-1")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, first["id"], second["id"])

	status, body := tc.do(http.MethodGet, "/api/v1/policies", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["items"], 1)
}

func TestAdviceFallsBackWithoutProvider(t *testing.T) {
	tc := newTestApp(t)

	status, body := tc.do(http.MethodPost, "/api/v1/advice", "", map[string]any{"message": "What does third-party cover?"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["reply"], "WhatsApp")
}

func TestSignupRoleRules(t *testing.T) {
	tc := newTestApp(t, func(cfg *config.Config) { cfg.AllowAdminSignup = false })

	status, _ := tc.do(http.MethodPost, "/api/v1/identity/register", "", map[string]any{
		"email": "x@example.com", "password": "secret1", "full_name": "X", "role": "superuser",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = tc.do(http.MethodPost, "/api/v1/identity/register", "", map[string]any{
		"email": "x@example.com", "password": "secret1", "full_name": "X", "role": "admin",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = tc.do(http.MethodPost, "/api/v1/identity/register", "", map[string]any{
		"email": "x@example.com", "password": "secret1", "full_name": "X",
	})
	assert.Equal(t, http.StatusCreated, status)

	status, _ = tc.do(http.MethodPost, "/api/v1/identity/register", "", map[string]any{
		"email": "X@example.com", "password": "secret1", "full_name": "X",
	})
	assert.Equal(t, http.StatusConflict, status)
}

func TestHealthReportsDisabledBackends(t *testing.T) {
	tc := newTestApp(t)

	status, body := tc.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "development", body["env"])
	backends := body["status"].(map[string]any)
	assert.Equal(t, "disabled", backends["postgres"])
	assert.Equal(t, "ok", backends["redis"])
}

// flakyUsersStore fails the next profile insert.
type flakyUsersStore struct {
	docstore.Store
	failures int
}

func (s *flakyUsersStore) Insert(ctx context.Context, collection, id string, data map[string]any) (string, error) {
	if collection == docstore.CollectionUsers && s.failures > 0 {
		s.failures--
		return "", errors.New("write timeout")
	}
	return s.Store.Insert(ctx, collection, id, data)
}

func TestSignupRollsBackIdentityWhenProfileFails(t *testing.T) {
	tc := newTestAppWithStore(t, &flakyUsersStore{Store: docstore.NewInMemory(), failures: 1})
	creds := map[string]any{"email": "femi@example.com", "password": "secret1"}

	status, _ := tc.do(http.MethodPost, "/api/v1/identity/register", "", map[string]any{
		"email": "femi@example.com", "password": "secret1", "full_name": "Femi",
	})
	require.Equal(t, http.StatusInternalServerError, status)

	status, _ = tc.do(http.MethodPost, "/api/v1/auth/login", "", creds)
	assert.Equal(t, http.StatusUnauthorized, status)

	token := tc.signup("femi@example.com", "Femi", "")
	status, body := tc.do(http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Femi", body["full_name"])
}
