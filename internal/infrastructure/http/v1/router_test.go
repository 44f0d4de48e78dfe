package v1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyhub/internal/core/apperror"
	appctx "policyhub/internal/core/context"
	"policyhub/internal/domain/auth"
	"policyhub/internal/domain/numbering"
	v1 "policyhub/internal/infrastructure/http/v1"
	"policyhub/internal/infrastructure/http/v1/dto"
	"policyhub/internal/infrastructure/metrics"
	"policyhub/internal/infrastructure/storage/memory"
	"policyhub/pkg/logger"
)

const (
	tenantA = "0191e3a0-7f6b-7c1e-9d2a-5b8c4e6f1a20"
	tenantB = "0191e3a0-7f6b-7c1e-9d2a-5b8c4e6f1a21"
)

type api struct {
	t      *testing.T
	router *gin.Engine
	jwt    *auth.JWTService
	token  string
}

func newAPI(t *testing.T, authRequired bool) *api {
	t.Helper()
	counters := memory.NewCounterStore()
	clock := numbering.ClockFunc(func() time.Time {
		return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	})
	registry := numbering.NewRegistry(numbering.RegistryConfig{
		Repo:      memory.NewGeneratorRepo(),
		Counters:  counters,
		Revisions: memory.NewRevisionLog(),
		Clock:     clock,
	})
	reg := prometheus.NewRegistry()
	service := numbering.NewService(numbering.ServiceConfig{
		Registry: registry,
		Counters: counters,
		Clock:    clock,
		Recorder: metrics.New(reg),
	})

	jwt := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))
	router := v1.NewRouter(v1.RouterConfig{
		Numbering:    service,
		Logger:       logger.NewNop(),
		JWTValidator: jwt,
		AuthRequired: authRequired,
		Backend:      "memory",
		Version:      "test",
		Gatherer:     reg,
	})
	return &api{t: t, router: router, jwt: jwt}
}

func (a *api) as(tenantID string, roles ...string) *api {
	token, _, err := a.jwt.GenerateAccessToken(appctx.UserContext{
		UserID:   "user-1",
		TenantID: tenantID,
		Roles:    roles,
	}, time.Hour)
	require.NoError(a.t, err)
	cp := *a
	cp.token = token
	return &cp
}

func (a *api) do(method, path, tenantID string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tenantID != "" {
		req.Header.Set("X-Tenant-ID", tenantID)
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func policyRequest() dto.GeneratorRequest {
	return dto.GeneratorRequest{
		ProductCode: "POL",
		Mask:        "POL-########",
		ResetPolicy: "yearly",
		MaxValue:    99999999,
	}
}

const generators = "/api/v1/numbering/generators"

func TestAPI_CreateAndIssue(t *testing.T) {
	a := newAPI(t, false)

	w := a.do(http.MethodPost, generators, tenantA, policyRequest())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[dto.GeneratorResponse](t, w)
	assert.Equal(t, "POL", created.ProductCode)
	assert.Equal(t, "YEARLY", created.ResetPolicy)
	assert.Equal(t, 1, created.Version)
	assert.NotEmpty(t, created.ID)

	for _, want := range []string{"POL-00000001", "POL-00000002"} {
		w = a.do(http.MethodPost, generators+"/POL/next", tenantA, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		issued := decode[dto.IssuedResponse](t, w)
		assert.Equal(t, want, issued.Number)
		assert.Equal(t, "2024", issued.Period)
		assert.False(t, issued.Overflowed)
	}

	w = a.do(http.MethodPost, generators+"/POL/decode", tenantA, dto.DecodeRequest{Number: "POL-00000002"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), decode[dto.DecodeResponse](t, w).Value)
}

func TestAPI_ValidationErrors(t *testing.T) {
	a := newAPI(t, false)

	req := dto.GeneratorRequest{ProductCode: "BAD", Mask: "NOFIELD", ResetPolicy: "YEARLY"}
	w := a.do(http.MethodPost, generators, tenantA, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode[struct {
		Code    string `json:"code"`
		Details struct {
			Errors []apperror.FieldError `json:"errors"`
		} `json:"details"`
	}](t, w)
	assert.Equal(t, apperror.CodeValidation, body.Code)
	require.Len(t, body.Details.Errors, 1)
	assert.Equal(t, "mask", body.Details.Errors[0].Field)
	assert.Equal(t, numbering.CodeNoPlaceholder, body.Details.Errors[0].Code)

	w = a.do(http.MethodGet, generators+"/BAD", tenantA, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_ValidateEndpoint(t *testing.T) {
	a := newAPI(t, false)

	w := a.do(http.MethodPost, generators+"/validate", tenantA, policyRequest())
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[dto.ValidationResponse](t, w).Valid)

	bad := policyRequest()
	bad.MaxValue = -1
	bad.ResetPolicy = "weekly"
	w = a.do(http.MethodPost, generators+"/validate", tenantA, bad)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[dto.ValidationResponse](t, w)
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 2)

	// Nothing was created.
	w = a.do(http.MethodGet, generators, tenantA, nil)
	assert.Equal(t, 0, decode[dto.ListResponse[dto.GeneratorResponse]](t, w).TotalCount)
}

func TestAPI_UpdateAndHistory(t *testing.T) {
	a := newAPI(t, false)
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, generators, tenantA, policyRequest()).Code)

	upd := policyRequest()
	upd.ProductCode = "ignored"
	upd.Mask = "P/########"
	upd.XORMask = "k"
	upd.Version = 1
	w := a.do(http.MethodPut, generators+"/POL", tenantA, upd)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[dto.GeneratorResponse](t, w)
	assert.Equal(t, "POL", updated.ProductCode)
	assert.Equal(t, 2, updated.Version)
	assert.True(t, updated.Obfuscated)

	stale := a.do(http.MethodPut, generators+"/POL", tenantA, upd)
	assert.Equal(t, http.StatusConflict, stale.Code)

	w = a.do(http.MethodGet, generators+"/POL/history", tenantA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[dto.ListResponse[dto.RevisionResponse]](t, w)
	require.Equal(t, 1, history.TotalCount)
	assert.Equal(t, "POL-########", history.Items[0].Mask)
	assert.False(t, history.Items[0].Obfuscated)
}

func TestAPI_TenantIsolation(t *testing.T) {
	a := newAPI(t, false)
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, generators, tenantA, policyRequest()).Code)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, generators+"/POL/next", tenantB, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, generators, "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, generators, "acme", nil).Code)
}

func TestAPI_AuthRequired(t *testing.T) {
	a := newAPI(t, true)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, generators, tenantA, nil).Code)

	issuer := a.as(tenantA, auth.RoleIssuer)
	assert.Equal(t, http.StatusForbidden, issuer.do(http.MethodPost, generators, tenantA, policyRequest()).Code)

	admin := a.as(tenantA, auth.RoleAdmin)
	require.Equal(t, http.StatusCreated, admin.do(http.MethodPost, generators, tenantA, policyRequest()).Code)

	w := issuer.do(http.MethodPost, generators+"/POL/next", tenantA, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "POL-00000001", decode[dto.IssuedResponse](t, w).Number)

	// A token is bound to its tenant.
	assert.Equal(t, http.StatusForbidden, issuer.do(http.MethodPost, generators+"/POL/next", tenantB, nil).Code)

	reader := a.as(tenantA)
	assert.Equal(t, http.StatusForbidden, reader.do(http.MethodPost, generators+"/POL/next", tenantA, nil).Code)
	assert.Equal(t, http.StatusOK, reader.do(http.MethodGet, generators+"/POL", tenantA, nil).Code)
}

func TestAPI_HealthAndMetrics(t *testing.T) {
	a := newAPI(t, false)
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, generators, tenantA, policyRequest()).Code)
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, generators+"/POL/next", tenantA, nil).Code)

	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/health/ready", "", nil).Code)

	w := a.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "policyhub_numbers_issued_total")
}
