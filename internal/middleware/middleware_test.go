package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dinerhub/internal/caching"
	"dinerhub/internal/common"
	"dinerhub/internal/config"
	"dinerhub/internal/models"
	"dinerhub/internal/repositories"
	"dinerhub/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubRolePermissions struct {
	names map[uuid.UUID][]string
}

func (s *stubRolePermissions) WithTx(tx repositories.DBTX) repositories.RolePermissionRepository {
	return s
}

func (s *stubRolePermissions) Replace(ctx context.Context, roleID uuid.UUID, ids []uuid.UUID) error {
	return nil
}

func (s *stubRolePermissions) ListByRole(ctx context.Context, roleID uuid.UUID) ([]models.Permission, error) {
	return nil, nil
}

func (s *stubRolePermissions) PermissionNames(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	return s.names[roleID], nil
}

type gateFixture struct {
	e        *echo.Echo
	cache    caching.CacheService
	reached  bool
	adminID  uuid.UUID
	clientID uuid.UUID
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := caching.NewCacheServiceFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &gateFixture{e: echo.New(), cache: cache, adminID: uuid.New(), clientID: uuid.New()}
	rbac := services.NewRBACService(&stubRolePermissions{names: map[uuid.UUID][]string{
		f.adminID: {"order.*"},
	}}, cache, logger)
	auth := services.NewAuthService(nil, nil, nil, cache, nil, config.AuthConfig{JWTSecret: testSecret}, logger)

	gate := NewRBACMiddleware(rbac)
	f.e.GET("/orders", func(c echo.Context) error {
		f.reached = true
		return c.NoContent(http.StatusOK)
	}, JWTMiddleware(auth), gate.Require("order.list"))
	return f
}

func sign(t *testing.T, claims *services.TokenClaims) string {
	t.Helper()
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    "dinerhub-auth",
		Audience:  jwt.ClaimStrings{"dinerhub-api"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		ID:        uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (f *gateFixture) do(token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func TestGate_MissingToken(t *testing.T) {
	f := newGateFixture(t)
	rec := f.do("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, f.reached)
}

func TestGate_BadSignature(t *testing.T) {
	f := newGateFixture(t)
	claims := &services.TokenClaims{UserID: uuid.NewString(), RoleID: f.adminID.String(), RoleName: models.RoleAdmin}
	claims.RegisteredClaims = jwt.RegisteredClaims{Issuer: "dinerhub-auth", Audience: jwt.ClaimStrings{"dinerhub-api"}}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	rec := f.do(forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, f.reached)
}

func TestGate_ForbiddenBeforeHandler(t *testing.T) {
	f := newGateFixture(t)
	token := sign(t, &services.TokenClaims{UserID: uuid.NewString(), RoleID: f.clientID.String(), RoleName: models.RoleClient})

	rec := f.do(token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), string(common.KindForbidden))
	assert.False(t, f.reached)
}

func TestGate_WildcardPermissionAllows(t *testing.T) {
	f := newGateFixture(t)
	token := sign(t, &services.TokenClaims{UserID: uuid.NewString(), RoleID: f.adminID.String(), RoleName: models.RoleAdmin})

	rec := f.do(token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.reached)
}

func TestGate_RevokedSessionVersion(t *testing.T) {
	f := newGateFixture(t)
	userID := uuid.NewString()
	token := sign(t, &services.TokenClaims{UserID: userID, RoleID: f.adminID.String(), RoleName: models.RoleAdmin})

	_, err := f.cache.Incr(context.Background(), "session_version:"+userID)
	require.NoError(t, err)

	rec := f.do(token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, f.reached)
}

func TestRequire_UnknownOperationPanics(t *testing.T) {
	gate := NewRBACMiddleware(nil)
	assert.Panics(t, func() { gate.Require("order.teleport") })
}

func TestExtractVersionFromPath(t *testing.T) {
	cases := map[string]string{
		"/v1/orders": "v1",
		"/v12":       "v12",
		"/health":    "",
		"/vx/orders": "",
		"/v0/orders": "",
	}
	for path, want := range cases {
		assert.Equal(t, want, extractVersionFromPath(path), path)
	}
}

func TestAPIVersionResolver_UnknownVersion(t *testing.T) {
	e := echo.New()
	vm := NewVersionMiddleware()
	e.Use(vm.APIVersionResolver())
	e.GET("/v9/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v9/ping", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "v1")
}
