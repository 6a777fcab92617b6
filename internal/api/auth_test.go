package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func mintAdminToken(t *testing.T, secret, role, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func protectedEndpoint(t *testing.T, secret string, roles ...string) http.Handler {
	t.Helper()
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if len(roles) > 0 {
		handler = RequireRole(roles...)(handler)
	}
	return AdminJWT(secret)(handler)
}

func TestAdminJWTAcceptsValidToken(t *testing.T) {
	handler := protectedEndpoint(t, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/admin/schedule/slots", nil)
	req.Header.Set("Authorization", "Bearer "+mintAdminToken(t, testSecret, RoleOwner, uuid.NewString()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminJWTRejectsMissingToken(t *testing.T) {
	handler := protectedEndpoint(t, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/admin/schedule/slots", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWTRejectsWrongSecret(t *testing.T) {
	handler := protectedEndpoint(t, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/admin/schedule/slots", nil)
	req.Header.Set("Authorization", "Bearer "+mintAdminToken(t, "other-secret", RoleOwner, uuid.NewString()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWTRejectsExpiredToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		Role: RoleOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	handler := protectedEndpoint(t, testSecret)
	req := httptest.NewRequest(http.MethodGet, "/admin/schedule/slots", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWTRejectsWhenSecretUnset(t *testing.T) {
	handler := protectedEndpoint(t, "")

	req := httptest.NewRequest(http.MethodGet, "/admin/schedule/slots", nil)
	req.Header.Set("Authorization", "Bearer "+mintAdminToken(t, testSecret, RoleOwner, uuid.NewString()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleFiltersByRole(t *testing.T) {
	handler := protectedEndpoint(t, testSecret, RoleOwner, RoleEditor)

	cases := []struct {
		role string
		want int
	}{
		{RoleOwner, http.StatusNoContent},
		{RoleEditor, http.StatusNoContent},
		{RoleAssistant, http.StatusForbidden},
		{"intern", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/admin/schedule/slots", nil)
		req.Header.Set("Authorization", "Bearer "+mintAdminToken(t, testSecret, tc.role, uuid.NewString()))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "role %q", tc.role)
	}
}

func TestActorIDFromClaims(t *testing.T) {
	subject := uuid.New()
	handler := AdminJWT(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := actorID(r.Context())
		require.NotNil(t, id)
		assert.Equal(t, subject, *id)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/schedule/slots", nil)
	req.Header.Set("Authorization", "Bearer "+mintAdminToken(t, testSecret, RoleOwner, subject.String()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
