// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atelierloc/backoffice/internal/core"
)

type stubVerifier struct {
	claims *AccessTokenClaims
	err    error
}

func (s *stubVerifier) VerifyAccessToken(
	_ context.Context,
	_ string,
) (*AccessTokenClaims, error) {
	return s.claims, s.err
}

func TestExtractToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer token", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"missing header", "", ""},
		{"wrong scheme", "Basic abc123", ""},
		{"no token part", "Bearer", ""},
		{"extra whitespace", "Bearer   abc123", "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, ExtractToken(req))
		})
	}
}

func TestAuthenticator(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "actor-1", GetActorID(r.Context()))
		assert.Equal(t, "manager", GetActorRole(r.Context()))
		assert.True(t, IsAuthenticated(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token populates context", func(t *testing.T) {
		t.Parallel()
		verifier := &stubVerifier{
			claims: &AccessTokenClaims{ActorID: "actor-1", Role: "manager"},
		}
		handler := Authenticator(verifier)(next)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("missing token is 401", func(t *testing.T) {
		t.Parallel()
		handler := Authenticator(&stubVerifier{})(next)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("expired token is 401", func(t *testing.T) {
		t.Parallel()
		handler := Authenticator(&stubVerifier{err: core.ErrTokenExpired})(next)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	withRole := func(role string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := context.WithValue(req.Context(), ActorIDKey, "actor-1")
		ctx = context.WithValue(ctx, ActorRoleKey, role)
		return req.WithContext(ctx)
	}

	t.Run("allowed role passes", func(t *testing.T) {
		t.Parallel()
		handler := RequireRole("admin", "manager")(next)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, withRole("manager"))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("other role is 403", func(t *testing.T) {
		t.Parallel()
		handler := RequireAdmin(next)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, withRole("collaborator"))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("anonymous is 401", func(t *testing.T) {
		t.Parallel()
		handler := RequireAdmin(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
