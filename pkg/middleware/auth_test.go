package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cowriteapp/cowrite/internal/auth"
	"github.com/cowriteapp/cowrite/pkg/middleware"
)

type stubVerifier struct {
	userID int64
	err    error
}

func (s *stubVerifier) Verify(token string) (int64, error) {
	return s.userID, s.err
}

type stubResolver struct {
	principal *auth.Principal
	err       error
}

func (s *stubResolver) ResolvePrincipal(ctx context.Context, userID int64) (*auth.Principal, error) {
	return s.principal, s.err
}

func newAuthedHandler(verifier *stubVerifier, resolver *stubResolver, got **auth.Principal) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = middleware.GetPrincipal(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return middleware.Auth(verifier, resolver)(inner)
}

func TestAuth_AttachesPrincipal(t *testing.T) {
	want := &auth.Principal{ID: 9, Email: "a@example.com"}
	var got *auth.Principal
	handler := newAuthedHandler(&stubVerifier{userID: 9}, &stubResolver{principal: want}, &got)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if got != want {
		t.Errorf("principal: got %+v, want %+v", got, want)
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	var got *auth.Principal
	handler := newAuthedHandler(&stubVerifier{userID: 9}, &stubResolver{}, &got)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuth_BadToken(t *testing.T) {
	var got *auth.Principal
	handler := newAuthedHandler(&stubVerifier{err: errors.New("bad")}, &stubResolver{}, &got)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireSuperAdmin(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.RequireSuperAdmin(inner)

	cases := []struct {
		name      string
		principal *auth.Principal
		want      int
	}{
		{"elevated", &auth.Principal{ID: 1, SuperAdmin: true}, http.StatusOK},
		{"regular", &auth.Principal{ID: 2}, http.StatusForbidden},
		{"anonymous", nil, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.principal != nil {
				ctx := context.WithValue(req.Context(), middleware.PrincipalKey, tc.principal)
				req = req.WithContext(ctx)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Errorf("status: got %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
