package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authTestHandler(token string) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return AuthMiddleware(token, next)
}

func TestAuthMiddleware(t *testing.T) {
	for _, tc := range []struct {
		name   string
		token  string
		method string
		path   string
		header string
		want   int
	}{
		{"DisabledPassesThrough", "", "GET", "/v1/workspaces/acme", "", http.StatusOK},
		{"MissingHeader", "secret", "GET", "/v1/workspaces/acme", "", http.StatusUnauthorized},
		{"WrongScheme", "secret", "GET", "/v1/workspaces/acme", "Basic c2VjcmV0", http.StatusUnauthorized},
		{"WrongToken", "secret", "GET", "/v1/workspaces/acme", "Bearer nope", http.StatusUnauthorized},
		{"ValidToken", "secret", "GET", "/v1/workspaces/acme", "Bearer secret", http.StatusOK},
		{"HealthExempt", "secret", "GET", "/v1/health", "", http.StatusOK},
		{"HealthPostNotExempt", "secret", "POST", "/v1/health", "", http.StatusUnauthorized},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			authTestHandler(tc.token).ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}
