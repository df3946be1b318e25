package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name            string
		allowed         []string
		method          string
		origin          string
		preflight       bool
		wantStatus      int
		wantAllowOrigin string
		wantCredentials string
		wantNext        bool
	}{
		{
			name:            "allowed origin gets headers",
			allowed:         []string{"https://app.example.com/"},
			method:          http.MethodGet,
			origin:          "https://app.example.com",
			wantStatus:      http.StatusOK,
			wantAllowOrigin: "https://app.example.com",
			wantCredentials: "true",
			wantNext:        true,
		},
		{
			name:       "unknown origin passes through without headers",
			allowed:    []string{"https://app.example.com"},
			method:     http.MethodGet,
			origin:     "https://evil.example.com",
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:            "wildcard never sends credentials",
			allowed:         []string{"*"},
			method:          http.MethodPost,
			origin:          "https://any.example.com",
			wantStatus:      http.StatusOK,
			wantAllowOrigin: "*",
			wantNext:        true,
		},
		{
			name:            "preflight answered with 204",
			allowed:         []string{"https://app.example.com"},
			method:          http.MethodOptions,
			origin:          "https://app.example.com",
			preflight:       true,
			wantStatus:      http.StatusNoContent,
			wantAllowOrigin: "https://app.example.com",
			wantCredentials: "true",
		},
		{
			name:       "preflight from unknown origin",
			allowed:    []string{"https://app.example.com"},
			method:     http.MethodOptions,
			origin:     "https://evil.example.com",
			preflight:  true,
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(tt.method, "/events", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rr := httptest.NewRecorder()

			CORS(tt.allowed, next).ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantNext, nextCalled)
			assert.Equal(t, tt.wantAllowOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCredentials, rr.Header().Get("Access-Control-Allow-Credentials"))
			if tt.preflight && tt.wantAllowOrigin != "" {
				assert.Equal(t, corsAllowMethods, rr.Header().Get("Access-Control-Allow-Methods"))
				assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")
			}
		})
	}
}
