package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"meetingscheduler/internal/delivery/http/helpers"
	"meetingscheduler/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeTokenVerifier implements domain.TokenVerifier for tests.
type fakeTokenVerifier struct {
	userID    string
	err       error
	lastToken string
}

func (f *fakeTokenVerifier) Verify(token string) (string, error) {
	f.lastToken = token
	if f.err != nil {
		return "", f.err
	}
	return f.userID, nil
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name          string
		authHeader    string
		verifier      *fakeTokenVerifier
		wantStatus    int
		wantMessage   string
		wantToken     string
		wantContextID string
	}{
		{
			name:          "valid token sets context and calls next",
			authHeader:    "Bearer valid-token",
			verifier:      &fakeTokenVerifier{userID: "mario"},
			wantStatus:    http.StatusOK,
			wantToken:     "valid-token",
			wantContextID: "mario",
		},
		{
			name:          "scheme is case insensitive",
			authHeader:    "bearer   spaced-token ",
			verifier:      &fakeTokenVerifier{userID: "luigi"},
			wantStatus:    http.StatusOK,
			wantToken:     "spaced-token",
			wantContextID: "luigi",
		},
		{
			name:        "missing authorization header",
			verifier:    &fakeTokenVerifier{userID: "mario"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "missing authorization header",
		},
		{
			name:        "basic scheme",
			authHeader:  "Basic abc",
			verifier:    &fakeTokenVerifier{userID: "mario"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "invalid authorization format",
		},
		{
			name:        "empty token after Bearer",
			authHeader:  "Bearer ",
			verifier:    &fakeTokenVerifier{userID: "mario"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "missing token",
		},
		{
			name:        "verifier rejects token",
			authHeader:  "Bearer expired",
			verifier:    &fakeTokenVerifier{err: errors.New("token is expired")},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "invalid or expired token",
			wantToken:   "expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			var capturedUserID string
			next := func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				capturedUserID, _ = UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}
			handler := RequireAuth(tt.verifier, discardLogger)(next)

			req := httptest.NewRequest(http.MethodGet, "/events/me", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			handler(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, nextCalled)
			assert.Equal(t, tt.wantToken, tt.verifier.lastToken)
			if nextCalled {
				assert.Equal(t, tt.wantContextID, capturedUserID)
				return
			}
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			require.NotNil(t, envelope.Error)
			assert.Equal(t, helpers.ErrCodeUnauthorized, envelope.Error.Code)
			assert.Equal(t, tt.wantMessage, envelope.Error.Message)
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := UserIDFromContext(req.Context())
	assert.False(t, ok)

	_, ok = UserIDFromContext(SetUserID(req.Context(), ""))
	assert.False(t, ok)

	id, ok := UserIDFromContext(SetUserID(req.Context(), "peach"))
	assert.True(t, ok)
	assert.Equal(t, "peach", id)
}

var _ domain.TokenVerifier = (*fakeTokenVerifier)(nil)
