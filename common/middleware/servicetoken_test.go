package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amesa-systems/amesa-notify/common/tokens"
)

func TestRequireServiceToken(t *testing.T) {
	tg, err := tokens.NewTokenGenerator("middleware-test-secret")
	require.NoError(t, err)

	webhookToken, err := tg.Generate("event-bus", []string{"webhook"}, time.Minute)
	require.NoError(t, err)
	fullToken, err := tg.Generate("operator", nil, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "wrong scope", header: "Bearer " + webhookToken, wantStatus: http.StatusForbidden},
		{name: "unscoped token", header: "Bearer " + fullToken, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var subject string
			handler := RequireServiceToken(tg, "admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				subject = GetClaims(r.Context()).Subject
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/dlq", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "operator", subject)
			}
		})
	}
}

func TestRequireServiceToken_NilValidatorPassesThrough(t *testing.T) {
	called := false
	handler := RequireServiceToken(nil, "webhook")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	assert.True(t, called)
}
