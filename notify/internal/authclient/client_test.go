package authclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/users/active", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":[{"userId":"u1"},{"userId":"u2"}]}`))
	})
	mux.HandleFunc("/api/v1/auth/users/segment/premium", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":[{"userId":"u3"}]}`))
	})
	mux.HandleFunc("/api/v1/auth/users/u1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "svc-key", r.Header.Get("X-Service-Auth"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"u1","email":"alice@example.com","firstName":"Alice"}}`))
	})
	mux.HandleFunc("/api/v1/auth/users/ghost", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient_ActiveAndSegment(t *testing.T) {
	c := New(newTestServer(t).URL, "svc-key", time.Second)
	ctx := context.Background()

	ids, err := c.GetActiveUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, ids)

	ids, err = c.GetUserIDsBySegment(ctx, "premium")
	require.NoError(t, err)
	assert.Equal(t, []string{"u3"}, ids)

	_, err = c.GetUserIDsBySegment(ctx, "unknown")
	assert.Error(t, err)
}

func TestClient_GetUserInfo(t *testing.T) {
	c := New(newTestServer(t).URL, "svc-key", time.Second)

	user, err := c.GetUserInfo(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice", user.DisplayName())

	user, err = c.GetUserInfo(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestDisplayName(t *testing.T) {
	var nilUser *UserInfo
	assert.Equal(t, "User", nilUser.DisplayName())
	assert.Equal(t, "bob99", (&UserInfo{Username: "bob99"}).DisplayName())
	assert.Equal(t, "User", (&UserInfo{}).DisplayName())
}

func TestNilClient(t *testing.T) {
	var c *Client
	_, err := c.GetActiveUserIDs(context.Background())
	assert.Error(t, err)
	_, err = c.GetUserInfo(context.Background(), "u1")
	assert.Error(t, err)
}
