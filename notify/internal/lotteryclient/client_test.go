package lotteryclient

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
	mux.HandleFunc("/api/v1/draws/d1/participants", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":[{"userId":"u1","ticketCount":3},{"userId":"u2","ticketCount":1},{"userId":"u1","ticketCount":2}]}`))
	})
	mux.HandleFunc("/api/v1/houses/h1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"h1","title":"Villa","createdByUserId":"owner","price":250000.5}}`))
	})
	mux.HandleFunc("/api/v1/houses/h1/favorites", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":[{"userId":"f1","houseId":"h1"},{"userId":"f1","houseId":"h1"},{"userId":"f2","houseId":"h1"}]}`))
	})
	mux.HandleFunc("/api/v1/houses/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/api/v1/draws/broken/participants", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient_GetDrawParticipants(t *testing.T) {
	c := New(newTestServer(t).URL, "", time.Second)

	ids, err := c.GetDrawParticipants(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, ids)

	_, err = c.GetDrawParticipants(context.Background(), "broken")
	assert.Error(t, err)
}

func TestClient_HouseInfo(t *testing.T) {
	c := New(newTestServer(t).URL, "", time.Second)
	ctx := context.Background()

	house, err := c.GetHouseInfo(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "Villa", house.Title)
	assert.InDelta(t, 250000.5, house.Price, 0.001)

	creator, err := c.GetHouseCreatorID(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "owner", creator)

	house, err = c.GetHouseInfo(ctx, "gone")
	require.NoError(t, err)
	assert.Nil(t, house)

	creator, err = c.GetHouseCreatorID(ctx, "gone")
	require.NoError(t, err)
	assert.Empty(t, creator)
}

func TestClient_GetHouseFavoriteUserIDs(t *testing.T) {
	c := New(newTestServer(t).URL, "", time.Second)

	ids, err := c.GetHouseFavoriteUserIDs(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2"}, ids)
}
