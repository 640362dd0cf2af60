package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

func fixedClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL+"/", "ewm-main-service", time.Second)
	c.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestHitPostsEndpointHit(t *testing.T) {
	var got EndpointHit
	c := fixedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/hit", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))

	require.NoError(t, c.Hit(context.Background(), "/events/7", "10.0.0.1"))
	assert.Equal(t, EndpointHit{
		App:       "ewm-main-service",
		URI:       "/events/7",
		IP:        "10.0.0.1",
		Timestamp: "2026-05-01 12:00:00",
	}, got)
}

func TestHitReportsServerError(t *testing.T) {
	c := fixedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	assert.Error(t, c.Hit(context.Background(), "/events", "::1"))
}

func TestViewsQueriesPublishedEventsOnly(t *testing.T) {
	c := fixedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/stats", r.URL.Path)
		assert.Equal(t, "2026-04-01 08:00:00", q.Get("start"))
		assert.Equal(t, "2026-05-01 12:00:00", q.Get("end"))
		assert.Equal(t, "true", q.Get("unique"))
		assert.ElementsMatch(t, []string{"/events/1", "/events/2"}, q["uris"])

		_ = json.NewEncoder(w).Encode([]ViewStats{
			{App: "ewm-main-service", URI: "/events/1", Hits: 5},
			{App: "ewm-main-service", URI: "/events/2", Hits: 1},
		})
	}))

	early := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	late := early.Add(96 * time.Hour)
	views, err := c.Views(context.Background(), []model.Event{
		{ID: 1, PublishedOn: &late},
		{ID: 2, PublishedOn: &early},
		{ID: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 5, 2: 1}, views)
}

func TestViewsSkipsCallWithoutPublishedEvents(t *testing.T) {
	called := false
	c := fixedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	views, err := c.Views(context.Background(), []model.Event{{ID: 1}})
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.False(t, called)
}
