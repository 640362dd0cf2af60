package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/logger"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/repository/memory"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/service"
)

var testNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type recordedHits struct {
	mu   sync.Mutex
	uris []string
}

func (h *recordedHits) Hit(_ context.Context, uri, _ string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.uris = append(h.uris, uri)
	return nil
}

type api struct {
	t    *testing.T
	srv  *httptest.Server
	hits *recordedHits
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.New()
	opts := service.Options{Now: func() time.Time { return testNow }, Logger: logger.Nop()}
	hits := &recordedHits{}
	router := NewRouter(Deps{
		Events:    service.NewEventService(store, nil, opts),
		Requests:  service.NewRequestService(store, opts),
		Directory: service.NewDirectoryService(store, opts),
		Hits:      hits,
		Logger:    logger.Nop(),
		Now:       func() time.Time { return testNow },
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &api{t: t, srv: srv, hits: hits}
}

// do sends body (marshaled unless it is already a string) and decodes the
// response into out when out is non-nil.
func (a *api) do(method, path string, body any, out any) int {
	a.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}
	req, err := http.NewRequest(method, a.srv.URL+path, &buf)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *api) user(name string) model.UserDto {
	a.t.Helper()
	var u model.UserDto
	code := a.do(http.MethodPost, "/admin/users", model.NewUserRequest{Name: name, Email: name + "@example.com"}, &u)
	require.Equal(a.t, http.StatusCreated, code)
	return u
}

func (a *api) category(name string) model.CategoryDto {
	a.t.Helper()
	var c model.CategoryDto
	code := a.do(http.MethodPost, "/admin/categories", model.NewCategoryDto{Name: name}, &c)
	require.Equal(a.t, http.StatusCreated, code)
	return c
}

func eventBody(category int64, limit int, moderation bool) map[string]any {
	return map[string]any{
		"annotation":        "An evening of open air music by the river",
		"category":          category,
		"description":       "Bring a blanket; the concert lasts about three hours.",
		"eventDate":         model.FormatTime(testNow.Add(48 * time.Hour)),
		"location":          map[string]float64{"lat": 55.75, "lon": 37.62},
		"participantLimit":  limit,
		"requestModeration": moderation,
		"title":             "River concert",
	}
}

func (a *api) publishedEvent(owner model.UserDto, category int64, limit int, moderation bool) model.EventFullDto {
	a.t.Helper()
	var ev model.EventFullDto
	code := a.do(http.MethodPost, fmt.Sprintf("/users/%d/events", owner.ID), eventBody(category, limit, moderation), &ev)
	require.Equal(a.t, http.StatusCreated, code)
	code = a.do(http.MethodPatch, fmt.Sprintf("/admin/events/%d", ev.ID), map[string]string{"stateAction": "PUBLISH_EVENT"}, &ev)
	require.Equal(a.t, http.StatusOK, code)
	return ev
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestEventLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)
	owner := a.user("owner")
	guest := a.user("guest")
	cat := a.category("concerts")

	ev := a.publishedEvent(owner, cat.ID, 1, true)
	assert.Equal(t, model.EventPublished, ev.State)
	require.NotNil(t, ev.PublishedOn)
	assert.Equal(t, testNow, ev.PublishedOn.Time)

	var req model.ParticipationRequestDto
	code := a.do(http.MethodPost, fmt.Sprintf("/users/%d/requests?eventId=%d", guest.ID, ev.ID), nil, &req)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, model.RequestPending, req.Status)

	var result model.EventRequestStatusUpdateResult
	code = a.do(http.MethodPatch, fmt.Sprintf("/users/%d/events/%d/requests", owner.ID, ev.ID),
		model.EventRequestStatusUpdateRequest{RequestIDs: []int64{req.ID}, Status: model.RequestConfirmed}, &result)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, result.ConfirmedRequests, 1)
	assert.Empty(t, result.RejectedRequests)

	var public model.EventFullDto
	code = a.do(http.MethodGet, fmt.Sprintf("/events/%d", ev.ID), nil, &public)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(1), public.ConfirmedRequests)
	assert.Equal(t, []string{fmt.Sprintf("/events/%d", ev.ID)}, a.hits.uris)

	var canceled model.ParticipationRequestDto
	code = a.do(http.MethodPatch, fmt.Sprintf("/users/%d/requests/%d/cancel", guest.ID, req.ID), nil, &canceled)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.RequestCanceled, canceled.Status)

	var mine []model.ParticipationRequestDto
	code = a.do(http.MethodGet, fmt.Sprintf("/users/%d/requests", guest.ID), nil, &mine)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, mine, 1)
	assert.Equal(t, model.RequestCanceled, mine[0].Status)
}

func TestErrorStatusMapping(t *testing.T) {
	a := newAPI(t)
	owner := a.user("owner")
	other := a.user("other")
	cat := a.category("concerts")
	ev := a.publishedEvent(owner, cat.ID, 0, false)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
		status string
	}{
		{"malformed json", http.MethodPost, "/admin/categories", "{", http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown field", http.MethodPost, "/admin/categories", `{"title":"x"}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"blank name", http.MethodPost, "/admin/categories", `{"name":""}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"bad path id", http.MethodGet, "/events/abc", nil, http.StatusBadRequest, "BAD_REQUEST"},
		{"bad size", http.MethodGet, "/events?size=0", nil, http.StatusBadRequest, "BAD_REQUEST"},
		{"bad date", http.MethodGet, "/events?rangeStart=2026-06-01T10:00:00Z", nil, http.StatusBadRequest, "BAD_REQUEST"},
		{"missing event id", http.MethodPost, fmt.Sprintf("/users/%d/requests", other.ID), nil, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown event", http.MethodGet, "/events/999", nil, http.StatusNotFound, "NOT_FOUND"},
		{"not owner", http.MethodGet, fmt.Sprintf("/users/%d/events/%d", other.ID, ev.ID), nil, http.StatusForbidden, "FORBIDDEN"},
		{"publish twice", http.MethodPatch, fmt.Sprintf("/admin/events/%d", ev.ID), map[string]string{"stateAction": "PUBLISH_EVENT"}, http.StatusConflict, "CONFLICT"},
		{"duplicate category", http.MethodPost, "/admin/categories", model.NewCategoryDto{Name: "concerts"}, http.StatusConflict, "CONFLICT"},
		{"own event request", http.MethodPost, fmt.Sprintf("/users/%d/requests?eventId=%d", owner.ID, ev.ID), nil, http.StatusConflict, "CONFLICT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body ApiError
			code := a.do(tc.method, tc.path, tc.body, &body)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.status, body.Status)
			assert.NotEmpty(t, body.Reason)
			assert.NotEmpty(t, body.Message)
			assert.Equal(t, model.FormatTime(testNow), body.Timestamp)
			assert.Empty(t, body.IncidentID)
		})
	}
}

func TestValidationMessageNamesField(t *testing.T) {
	a := newAPI(t)
	owner := a.user("owner")
	cat := a.category("concerts")

	body := eventBody(cat.ID, 0, false)
	body["title"] = "x"
	var apiErr ApiError
	code := a.do(http.MethodPost, fmt.Sprintf("/users/%d/events", owner.ID), body, &apiErr)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Field: title. Error: must be at least 3.", apiErr.Message)
}

func TestEventDateTooSoon(t *testing.T) {
	a := newAPI(t)
	owner := a.user("owner")
	cat := a.category("concerts")

	body := eventBody(cat.ID, 0, false)
	body["eventDate"] = model.FormatTime(testNow.Add(30 * time.Minute))
	var apiErr ApiError
	code := a.do(http.MethodPost, fmt.Sprintf("/users/%d/events", owner.ID), body, &apiErr)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, apiErr.Message, "eventDate")
}

func TestPublicSearchAndPagination(t *testing.T) {
	a := newAPI(t)
	owner := a.user("owner")
	cat := a.category("concerts")
	for i := 0; i < 3; i++ {
		a.publishedEvent(owner, cat.ID, 0, false)
	}

	var page []model.EventShortDto
	code := a.do(http.MethodGet, fmt.Sprintf("/events?categories=%d&from=1&size=1&sort=EVENT_DATE", cat.ID), nil, &page)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, page, 1)

	var all []model.EventShortDto
	code = a.do(http.MethodGet, "/events?text=RIVER&onlyAvailable=true", nil, &all)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, all, 3)

	var admin []model.EventFullDto
	code = a.do(http.MethodGet, fmt.Sprintf("/admin/events?users=%d&states=PUBLISHED,PENDING", owner.ID), nil, &admin)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, admin, 3)
}

func TestOwnerEventRoutes(t *testing.T) {
	a := newAPI(t)
	owner := a.user("owner")
	cat := a.category("concerts")

	var created model.EventFullDto
	code := a.do(http.MethodPost, fmt.Sprintf("/users/%d/events", owner.ID), eventBody(cat.ID, 5, true), &created)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, model.EventPending, created.State)

	var listed []model.EventShortDto
	code = a.do(http.MethodGet, fmt.Sprintf("/users/%d/events", owner.ID), nil, &listed)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, listed, 1)

	var canceled model.EventFullDto
	code = a.do(http.MethodPatch, fmt.Sprintf("/users/%d/events/%d", owner.ID, created.ID),
		map[string]string{"stateAction": "CANCEL_REVIEW"}, &canceled)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.EventCanceled, canceled.State)

	var reqs []model.ParticipationRequestDto
	code = a.do(http.MethodGet, fmt.Sprintf("/users/%d/events/%d/requests", owner.ID, created.ID), nil, &reqs)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, reqs)
}

func TestUnexpectedErrorCarriesIncidentID(t *testing.T) {
	ew := errorWriter{log: logger.Nop(), now: func() time.Time { return testNow }}
	rec := httptest.NewRecorder()
	ew.write(rec, httptest.NewRequest(http.MethodGet, "/events", nil), fmt.Errorf("connection reset"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ApiError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Status)
	assert.NotEmpty(t, body.IncidentID)
	assert.NotContains(t, body.Message, "connection reset")
}

func TestCORSPreflight(t *testing.T) {
	a := newAPI(t)
	req, err := http.NewRequest(http.MethodOptions, a.srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
