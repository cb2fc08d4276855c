package prospection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/EmpoweredVote/EV-Prospection/internal/buildings"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	store   *MemoryStore
	sync    *Sync
	session *Session
	server  *httptest.Server
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()

	fc := geojson.NewFeatureCollection()
	for _, id := range []string{"way/1", "way/2"} {
		f := geojson.NewFeature(orb.Polygon{{{2.29, 48.84}, {2.291, 48.84}, {2.291, 48.841}, {2.29, 48.84}}})
		f.ID = id
		fc.Append(f)
	}

	store := NewMemoryStore()
	_, err := store.CreateCategory(context.Background(), "Boîtage")
	require.NoError(t, err)

	s := NewSync(store, WithClock(func() time.Time { return day0 }))
	session := NewSession()
	h := NewHandlers(s, session, buildings.New("test.geojson", fc))
	h.Now = func() time.Time { return day0 }

	srv := httptest.NewServer(SetupRoutes(h))
	t.Cleanup(srv.Close)

	return &apiFixture{store: store, sync: s, session: session, server: srv}
}

func (a *apiFixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, a.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestAPI_VisitNeedsCategory(t *testing.T) {
	a := newAPI(t)

	resp := a.do(t, http.MethodPost, "/visit", `{"building_id":"way/1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Empty(t, a.sync.Records())
}

func TestAPI_VisitUsesSelectedCategory(t *testing.T) {
	a := newAPI(t)

	resp := a.do(t, http.MethodPut, "/session", `{"selected_category_id":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/visit", `{"building_id":"way/1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		BuildingID string `json:"building_id"`
		Band       struct {
			Band        string  `json:"band"`
			Color       string  `json:"color"`
			Weight      int     `json:"weight"`
			FillOpacity float64 `json:"fill_opacity"`
		} `json:"band"`
		Record Record `json:"record"`
	}
	decode(t, resp, &out)

	assert.Equal(t, "way/1", out.BuildingID)
	assert.Equal(t, "fresh", out.Band.Band)
	assert.Equal(t, "green", out.Band.Color)
	assert.Equal(t, 1, out.Band.Weight)
	assert.Equal(t, 0.4, out.Band.FillOpacity)
	require.NotNil(t, out.Record.CategoryID)
	assert.Equal(t, 1, *out.Record.CategoryID)
}

func TestAPI_EditFormDate(t *testing.T) {
	a := newAPI(t)

	resp := a.do(t, http.MethodPost, "/visit",
		`{"building_id":"way/2","visited_at":"2024-12-01","mailbox_count":14,"entry_code":"B42","category_id":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/records/way/2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out visitOut
	decode(t, resp, &out)
	require.NotNil(t, out.Record)
	assert.True(t, out.Record.VisitedAt.Equal(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 14, *out.Record.MailboxCount)
	assert.Equal(t, "B42", *out.Record.EntryCode)

	resp = a.do(t, http.MethodPost, "/visit", `{"building_id":"way/2","visited_at":"yesterday","category_id":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_DeleteAndMissingRecord(t *testing.T) {
	a := newAPI(t)

	resp := a.do(t, http.MethodPost, "/visit", `{"building_id":"way/1","category_id":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do(t, http.MethodDelete, "/records/way/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out visitOut
	decode(t, resp, &out)
	assert.Equal(t, "way/1", out.BuildingID)
	assert.Equal(t, "unvisited", out.Band.Band.String())

	resp = a.do(t, http.MethodGet, "/records/way/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = a.do(t, http.MethodDelete, "/records/way/1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "delete is idempotent")
}

func TestAPI_SyncFailure(t *testing.T) {
	a := newAPI(t)
	a.store.FailWrites = errors.New("supabase down")

	resp := a.do(t, http.MethodPost, "/visit", `{"building_id":"way/1","category_id":1}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Empty(t, a.sync.Records())
}

func TestAPI_BandsWithFilter(t *testing.T) {
	a := newAPI(t)

	resp := a.do(t, http.MethodPost, "/visit", `{"building_id":"way/1","category_id":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var bands map[string]struct {
		Band  string `json:"band"`
		Color string `json:"color"`
	}

	resp = a.do(t, http.MethodGet, "/bands", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &bands)
	require.Len(t, bands, 2, "defaults to every building in the dataset")
	assert.Equal(t, "fresh", bands["way/1"].Band)
	assert.Equal(t, "#888", bands["way/2"].Color)

	resp = a.do(t, http.MethodPut, "/session", `{"filter_category_id":1}`)
	var state struct {
		Recolor bool `json:"recolor"`
	}
	decode(t, resp, &state)
	assert.True(t, state.Recolor)

	resp = a.do(t, http.MethodGet, "/bands?ids=way/1", "")
	bands = nil
	decode(t, resp, &bands)
	assert.Equal(t, "unvisited", bands["way/1"].Band)

	resp = a.do(t, http.MethodGet, "/bands?ids=way/1&filter=", "")
	bands = nil
	decode(t, resp, &bands)
	assert.Equal(t, "fresh", bands["way/1"].Band, "empty filter param disables the session filter")

	resp = a.do(t, http.MethodGet, "/bands?filter=abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Categories(t *testing.T) {
	a := newAPI(t)

	resp := a.do(t, http.MethodPost, "/categories", `{"name":"Porte-à-porte"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/categories", `{"name":"Boîtage"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/categories", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/categories", "")
	var list []Category
	decode(t, resp, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "Boîtage", list[0].Name)
	assert.Equal(t, "Porte-à-porte", list[1].Name)
}

func TestAPI_ListRecordsWhenStoreDown(t *testing.T) {
	a := newAPI(t)
	a.store.FailReads = errors.New("timeout")

	resp := a.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "unready", resp.Header.Get("X-Data-Status"))

	a.store.FailReads = nil
	resp = a.do(t, http.MethodGet, "/", "")
	assert.Equal(t, "ready", resp.Header.Get("X-Data-Status"))
}

func TestAPI_Buildings(t *testing.T) {
	a := newAPI(t)

	resp := a.do(t, http.MethodGet, "/buildings", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	var fc geojson.FeatureCollection
	decode(t, resp, &fc)
	assert.Len(t, fc.Features, 2)
}
