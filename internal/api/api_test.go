package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/pantry/internal/metrics"
	"github.com/mesh-intelligence/pantry/internal/sqlite"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// setupServer attaches a pantry in a temp dir and wraps it in a Server.
func setupServer(t *testing.T) (*Server, types.Pantry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	m, err := metrics.NewStoreMetrics(registry)
	require.NoError(t, err)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var ticks atomic.Int64
	clock := func() time.Time {
		return base.Add(time.Duration(ticks.Add(1)) * time.Second)
	}

	backend := sqlite.NewBackend(sqlite.WithMetrics(m), sqlite.WithClock(clock))
	require.NoError(t, backend.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}))
	t.Cleanup(func() { backend.Detach() })

	return NewServer("127.0.0.1:0", backend, zap.NewNop(), registry), backend
}

// do sends a request through the server's router and returns the recorder.
func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// createNoodle posts a valid noodle and returns the decoded reply.
func createNoodle(t *testing.T, s *Server, name string) map[string]any {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"brand":"Nongshim","originCountry":"south_korea"}`, name)
	rec := do(t, s, http.MethodPost, "/api/v1/noodles", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[map[string]any](t, rec)
}

func TestHealthAndCountries(t *testing.T) {
	s, _ := setupServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])

	rec = do(t, s, http.MethodGet, "/api/v1/countries", "")
	require.Equal(t, http.StatusOK, rec.Code)
	countries := decode[[]types.Country](t, rec)
	require.Len(t, countries, 10)
	assert.Equal(t, types.Country{Value: "south_korea", Label: "South Korea"}, countries[0])
}

func TestCreateNoodle(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantField string
	}{
		{
			name:     "defaults applied",
			body:     `{"name":"Shin Ramyun","brand":"Nongshim","originCountry":"south_korea"}`,
			wantCode: http.StatusCreated,
		},
		{
			name:      "missing name",
			body:      `{"brand":"Nongshim","originCountry":"south_korea"}`,
			wantCode:  http.StatusBadRequest,
			wantField: "name",
		},
		{
			name:      "unknown country",
			body:      `{"name":"Shin","brand":"Nongshim","originCountry":"atlantis"}`,
			wantCode:  http.StatusBadRequest,
			wantField: "originCountry",
		},
		{
			name:      "spiciness out of range",
			body:      `{"name":"Shin","brand":"Nongshim","originCountry":"japan","spicinessLevel":9}`,
			wantCode:  http.StatusBadRequest,
			wantField: "spicinessLevel",
		},
		{
			name:     "malformed body",
			body:     `{"name":`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown category",
			body:     `{"name":"Shin","brand":"Nongshim","originCountry":"japan","categoryId":"nope"}`,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := setupServer(t)
			rec := do(t, s, http.MethodPost, "/api/v1/noodles", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantCode == http.StatusCreated {
				got := decode[map[string]any](t, rec)
				assert.NotEmpty(t, got["noodleId"])
				assert.EqualValues(t, 3, got["spicinessLevel"])
				assert.Equal(t, "Medium", got["spicinessDescription"])
				assert.EqualValues(t, 5, got["rating"])
				assert.EqualValues(t, 0, got["reviewsCount"])
				assert.Nil(t, got["lastReviewedAt"])
				return
			}
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantField, resp.Field)
			assert.Len(t, resp.CorrelationID, 8)
		})
	}
}

func TestGetNoodle(t *testing.T) {
	s, _ := setupServer(t)
	created := createNoodle(t, s, "Shin Ramyun")

	rec := do(t, s, http.MethodGet, "/api/v1/noodles/"+created["noodleId"].(string), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Shin Ramyun", decode[map[string]any](t, rec)["name"])

	rec = do(t, s, http.MethodGet, "/api/v1/noodles/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateNoodleReviewGuard(t *testing.T) {
	s, _ := setupServer(t)
	id := createNoodle(t, s, "Shin Ramyun")["noodleId"].(string)
	path := "/api/v1/noodles/" + id

	rec := do(t, s, http.MethodPatch, path, `{"reviewsCount":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[map[string]any](t, rec)
	assert.EqualValues(t, 5, got["reviewsCount"])
	assert.NotNil(t, got["lastReviewedAt"])

	rec = do(t, s, http.MethodPatch, path, `{"reviewsCount":3}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, types.MsgReviewsCountDecreased, resp.Error)
	assert.Equal(t, "reviewsCount", resp.Field)

	rec = do(t, s, http.MethodGet, path, "")
	assert.EqualValues(t, 5, decode[map[string]any](t, rec)["reviewsCount"])

	rec = do(t, s, http.MethodPatch, path, `{"rating":9}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[map[string]any](t, rec)
	assert.EqualValues(t, 9, got["rating"])
	assert.EqualValues(t, 5, got["reviewsCount"])

	rec = do(t, s, http.MethodPatch, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPatch, "/api/v1/noodles/missing", `{"rating":9}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLeaveReview(t *testing.T) {
	s, _ := setupServer(t)
	id := createNoodle(t, s, "Shin Ramyun")["noodleId"].(string)

	for want := int64(1); want <= 2; want++ {
		rec := do(t, s, http.MethodPost, "/api/v1/noodles/"+id+"/reviews", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[ReviewResponse](t, rec)
		assert.Equal(t, id, resp.NoodleID)
		assert.Equal(t, want, resp.ReviewsCount)
		assert.NotNil(t, resp.LastReviewedAt)
	}

	rec := do(t, s, http.MethodPost, "/api/v1/noodles/missing/reviews", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListNoodles(t *testing.T) {
	s, _ := setupServer(t)
	createNoodle(t, s, "Shin Ramyun")
	rec := do(t, s, http.MethodPost, "/api/v1/noodles",
		`{"name":"Mama","brand":"Mama","originCountry":"thailand","spicinessLevel":5}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	mamaID := decode[map[string]any](t, rec)["noodleId"].(string)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantNames []string
	}{
		{"all newest first", "", http.StatusOK, []string{"Mama", "Shin Ramyun"}},
		{"by spiciness", "?spicinessLevel=5", http.StatusOK, []string{"Mama"}},
		{"by country", "?originCountry=south_korea", http.StatusOK, []string{"Shin Ramyun"}},
		{"limit", "?limit=1", http.StatusOK, []string{"Mama"}},
		{"offset", "?offset=1", http.StatusOK, []string{"Shin Ramyun"}},
		{"no favourites yet", "?favourites=true", http.StatusOK, []string{}},
		{"bad spiciness", "?spicinessLevel=hot", http.StatusBadRequest, nil},
		{"bad favourites", "?favourites=maybe", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/v1/noodles"+tt.query, "")
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			names := []string{}
			for _, n := range decode[[]map[string]any](t, rec) {
				names = append(names, n["name"].(string))
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}

	rec = do(t, s, http.MethodPut, "/api/v1/favourites/"+mamaID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/v1/noodles?favourites=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	favs := decode[[]map[string]any](t, rec)
	require.Len(t, favs, 1)
	assert.Equal(t, mamaID, favs[0]["noodleId"])
}

func TestDeleteNoodle(t *testing.T) {
	s, _ := setupServer(t)
	id := createNoodle(t, s, "Shin Ramyun")["noodleId"].(string)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/v1/noodles/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/api/v1/noodles/"+id, "").Code)
}

func TestFavourites(t *testing.T) {
	s, _ := setupServer(t)
	id := createNoodle(t, s, "Shin Ramyun")["noodleId"].(string)
	path := "/api/v1/favourites/" + id

	for range 2 {
		rec := do(t, s, http.MethodPut, path, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, id, decode[types.Favourite](t, rec).NoodleID)
	}

	rec := do(t, s, http.MethodGet, "/api/v1/favourites", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.Favourite](t, rec), 1)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPut, "/api/v1/favourites/missing", "").Code)

	rec = do(t, s, http.MethodGet, "/api/v1/favourites", "")
	assert.Empty(t, decode[[]types.Favourite](t, rec))
}

func TestCategories(t *testing.T) {
	s, _ := setupServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var names []string
	for _, c := range decode[[]types.Category](t, rec) {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Cup Noodles", "Ramen", "Soup", "Stir-Fry"}, names)

	rec = do(t, s, http.MethodPost, "/api/v1/categories", `{"name":"Ramen"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/categories", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/categories", `{"name":"Dry"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	catID := decode[types.Category](t, rec).CategoryID
	require.NotEmpty(t, catID)

	rec = do(t, s, http.MethodPatch, "/api/v1/categories/"+catID, `{"name":"Dry Noodles"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Dry Noodles", decode[types.Category](t, rec).Name)

	body := fmt.Sprintf(`{"name":"Mi Goreng","brand":"Indomie","originCountry":"indonesia","categoryId":%q}`, catID)
	rec = do(t, s, http.MethodPost, "/api/v1/noodles", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/v1/categories/"+catID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[map[string]any](t, rec)
	assert.Equal(t, "Dry Noodles", detail["name"])
	assert.Len(t, detail["noodles"], 1)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/v1/categories/"+catID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/v1/categories/"+catID, "").Code)

	rec = do(t, s, http.MethodGet, "/api/v1/noodles", "")
	noodles := decode[[]map[string]any](t, rec)
	require.Len(t, noodles, 1)
	assert.Equal(t, "", noodles[0]["categoryId"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := setupServer(t)
	createNoodle(t, s, "Shin Ramyun")

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pantry_mutations_total")
}

func TestDetachedPantry(t *testing.T) {
	s, p := setupServer(t)
	require.NoError(t, p.Detach())

	rec := do(t, s, http.MethodGet, "/api/v1/noodles", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	c := &Controller{Echo: e, logger: zap.New(core)}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/noodles", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	err := &types.ValidationError{Field: "reviewsCount", Message: types.MsgReviewsCountDecreased}
	require.NoError(t, c.HandleError(ctx, err, "Failed to update noodle", http.StatusBadRequest))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, types.MsgReviewsCountDecreased, resp.Error)
	assert.Equal(t, "Failed to update noodle", resp.Message)
	assert.Equal(t, "reviewsCount", resp.Field)

	entries := logs.FilterMessage("Failed to update noodle").All()
	require.Len(t, entries, 1)
	assert.Equal(t, resp.CorrelationID, entries[0].ContextMap()["correlation_id"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&types.ValidationError{Field: "name", Message: "name is required"}, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", types.ErrInvalidFilter), http.StatusBadRequest},
		{types.ErrInvalidData, http.StatusBadRequest},
		{types.ErrInvalidID, http.StatusBadRequest},
		{fmt.Errorf("category x: %w", types.ErrNotFound), http.StatusNotFound},
		{types.ErrDuplicateName, http.StatusConflict},
		{types.ErrPantryDetached, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
