package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bus_tracker/internal/controllers"
	"bus_tracker/internal/middleware"
	"bus_tracker/internal/testutil"
)

const adminPassword = "correct horse"

type apiClient struct {
	t     *testing.T
	r     *gin.Engine
	token string
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	auth := middleware.NewAuth("test-secret")
	h := controllers.New(testutil.OpenStore(t), auth, string(hash))
	return &apiClient{t: t, r: SetupRouter(h, auth, Options{CORSOrigins: []string{"*"}})}
}

func (a *apiClient) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func (a *apiClient) login() {
	a.t.Helper()
	w, body := a.do(http.MethodPost, "/api/auth/token", map[string]string{"password": adminPassword})
	require.Equal(a.t, http.StatusOK, w.Code, body)
	a.token = body["token"].(string)
}

func (a *apiClient) create(path string, body any, key string) map[string]any {
	a.t.Helper()
	w, out := a.do(http.MethodPost, path, body)
	require.Equal(a.t, http.StatusCreated, w.Code, out)
	return out[key].(map[string]any)
}

func idOf(obj map[string]any) int {
	return int(obj["id"].(float64))
}

func TestHealth(t *testing.T) {
	api := newAPI(t)
	w, body := api.do(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "up", body["database"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestUnknownPathIsJSON404(t *testing.T) {
	api := newAPI(t)
	w, body := api.do(http.MethodGet, "/api/vehicles", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", body["error"])
}

func TestAuthToken(t *testing.T) {
	api := newAPI(t)

	w, _ := api.do(http.MethodPost, "/api/auth/token", map[string]string{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = api.do(http.MethodPost, "/api/auth/token", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	api.login()
	assert.NotEmpty(t, api.token)
}

func TestWritesRequireAdmin(t *testing.T) {
	api := newAPI(t)
	w, _ := api.do(http.MethodPost, "/api/stops", map[string]any{"name": "A", "latitude": 1, "longitude": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = api.do(http.MethodGet, "/api/stops", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStopAndRouteLifecycle(t *testing.T) {
	api := newAPI(t)
	api.login()

	plaza := api.create("/api/stops", map[string]any{"name": "Plaza Central", "latitude": 9.9333, "longitude": -84.0833}, "stop")
	mercado := api.create("/api/stops", map[string]any{"name": "Mercado Norte", "latitude": 9.9365, "longitude": -84.078}, "stop")
	route := api.create("/api/routes", map[string]any{"name": "Centro - Norte", "code": "R1", "color": "E74C3C"}, "route")
	assert.Equal(t, "#e74c3c", route["color"])

	routePath := "/api/routes/" + itoa(idOf(route))
	api.create(routePath+"/stops", map[string]any{"stopId": idOf(plaza)}, "routeStop")
	link := api.create(routePath+"/stops", map[string]any{
		"stopId": idOf(mercado), "stopOrder": 2, "direction": "outbound", "distanceFromPrevious": 1.234,
	}, "routeStop")
	api.create(routePath+"/stops", map[string]any{"stopId": idOf(mercado), "direction": "inbound"}, "routeStop")

	// Position (R1, outbound, 2) is taken.
	w, body := api.do(http.MethodPost, routePath+"/stops", map[string]any{"stopId": idOf(plaza), "stopOrder": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code, body)

	w, body = api.do(http.MethodPost, routePath+"/stops", map[string]any{"stopId": 999, "stopOrder": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code, body)

	w, body = api.do(http.MethodGet, routePath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["totalStops"])
	assert.Len(t, body["outboundStops"], 2)
	assert.Len(t, body["inboundStops"], 1)
	assert.Equal(t, map[string]any{"outbound": 1.23, "inbound": 0.0}, body["totalDistance"])

	w, body = api.do(http.MethodGet, "/api/stops/"+itoa(idOf(mercado)), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["stop"].(map[string]any)["routeCount"])
	assert.Len(t, body["routes"], 2)

	w, body = api.do(http.MethodGet, "/api/routes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	routes := body["routes"].([]any)
	require.Len(t, routes, 1)
	assert.EqualValues(t, 2, routes[0].(map[string]any)["totalStops"])

	w, body = api.do(http.MethodGet, routePath+"/geometry?direction=outbound", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Feature", body["type"])
	geometry := body["geometry"].(map[string]any)
	assert.Equal(t, "LineString", geometry["type"])
	assert.Len(t, geometry["coordinates"], 2)

	w, _ = api.do(http.MethodGet, routePath+"/geometry?direction=sideways", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(http.MethodDelete, routePath+"/stops/"+itoa(idOf(link)), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = api.do(http.MethodDelete, routePath+"/stops/"+itoa(idOf(link)), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStopErrors(t *testing.T) {
	api := newAPI(t)
	api.login()
	api.create("/api/stops", map[string]any{"name": "Plaza Central", "latitude": 9.9, "longitude": -84.1}, "stop")

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
	}{
		{"duplicate name", http.MethodPost, "/api/stops", map[string]any{"name": "Plaza Central", "latitude": 1, "longitude": 1}, http.StatusBadRequest},
		{"latitude out of range", http.MethodPost, "/api/stops", map[string]any{"name": "X", "latitude": 91, "longitude": 1}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/stops", map[string]any{"name": 12}, http.StatusBadRequest},
		{"coordinates missing", http.MethodPost, "/api/stops", map[string]any{"name": "Ghost"}, http.StatusBadRequest},
		{"longitude missing", http.MethodPost, "/api/stops", map[string]any{"name": "Ghost", "latitude": 9.9}, http.StatusBadRequest},
		{"missing stop", http.MethodGet, "/api/stops/424242", nil, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/stops/abc", nil, http.StatusBadRequest},
		{"missing route", http.MethodGet, "/api/routes/424242", nil, http.StatusNotFound},
		{"missing route geometry", http.MethodGet, "/api/routes/424242/geometry", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := api.do(tc.method, tc.path, tc.body)
			assert.Equal(t, tc.code, w.Code, body)
			assert.NotEmpty(t, body["error"])
		})
	}

	w, body := api.do(http.MethodGet, "/api/stops", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["stops"], 1)

	// A stop on the equator and prime meridian is still a valid stop.
	api.create("/api/stops", map[string]any{"name": "Null Island", "latitude": 0, "longitude": 0}, "stop")
}

func TestResponsesUseCamelCase(t *testing.T) {
	api := newAPI(t)
	api.login()

	stop := api.create("/api/stops", map[string]any{"name": "Plaza Central", "latitude": 9.9, "longitude": -84.1}, "stop")
	route := api.create("/api/routes", map[string]any{
		"name":           "Centro - Norte",
		"code":           "R1",
		"farePrice":      1.5,
		"operatingHours": map[string]any{"start": "05:00", "end": "22:00"},
	}, "route")
	assert.Equal(t, 1.5, route["farePrice"])
	assert.Equal(t, map[string]any{"start": "05:00", "end": "22:00"}, route["operatingHours"])
	assert.Contains(t, route, "createdAt")
	assert.NotContains(t, route, "fare_price")

	link := api.create("/api/routes/"+itoa(idOf(route))+"/stops", map[string]any{
		"stopId": idOf(stop), "distanceFromPrevious": 0.4, "averageArrivalTime": 3,
	}, "routeStop")
	assert.EqualValues(t, 1, link["stopOrder"])
	assert.EqualValues(t, idOf(route), link["routeId"])
	assert.EqualValues(t, idOf(stop), link["stopId"])
	assert.Equal(t, 0.4, link["distanceFromPrevious"])
	assert.EqualValues(t, 3, link["averageArrivalTime"])
	assert.NotContains(t, link, "stop_order")
}

func TestStopsGeoJSON(t *testing.T) {
	api := newAPI(t)
	api.login()
	api.create("/api/stops", map[string]any{"name": "Plaza Central", "latitude": 9.9333, "longitude": -84.0833}, "stop")

	w, body := api.do(http.MethodGet, "/api/stops/geojson", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FeatureCollection", body["type"])
	features := body["features"].([]any)
	require.Len(t, features, 1)
	coords := features[0].(map[string]any)["geometry"].(map[string]any)["coordinates"]
	assert.Equal(t, []any{-84.0833, 9.9333}, coords)
}

func TestSystemOverviewIsRoundedAndRefreshedAfterWrites(t *testing.T) {
	api := newAPI(t)
	api.login()

	w, body := api.do(http.MethodGet, "/api/analytics/system-overview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, body["totalActiveStops"])
	assert.EqualValues(t, 0, body["avgRoutesPerStop"])

	a := api.create("/api/stops", map[string]any{"name": "A", "latitude": 1, "longitude": 1}, "stop")
	api.create("/api/stops", map[string]any{"name": "B", "latitude": 1, "longitude": 2}, "stop")
	api.create("/api/stops", map[string]any{"name": "C", "latitude": 1, "longitude": 3}, "stop")
	route := api.create("/api/routes", map[string]any{"name": "Loop", "code": "L1"}, "route")
	api.create("/api/routes/"+itoa(idOf(route))+"/stops", map[string]any{"stopId": idOf(a), "distanceFromPrevious": 1.005}, "routeStop")

	w, body = api.do(http.MethodGet, "/api/analytics/system-overview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, body["totalActiveStops"])
	assert.EqualValues(t, 1, body["totalActiveRoutes"])
	assert.Equal(t, 0.33, body["avgRoutesPerStop"])
	assert.InDelta(t, 1.0, body["totalNetworkDistance"], 0.011)
}

func itoa(n int) string { return strconv.Itoa(n) }
