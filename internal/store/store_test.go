package store_test

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bus_tracker/internal/apperror"
	"bus_tracker/internal/models"
	"bus_tracker/internal/store"
	"bus_tracker/internal/testutil"
)

func seedRouteAndStops(t *testing.T, s *store.Store, names ...string) (*models.Route, []*models.Stop) {
	t.Helper()
	ctx := context.Background()

	route, err := s.CreateRoute(ctx, store.RouteInput{Name: "Centro - Norte", Code: "R1"})
	require.NoError(t, err)

	var stops []*models.Stop
	for i, name := range names {
		stop, err := s.CreateStop(ctx, store.StopInput{Name: name, Latitude: testutil.Float(9.93 + float64(i)/100), Longitude: testutil.Float(-84.08)})
		require.NoError(t, err)
		stops = append(stops, stop)
	}
	return route, stops
}

func TestCreateStop(t *testing.T) {
	s := testutil.OpenStore(t)
	ctx := context.Background()

	stop, err := s.CreateStop(ctx, store.StopInput{Name: "  Plaza Central ", Latitude: testutil.Float(9.9333), Longitude: testutil.Float(-84.0833), Address: "Av. 2"})
	require.NoError(t, err)
	assert.NotZero(t, stop.ID)
	assert.Equal(t, "Plaza Central", stop.Name)
	assert.Equal(t, models.StopActive, stop.Status)
	assert.Equal(t, 9.9333, stop.Coordinates.Latitude)

	found, err := s.FindStopByName(ctx, "Plaza Central")
	require.NoError(t, err)
	assert.Equal(t, stop.ID, found.ID)
	assert.Equal(t, "Av. 2", found.Address)
}

func TestCreateStopRejectsBadCoordinates(t *testing.T) {
	s := testutil.OpenStore(t)
	ctx := context.Background()

	f := testutil.Float
	cases := []struct {
		name     string
		lat, lon *float64
		field    string
	}{
		{"latitude too high", f(90.5), f(0), "latitude"},
		{"latitude too low", f(-91), f(0), "latitude"},
		{"longitude too high", f(0), f(180.01), "longitude"},
		{"longitude NaN", f(0), f(math.NaN()), "longitude"},
		{"latitude missing", nil, f(0), "latitude"},
		{"longitude missing", f(0), nil, "longitude"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateStop(ctx, store.StopInput{Name: tc.name, Latitude: tc.lat, Longitude: tc.lon})
			var verr *apperror.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	n, err := s.Count(ctx, store.KindStops)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateStopDuplicateName(t *testing.T) {
	s := testutil.OpenStore(t)
	ctx := context.Background()

	_, err := s.CreateStop(ctx, store.StopInput{Name: "Plaza Central", Latitude: testutil.Float(1), Longitude: testutil.Float(1)})
	require.NoError(t, err)

	_, err = s.CreateStop(ctx, store.StopInput{Name: "Plaza Central", Latitude: testutil.Float(2), Longitude: testutil.Float(2)})
	assert.True(t, apperror.IsAlreadyExists(err), "got %v", err)
}

func TestCreateRoute(t *testing.T) {
	s := testutil.OpenStore(t)
	ctx := context.Background()

	fare := 1.25
	route, err := s.CreateRoute(ctx, store.RouteInput{
		Name:           "Circular",
		Code:           "C1",
		Color:          "E74C3C",
		OperatingHours: &models.OperatingHours{Start: "05:30", End: "22:00", Days: []string{"mon", "tue"}},
		FarePrice:      &fare,
	})
	require.NoError(t, err)
	assert.Equal(t, "#e74c3c", route.Color)
	assert.Equal(t, models.RouteActive, route.Status)

	loaded, err := s.FindRouteByCode(ctx, "C1")
	require.NoError(t, err)
	require.NotNil(t, loaded.OperatingHours)
	assert.Equal(t, "05:30", loaded.OperatingHours.Start)
	assert.Equal(t, []string{"mon", "tue"}, loaded.OperatingHours.Days)
	require.NotNil(t, loaded.FarePrice)
	assert.InDelta(t, 1.25, *loaded.FarePrice, 1e-9)

	plain, err := s.CreateRoute(ctx, store.RouteInput{Name: "Plain", Code: "P1"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRouteColor, plain.Color)
}

func TestCreateRouteValidation(t *testing.T) {
	s := testutil.OpenStore(t)
	ctx := context.Background()
	negative := -0.5

	cases := []struct {
		name  string
		in    store.RouteInput
		field string
	}{
		{"missing code", store.RouteInput{Name: "A"}, "code"},
		{"bad color", store.RouteInput{Name: "A", Code: "A", Color: "#12345G"}, "color"},
		{"bad hours", store.RouteInput{Name: "A", Code: "A", OperatingHours: &models.OperatingHours{Start: "25:00"}}, "operatingHours.start"},
		{"negative fare", store.RouteInput{Name: "A", Code: "A", FarePrice: &negative}, "farePrice"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateRoute(ctx, tc.in)
			var verr *apperror.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestCreateRouteDuplicateCode(t *testing.T) {
	s := testutil.OpenStore(t)
	ctx := context.Background()

	_, err := s.CreateRoute(ctx, store.RouteInput{Name: "One", Code: "R1"})
	require.NoError(t, err)
	_, err = s.CreateRoute(ctx, store.RouteInput{Name: "Other name", Code: "R1"})
	assert.True(t, apperror.IsAlreadyExists(err), "got %v", err)
}

func TestCreateRouteStopReferences(t *testing.T) {
	s := testutil.OpenStore(t)
	ctx := context.Background()
	route, stops := seedRouteAndStops(t, s, "A")

	_, err := s.CreateRouteStop(ctx, store.RouteStopInput{RouteID: route.ID + 100, StopID: stops[0].ID, StopOrder: 1, Direction: models.Outbound})
	assert.True(t, apperror.IsReferenceNotFound(err), "got %v", err)

	_, err = s.CreateRouteStop(ctx, store.RouteStopInput{RouteID: route.ID, StopID: stops[0].ID + 100, StopOrder: 1, Direction: models.Outbound})
	assert.True(t, apperror.IsReferenceNotFound(err), "got %v", err)

	n, err := s.Count(ctx, store.KindRouteStops)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateRouteStopValidation(t *testing.T) {
	s := testutil.OpenStore(t)
	ctx := context.Background()
	route, stops := seedRouteAndStops(t, s, "A")

	_, err := s.CreateRouteStop(ctx, store.RouteStopInput{RouteID: route.ID, StopID: stops[0].ID, StopOrder: 0, Direction: models.Outbound})
	assert.True(t, apperror.IsValidation(err), "got %v", err)

	_, err = s.CreateRouteStop(ctx, store.RouteStopInput{RouteID: route.ID, StopID: stops[0].ID, StopOrder: 1, Direction: "sideways"})
	assert.True(t, apperror.IsValidation(err), "got %v", err)

	_, err = s.CreateRouteStop(ctx, store.RouteStopInput{RouteID: route.ID, StopID: stops[0].ID, StopOrder: 1, Direction: models.Inbound, DistanceFromPrevious: testutil.Float(-1)})
	assert.True(t, apperror.IsValidation(err), "got %v", err)
}

func TestCreateRouteStopOrderIsUniquePerDirection(t *testing.T) {
	s := testutil.OpenStore(t)
	ctx := context.Background()
	route, stops := seedRouteAndStops(t, s, "A", "B")

	_, err := s.CreateRouteStop(ctx, store.RouteStopInput{RouteID: route.ID, StopID: stops[0].ID, StopOrder: 1, Direction: models.Outbound})
	require.NoError(t, err)

	// Same position, different stop: rejected, never overwritten.
	_, err = s.CreateRouteStop(ctx, store.RouteStopInput{RouteID: route.ID, StopID: stops[1].ID, StopOrder: 1, Direction: models.Outbound})
	assert.True(t, apperror.IsAlreadyExists(err), "got %v", err)

	// Same order in the other direction is a different position.
	_, err = s.CreateRouteStop(ctx, store.RouteStopInput{RouteID: route.ID, StopID: stops[1].ID, StopOrder: 1, Direction: models.Inbound})
	require.NoError(t, err)

	links, err := s.ListRouteStops(ctx, store.RouteStopFilter{RouteID: route.ID, Direction: models.Outbound})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, stops[0].ID, links[0].StopID)

	seen := map[string]bool{}
	all, err := s.ListRouteStops(ctx, store.RouteStopFilter{})
	require.NoError(t, err)
	for _, l := range all {
		key := fmt.Sprintf("%d/%s/%d", l.RouteID, l.Direction, l.StopOrder)
		assert.False(t, seen[key], "duplicate position %s", key)
		seen[key] = true
	}
}

func TestDeleteRouteStopThenRecreate(t *testing.T) {
	s := testutil.OpenStore(t)
	ctx := context.Background()
	route, stops := seedRouteAndStops(t, s, "A", "B")

	link, err := s.CreateRouteStop(ctx, store.RouteStopInput{RouteID: route.ID, StopID: stops[0].ID, StopOrder: 1, Direction: models.Outbound})
	require.NoError(t, err)

	require.NoError(t, s.DeleteRouteStop(ctx, route.ID, link.ID))
	assert.True(t, apperror.IsNotFound(s.DeleteRouteStop(ctx, route.ID, link.ID)))

	_, err = s.CreateRouteStop(ctx, store.RouteStopInput{RouteID: route.ID, StopID: stops[1].ID, StopOrder: 1, Direction: models.Outbound})
	require.NoError(t, err)

	_, err = s.FindRouteStop(ctx, route.ID, stops[1].ID, models.Outbound, 1)
	require.NoError(t, err)
	_, err = s.FindRouteStop(ctx, route.ID, stops[0].ID, models.Outbound, 1)
	assert.True(t, apperror.IsNotFound(err))
}

func TestClearDeletesChildrenFirst(t *testing.T) {
	s := testutil.OpenStore(t)
	ctx := context.Background()
	route, stops := seedRouteAndStops(t, s, "A", "B", "C")
	for i, stop := range stops {
		for _, dir := range models.Directions {
			_, err := s.CreateRouteStop(ctx, store.RouteStopInput{RouteID: route.ID, StopID: stop.ID, StopOrder: i + 1, Direction: dir})
			require.NoError(t, err)
		}
	}

	cleared, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.Cleared{
		{Kind: store.KindRouteStops, Deleted: 6},
		{Kind: store.KindRoutes, Deleted: 1},
		{Kind: store.KindStops, Deleted: 3},
	}, cleared)

	for _, kind := range store.ClearOrder {
		n, err := s.Count(ctx, kind)
		require.NoError(t, err)
		assert.Zero(t, n, kind)
	}

	// Clearing an empty store is a no-op.
	_, err = s.Clear(ctx)
	require.NoError(t, err)
}

func TestDeleteAllParentsFirstIsRefused(t *testing.T) {
	s := testutil.OpenStore(t)
	ctx := context.Background()
	route, stops := seedRouteAndStops(t, s, "A")
	_, err := s.CreateRouteStop(ctx, store.RouteStopInput{RouteID: route.ID, StopID: stops[0].ID, StopOrder: 1, Direction: models.Outbound})
	require.NoError(t, err)

	_, err = s.DeleteAll(ctx, store.KindStops)
	require.Error(t, err)

	n, err := s.CountStops(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	links, err := s.CountRouteStops(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), links)
}
