package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"bus_tracker/internal/apperror"
	"bus_tracker/internal/models"
	"bus_tracker/internal/store"
)

// StopRecord is one entry of the stops batch file.
type StopRecord struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Latitude    *float64 `json:"latitude" yaml:"latitude"`
	Longitude   *float64 `json:"longitude" yaml:"longitude"`
	Address     string   `json:"address,omitempty" yaml:"address,omitempty"`
	Landmarks   string   `json:"landmarks,omitempty" yaml:"landmarks,omitempty"`
}

func (r StopRecord) Key() string { return r.Name }

func (r StopRecord) input() store.StopInput {
	return store.StopInput{
		Name:        r.Name,
		Description: r.Description,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Address:     r.Address,
		Landmarks:   r.Landmarks,
	}
}

// RouteRecord is one entry of the routes batch file.
type RouteRecord struct {
	Name           string                 `json:"name" yaml:"name"`
	Code           string                 `json:"code" yaml:"code"`
	Color          string                 `json:"color,omitempty" yaml:"color,omitempty"`
	Description    string                 `json:"description,omitempty" yaml:"description,omitempty"`
	OperatingHours *models.OperatingHours `json:"operatingHours,omitempty" yaml:"operatingHours,omitempty"`
	FarePrice      *float64               `json:"farePrice,omitempty" yaml:"farePrice,omitempty"`
}

func (r RouteRecord) Key() string { return r.Code }

func (r RouteRecord) input() store.RouteInput {
	return store.RouteInput{
		Name:           r.Name,
		Code:           r.Code,
		Color:          r.Color,
		Description:    r.Description,
		OperatingHours: r.OperatingHours,
		FarePrice:      r.FarePrice,
	}
}

// LinkRecord is one entry of the route-stops batch file. Route and stop
// are referenced by natural key.
type LinkRecord struct {
	RouteCode            string   `json:"routeCode" yaml:"routeCode"`
	StopName             string   `json:"stopName" yaml:"stopName"`
	Direction            string   `json:"direction" yaml:"direction"`
	StopOrder            int      `json:"stopOrder" yaml:"stopOrder"`
	DistanceFromPrevious *float64 `json:"distanceFromPrevious,omitempty" yaml:"distanceFromPrevious,omitempty"`
	AverageArrivalTime   *int     `json:"averageArrivalTime,omitempty" yaml:"averageArrivalTime,omitempty"`
}

func (r LinkRecord) Key() string {
	return fmt.Sprintf("%s - %s (%s #%d)", r.RouteCode, r.StopName, r.Direction, r.StopOrder)
}

type keyed interface{ Key() string }

// Decoded is one element of a batch file: the record, or the reason the
// element could not be read into one.
type Decoded[T keyed] struct {
	Index  int
	Record T
	Err    error
}

// Key names the element in events. Elements without a usable natural key
// are named by their 1-based position.
func (d Decoded[T]) Key() string {
	if k := strings.TrimSpace(d.Record.Key()); k != "" && d.Err == nil {
		return k
	}
	return fmt.Sprintf("#%d", d.Index+1)
}

func wrap[T keyed](recs []T) []Decoded[T] {
	out := make([]Decoded[T], len(recs))
	for i, rec := range recs {
		out[i] = Decoded[T]{Index: i, Record: rec}
	}
	return out
}

// LoadStops reads a stops file.
func LoadStops(path string) ([]Decoded[StopRecord], error) {
	return loadRecords[StopRecord](path)
}

// LoadRoutes reads a routes file.
func LoadRoutes(path string) ([]Decoded[RouteRecord], error) {
	return loadRecords[RouteRecord](path)
}

// LoadLinks reads a route-stops file.
func LoadLinks(path string) ([]Decoded[LinkRecord], error) {
	return loadRecords[LinkRecord](path)
}

// loadRecords fails only when the file cannot be read or is not an array.
// An element that does not fit T is returned with a ValidationError so the
// stage can count it and move on.
func loadRecords[T keyed](path string) ([]Decoded[T], error) {
	elems, err := readElements(path)
	if err != nil {
		return nil, err
	}
	out := make([]Decoded[T], len(elems))
	for i, decode := range elems {
		out[i].Index = i
		if err := decode(&out[i].Record); err != nil {
			out[i].Err = apperror.Validation(fieldOf(err), "element %d: %v", i+1, err)
		}
	}
	return out, nil
}

// readElements splits a JSON array, or a YAML sequence when the file has a
// .yml or .yaml extension, into per-element decoders.
func readElements(path string) ([]func(any) error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var elems []func(any) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		var nodes []yaml.Node
		if err := yaml.Unmarshal(data, &nodes); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		for i := range nodes {
			node := &nodes[i]
			elems = append(elems, node.Decode)
		}
	default:
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		for _, raw := range raws {
			raw := raw
			elems = append(elems, func(v any) error { return json.Unmarshal(raw, v) })
		}
	}
	return elems, nil
}

func fieldOf(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return typeErr.Field
	}
	return "record"
}
