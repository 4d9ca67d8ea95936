// Package importer loads stops, routes and their links from batch files
// into the entity store. Each stage is idempotent: records whose natural key
// already exists are skipped, and a failing record is counted and logged
// without stopping the rest of the stage.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bus_tracker/internal/apperror"
	"bus_tracker/internal/models"
	"bus_tracker/internal/store"
)

// Stage names one import step. The values double as CLI commands.
type Stage string

const (
	StageStops  Stage = "stops"
	StageRoutes Stage = "routes"
	StageLinks  Stage = "route-stops"
)

// AllStages is the dependency order of a full import.
var AllStages = []Stage{StageStops, StageRoutes, StageLinks}

// Entities is the part of the entity store the reconciler drives.
type Entities interface {
	FindStopByName(ctx context.Context, name string) (*models.Stop, error)
	FindRouteByCode(ctx context.Context, code string) (*models.Route, error)
	FindRouteStop(ctx context.Context, routeID, stopID uint, dir models.Direction, order int) (*models.RouteStop, error)
	CreateStop(ctx context.Context, in store.StopInput) (*models.Stop, error)
	CreateRoute(ctx context.Context, in store.RouteInput) (*models.Route, error)
	CreateRouteStop(ctx context.Context, in store.RouteStopInput) (*models.RouteStop, error)
	Clear(ctx context.Context) ([]store.Cleared, error)
}

// StageResult counts the outcomes of one stage.
type StageResult struct {
	Stage   Stage `json:"stage"`
	Created int   `json:"created"`
	Skipped int   `json:"skipped"`
	Errors  int   `json:"errors"`
}

// Report is the outcome of a Run.
type Report struct {
	RunID      string        `json:"runId"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Stages     []StageResult `json:"stages"`
}

// Sources names the batch file of each stage.
type Sources struct {
	Stops  string
	Routes string
	Links  string
}

// Reconciler merges batch records into the store.
type Reconciler struct {
	store Entities
	sink  Sink
	runID string
}

// New returns a Reconciler writing through s and reporting to sink.
func New(s Entities, sink Sink) *Reconciler {
	if sink == nil {
		sink = LogSink{Logger: logrus.StandardLogger()}
	}
	return &Reconciler{store: s, sink: sink, runID: uuid.NewString()}
}

// RunID identifies this reconciler's events in logs.
func (r *Reconciler) RunID() string { return r.runID }

func (r *Reconciler) emit(res *StageResult, key string, outcome Outcome, err error) {
	switch outcome {
	case OutcomeCreated:
		res.Created++
	case OutcomeSkipped:
		res.Skipped++
	default:
		res.Errors++
	}
	r.sink.Record(Event{RunID: r.runID, Stage: res.Stage, Key: key, Outcome: outcome, Err: err})
}

// ImportStops creates every stop whose name is not yet taken.
func (r *Reconciler) ImportStops(ctx context.Context, recs []StopRecord) (StageResult, error) {
	return r.importStops(ctx, wrap(recs))
}

func (r *Reconciler) importStops(ctx context.Context, items []Decoded[StopRecord]) (StageResult, error) {
	res := StageResult{Stage: StageStops}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		key := item.Key()
		if item.Err != nil {
			r.emit(&res, key, OutcomeError, item.Err)
			continue
		}
		rec := item.Record

		_, err := r.store.FindStopByName(ctx, rec.Name)
		if err == nil {
			r.emit(&res, key, OutcomeSkipped, nil)
			continue
		}
		if !apperror.IsNotFound(err) {
			return res, fmt.Errorf("stops: resolve %q: %w", key, err)
		}

		if _, err := r.store.CreateStop(ctx, rec.input()); err != nil {
			r.emit(&res, key, OutcomeError, err)
			continue
		}
		r.emit(&res, key, OutcomeCreated, nil)
	}
	return res, nil
}

// ImportRoutes creates every route whose code is not yet taken.
func (r *Reconciler) ImportRoutes(ctx context.Context, recs []RouteRecord) (StageResult, error) {
	return r.importRoutes(ctx, wrap(recs))
}

func (r *Reconciler) importRoutes(ctx context.Context, items []Decoded[RouteRecord]) (StageResult, error) {
	res := StageResult{Stage: StageRoutes}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		key := item.Key()
		if item.Err != nil {
			r.emit(&res, key, OutcomeError, item.Err)
			continue
		}
		rec := item.Record

		_, err := r.store.FindRouteByCode(ctx, rec.Code)
		if err == nil {
			r.emit(&res, key, OutcomeSkipped, nil)
			continue
		}
		if !apperror.IsNotFound(err) {
			return res, fmt.Errorf("routes: resolve %q: %w", key, err)
		}

		if _, err := r.store.CreateRoute(ctx, rec.input()); err != nil {
			r.emit(&res, key, OutcomeError, err)
			continue
		}
		r.emit(&res, key, OutcomeCreated, nil)
	}
	return res, nil
}

// ImportLinks resolves each record's route code and stop name and creates
// the link unless the exact same link already exists. Unresolved
// references are counted as errors for that record only.
func (r *Reconciler) ImportLinks(ctx context.Context, recs []LinkRecord) (StageResult, error) {
	return r.importLinks(ctx, wrap(recs))
}

func (r *Reconciler) importLinks(ctx context.Context, items []Decoded[LinkRecord]) (StageResult, error) {
	res := StageResult{Stage: StageLinks}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if item.Err != nil {
			r.emit(&res, item.Key(), OutcomeError, item.Err)
			continue
		}
		outcome, err := r.importLink(ctx, item.Record)
		if outcome == "" {
			return res, err
		}
		r.emit(&res, item.Key(), outcome, err)
	}
	return res, nil
}

// importLink returns an empty outcome only for failures that must abort
// the run.
func (r *Reconciler) importLink(ctx context.Context, rec LinkRecord) (Outcome, error) {
	key := rec.Key()
	dir, err := models.ParseDirection(rec.Direction)
	if err != nil {
		return OutcomeError, apperror.Validation("direction", "%v", err)
	}

	route, err := r.store.FindRouteByCode(ctx, rec.RouteCode)
	if apperror.IsNotFound(err) {
		return OutcomeError, apperror.ReferenceNotFound("route", rec.RouteCode)
	}
	if err != nil {
		return "", fmt.Errorf("route-stops: resolve route of %q: %w", key, err)
	}

	stop, err := r.store.FindStopByName(ctx, rec.StopName)
	if apperror.IsNotFound(err) {
		return OutcomeError, apperror.ReferenceNotFound("stop", rec.StopName)
	}
	if err != nil {
		return "", fmt.Errorf("route-stops: resolve stop of %q: %w", key, err)
	}

	_, err = r.store.FindRouteStop(ctx, route.ID, stop.ID, dir, rec.StopOrder)
	if err == nil {
		return OutcomeSkipped, nil
	}
	if !apperror.IsNotFound(err) {
		return "", fmt.Errorf("route-stops: check %q: %w", key, err)
	}

	_, err = r.store.CreateRouteStop(ctx, store.RouteStopInput{
		RouteID:              route.ID,
		StopID:               stop.ID,
		StopOrder:            rec.StopOrder,
		Direction:            dir,
		DistanceFromPrevious: rec.DistanceFromPrevious,
		AverageArrivalTime:   rec.AverageArrivalTime,
	})
	if err != nil {
		return OutcomeError, err
	}
	return OutcomeCreated, nil
}

// RunStage loads the file of one stage and imports it.
func (r *Reconciler) RunStage(ctx context.Context, stage Stage, src Sources) (StageResult, error) {
	switch stage {
	case StageStops:
		items, err := LoadStops(src.Stops)
		if err != nil {
			return StageResult{Stage: stage}, err
		}
		return r.importStops(ctx, items)
	case StageRoutes:
		items, err := LoadRoutes(src.Routes)
		if err != nil {
			return StageResult{Stage: stage}, err
		}
		return r.importRoutes(ctx, items)
	case StageLinks:
		items, err := LoadLinks(src.Links)
		if err != nil {
			return StageResult{Stage: stage}, err
		}
		return r.importLinks(ctx, items)
	}
	return StageResult{Stage: stage}, fmt.Errorf("unknown stage %q", stage)
}

// Run executes the given stages in order. A fatal error stops the run and
// is returned together with the results gathered so far.
func (r *Reconciler) Run(ctx context.Context, src Sources, stages ...Stage) (*Report, error) {
	rep := &Report{RunID: r.runID, StartedAt: time.Now()}
	log := logrus.WithField("run", r.runID)

	for _, stage := range stages {
		log.WithField("stage", stage).Info("Importing...")
		res, err := r.RunStage(ctx, stage, src)
		rep.Stages = append(rep.Stages, res)
		if err != nil {
			rep.FinishedAt = time.Now()
			return rep, fmt.Errorf("%s: %w", stage, err)
		}
		log.WithFields(logrus.Fields{
			"stage":   stage,
			"created": res.Created,
			"skipped": res.Skipped,
			"errors":  res.Errors,
		}).Info("Stage finished")
	}
	rep.FinishedAt = time.Now()
	return rep, nil
}

// Clear removes every link, route and stop, in that order.
func (r *Reconciler) Clear(ctx context.Context) ([]store.Cleared, error) {
	logrus.WithField("run", r.runID).Warn("CLEARING ALL DATA...")
	cleared, err := r.store.Clear(ctx)
	if err != nil {
		return nil, fmt.Errorf("clear: %w", err)
	}
	return cleared, nil
}
