package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ttpr0/go-transit/comps"
	"github.com/ttpr0/go-transit/geo"
	"github.com/ttpr0/go-transit/metrics"
	"github.com/ttpr0/go-transit/parser"
	"github.com/ttpr0/go-transit/preproc"
	"github.com/ttpr0/go-transit/routing"
	"github.com/ttpr0/go-transit/structs"
	. "github.com/ttpr0/go-transit/util"
	"golang.org/x/exp/slog"
)

// NewModelManager loads the model at the configured path. A missing model is
// built from the configured source if the config allows it.
func NewModelManager(ctx context.Context, config Config, collector *metrics.Collector) (*ModelManager, error) {
	options := comps.LoadOptions{
		Mmap:           config.Model.Mmap,
		VerifyChecksum: config.Model.VerifyChecksum,
	}
	model, err := comps.LoadModel(config.Model.Path, options)
	if errors.Is(err, comps.ErrModelNotFound) && config.Model.BuildMissing {
		slog.Info(fmt.Sprintf("no model at %v, building from %v source", config.Model.Path, config.Build.Source.Type))
		model, err = BuildAndStoreModel(ctx, config, collector)
	}
	if err != nil {
		switch {
		case errors.Is(err, comps.ErrModelNotFound):
			collector.LoadFailed("not_found")
		case errors.Is(err, comps.ErrCorruptModel):
			collector.LoadFailed("corrupt")
		default:
			collector.LoadFailed("other")
		}
		return nil, err
	}
	return NewModelManagerFor(model, config, collector), nil
}

func NewModelManagerFor(model *comps.Model, config Config, collector *metrics.Collector) *ModelManager {
	collector.SetModelSize(model.StopCount(), model.Graph.VertexCount(), model.Graph.EdgeCount())
	return &ModelManager{
		config:  config,
		model:   model,
		locator: routing.NewStopLocator(model, config.Build.WalkSpeed),
		metrics: collector,
	}
}

// BuildAndStoreModel builds a model from the configured timetable source
// and saves it at the configured model path.
func BuildAndStoreModel(ctx context.Context, config Config, collector *metrics.Collector) (*comps.Model, error) {
	tt, err := parser.LoadTimetable(ctx, config.Build.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to load timetable: %w", err)
	}
	t := time.Now()
	model, err := preproc.BuildModel(tt, config.BuildOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}
	collector.ObserveBuild(time.Since(t))
	if err := comps.Store(model, config.Model.Path); err != nil {
		model.Close()
		return nil, fmt.Errorf("failed to store model: %w", err)
	}
	return model, nil
}

// ModelManager shares one read-only model between requests.
type ModelManager struct {
	config  Config
	model   *comps.Model
	locator *routing.StopLocator
	metrics *metrics.Collector
}

func (self *ModelManager) Model() *comps.Model {
	return self.model
}

// FindConnections runs a query on its own router and keeps at most
// max-results connections.
func (self *ModelManager) FindConnections(date structs.Date, from, to []routing.StopOffset) List[routing.Connection] {
	t := time.Now()
	router := routing.NewRouter(self.model, date)
	conns := router.FindConnections(from, to)
	if limit := self.config.Services.MaxResults; limit > 0 && conns.Length() > limit {
		conns = conns[:limit]
	}
	self.metrics.ObserveQuery("connections", time.Since(t), conns.Length())
	return conns
}

func (self *ModelManager) FindNearestStops(coord geo.Coord, max_dist float64, count int) List[routing.StopOffset] {
	t := time.Now()
	stops := self.locator.FindNearest(coord, max_dist, count)
	self.metrics.ObserveQuery("stops", time.Since(t), stops.Length())
	return stops
}

func (self *ModelManager) Close() error {
	return self.model.Close()
}
