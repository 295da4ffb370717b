// Package aggregator assembles a TechnicalProfile from the technical-data and vehicle-details
// providers and decides when heuristic lubricants may stand in for missing provider data.
package aggregator

import (
	"context"
	"strings"
	"time"

	"vehicle-techdata-workers/internal/common/errors"
	"vehicle-techdata-workers/internal/common/metrics"
	"vehicle-techdata-workers/internal/models"
	"vehicle-techdata-workers/internal/techdata/capacity"
	"vehicle-techdata-workers/internal/techdata/heuristics"
	"vehicle-techdata-workers/internal/techdata/lubricant"
	"vehicle-techdata-workers/internal/techdata/plate"
	"vehicle-techdata-workers/internal/techdata/ukvd"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Facet names used in logs and metrics.
const (
	FacetIdentity       = "identity"
	FacetCapacities     = "capacities"
	FacetLubricants     = "lubricants"
	FacetRepairTree     = "repair_tree"
	FacetVehicleDetails = "vehicle_details"
)

const (
	outcomeOK     = "ok"
	outcomeAbsent = "absent"
)

// TechDataProvider is the technical-data provider as the engine uses it. *sws.Client implements it.
type TechDataProvider interface {
	FetchIdentity(ctx context.Context, vrm plate.VRM) (*models.Identity, error)
	FetchCapacities(ctx context.Context, vrm plate.VRM) (capacity.Index, error)
	FetchLubricants(ctx context.Context, vrm plate.VRM, idx capacity.Index) (lubricant.Result, error)
	FetchRepairTree(ctx context.Context, vrm plate.VRM, detailNodes int) (*models.RepairTimes, error)
}

// VehicleDetailsProvider is optional. *ukvd.Client implements it.
type VehicleDetailsProvider interface {
	FetchVehicleDetails(ctx context.Context, vrm plate.VRM) (*models.VehicleDetails, error)
}

// Recorder receives spans and per-profile measurements. *observability.Observability implements it.
type Recorder interface {
	StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
	RecordProfile(ctx context.Context, duration time.Duration, vehicleFound bool, lubricantSource string)
}

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

type Options struct {
	AggregationTimeout   time.Duration
	ExposeCapacities     bool
	IncludeRepairDetails bool
	RepairDetailNodes    int
}

type Deps struct {
	TechData       TechDataProvider
	VehicleDetails VehicleDetailsProvider
	Recorder       Recorder
	Logger         Logger
}

// Engine is stateless between calls and safe for concurrent use.
type Engine struct {
	techData TechDataProvider
	details  VehicleDetailsProvider
	recorder Recorder
	logger   Logger
	opts     Options
}

func NewEngine(deps Deps, opts Options) *Engine {
	return &Engine{
		techData: deps.TechData,
		details:  deps.VehicleDetails,
		recorder: deps.Recorder,
		logger:   deps.Logger,
		opts:     opts,
	}
}

// facets holds what each concurrent fetch produced. Each field has a single writer.
type facets struct {
	identity   *models.Identity
	capacities capacity.Index
	lubricants lubricant.Result
	repair     *models.RepairTimes
	details    *models.VehicleDetails
}

// GetTechnicalProfile normalizes raw and fetches every facet concurrently. Facet failures are
// logged and leave the facet absent; only an unusable registration or the caller abandoning the
// request returns an error.
func (e *Engine) GetTechnicalProfile(ctx context.Context, raw string) (*models.TechnicalProfile, error) {
	vrm, err := plate.Normalize(raw)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	requestID := uuid.NewString()

	ctx, span := e.startSpan(ctx, "techdata.GetTechnicalProfile", attribute.String("vrm", vrm.String()))
	defer span.End()

	aggCtx := ctx
	if e.opts.AggregationTimeout > 0 {
		var cancel context.CancelFunc
		aggCtx, cancel = context.WithTimeout(ctx, e.opts.AggregationTimeout)
		defer cancel()
	}

	e.logger.Debug("technical profile aggregation started", map[string]interface{}{
		"requestId": requestID,
		"vrm":       vrm.String(),
	})

	f := e.fetchFacets(aggCtx, vrm, requestID)

	if err := ctx.Err(); err != nil {
		return nil, errors.NewProfileAggregationFailedError(err)
	}

	profile := e.assemble(vrm, f, requestID)

	source := string(profile.LubricantSource)
	if source == "" {
		source = "none"
	}
	e.recordProfile(ctx, time.Since(start), profile.VehicleFound(), source)
	span.SetAttributes(
		attribute.Bool("vehicle_found", profile.VehicleFound()),
		attribute.String("lubricant_source", source),
	)

	e.logger.Info("technical profile assembled", map[string]interface{}{
		"requestId":       requestID,
		"vrm":             vrm.String(),
		"vehicleFound":    profile.VehicleFound(),
		"lubricants":      len(profile.Lubricants),
		"lubricantSource": source,
		"repairTree":      profile.RepairTimes != nil,
		"durationMs":      time.Since(start).Milliseconds(),
	})

	return profile, nil
}

func (e *Engine) fetchFacets(ctx context.Context, vrm plate.VRM, requestID string) *facets {
	f := &facets{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		identity, err := e.techData.FetchIdentity(gctx, vrm)
		e.facetDone(FacetIdentity, requestID, err)
		f.identity = identity
		return nil
	})

	g.Go(func() error {
		idx, err := e.techData.FetchCapacities(gctx, vrm)
		e.facetDone(FacetCapacities, requestID, err)
		if idx == nil {
			idx = capacity.Index{}
		}
		f.capacities = idx

		res, err := e.techData.FetchLubricants(gctx, vrm, idx)
		e.facetDone(FacetLubricants, requestID, err)
		f.lubricants = res
		return nil
	})

	g.Go(func() error {
		detailNodes := 0
		if e.opts.IncludeRepairDetails {
			detailNodes = e.opts.RepairDetailNodes
		}
		tree, err := e.techData.FetchRepairTree(gctx, vrm, detailNodes)
		e.facetDone(FacetRepairTree, requestID, err)
		f.repair = tree
		return nil
	})

	if e.details != nil {
		g.Go(func() error {
			details, err := e.details.FetchVehicleDetails(gctx, vrm)
			e.facetDone(FacetVehicleDetails, requestID, err)
			f.details = details
			return nil
		})
	}

	// facets never return errors
	_ = g.Wait()
	return f
}

// assemble applies the fallback policy. Lubricants and aircon are reported only for a vehicle
// the technical-data provider confirmed. Heuristics run only when that vehicle has no provider
// lubricants and replace the lubricant list as a whole.
func (e *Engine) assemble(vrm plate.VRM, f *facets, requestID string) *models.TechnicalProfile {
	profile := &models.TechnicalProfile{
		VRM:            vrm.String(),
		VehicleDetails: f.details,
		Lubricants:     []models.LubricantItem{},
		RepairTimes:    f.repair,
	}

	if e.opts.ExposeCapacities {
		profile.Capacities = f.capacities.Clone()
	}

	if f.identity == nil {
		return profile
	}

	identity := *f.identity
	ukvd.Enrich(&identity, f.details)
	profile.Identity = &identity

	if len(f.lubricants.Lubricants) > 0 {
		profile.Lubricants = f.lubricants.Lubricants
		profile.LubricantSource = models.SourceProvider
		profile.Aircon = f.lubricants.Aircon
		return profile
	}

	res := heuristics.Synthesize(heuristics.Vehicle{
		Make:      strings.TrimSpace(identity.Make + " " + identity.FullName),
		VIN:       identity.VIN,
		FuelType:  identity.FuelType,
		ModelYear: identity.YearFrom,
	})

	profile.Lubricants = lubricant.AttachCapacity(res.Lubricants, f.capacities)
	profile.LubricantSource = models.SourceHeuristic
	profile.FallbackRule = res.Rule

	if f.lubricants.Aircon != nil {
		profile.Aircon = f.lubricants.Aircon
	} else {
		aircon := res.Aircon
		aircon.Quantity, _ = lubricant.RefrigerantQuantity(aircon.Type, f.capacities)
		profile.Aircon = &aircon
	}

	metrics.HeuristicFallbacks.WithLabelValues(res.Rule).Inc()
	e.logger.Info("applied heuristic lubricant fallback", map[string]interface{}{
		"requestId": requestID,
		"vrm":       vrm.String(),
		"rule":      res.Rule,
	})

	return profile
}

func (e *Engine) facetDone(facet, requestID string, err error) {
	outcome := outcomeOK
	switch {
	case err == nil:
	case errors.HasCode(err, errors.ErrCodeProviderEmptyResult):
		outcome = outcomeAbsent
	default:
		outcome = string(errors.CodeOf(err))
		if outcome == "" {
			outcome = "UNKNOWN"
		}
		e.logger.Debug("facet unavailable", map[string]interface{}{
			"requestId": requestID,
			"facet":     facet,
			"errorCode": outcome,
		})
	}
	metrics.FacetOutcomes.WithLabelValues(facet, outcome).Inc()
}

func (e *Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if e.recorder != nil {
		return e.recorder.StartSpan(ctx, name, attrs...)
	}
	return otel.Tracer("vehicle-techdata-workers/techdata").Start(ctx, name, trace.WithAttributes(attrs...))
}

func (e *Engine) recordProfile(ctx context.Context, d time.Duration, found bool, source string) {
	if e.recorder != nil {
		e.recorder.RecordProfile(ctx, d, found, source)
	}
}
