package aggregator

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"vehicle-techdata-workers/internal/common/errors"
	"vehicle-techdata-workers/internal/common/logger"
	"vehicle-techdata-workers/internal/models"
	"vehicle-techdata-workers/internal/techdata/capacity"
	"vehicle-techdata-workers/internal/techdata/lubricant"
	"vehicle-techdata-workers/internal/techdata/plate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fakes
// ==========================

type fakeTechData struct {
	identity    *models.Identity
	identityErr error
	entries     []capacity.Entry
	capacityErr error
	groups      []lubricant.Group
	lubeErr     error
	repair      *models.RepairTimes
	repairErr   error
	delay       time.Duration

	calls       int32
	detailNodes int32
}

func (f *fakeTechData) wait(ctx context.Context) error {
	atomic.AddInt32(&f.calls, 1)
	if f.delay == 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return errors.NewProviderTimeoutError("fake", "wait")
	}
}

func (f *fakeTechData) FetchIdentity(ctx context.Context, _ plate.VRM) (*models.Identity, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.identity == nil {
		if f.identityErr == nil {
			return nil, errors.NewProviderEmptyResultError("fake", "identity")
		}
		return nil, f.identityErr
	}
	id := *f.identity
	return &id, nil
}

func (f *fakeTechData) FetchCapacities(ctx context.Context, _ plate.VRM) (capacity.Index, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.capacityErr != nil {
		return nil, f.capacityErr
	}
	return capacity.Build(f.entries), nil
}

func (f *fakeTechData) FetchLubricants(ctx context.Context, _ plate.VRM, idx capacity.Index) (lubricant.Result, error) {
	if err := f.wait(ctx); err != nil {
		return lubricant.Result{}, err
	}
	if f.lubeErr != nil {
		return lubricant.Result{}, f.lubeErr
	}
	return lubricant.Classify(f.groups, idx), nil
}

func (f *fakeTechData) FetchRepairTree(ctx context.Context, _ plate.VRM, detailNodes int) (*models.RepairTimes, error) {
	atomic.StoreInt32(&f.detailNodes, int32(detailNodes))
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.repair == nil {
		if f.repairErr != nil {
			return nil, f.repairErr
		}
		return nil, errors.NewProviderEmptyResultError("fake", "repair")
	}
	tree := *f.repair
	return &tree, nil
}

type fakeDetails struct {
	details *models.VehicleDetails
	err     error
}

func (f *fakeDetails) FetchVehicleDetails(context.Context, plate.VRM) (*models.VehicleDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	d := *f.details
	return &d, nil
}

func newEngine(t *testing.T, td TechDataProvider, details VehicleDetailsProvider, opts Options) *Engine {
	t.Helper()
	return NewEngine(Deps{TechData: td, VehicleDetails: details, Logger: logger.NewTestLogger(t)}, opts)
}

var providerLubes = []lubricant.Group{
	{Name: "Engine", Items: []lubricant.Item{{Name: "Engine oil", Quality: "ACEA C2", Viscosity: "0W-30"}}},
	{Name: "Air conditioning", Items: []lubricant.Item{{Name: "Refrigerant", Quality: "R1234yf"}}},
}

var fordDiesel = &models.Identity{FullName: "FORD FOCUS 1.5 TDCi", Make: "FORD", FuelType: "Diesel", YearFrom: 2016}

func specOf(p *models.TechnicalProfile, category models.LubricantCategory) string {
	for _, l := range p.Lubricants {
		if l.Category == category {
			return l.Specification
		}
	}
	return ""
}

// ==========================
// Plate handling
// ==========================

func TestGetTechnicalProfile_InvalidPlateAborts(t *testing.T) {
	td := &fakeTechData{}
	e := newEngine(t, td, nil, Options{})

	profile, err := e.GetTechnicalProfile(context.Background(), " \t ")

	assert.Nil(t, profile)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRegistration))
	assert.Zero(t, atomic.LoadInt32(&td.calls), "no provider call for an invalid plate")
}

func TestGetTechnicalProfile_NormalizesPlate(t *testing.T) {
	e := newEngine(t, &fakeTechData{}, nil, Options{})

	profile, err := e.GetTechnicalProfile(context.Background(), "ym14 nfl")

	require.NoError(t, err)
	assert.Equal(t, "YM14NFL", profile.VRM)
}

// ==========================
// Fallback policy
// ==========================

func TestGetTechnicalProfile_NoIdentityMeansNoLubricants(t *testing.T) {
	e := newEngine(t, &fakeTechData{groups: providerLubes}, nil, Options{})

	profile, err := e.GetTechnicalProfile(context.Background(), "YM14NFL")

	require.NoError(t, err)
	assert.False(t, profile.VehicleFound())
	assert.NotNil(t, profile.Lubricants)
	assert.Empty(t, profile.Lubricants)
	assert.Nil(t, profile.Aircon)
	assert.Empty(t, profile.LubricantSource)

	data, err := json.Marshal(profile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"lubricants":[]`)
}

func TestGetTechnicalProfile_ProviderLubricantsAreNeverOverwritten(t *testing.T) {
	e := newEngine(t, &fakeTechData{identity: fordDiesel, groups: providerLubes}, nil, Options{})

	profile, err := e.GetTechnicalProfile(context.Background(), "YM14NFL")

	require.NoError(t, err)
	assert.Equal(t, models.SourceProvider, profile.LubricantSource)
	assert.Empty(t, profile.FallbackRule)
	require.Len(t, profile.Lubricants, 1)
	assert.Equal(t, "ACEA C2 0W-30", profile.Lubricants[0].Specification)
	require.NotNil(t, profile.Aircon)
	assert.Equal(t, "R1234yf", profile.Aircon.Type)
}

func TestGetTechnicalProfile_FordDieselFallback(t *testing.T) {
	e := newEngine(t, &fakeTechData{identity: fordDiesel}, nil, Options{})

	profile, err := e.GetTechnicalProfile(context.Background(), "YM14NFL")

	require.NoError(t, err)
	assert.Equal(t, models.SourceHeuristic, profile.LubricantSource)
	assert.Equal(t, "ford", profile.FallbackRule)
	require.NotNil(t, profile.Aircon)
	assert.Equal(t, "R1234yf", profile.Aircon.Type)
	assert.Equal(t, "5W-30 (WSS-M2C913-D)", specOf(profile, models.CategoryEngineOil))
	for _, l := range profile.Lubricants {
		assert.Empty(t, l.Capacity, "empty capacity index yields no capacities")
	}
	assert.Empty(t, profile.Aircon.Quantity)
}

func TestGetTechnicalProfile_FordOlderFallback(t *testing.T) {
	identity := &models.Identity{FullName: "FORD FIESTA", Make: "FORD", YearFrom: 2010}
	e := newEngine(t, &fakeTechData{identity: identity}, nil, Options{})

	profile, err := e.GetTechnicalProfile(context.Background(), "YM14NFL")

	require.NoError(t, err)
	require.NotNil(t, profile.Aircon)
	assert.Equal(t, "R134a", profile.Aircon.Type)
}

func TestGetTechnicalProfile_FallbackTakesCapacitiesFromIndexOnly(t *testing.T) {
	td := &fakeTechData{
		identity: fordDiesel,
		entries: []capacity.Entry{
			{Label: "Engine sump, including filter", Value: "4.1", Unit: "l"},
			{Label: "Refrigerant", Value: "520", Unit: "g"},
			{Label: "Windscreen washer", Value: "4", Unit: "l"},
		},
	}
	e := newEngine(t, td, nil, Options{})

	profile, err := e.GetTechnicalProfile(context.Background(), "YM14NFL")

	require.NoError(t, err)
	for _, l := range profile.Lubricants {
		if l.Category == models.CategoryEngineOil {
			assert.Equal(t, "4.1 l", l.Capacity)
		} else {
			assert.Empty(t, l.Capacity, l.Description)
		}
	}
	assert.Equal(t, "520 g", profile.Aircon.Quantity)
}

func TestGetTechnicalProfile_FallbackKeepsProviderAircon(t *testing.T) {
	td := &fakeTechData{
		identity: fordDiesel,
		groups:   []lubricant.Group{{Name: "Air conditioning", Items: []lubricant.Item{{Name: "Refrigerant", Quality: "R134a"}}}},
	}
	e := newEngine(t, td, nil, Options{})

	profile, err := e.GetTechnicalProfile(context.Background(), "YM14NFL")

	require.NoError(t, err)
	assert.Equal(t, models.SourceHeuristic, profile.LubricantSource)
	assert.Equal(t, "R134a", profile.Aircon.Type, "provider aircon wins over the heuristic one")
}

func TestGetTechnicalProfile_VehicleDetailsEnrichIdentity(t *testing.T) {
	td := &fakeTechData{identity: &models.Identity{FullName: "320D M SPORT", YearFrom: 2012}}
	details := &fakeDetails{details: &models.VehicleDetails{VIN: "WBA3D32050F000001", Make: "BMW", Model: "3 SERIES"}}
	e := newEngine(t, td, details, Options{})

	profile, err := e.GetTechnicalProfile(context.Background(), "YM14NFL")

	require.NoError(t, err)
	assert.Equal(t, "WBA3D32050F000001", profile.Identity.VIN)
	assert.Equal(t, "BMW", profile.Identity.Make)
	assert.Equal(t, "bmw", profile.FallbackRule)
	assert.Equal(t, "R134a", profile.Aircon.Type)
	require.NotNil(t, profile.VehicleDetails)
}

func TestGetTechnicalProfile_VehicleDetailsNeverConfirmVehicle(t *testing.T) {
	details := &fakeDetails{details: &models.VehicleDetails{VIN: "WF0X", Make: "FORD"}}
	e := newEngine(t, &fakeTechData{}, details, Options{})

	profile, err := e.GetTechnicalProfile(context.Background(), "YM14NFL")

	require.NoError(t, err)
	assert.False(t, profile.VehicleFound())
	assert.Empty(t, profile.Lubricants)
	assert.NotNil(t, profile.VehicleDetails)
}

// ==========================
// Soft failures and cancellation
// ==========================

func TestGetTechnicalProfile_FacetFailuresAreIsolated(t *testing.T) {
	td := &fakeTechData{
		identity:    fordDiesel,
		capacityErr: errors.NewProviderParseError("fake", "GET_ADJUSTMENTS", assert.AnError),
		lubeErr:     errors.NewProviderTransportError("fake", "GET_LUBRICANTS", assert.AnError),
		repairErr:   errors.NewProviderTimeoutError("fake", "REPAIR_IDS"),
	}
	details := &fakeDetails{err: errors.NewProviderNotConfiguredError("ukvd", "api_key")}
	e := newEngine(t, td, details, Options{})

	profile, err := e.GetTechnicalProfile(context.Background(), "YM14NFL")

	require.NoError(t, err)
	assert.True(t, profile.VehicleFound())
	assert.Nil(t, profile.RepairTimes)
	assert.Nil(t, profile.VehicleDetails)
	assert.Equal(t, models.SourceHeuristic, profile.LubricantSource)
}

func TestGetTechnicalProfile_RepairTree(t *testing.T) {
	td := &fakeTechData{repair: &models.RepairTimes{RepairTypeID: "48213", Nodes: []models.RepairCategoryNode{{ID: "1D", Label: "Engine", HasChildren: true}}}}

	e := newEngine(t, td, nil, Options{IncludeRepairDetails: true, RepairDetailNodes: 5})
	profile, err := e.GetTechnicalProfile(context.Background(), "YM14NFL")
	require.NoError(t, err)
	require.NotNil(t, profile.RepairTimes)
	assert.Equal(t, "48213", profile.RepairTimes.RepairTypeID)
	assert.Equal(t, int32(5), atomic.LoadInt32(&td.detailNodes))

	e = newEngine(t, td, nil, Options{IncludeRepairDetails: false, RepairDetailNodes: 5})
	_, err = e.GetTechnicalProfile(context.Background(), "YM14NFL")
	require.NoError(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&td.detailNodes))
}

func TestGetTechnicalProfile_AggregationTimeoutSoftFails(t *testing.T) {
	td := &fakeTechData{identity: fordDiesel, delay: 5 * time.Second}
	e := newEngine(t, td, nil, Options{AggregationTimeout: 50 * time.Millisecond})

	start := time.Now()
	profile, err := e.GetTechnicalProfile(context.Background(), "YM14NFL")

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, profile.VehicleFound())
	assert.Empty(t, profile.Lubricants)
}

func TestGetTechnicalProfile_CallerCancellation(t *testing.T) {
	td := &fakeTechData{identity: fordDiesel, delay: 5 * time.Second}
	e := newEngine(t, td, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	profile, err := e.GetTechnicalProfile(ctx, "YM14NFL")

	assert.Nil(t, profile)
	assert.True(t, errors.HasCode(err, errors.ErrCodeProfileAggregationFailed))
}

// ==========================
// Output shape
// ==========================

func TestGetTechnicalProfile_Deterministic(t *testing.T) {
	td := &fakeTechData{
		identity: fordDiesel,
		entries:  []capacity.Entry{{Label: "Engine sump, including filter", Value: "4.1", Unit: "l"}, {Label: "Cooling system", Value: "6", Unit: "l"}},
		groups: []lubricant.Group{
			{Name: "Engine", Items: []lubricant.Item{{Name: "Engine oil", Viscosity: "5W-30"}}},
			{Name: "Cooling system", Items: []lubricant.Item{{Name: "Coolant", Quality: "WSS-M97B44-D"}}},
		},
		repair: &models.RepairTimes{RepairTypeID: "1", Nodes: []models.RepairCategoryNode{{ID: "1D", Label: "Engine"}}},
	}
	e := newEngine(t, td, &fakeDetails{details: &models.VehicleDetails{VIN: "WF0X"}}, Options{ExposeCapacities: true})

	first, err := e.GetTechnicalProfile(context.Background(), "YM14NFL")
	require.NoError(t, err)
	second, err := e.GetTechnicalProfile(context.Background(), "YM14 NFL")
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestGetTechnicalProfile_ExposeCapacities(t *testing.T) {
	td := &fakeTechData{entries: []capacity.Entry{{Label: "Cooling system", Value: "6", Unit: "l"}}}

	hidden, err := newEngine(t, td, nil, Options{}).GetTechnicalProfile(context.Background(), "YM14NFL")
	require.NoError(t, err)
	assert.Nil(t, hidden.Capacities)

	shown, err := newEngine(t, td, nil, Options{ExposeCapacities: true}).GetTechnicalProfile(context.Background(), "YM14NFL")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"cooling system": "6 l"}, shown.Capacities)
}
