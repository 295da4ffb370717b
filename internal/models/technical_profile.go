package models

import "encoding/json"

// LubricantCategory is the technical-profile slot a lubricant item fills.
type LubricantCategory string

const (
	CategoryEngineOil   LubricantCategory = "engine_oil"
	CategoryBrakeFluid  LubricantCategory = "brake_fluid"
	CategoryCoolant     LubricantCategory = "coolant"
	CategoryGearboxOil  LubricantCategory = "gearbox_oil"
	CategoryRefrigerant LubricantCategory = "refrigerant"
)

// LubricantSource records where the profile's lubricants came from.
type LubricantSource string

const (
	SourceProvider  LubricantSource = "provider"
	SourceHeuristic LubricantSource = "heuristic"
)

// TechnicalProfile is the canonical, provider-independent view of a vehicle.
type TechnicalProfile struct {
	VRM             string            `json:"vrm"`
	Identity        *Identity         `json:"identity,omitempty"`
	VehicleDetails  *VehicleDetails   `json:"vehicleDetails,omitempty"`
	Lubricants      []LubricantItem   `json:"lubricants"`
	LubricantSource LubricantSource   `json:"lubricantSource,omitempty"`
	FallbackRule    string            `json:"fallbackRule,omitempty"`
	Aircon          *AirconSpec       `json:"aircon,omitempty"`
	RepairTimes     *RepairTimes      `json:"repairTimes,omitempty"`
	Capacities      map[string]string `json:"capacities,omitempty"`
}

// VehicleFound reports whether the technical-data provider confirmed the vehicle.
func (p *TechnicalProfile) VehicleFound() bool {
	return p.Identity != nil
}

// Identity is what the technical-data provider knows about the vehicle.
type Identity struct {
	FullName string `json:"fullName"`
	Make     string `json:"make,omitempty"`
	Model    string `json:"model,omitempty"`
	FuelType string `json:"fuelType,omitempty"`
	YearFrom int    `json:"yearFrom,omitempty"`
	YearTo   int    `json:"yearTo,omitempty"`
	VIN      string `json:"vin,omitempty"`
}

// VehicleDetails is what the vehicle-details provider returns for the registration.
type VehicleDetails struct {
	VIN               string `json:"vin,omitempty"`
	Make              string `json:"make,omitempty"`
	Model             string `json:"model,omitempty"`
	FuelType          string `json:"fuelType,omitempty"`
	YearOfManufacture int    `json:"yearOfManufacture,omitempty"`
	EngineCapacityCC  int    `json:"engineCapacityCc,omitempty"`
	Transmission      string `json:"transmission,omitempty"`
	EuroStatus        string `json:"euroStatus,omitempty"`
}

type LubricantItem struct {
	Description   string            `json:"description"`
	Category      LubricantCategory `json:"category"`
	Specification string            `json:"specification"`
	Capacity      string            `json:"capacity,omitempty"`
}

type AirconSpec struct {
	Type     string `json:"type"`
	Quantity string `json:"quantity,omitempty"`
}

type RepairTimes struct {
	RepairTypeID string               `json:"repairTypeId"`
	Nodes        []RepairCategoryNode `json:"nodes"`
	Details      json.RawMessage      `json:"details,omitempty"`
}

type RepairCategoryNode struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	HasChildren bool   `json:"hasChildren"`
}
