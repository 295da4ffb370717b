// Package heuristics synthesizes default lubricant and refrigerant specs for a confirmed vehicle
// whose provider returned no lubricant data. Rules are pure and need no network.
package heuristics

import (
	"strings"

	"vehicle-techdata-workers/internal/models"
)

// RefrigerantCutoffYear is the first model year assumed to ship with R1234yf.
const RefrigerantCutoffYear = 2014

const (
	RefrigerantR134a   = "R134a"
	RefrigerantR1234yf = "R1234yf"
)

// DefaultRuleName names the rule applied when nothing else matches.
const DefaultRuleName = "default"

// Vehicle is the identity tuple the rules see. Make may hold a full descriptive name.
type Vehicle struct {
	Make      string
	VIN       string
	FuelType  string
	ModelYear int
}

// Diesel reports whether the fuel type mentions diesel.
func (v Vehicle) Diesel() bool {
	return strings.Contains(strings.ToUpper(v.FuelType), "DIESEL")
}

// Result is a synthesized profile fragment. Capacities are never set here.
type Result struct {
	Rule       string
	Lubricants []models.LubricantItem
	Aircon     models.AirconSpec
}

// Rule pairs a predicate with a producer.
type Rule struct {
	Name    string
	Match   func(Vehicle) bool
	Produce func(Vehicle) Result
}

// Rules is evaluated in order, first match wins.
var Rules = []Rule{
	{
		Name:  "vw_group",
		Match: matcher([]string{"VOLKSWAGEN", "AUDI", "SEAT", "SKODA"}, []string{"WVW", "WUA", "WAU", "TMB", "VSS"}),
		Produce: func(v Vehicle) Result {
			oil := "5W-30 (VW 504.00)"
			if v.Diesel() {
				oil = "5W-30 (VW 507.00)"
			}
			return manufacturerResult(v, oil, "DOT 4 (ISO 4925 Class 4)", "G13 / G12++ (VW TL 774-J)")
		},
	},
	{
		Name:  "bmw",
		Match: matcher([]string{"BMW"}, []string{"WBA", "WBS"}),
		Produce: func(v Vehicle) Result {
			return manufacturerResult(v, "5W-30 (BMW Longlife-04)", "DOT 4 Low Viscosity", "Blue (BMW LC-87)")
		},
	},
	{
		Name:  "mercedes",
		Match: matcher([]string{"MERCEDES"}, []string{"WDD", "WDB"}),
		Produce: func(v Vehicle) Result {
			return manufacturerResult(v, "5W-30 (MB 229.51/229.52)", "DOT 4 Plus (MB 331.0)", "Blue/Green (MB 325.0)")
		},
	},
	{
		Name:  "ford",
		Match: matcher([]string{"FORD"}, []string{"WF0", "1FA"}),
		Produce: func(v Vehicle) Result {
			oil := "5W-20 (WSS-M2C948-B)"
			if v.Diesel() {
				oil = "5W-30 (WSS-M2C913-D)"
			}
			return manufacturerResult(v, oil, "DOT 4", "Orange (WSS-M97B44-D2)")
		},
	},
}

// Synthesize applies the first matching rule, or the default. It never fails.
func Synthesize(v Vehicle) Result {
	for _, r := range Rules {
		if r.Match(v) {
			res := r.Produce(v)
			res.Rule = r.Name
			return res
		}
	}
	return Result{
		Rule:       DefaultRuleName,
		Lubricants: lubricants("5W-30 ACEA C3", "DOT 4", "OAT (Pink/Red)"),
		Aircon:     models.AirconSpec{Type: RefrigerantR134a},
	}
}

// RefrigerantFor picks the refrigerant generation by model year. Year 0 means unknown.
func RefrigerantFor(year int) string {
	if year >= RefrigerantCutoffYear {
		return RefrigerantR1234yf
	}
	return RefrigerantR134a
}

func matcher(makes, vinPrefixes []string) func(Vehicle) bool {
	return func(v Vehicle) bool {
		mk := strings.ToUpper(v.Make)
		for _, m := range makes {
			if strings.Contains(mk, m) {
				return true
			}
		}
		vin := strings.ToUpper(strings.TrimSpace(v.VIN))
		for _, p := range vinPrefixes {
			if strings.HasPrefix(vin, p) {
				return true
			}
		}
		return false
	}
}

func manufacturerResult(v Vehicle, oil, brake, coolant string) Result {
	return Result{
		Lubricants: lubricants(oil, brake, coolant),
		Aircon:     models.AirconSpec{Type: RefrigerantFor(v.ModelYear)},
	}
}

func lubricants(oil, brake, coolant string) []models.LubricantItem {
	return []models.LubricantItem{
		{Description: "Engine Oil", Category: models.CategoryEngineOil, Specification: oil},
		{Description: "Brake Fluid", Category: models.CategoryBrakeFluid, Specification: brake},
		{Description: "Coolant", Category: models.CategoryCoolant, Specification: coolant},
	}
}
