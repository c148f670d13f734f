package db

import (
	"fmt"

	"smartpark/internal/utils"
)

type VehicleClass string

// VehicleClassNone means the requester did not declare a vehicle class.
const VehicleClassNone VehicleClass = ""

const (
	VehicleHatchback   VehicleClass = "hatchback"
	VehicleSedan       VehicleClass = "sedan"
	VehicleCompactSUV  VehicleClass = "compact_suv"
	VehicleSUV         VehicleClass = "suv"
	VehicleLuxury      VehicleClass = "luxury"
	VehicleElectric    VehicleClass = "electric"
	VehicleHybrid      VehicleClass = "hybrid"
	VehicleSports      VehicleClass = "sports"
	VehicleHyperSports VehicleClass = "hyper_sports"
)

// ParseVehicleClass normalizes user input and rejects classes the service does not know.
// An empty value is accepted as VehicleClassNone.
func ParseVehicleClass(s string) (VehicleClass, error) {
	vc := VehicleClass(utils.NormalizeVehicleClass(s))
	if vc == VehicleClassNone {
		return VehicleClassNone, nil
	}
	if !vc.IsKnown() {
		return VehicleClassNone, fmt.Errorf("unknown vehicle class %q", s)
	}
	return vc, nil
}

func (v VehicleClass) IsKnown() bool {
	switch v {
	case VehicleHatchback, VehicleSedan, VehicleCompactSUV, VehicleSUV, VehicleLuxury,
		VehicleElectric, VehicleHybrid, VehicleSports, VehicleHyperSports:
		return true
	}
	return false
}

// IsPerformance groups the classes with capped discounts and scarcity pricing.
func (v VehicleClass) IsPerformance() bool {
	return v == VehicleSports || v == VehicleHyperSports
}

func (v VehicleClass) IsElectrified() bool {
	return v == VehicleElectric || v == VehicleHybrid
}
