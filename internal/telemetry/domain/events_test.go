package telemetry

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestMeterEventValidate(t *testing.T) {
	ts := time.Date(2026, time.March, 10, 11, 0, 0, 0, time.UTC)

	valid := MeterEvent{MeterID: "MTR-001", KwhConsumedAc: 10, Voltage: 230, TS: ts}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	// Out-of-range values are the device's problem, not ingestion's.
	negative := MeterEvent{MeterID: "MTR-001", KwhConsumedAc: -5, Voltage: 9000, TS: ts}
	if err := negative.Validate(); err != nil {
		t.Fatalf("value range must not be enforced: %v", err)
	}

	cases := []MeterEvent{
		{KwhConsumedAc: 1, TS: ts},
		{MeterID: "MTR-001"},
		{MeterID: "MTR-001", KwhConsumedAc: math.NaN(), TS: ts},
		{MeterID: "MTR-001", Voltage: math.Inf(-1), TS: ts},
	}
	for i, event := range cases {
		if err := event.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestVehicleEventValidate(t *testing.T) {
	ts := time.Date(2026, time.March, 10, 11, 0, 0, 0, time.UTC)

	valid := VehicleEvent{VehicleID: "VEH-001", SOC: 0, KwhDeliveredDc: 9, BatteryTemp: 31, TS: ts}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}
	valid.SOC = 100
	if err := valid.Validate(); err != nil {
		t.Fatalf("soc 100 rejected: %v", err)
	}

	cases := []VehicleEvent{
		{SOC: 50, TS: ts},
		{VehicleID: "VEH-001", SOC: 50},
		{VehicleID: "VEH-001", SOC: -1, TS: ts},
		{VehicleID: "VEH-001", SOC: 101, TS: ts},
		{VehicleID: "VEH-001", SOC: 50, KwhDeliveredDc: math.NaN(), TS: ts},
		{VehicleID: "VEH-001", SOC: 50, BatteryTemp: math.Inf(1), TS: ts},
	}
	for i, event := range cases {
		if err := event.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}
