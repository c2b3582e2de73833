package application

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MeterResolver maps a vehicle identifier to the meter identifier feeding
// it. The two streams share no key in storage; this is the only join point.
type MeterResolver interface {
	ResolveMeter(vehicleID string) string
}

// IdentityResolver assumes meter id == vehicle id. This is a known fleet
// simplification; a real charger-to-meter topology slots in behind
// MeterResolver without touching the analytics engine.
type IdentityResolver struct{}

// ResolveMeter returns the vehicle id unchanged.
func (IdentityResolver) ResolveMeter(vehicleID string) string { return vehicleID }

// StaticMapResolver resolves meters from a fixed topology table, falling
// back to identity for unmapped vehicles.
type StaticMapResolver struct {
	mapping map[string]string
}

// NewStaticMapResolver constructs a resolver over a vehicle-to-meter map.
func NewStaticMapResolver(mapping map[string]string) *StaticMapResolver {
	return &StaticMapResolver{mapping: mapping}
}

// ResolveMeter returns the mapped meter id, or the vehicle id when unmapped.
func (r *StaticMapResolver) ResolveMeter(vehicleID string) string {
	if r != nil && r.mapping != nil {
		if meterID, ok := r.mapping[vehicleID]; ok && meterID != "" {
			return meterID
		}
	}
	return vehicleID
}

type topologyFile struct {
	Vehicles map[string]string `yaml:"vehicles"`
}

// LoadTopology reads a vehicle-to-meter topology from a yaml file:
//
//	vehicles:
//	  VEH-001: MTR-014
//	  VEH-002: MTR-015
func LoadTopology(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("correlation topology: %w", err)
	}
	var file topologyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("correlation topology: %w", err)
	}
	return file.Vehicles, nil
}
