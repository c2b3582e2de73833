package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/observability/metrics"
	telemetry "github.com/4prathamesh/Energy-Ingestion-Engine/internal/telemetry/domain"
)

// PerformanceWindow is the trailing interval every report aggregates over.
const PerformanceWindow = 24 * time.Hour

// Clock supplies "now" for the window; injectable for deterministic tests.
type Clock interface {
	Now() time.Time
}

// PerformanceReport is the derived 24-hour view for one vehicle. It is
// computed fresh per request and never persisted.
type PerformanceReport struct {
	VehicleID              string    `json:"vehicleId"`
	TotalEnergyConsumedAc  float64   `json:"totalEnergyConsumedAc"`
	TotalEnergyDeliveredDc float64   `json:"totalEnergyDeliveredDc"`
	EfficiencyRatio        float64   `json:"efficiencyRatio"`
	AverageBatteryTemp     float64   `json:"averageBatteryTemp"`
	TimeWindowStart        time.Time `json:"timeWindowStart"`
	TimeWindowEnd          time.Time `json:"timeWindowEnd"`
	DataPoints             int64     `json:"dataPoints"`
}

// Service computes windowed performance analytics by correlating the meter
// and vehicle history streams.
type Service struct {
	vehicleHistory telemetry.VehicleHistoryStore
	meterHistory   telemetry.MeterHistoryStore
	vehicleStatus  telemetry.VehicleStatusStore
	resolver       MeterResolver
	clock          Clock
}

// NewService constructs the analytics engine.
func NewService(
	vehicleHistory telemetry.VehicleHistoryStore,
	meterHistory telemetry.MeterHistoryStore,
	vehicleStatus telemetry.VehicleStatusStore,
	resolver MeterResolver,
	clock Clock,
) (*Service, error) {
	if vehicleHistory == nil || meterHistory == nil {
		return nil, errors.New("analytics service: nil history store")
	}
	if vehicleStatus == nil {
		return nil, errors.New("analytics service: nil status store")
	}
	if resolver == nil {
		return nil, errors.New("analytics service: nil resolver")
	}
	if clock == nil {
		return nil, errors.New("analytics service: nil clock")
	}
	return &Service{
		vehicleHistory: vehicleHistory,
		meterHistory:   meterHistory,
		vehicleStatus:  vehicleStatus,
		resolver:       resolver,
		clock:          clock,
	}, nil
}

// GetPerformance returns the trailing 24-hour report for a vehicle.
//
// A vehicle unknown to the live projection yields ErrNotFound, never a
// zero-valued report. A known vehicle with no events in window yields a
// valid all-zero report with DataPoints 0. Efficiency below 85% is a
// fault signal downstream; the engine only reports the number.
func (s *Service) GetPerformance(ctx context.Context, vehicleID string) (PerformanceReport, error) {
	start := s.clock.Now()
	report, err := s.getPerformance(ctx, vehicleID)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveAnalytics(result, s.clock.Now().Sub(start))
	return report, err
}

func (s *Service) getPerformance(ctx context.Context, vehicleID string) (PerformanceReport, error) {
	if vehicleID == "" {
		return PerformanceReport{}, fmt.Errorf("%w: empty vehicle id", telemetry.ErrValidation)
	}

	exists, err := s.vehicleStatus.Exists(ctx, vehicleID)
	if err != nil {
		return PerformanceReport{}, fmt.Errorf("performance %s: exists check: %w: %v", vehicleID, telemetry.ErrQueryFailed, err)
	}
	if !exists {
		return PerformanceReport{}, fmt.Errorf("performance: vehicle %s: %w", vehicleID, telemetry.ErrNotFound)
	}

	end := s.clock.Now()
	windowStart := end.Add(-PerformanceWindow)

	vehicleAgg, err := s.vehicleHistory.QueryWindow(ctx, vehicleID, windowStart, end)
	if err != nil {
		return PerformanceReport{}, fmt.Errorf("performance %s: vehicle window: %w: %v", vehicleID, telemetry.ErrQueryFailed, err)
	}

	meterID := s.resolver.ResolveMeter(vehicleID)
	meterAgg, err := s.meterHistory.QueryWindow(ctx, meterID, windowStart, end)
	if err != nil {
		return PerformanceReport{}, fmt.Errorf("performance %s: meter %s window: %w: %v", vehicleID, meterID, telemetry.ErrQueryFailed, err)
	}

	totalDc := vehicleAgg.TotalKwh
	totalAc := meterAgg.TotalKwh

	// Zero AC with nonzero DC saturates to 0 so the metric stays defined.
	efficiency := 0.0
	if totalAc > 0 {
		efficiency = totalDc / totalAc * 100
	}

	return PerformanceReport{
		VehicleID:              vehicleID,
		TotalEnergyConsumedAc:  round2(totalAc),
		TotalEnergyDeliveredDc: round2(totalDc),
		EfficiencyRatio:        round2(efficiency),
		AverageBatteryTemp:     round2(vehicleAgg.AvgBatteryTemp),
		TimeWindowStart:        windowStart,
		TimeWindowEnd:          end,
		DataPoints:             vehicleAgg.DataPoints,
	}, nil
}

// round2 rounds for presentation only; intermediate math keeps full
// precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
