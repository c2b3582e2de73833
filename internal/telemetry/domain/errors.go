package telemetry

import "errors"

// ErrValidation marks malformed or missing input rejected before any write.
var ErrValidation = errors.New("telemetry: validation failed")

// ErrNotFound marks a device id absent from the live status projection.
var ErrNotFound = errors.New("telemetry: device not found")

// ErrProjectionUpdateFailed marks an ingest whose history append succeeded
// but whose live status upsert did not. History is authoritative; the
// projection is a rebuildable cache, so callers may retry the whole ingest.
var ErrProjectionUpdateFailed = errors.New("telemetry: live status update failed")

// ErrQueryFailed marks a store failure during analytics computation.
var ErrQueryFailed = errors.New("telemetry: window query failed")
