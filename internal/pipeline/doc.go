// Package pipeline composes resolution, fetching, sniffing, probing,
// resizing and orientation handling into one call per asset reference.
//
// Process reports a metadata record whose width and height are logical
// (as a viewer sees the asset) together with the orientation of the
// returned bytes. With Normalize set, image output is re-encoded upright and
// reported with Normal orientation. References without a catalog entry are
// read directly from the path they name.
//
// ProcessBatch runs references concurrently with per-item failures.
package pipeline
