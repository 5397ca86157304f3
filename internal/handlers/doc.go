// Package handlers provides the HTTP API of the media resolver.
//
// It includes handlers for:
//   - Resolving a reference to metadata, bytes, or both (single and batch)
//   - Browsing the asset catalog and its statistics
//   - Triggering a library re-index
//   - Health, readiness and version probes
package handlers
