// Package assets defines the data model shared by the resolver, fetcher and
// pipeline packages: references, identifiers, handles, blobs, the metadata
// record reported to callers, the MediaStore contract, and the typed errors
// every failure path returns.
//
// # Errors
//
//   - ErrNotFound: the reference has no catalog entry (non-fatal)
//   - *FetchError: network, permission, cancelled or notFound
//   - *ProbeError: corrupt or unsupportedFormat
//   - *DecodeError: the delegated decoder failed
//
// All of them work with errors.Is and errors.As.
package assets
