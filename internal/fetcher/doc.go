// Package fetcher turns an asset handle into bytes.
//
// Local assets are read from the media store directly. Cloud-only assets are
// downloaded through the store, which caches them so that later fetches read
// the local copy.
//
// Three entry points share one implementation:
//
//   - Fetch returns a Future that settles exactly once
//   - FetchSync blocks on that future
//   - FetchAsync delivers the outcome to a callback after it returns
//
// Every failure is an *assets.FetchError whose Reason is network,
// permission, cancelled or notFound.
package fetcher
