// Package cloud downloads the originals of cloud-only assets.
//
// Three backends implement Downloader: S3 (aws-sdk-go-v2), a plain HTTP
// object store, and a mounted remote directory. Missing objects surface as
// assets.ErrNotFound and refused access as assets.ErrPermission, so the
// fetcher can classify failures without knowing the backend.
package cloud
