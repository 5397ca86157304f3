// Package resolver maps the references a host hands over (paths, file URLs,
// ph:// and assets-library:// URLs, picker result records) onto stable
// library identifiers and asset handles.
//
// A reference with no catalog entry yields assets.ErrNotFound. That is not
// fatal: callers can still read the referenced file directly.
package resolver
