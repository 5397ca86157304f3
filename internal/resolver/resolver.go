package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"media-resolver/internal/assets"
	"media-resolver/internal/logging"
	"media-resolver/internal/metrics"
)

var log = logging.For("resolver")

// Resolver maps host references onto library identifiers and handles.
type Resolver struct {
	store assets.MediaStore
}

// New creates a Resolver backed by store.
func New(store assets.MediaStore) *Resolver {
	return &Resolver{store: store}
}

// ResolveIdentifier derives the library identifier for ref. In order of
// precedence it uses the picker record's identifier, an identifier encoded
// in the reference URL, and finally a reverse lookup of the referenced path
// in the media store. It returns assets.ErrNotFound when the reference has
// no catalog entry.
func (r *Resolver) ResolveIdentifier(ctx context.Context, ref assets.Reference) (assets.Identifier, error) {
	if info := ref.Info; info != nil && info.AssetIdentifier != "" {
		metrics.ResolveTotal.WithLabelValues("picker", "found").Inc()
		return assets.Identifier(info.AssetIdentifier), nil
	}

	for _, candidate := range r.urlCandidates(ref) {
		if id, ok := IdentifierFromURL(candidate); ok {
			metrics.ResolveTotal.WithLabelValues("url", "found").Inc()
			return id, nil
		}
	}

	for _, candidate := range r.pathCandidates(ref) {
		id, err := r.store.LookupByReference(ctx, candidate)
		switch {
		case err == nil:
			metrics.ResolveTotal.WithLabelValues("lookup", "found").Inc()
			return id, nil
		case errors.Is(err, assets.ErrNotFound):
			continue
		default:
			metrics.ResolveTotal.WithLabelValues("lookup", "error").Inc()
			return "", fmt.Errorf("lookup %s: %w", candidate, err)
		}
	}

	metrics.ResolveTotal.WithLabelValues("lookup", "not_found").Inc()
	log.Debug("No catalog entry for reference %s", ref)
	return "", assets.ErrNotFound
}

// ResolveAsset resolves ref to the handle of its catalog entry. It returns
// assets.ErrNotFound when the reference has no catalog entry or the
// identifier is unknown to the store.
func (r *Resolver) ResolveAsset(ctx context.Context, ref assets.Reference) (*assets.Handle, error) {
	id, err := r.ResolveIdentifier(ctx, ref)
	if err != nil {
		return nil, err
	}

	h, err := r.store.FetchByIdentifier(ctx, id)
	if err != nil {
		if errors.Is(err, assets.ErrNotFound) {
			log.Debug("Identifier %s resolved from %s is not in the library", id, ref)
			return nil, assets.ErrNotFound
		}
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}
	return h, nil
}

func (r *Resolver) urlCandidates(ref assets.Reference) []string {
	var out []string
	if ref.Info != nil && ref.Info.ReferenceURL != "" {
		out = append(out, ref.Info.ReferenceURL)
	}
	if ref.URI != "" {
		out = append(out, ref.URI)
	}
	return out
}

func (r *Resolver) pathCandidates(ref assets.Reference) []string {
	var out []string
	if p, ok := LocalPath(ref.URI); ok {
		out = append(out, p)
	}
	if ref.Info != nil {
		if p, ok := LocalPath(ref.Info.MediaURL); ok {
			out = append(out, p)
		}
	}
	// Imported assets are catalogued under their original URI.
	if uri := strings.TrimSpace(ref.URI); uri != "" && !slices.Contains(out, uri) {
		out = append(out, uri)
	}
	return out
}
