package handlers

import (
	"context"

	"media-resolver/internal/assets"
	"media-resolver/internal/database"
	"media-resolver/internal/indexer"
	"media-resolver/internal/logging"
	"media-resolver/internal/metrics"
	"media-resolver/internal/pipeline"
	"media-resolver/internal/startup"
)

var log = logging.For("handlers")

// Processor resolves references into bytes and metadata.
type Processor interface {
	Process(ctx context.Context, ref assets.Reference, opts pipeline.Options) (*pipeline.Result, error)
	ProcessBatch(ctx context.Context, refs []assets.Reference, opts pipeline.Options) []pipeline.BatchItem
}

// Catalog is the read side of the asset catalog.
type Catalog interface {
	GetAsset(ctx context.Context, id assets.Identifier) (*database.Asset, error)
	ListAssets(ctx context.Context, after assets.Identifier, limit int) ([]*database.Asset, error)
	GetStats(ctx context.Context) (metrics.Stats, error)
	Ping(ctx context.Context) error
}

// IndexStatus is the part of the indexer the API drives.
type IndexStatus interface {
	IsReady() bool
	GetHealthStatus() indexer.HealthStatus
	TriggerIndex() bool
}

// Handlers holds the dependencies of every HTTP handler.
type Handlers struct {
	pipeline Processor
	catalog  Catalog
	indexer  IndexStatus
	defaults pipeline.Options
}

// New builds the handlers. Request options default to the configured
// bounds, quality and normalization.
func New(p Processor, catalog Catalog, idx IndexStatus, config *startup.Config) *Handlers {
	defaults := pipeline.Options{
		MaxWidth:  config.MaxWidth,
		MaxHeight: config.MaxHeight,
		Quality:   config.JPEGQuality,
		Normalize: config.Normalize,
	}
	if config.OutputEnabled {
		defaults.OutputDir = config.OutputDir
	}
	return &Handlers{
		pipeline: p,
		catalog:  catalog,
		indexer:  idx,
		defaults: defaults,
	}
}
