package pipeline

import (
	"context"

	"media-resolver/internal/assets"
	"media-resolver/internal/workers"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome for one reference of a batch. Exactly one of
// Result and Err is set.
type BatchItem struct {
	Reference assets.Reference
	Result    *Result
	Err       error
}

// ProcessBatch processes refs concurrently and returns one item per
// reference, in input order. A failing reference never stops the others.
func (p *Pipeline) ProcessBatch(ctx context.Context, refs []assets.Reference, opts Options) []BatchItem {
	items := make([]BatchItem, len(refs))
	limit := workers.ForIO(p.workers)

	var g errgroup.Group
	g.SetLimit(limit)

	log.Debug("Processing batch of %d with %d workers", len(refs), limit)
	for i, ref := range refs {
		items[i].Reference = ref
		g.Go(func() error {
			if p.monitor != nil {
				if err := p.monitor.Wait(ctx); err != nil {
					items[i].Err = err
					return nil
				}
			}
			if err := ctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			items[i].Result, items[i].Err = p.Process(ctx, ref, opts)
			return nil
		})
	}

	// Items carry their own errors.
	_ = g.Wait()
	return items
}
