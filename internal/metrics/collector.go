package metrics

import (
	"context"
	"time"

	"media-resolver/internal/logging"
)

// StatsProvider reports catalog counts for the library gauges.
type StatsProvider interface {
	GetStats(ctx context.Context) (Stats, error)
}

// Stats holds the current catalog statistics
type Stats struct {
	LocalImages int
	CloudImages int
	LocalVideos int
	CloudVideos int
	LocalOther  int
	CloudOther  int
}

// Total returns the number of cataloged assets.
func (s Stats) Total() int {
	return s.LocalImages + s.CloudImages + s.LocalVideos + s.CloudVideos + s.LocalOther + s.CloudOther
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := c.statsProvider.GetStats(ctx)
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	LibraryAssetsTotal.WithLabelValues("image", "local").Set(float64(stats.LocalImages))
	LibraryAssetsTotal.WithLabelValues("image", "cloud").Set(float64(stats.CloudImages))
	LibraryAssetsTotal.WithLabelValues("video", "local").Set(float64(stats.LocalVideos))
	LibraryAssetsTotal.WithLabelValues("video", "cloud").Set(float64(stats.CloudVideos))
	LibraryAssetsTotal.WithLabelValues("other", "local").Set(float64(stats.LocalOther))
	LibraryAssetsTotal.WithLabelValues("other", "cloud").Set(float64(stats.CloudOther))

	logging.Debug("Metrics collected: assets=%d", stats.Total())
}
