package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"media-resolver/internal/database"
	"media-resolver/internal/logging"
	"media-resolver/internal/metrics"
)

// Delay between batches to allow other operations on the catalog.
const batchDelay = 10 * time.Millisecond

var log = logging.For("indexer")

// Indexer keeps the catalog in step with the library directory.
type Indexer struct {
	db            *database.Database
	libraryDir    string
	indexInterval time.Duration

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once

	indexMu              sync.Mutex
	isIndexing           bool
	lastIndexTime        time.Time
	lastIndexDuration    time.Duration
	initialIndexComplete bool
	initialIndexError    error
	startTime            time.Time

	filesIndexed   atomic.Int64
	foldersIndexed atomic.Int64
	assetsRemoved  atomic.Int64

	parallelConfig  ParallelWalkerConfig
	onIndexComplete func()
}

// HealthStatus contains indexer state for health checks.
type HealthStatus struct {
	Ready             bool      `json:"ready"`
	Indexing          bool      `json:"indexing"`
	StartTime         time.Time `json:"startTime"`
	Uptime            string    `json:"uptime"`
	LastIndexed       time.Time `json:"lastIndexed,omitzero"`
	LastDuration      string    `json:"lastDuration,omitempty"`
	InitialIndexError string    `json:"initialIndexError,omitempty"`
	FilesIndexed      int64     `json:"filesIndexed"`
	FoldersIndexed    int64     `json:"foldersIndexed"`
	AssetsRemoved     int64     `json:"assetsRemoved"`
}

// New creates an indexer for libraryDir. An interval of zero disables
// periodic runs.
func New(db *database.Database, libraryDir string, indexInterval time.Duration) *Indexer {
	if abs, err := filepath.Abs(libraryDir); err == nil {
		libraryDir = abs
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Indexer{
		db:             db,
		libraryDir:     libraryDir,
		indexInterval:  indexInterval,
		ctx:            ctx,
		cancel:         cancel,
		startTime:      time.Now(),
		parallelConfig: DefaultParallelWalkerConfig(),
	}
}

// SetParallelConfig sets the walker configuration.
func (idx *Indexer) SetParallelConfig(config ParallelWalkerConfig) {
	idx.parallelConfig = config
}

// SetOnIndexComplete sets a callback invoked after every successful run.
func (idx *Indexer) SetOnIndexComplete(callback func()) {
	idx.onIndexComplete = callback
}

// Start runs the initial index in the background and schedules periodic
// re-indexing.
func (idx *Indexer) Start() {
	idx.wg.Add(1)
	go func() {
		defer idx.wg.Done()
		log.Info("Starting initial index in background...")
		if err := idx.Index(idx.ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Initial index error: %v", err)
			idx.indexMu.Lock()
			idx.initialIndexError = err
			idx.indexMu.Unlock()
		}
		idx.periodicIndex()
	}()
}

// Stop cancels any running index and waits for background work to exit.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(func() {
		idx.cancel()
		idx.wg.Wait()
	})
}

// IsReady reports whether the initial index has finished, successfully or not.
func (idx *Indexer) IsReady() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.initialIndexComplete
}

// IsIndexing reports whether a run is in progress.
func (idx *Indexer) IsIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.isIndexing
}

// LastIndexTime returns when the last run finished.
func (idx *Indexer) LastIndexTime() time.Time {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.lastIndexTime
}

// GetHealthStatus returns a snapshot of the indexer state.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	status := HealthStatus{
		Ready:          idx.initialIndexComplete,
		Indexing:       idx.isIndexing,
		StartTime:      idx.startTime,
		Uptime:         time.Since(idx.startTime).Round(time.Second).String(),
		LastIndexed:    idx.lastIndexTime,
		FilesIndexed:   idx.filesIndexed.Load(),
		FoldersIndexed: idx.foldersIndexed.Load(),
		AssetsRemoved:  idx.assetsRemoved.Load(),
	}
	if idx.lastIndexDuration > 0 {
		status.LastDuration = idx.lastIndexDuration.String()
	}
	if idx.initialIndexError != nil {
		status.InitialIndexError = idx.initialIndexError.Error()
	}
	return status
}

// TriggerIndex starts a run in the background. It returns false when a run
// is already in progress or the indexer has been stopped.
func (idx *Indexer) TriggerIndex() bool {
	if idx.ctx.Err() != nil || idx.IsIndexing() {
		return false
	}
	idx.wg.Add(1)
	go func() {
		defer idx.wg.Done()
		if err := idx.Index(idx.ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("manually triggered re-index failed: %v", err)
		}
	}()
	return true
}

// Index performs a full run. A call made while another run is active
// returns nil immediately.
func (idx *Indexer) Index(ctx context.Context) error {
	if !idx.tryStartIndexing() {
		log.Info("Index already in progress, skipping...")
		return nil
	}
	defer idx.finishIndexing()

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)
	metrics.IndexerRunsTotal.Inc()

	startTime := time.Now()
	log.Info("Indexing %s", idx.libraryDir)

	err := idx.run(ctx, startTime)
	if err != nil {
		metrics.IndexerErrors.Inc()
		return err
	}

	duration := time.Since(startTime)
	idx.indexMu.Lock()
	idx.lastIndexTime = time.Now()
	idx.lastIndexDuration = duration
	idx.indexMu.Unlock()

	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(duration.Seconds())
	metrics.IndexerFilesProcessed.Add(float64(idx.filesIndexed.Load()))

	log.Info("Index complete: %d files, %d folders, %d removed in %v",
		idx.filesIndexed.Load(), idx.foldersIndexed.Load(), idx.assetsRemoved.Load(), duration)

	if idx.onIndexComplete != nil {
		idx.onIndexComplete()
	}
	return nil
}

func (idx *Indexer) run(ctx context.Context, startTime time.Time) error {
	walker := NewParallelWalker(idx.libraryDir, idx.parallelConfig)
	found, err := walker.Walk(ctx)
	if err != nil {
		return fmt.Errorf("walk %s: %w", idx.libraryDir, err)
	}

	files, folders, _ := walker.Stats()
	idx.filesIndexed.Store(files)
	idx.foldersIndexed.Store(folders)

	if err := idx.processBatches(ctx, found); err != nil {
		return err
	}

	removed, err := idx.cleanupMissingAssets(ctx, startTime)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	idx.assetsRemoved.Store(removed)
	return nil
}

// processBatches upserts found assets, BatchSize rows per transaction.
func (idx *Indexer) processBatches(ctx context.Context, found []*database.Asset) error {
	size := idx.parallelConfig.BatchSize
	if size <= 0 {
		size = len(found)
	}
	for i := 0; i < len(found); i += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+size, len(found))
		if err := idx.processBatch(ctx, found[i:end]); err != nil {
			return err
		}
		if end < len(found) {
			time.Sleep(batchDelay)
		}
	}
	return nil
}

func (idx *Indexer) processBatch(ctx context.Context, batch []*database.Asset) error {
	tx, err := idx.db.BeginBatch(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	for _, a := range batch {
		if err := idx.db.UpsertAsset(ctx, tx, a); err != nil {
			log.Warn("Error upserting %s: %v", a.FilePath, err)
		}
	}
	if err := idx.db.EndBatch(tx, nil); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// cleanupMissingAssets removes library rows not touched since cutoff.
func (idx *Indexer) cleanupMissingAssets(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := idx.db.BeginBatch(ctx)
	if err != nil {
		return 0, err
	}
	deleted, err := idx.db.DeleteMissingAssets(ctx, tx, cutoff)
	if err := idx.db.EndBatch(tx, err); err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.Info("Removed %d missing assets from the catalog", deleted)
	}
	return deleted, nil
}

func (idx *Indexer) tryStartIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	return true
}

func (idx *Indexer) finishIndexing() {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	idx.isIndexing = false
	idx.initialIndexComplete = true
}

func (idx *Indexer) periodicIndex() {
	if idx.indexInterval <= 0 {
		return
	}
	ticker := time.NewTicker(idx.indexInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			log.Debug("Periodic re-index triggered")
			if err := idx.Index(idx.ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("periodic re-index failed: %v", err)
			}
		case <-idx.ctx.Done():
			return
		}
	}
}
