package indexer

import (
	"context"
	"io/fs"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"media-resolver/internal/assets"
	"media-resolver/internal/database"
	"media-resolver/internal/logging"
	"media-resolver/internal/mediatypes"
	"media-resolver/internal/workers"
)

// ParallelWalkerConfig configures the parallel directory walker.
type ParallelWalkerConfig struct {
	// NumWorkers is the number of stat workers (0 = workers.ForIO).
	NumWorkers int
	// BatchSize is the number of assets committed per transaction.
	BatchSize int
	// ChannelBuffer is the size of the job and result channels.
	ChannelBuffer int
	// SkipHidden skips files and directories starting with ".".
	SkipHidden bool
}

// DefaultParallelWalkerConfig sizes the walker for I/O-bound work.
func DefaultParallelWalkerConfig() ParallelWalkerConfig {
	return ParallelWalkerConfig{
		NumWorkers:    workers.ForIO(0),
		BatchSize:     500,
		ChannelBuffer: 1000,
		SkipHidden:    true,
	}
}

type fileJob struct {
	path  string
	entry fs.DirEntry
}

// ParallelWalker walks a directory tree, turning media files into catalog
// rows on a pool of workers.
type ParallelWalker struct {
	config  ParallelWalkerConfig
	rootDir string

	jobs    chan fileJob
	results chan *database.Asset
	wg      sync.WaitGroup

	filesProcessed   atomic.Int64
	foldersProcessed atomic.Int64
	errorsCount      atomic.Int64
}

// NewParallelWalker creates a walker over rootDir.
func NewParallelWalker(rootDir string, config ParallelWalkerConfig) *ParallelWalker {
	if config.NumWorkers <= 0 {
		config.NumWorkers = workers.ForIO(0)
	}
	if config.ChannelBuffer <= 0 {
		config.ChannelBuffer = 1
	}
	return &ParallelWalker{
		config:  config,
		rootDir: rootDir,
		jobs:    make(chan fileJob, config.ChannelBuffer),
		results: make(chan *database.Asset, config.ChannelBuffer),
	}
}

// Walk returns every media asset under the root. When ctx is cancelled the
// walk stops early and returns what was collected with ctx's error.
func (pw *ParallelWalker) Walk(ctx context.Context) ([]*database.Asset, error) {
	logging.Debug("Starting parallel directory walk with %d workers", pw.config.NumWorkers)
	startTime := time.Now()

	for i := 0; i < pw.config.NumWorkers; i++ {
		pw.wg.Add(1)
		go pw.worker(ctx)
	}

	var found []*database.Asset
	done := make(chan struct{})
	go func() {
		defer close(done)
		for a := range pw.results {
			found = append(found, a)
		}
	}()

	err := pw.walkAndEnqueue(ctx)
	close(pw.jobs)
	pw.wg.Wait()
	close(pw.results)
	<-done

	logging.Debug("Parallel walk complete: %d files, %d folders in %v (errors: %d)",
		pw.filesProcessed.Load(), pw.foldersProcessed.Load(), time.Since(startTime), pw.errorsCount.Load())

	if err == nil {
		err = ctx.Err()
	}
	return found, err
}

func (pw *ParallelWalker) walkAndEnqueue(ctx context.Context) error {
	return filepath.WalkDir(pw.rootDir, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			pw.errorsCount.Add(1)
			return nil
		}
		if path == pw.rootDir {
			return nil
		}
		if pw.config.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			pw.foldersProcessed.Add(1)
			return nil
		}

		select {
		case pw.jobs <- fileJob{path: path, entry: d}:
		case <-ctx.Done():
			return fs.SkipAll
		}
		return nil
	})
}

func (pw *ParallelWalker) worker(ctx context.Context) {
	defer pw.wg.Done()

	for job := range pw.jobs {
		if ctx.Err() != nil {
			continue
		}
		a, err := assetFromEntry(job.path, job.entry)
		if err != nil {
			pw.errorsCount.Add(1)
			logging.Debug("Error reading %s: %v", job.path, err)
			continue
		}
		if a == nil {
			continue
		}
		pw.filesProcessed.Add(1)
		pw.results <- a
	}
}

// Stats returns the walker's counters.
func (pw *ParallelWalker) Stats() (files, folders, errors int64) {
	return pw.filesProcessed.Load(), pw.foldersProcessed.Load(), pw.errorsCount.Load()
}

// IdentifierForPath returns the stable catalog identifier of a library file.
func IdentifierForPath(path string) assets.Identifier {
	return assets.Identifier(uuid.NewSHA1(uuid.NameSpaceURL, []byte(fileURL(path))).String())
}

func fileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// assetFromEntry returns nil for files that are not images or videos.
func assetFromEntry(path string, d fs.DirEntry) (*database.Asset, error) {
	kind := mediatypes.KindForExtension(d.Name())
	if kind == mediatypes.KindOther {
		return nil, nil
	}
	info, err := d.Info()
	if err != nil {
		return nil, err
	}
	return &database.Asset{
		Identifier: IdentifierForPath(path),
		URI:        fileURL(path),
		FilePath:   path,
		Filename:   d.Name(),
		Kind:       kind,
		MimeType:   mediatypes.MimeTypeForExtension(d.Name()),
		ByteSize:   info.Size(),
		LocalPath:  path,
		ModTime:    info.ModTime(),
	}, nil
}
