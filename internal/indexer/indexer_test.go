package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"media-resolver/internal/assets"
	"media-resolver/internal/database"
	"media-resolver/internal/mediatypes"
	"media-resolver/internal/testutil"
)

func newTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

// newLibrary lays out two media files, one non-media file and a hidden
// directory.
func newLibrary(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"), testutil.EncodeJPEG(t, testutil.Gradient(8, 6)))
	writeFile(t, filepath.Join(dir, "trips", "b.mp4"), []byte("\x00\x00\x00\x18ftypmp42"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("not media"))
	writeFile(t, filepath.Join(dir, ".thumbs", "c.jpg"), testutil.EncodeJPEG(t, testutil.Gradient(2, 2)))
	return dir
}

func smallConfig() ParallelWalkerConfig {
	cfg := DefaultParallelWalkerConfig()
	cfg.NumWorkers = 2
	cfg.BatchSize = 1
	return cfg
}

func TestIndexCatalogsMedia(t *testing.T) {
	db := newTestDB(t)
	dir := newLibrary(t)
	ctx := context.Background()

	idx := New(db, dir, 0)
	idx.SetParallelConfig(smallConfig())
	if err := idx.Index(ctx); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	tests := []struct {
		rel      string
		want     bool
		kind     mediatypes.Kind
		mimeType string
	}{
		{"a.jpg", true, mediatypes.KindImage, "image/jpeg"},
		{"trips/b.mp4", true, mediatypes.KindVideo, "video/mp4"},
		{"notes.txt", false, "", ""},
		{".thumbs/c.jpg", false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			path := filepath.Join(dir, tt.rel)
			a, err := db.GetAsset(ctx, IdentifierForPath(path))
			if !tt.want {
				if !errors.Is(err, assets.ErrNotFound) {
					t.Errorf("GetAsset() error = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetAsset() error = %v", err)
			}
			if a.Kind != tt.kind || a.MimeType != tt.mimeType {
				t.Errorf("kind/mime = %s/%s, want %s/%s", a.Kind, a.MimeType, tt.kind, tt.mimeType)
			}
			if a.LocalPath != path || a.FilePath != path {
				t.Errorf("paths = %q/%q, want %q", a.LocalPath, a.FilePath, path)
			}
			info, _ := os.Stat(path)
			if a.ByteSize != info.Size() {
				t.Errorf("ByteSize = %d, want %d", a.ByteSize, info.Size())
			}
		})
	}

	status := idx.GetHealthStatus()
	if !status.Ready || status.Indexing {
		t.Errorf("status ready/indexing = %v/%v, want true/false", status.Ready, status.Indexing)
	}
	if status.FilesIndexed != 2 || status.FoldersIndexed != 1 {
		t.Errorf("indexed %d files, %d folders, want 2 and 1", status.FilesIndexed, status.FoldersIndexed)
	}
	if idx.LastIndexTime().IsZero() {
		t.Error("LastIndexTime() is zero after a run")
	}
}

func TestIndexedAssetsResolveByURI(t *testing.T) {
	db := newTestDB(t)
	dir := newLibrary(t)
	ctx := context.Background()

	idx := New(db, dir, 0)
	if err := idx.Index(ctx); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	path := filepath.Join(dir, "a.jpg")
	for _, ref := range []string{path, fileURL(path)} {
		id, err := db.FindIdentifier(ctx, ref)
		if err != nil {
			t.Fatalf("FindIdentifier(%q) error = %v", ref, err)
		}
		if id != IdentifierForPath(path) {
			t.Errorf("FindIdentifier(%q) = %q, want %q", ref, id, IdentifierForPath(path))
		}
	}
}

func TestIndexRemovesMissingFiles(t *testing.T) {
	db := newTestDB(t)
	dir := newLibrary(t)
	ctx := context.Background()

	cloudOnly := &database.Asset{
		Identifier: "cloud-1",
		URI:        "ph://cloud-1",
		Filename:   "remote.jpg",
		Kind:       mediatypes.KindImage,
		CloudKey:   "remote.jpg",
	}
	if err := db.SaveAsset(ctx, cloudOnly); err != nil {
		t.Fatalf("SaveAsset() error = %v", err)
	}

	idx := New(db, dir, 0)
	if err := idx.Index(ctx); err != nil {
		t.Fatalf("first Index() error = %v", err)
	}

	gone := filepath.Join(dir, "a.jpg")
	if err := os.Remove(gone); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	// updated_at has one-second resolution.
	time.Sleep(1100 * time.Millisecond)

	if err := idx.Index(ctx); err != nil {
		t.Fatalf("second Index() error = %v", err)
	}

	if _, err := db.GetAsset(ctx, IdentifierForPath(gone)); !errors.Is(err, assets.ErrNotFound) {
		t.Errorf("removed file still cataloged: err = %v", err)
	}
	if _, err := db.GetAsset(ctx, IdentifierForPath(filepath.Join(dir, "trips", "b.mp4"))); err != nil {
		t.Errorf("surviving file dropped: %v", err)
	}
	if _, err := db.GetAsset(ctx, "cloud-1"); err != nil {
		t.Errorf("cloud asset dropped: %v", err)
	}
	if got := idx.GetHealthStatus().AssetsRemoved; got != 1 {
		t.Errorf("AssetsRemoved = %d, want 1", got)
	}
}

func TestIndexCancelled(t *testing.T) {
	db := newTestDB(t)
	idx := New(db, newLibrary(t), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := idx.Index(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Index() error = %v, want context.Canceled", err)
	}
	if idx.IsIndexing() {
		t.Error("IsIndexing() = true after cancelled run")
	}
}

func TestStartTriggerStop(t *testing.T) {
	db := newTestDB(t)
	idx := New(db, newLibrary(t), time.Hour)

	completed := make(chan struct{}, 4)
	idx.SetOnIndexComplete(func() { completed <- struct{}{} })
	idx.Start()

	select {
	case <-completed:
	case <-time.After(10 * time.Second):
		t.Fatal("initial index did not complete")
	}
	if !idx.IsReady() {
		t.Error("IsReady() = false after initial index")
	}

	deadline := time.Now().Add(5 * time.Second)
	for !idx.TriggerIndex() {
		if time.Now().After(deadline) {
			t.Fatal("TriggerIndex() never accepted a run")
		}
		time.Sleep(10 * time.Millisecond)
	}
	select {
	case <-completed:
	case <-time.After(10 * time.Second):
		t.Fatal("triggered index did not complete")
	}

	idx.Stop()
	idx.Stop()
	if idx.TriggerIndex() {
		t.Error("TriggerIndex() accepted a run after Stop")
	}
}

func TestIdentifierForPathIsStable(t *testing.T) {
	a := IdentifierForPath("/library/a.jpg")
	if a != IdentifierForPath("/library/a.jpg") {
		t.Error("identifier changed between calls")
	}
	if a == IdentifierForPath("/library/b.jpg") {
		t.Error("different paths share an identifier")
	}
}
