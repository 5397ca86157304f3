package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"media-resolver/internal/database"
	"media-resolver/internal/pipeline"
	"media-resolver/internal/testutil"
)

type env struct {
	databaseDir string
	cacheDir    string
	remoteDir   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	e := env{databaseDir: t.TempDir(), cacheDir: t.TempDir(), remoteDir: t.TempDir()}
	t.Setenv("CLOUD_BACKEND", "directory")
	t.Setenv("CLOUD_DIR", e.remoteDir)
	return e
}

// run executes one command and returns its stdout.
func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs(append([]string{"--database-dir", e.databaseDir, "--cache-dir", e.cacheDir}, args...))
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportResolveAndProcessCloudAsset(t *testing.T) {
	e := newEnv(t)
	photo := testutil.WithEXIFOrientation(t, testutil.EncodeJPEG(t, testutil.Gradient(320, 240)), 6)
	if err := os.WriteFile(filepath.Join(e.remoteDir, "photo.jpg"), photo, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	out, err := e.run(t, "import", "--cloud-key", "photo.jpg", "--id", "cloud-1")
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	var imported database.Asset
	if err := json.Unmarshal([]byte(out), &imported); err != nil {
		t.Fatalf("decode import output %q: %v", out, err)
	}
	if imported.URI != "cloud:photo.jpg" || imported.Filename != "photo.jpg" || imported.Kind != "image" {
		t.Errorf("imported = %+v", imported)
	}

	out, err = e.run(t, "resolve", "--id", "cloud-1", "cloud:photo.jpg")
	if err != nil {
		t.Fatalf("resolve error = %v (%s)", err, out)
	}
	if strings.Count(out, `"identifier":"cloud-1"`) != 2 {
		t.Errorf("resolve output = %s", out)
	}

	outDir := t.TempDir()
	out, err = e.run(t, "metadata", "--id", "cloud-1", "--max-width", "100", "--max-height", "100", "-o", outDir)
	if err != nil {
		t.Fatalf("metadata error = %v", err)
	}
	var res pipeline.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode metadata output %q: %v", out, err)
	}
	// 320x240 rotated upright is 240x320, fitted into 100x100.
	if res.Metadata.Width != 75 || res.Metadata.Height != 100 {
		t.Errorf("dimensions = %dx%d, want 75x100", res.Metadata.Width, res.Metadata.Height)
	}
	if res.OutputPath == "" || filepath.Dir(res.OutputPath) != outDir {
		t.Errorf("OutputPath = %q, want a file in %s", res.OutputPath, outDir)
	}

	out, err = e.run(t, "stats")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	var stats map[string]int
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats["total"] != 1 || stats["localImages"] != 1 {
		t.Errorf("stats after download = %v, want the asset cached locally", stats)
	}
}

func TestIndexAndBatchMetadata(t *testing.T) {
	e := newEnv(t)
	library := t.TempDir()
	for name, size := range map[string]int{"a.jpg": 40, "b.png": 20} {
		img := testutil.Gradient(size, size/2)
		data := testutil.EncodeJPEG(t, img)
		if strings.HasSuffix(name, ".png") {
			data = testutil.EncodePNG(t, img)
		}
		if err := os.WriteFile(filepath.Join(library, name), data, 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	if _, err := e.run(t, "index", library); err != nil {
		t.Fatalf("index error = %v", err)
	}

	out, err := e.run(t, "metadata", filepath.Join(library, "a.jpg"), filepath.Join(library, "missing.jpg"), filepath.Join(library, "b.png"))
	if err == nil {
		t.Fatal("metadata with a missing file succeeded")
	}
	var items []struct {
		Reference string           `json:"reference"`
		Result    *pipeline.Result `json:"result"`
		Error     string           `json:"error"`
	}
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode batch output %q: %v", out, err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	if items[0].Result == nil || items[0].Result.Metadata.Width != 40 {
		t.Errorf("a.jpg = %+v", items[0])
	}
	if items[1].Error == "" {
		t.Errorf("missing.jpg reported no error")
	}
	if items[2].Result == nil || items[2].Result.Metadata.MimeType != "image/png" {
		t.Errorf("b.png = %+v", items[2])
	}
}

func TestMetadataUncataloguedFileNeedsAllowDir(t *testing.T) {
	e := newEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "loose.png")
	if err := os.WriteFile(path, testutil.EncodePNG(t, testutil.Gradient(12, 9)), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := e.run(t, "metadata", path); err == nil {
		t.Error("metadata read an uncatalogued file without --allow-dir")
	}

	out, err := e.run(t, "--allow-dir", dir, "metadata", path)
	if err != nil {
		t.Fatalf("metadata --allow-dir error = %v", err)
	}
	var res pipeline.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Metadata.Width != 12 || res.Metadata.Height != 9 {
		t.Errorf("metadata = %+v", res.Metadata)
	}
}

func TestCommandErrors(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name string
		args []string
	}{
		{"resolve without references", []string{"resolve"}},
		{"metadata without references", []string{"metadata"}},
		{"import without key", []string{"import"}},
		{"import with bad kind", []string{"import", "--cloud-key", "x.jpg", "--kind", "audio"}},
		{"import with negative size", []string{"import", "--cloud-key", "x.jpg", "--size", "-1"}},
		{"import with absurd size", []string{"import", "--cloud-key", "x.jpg", "--size", "4611686018427387904"}},
		{"resolve unknown id", []string{"resolve", "--id", "nope"}},
		{"index without dir", []string{"index"}},
		{"unknown command", []string{"frobnicate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.run(t, tt.args...); err == nil {
				t.Errorf("%v succeeded, want an error", tt.args)
			}
		})
	}
}

func TestBadCloudBackend(t *testing.T) {
	e := newEnv(t)
	t.Setenv("CLOUD_BACKEND", "s3")
	t.Setenv("CLOUD_BUCKET", "")
	if _, err := e.run(t, "stats"); err == nil || !strings.Contains(err.Error(), "CLOUD_BUCKET") {
		t.Errorf("stats error = %v, want missing bucket", err)
	}
}
