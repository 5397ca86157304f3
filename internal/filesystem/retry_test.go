package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bare ESTALE", syscall.ESTALE, true},
		{"wrapped ESTALE", &os.PathError{Op: "open", Path: "/library/a.jpg", Err: syscall.ESTALE}, true},
		{"ENOENT", syscall.ENOENT, false},
		{"not exist", os.ErrNotExist, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVolumeResolver(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"library":  "/library",
		"cache":    "/cache",
		"database": "/database",
		"output":   "/cache/resized",
	})

	tests := []struct {
		path string
		want string
	}{
		{"/library", "library"},
		{"/library/2024/IMG_0001.HEIC", "library"},
		{"/cache/downloads/6f1c/IMG_0002.JPG", "cache"},
		{"/cache/resized/a.jpg", "output"},
		{"/cache/resizedish/a.jpg", "cache"},
		{"/database/catalog.db-wal", "database"},
		{"/libraryx/a.jpg", "unknown"},
		{"/", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := vr.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}

	var nilResolver *VolumeResolver
	if got := nilResolver.Resolve("/library/a.jpg"); got != "unknown" {
		t.Errorf("nil resolver = %q, want unknown", got)
	}
}

func TestRetryConfigVolume(t *testing.T) {
	original := defaultResolver
	t.Cleanup(func() { defaultResolver = original })
	SetDefaultVolumeResolver(NewVolumeResolver(map[string]string{"library": "/library"}))

	config := DefaultRetryConfig()
	if got := config.resolveVolume("/library/a.jpg"); got != "library" {
		t.Errorf("default resolver volume = %q, want library", got)
	}

	config.VolumeResolver = NewVolumeResolver(map[string]string{"imports": "/library"})
	if got := config.resolveVolume("/library/a.jpg"); got != "imports" {
		t.Errorf("config resolver volume = %q, want imports", got)
	}
}

type retryEvent struct {
	op      string
	stale   int
	outcome string
}

type recordingObserver struct {
	mu         sync.Mutex
	operations []string
	retries    []retryEvent
}

func (r *recordingObserver) ObserveOperation(volume, operation string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operations = append(r.operations, fmt.Sprintf("%s/%s/%v", volume, operation, err != nil))
}

func (r *recordingObserver) ObserveRetry(_, operation string, staleErrors int, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries = append(r.retries, retryEvent{operation, staleErrors, outcome})
}

func withObserver(t *testing.T) *recordingObserver {
	t.Helper()
	obs := &recordingObserver{}
	SetObserver(obs)
	t.Cleanup(func() { SetObserver(nil) })
	return obs
}

func TestWithRetry(t *testing.T) {
	stale := &os.PathError{Op: "open", Path: "/library/a.jpg", Err: syscall.ESTALE}

	tests := []struct {
		name      string
		failures  int
		failWith  error
		wantCalls int
		wantErr   error
		wantRetry []retryEvent
	}{
		{"first try", 0, nil, 1, nil, nil},
		{"recovers", 2, stale, 3, nil, []retryEvent{{"open", 2, RetryRecovered}}},
		{"gives up", 10, stale, 4, syscall.ESTALE, []retryEvent{{"open", 4, RetryExhausted}}},
		{"other error not retried", 10, os.ErrPermission, 1, os.ErrPermission, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := withObserver(t)
			calls := 0
			got, err := withRetry("open", "/library/a.jpg", fastRetry(), func() (string, error) {
				calls++
				if calls <= tt.failures {
					return "", tt.failWith
				}
				return "ok", nil
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("withRetry() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil || got != "ok" {
				t.Errorf("withRetry() = %q, %v", got, err)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if fmt.Sprint(obs.retries) != fmt.Sprint(tt.wantRetry) {
				t.Errorf("retries = %v, want %v", obs.retries, tt.wantRetry)
			}
		})
	}
}

func TestStatAndOpenWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "IMG_0001.JPG")
	if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := StatWithRetry(path, fastRetry())
	if err != nil || info.Size() != 4 {
		t.Errorf("StatWithRetry() = %v, %v", info, err)
	}

	f, err := OpenWithRetry(path, fastRetry())
	if err != nil {
		t.Fatalf("OpenWithRetry() error = %v", err)
	}
	f.Close()

	missing := filepath.Join(dir, "missing.jpg")
	if _, err := StatWithRetry(missing, fastRetry()); !os.IsNotExist(err) {
		t.Errorf("StatWithRetry(missing) error = %v", err)
	}
	if _, err := OpenWithRetry(missing, fastRetry()); !os.IsNotExist(err) {
		t.Errorf("OpenWithRetry(missing) error = %v", err)
	}
}

func TestReadFileWithRetry(t *testing.T) {
	obs := withObserver(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	config := fastRetry()
	config.VolumeResolver = NewVolumeResolver(map[string]string{"cache": dir})

	data, err := ReadFileWithRetry(path, config)
	if err != nil || string(data) != "payload" {
		t.Fatalf("ReadFileWithRetry() = %q, %v", data, err)
	}
	if _, err := ReadFileWithRetry(filepath.Join(dir, "missing"), config); !os.IsNotExist(err) {
		t.Errorf("ReadFileWithRetry(missing) error = %v", err)
	}

	want := []string{"cache/read/false", "cache/read/true"}
	if fmt.Sprint(obs.operations) != fmt.Sprint(want) {
		t.Errorf("operations = %v, want %v", obs.operations, want)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "downloads", "abc", "IMG_0002.JPG")

	n, err := WriteFileAtomic(path, strings.NewReader("hello"), DefaultRetryConfig())
	if err != nil || n != 5 {
		t.Fatalf("WriteFileAtomic() = %d, %v", n, err)
	}
	if got, err := os.ReadFile(path); err != nil || string(got) != "hello" {
		t.Errorf("file contents = %q, %v", got, err)
	}
	if entries, _ := os.ReadDir(filepath.Dir(path)); len(entries) != 1 {
		t.Errorf("expected only the final file, found %d entries", len(entries))
	}

	failed := filepath.Join(dir, "failed.jpg")
	if _, err := WriteFileAtomic(failed, failingReader{}, DefaultRetryConfig()); err == nil {
		t.Fatal("WriteFileAtomic(failing reader) error = nil")
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*failed*"))
	if len(matches) != 0 {
		t.Errorf("failed write left %v behind", matches)
	}
}
