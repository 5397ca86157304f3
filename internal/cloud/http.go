package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"media-resolver/internal/assets"
	"media-resolver/internal/logging"
)

// HTTPDownloader downloads asset originals from an HTTP object store, one
// GET per object at BaseURL/<key>.
type HTTPDownloader struct {
	baseURL *url.URL
	client  *http.Client
}

// NewHTTPDownloader creates a downloader for baseURL. A nil client uses a
// client without an overall timeout; the request context bounds transfers.
func NewHTTPDownloader(baseURL string, client *http.Client) (*HTTPDownloader, error) {
	if baseURL == "" {
		return nil, errors.New("http backend requires a base URL")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https, got %q", u.Scheme)
	}

	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConnsPerHost:   8,
			},
		}
	}

	logging.Info("Cloud backend: %s", u.Redacted())
	return &HTTPDownloader{baseURL: u, client: client}, nil
}

func (d *HTTPDownloader) Name() string {
	return BackendHTTP
}

func (d *HTTPDownloader) objectURL(key string) string {
	segments := strings.Split(strings.TrimPrefix(key, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimSuffix(d.baseURL.String(), "/") + "/" + strings.Join(segments, "/")
}

func (d *HTTPDownloader) Download(ctx context.Context, key string, w io.Writer, onProgress assets.ProgressFunc) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.objectURL(key), nil)
	if err != nil {
		return 0, fmt.Errorf("build request for %s: %w", key, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logging.Warn("failed to close response body for %s: %v", key, cerr)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return 0, fmt.Errorf("get %s: %w", key, assets.ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return 0, fmt.Errorf("get %s: %s: %w", key, resp.Status, assets.ErrPermission)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return 0, fmt.Errorf("get %s: unexpected status %s", key, resp.Status)
	}

	return copyWithProgress(ctx, w, resp.Body, resp.ContentLength, d.Name(), onProgress)
}
