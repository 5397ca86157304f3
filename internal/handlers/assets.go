package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"media-resolver/internal/assets"
	"media-resolver/internal/pipeline"
)

const (
	maxRequestBody   = 1 << 20
	maxBatchSize     = 100
	defaultPageSize  = 100
	maxPageSize      = 1000
	headerWidth      = "X-Asset-Width"
	headerHeight     = "X-Asset-Height"
	headerOrient     = "X-Asset-Orientation"
	headerIdentifier = "X-Asset-Identifier"
)

// RequestOptions overrides the configured processing defaults. Nil fields
// keep the default.
type RequestOptions struct {
	MaxWidth    *int  `json:"maxWidth,omitempty"`
	MaxHeight   *int  `json:"maxHeight,omitempty"`
	Quality     *int  `json:"quality,omitempty"`
	Normalize   *bool `json:"normalize,omitempty"`
	WriteOutput *bool `json:"writeOutput,omitempty"`
}

// ProcessRequest is the body of the metadata and blob endpoints.
type ProcessRequest struct {
	assets.Reference
	RequestOptions
}

// BatchRequest is the body of the batch endpoint.
type BatchRequest struct {
	References []assets.Reference `json:"references"`
	RequestOptions
}

// BatchItemResponse is one entry of a batch response, in request order.
type BatchItemResponse struct {
	Reference assets.Reference `json:"reference"`
	Result    *pipeline.Result `json:"result,omitempty"`
	Error     *ErrorResponse   `json:"error,omitempty"`
}

func (h *Handlers) options(o RequestOptions) pipeline.Options {
	opts := h.defaults
	if o.MaxWidth != nil {
		opts.MaxWidth = *o.MaxWidth
	}
	if o.MaxHeight != nil {
		opts.MaxHeight = *o.MaxHeight
	}
	if o.Quality != nil && *o.Quality >= 1 && *o.Quality <= 100 {
		opts.Quality = *o.Quality
	}
	if o.Normalize != nil {
		opts.Normalize = *o.Normalize
	}
	if o.WriteOutput != nil && !*o.WriteOutput {
		opts.OutputDir = ""
	}
	return opts
}

func emptyReference(ref assets.Reference) bool {
	return ref.URI == "" && (ref.Info == nil || *ref.Info == assets.PickerInfo{})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseProcessRequest reads a JSON body on POST, or query parameters on GET.
func parseProcessRequest(r *http.Request) (ProcessRequest, error) {
	var req ProcessRequest
	if r.Method == http.MethodPost {
		err := decodeBody(r, &req)
		return req, err
	}

	q := r.URL.Query()
	req.URI = q.Get("uri")
	if id := q.Get("identifier"); id != "" {
		req.Info = &assets.PickerInfo{AssetIdentifier: id}
	}
	for name, dst := range map[string]**int{
		"maxWidth":  &req.MaxWidth,
		"maxHeight": &req.MaxHeight,
		"quality":   &req.Quality,
	} {
		if raw := q.Get(name); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return req, fmt.Errorf("invalid %s: %q", name, raw)
			}
			*dst = &v
		}
	}
	for name, dst := range map[string]**bool{
		"normalize":   &req.Normalize,
		"writeOutput": &req.WriteOutput,
	} {
		if raw := q.Get(name); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return req, fmt.Errorf("invalid %s: %q", name, raw)
			}
			*dst = &v
		}
	}
	return req, nil
}

func (h *Handlers) process(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	req, err := parseProcessRequest(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if emptyReference(req.Reference) {
		writeJSONError(w, "a uri or picker info is required", http.StatusBadRequest)
		return nil, false
	}

	res, err := h.pipeline.Process(r.Context(), req.Reference, h.options(req.RequestOptions))
	if err != nil {
		writeProcessError(w, err)
		return nil, false
	}
	return res, true
}

// GetMetadata resolves a reference and returns its metadata record.
func (h *Handlers) GetMetadata(w http.ResponseWriter, r *http.Request) {
	res, ok := h.process(w, r)
	if !ok {
		return
	}
	writeJSONStatus(w, http.StatusOK, res)
}

// GetBlob resolves a reference and returns the output bytes. Metadata is
// carried in response headers.
func (h *Handlers) GetBlob(w http.ResponseWriter, r *http.Request) {
	res, ok := h.process(w, r)
	if !ok {
		return
	}

	md := res.Metadata
	data := res.Blob.Bytes()
	hdr := w.Header()
	hdr.Set("Content-Type", md.MimeType)
	hdr.Set("Content-Length", strconv.Itoa(len(data)))
	hdr.Set(headerWidth, strconv.Itoa(md.Width))
	hdr.Set(headerHeight, strconv.Itoa(md.Height))
	hdr.Set(headerOrient, strconv.Itoa(int(md.Orientation)))
	if md.Identifier != "" {
		hdr.Set(headerIdentifier, string(md.Identifier))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		log.Debug("blob write for %s interrupted: %v", md.URI, err)
	}
}

// ProcessBatch resolves several references concurrently. Per-reference
// failures are reported inline; the call itself succeeds.
func (h *Handlers) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.References) == 0 {
		writeJSONError(w, "references must not be empty", http.StatusBadRequest)
		return
	}
	if len(req.References) > maxBatchSize {
		writeJSONError(w, fmt.Sprintf("at most %d references per batch", maxBatchSize), http.StatusRequestEntityTooLarge)
		return
	}

	items := h.pipeline.ProcessBatch(r.Context(), req.References, h.options(req.RequestOptions))
	out := make([]BatchItemResponse, len(items))
	for i, item := range items {
		out[i] = BatchItemResponse{Reference: item.Reference, Result: item.Result}
		if item.Err != nil {
			e := ErrorResponse{Error: item.Err.Error()}
			var fe *assets.FetchError
			if errors.As(item.Err, &fe) {
				e.Reason = fe.Reason
			}
			out[i].Error = &e
		}
	}
	writeJSONStatus(w, http.StatusOK, map[string]any{"items": out})
}

// ListAssets pages through the catalog in identifier order.
func (h *Handlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxPageSize)
	}
	after := assets.Identifier(r.URL.Query().Get("after"))

	page, err := h.catalog.ListAssets(r.Context(), after, limit)
	if err != nil {
		log.Error("list assets: %v", err)
		writeJSONError(w, "failed to list assets", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{"items": page}
	if len(page) == limit {
		resp["next"] = page[len(page)-1].Identifier
	}
	writeJSONStatus(w, http.StatusOK, resp)
}

// GetAsset returns one catalog row.
func (h *Handlers) GetAsset(w http.ResponseWriter, r *http.Request) {
	id := assets.Identifier(mux.Vars(r)["id"])
	a, err := h.catalog.GetAsset(r.Context(), id)
	if err != nil {
		writeProcessError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, a)
}

// GetStats returns catalog counts.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.GetStats(r.Context())
	if err != nil {
		log.Error("stats: %v", err)
		writeJSONError(w, "failed to read stats", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]int{
		"localImages": stats.LocalImages,
		"cloudImages": stats.CloudImages,
		"localVideos": stats.LocalVideos,
		"cloudVideos": stats.CloudVideos,
		"localOther":  stats.LocalOther,
		"cloudOther":  stats.CloudOther,
		"total":       stats.Total(),
	})
}

// TriggerReindex starts a library re-index. It answers 409 while one runs.
func (h *Handlers) TriggerReindex(w http.ResponseWriter, _ *http.Request) {
	if !h.indexer.TriggerIndex() {
		writeJSONStatus(w, http.StatusConflict, map[string]string{"status": "already_running"})
		return
	}
	writeJSONStatus(w, http.StatusAccepted, map[string]string{"status": "started"})
}
