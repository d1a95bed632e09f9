package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/FadliGr1/abd-to-csv/internal/core"
	"github.com/go-chi/chi/v5"
)

// handleIndex serves the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, staticFiles, "static/index.html")
}

// handleConvert accepts one or more KML/KMZ files as multipart form data and
// starts an asynchronous batch conversion. The response carries the batch ID;
// clients follow up via the progress and result endpoints.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Convert.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondError(w, r, fmt.Errorf("file too large or invalid form: %w", err), http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		// Accept single-file clients that post under "file"
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		s.respondError(w, r, errors.New("no file provided"), http.StatusBadRequest)
		return
	}
	if len(headers) > s.cfg.Convert.MaxFiles {
		s.respondError(w, r, fmt.Errorf("too many files: %d (limit %d)", len(headers), s.cfg.Convert.MaxFiles), http.StatusBadRequest)
		return
	}

	files := make([]core.InputFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxSize {
			s.respondError(w, r, fmt.Errorf("file too large: %s", fh.Filename), http.StatusRequestEntityTooLarge)
			return
		}

		f, err := fh.Open()
		if err != nil {
			s.respondError(w, r, &core.IOError{FileName: fh.Filename, Err: err}, http.StatusBadRequest)
			return
		}

		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.respondError(w, r, &core.IOError{FileName: fh.Filename, Err: err}, http.StatusBadRequest)
			return
		}

		files = append(files, core.InputFile{Name: fh.Filename, Data: data})
	}

	// Attach request metadata for the optional history record
	ctx := core.ContextWithIPAddress(r.Context(), r.RemoteAddr)
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())

	batchID, err := s.service.StartConversion(ctx, files)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, core.ErrTooManyConversions) {
			status = http.StatusServiceUnavailable
		}
		s.respondError(w, r, err, status)
		return
	}

	writeJSON(w, map[string]string{"batch_id": batchID})
}

// handleConvertProgress streams batch progress via Server-Sent Events.
// Supports resumption via lastEventId query parameter for reconnection.
func (s *Server) handleConvertProgress(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	if batchID == "" {
		s.respondError(w, r, errors.New("batch not found: missing batch ID"), http.StatusBadRequest)
		return
	}

	// Support resumption from last event ID
	// The event ID is the progress percentage, allowing clients to skip
	// already-received events after reconnection
	lastEventIDStr := r.URL.Query().Get("lastEventId")
	var lastEventID int
	if lastEventIDStr != "" {
		lastEventID, _ = strconv.Atoi(lastEventIDStr)
	}

	progressCh, err := s.service.SubscribeProgress(batchID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New("streaming not supported"), http.StatusInternalServerError)
		return
	}

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				// Channel closed - batch complete or cancelled
				fmt.Fprintf(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}

			currentPercent := progress.Percent()

			// Skip events that were already sent (for resumption)
			if lastEventIDStr != "" && currentPercent <= lastEventID {
				continue
			}

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", currentPercent, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleConvertStatus returns a one-shot progress snapshot without blocking.
// Clients that cannot hold an SSE connection open can poll this instead.
func (s *Server) handleConvertStatus(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	if batchID == "" {
		s.respondError(w, r, errors.New("batch not found: missing batch ID"), http.StatusBadRequest)
		return
	}

	progress, err := s.service.GetBatchProgress(batchID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	writeJSON(w, progress)
}

// documentInfo describes one converted document in the result response.
type documentInfo struct {
	DocName     string `json:"doc_name"`
	SourceFile  string `json:"source_file"`
	RowCount    int    `json:"row_count"`
	FileName    string `json:"file_name"`
	DownloadURL string `json:"download_url"`
}

// batchResponse is the JSON body for the result endpoint.
type batchResponse struct {
	BatchID    string         `json:"batch_id"`
	FileNames  []string       `json:"file_names"`
	Documents  []documentInfo `json:"documents"`
	TotalRows  int            `json:"total_rows"`
	DurationMs int64          `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
}

func toBatchResponse(result *core.BatchResult) batchResponse {
	resp := batchResponse{
		BatchID:    result.BatchID,
		FileNames:  result.FileNames,
		Documents:  make([]documentInfo, 0, len(result.Results)),
		TotalRows:  result.TotalRows,
		DurationMs: result.Duration.Milliseconds(),
		Error:      result.Error,
	}
	for i, doc := range result.Results {
		resp.Documents = append(resp.Documents, documentInfo{
			DocName:     doc.DocName,
			SourceFile:  doc.SourceFile,
			RowCount:    doc.RowCount,
			FileName:    doc.CSVFileName(),
			DownloadURL: fmt.Sprintf("/api/convert/%s/download/%d", result.BatchID, i),
		})
	}
	return resp
}

// handleConvertResult returns the final result of a batch. Blocks until the
// batch finishes, so clients may call it right after the SSE stream ends.
func (s *Server) handleConvertResult(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	if batchID == "" {
		s.respondError(w, r, errors.New("batch not found: missing batch ID"), http.StatusBadRequest)
		return
	}

	result, err := s.service.GetBatchResult(batchID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	writeJSON(w, toBatchResponse(result))
}

// handleDownload streams one converted document's CSV payload.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	if batchID == "" {
		s.respondError(w, r, errors.New("batch not found: missing batch ID"), http.StatusBadRequest)
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("document index out of range: %q", chi.URLParam(r, "index")), http.StatusBadRequest)
		return
	}

	doc, err := s.service.GetDocument(batchID, index)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.CSVFileName()))
	w.Write(doc.CSV)
}

// handleCancelConvert cancels an in-progress batch.
func (s *Server) handleCancelConvert(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	if batchID == "" {
		s.respondError(w, r, errors.New("batch not found: missing batch ID"), http.StatusBadRequest)
		return
	}

	if err := s.service.CancelConversion(batchID); err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"cancelled"}`))
}

// handleQueueStatus reports how many conversion slots are in use.
func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.LimiterStatus())
}

// handleHistory returns recent conversion batches. Only available when a
// database is configured; otherwise reports history as disabled.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, map[string]any{"enabled": false, "entries": []any{}})
		return
	}

	entries, err := s.history.Recent(r.Context(), s.cfg.History.RecentLimit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"enabled": true, "entries": entries})
}
