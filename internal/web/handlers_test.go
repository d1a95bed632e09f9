package web

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FadliGr1/abd-to-csv/internal/config"
	"github.com/FadliGr1/abd-to-csv/internal/core"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			RequestTimeout: 60 * time.Second,
		},
		Convert: config.ConvertConfig{
			MaxFileSize:   10 << 20,
			MaxFiles:      5,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       30 * time.Second,
		},
		Security: config.SecurityConfig{EnableCSP: true},
	}

	service := core.NewService(core.ServiceConfig{
		MaxConcurrent: cfg.Convert.MaxConcurrent,
		MaxWait:       cfg.Convert.MaxWaitTime,
		Timeout:       cfg.Convert.Timeout,
	})

	return NewServer(cfg, service, nil)
}

// multipartBody builds a multipart request body with files under the given
// form field.
func multipartBody(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("CreateFormFile(%q) error: %v", name, err)
		}
		io.WriteString(fw, content)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

const testKML = `<kml><Document><Placemark><ExtendedData>` +
	`<SimpleData name="HOMEPASS_ID">HP-1</SimpleData>` +
	`<SimpleData name="CLUSTER_NAME">North</SimpleData>` +
	`</ExtendedData></Placemark></Document></kml>`

func TestHandleConvert_FullFlow(t *testing.T) {
	s := testServer(t)

	body, contentType := multipartBody(t, "files", map[string]string{"site.kml": testKML})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("convert status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var started map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatalf("unmarshal convert response: %v", err)
	}
	batchID := started["batch_id"]
	if batchID == "" {
		t.Fatal("convert response missing batch_id")
	}

	// Result endpoint blocks until the batch finishes
	req = httptest.NewRequest(http.MethodGet, "/api/convert/"+batchID+"/result", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d, want %d", rec.Code, http.StatusOK)
	}

	var result batchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("result.Error = %q, want empty", result.Error)
	}
	if len(result.Documents) != 1 {
		t.Fatalf("len(Documents) = %d, want 1", len(result.Documents))
	}
	if got := result.Documents[0].FileName; got != "site.csv" {
		t.Errorf("FileName = %q, want %q", got, "site.csv")
	}
	if result.TotalRows != 1 {
		t.Errorf("TotalRows = %d, want 1", result.TotalRows)
	}

	// Download the document
	req = httptest.NewRequest(http.MethodGet, result.Documents[0].DownloadURL, nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="site.csv"`) {
		t.Errorf("Content-Disposition = %q, want site.csv attachment", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "HOMEPASS_ID,") {
		t.Errorf("download body does not start with schema header: %q", rec.Body.String())
	}
}

func TestHandleConvert_NoFile(t *testing.T) {
	s := testServer(t)

	body, contentType := multipartBody(t, "files", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	if errResp.Code != "FILE001" {
		t.Errorf("Code = %q, want FILE001", errResp.Code)
	}
}

func TestHandleConvert_TooManyFiles(t *testing.T) {
	s := testServer(t)

	files := make(map[string]string)
	for _, name := range []string{"a.kml", "b.kml", "c.kml", "d.kml", "e.kml", "f.kml"} {
		files[name] = testKML
	}
	body, contentType := multipartBody(t, "files", files)
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var errResp ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &errResp)
	if errResp.Code != "FILE004" {
		t.Errorf("Code = %q, want FILE004", errResp.Code)
	}
}

func TestHandleConvert_UnsupportedFormatFailsBatch(t *testing.T) {
	s := testServer(t)

	body, contentType := multipartBody(t, "files", map[string]string{
		"good.kml": testKML,
		"bad.txt":  "not a kml",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("convert status = %d, want %d", rec.Code, http.StatusOK)
	}
	var started map[string]string
	json.Unmarshal(rec.Body.Bytes(), &started)

	req = httptest.NewRequest(http.MethodGet, "/api/convert/"+started["batch_id"]+"/result", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var result batchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.Error == "" {
		t.Fatal("result.Error is empty, want unsupported format failure")
	}
	// All-or-nothing: the good document is discarded too
	if len(result.Documents) != 0 {
		t.Errorf("len(Documents) = %d, want 0 after failed batch", len(result.Documents))
	}
}

func TestHandleConvertStatus(t *testing.T) {
	s := testServer(t)

	body, contentType := multipartBody(t, "files", map[string]string{"site.kml": testKML})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var started map[string]string
	json.Unmarshal(rec.Body.Bytes(), &started)
	batchID := started["batch_id"]

	// Wait for completion so the snapshot is deterministic
	req = httptest.NewRequest(http.MethodGet, "/api/convert/"+batchID+"/result", nil)
	s.Router().ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/convert/"+batchID+"/status", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d, want %d", rec.Code, http.StatusOK)
	}

	var progress core.ConversionProgress
	if err := json.Unmarshal(rec.Body.Bytes(), &progress); err != nil {
		t.Fatalf("unmarshal progress: %v", err)
	}
	if progress.Phase != core.PhaseComplete {
		t.Errorf("Phase = %q, want %q", progress.Phase, core.PhaseComplete)
	}
	if progress.BatchID != batchID {
		t.Errorf("BatchID = %q, want %q", progress.BatchID, batchID)
	}
}

func TestHandleConvertStatus_UnknownBatch(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/convert/no-such-batch/status", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleCancelConvert_UnknownBatch(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/convert/no-such-batch/cancel", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	var errResp ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &errResp)
	if errResp.Code != "CNV001" {
		t.Errorf("Code = %q, want CNV001", errResp.Code)
	}
}

func TestHandleQueueStatus(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/queue", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var status core.LimiterStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if status.MaxConcurrent != 2 {
		t.Errorf("MaxConcurrent = %d, want 2", status.MaxConcurrent)
	}
}

func TestHandleHistory_Disabled(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal history response: %v", err)
	}
	if resp.Enabled {
		t.Error("Enabled = true, want false without a database")
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/queue", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	}
	for name, want := range headers {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if csp := rec.Header().Get("Content-Security-Policy"); csp == "" {
		t.Error("Content-Security-Policy header missing")
	}
}
