package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp["error"]
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		msg    string
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "alpha out of range") }, http.StatusBadRequest, "alpha out of range"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "comparison not found") }, http.StatusNotFound, "comparison not found"},
		{"conflict", func(w http.ResponseWriter) { Conflict(w, "live session already active") }, http.StatusConflict, "live session already active"},
		{"unavailable", func(w http.ResponseWriter) { ServiceUnavailable(w, "no camera") }, http.StatusServiceUnavailable, "no camera"},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, "boom") }, http.StatusInternalServerError, "boom"},
		{"method", MethodNotAllowed, http.StatusMethodNotAllowed, "method not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type = %s, want application/json", ct)
			}
			if got := decodeError(t, rec); got != tt.msg {
				t.Errorf("error = %q, want %q", got, tt.msg)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]float64{"speed": 2.5})
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	var resp map[string]float64
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["speed"] != 2.5 {
		t.Errorf("speed = %v, want 2.5", resp["speed"])
	}

	rec = httptest.NewRecorder()
	WriteJSONOK(rec, []int{})
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("WriteJSONOK = %d %q", rec.Code, rec.Body.String())
	}
}

func TestWriteBytes(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteBytes(rec, "image/png", []byte{0x89, 'P', 'N', 'G'})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content-type = %s, want image/png", ct)
	}
	if rec.Body.Len() != 4 {
		t.Errorf("body length = %d, want 4", rec.Body.Len())
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type body struct {
		Path   string `json:"path"`
		Points int    `json:"points"`
	}

	tests := []struct {
		name    string
		in      string
		want    body
		wantErr bool
	}{
		{"valid", `{"path":"kick.jsonl","points":50}`, body{"kick.jsonl", 50}, false},
		{"empty", ``, body{}, false},
		{"unknown field", `{"path":"a","colour":"red"}`, body{}, true},
		{"malformed", `{"path":`, body{}, true},
		{"trailing", `{"path":"a"} {"path":"b"}`, body{}, true},
		{"too large", `{"path":"` + strings.Repeat("x", 100) + `"}`, body{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/file", strings.NewReader(tt.in))
			var got body
			err := DecodeJSON(req, &got, 64)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("DecodeJSON = %+v, want %+v", got, tt.want)
			}
		})
	}
}
