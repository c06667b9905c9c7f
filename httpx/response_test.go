package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, http.StatusUnprocessableEntity, "validation", map[string]string{"date": "required"})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "validation" || body.Details["date"] != "required" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestJSON_Nil(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, nil)
	if rec.Body.String() != "null" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestWantsJSON(t *testing.T) {
	tests := []struct {
		accept string
		want   bool
	}{
		{"application/json", true},
		{"application/json, text/plain", true},
		{"text/html,application/xhtml+xml", false},
		{"text/html, application/json", false},
		{"", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", tt.accept)
		if got := WantsJSON(r); got != tt.want {
			t.Errorf("WantsJSON(%q) = %v, want %v", tt.accept, got, tt.want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
	var dst struct {
		Name string `json:"name"`
	}
	if err := DecodeJSON(r, &dst); err != nil {
		t.Fatal(err)
	}
	if dst.Name != "x" {
		t.Fatalf("name = %q", dst.Name)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	if err := DecodeJSON(r, &dst); err == nil {
		t.Fatal("expected error for truncated body")
	}
}
