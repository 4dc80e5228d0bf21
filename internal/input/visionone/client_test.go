package visionone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSearchDetections(t *testing.T) {
	var gotAuth, gotFilter, gotTop string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3.0/search/detections" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotFilter = r.Header.Get("TMV1-Query")
		gotTop = r.URL.Query().Get("top")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"uuid": "d-1", "processName": "cmd.exe", "eventTime": "2026-03-10T10:00:00Z"},
				{"uuid": "d-2", "dst": "10.0.0.1"},
			},
		})
	}))
	defer srv.Close()

	c, err := NewClient(Config{Endpoint: srv.URL, Token: "secret", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dets, err := c.SearchDetections(context.Background(), Query{Filter: "act:block", Top: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dets) != 2 {
		t.Fatalf("expected 2 detections, got %d", len(dets))
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotFilter != "act:block" {
		t.Fatalf("unexpected filter header: %q", gotFilter)
	}
	if gotTop != "50" {
		t.Fatalf("unexpected top param: %q", gotTop)
	}
	if dets[0].UUID != "d-1" || dets[0].Field("processName") != "cmd.exe" {
		t.Fatalf("unexpected first detection: %+v", dets[0])
	}
	if dets[0].EventTime.IsZero() {
		t.Fatalf("expected parsed event time")
	}
}

func TestSearchDetectionsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := NewClient(Config{Endpoint: srv.URL, Token: "bad"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.SearchDetections(context.Background(), Query{}); err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{Region: "nowhere", Token: "x"}); err == nil {
		t.Fatalf("expected error for unknown region")
	}
	if _, err := NewClient(Config{Region: "us"}); err == nil {
		t.Fatalf("expected error for missing token")
	}
	if _, err := NewClient(Config{Region: "eu", Token: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
