package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"visiongraph/internal/llm"
)

func doRequest(t *testing.T, opts Options, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	app := NewApp(opts)

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var decoded map[string]interface{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp.StatusCode, decoded
}

func sampleDetections() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"suser":           "alice",
			"parentFilePath":  `C:\Win\explorer.exe`,
			"processFilePath": `C:\Win\cmd.exe`,
			"objectFilePath":  `C:\tmp\a.txt`,
			"eventTime":       "2026-03-10T10:00:00Z",
		},
	}
}

func TestHealthRoute(t *testing.T) {
	status, body := doRequest(t, Options{}, "GET", "/", nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestProcessGraphFromInlineDetections(t *testing.T) {
	status, body := doRequest(t, Options{}, "POST", "/api/graph/process", map[string]interface{}{
		"detections": sampleDetections(),
		"active":     true,
	})
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["graph"] == nil {
		t.Fatalf("expected a graph, got %+v", body)
	}
	mermaid, _ := body["mermaid"].(string)
	if mermaid == "" {
		t.Fatalf("expected mermaid text")
	}
	for _, want := range []string{"flowchart", "alice", "cmd.exe", "-->"} {
		if !bytes.Contains([]byte(mermaid), []byte(want)) {
			t.Fatalf("mermaid output missing %q:\n%s", want, mermaid)
		}
	}
}

func TestProcessGraphInactiveReturnsNull(t *testing.T) {
	status, body := doRequest(t, Options{}, "POST", "/api/graph/process", map[string]interface{}{
		"detections": sampleDetections(),
		"active":     false,
	})
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["graph"] != nil {
		t.Fatalf("expected null graph, got %+v", body["graph"])
	}
	if _, ok := body["render_error"]; ok {
		t.Fatalf("no-graph must not look like a render failure")
	}
}

func TestGraphWithoutDetectionsOrClient(t *testing.T) {
	status, _ := doRequest(t, Options{}, "POST", "/api/graph/process", map[string]interface{}{
		"active": true,
	})
	if status != 502 {
		t.Fatalf("expected 502 when no source is available, got %d", status)
	}
}

func TestSearchHistogram(t *testing.T) {
	status, body := doRequest(t, Options{}, "POST", "/api/search", map[string]interface{}{
		"detections": sampleDetections(),
	})
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["count"].(float64) != 1 {
		t.Fatalf("unexpected count: %+v", body["count"])
	}
	hist, ok := body["histogram"].([]interface{})
	if !ok || len(hist) != 1 {
		t.Fatalf("expected one histogram bucket, got %+v", body["histogram"])
	}
}

func TestAnalyzeWithoutRunner(t *testing.T) {
	status, _ := doRequest(t, Options{}, "POST", "/api/analyze", map[string]interface{}{
		"detections": sampleDetections(),
	})
	if status != 503 {
		t.Fatalf("expected 503 without a runner, got %d", status)
	}
}

func TestAnalyzeWithRunner(t *testing.T) {
	opts := Options{
		Runner: llm.NewRunner(llm.Config{Command: "echo", Model: "m", Timeout: 5 * time.Second}),
	}
	status, body := doRequest(t, opts, "POST", "/api/analyze", map[string]interface{}{
		"detections": sampleDetections(),
	})
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["id"] == "" || body["id"] == nil {
		t.Fatalf("expected a request id, got %+v", body)
	}
	result, ok := body["result"].(map[string]interface{})
	if !ok || result["success"] != true {
		t.Fatalf("unexpected result: %+v", body["result"])
	}
}
