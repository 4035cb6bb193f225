package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"zigbee-endpoint/internal/device"
	"zigbee-endpoint/internal/link"
	"zigbee-endpoint/internal/zcl"
	"zigbee-endpoint/internal/zcl/clusters"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupTestServer(t *testing.T, opts ...ServerOption) (*Server, *link.Dispatcher) {
	t.Helper()
	c := device.NewCluster(0x0402, "Temperature Measurement")
	temp := device.NewAttribute(0x0000, zcl.TypeInt16, 2150)
	temp.SetReportable(true)
	if err := c.AddAttribute(temp); err != nil {
		t.Fatal(err)
	}
	if err := c.AddAttribute(device.NewStringAttribute(0x0010, zcl.TypeCharStr, "kitchen")); err != nil {
		t.Fatal(err)
	}
	d := device.NewDevice(1, device.WithDeviceID(0x0302))
	d.AddInCluster(c)
	d.AddOutCluster(device.NewCluster(0x0003, "Identify"))

	disp := link.NewDispatcher(d, 0)
	srv := NewServer(disp, testLogger(), opts...)
	t.Cleanup(srv.Stop)
	return srv, disp
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestAPIEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t)

	w := doRequest(t, srv, "GET", "/api/endpoint", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var snap device.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Endpoint != 1 || snap.DeviceID != 0x0302 {
		t.Errorf("endpoint = %d device_id = 0x%04X", snap.Endpoint, snap.DeviceID)
	}
	if len(snap.InClusters) != 1 || len(snap.OutClusters) != 1 {
		t.Fatalf("clusters in=%d out=%d", len(snap.InClusters), len(snap.OutClusters))
	}
	if n := len(snap.InClusters[0].Attributes); n != 2 {
		t.Errorf("attribute count = %d, want 2", n)
	}
}

func TestAPICluster(t *testing.T) {
	srv, _ := setupTestServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/endpoint/clusters/0x0402", http.StatusOK},
		{"/api/endpoint/clusters/1026", http.StatusOK},
		{"/api/endpoint/clusters/0x0006", http.StatusNotFound},
		{"/api/endpoint/clusters/xyz", http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := doRequest(t, srv, "GET", tt.path, "")
		if w.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.path, w.Code, tt.want)
		}
	}
}

func TestAPISetAttribute(t *testing.T) {
	srv, disp := setupTestServer(t)

	w := doRequest(t, srv, "PUT", "/api/endpoint/clusters/0x0402/attributes/0", `{"value": -150}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["value"] != float64(-150) {
		t.Errorf("value = %v, want -150", resp["value"])
	}

	var got uint16
	disp.View(func(d *device.Device) {
		got = d.InCluster(0x0402).Attribute(0x0000).Uint16()
	})
	if int16(got) != -150 {
		t.Errorf("stored = %d, want -150", int16(got))
	}

	w = doRequest(t, srv, "PUT", "/api/endpoint/clusters/0x0402/attributes/0x0010", `{"value": "hall"}`)
	if w.Code != http.StatusOK {
		t.Errorf("string set: status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestAPISetAttributeErrors(t *testing.T) {
	srv, _ := setupTestServer(t)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown attribute", "/api/endpoint/clusters/0x0402/attributes/0x0099", `{"value": 1}`, http.StatusNotFound},
		{"unknown cluster", "/api/endpoint/clusters/0x0006/attributes/0", `{"value": 1}`, http.StatusNotFound},
		{"bad cluster id", "/api/endpoint/clusters/zz/attributes/0", `{"value": 1}`, http.StatusBadRequest},
		{"bad body", "/api/endpoint/clusters/0x0402/attributes/0", `{`, http.StatusBadRequest},
		{"wrong type", "/api/endpoint/clusters/0x0402/attributes/0x0010", `{"value": 5}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, srv, "PUT", tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAPIFrame(t *testing.T) {
	srv, _ := setupTestServer(t)

	// Read Attributes of MeasuredValue.
	w := doRequest(t, srv, "POST", "/api/endpoint/frame", `{"cluster_id": 1026, "frame": "0001000000"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp frameResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response != "180101000000296608" {
		t.Errorf("response = %s", resp.Response)
	}
	if resp.Error != "" {
		t.Errorf("error = %s", resp.Error)
	}
}

func TestAPIFrameDefaultResponse(t *testing.T) {
	srv, _ := setupTestServer(t)

	w := doRequest(t, srv, "POST", "/api/endpoint/frame", `{"cluster_id": 1026, "frame": "000702"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp frameResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response != "18070b0282" {
		t.Errorf("response = %s, want 18070b0282", resp.Response)
	}
	if resp.Error == "" {
		t.Error("expected error text")
	}
}

func TestAPIFrameBadHex(t *testing.T) {
	srv, _ := setupTestServer(t)
	w := doRequest(t, srv, "POST", "/api/endpoint/frame", `{"cluster_id": 1026, "frame": "zz"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAPIPending(t *testing.T) {
	srv, _ := setupTestServer(t)

	w := doRequest(t, srv, "GET", "/api/endpoint/pending", "")
	var views []pendingView
	if err := json.NewDecoder(w.Body).Decode(&views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 0 {
		t.Fatalf("pending before configure = %d, want 0", len(views))
	}

	// Configure Reporting min=1 max=60 change=5 on MeasuredValue, then change the value.
	doRequest(t, srv, "POST", "/api/endpoint/frame", `{"cluster_id": 1026, "frame": "0002060000002901003c000500"}`)
	doRequest(t, srv, "PUT", "/api/endpoint/clusters/0x0402/attributes/0", `{"value": 2300}`)

	w = doRequest(t, srv, "GET", "/api/endpoint/pending", "")
	views = nil
	if err := json.NewDecoder(w.Body).Decode(&views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 {
		t.Fatalf("pending = %d, want 1", len(views))
	}
	if views[0].ClusterID != 0x0402 || views[0].AttrID != 0 || views[0].Reporting.MaxInterval != 60 {
		t.Errorf("pending = %+v", views[0])
	}
}

func TestAPIKeyAuth(t *testing.T) {
	srv, _ := setupTestServer(t, WithAPIKey("secret"))

	w := doRequest(t, srv, "GET", "/api/endpoint", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("without key: status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest("GET", "/api/endpoint", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("with key: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestCORSRejectsForeignOrigin(t *testing.T) {
	srv, _ := setupTestServer(t, WithAllowedOrigins([]string{"http://localhost:8080"}))

	req := httptest.NewRequest("POST", "/api/endpoint/frame", bytes.NewBufferString(`{}`))
	req.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}

	req = httptest.NewRequest("OPTIONS", "/api/endpoint/frame", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestAPIListClusters(t *testing.T) {
	srv, _ := setupTestServer(t)
	if w := doRequest(t, srv, "GET", "/api/clusters", ""); w.Code != http.StatusNotFound {
		t.Errorf("without registry: status = %d, want %d", w.Code, http.StatusNotFound)
	}

	reg := zcl.NewRegistry(testLogger())
	clusters.RegisterStandard(reg)
	srv, _ = setupTestServer(t, WithRegistry(reg))
	w := doRequest(t, srv, "GET", "/api/clusters", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var defs []zcl.ClusterDef
	if err := json.NewDecoder(w.Body).Decode(&defs); err != nil {
		t.Fatal(err)
	}
	if len(defs) == 0 {
		t.Error("expected cluster definitions")
	}
}

func TestAPIVersion(t *testing.T) {
	srv, _ := setupTestServer(t, WithVersion("1.2.3"))
	w := doRequest(t, srv, "GET", "/api/version", "")
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["version"] != "1.2.3" {
		t.Errorf("version = %q", resp["version"])
	}
}
