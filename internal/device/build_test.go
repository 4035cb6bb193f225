package device

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"zigbee-endpoint/internal/zcl"
	"zigbee-endpoint/internal/zcl/clusters"
)

const endpointYAML = `
id: 1
device_id: 0x0302
in_clusters:
  - id: 0x0000
    attributes:
      - id: 0x0000
        value: 3
      - id: 0x0005
        value: "TH-01"
  - id: 0x0402
    script: thermo.lua
    attributes:
      - id: 0x0000
        value: -512
      - id: 0x0003
        value: 50
  - id: 0xFC00
    attributes:
      - id: 0x0001
        value: 7
      - id: 0x0002
        type: 0x21
        value: 1000
        reportable: false
out_clusters:
  - id: 0x0003
clusters:
  - id: 0xFC00
    name: Vendor
    attributes:
      - {id: 0x0001, name: Mode, type: 0x20, access: 5}
`

func testRegistry() *zcl.Registry {
	reg := zcl.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	clusters.RegisterStandard(reg)
	return reg
}

func TestBuildFromYAML(t *testing.T) {
	var cfg EndpointConfig
	if err := yaml.Unmarshal([]byte(endpointYAML), &cfg); err != nil {
		t.Fatal(err)
	}

	var scripted []uint16
	d, err := Build(cfg, testRegistry(), func(cc ClusterConfig) (CommandHandler, error) {
		if cc.Script == "" {
			return nil, nil
		}
		scripted = append(scripted, cc.ID)
		return CommandHandlerFunc(func(*AttributeCluster, zcl.Header, []byte) error { return nil }), nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if d.Endpoint() != 1 || d.DeviceID() != 0x0302 {
		t.Errorf("endpoint/device = %d/0x%04X", d.Endpoint(), d.DeviceID())
	}
	if len(d.InClusters()) != 3 || len(d.OutClusters()) != 1 {
		t.Fatalf("clusters in=%d out=%d", len(d.InClusters()), len(d.OutClusters()))
	}
	if len(scripted) != 1 || scripted[0] != 0x0402 {
		t.Errorf("scripted = %v", scripted)
	}

	basic := d.InCluster(0x0000)
	if a := basic.Attribute(0x0005); a == nil || a.Type() != zcl.TypeCharStr || a.Text() != "TH-01" {
		t.Errorf("model id = %v", a)
	}

	temp := d.InCluster(0x0402)
	measured := temp.Attribute(0x0000)
	if measured.Type() != zcl.TypeInt16 || measured.Uint16() != 0xFE00 {
		t.Errorf("measured = %v raw 0x%04X", measured, measured.Uint16())
	}
	if !measured.Reportable() {
		t.Error("MeasuredValue should be reportable")
	}
	if temp.Attribute(0x0003).Reportable() {
		t.Error("Tolerance should not be reportable")
	}

	vendor := d.InCluster(0xFC00)
	if vendor.Attribute(0x0001).Type() != zcl.TypeUint8 || !vendor.Attribute(0x0001).Reportable() {
		t.Errorf("vendor mode = %v", vendor.Attribute(0x0001))
	}
	if a := vendor.Attribute(0x0002); a.Type() != zcl.TypeUint16 || a.Reportable() {
		t.Errorf("vendor 0x0002 = %v reportable %v", a, a.Reportable())
	}
}

func TestBuildErrors(t *testing.T) {
	u8 := zcl.TypeUint8
	bad := uint8(0x77)
	tests := []struct {
		name string
		attr AttributeConfig
	}{
		{"untyped unknown", AttributeConfig{ID: 0x1234}},
		{"unknown type", AttributeConfig{ID: 0x1234, Type: &bad}},
		{"overflow", AttributeConfig{ID: 0x1234, Type: &u8, Value: 300}},
		{"wrong kind", AttributeConfig{ID: 0x1234, Type: &u8, Value: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := EndpointConfig{ID: 1, InClusters: []ClusterConfig{{ID: 0x0006, Attributes: []AttributeConfig{tt.attr}}}}
			if _, err := Build(cfg, testRegistry(), nil); err == nil {
				t.Error("expected error")
			}
		})
	}

	dup := EndpointConfig{ID: 1, InClusters: []ClusterConfig{{ID: 0x0006, Attributes: []AttributeConfig{{ID: 0}, {ID: 0}}}}}
	if _, err := Build(dup, testRegistry(), nil); !errors.Is(err, ErrAttributeExists) {
		t.Errorf("duplicate err = %v, want ErrAttributeExists", err)
	}
}

func TestSnapshotJSON(t *testing.T) {
	d, _ := newTestDevice(t,
		NewAttribute(0x0000, zcl.TypeInt16, 0xFE00),
		NewStringAttribute(0x0001, zcl.TypeCharStr, "x"),
	)
	d.InCluster(testCluster).Attribute(0x0000).ConfigureReporting(ReportingConfig{DataType: zcl.TypeInt16, MinInterval: 1, MaxInterval: 60})

	data, err := json.Marshal(d.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{
		`"endpoint":1`,
		`"name":"Temperature Measurement"`,
		`"type_name":"int16","value":-512`,
		`"max_interval":60`,
		`"value":"x"`,
		`"out_clusters":[]`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("snapshot missing %s: %s", want, s)
		}
	}
}
