package link

import (
	"bytes"
	"errors"
	"testing"

	"zigbee-endpoint/internal/device"
	"zigbee-endpoint/internal/zcl"
)

func newTestDispatcher(t *testing.T, maxPayload int) *Dispatcher {
	t.Helper()
	c := device.NewCluster(0x0006, "On/Off")
	if err := c.AddAttribute(device.NewAttribute(0x0000, zcl.TypeBool, 1)); err != nil {
		t.Fatal(err)
	}
	d := device.NewDevice(1)
	d.AddInCluster(c)
	return NewDispatcher(d, maxPayload)
}

func TestDispatcherResponse(t *testing.T) {
	disp := newTestDispatcher(t, 0)
	if disp.MaxPayload() != DefaultMaxPayload {
		t.Errorf("MaxPayload = %d, want %d", disp.MaxPayload(), DefaultMaxPayload)
	}
	resp, err := disp.Handle(0x0006, []byte{0x00, 0x11, 0x00, 0x00, 0x00})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x18, 0x11, 0x01, 0x00, 0x00, 0x00, 0x10, 0x01}
	if !bytes.Equal(resp, want) {
		t.Errorf("resp = %X, want %X", resp, want)
	}
}

func TestDispatcherDefaultResponse(t *testing.T) {
	disp := newTestDispatcher(t, 0)
	tests := []struct {
		name  string
		frame []byte
		want  []byte
	}{
		{"unsupported general", []byte{0x00, 0x12, 0x02}, []byte{0x18, 0x12, 0x0B, 0x02, 0x82}},
		{"unsupported cluster command", []byte{0x01, 0x13, 0x01}, []byte{0x18, 0x13, 0x0B, 0x01, 0x81}},
		{"malformed read", []byte{0x00, 0x14, 0x00, 0x00}, []byte{0x18, 0x14, 0x0B, 0x00, 0x80}},
		{"disabled", []byte{0x10, 0x15, 0x02}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := disp.Handle(0x0006, tt.frame)
			if err == nil {
				t.Fatal("expected processing error")
			}
			if !bytes.Equal(resp, tt.want) {
				t.Errorf("resp = %X, want %X", resp, tt.want)
			}
		})
	}
}

func TestDispatcherOverflow(t *testing.T) {
	disp := newTestDispatcher(t, 6)
	resp, err := disp.Handle(0x0006, []byte{0x00, 0x16, 0x00, 0x00, 0x00})
	if !errors.Is(err, device.ErrPayloadOverflow) {
		t.Fatalf("err = %v, want ErrPayloadOverflow", err)
	}
	if !bytes.Equal(resp, []byte{0x18, 0x16, 0x0B, 0x00, 0x01}) {
		t.Errorf("resp = %X", resp)
	}
}

func TestDispatcherSilentErrors(t *testing.T) {
	disp := newTestDispatcher(t, 0)
	resp, err := disp.Handle(0x0300, []byte{0x00, 0x17, 0x00})
	if !errors.Is(err, device.ErrClusterNotFound) || resp != nil {
		t.Errorf("resp = %X err = %v", resp, err)
	}
	resp, err = disp.Handle(0x0006, []byte{0x00})
	if !errors.Is(err, device.ErrMalformedFrame) || resp != nil {
		t.Errorf("short frame resp = %X err = %v", resp, err)
	}
}

func TestDispatcherView(t *testing.T) {
	disp := newTestDispatcher(t, 0)
	var on bool
	disp.View(func(d *device.Device) {
		on = d.InCluster(0x0006).Attribute(0x0000).Bool()
	})
	if !on {
		t.Error("OnOff = false, want true")
	}
}
