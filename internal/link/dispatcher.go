package link

import (
	"sync"

	"zigbee-endpoint/internal/device"
	"zigbee-endpoint/internal/zcl"
)

// DefaultMaxPayload is the response capacity used when none is configured.
const DefaultMaxPayload = 82

// Dispatcher serializes access to a device for every transport and turns processing
// errors into Default Responses.
type Dispatcher struct {
	mu         sync.Mutex
	dev        *device.Device
	maxPayload int
}

// NewDispatcher creates a dispatcher. maxPayload <= 0 selects DefaultMaxPayload.
func NewDispatcher(dev *device.Device, maxPayload int) *Dispatcher {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	return &Dispatcher{dev: dev, maxPayload: maxPayload}
}

// MaxPayload returns the response capacity.
func (d *Dispatcher) MaxPayload() int { return d.maxPayload }

// Handle processes one frame addressed to clusterID. It returns the bytes to send
// back, which is nil when nothing should be sent, and the processing error if any.
// On errors that map to a ZCL status a Default Response is returned unless the
// request disabled it.
func (d *Dispatcher) Handle(clusterID uint16, frame []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]byte, d.maxPayload)
	res, err := d.dev.ProcessCommand(frame, clusterID, out)
	if err == nil {
		if res.Len == 0 {
			return nil, nil
		}
		return out[:res.Len], nil
	}

	status, ok := device.StatusForError(res.FrameType, err)
	if !ok {
		return nil, err
	}
	hdr, _, perr := zcl.ParseHeader(frame)
	if perr != nil || hdr.DefaultResponseDisabled() {
		return nil, err
	}
	return zcl.DefaultResponse(hdr.SeqNumber, hdr.CommandID, status), err
}

// View runs fn with exclusive access to the device.
func (d *Dispatcher) View(fn func(dev *device.Device)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.dev)
}
