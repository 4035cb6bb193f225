package device

import (
	"fmt"

	"zigbee-endpoint/internal/zcl"
)

// Device is one endpoint with its ordered input (server) and output (client) clusters.
// It routes incoming frames: general frames run through the general command processor,
// cluster-specific frames are forwarded to the target input cluster.
//
// Device is not safe for concurrent use; transports serialize calls.
type Device struct {
	endpoint  uint8
	deviceID  uint16
	in        []Cluster
	out       []Cluster
	observers []Observer
}

// Option configures a Device.
type Option func(*Device)

// WithDeviceID sets the profile device identifier.
func WithDeviceID(id uint16) Option {
	return func(d *Device) {
		d.deviceID = id
	}
}

// WithObserver adds an observer of processed frames.
func WithObserver(o Observer) Option {
	return func(d *Device) {
		d.observers = append(d.observers, o)
	}
}

// NewDevice creates a device for the given endpoint id.
func NewDevice(endpoint uint8, opts ...Option) *Device {
	d := &Device{endpoint: endpoint}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Endpoint returns the endpoint id.
func (d *Device) Endpoint() uint8 { return d.endpoint }

// DeviceID returns the profile device identifier.
func (d *Device) DeviceID() uint16 { return d.deviceID }

// AddObserver adds an observer after construction.
func (d *Device) AddObserver(o Observer) {
	d.observers = append(d.observers, o)
}

func (d *Device) AddInCluster(c Cluster)  { d.in = append(d.in, c) }
func (d *Device) AddOutCluster(c Cluster) { d.out = append(d.out, c) }

// InClusters returns the input clusters in registration order.
func (d *Device) InClusters() []Cluster { return append([]Cluster(nil), d.in...) }

// OutClusters returns the output clusters in registration order.
func (d *Device) OutClusters() []Cluster { return append([]Cluster(nil), d.out...) }

// InCluster returns the input cluster with the given id, or nil.
func (d *Device) InCluster(id uint16) Cluster { return findCluster(d.in, id) }

// OutCluster returns the output cluster with the given id, or nil.
func (d *Device) OutCluster(id uint16) Cluster { return findCluster(d.out, id) }

func findCluster(list []Cluster, id uint16) Cluster {
	for _, c := range list {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

// ProcessCommand processes one ZCL frame addressed to clusterID and writes the response,
// if any, into out. len(out) is the payload capacity; the response occupies
// out[:res.Len]. On error nothing in out is meaningful.
func (d *Device) ProcessCommand(frame []byte, clusterID uint16, out []byte) (Result, error) {
	res, err := d.process(frame, clusterID, out)
	if err != nil {
		res.Len = 0
	}
	for _, o := range d.observers {
		o.Observe(res, err)
	}
	return res, err
}

func (d *Device) process(frame []byte, clusterID uint16, out []byte) (Result, error) {
	res := Result{Endpoint: d.endpoint, ClusterID: clusterID}
	hdr, off, err := zcl.ParseHeader(frame)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	res.FrameType = hdr.FrameType()
	res.FrameID = hdr.SeqNumber
	res.Command = hdr.CommandID

	switch hdr.FrameType() {
	case zcl.FrameTypeGlobal:
		return d.processGeneral(hdr, frame[off:], res, out)
	case zcl.FrameTypeCluster:
		cluster := d.InCluster(clusterID)
		if cluster == nil {
			return res, fmt.Errorf("cluster 0x%04X: %w", clusterID, ErrClusterNotFound)
		}
		return res, cluster.HandleCommand(frame)
	default:
		return res, fmt.Errorf("frame type %d: %w", hdr.FrameType(), ErrUnsupportedFrameType)
	}
}

// PendingReport names an attribute whose value changed since it was last reported.
type PendingReport struct {
	ClusterID uint16
	Attribute *Attribute
}

// PendingReports lists attributes of the input clusters that need reporting, in
// cluster then ordinal order.
func (d *Device) PendingReports() []PendingReport {
	var pending []PendingReport
	for _, c := range d.in {
		for i := 0; i < c.AttributeCount(); i++ {
			if a := c.AttributeAt(i); a != nil && a.NeedsReporting() {
				pending = append(pending, PendingReport{ClusterID: c.ID(), Attribute: a})
			}
		}
	}
	return pending
}
