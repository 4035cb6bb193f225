package device

import (
	"fmt"

	"zigbee-endpoint/internal/zcl"
)

// EndpointConfig describes one endpoint in the YAML configuration.
type EndpointConfig struct {
	ID         uint8           `yaml:"id"`
	DeviceID   uint16          `yaml:"device_id"`
	MaxPayload int             `yaml:"max_payload"`
	InClusters []ClusterConfig `yaml:"in_clusters"`
	// OutClusters are client clusters. They carry no attributes of their own.
	OutClusters []ClusterConfig `yaml:"out_clusters"`
	// Clusters holds custom or overriding cluster definitions merged into the registry.
	Clusters []zcl.ClusterDef `yaml:"clusters,omitempty"`
}

// ClusterConfig lists the attributes a cluster starts with.
type ClusterConfig struct {
	ID         uint16            `yaml:"id"`
	Script     string            `yaml:"script,omitempty"`
	Attributes []AttributeConfig `yaml:"attributes,omitempty"`
}

// AttributeConfig is one attribute and its initial value. Type and Reportable default
// to the registry definition when omitted.
type AttributeConfig struct {
	ID         uint16      `yaml:"id"`
	Type       *uint8      `yaml:"type,omitempty"`
	Value      interface{} `yaml:"value,omitempty"`
	Reportable *bool       `yaml:"reportable,omitempty"`
}

// HandlerFactory returns the cluster-specific command handler for a configured
// cluster, or nil for none.
type HandlerFactory func(cc ClusterConfig) (CommandHandler, error)

// Build creates a device from configuration, typing attributes from the registry.
// handlerFor may be nil.
func Build(cfg EndpointConfig, registry *zcl.Registry, handlerFor HandlerFactory, opts ...Option) (*Device, error) {
	for _, def := range cfg.Clusters {
		registry.Register(def)
	}

	opts = append([]Option{WithDeviceID(cfg.DeviceID)}, opts...)
	d := NewDevice(cfg.ID, opts...)

	for _, cc := range cfg.InClusters {
		c, err := buildCluster(cc, registry)
		if err != nil {
			return nil, err
		}
		if handlerFor != nil {
			h, err := handlerFor(cc)
			if err != nil {
				return nil, fmt.Errorf("cluster 0x%04X handler: %w", cc.ID, err)
			}
			if h != nil {
				c.SetHandler(h)
			}
		}
		d.AddInCluster(c)
	}
	for _, cc := range cfg.OutClusters {
		c, err := buildCluster(cc, registry)
		if err != nil {
			return nil, err
		}
		d.AddOutCluster(c)
	}
	return d, nil
}

func buildCluster(cc ClusterConfig, registry *zcl.Registry) (*AttributeCluster, error) {
	name := fmt.Sprintf("0x%04X", cc.ID)
	if def := registry.Get(cc.ID); def != nil && def.Name != "" {
		name = def.Name
	}
	c := NewCluster(cc.ID, name)
	for _, ac := range cc.Attributes {
		a, err := buildAttribute(cc.ID, ac, registry)
		if err != nil {
			return nil, err
		}
		if err := c.AddAttribute(a); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func buildAttribute(clusterID uint16, ac AttributeConfig, registry *zcl.Registry) (*Attribute, error) {
	def := registry.Attribute(clusterID, ac.ID)

	var dataType uint8
	switch {
	case ac.Type != nil:
		dataType = *ac.Type
	case def != nil:
		dataType = def.Type
	default:
		return nil, fmt.Errorf("cluster 0x%04X attribute 0x%04X: no type given and no definition", clusterID, ac.ID)
	}
	if !zcl.IsKnown(dataType) {
		return nil, fmt.Errorf("cluster 0x%04X attribute 0x%04X type 0x%02X: %w", clusterID, ac.ID, dataType, ErrUnsupportedType)
	}

	var a *Attribute
	if zcl.IsString(dataType) {
		s := ""
		if ac.Value != nil {
			s = fmt.Sprint(ac.Value)
		}
		if len(s) > 254 {
			return nil, fmt.Errorf("cluster 0x%04X attribute 0x%04X: string length %d: %w", clusterID, ac.ID, len(s), ErrUnsupportedType)
		}
		a = NewStringAttribute(ac.ID, dataType, s)
	} else {
		var raw uint64
		if ac.Value != nil {
			b, err := zcl.EncodeValue(dataType, ac.Value)
			if err != nil {
				return nil, fmt.Errorf("cluster 0x%04X attribute 0x%04X: %w", clusterID, ac.ID, err)
			}
			raw = zcl.Uint(b)
		}
		a = NewAttribute(ac.ID, dataType, raw)
	}

	switch {
	case ac.Reportable != nil:
		a.SetReportable(*ac.Reportable)
	case def != nil:
		a.SetReportable(def.IsReportable())
	}
	return a, nil
}

// AttributeSnapshot is the JSON view of one attribute.
type AttributeSnapshot struct {
	ID             uint16           `json:"id"`
	Type           uint8            `json:"type"`
	TypeName       string           `json:"type_name"`
	Value          interface{}      `json:"value"`
	Reportable     bool             `json:"reportable"`
	Reporting      *ReportingConfig `json:"reporting,omitempty"`
	NeedsReporting bool             `json:"needs_reporting,omitempty"`
}

// ClusterSnapshot is the JSON view of one cluster.
type ClusterSnapshot struct {
	ID         uint16              `json:"id"`
	Name       string              `json:"name,omitempty"`
	Attributes []AttributeSnapshot `json:"attributes"`
}

// Snapshot is the JSON view of a device.
type Snapshot struct {
	Endpoint    uint8             `json:"endpoint"`
	DeviceID    uint16            `json:"device_id"`
	InClusters  []ClusterSnapshot `json:"in_clusters"`
	OutClusters []ClusterSnapshot `json:"out_clusters"`
}

// Snapshot captures the current state of the device.
func (d *Device) Snapshot() Snapshot {
	return Snapshot{
		Endpoint:    d.endpoint,
		DeviceID:    d.deviceID,
		InClusters:  snapshotClusters(d.in),
		OutClusters: snapshotClusters(d.out),
	}
}

func snapshotClusters(list []Cluster) []ClusterSnapshot {
	out := make([]ClusterSnapshot, 0, len(list))
	for _, c := range list {
		cs := ClusterSnapshot{ID: c.ID(), Attributes: []AttributeSnapshot{}}
		if named, ok := c.(interface{ Name() string }); ok {
			cs.Name = named.Name()
		}
		for i := 0; i < c.AttributeCount(); i++ {
			a := c.AttributeAt(i)
			if a == nil {
				continue
			}
			as := AttributeSnapshot{
				ID:             a.ID(),
				Type:           a.Type(),
				TypeName:       zcl.TypeName(a.Type()),
				Value:          a.Value(),
				Reportable:     a.Reportable(),
				NeedsReporting: a.NeedsReporting(),
			}
			if a.ReportingEnabled() {
				cfg := a.Reporting()
				as.Reporting = &cfg
			}
			cs.Attributes = append(cs.Attributes, as)
		}
		out = append(out, cs)
	}
	return out
}
