package device

import (
	"fmt"

	"zigbee-endpoint/internal/zcl"
)

// Cluster is the lookup contract the general command processor relies on.
// Enumeration by ordinal must be stable and follow insertion order so that
// Discover Attributes pagination is well defined across requests.
type Cluster interface {
	ID() uint16
	AttributeCount() int
	// AttributeAt returns the attribute at ordinal index, or nil when out of range.
	AttributeAt(index int) *Attribute
	// Attribute returns the attribute with the given id, or nil.
	Attribute(id uint16) *Attribute
	// IndexOf returns the ordinal of an attribute id.
	IndexOf(id uint16) (int, bool)
	// HandleCommand processes a cluster-specific frame.
	HandleCommand(frame []byte) error
}

// CommandHandler handles cluster-specific commands for an AttributeCluster.
type CommandHandler interface {
	HandleClusterCommand(c *AttributeCluster, hdr zcl.Header, payload []byte) error
}

// CommandHandlerFunc adapts a function to CommandHandler.
type CommandHandlerFunc func(c *AttributeCluster, hdr zcl.Header, payload []byte) error

func (f CommandHandlerFunc) HandleClusterCommand(c *AttributeCluster, hdr zcl.Header, payload []byte) error {
	return f(c, hdr, payload)
}

// AttributeCluster is an in-memory Cluster keeping attributes in insertion order.
type AttributeCluster struct {
	id      uint16
	name    string
	attrs   []*Attribute
	index   map[uint16]int
	handler CommandHandler
}

// NewCluster creates an empty cluster.
func NewCluster(id uint16, name string) *AttributeCluster {
	return &AttributeCluster{
		id:    id,
		name:  name,
		index: make(map[uint16]int),
	}
}

// AddAttribute appends an attribute to the enumeration order.
// Returns ErrAttributeExists if the id is already present.
func (c *AttributeCluster) AddAttribute(a *Attribute) error {
	if _, ok := c.index[a.ID()]; ok {
		return fmt.Errorf("cluster 0x%04X attribute 0x%04X: %w", c.id, a.ID(), ErrAttributeExists)
	}
	c.index[a.ID()] = len(c.attrs)
	c.attrs = append(c.attrs, a)
	return nil
}

// SetHandler installs the cluster-specific command handler.
func (c *AttributeCluster) SetHandler(h CommandHandler) {
	c.handler = h
}

func (c *AttributeCluster) ID() uint16 { return c.id }

// Name returns the cluster's display name.
func (c *AttributeCluster) Name() string { return c.name }

func (c *AttributeCluster) AttributeCount() int { return len(c.attrs) }

func (c *AttributeCluster) AttributeAt(index int) *Attribute {
	if index < 0 || index >= len(c.attrs) {
		return nil
	}
	return c.attrs[index]
}

func (c *AttributeCluster) Attribute(id uint16) *Attribute {
	if i, ok := c.index[id]; ok {
		return c.attrs[i]
	}
	return nil
}

func (c *AttributeCluster) IndexOf(id uint16) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}

// Attributes returns the attributes in enumeration order.
func (c *AttributeCluster) Attributes() []*Attribute {
	out := make([]*Attribute, len(c.attrs))
	copy(out, c.attrs)
	return out
}

// HandleCommand decodes the header of a cluster-specific frame and passes it to the
// installed handler.
func (c *AttributeCluster) HandleCommand(frame []byte) error {
	hdr, off, err := zcl.ParseHeader(frame)
	if err != nil {
		return fmt.Errorf("cluster 0x%04X: %w: %w", c.id, ErrMalformedFrame, err)
	}
	if c.handler == nil {
		return fmt.Errorf("cluster 0x%04X command 0x%02X: %w", c.id, hdr.CommandID, ErrUnsupportedCommand)
	}
	return c.handler.HandleClusterCommand(c, hdr, frame[off:])
}
