//go:build !no_mqtt

package mqtt

import (
	"fmt"
	"strings"

	"zigbee-endpoint/internal/device"
	"zigbee-endpoint/internal/zcl/clusters"
)

// discoveryMsg is a Home Assistant MQTT discovery payload.
type discoveryMsg struct {
	Topic   string // e.g. "homeassistant/sensor/zigbee_ep1/temperature/config"
	Payload []byte // JSON, empty means delete
}

// haDevice is the "device" block in HA discovery.
type haDevice struct {
	Identifiers []string `json:"identifiers"`
	Model       string   `json:"model,omitempty"`
	Name        string   `json:"name"`
}

// haDiscovery is a generic HA discovery payload.
type haDiscovery struct {
	Name              string   `json:"name"`
	UniqueID          string   `json:"unique_id"`
	StateTopic        string   `json:"state_topic"`
	AvailabilityTopic string   `json:"availability_topic"`
	ValueTemplate     string   `json:"value_template,omitempty"`
	UnitOfMeasurement string   `json:"unit_of_measurement,omitempty"`
	DeviceClass       string   `json:"device_class,omitempty"`
	StateClass        string   `json:"state_class,omitempty"`
	PayloadOn         string   `json:"payload_on,omitempty"`
	PayloadOff        string   `json:"payload_off,omitempty"`
	Device            haDevice `json:"device"`
}

// property maps a well-known cluster attribute to a state key.
type property struct {
	cluster uint16
	attr    uint16
	name    string
	scale   float64 // divisor applied in the value template, 0 for none
	binary  bool
	unit    string
	class   string
	suffix  string
}

var properties = []property{
	{cluster: clusters.IDOnOff, attr: 0x0000, name: "state", binary: true, class: "power", suffix: "State"},
	{cluster: clusters.IDLevelControl, attr: 0x0000, name: "brightness", suffix: "Brightness"},
	{cluster: clusters.IDTemperature, attr: 0x0000, name: "temperature", scale: 100, unit: "°C", class: "temperature", suffix: "Temperature"},
	{cluster: clusters.IDRelativeHumidity, attr: 0x0000, name: "humidity", scale: 100, unit: "%", class: "humidity", suffix: "Humidity"},
	{cluster: clusters.IDPressure, attr: 0x0000, name: "pressure", unit: "hPa", class: "pressure", suffix: "Pressure"},
	{cluster: clusters.IDIlluminance, attr: 0x0000, name: "illuminance", unit: "lx", class: "illuminance", suffix: "Illuminance"},
	{cluster: clusters.IDOccupancy, attr: 0x0000, name: "occupancy", binary: true, class: "occupancy", suffix: "Occupancy"},
	{cluster: clusters.IDPowerConfiguration, attr: 0x0021, name: "battery", scale: 2, unit: "%", class: "battery", suffix: "Battery"},
}

// propertyFor returns the well-known property of a cluster attribute, if any.
func propertyFor(clusterID, attrID uint16) (property, bool) {
	for _, p := range properties {
		if p.cluster == clusterID && p.attr == attrID {
			return p, true
		}
	}
	return property{}, false
}

// endpointIdentifier returns the unique identifier for the HA device registry.
func endpointIdentifier(name string, endpoint uint8) string {
	return fmt.Sprintf("zigbee_%s_ep%d", topicSafe(name), endpoint)
}

// topicSafe lowercases s and replaces characters unsafe in MQTT topics.
func topicSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, strings.ToLower(s))
}

// buildState converts a snapshot to the state document published on the state topic.
// Well-known attributes get a friendly key; every attribute is also listed under
// "attributes" keyed by "cluster/attribute" in hex.
func buildState(snap device.Snapshot) map[string]any {
	raw := make(map[string]any)
	state := map[string]any{"attributes": raw}
	for _, c := range snap.InClusters {
		for _, a := range c.Attributes {
			raw[fmt.Sprintf("0x%04X/0x%04X", c.ID, a.ID)] = a.Value
			p, ok := propertyFor(c.ID, a.ID)
			if !ok {
				continue
			}
			if p.binary {
				state[p.name] = onOff(a.Value)
			} else {
				state[p.name] = a.Value
			}
		}
	}
	return state
}

func onOff(v any) string {
	switch n := v.(type) {
	case bool:
		if n {
			return "ON"
		}
	case uint64:
		if n != 0 {
			return "ON"
		}
	}
	return "OFF"
}

// buildDiscovery generates HA discovery messages for the well-known attributes the
// endpoint exposes.
func buildDiscovery(snap device.Snapshot, name, prefix string) []discoveryMsg {
	avail := prefix + "/bridge/state"
	stateTopic := stateTopic(prefix, snap.Endpoint)
	nodeID := endpointIdentifier(name, snap.Endpoint)
	haDev := haDevice{
		Identifiers: []string{nodeID},
		Model:       fmt.Sprintf("device 0x%04X", snap.DeviceID),
		Name:        name,
	}

	var msgs []discoveryMsg
	for _, c := range snap.InClusters {
		for _, a := range c.Attributes {
			p, ok := propertyFor(c.ID, a.ID)
			if !ok {
				continue
			}
			if p.binary {
				msgs = append(msgs, buildBinarySensor(nodeID, name, stateTopic, avail, haDev, p))
			} else {
				msgs = append(msgs, buildSensor(nodeID, name, stateTopic, avail, haDev, p))
			}
		}
	}
	return msgs
}

func buildSensor(nodeID, displayName, stateTopic, avail string, haDev haDevice, p property) discoveryMsg {
	tmpl := fmt.Sprintf("{{ value_json.%s }}", p.name)
	if p.scale != 0 {
		tmpl = fmt.Sprintf("{{ value_json.%s / %g }}", p.name, p.scale)
	}
	topic := fmt.Sprintf("homeassistant/sensor/%s/%s/config", nodeID, p.name)
	payload := haDiscovery{
		Name:              displayName + " " + p.suffix,
		UniqueID:          nodeID + "_" + p.name,
		StateTopic:        stateTopic,
		AvailabilityTopic: avail,
		ValueTemplate:     tmpl,
		UnitOfMeasurement: p.unit,
		DeviceClass:       p.class,
		StateClass:        "measurement",
		Device:            haDev,
	}
	return discoveryMsg{Topic: topic, Payload: mustJSON(payload)}
}

func buildBinarySensor(nodeID, displayName, stateTopic, avail string, haDev haDevice, p property) discoveryMsg {
	topic := fmt.Sprintf("homeassistant/binary_sensor/%s/%s/config", nodeID, p.name)
	payload := haDiscovery{
		Name:              displayName + " " + p.suffix,
		UniqueID:          nodeID + "_" + p.name,
		StateTopic:        stateTopic,
		AvailabilityTopic: avail,
		ValueTemplate:     fmt.Sprintf("{{ value_json.%s }}", p.name),
		DeviceClass:       p.class,
		PayloadOn:         "ON",
		PayloadOff:        "OFF",
		Device:            haDev,
	}
	return discoveryMsg{Topic: topic, Payload: mustJSON(payload)}
}
