//go:build !no_mqtt

package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"zigbee-endpoint/internal/device"
	"zigbee-endpoint/internal/link"
)

// Config holds MQTT bridge configuration.
type Config struct {
	Broker      string
	Username    string
	Password    string
	TopicPrefix string
	// Name identifies the endpoint in client id and Home Assistant discovery.
	Name string
}

/*
Topics, relative to the prefix:

	bridge/state                 online | offline (retained, also the will)
	<ep>/request/<cluster hex>   raw ZCL frame in
	<ep>/response/<cluster hex>  raw ZCL frame out
	<ep>/result                  JSON processing result of every frame
	<ep>/state                   JSON attribute values (retained)
*/

// Bridge is an MQTT transport for one endpoint: frames published on request topics
// are dispatched to the device and responses published back.
type Bridge struct {
	client   pahomqtt.Client
	disp     *link.Dispatcher
	endpoint uint8
	prefix   string
	name     string
	logger   *slog.Logger
}

// NewBridge creates and connects an MQTT bridge.
func NewBridge(disp *link.Dispatcher, cfg Config, logger *slog.Logger) (*Bridge, error) {
	b := &Bridge{
		disp:   disp,
		prefix: cfg.TopicPrefix,
		name:   cfg.Name,
		logger: logger.With("component", "mqtt"),
	}
	disp.View(func(d *device.Device) { b.endpoint = d.Endpoint() })

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(fmt.Sprintf("zigbee-endpoint-%s-%d", topicSafe(cfg.Name), b.endpoint)).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(cfg.TopicPrefix+"/bridge/state", "offline", 1, true).
		SetOnConnectHandler(func(c pahomqtt.Client) {
			b.logger.Info("MQTT connected")
			b.onConnect(c)
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			b.logger.Warn("MQTT connection lost", "err", err)
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	b.client = client
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return b, nil
}

func (b *Bridge) onConnect(c pahomqtt.Client) {
	b.publishTo(c, b.prefix+"/bridge/state", []byte("online"), true)

	var snap device.Snapshot
	b.disp.View(func(d *device.Device) { snap = d.Snapshot() })
	for _, msg := range buildDiscovery(snap, b.name, b.prefix) {
		b.publishTo(c, msg.Topic, msg.Payload, true)
	}
	b.publishTo(c, stateTopic(b.prefix, b.endpoint), mustJSON(buildState(snap)), true)

	topic := fmt.Sprintf("%s/%d/request/+", b.prefix, b.endpoint)
	c.Subscribe(topic, 1, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		b.handleRequest(msg.Topic(), msg.Payload())
	})
	b.logger.Info("MQTT bridge subscribed", "topic", topic)
}

// Stop publishes offline state and disconnects.
func (b *Bridge) Stop() {
	b.publish(b.prefix+"/bridge/state", []byte("offline"), true)
	b.client.Disconnect(1000)
	b.logger.Info("MQTT bridge stopped")
}

func (b *Bridge) handleRequest(topic string, payload []byte) {
	clusterID, err := parseRequestTopic(b.prefix, b.endpoint, topic)
	if err != nil {
		b.logger.Warn("ignoring request", "topic", topic, "err", err)
		return
	}

	resp, err := b.disp.Handle(clusterID, payload)
	if resp != nil {
		b.publish(responseTopic(b.prefix, b.endpoint, clusterID), resp, false)
	}
	if err != nil {
		return
	}
	b.publishState()
}

func (b *Bridge) publishState() {
	var snap device.Snapshot
	b.disp.View(func(d *device.Device) { snap = d.Snapshot() })
	b.publish(stateTopic(b.prefix, b.endpoint), mustJSON(buildState(snap)), true)
}

// ResultObserver publishes every processing result as JSON. It never blocks.
func (b *Bridge) ResultObserver() device.Observer {
	return device.ObserverFunc(func(res device.Result, err error) {
		b.publish(fmt.Sprintf("%s/%d/result", b.prefix, res.Endpoint), resultPayload(res, err), false)
	})
}

type resultMessage struct {
	device.Result
	Error string `json:"error,omitempty"`
}

func resultPayload(res device.Result, err error) []byte {
	msg := resultMessage{Result: res}
	if err != nil {
		msg.Error = err.Error()
	}
	return mustJSON(msg)
}

func (b *Bridge) publish(topic string, payload []byte, retained bool) {
	b.publishTo(b.client, topic, payload, retained)
}

func (b *Bridge) publishTo(c pahomqtt.Client, topic string, payload []byte, retained bool) {
	token := c.Publish(topic, 1, retained, payload)
	go func() {
		if !token.WaitTimeout(5 * time.Second) {
			b.logger.Warn("MQTT publish timeout", "topic", topic)
		} else if err := token.Error(); err != nil {
			b.logger.Warn("MQTT publish error", "topic", topic, "err", err)
		}
	}()
}

// parseRequestTopic extracts the cluster id from "<prefix>/<ep>/request/<cluster>".
// The cluster is hex, with or without a 0x prefix.
func parseRequestTopic(prefix string, endpoint uint8, topic string) (uint16, error) {
	want := fmt.Sprintf("%s/%d/request/", prefix, endpoint)
	rest, ok := strings.CutPrefix(topic, want)
	if !ok || rest == "" {
		return 0, fmt.Errorf("not a request topic for endpoint %d", endpoint)
	}
	rest = strings.TrimPrefix(strings.ToLower(rest), "0x")
	id, err := strconv.ParseUint(rest, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("cluster %q: %w", rest, err)
	}
	return uint16(id), nil
}

func responseTopic(prefix string, endpoint uint8, clusterID uint16) string {
	return fmt.Sprintf("%s/%d/response/%04x", prefix, endpoint, clusterID)
}

func stateTopic(prefix string, endpoint uint8) string {
	return fmt.Sprintf("%s/%d/state", prefix, endpoint)
}

func mustJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
