package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gnss_skyplot/internal/config"
	"github.com/relabs-tech/gnss_skyplot/internal/gnss"
	"github.com/relabs-tech/gnss_skyplot/internal/metrics"
	"github.com/relabs-tech/gnss_skyplot/internal/skyplot"
)

// FeedSink receives whole-value replacements from the GNSS feed.
// *skyplot.View implements it.
type FeedSink interface {
	NewStatus(snap *gnss.Snapshot)
	NewLocation(fix *gnss.LocationFix)
}

// runView runs the view until ctx is done, then stops it so the host is
// left showing the empty plot. A cancelled context is a clean exit.
func runView(ctx context.Context, view *skyplot.View) error {
	err := view.Run(ctx)
	view.Stop()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// connectMQTT connects a client to the configured broker.
func connectMQTT(cfg *config.Config, clientID, component string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", cfg.MQTTBroker, token.Error())
	}
	log.Printf("%s: connected to MQTT broker at %s", component, cfg.MQTTBroker)
	return client, nil
}

// decodeStatus decodes a status payload. An empty payload is an absent
// snapshot.
func decodeStatus(payload []byte) (*gnss.Snapshot, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}
	var snap gnss.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decoding status: %w", err)
	}
	return &snap, nil
}

// decodeFix decodes a fix payload. An empty payload is an absent fix.
func decodeFix(payload []byte) (*gnss.LocationFix, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}
	var fix gnss.LocationFix
	if err := json.Unmarshal(payload, &fix); err != nil {
		return nil, fmt.Errorf("decoding fix: %w", err)
	}
	return &fix, nil
}

// feedHandlers returns the MQTT handlers for the status and fix topics.
// Undecodable messages are logged and leave the current state alone.
func feedHandlers(sink FeedSink, m *metrics.Collector, component string) (status, fix mqtt.MessageHandler) {
	count := func(kind, outcome string) {
		if m != nil {
			m.FeedMessages.WithLabelValues(kind, outcome).Inc()
		}
	}

	status = func(_ mqtt.Client, msg mqtt.Message) {
		snap, err := decodeStatus(msg.Payload())
		if err != nil {
			log.Printf("%s: %s: %v", component, msg.Topic(), err)
			count("status", "error")
			return
		}
		count("status", "ok")
		sink.NewStatus(snap)
	}
	fix = func(_ mqtt.Client, msg mqtt.Message) {
		f, err := decodeFix(msg.Payload())
		if err != nil {
			log.Printf("%s: %s: %v", component, msg.Topic(), err)
			count("fix", "error")
			return
		}
		count("fix", "ok")
		sink.NewLocation(f)
	}
	return status, fix
}

// subscribeFeed subscribes sink to both GNSS topics.
func subscribeFeed(client mqtt.Client, cfg *config.Config, sink FeedSink, m *metrics.Collector, component string) error {
	status, fix := feedHandlers(sink, m, component)
	for _, sub := range []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{cfg.TopicGNSSStatus, status},
		{cfg.TopicGNSSFix, fix},
	} {
		token := client.Subscribe(sub.topic, 0, sub.handler)
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("subscribing to %s: %w", sub.topic, token.Error())
		}
		log.Printf("%s: subscribed to %s", component, sub.topic)
	}
	return nil
}

// Publisher sends feed values to their topics.
type Publisher interface {
	PublishStatus(snap *gnss.Snapshot) error
	PublishFix(fix *gnss.LocationFix) error
}

// mqttPublisher publishes retained JSON; nil values publish an empty
// payload, which subscribers read as absent.
type mqttPublisher struct {
	client      mqtt.Client
	statusTopic string
	fixTopic    string
}

func newMQTTPublisher(client mqtt.Client, cfg *config.Config) *mqttPublisher {
	return &mqttPublisher{
		client:      client,
		statusTopic: cfg.TopicGNSSStatus,
		fixTopic:    cfg.TopicGNSSFix,
	}
}

func (p *mqttPublisher) PublishStatus(snap *gnss.Snapshot) error {
	if snap == nil {
		return p.publish(p.statusTopic, nil)
	}
	return p.publish(p.statusTopic, snap)
}

func (p *mqttPublisher) PublishFix(fix *gnss.LocationFix) error {
	if fix == nil {
		return p.publish(p.fixTopic, nil)
	}
	return p.publish(p.fixTopic, fix)
}

func (p *mqttPublisher) publish(topic string, v any) error {
	var payload []byte
	if v != nil {
		var err error
		if payload, err = json.Marshal(v); err != nil {
			return fmt.Errorf("encoding %s payload: %w", topic, err)
		}
	}
	token := p.client.Publish(topic, 0, true, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// publishAbsent clears both retained topics so late subscribers see the
// feed as stopped.
func publishAbsent(p Publisher, component string) {
	if err := p.PublishStatus(nil); err != nil {
		log.Printf("%s: clearing status: %v", component, err)
	}
	if err := p.PublishFix(nil); err != nil {
		log.Printf("%s: clearing fix: %v", component, err)
	}
}
