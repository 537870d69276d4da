// Package notify pushes screen updates to devices over MQTT so battery
// powered panels can refresh ahead of their polling interval.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// Publisher announces resolved rasters on per-device topics. A nil Publisher
// is valid and publishes nothing, so the broker stays optional.
type Publisher struct {
	client mqtt.Client
}

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

// NewPublisher connects to the broker. brokerURL is e.g. tcp://host:1883.
func NewPublisher(brokerURL, clientID string) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &Publisher{client: client}, nil
}

// screenUpdate is the payload devices receive on their screen topic.
type screenUpdate struct {
	ImageURL    string `json:"image_url"`
	Filename    string `json:"filename"`
	RefreshRate int    `json:"refresh_rate"`
}

// AnnounceScreen publishes the freshly resolved raster for a device.
func (p *Publisher) AnnounceScreen(mac, rasterURL, filename string, refreshRate int) {
	if p == nil || p.client == nil {
		return
	}
	payload, err := json.Marshal(screenUpdate{
		ImageURL:    rasterURL,
		Filename:    filename,
		RefreshRate: refreshRate,
	})
	if err != nil {
		return
	}
	topic := fmt.Sprintf("devices/%s/screen", mac)
	token := p.client.Publish(topic, 1, true, payload)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Warn().Err(token.Error()).Str("topic", topic).Msg("failed to publish screen update")
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p == nil || p.client == nil {
		return
	}
	p.client.Disconnect(250)
}
