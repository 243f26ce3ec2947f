// Package mqtt publishes controller state and command notifications to an
// MQTT broker and accepts remote input events.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var (
	ErrInvalidURL   = errors.New("invalid MQTT server URL")
	ErrNotConnected = errors.New("MQTT client is not connected")
	ErrTimeout      = errors.New("MQTT operation timed out")
)

const (
	DefaultTopicPrefix  = "inputbridge"
	DefaultWriteTimeout = time.Second
)

// Client wraps a paho client, connecting in the background with backoff.
type Client struct {
	client       mqtt.Client
	prefix       string
	writeTimeout time.Duration

	mu            sync.Mutex
	subscriptions map[string]func(topic string, payload []byte)
}

type Config struct {
	ServerURL         string
	ClientID          string
	TopicPrefix       string
	MaxRetries        int           // 0 retries forever
	InitialRetryDelay time.Duration // doubled after each failure
	MaxRetryDelay     time.Duration
	WriteTimeout      time.Duration // bounds every publish; 0 selects DefaultWriteTimeout
}

// ValidateURL accepts mqtt:// and tcp:// broker URLs.
func ValidateURL(serverURL string) error {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme != "mqtt" && parsed.Scheme != "tcp" {
		return fmt.Errorf("%w: %s: scheme must be mqtt or tcp", ErrInvalidURL, serverURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: %s: missing host", ErrInvalidURL, serverURL)
	}
	return nil
}

// NewClient starts connecting to the broker and returns immediately.
// Subscriptions made before the connection is up are applied once it is,
// and again after every reconnect.
func NewClient(config Config) (*Client, error) {
	if err := ValidateURL(config.ServerURL); err != nil {
		return nil, err
	}

	initialDelay := config.InitialRetryDelay
	if initialDelay == 0 {
		initialDelay = time.Second
	}
	maxDelay := config.MaxRetryDelay
	if maxDelay == 0 {
		maxDelay = 30 * time.Second
	}
	prefix := config.TopicPrefix
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}

	writeTimeout := config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}

	c := &Client{
		prefix:        strings.Trim(prefix, "/"),
		writeTimeout:  writeTimeout,
		subscriptions: make(map[string]func(string, []byte)),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.ServerURL)
	opts.SetClientID(config.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(maxDelay)
	opts.SetWriteTimeout(writeTimeout)
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Printf("connected to MQTT broker at %s", config.ServerURL)
		c.resubscribe()
	})
	c.client = mqtt.NewClient(opts)

	go c.connect(config.MaxRetries, initialDelay, maxDelay)
	return c, nil
}

func (c *Client) connect(maxRetries int, delay, maxDelay time.Duration) {
	for attempt := 1; ; attempt++ {
		token := c.client.Connect()
		if token.Wait() && token.Error() == nil {
			return
		}
		if maxRetries > 0 && attempt >= maxRetries {
			log.Printf("failed to connect to MQTT broker after %d attempts, giving up: %v", attempt, token.Error())
			return
		}
		log.Printf("failed to connect to MQTT broker (attempt %d): %v, retrying in %v", attempt, token.Error(), delay)
		time.Sleep(delay)
		delay = min(delay*2, maxDelay)
	}
}

// Topic joins the client's prefix and the given parts.
func (c *Client) Topic(parts ...string) string {
	return Topic(c.prefix, parts...)
}

func Topic(prefix string, parts ...string) string {
	all := append([]string{strings.Trim(prefix, "/")}, parts...)
	return strings.Join(all, "/")
}

// Publish sends payload to topic, waiting at most the client's write
// timeout so that a stalled broker cannot hold up the caller.
func (c *Client) Publish(topic string, qos byte, retained bool, payload any) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(c.writeTimeout) {
		return fmt.Errorf("failed to publish to %s: %w after %v", topic, ErrTimeout, c.writeTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// PublishJSON marshals v and publishes it under the client's prefix.
func (c *Client) PublishJSON(subtopic string, v any, retained bool) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", subtopic, err)
	}
	return c.Publish(c.Topic(subtopic), 0, retained, payload)
}

// Subscribe registers handler for topic. The subscription is made now if
// connected and renewed on every reconnect.
func (c *Client) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	c.mu.Lock()
	c.subscriptions[topic] = handler
	c.mu.Unlock()

	if !c.IsConnected() {
		return nil
	}
	return c.subscribe(topic, handler)
}

func (c *Client) subscribe(topic string, handler func(string, []byte)) error {
	wrapped := func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	}
	if token := c.client.Subscribe(topic, 0, wrapped); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, token.Error())
	}
	return nil
}

func (c *Client) resubscribe() {
	c.mu.Lock()
	subs := make(map[string]func(string, []byte), len(c.subscriptions))
	for topic, handler := range c.subscriptions {
		subs[topic] = handler
	}
	c.mu.Unlock()

	for topic, handler := range subs {
		if err := c.subscribe(topic, handler); err != nil {
			log.Printf("%v", err)
		}
	}
}

func (c *Client) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

func (c *Client) Disconnect(quiesce uint) {
	if c.IsConnected() {
		c.client.Disconnect(quiesce)
		log.Printf("disconnected from MQTT broker")
	}
}
