package app

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// connectMQTT connects a client and logs under component.
func connectMQTT(broker, clientID, component string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("%s: MQTT connect %s: %w", component, broker, token.Error())
	}
	log.Printf("%s: connected to MQTT broker at %s", component, broker)
	return client, nil
}

// subscribeJSON subscribes to topic and hands each payload to fn.
func subscribeJSON(client mqtt.Client, component, topic string, fn func(topic string, payload []byte)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		fn(msg.Topic(), msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("%s: subscribe %s: %w", component, topic, token.Error())
	}
	log.Printf("%s: subscribed to %s", component, topic)
	return nil
}

// mqttPublisher publishes readings as retained JSON messages.
type mqttPublisher struct {
	client mqtt.Client
}

func (m *mqttPublisher) Publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	token := m.client.Publish(topic, 0, true, payload)
	token.Wait()
	return token.Error()
}
