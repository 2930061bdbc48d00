package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/climate_panel/internal/config"
	"github.com/relabs-tech/climate_panel/internal/env"
)

var stdout io.Writer = os.Stdout

// RunConsoleMQTT prints every snapshot the monitor publishes.
func RunConsoleMQTT() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is not set")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicSnapshot, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := printSnapshot(stdout, msg.Payload()); err != nil {
			log.Printf("console: snapshot unmarshal error: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicSnapshot)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Println("console: shutting down")
	return nil
}

// printSnapshot renders one /sensor-data payload as a single line.
func printSnapshot(w io.Writer, payload []byte) error {
	var d env.SensorData
	if err := json.Unmarshal(payload, &d); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w,
		"[CLIMATE] T=%s F (L:%s H:%s)  RH=%s %% (L:%s H:%s)  @%d\n",
		field(float64(d.Temperature), env.UnknownTemperature),
		field(float64(d.TempLow), env.UnknownTemperature),
		field(float64(d.TempHigh), env.UnknownTemperature),
		field(float64(d.Humidity), env.UnknownHumidity),
		field(float64(d.HumLow), env.UnknownHumidity),
		field(float64(d.HumHigh), env.UnknownHumidity),
		d.LastUpdated,
	)
	return err
}

func field(v, unknown float64) string {
	if v == unknown {
		return "--"
	}
	return fmt.Sprintf("%6.2f", v)
}
