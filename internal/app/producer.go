// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/inertial_decoder/internal/config"
	"github.com/relabs-tech/inertial_decoder/internal/metrics"
	"github.com/relabs-tech/inertial_decoder/internal/nmea"
	"github.com/relabs-tech/inertial_decoder/internal/sensors"
	"github.com/relabs-tech/inertial_decoder/internal/ubx"
)

// stream is one input port and the protocols decoded from it.
type stream struct {
	name string
	port string
	baud int
	nmea bool
	ubx  bool
}

// producerStreams splits the configured ports into streams. Without a
// dedicated UBX port both decoders share the NMEA stream.
func producerStreams(cfg *config.Config) []stream {
	if cfg.UBXSerialPort == "" {
		return []stream{{name: "nmea+ubx", port: cfg.NMEASerialPort, baud: cfg.NMEABaudRate, nmea: true, ubx: true}}
	}
	return []stream{
		{name: "nmea", port: cfg.NMEASerialPort, baud: cfg.NMEABaudRate, nmea: true},
		{name: "ubx", port: cfg.UBXSerialPort, baud: cfg.UBXBaudRate, ubx: true},
	}
}

func newNMEADecoder(cfg *config.Config) *nmea.Decoder {
	return nmea.NewDecoder(cfg.NMEAMaxFields, cfg.NMEAMaxFieldSize)
}

func newUBXDecoder(cfg *config.Config) *ubx.Decoder {
	return ubx.NewDecoder(
		ubx.WithMaxPayload(cfg.UBXMaxPayload),
		ubx.WithCycleChannels(cfg.UBXCycleChannels),
		ubx.WithPayloadResync(cfg.UBXPayloadResync),
		ubx.WithScale(ubx.GyroX, cfg.UBXGyroScale),
		ubx.WithScale(ubx.GyroY, cfg.UBXGyroScale),
		ubx.WithScale(ubx.GyroZ, cfg.UBXGyroScale),
	)
}

// newStreamPump builds the decoders a stream needs.
func newStreamPump(cfg *config.Config, s stream, pub Publisher, m *metrics.Metrics) *Pump {
	var nd *nmea.Decoder
	var ud *ubx.Decoder
	if s.nmea {
		nd = newNMEADecoder(cfg)
	}
	if s.ubx {
		ud = newUBXDecoder(cfg)
	}
	return NewPump(nd, ud, pub, PumpOptions{
		Name:          s.name,
		Topics:        TopicsFromConfig(cfg),
		StatsInterval: time.Duration(cfg.StatsInterval) * time.Millisecond,
		Metrics:       m,
	})
}

// RunProducer decodes the receiver port(s) and publishes every reading as
// JSON to MQTT until interrupted.
func RunProducer() error {
	cfg := config.Get()
	if err := cfg.ValidateProducer(); err != nil {
		return err
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer, "producer")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	pub := &mqttPublisher{client: client}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		m = metrics.New()
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			log.Printf("producer: metrics on %s/metrics", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("producer: metrics server: %v", err)
			}
		}()
		defer srv.Close()
	}

	streams := producerStreams(cfg)
	errc := make(chan error, len(streams))
	for _, s := range streams {
		src, err := sensors.Open(s.port, s.baud)
		if err != nil {
			stop()
			return err
		}
		defer src.Close()

		pump := newStreamPump(cfg, s, pub, m)
		log.Printf("producer: decoding %s from %s", s.name, s.port)
		go func(name string) {
			err := pump.Run(ctx, src)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("producer: %s stopped: %v", name, err)
			}
			errc <- err
		}(s.name)
	}

	var first error
	for range streams {
		err := <-errc
		if err != nil && !errors.Is(err, context.Canceled) && first == nil {
			first = err
		}
		// one stream ending stops the others
		stop()
	}

	log.Println("producer: shutting down")
	return first
}
