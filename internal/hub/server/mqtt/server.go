// Package mqtt implements the MQTT ingress layer: it subscribes to the
// socket's report topic and feeds every frame into the liveness tracker.
package mqtt

import (
	"context"
	"fmt"
	"time"

	"github.com/plughub-io/plughub/internal/hub/core/device"
	"github.com/plughub-io/plughub/internal/hub/core/protocol"
	"github.com/plughub-io/plughub/internal/pkg/metrics"
	"github.com/plughub-io/plughub/pkg/log"
	pkgmqtt "github.com/plughub-io/plughub/pkg/mqtt"
	"github.com/plughub-io/plughub/pkg/mqtt/topic"
)

const qos = 1

// Server owns the broker connection lifecycle and the report subscription.
type Server struct {
	client  pkgmqtt.Client
	topics  *topic.Builder
	tracker *device.Tracker
}

// NewServer creates the MQTT ingress server.
func NewServer(client pkgmqtt.Client, topics *topic.Builder, tracker *device.Tracker) *Server {
	return &Server{
		client:  client,
		topics:  topics,
		tracker: tracker,
	}
}

// Start connects to the broker, subscribes to the report topic and blocks
// until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return err
	}

	defer func() {
		log.Info("Disconnecting MQTT client...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.client.Disconnect(shutdownCtx)
	}()

	log.Info("Waiting for MQTT connection...")
	if err := s.client.AwaitConnection(ctx); err != nil {
		return err
	}
	log.Info("MQTT connected")

	reportTopic := s.topics.Report()
	if err := s.client.Subscribe(ctx, reportTopic, qos, s.handleFrame); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", reportTopic, err)
	}

	<-ctx.Done()

	return nil
}

// handleFrame is invoked in arrival order for every report-topic message.
// Unrecognized frames are ignored content-wise but still count as a sign of
// life.
func (s *Server) handleFrame(_ context.Context, _ string, payload []byte) {
	frame := string(payload)
	log.Debug("Received frame", "frame", frame)

	rep, known := protocol.DecodeFrame(frame)
	if !known {
		log.Debug("Ignoring unrecognized frame", "frame", frame)
	}
	metrics.FramesReceivedTotal.WithLabelValues(frameKind(rep, known)).Inc()

	if rep.RestartAck {
		log.Info("Socket restart acknowledged")
	}

	s.tracker.ApplyReport(rep)
}

func frameKind(rep device.Report, known bool) string {
	switch {
	case !known:
		return "unknown"
	case rep.Power != "":
		return "power"
	case rep.Signal != nil:
		return "signal"
	case rep.RestartAck:
		return "restart_ack"
	default:
		return "unknown"
	}
}
