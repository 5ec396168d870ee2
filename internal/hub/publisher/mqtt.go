// Package publisher implements the outbound command adapter.
package publisher

import (
	"context"

	"github.com/plughub-io/plughub/internal/hub/core"
	pkgmqtt "github.com/plughub-io/plughub/pkg/mqtt"
	"github.com/plughub-io/plughub/pkg/mqtt/topic"
)

const qos = 1

var _ core.FramePublisher = (*MQTTPublisher)(nil)

// MQTTPublisher sends command frames on the socket's command topic. It shares
// the ingress client; paho serializes publishes internally.
type MQTTPublisher struct {
	client pkgmqtt.Client
	topics *topic.Builder
}

// NewMQTTPublisher creates the outbound adapter.
func NewMQTTPublisher(client pkgmqtt.Client, topics *topic.Builder) *MQTTPublisher {
	return &MQTTPublisher{
		client: client,
		topics: topics,
	}
}

// PublishFrame sends one command frame, fire-and-forget: no acknowledgement
// frame is awaited, outcomes show up later on the report topic.
func (p *MQTTPublisher) PublishFrame(ctx context.Context, frame string) error {
	return p.client.Publish(ctx, p.topics.Command(), qos, false, []byte(frame))
}
