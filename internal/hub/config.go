package hub

import (
	"fmt"
	"os"

	"github.com/plughub-io/plughub/internal/hub/core"
	"github.com/plughub-io/plughub/internal/hub/core/code"
	"github.com/plughub-io/plughub/internal/hub/core/device"
	"github.com/plughub-io/plughub/internal/hub/core/session"
	"github.com/plughub-io/plughub/internal/hub/notifier"
	"github.com/plughub-io/plughub/internal/hub/publisher"
	httpserver "github.com/plughub-io/plughub/internal/hub/server/http"
	mqttserver "github.com/plughub-io/plughub/internal/hub/server/mqtt"
	"github.com/plughub-io/plughub/internal/hub/server/ws"
	"github.com/plughub-io/plughub/internal/pkg/metrics"
	"github.com/plughub-io/plughub/pkg/log"
	"github.com/plughub-io/plughub/pkg/mqtt"
	"github.com/plughub-io/plughub/pkg/mqtt/topic"
	"github.com/plughub-io/plughub/pkg/options"
)

type Config struct {
	HttpOptions     *options.HttpOptions
	MqttOptions     *options.MqttOptions
	DingTalkOptions *options.DingTalkOptions
	SocketOptions   *options.SocketOptions
}

func (cfg *Config) NewHubServer() (*HubServer, error) {
	// 1. Core state: codes and liveness, with the push feed and the online
	// gauge observing every snapshot change.
	codes := code.NewRegistry(cfg.SocketOptions.CodeTTL)

	pushFeed := ws.NewHub()
	onlineGauge := device.ObserverFunc(func(snap device.Snapshot) {
		if snap.Online {
			metrics.DeviceOnline.Set(1)
		} else {
			metrics.DeviceOnline.Set(0)
		}
	})
	tracker := device.NewTracker(cfg.SocketOptions.LivenessTimeout, pushFeed, onlineGauge)

	// 2. Infrastructure: MQTT transport (shared by ingress and publisher)
	mqttClient, err := initializeMQTTClient(cfg.MqttOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to init mqtt client: %w", err)
	}
	topics := topic.NewBuilder(cfg.MqttOptions.TopicRoot)

	// 3. Infrastructure: Notifier (Secondary Adapter)
	var codeNotifier core.Notifier = core.NoopNotifier{}
	if cfg.DingTalkOptions.Webhook != "" {
		codeNotifier = notifier.NewDingTalk(cfg.DingTalkOptions)
	} else {
		log.Warn("No DingTalk webhook configured, verification codes will not be delivered")
	}

	// 4. Core Domain Service (The Business Logic)
	svc := session.NewController(codes, tracker, publisher.NewMQTTPublisher(mqttClient, topics), codeNotifier)

	// 5. Ingress Servers (Primary Adapters)
	mqttSrv := mqttserver.NewServer(mqttClient, topics, tracker)
	httpSrv := httpserver.NewServer(cfg.HttpOptions, svc, pushFeed)

	return &HubServer{
		servers: []Server{mqttSrv, httpSrv},
	}, nil
}

func initializeMQTTClient(opts *options.MqttOptions) (mqtt.Client, error) {
	cfg := opts.ToClientConfig()

	if cfg.ClientID == "" {
		hostname, _ := os.Hostname()
		cfg.ClientID = fmt.Sprintf("plughub-%s", hostname)
	}

	mqttclient, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "failed to new mqtt client")
		return nil, err
	}

	return mqttclient, nil
}
