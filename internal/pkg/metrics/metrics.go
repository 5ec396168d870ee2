package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FramesReceivedTotal counts inbound frames by decoded kind.
	FramesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plughub_frames_received_total",
			Help: "Total number of frames received from the socket.",
		},
		[]string{"kind"}, // power/signal/restart_ack/unknown
	)

	// CommandsPublishedTotal counts outbound command frames by frame value.
	CommandsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plughub_commands_published_total",
			Help: "Total number of command frames published to the socket.",
		},
		[]string{"frame"},
	)

	// CodesIssuedTotal counts verification codes issued.
	CodesIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plughub_codes_issued_total",
			Help: "Total number of verification codes issued.",
		},
	)

	// ControlFailuresTotal counts failed control requests by reason.
	ControlFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plughub_control_failures_total",
			Help: "Total number of rejected control requests.",
		},
		[]string{"reason"},
	)

	// NotifyFailuresTotal counts notification deliveries that failed. The
	// request still succeeds; this is the observable trace of that policy.
	NotifyFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plughub_notify_failures_total",
			Help: "Total number of failed out-of-band notification deliveries.",
		},
	)

	// DeviceOnline mirrors the snapshot online flag (1=online, 0=offline).
	DeviceOnline = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "plughub_device_online",
			Help: "Whether the socket is considered online (1) or offline (0).",
		},
	)
)

func init() {
	prometheus.MustRegister(
		FramesReceivedTotal,
		CommandsPublishedTotal,
		CodesIssuedTotal,
		ControlFailuresTotal,
		NotifyFailuresTotal,
		DeviceOnline,
	)
}
