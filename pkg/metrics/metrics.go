// Package metrics exposes Prometheus collectors for the live core.
// Collectors register themselves on the default registry; the HTTP layer
// serves them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WSConnections tracks the number of open WebSocket sessions.
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "castlight_ws_connections",
		Help: "Open WebSocket sessions",
	})

	// RoomMembers tracks total room memberships across all sessions.
	RoomMembers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "castlight_room_members",
		Help: "Total room memberships across all sessions",
	})

	// EventsEmitted counts outbound event deliveries by event name.
	// One increment per recipient session, not per Emit call.
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "castlight_events_emitted_total",
		Help: "Outbound live events delivered to sessions, by event name",
	}, []string{"event"})

	// EventSendFailures counts deliveries dropped by write errors or timeouts.
	EventSendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "castlight_event_send_failures_total",
		Help: "Outbound live event deliveries that failed, by event name",
	}, []string{"event"})

	// Commands counts control commands accepted by the API, by command name.
	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "castlight_commands_total",
		Help: "Control commands accepted, by command",
	}, []string{"command"})

	// RunningTimers tracks timers currently running across all projects.
	RunningTimers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "castlight_running_timers",
		Help: "Timers currently running across all projects and channels",
	})
)

// IncEventEmitted records one delivered event.
func IncEventEmitted(event string) {
	EventsEmitted.WithLabelValues(event).Inc()
}

// IncEventSendFailure records one failed delivery.
func IncEventSendFailure(event string) {
	EventSendFailures.WithLabelValues(event).Inc()
}

// IncCommand records one accepted control command.
func IncCommand(command string) {
	Commands.WithLabelValues(command).Inc()
}
