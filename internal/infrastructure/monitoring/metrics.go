package monitoring

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/AgentOS/ptyhelper/internal/providers/terminal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SessionMetrics holds the Prometheus metrics of one helper session.
// It implements terminal.Recorder.
type SessionMetrics struct {
	registry *prometheus.Registry

	InputBytes     prometheus.Counter
	OutputBytes    prometheus.Counter
	Resizes        prometheus.Counter
	ControlIgnored prometheus.Counter
	Stops          *prometheus.CounterVec
	ExitCode       prometheus.Gauge
	Duration       prometheus.Gauge

	startTime time.Time
}

var _ terminal.Recorder = (*SessionMetrics)(nil)

// NewSessionMetrics creates metrics labelled with the session ID in a
// private registry.
func NewSessionMetrics(sessionID string) *SessionMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"session": sessionID}, reg))

	return &SessionMetrics{
		registry: reg,
		InputBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "pty_helper_input_bytes_total",
			Help: "Bytes forwarded from the input channel to the terminal",
		}),
		OutputBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "pty_helper_output_bytes_total",
			Help: "Bytes forwarded from the terminal to the output channel",
		}),
		Resizes: factory.NewCounter(prometheus.CounterOpts{
			Name: "pty_helper_resizes_total",
			Help: "Resize frames applied to the terminal",
		}),
		ControlIgnored: factory.NewCounter(prometheus.CounterOpts{
			Name: "pty_helper_control_frames_ignored_total",
			Help: "Control frames ignored as malformed or unknown",
		}),
		Stops: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pty_helper_stops_total",
				Help: "Forwarding loop terminations by reason",
			},
			[]string{"reason"},
		),
		ExitCode: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pty_helper_exit_code",
			Help: "Exit status reported by the helper",
		}),
		Duration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pty_helper_session_duration_seconds",
			Help: "Seconds from launch to exit",
		}),
		startTime: time.Now(),
	}
}

// AddInputBytes counts bytes written to the terminal.
func (m *SessionMetrics) AddInputBytes(n int) {
	m.InputBytes.Add(float64(n))
}

// AddOutputBytes counts bytes written to the output channel.
func (m *SessionMetrics) AddOutputBytes(n int) {
	m.OutputBytes.Add(float64(n))
}

// IncResize counts an applied resize.
func (m *SessionMetrics) IncResize() {
	m.Resizes.Inc()
}

// IncControlIgnored counts an ignored control frame.
func (m *SessionMetrics) IncControlIgnored() {
	m.ControlIgnored.Inc()
}

// ObserveStop records why the loop ended.
func (m *SessionMetrics) ObserveStop(reason terminal.StopReason) {
	m.Stops.WithLabelValues(reason.String()).Inc()
}

// SetExitCode records the exit status and the session duration.
func (m *SessionMetrics) SetExitCode(code int) {
	m.ExitCode.Set(float64(code))
	m.Duration.Set(time.Since(m.startTime).Seconds())
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *SessionMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
