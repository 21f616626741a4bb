package monitoring

import (
	"strings"

	dto "github.com/prometheus/client_model/go"
)

// Summary holds current metric values for the closing log line
type Summary struct {
	InputBytes     float64 `json:"input_bytes"`
	OutputBytes    float64 `json:"output_bytes"`
	Resizes        float64 `json:"resizes"`
	ControlIgnored float64 `json:"control_ignored"`
	StopReason     string  `json:"stop_reason"`
}

// Summary gathers the registry and flattens the session counters
func (m *SessionMetrics) Summary() (Summary, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return Summary{}, err
	}

	var s Summary
	for _, mf := range families {
		switch mf.GetName() {
		case "pty_helper_input_bytes_total":
			s.InputBytes = counterValue(mf)
		case "pty_helper_output_bytes_total":
			s.OutputBytes = counterValue(mf)
		case "pty_helper_resizes_total":
			s.Resizes = counterValue(mf)
		case "pty_helper_control_frames_ignored_total":
			s.ControlIgnored = counterValue(mf)
		case "pty_helper_stops_total":
			s.StopReason = stopReason(mf)
		}
	}
	return s, nil
}

func counterValue(mf *dto.MetricFamily) float64 {
	var total float64
	for _, metric := range mf.GetMetric() {
		total += metric.GetCounter().GetValue()
	}
	return total
}

func stopReason(mf *dto.MetricFamily) string {
	var reasons []string
	for _, metric := range mf.GetMetric() {
		if metric.GetCounter().GetValue() == 0 {
			continue
		}
		for _, label := range metric.GetLabel() {
			if label.GetName() == "reason" {
				reasons = append(reasons, label.GetValue())
			}
		}
	}
	return strings.Join(reasons, ",")
}
