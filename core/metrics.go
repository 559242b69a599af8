package core

import "context"

const (
	MetricAPICallTotal         = "attendance.api_call.total"
	MetricAPICallDurationMS    = "attendance.api_call.duration_ms"
	MetricAPITokenRefreshTotal = "attendance.api_call.token_refresh.total"
)

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

var _ MetricsRecorder = NopMetricsRecorder{}
