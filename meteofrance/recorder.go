package meteofrance

import "time"

// Request outcomes reported to a Recorder.
const (
	OutcomeSuccess        = "success"
	OutcomeAuthError      = "auth_error"
	OutcomeUpstreamError  = "upstream_error"
	OutcomeTransportError = "transport_error"
	OutcomeCircuitOpen    = "circuit_open"
)

// Recorder receives request telemetry. internal/observability.Metrics
// implements it with Prometheus collectors.
type Recorder interface {
	// ObserveRequest is called once per data request with the endpoint path,
	// its outcome, and the time spent including token acquisition.
	ObserveRequest(endpoint, outcome string, elapsed time.Duration)

	// ObserveTokenRefresh is called after every token exchange attempt.
	ObserveTokenRefresh(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, string, time.Duration) {}
func (nopRecorder) ObserveTokenRefresh(string)                   {}
