// Package signal defines the tagged result types exchanged between the
// orchestrator and the scoring calculator. A lookup outcome is always a
// value, never an exception: aggregation downstream needs no error handling.
package signal

// Source identifiers, in the fixed order sources are scored.
const (
	SourceReputation = "reputation"
	SourceDomainAge  = "domain-age"
	SourceTLSPosture = "tls-posture"
	SourceAIJudgment = "ai-judgment"
)

// Status tags the outcome of one source lookup.
type Status string

const (
	StatusOK      Status = "ok"
	StatusTimeout Status = "timeout"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Payload is the source-specific evidence carried by a successful lookup.
// RiskScore is normalized to [0,1]; Summary is a short human explanation.
type Payload struct {
	RiskScore float64           `json:"riskScore"`
	Summary   string            `json:"summary"`
	Details   map[string]string `json:"details,omitempty"`
}

// Result is the immutable outcome of one source lookup within one analysis.
type Result struct {
	SourceID    string   `json:"sourceId"`
	Status      Status   `json:"status"`
	Payload     *Payload `json:"payload,omitempty"`
	LatencyMs   int64    `json:"latencyMs"`
	ErrorDetail string   `json:"errorDetail,omitempty"`
	FromCache   bool     `json:"fromCache,omitempty"`
}

// OK reports whether the lookup completed with usable evidence.
func (r Result) OK() bool {
	return r.Status == StatusOK && r.Payload != nil
}

// OrchestrationResult collects the per-source results of one analysis call.
// Order holds source IDs in configured order; Results is keyed by source ID.
type OrchestrationResult struct {
	Order            []string          `json:"order"`
	Results          map[string]Result `json:"results"`
	TotalElapsedMs   int64             `json:"totalElapsedMs"`
	DeadlineExceeded bool              `json:"deadlineExceeded"`
}

// InOrder returns the results in configured source order.
func (o OrchestrationResult) InOrder() []Result {
	out := make([]Result, 0, len(o.Order))
	for _, id := range o.Order {
		if r, ok := o.Results[id]; ok {
			out = append(out, r)
		}
	}
	return out
}
