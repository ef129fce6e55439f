package orchestrator

// Phase is one ordered sub-operation of the deployment plan.
type Phase string

const (
	PhaseNamespace     Phase = "namespace"
	PhaseCodeDeploy    Phase = "code_deploy"
	PhaseDurableObject Phase = "durable_object"
	PhaseSecrets       Phase = "secrets"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	// StatusPending is only produced by the bounded-progress secret
	// batch processor, never by the deployment plan itself.
	StatusPending Status = "pending"
)

// OverallStatus aggregates all phase outcomes of one deployment.
type OverallStatus string

const (
	OverallSuccess OverallStatus = "SUCCESS"
	OverallPartial OverallStatus = "PARTIAL"
	OverallFailure OverallStatus = "FAILURE"
)

// StepResult is the outcome of exactly one phase. Payload carries the
// phase's result on success; Error carries the underlying message on
// failure. A failed step never escapes as a Go error past the executor.
type StepResult struct {
	Phase   Phase       `json:"phase"`
	Status  Status      `json:"status"`
	Error   string      `json:"error,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

func Success(phase Phase, payload interface{}) StepResult {
	return StepResult{Phase: phase, Status: StatusSuccess, Payload: payload}
}

func Failed(phase Phase, err error) StepResult {
	return StepResult{Phase: phase, Status: StatusFailed, Error: err.Error()}
}

func Skipped(phase Phase) StepResult {
	return StepResult{Phase: phase, Status: StatusSkipped}
}

// SecretResult is the per-secret outcome within the secrets phase.
type SecretResult struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Outcome aggregates all StepResults of one deployment invocation,
// plus the generated declarative configuration artifact reflecting the
// phases that succeeded.
type Outcome struct {
	Name        string        `json:"name"`
	Status      OverallStatus `json:"status"`
	Steps       []StepResult  `json:"steps"`
	EndpointURL string        `json:"endpointURL,omitempty"`
	Config      string        `json:"config,omitempty"`
	Summary     string        `json:"summary,omitempty"`
}

func (o *Outcome) step(phase Phase) *StepResult {
	for i := range o.Steps {
		if o.Steps[i].Phase == phase {
			return &o.Steps[i]
		}
	}
	return nil
}

// derive computes the overall status from the recorded steps. SUCCESS
// requires every phase to have succeeded; a failed CodeDeploy phase is
// fatal and yields FAILURE; anything else is PARTIAL.
func (o *Outcome) derive() {
	deploy := o.step(PhaseCodeDeploy)
	if deploy == nil || deploy.Status == StatusFailed {
		o.Status = OverallFailure
		return
	}

	for _, step := range o.Steps {
		if step.Status != StatusSuccess {
			o.Status = OverallPartial
			return
		}
	}

	o.Status = OverallSuccess
}
