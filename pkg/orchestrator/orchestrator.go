package orchestrator

import (
	"context"
	"fmt"

	"github.com/edgeops/deploy/pkg/audit"
	"github.com/edgeops/deploy/pkg/cloudflare"
	"github.com/edgeops/deploy/pkg/config"
	"github.com/edgeops/deploy/pkg/durable"
	"github.com/edgeops/deploy/pkg/metrics"
	log "github.com/sirupsen/logrus"
)

// Orchestrator sequences the deployment phases in a fixed dependency
// order: Namespace, CodeDeploy, DurableObject, Secrets. CodeDeploy
// failure aborts the plan; any other failure is recorded and the plan
// continues. All state is local to one Deploy invocation.
type Orchestrator struct {
	Client  cloudflare.Client
	Auditor audit.Recorder

	accountID string
	domain    string

	// secretGate serializes secret-set calls. The remote API has been
	// observed to stall under concurrent secret submission, so the
	// limit of one in-flight call is a hard constraint, not a tunable.
	secretGate chan struct{}
}

func New(client cloudflare.Client, auditor audit.Recorder, cfg config.Cloudflare) *Orchestrator {
	return &Orchestrator{
		Client:     client,
		Auditor:    auditor,
		accountID:  cfg.AccountID,
		domain:     cfg.Domain,
		secretGate: make(chan struct{}, 1),
	}
}

// Deploy runs the full deployment plan for one request. Validation
// failures are returned as errors before any remote call; phase
// failures are captured in the returned Outcome and never escape.
func (o *Orchestrator) Deploy(ctx context.Context, request *Request) (*Outcome, error) {
	err := request.Validate()
	if err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		"worker": request.Name,
		"actor":  request.Actor,
	})

	outcome := &Outcome{
		Name:        request.Name,
		Steps:       make([]StepResult, 0, 4),
		EndpointURL: fmt.Sprintf("%s.%s.%s", request.Name, request.Actor, o.domain),
	}

	// Namespace creation can be repeated manually, so its failure does
	// not abort the plan.
	var namespace *cloudflare.KVNamespace
	step := o.execute(ctx, logger, PhaseNamespace, func(ctx context.Context) (interface{}, error) {
		namespace, err = o.Client.CreateKVNamespace(ctx, request.NamespaceTitle())
		if err != nil {
			return nil, err
		}
		return namespace, nil
	})
	o.record(ctx, request, step)
	outcome.Steps = append(outcome.Steps, step)

	step = o.execute(ctx, logger, PhaseCodeDeploy, func(ctx context.Context) (interface{}, error) {
		return o.Client.UploadWorker(ctx, request.Name, request.Script, cloudflare.ScriptMetadata{
			CompatibilityDate:  CompatibilityDate,
			CompatibilityFlags: []string{"nodejs_compat"},
		})
	})
	o.record(ctx, request, step)
	outcome.Steps = append(outcome.Steps, step)

	if step.Status == StatusFailed {
		logger.Errorf("Code deployment failed; aborting remaining phases: %s", step.Error)
		outcome.derive()
		outcome.Summary = renderSummary(outcome)
		return outcome, nil
	}

	// Durable object bindings have no programmatic endpoint; the intent
	// is recorded as configuration metadata so the plan keeps its shape.
	binding := durable.NewBinding(request.durableObjectClass())
	step = o.execute(ctx, logger, PhaseDurableObject, func(ctx context.Context) (interface{}, error) {
		return binding, nil
	})
	o.record(ctx, request, step)
	outcome.Steps = append(outcome.Steps, step)

	step = o.applySecrets(ctx, logger, request)
	o.record(ctx, request, step)
	outcome.Steps = append(outcome.Steps, step)

	outcome.derive()
	outcome.Config = renderWrangler(request, namespace, binding, o.accountID)
	outcome.Summary = renderSummary(outcome)

	logger.Infof("Deployment of %q finished with status %s", request.Name, outcome.Status)

	return outcome, nil
}

type stepFunc func(ctx context.Context) (interface{}, error)

// execute runs one phase and captures its outcome as a StepResult.
// Errors never propagate past this boundary.
func (o *Orchestrator) execute(ctx context.Context, logger *log.Entry, phase Phase, fn stepFunc) StepResult {
	logger.Debugf("Running deployment phase %q", phase)

	payload, err := fn(ctx)
	if err != nil {
		metrics.DeployPhase(string(phase), metrics.StatusError)
		logger.Errorf("Deployment phase %q: %s", phase, err)
		return Failed(phase, err)
	}

	metrics.DeployPhase(string(phase), metrics.StatusOK)
	return Success(phase, payload)
}

// applySecrets provisions the request's secrets strictly one at a time,
// awaiting each call before issuing the next. One secret's failure does
// not block the remaining secrets.
func (o *Orchestrator) applySecrets(ctx context.Context, logger *log.Entry, request *Request) StepResult {
	results := make([]SecretResult, 0)
	failures := 0

	for _, secret := range request.secrets() {
		o.secretGate <- struct{}{}
		err := o.Client.PutSecret(ctx, request.Name, cloudflare.Secret{
			Name: secret.name,
			Text: secret.text,
		})
		<-o.secretGate

		if err != nil {
			failures++
			logger.Errorf("Provisioning secret %s: %s", secret.name, err)
			results = append(results, SecretResult{Name: secret.name, Status: StatusFailed, Error: err.Error()})
			continue
		}

		results = append(results, SecretResult{Name: secret.name, Status: StatusSuccess})
	}

	step := StepResult{
		Phase:   PhaseSecrets,
		Status:  StatusSuccess,
		Payload: results,
	}
	if failures > 0 {
		step.Status = StatusFailed
		step.Error = fmt.Sprintf("%d of %d secrets failed", failures, len(results))
		metrics.DeployPhase(string(PhaseSecrets), metrics.StatusError)
	} else {
		metrics.DeployPhase(string(PhaseSecrets), metrics.StatusOK)
	}

	return step
}

// record mirrors one phase outcome to the audit log. Audit failures are
// handled inside the recorder and cannot affect the deployment result.
func (o *Orchestrator) record(ctx context.Context, request *Request, step StepResult) {
	o.Auditor.Record(ctx, audit.Record{
		Actor:     request.Actor,
		Operation: fmt.Sprintf("deploy:%s", step.Phase),
		Resource:  request.Name,
		Success:   step.Status == StatusSuccess,
		Detail:    step,
	})
}
