package secrets

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/edgeops/deploy/pkg/audit"
	"github.com/edgeops/deploy/pkg/cloudflare"
	"github.com/edgeops/deploy/pkg/orchestrator"
	log "github.com/sirupsen/logrus"
)

// The remote API stalls when asked to absorb many secret-set calls in
// a row, so a batch makes bounded progress: exactly one secret is
// processed per invocation and the remainder is reported as pending.
// The caller re-invokes with the same batch until nothing is pending.
//
// There is no continuation cursor: a re-invocation with a reordered
// list will process whichever secret now comes first. Callers must
// re-send the batch in its original order.

var (
	ErrWorkerNameRequired = errors.New("worker name is required")
	ErrNoSecrets          = errors.New("at least one secret is required")

	nameRegex       = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	secretNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

type Input struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// BatchOutcome reports which secrets are done, which failed, and which
// remain pending for a follow-up call.
type BatchOutcome struct {
	Worker      string                      `json:"worker"`
	Status      orchestrator.OverallStatus  `json:"status"`
	Results     []orchestrator.SecretResult `json:"results"`
	Pending     []string                    `json:"pending,omitempty"`
	Note        string                      `json:"note,omitempty"`
	CLICommands []string                    `json:"cliCommands,omitempty"`
}

type Processor struct {
	Client  cloudflare.Client
	Auditor audit.Recorder
}

func NewProcessor(client cloudflare.Client, auditor audit.Recorder) *Processor {
	return &Processor{
		Client:  client,
		Auditor: auditor,
	}
}

// Apply processes the first secret of the batch and reports the rest as
// pending. Inputs are validated before any remote call.
func (p *Processor) Apply(ctx context.Context, actor, worker string, inputs []Input) (*BatchOutcome, error) {
	if len(worker) == 0 || !nameRegex.MatchString(worker) {
		return nil, ErrWorkerNameRequired
	}
	if len(inputs) == 0 {
		return nil, ErrNoSecrets
	}
	for _, input := range inputs {
		if !secretNameRegex.MatchString(input.Name) {
			return nil, fmt.Errorf("secret name %q must match %s", input.Name, secretNameRegex.String())
		}
	}

	outcome := &BatchOutcome{
		Worker:      worker,
		Results:     make([]orchestrator.SecretResult, 0, len(inputs)),
		CLICommands: make([]string, 0, len(inputs)),
	}

	head := inputs[0]
	err := p.Client.PutSecret(ctx, worker, cloudflare.Secret{
		Name: head.Name,
		Text: head.Value,
	})
	if err != nil {
		log.Errorf("Provisioning secret %s on %q: %s", head.Name, worker, err)
		outcome.Results = append(outcome.Results, orchestrator.SecretResult{
			Name:   head.Name,
			Status: orchestrator.StatusFailed,
			Error:  err.Error(),
		})
	} else {
		outcome.Results = append(outcome.Results, orchestrator.SecretResult{
			Name:   head.Name,
			Status: orchestrator.StatusSuccess,
		})
	}

	for _, input := range inputs[1:] {
		outcome.Results = append(outcome.Results, orchestrator.SecretResult{
			Name:   input.Name,
			Status: orchestrator.StatusPending,
		})
		outcome.Pending = append(outcome.Pending, input.Name)
	}

	for _, input := range inputs {
		outcome.CLICommands = append(outcome.CLICommands,
			fmt.Sprintf("npx wrangler secret put %s --name %s", input.Name, worker))
	}

	switch {
	case err == nil && len(outcome.Pending) == 0:
		outcome.Status = orchestrator.OverallSuccess
	case err == nil:
		outcome.Status = orchestrator.OverallPartial
		outcome.Note = fmt.Sprintf("%d secrets remain pending; invoke again with the same batch to continue", len(outcome.Pending))
	default:
		outcome.Status = orchestrator.OverallFailure
		outcome.Note = fmt.Sprintf("secret %s failed; invoke again with the same batch to retry", head.Name)
	}

	p.Auditor.Record(ctx, audit.Record{
		Actor:     actor,
		Operation: "secrets:apply",
		Resource:  worker,
		Success:   err == nil,
		Detail:    outcome,
	})

	return outcome, nil
}
