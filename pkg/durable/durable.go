package durable

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// The provider offers no programmatic endpoint for durable object
// bindings; they take effect only through deployment-time declarative
// configuration. This package synthesizes that configuration and the
// operator instructions needed to apply it.

const bindingSuffix = "_BINDING"

var (
	ErrWorkerNameRequired = errors.New("worker name is required")
	ErrClassNameRequired  = errors.New("durable object class name is required")
)

// Binding is a named reference from deployed code to a durable object
// class. NamespaceID is synthetic; the authoritative identifier is
// assigned by the provider on the next full deployment.
type Binding struct {
	Name        string `json:"name"`
	ClassName   string `json:"className"`
	NamespaceID string `json:"namespaceID"`
}

type Options struct {
	// ScriptName of an already-deployed worker implementing the class,
	// if different from the worker being configured.
	ScriptName string
	// FirstDeployment marks that the class is new and requires a
	// migration stanza with a new_classes entry.
	FirstDeployment bool
}

type ConfigResult struct {
	WorkerName   string   `json:"workerName"`
	Binding      Binding  `json:"binding"`
	Config       string   `json:"config"`
	Instructions []string `json:"instructions"`
}

// BindingName derives the binding identifier from the class name.
func BindingName(className string) string {
	return strings.ToUpper(className) + bindingSuffix
}

// NewBinding synthesizes a binding for the given class.
func NewBinding(className string) Binding {
	return Binding{
		Name:        BindingName(className),
		ClassName:   className,
		NamespaceID: uuid.New().String(),
	}
}

// Configure returns declarative configuration and ordered instructions
// for attaching a durable object class to a worker. It performs no
// remote calls and fails only on malformed input.
func Configure(workerName, className string, opts Options) (*ConfigResult, error) {
	if len(workerName) == 0 {
		return nil, ErrWorkerNameRequired
	}
	if len(className) == 0 {
		return nil, ErrClassNameRequired
	}

	binding := NewBinding(className)

	config := fmt.Sprintf(`[[durable_objects.bindings]]
name = "%s"
class_name = "%s"
`, binding.Name, binding.ClassName)

	if len(opts.ScriptName) > 0 && opts.ScriptName != workerName {
		config += fmt.Sprintf("script_name = %q\n", opts.ScriptName)
	}

	if opts.FirstDeployment {
		config += fmt.Sprintf(`
[[migrations]]
tag = "v1"
new_classes = ["%s"]
`, binding.ClassName)
	}

	instructions := []string{
		fmt.Sprintf("Add a class named %s to the worker script.", binding.ClassName),
		fmt.Sprintf("Export the class from the main module: export { %s }.", binding.ClassName),
		fmt.Sprintf("Add the binding above to the wrangler configuration of %q.", workerName),
	}
	if opts.FirstDeployment {
		instructions = append(instructions, "Redeploy with the migration stanza so the provider creates the new class.")
	} else {
		instructions = append(instructions, "Redeploy the worker for the binding to take effect.")
	}

	return &ConfigResult{
		WorkerName:   workerName,
		Binding:      binding,
		Config:       config,
		Instructions: instructions,
	}, nil
}
