package cloudflare

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the uniform response shape of the Cloudflare REST API.
// Every endpoint wraps its payload in this structure.
type Envelope struct {
	Success  bool            `json:"success"`
	Errors   []Message       `json:"errors"`
	Messages []Message       `json:"messages"`
	Result   json.RawMessage `json:"result"`
}

type Message struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// FirstError returns the first error message reported by the API,
// surfaced verbatim to the operator.
func (e *Envelope) FirstError() string {
	if len(e.Errors) == 0 {
		return "unknown API error"
	}
	return e.Errors[0].Message
}

type Script struct {
	ID         string     `json:"id"`
	Etag       string     `json:"etag,omitempty"`
	CreatedOn  *time.Time `json:"created_on,omitempty"`
	ModifiedOn *time.Time `json:"modified_on,omitempty"`
}

// ScriptMetadata is the JSON part of the multipart script upload.
type ScriptMetadata struct {
	MainModule         string   `json:"main_module"`
	CompatibilityDate  string   `json:"compatibility_date,omitempty"`
	CompatibilityFlags []string `json:"compatibility_flags,omitempty"`
}

// WorkerInfo describes a deployed worker. Degraded is set when the
// settings endpoint returned 404 and the response was synthesized from
// the domains listing instead; such a result is best-effort, not
// authoritative.
type WorkerInfo struct {
	Name     string   `json:"name"`
	Handlers []string `json:"handlers,omitempty"`
	Domains  []string `json:"domains,omitempty"`
	Degraded bool     `json:"degraded"`
}

type WorkerDomain struct {
	ID       string `json:"id"`
	Hostname string `json:"hostname"`
	Service  string `json:"service"`
}

type Secret struct {
	Name string `json:"name"`
	Text string `json:"text"`
	Type string `json:"type"`
}

type KVNamespace struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// APIError is returned when the provider's envelope reports success=false.
type APIError struct {
	Operation string
	Messages  []Message
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%s: unknown API error", e.Operation)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Messages[0].Message)
}

// TransportError is returned when the remote API could not be reached
// or its response could not be decoded.
type TransportError struct {
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
