package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/edgeops/deploy/pkg/config"
	"github.com/edgeops/deploy/pkg/metrics"
	log "github.com/sirupsen/logrus"
)

const scriptModuleName = "index.js"

// Client wraps the provider's REST API, one method per remote resource
// operation. Methods take validated inputs and perform exactly one
// outbound HTTP call, except GetWorker which falls back to a secondary
// endpoint on 404. No retries, no interpretation of envelope errors.
type Client interface {
	ListWorkers(ctx context.Context) ([]Script, error)
	GetWorker(ctx context.Context, name string) (*WorkerInfo, error)
	DeleteWorker(ctx context.Context, name string) error
	UploadWorker(ctx context.Context, name, script string, meta ScriptMetadata) (*Script, error)
	PutSecret(ctx context.Context, scriptName string, secret Secret) error
	CreateKVNamespace(ctx context.Context, title string) (*KVNamespace, error)
}

type client struct {
	httpClient *http.Client
	baseURL    string
	accountID  string
	apiToken   string
}

func NewClient(cfg config.Cloudflare) *client {
	return &client{
		httpClient: &http.Client{
			Timeout: time.Second * 30,
		},
		baseURL:   cfg.BaseURL,
		accountID: cfg.AccountID,
		apiToken:  cfg.APIToken,
	}
}

func (c *client) url(format string, args ...interface{}) string {
	return fmt.Sprintf("%s/accounts/%s%s", c.baseURL, c.accountID, fmt.Sprintf(format, args...))
}

// do performs one HTTP round trip and decodes the response envelope.
// A non-2xx status with a decodable envelope is reported as an APIError;
// anything else is a TransportError.
func (c *client) do(ctx context.Context, operation, method, url, contentType string, body io.Reader) (*Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &TransportError{Operation: operation, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	metrics.RemoteAPICall(operation, err)
	if err != nil {
		return nil, &TransportError{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound(operation)
	}

	envelope := &Envelope{}
	err = json.NewDecoder(resp.Body).Decode(envelope)
	if err != nil {
		return nil, &TransportError{Operation: operation, Err: fmt.Errorf("decode response: %w", err)}
	}

	if !envelope.Success {
		return nil, &APIError{Operation: operation, Messages: envelope.Errors}
	}

	return envelope, nil
}

type notFoundError struct {
	operation string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("%s: not found", e.operation)
}

func errNotFound(operation string) error {
	return &notFoundError{operation: operation}
}

func IsErrNotFound(err error) bool {
	_, ok := err.(*notFoundError)
	return ok
}

func (c *client) ListWorkers(ctx context.Context) ([]Script, error) {
	envelope, err := c.do(ctx, "list workers", http.MethodGet, c.url("/workers/scripts"), "", nil)
	if err != nil {
		return nil, err
	}

	scripts := make([]Script, 0)
	err = json.Unmarshal(envelope.Result, &scripts)
	if err != nil {
		return nil, &TransportError{Operation: "list workers", Err: err}
	}

	return scripts, nil
}

// GetWorker retrieves worker settings. The settings endpoint 404s for
// workers uploaded through some code paths; in that case the response
// is synthesized from the domains listing and marked Degraded.
func (c *client) GetWorker(ctx context.Context, name string) (*WorkerInfo, error) {
	envelope, err := c.do(ctx, "get worker settings", http.MethodGet, c.url("/workers/scripts/%s/settings", name), "", nil)
	if err == nil {
		info := &WorkerInfo{Name: name}
		if er := json.Unmarshal(envelope.Result, info); er != nil {
			return nil, &TransportError{Operation: "get worker settings", Err: er}
		}
		info.Name = name
		return info, nil
	}

	if !IsErrNotFound(err) {
		return nil, err
	}

	log.WithField("worker", name).Debug("settings endpoint returned 404, synthesizing result from domains listing")

	envelope, err = c.do(ctx, "list worker domains", http.MethodGet, c.url("/workers/domains"), "", nil)
	if err != nil {
		return nil, err
	}

	domains := make([]WorkerDomain, 0)
	err = json.Unmarshal(envelope.Result, &domains)
	if err != nil {
		return nil, &TransportError{Operation: "list worker domains", Err: err}
	}

	info := &WorkerInfo{
		Name:     name,
		Degraded: true,
	}
	for _, domain := range domains {
		if domain.Service == name {
			info.Domains = append(info.Domains, domain.Hostname)
		}
	}

	return info, nil
}

func (c *client) DeleteWorker(ctx context.Context, name string) error {
	_, err := c.do(ctx, "delete worker", http.MethodDelete, c.url("/workers/scripts/%s", name), "", nil)
	return err
}

// UploadWorker deploys script code under the given name. The provider
// requires multipart submission for code deployment: a module part with
// the script content, and a metadata part declaring the main module and
// compatibility settings.
func (c *client) UploadWorker(ctx context.Context, name, script string, meta ScriptMetadata) (*Script, error) {
	if meta.MainModule == "" {
		meta.MainModule = scriptModuleName
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, scriptModuleName, scriptModuleName))
	header.Set("Content-Type", "application/javascript+module")
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, &TransportError{Operation: "upload worker", Err: err}
	}
	if _, err = part.Write([]byte(script)); err != nil {
		return nil, &TransportError{Operation: "upload worker", Err: err}
	}

	metadataJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, &TransportError{Operation: "upload worker", Err: err}
	}
	header = textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="metadata"`)
	header.Set("Content-Type", "application/json")
	part, err = writer.CreatePart(header)
	if err != nil {
		return nil, &TransportError{Operation: "upload worker", Err: err}
	}
	if _, err = part.Write(metadataJSON); err != nil {
		return nil, &TransportError{Operation: "upload worker", Err: err}
	}

	if err = writer.Close(); err != nil {
		return nil, &TransportError{Operation: "upload worker", Err: err}
	}

	envelope, err := c.do(ctx, "upload worker", http.MethodPut, c.url("/workers/scripts/%s", name), writer.FormDataContentType(), body)
	if err != nil {
		return nil, err
	}

	uploaded := &Script{}
	err = json.Unmarshal(envelope.Result, uploaded)
	if err != nil {
		return nil, &TransportError{Operation: "upload worker", Err: err}
	}
	if uploaded.ID == "" {
		uploaded.ID = name
	}

	return uploaded, nil
}

func (c *client) PutSecret(ctx context.Context, scriptName string, secret Secret) error {
	if secret.Type == "" {
		secret.Type = "secret_text"
	}

	payload, err := json.Marshal(secret)
	if err != nil {
		return &TransportError{Operation: "put secret", Err: err}
	}

	_, err = c.do(ctx, "put secret", http.MethodPut, c.url("/workers/scripts/%s/secrets", scriptName), "application/json", bytes.NewReader(payload))
	return err
}

func (c *client) CreateKVNamespace(ctx context.Context, title string) (*KVNamespace, error) {
	payload, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return nil, &TransportError{Operation: "create kv namespace", Err: err}
	}

	envelope, err := c.do(ctx, "create kv namespace", http.MethodPost, c.url("/storage/kv/namespaces"), "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	namespace := &KVNamespace{}
	err = json.Unmarshal(envelope.Result, namespace)
	if err != nil {
		return nil, &TransportError{Operation: "create kv namespace", Err: err}
	}

	return namespace, nil
}
