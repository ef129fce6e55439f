package d1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/edgeops/deploy/pkg/cloudflare"
	"github.com/edgeops/deploy/pkg/config"
	"github.com/edgeops/deploy/pkg/metrics"
)

// Client executes raw SQL against a managed D1 database. Statement
// classification happens in the calling tool, not here.
type Client interface {
	Query(ctx context.Context, sql string) (*QueryResult, error)
}

type QueryResult struct {
	Rows    []map[string]interface{} `json:"results"`
	Changes int                      `json:"changes"`
}

type queryResponse struct {
	Results []map[string]interface{} `json:"results"`
	Success bool                     `json:"success"`
	Meta    struct {
		Changes int `json:"changes"`
	} `json:"meta"`
}

type client struct {
	httpClient *http.Client
	baseURL    string
	accountID  string
	apiToken   string
	databaseID string
}

func NewClient(cfg config.Cloudflare) *client {
	return &client{
		httpClient: &http.Client{
			Timeout: time.Second * 30,
		},
		baseURL:    cfg.BaseURL,
		accountID:  cfg.AccountID,
		apiToken:   cfg.APIToken,
		databaseID: cfg.D1Database,
	}
}

func (c *client) Query(ctx context.Context, sql string) (*QueryResult, error) {
	payload, err := json.Marshal(map[string]string{"sql": sql})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/accounts/%s/d1/database/%s/query", c.baseURL, c.accountID, c.databaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	metrics.RemoteAPICall("d1 query", err)
	if err != nil {
		return nil, &cloudflare.TransportError{Operation: "d1 query", Err: err}
	}
	defer resp.Body.Close()

	envelope := &cloudflare.Envelope{}
	err = json.NewDecoder(resp.Body).Decode(envelope)
	if err != nil {
		return nil, &cloudflare.TransportError{Operation: "d1 query", Err: fmt.Errorf("decode response: %w", err)}
	}

	if !envelope.Success {
		return nil, &cloudflare.APIError{Operation: "d1 query", Messages: envelope.Errors}
	}

	responses := make([]queryResponse, 0)
	err = json.Unmarshal(envelope.Result, &responses)
	if err != nil {
		return nil, &cloudflare.TransportError{Operation: "d1 query", Err: err}
	}

	result := &QueryResult{
		Rows: make([]map[string]interface{}, 0),
	}
	for _, response := range responses {
		result.Rows = append(result.Rows, response.Results...)
		result.Changes += response.Meta.Changes
	}

	return result, nil
}
