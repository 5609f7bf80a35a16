// Package cms is the client for the headless content store: parameterized
// filter/projection queries and document creation over its HTTP API.
package cms

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// DefaultAPIVersion is the dated API version used when Config.APIVersion is empty.
const DefaultAPIVersion = "2023-03-26"

const (
	maxResponseSize = 32 << 20
	// Queries whose encoded URL would exceed this are sent as POST.
	maxGETLength = 11264
)

var (
	reProjectID = regexp.MustCompile(`^[a-z0-9-]+$`)
	reDataset   = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)
)

// Store is the read/write contract the rest of the application depends on.
// Parameters are substituted server-side; query text is never interpolated.
type Store interface {
	Fetch(ctx context.Context, query string, params map[string]any, dest any) error
	Create(ctx context.Context, doc any) (string, error)
}

// Config identifies the project and dataset and controls transport.
type Config struct {
	ProjectID  string
	Dataset    string
	APIVersion string        // default DefaultAPIVersion
	UseCDN     bool          // read through the API CDN; ignored when Token is set
	Token      string        // write-access token, sent as a bearer token
	BaseURL    string        // overrides the derived API host
	Timeout    time.Duration // HTTP client timeout (default 10s)
	HTTPClient *http.Client
}

// Client talks to the content API. It is safe for concurrent use.
type Client struct {
	cfg       Config
	http      *http.Client
	version   string
	readBase  string
	writeBase string
}

var _ Store = (*Client)(nil)

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	if !reProjectID.MatchString(cfg.ProjectID) {
		return nil, fmt.Errorf("cms: invalid project id %q", cfg.ProjectID)
	}
	if !reDataset.MatchString(cfg.Dataset) {
		return nil, fmt.Errorf("cms: invalid dataset %q", cfg.Dataset)
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	c := &Client{
		cfg:     cfg,
		http:    hc,
		version: "v" + strings.TrimPrefix(cfg.APIVersion, "v"),
	}
	switch {
	case cfg.BaseURL != "":
		base := strings.TrimRight(cfg.BaseURL, "/")
		c.readBase, c.writeBase = base, base
	default:
		c.writeBase = "https://" + cfg.ProjectID + ".api.sanity.io"
		c.readBase = c.writeBase
		if cfg.UseCDN && cfg.Token == "" {
			c.readBase = "https://" + cfg.ProjectID + ".apicdn.sanity.io"
		}
	}
	return c, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Fetch runs query with params and decodes the result member into dest.
// Every failure is returned as a *QueryError.
func (c *Client) Fetch(ctx context.Context, query string, params map[string]any, dest any) error {
	values := url.Values{}
	values.Set("query", query)
	encoded := make(map[string]json.RawMessage, len(params))
	for name, v := range params {
		name = strings.TrimPrefix(name, "$")
		b, err := json.Marshal(v)
		if err != nil {
			return &QueryError{Query: query, Err: fmt.Errorf("encode param $%s: %w", name, err)}
		}
		values.Set("$"+name, string(b))
		encoded[name] = b
	}
	endpoint := c.readBase + "/" + c.version + "/data/query/" + url.PathEscape(c.cfg.Dataset)

	var req *http.Request
	var err error
	if getURL := endpoint + "?" + values.Encode(); len(getURL) <= maxGETLength {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, getURL, nil)
	} else {
		// Too long for a URL; send query and params in the body.
		var body []byte
		body, err = json.Marshal(map[string]any{"query": query, "params": encoded})
		if err == nil {
			req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
			if req != nil {
				req.Header.Set("Content-Type", "application/json")
			}
		}
	}
	if err != nil {
		return &QueryError{Query: query, Err: err}
	}

	status, body, err := c.do(req)
	if err != nil {
		return &QueryError{Query: query, Status: status, Err: err}
	}
	if status/100 != 2 {
		qe := &QueryError{Query: query, Status: status}
		qe.Type, qe.Description = decodeAPIError(body)
		return qe
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &QueryError{Query: query, Status: status, Err: fmt.Errorf("decode response: %w", err)}
	}
	if dest == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, dest); err != nil {
		return &QueryError{Query: query, Status: status, Err: fmt.Errorf("decode result: %w", err)}
	}
	return nil
}

// Create persists doc as a new document and returns its id. It is not
// idempotent: calling it twice creates two documents. Every failure is
// returned as a *WriteError.
func (c *Client) Create(ctx context.Context, doc any) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"mutations": []any{map[string]any{"create": doc}},
	})
	if err != nil {
		return "", &WriteError{Err: fmt.Errorf("encode document: %w", err)}
	}
	endpoint := c.writeBase + "/" + c.version + "/data/mutate/" + url.PathEscape(c.cfg.Dataset) + "?returnIds=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &WriteError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return "", &WriteError{Status: status, Err: err}
	}
	if status/100 != 2 {
		we := &WriteError{Status: status}
		we.Type, we.Description = decodeAPIError(body)
		return "", we
	}

	var res struct {
		TransactionID string `json:"transactionId"`
		Results       []struct {
			ID        string `json:"id"`
			Operation string `json:"operation"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return "", &WriteError{Status: status, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(res.Results) == 0 || res.Results[0].ID == "" {
		return "", &WriteError{Status: status, Err: errors.New("no document id in response")}
	}
	return res.Results[0].ID, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "inkpress")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func decodeAPIError(body []byte) (typ, description string) {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil {
		return "", strings.TrimSpace(string(body))
	}
	if e.Error.Description != "" {
		return e.Error.Type, e.Error.Description
	}
	return e.Error.Type, e.Message
}
