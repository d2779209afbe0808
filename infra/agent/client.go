// Package agent implements core/agent.Client over the agent's REST API.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/chargeboard/auth"
	coreagent "github.com/kilianp07/chargeboard/core/agent"
	"github.com/kilianp07/chargeboard/core/model"
)

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

// Config defines the agent endpoint and per-call timeouts in seconds. Zero
// timeouts select the defaults.
type Config struct {
	BaseURL                string `json:"base_url"`
	StatusTimeoutSeconds   int    `json:"status_timeout_seconds"`
	OptimizeTimeoutSeconds int    `json:"optimize_timeout_seconds"`
	CompareTimeoutSeconds  int    `json:"compare_timeout_seconds"`
	WhatIfTimeoutSeconds   int    `json:"whatif_timeout_seconds"`
	// Auth enables OAuth2 client credentials when its token_url is set.
	Auth auth.Conf `json:"auth"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://127.0.0.1:8000"
	}
	if c.StatusTimeoutSeconds == 0 {
		c.StatusTimeoutSeconds = 15
	}
	if c.OptimizeTimeoutSeconds == 0 {
		c.OptimizeTimeoutSeconds = 60
	}
	if c.CompareTimeoutSeconds == 0 {
		c.CompareTimeoutSeconds = 60
	}
	if c.WhatIfTimeoutSeconds == 0 {
		c.WhatIfTimeoutSeconds = 30
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("agent: base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	for name, v := range map[string]int{
		"status_timeout_seconds":   c.StatusTimeoutSeconds,
		"optimize_timeout_seconds": c.OptimizeTimeoutSeconds,
		"compare_timeout_seconds":  c.CompareTimeoutSeconds,
		"whatif_timeout_seconds":   c.WhatIfTimeoutSeconds,
	} {
		if v < 0 {
			return fmt.Errorf("agent: %s must not be negative", name)
		}
	}
	return nil
}

// HTTPClient talks JSON to the agent. It never retries.
type HTTPClient struct {
	base     string
	http     *http.Client
	timeouts map[string]time.Duration
}

var _ coreagent.Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for cfg. A nil hc selects a default
// http.Client without its own timeout, authenticated when cfg.Auth is
// enabled.
func NewHTTPClient(cfg Config, hc *http.Client) *HTTPClient {
	cfg.SetDefaults()
	if hc == nil {
		hc = &http.Client{}
		if cfg.Auth.Enabled() {
			hc = auth.NewClientCred(cfg.Auth).HTTPClient(nil)
		}
	}
	sec := func(n int) time.Duration { return time.Duration(n) * time.Second }
	return &HTTPClient{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		http: hc,
		timeouts: map[string]time.Duration{
			coreagent.EndpointStatus:   sec(cfg.StatusTimeoutSeconds),
			coreagent.EndpointOptimize: sec(cfg.OptimizeTimeoutSeconds),
			coreagent.EndpointCompare:  sec(cfg.CompareTimeoutSeconds),
			coreagent.EndpointSitePeak: sec(cfg.WhatIfTimeoutSeconds),
			coreagent.EndpointBlackout: sec(cfg.WhatIfTimeoutSeconds),
		},
	}
}

func (c *HTTPClient) Status(ctx context.Context) (model.AgentStatus, error) {
	var st model.AgentStatus
	err := c.do(ctx, coreagent.EndpointStatus, http.MethodGet, "/status", nil, &st)
	return st, err
}

func (c *HTTPClient) Optimize(ctx context.Context, cfg model.OptimizeConfig) (model.OptimizationResult, error) {
	var res model.OptimizationResult
	err := c.do(ctx, coreagent.EndpointOptimize, http.MethodPost, "/optimize", cfg, &res)
	return res, err
}

type compareRequest struct {
	Horizon *int `json:"horizon,omitempty"`
}

type compareResponse struct {
	Text string `json:"text"`
}

func (c *HTTPClient) Compare(ctx context.Context, horizon *int) (string, error) {
	var res compareResponse
	err := c.do(ctx, coreagent.EndpointCompare, http.MethodPost, "/compare", compareRequest{Horizon: horizon}, &res)
	return res.Text, err
}

type messageResponse struct {
	Message string `json:"message"`
}

func (c *HTTPClient) SitePeak(ctx context.Context, o model.SitePeak) (string, error) {
	var res messageResponse
	err := c.do(ctx, coreagent.EndpointSitePeak, http.MethodPost, "/whatif/site_peak", o, &res)
	return res.Message, err
}

func (c *HTTPClient) Blackout(ctx context.Context, o model.Blackout) (string, error) {
	var res messageResponse
	err := c.do(ctx, coreagent.EndpointBlackout, http.MethodPost, "/whatif/blackout", o, &res)
	return res.Message, err
}

func (c *HTTPClient) do(ctx context.Context, endpoint, method, path string, body, out any) error {
	if d := c.timeouts[endpoint]; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", endpoint, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return &coreagent.TransportError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &coreagent.TransportError{Endpoint: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &coreagent.TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: bodyMessage(data)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &coreagent.TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// bodyMessage extracts the message or error field of a JSON error body.
func bodyMessage(data []byte) string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  any    `json:"detail"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return ""
	}
	switch {
	case m.Message != "":
		return m.Message
	case m.Error != "":
		return m.Error
	case m.Detail != nil:
		if s, ok := m.Detail.(string); ok {
			return s
		}
	}
	return ""
}
