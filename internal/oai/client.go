package oai

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"servd/pkg/types"
)

// TLSOptions carries client-side TLS material passed through from the
// caller. The fields are opaque to the supervisor; they only shape the
// HTTP client used for readiness checks.
type TLSOptions struct {
	Insecure       bool
	ClientCertFile string
	ClientKeyFile  string
	// ClientKeyPasswd is accepted for interface parity but encrypted client
	// keys are rejected: decrypting legacy PEM encryption is not supported.
	ClientKeyPasswd string
}

// Client is a minimal OpenAI-compatible API client. The supervisor only
// needs the model-listing endpoint, which doubles as the readiness check.
type Client struct {
	apiBase string
	hc      *http.Client
}

// New builds a Client for the API at apiBase (e.g. "http://127.0.0.1:8000/v1").
// Certificate problems are surfaced here, before any worker is launched.
func New(apiBase string, opts TLSOptions) (*Client, error) {
	tc := &tls.Config{InsecureSkipVerify: opts.Insecure} // #nosec G402 -- caller opt-in
	if opts.ClientCertFile != "" || opts.ClientKeyFile != "" {
		if opts.ClientKeyPasswd != "" {
			return nil, errors.New("encrypted TLS client keys are not supported")
		}
		cert, err := tls.LoadX509KeyPair(opts.ClientCertFile, opts.ClientKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load TLS client key pair: %w", err)
		}
		tc.Certificates = []tls.Certificate{cert}
	}
	hc := &http.Client{
		Transport: &http.Transport{TLSClientConfig: tc},
		Timeout:   10 * time.Second,
	}
	return &Client{apiBase: strings.TrimRight(apiBase, "/"), hc: hc}, nil
}

// APIBase returns the base URL this client talks to.
func (c *Client) APIBase() string { return c.apiBase }

type modelsResponse struct {
	Object string        `json:"object"`
	Data   []types.Model `json:"data"`
}

// ListModels calls GET {apiBase}/models. Transport-level failures come back
// as a ConnectionError so callers can tell "nothing is listening yet" apart
// from a server that answered badly.
func (c *Client) ListModels(ctx context.Context) ([]types.Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/models", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ConnectionError{APIBase: c.apiBase, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{APIBase: c.apiBase, StatusCode: resp.StatusCode, Body: string(b)}
	}
	var mr modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode models response: %w", err)
	}
	return mr.Data, nil
}
