// Package controller is a client for the SDN controller's REST surface:
// the topology inventories it reports and the host registration and pair
// endpoints it accepts.
//
// Datapath identifiers are normalised to their canonical decimal form
// regardless of how a given endpoint encodes them.
package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"sdnview/internal/domain"
)

// DefaultTimeout bounds every request when no timeout is configured
const DefaultTimeout = 2 * time.Second

// maxBodySize caps how much of a response body is read
const maxBodySize = 8 << 20

// ErrUnexpectedStatus is returned when the controller answers with a status
// that is neither success nor an accepted idempotent outcome
var ErrUnexpectedStatus = errors.New("unexpected controller status")

// REST paths
const (
	pathSwitches     = "/v1.0/topology/switches"
	pathLinks        = "/v1.0/topology/links"
	pathHosts        = "/v1.0/topology/hosts"
	pathRouterConfig = "/cfg/routers"
	pathHostMap      = "/hostmap"
	pathPairs        = "/pairs"
	pathPair         = "/pair"
	pathRegisterHost = "/register_host"
)

// Client talks to one controller instance
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// New creates a client for the controller at baseURL. Each request is bounded
// by timeout; zero selects DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTP(baseURL, timeout, nil)
}

// NewWithHTTP creates a client with a custom HTTP client.
// Useful for testing with mock servers
func NewWithHTTP(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
	}
}

// BaseURL returns the controller address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Switches returns the switch inventory
func (c *Client) Switches(ctx context.Context) ([]domain.Datapath, error) {
	body, err := c.get(ctx, pathSwitches)
	if err != nil {
		return nil, err
	}
	return parseSwitches(body)
}

// RouterConfig returns the administratively configured router datapaths
func (c *Client) RouterConfig(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, pathRouterConfig)
	if err != nil {
		return nil, err
	}
	return parseRouterConfig(body)
}

// Links returns the discovered inter-datapath links
func (c *Client) Links(ctx context.Context) ([]domain.PhysicalLink, error) {
	body, err := c.get(ctx, pathLinks)
	if err != nil {
		return nil, err
	}
	return parseLinks(body)
}

// Hosts returns the discovery-derived host inventory
func (c *Client) Hosts(ctx context.Context) ([]domain.HostRecord, error) {
	body, err := c.get(ctx, pathHosts)
	if err != nil {
		return nil, err
	}
	return parseHosts(body)
}

// HostMap returns the controller's static host registrations
func (c *Client) HostMap(ctx context.Context) ([]domain.Registration, error) {
	body, err := c.get(ctx, pathHostMap)
	if err != nil {
		return nil, err
	}
	return parseHostMap(body)
}

// Pairs returns the currently permitted directional pairs
func (c *Client) Pairs(ctx context.Context) ([]domain.Pair, error) {
	body, err := c.get(ctx, pathPairs)
	if err != nil {
		return nil, err
	}
	return parsePairs(body)
}

type registerRequest struct {
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Hostname string `json:"hostname"`
	DPID     string `json:"dpid"`
}

// RegisterHost establishes or updates the attachment of a host
func (c *Client) RegisterHost(ctx context.Context, reg domain.Registration) error {
	return c.write(ctx, http.MethodPost, pathRegisterHost, registerRequest{
		IP:       reg.IP,
		Port:     reg.Port,
		Hostname: reg.Hostname,
		DPID:     reg.DatapathID,
	}, false)
}

// AddPair permits traffic from pair.Src to pair.Dst
func (c *Client) AddPair(ctx context.Context, pair domain.Pair) error {
	return c.write(ctx, http.MethodPost, pathPair, pair, false)
}

// RemovePair withdraws one directional permission. Removing an absent pair
// succeeds.
func (c *Client) RemovePair(ctx context.Context, pair domain.Pair) error {
	return c.write(ctx, http.MethodDelete, pathPair, pair, true)
}

func (c *Client) get(ctx context.Context, path string) (gjson.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("GET %s: read body: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("GET %s: %w: %d: %s", path, ErrUnexpectedStatus, resp.StatusCode, snippet(data))
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("GET %s: malformed JSON response", path)
	}

	return gjson.ParseBytes(data), nil
}

func (c *Client) write(ctx context.Context, method, path string, payload any, notFoundOK bool) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", method, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusConflict:
		slog.Debug("controller reported existing state", "method", method, "path", path)
	case resp.StatusCode == http.StatusNotFound && notFoundOK:
		slog.Debug("controller reported absent state", "method", method, "path", path)
	default:
		return fmt.Errorf("%s %s: %w: %d: %s", method, path, ErrUnexpectedStatus, resp.StatusCode, snippet(body))
	}
	return nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
