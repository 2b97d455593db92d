package opencnpj

import (
	"cnpjapi/cmd/internal/utils"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.opencnpj.org"

	LookupTimeout = 10 * time.Second
	PingTimeout   = 5 * time.Second

	maxBodyBytes = 5 << 20
)

var (
	ErrRateLimited         = errors.New("opencnpj: rate limited")
	ErrUpstreamUnavailable = errors.New("opencnpj: service unavailable")
	ErrUpstream            = errors.New("opencnpj: request failed")
)

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRateLimit throttles outgoing lookups to rps requests per second.
// A non positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "cnpjapi/1.0",
		httpClient: &http.Client{Timeout: LookupTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Lookup fetches a company by CNPJ, masked or not. A provider 404 yields
// (nil, nil). A single attempt is made, callers own any retry policy.
func (c *Client) Lookup(ctx context.Context, cnpj string) (*Company, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: local limiter: %v", ErrRateLimited, err)
		}
	}

	endpoint := c.baseURL + "/" + url.PathEscape(utils.DigitsOnly(cnpj))
	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status code %d", ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: status code %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	var company Company
	if err = json.Unmarshal(body, &company); err != nil {
		return nil, fmt.Errorf("%w: decoding payload: %v", ErrUpstream, err)
	}

	company.NormalizedCNPJ = utils.PadCNPJ(cnpj)
	return &company, nil
}

// Ping checks whether the provider answers on its base URL within PingTimeout.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()

	resp, err := c.get(ctx, c.baseURL)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status code %d", ErrUpstreamUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	return c.httpClient.Do(req)
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: timeout: %v", ErrUpstreamUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}
