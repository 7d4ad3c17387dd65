// Package catalogapi is the HTTP client for the remote catalog REST API
// (products, categories, login, user registration). It owns no state
// beyond connection pooling and the circuit breaker.
package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const maxResponseBytes = 10 << 20

type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Breaker trips once at least BreakerMinRequests were seen in the
	// interval and BreakerFailureRatio of them failed.
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration
}

func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:             baseURL,
		Timeout:             5 * time.Second,
		MaxRetries:          2,
		RetryWaitMin:        200 * time.Millisecond,
		RetryWaitMax:        2 * time.Second,
		BreakerMinRequests:  5,
		BreakerFailureRatio: 0.6,
		BreakerOpenTimeout:  15 * time.Second,
	}
}

type Client struct {
	baseURL string
	http    *http.Client
	cfg     Config
	breaker *gobreaker.CircuitBreaker[*http.Response]
	state   prometheus.Gauge
	log     *zap.Logger
}

// New builds a client. reg may be nil; when set, the breaker state is
// exported as catalog_breaker_state.
func New(cfg Config, log *zap.Logger, reg prometheus.Registerer) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if u, err := url.Parse(cfg.BaseURL); err == nil && u.Scheme != "" && u.Host != "" {
		cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	var stateGauge prometheus.Gauge
	if reg != nil {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_breaker_state",
			Help: "Remote catalog circuit breaker state (0=closed, 1=half-open, 2=open)",
		})
		reg.MustRegister(g)
		stateGauge = g
	}

	settings := gobreaker.Settings{
		Name:    "catalog",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < cfg.BreakerMinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			// the caller cancelling is not the upstream's fault
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if stateGauge != nil {
				stateGauge.Set(float64(to))
			}
		},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
		cfg:     cfg,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
		state:   stateGauge,
		log:     log,
	}
}

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) ([]Product, error) {
	params := url.Values{}
	if t := strings.TrimSpace(q.Title); t != "" {
		params.Set("title", t)
	}
	if q.CategoryID > 0 {
		params.Set("categoryId", strconv.Itoa(q.CategoryID))
	}

	var out []Product
	if err := c.getJSON(ctx, "/products", params, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Product{}
	}
	return out, nil
}

// GetProduct maps both 404 and 400 to ErrNotFound: the public API answers
// unknown ids with 400.
func (c *Client) GetProduct(ctx context.Context, id int) (Product, error) {
	if id <= 0 {
		return Product{}, ErrNotFound
	}

	var p Product
	err := c.getJSON(ctx, "/products/"+strconv.Itoa(id), nil, &p)
	var ue *UpstreamError
	if errors.As(err, &ue) && (ue.Status == http.StatusNotFound || ue.Status == http.StatusBadRequest) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.getJSON(ctx, "/categories", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Category{}
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (Tokens, error) {
	var t Tokens
	err := c.postJSON(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &t)
	if err != nil {
		return Tokens{}, err
	}
	if t.AccessToken == "" {
		return Tokens{}, fmt.Errorf("%w: empty access_token", ErrBadStatus)
	}
	return t, nil
}

func (c *Client) Register(ctx context.Context, u NewUser) (User, error) {
	var out User
	if err := c.postJSON(ctx, "/users/", u, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	resp, err := c.do(ctx, true, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	// POSTs are not idempotent, so they get a single attempt
	resp, err := c.do(ctx, false, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

// do runs the request inside the breaker, with the retry loop when retry is
// set. 4xx replies are returned as responses and do not count against the
// breaker.
func (c *Client) do(ctx context.Context, retry bool, newReq func() (*http.Request, error)) (*http.Response, error) {
	retries := 0
	if retry {
		retries = c.cfg.MaxRetries
	}
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.doWithRetry(ctx, retries, newReq)
	})
	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: circuit open", ErrUnavailable)
	default:
		return nil, err
	}
}

func (c *Client) doWithRetry(ctx context.Context, retries int, newReq func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := newReq()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			c.log.Debug("catalog request failed",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}

		if resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
			continue
		}
		return resp, nil
	}

	return nil, lastErr
}

func (c *Client) backoff(attempt int) time.Duration {
	wait := c.cfg.RetryWaitMin * time.Duration(1<<uint(attempt-1))
	if c.cfg.RetryWaitMax > 0 && wait > c.cfg.RetryWaitMax {
		wait = c.cfg.RetryWaitMax
	}
	return wait
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseUpstreamError(resp)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode body: %v", ErrBadStatus, err)
	}
	return nil
}
