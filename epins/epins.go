package epins

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// errMalformed marks a response that arrived but could not be decoded. It is
// classified as uncertain without the transport flag: the provider may still
// have delivered, so finality is left to the recheck or the webhook.
var errMalformed = errors.New("malformed aggregator response")

// Operating modes. Sandbox points the client at the aggregator's simulation
// environment; orchestrators additionally skip wallet deductions in sandbox.
const (
	ModeLive    = "live"
	ModeSandbox = "sandbox"
)

type Config struct {
	BaseURL    string
	CatalogURL string
	APIKey     string
	Timeout    time.Duration
	Mode       string
}

// ConfigFromEnv resolves the aggregator configuration once at startup. Mode is
// never re-read per request.
func ConfigFromEnv() Config {
	mode := strings.ToLower(os.Getenv("EPINS_MODE"))
	if mode != ModeSandbox {
		mode = ModeLive
	}

	var baseURL, apiKey string
	if mode == ModeSandbox {
		baseURL = envOr("EPINS_BASE_URL_SANDBOX", "https://api.epins.com.ng/sandbox")
		apiKey = os.Getenv("EPINS_API_KEY_SANDBOX")
	} else {
		baseURL = envOr("EPINS_BASE_URL", "https://api.epins.com.ng/v3/autho")
		apiKey = os.Getenv("EPINS_API_KEY")
	}

	timeout := 20000
	if ms, err := strconv.Atoi(os.Getenv("EPINS_TIMEOUT_MS")); err == nil && ms > 0 {
		timeout = ms
	}

	return Config{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		CatalogURL: envOr("EPINS_CATALOG_URL", "https://api.epins.com.ng/v2/autho/variations/"),
		APIKey:     apiKey,
		Timeout:    time.Duration(timeout) * time.Millisecond,
		Mode:       mode,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Client is a single-shot aggregator client: one attempt call, one status
// recheck when the orchestrator asks for it, no retries of its own.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Mode() string { return c.cfg.Mode }

func (c *Client) post(ctx context.Context, path string, payload interface{}) (map[string]interface{}, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) get(ctx context.Context, url string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (map[string]interface{}, error) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return raw, nil
}
