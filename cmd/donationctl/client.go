package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

// apiError 管理APIのエラーレスポンス
type apiError struct {
	Status  int    `json:"-"`
	Err     string `json:"error"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Err, e.Message)
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

// restClient 管理REST APIのクライアント
type restClient struct {
	baseURL string
	token   string
	apiKey  string
	timeout time.Duration
	client  *fasthttp.Client
}

func newRESTClient(opts *options) (*restClient, error) {
	timeout, err := time.ParseDuration(opts.timeout)
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid timeout %q", opts.timeout)
	}
	if _, err := url.ParseRequestURI(opts.server); err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", opts.server, err)
	}

	return &restClient{
		baseURL: strings.TrimRight(opts.server, "/"),
		token:   opts.token,
		apiKey:  opts.apiKey,
		timeout: timeout,
		client:  &fasthttp.Client{Name: "donationctl"},
	}, nil
}

// get 認証付きでGETし、JSONをoutへ読み込む
func (c *restClient) get(path string, query url.Values, out interface{}) error {
	if c.token == "" {
		return errors.New("an operator token is required (--token or DONATION_TOKEN)")
	}

	uri := c.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, out)
}

// post APIキー付きでJSONをPOSTし、JSONをoutへ読み込む
func (c *restClient) post(path string, body, out interface{}) error {
	if c.apiKey == "" {
		return errors.New("an admin API key is required (--api-key or ADMIN_API_KEY)")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.SetBody(payload)

	return c.do(req, out)
}

func (c *restClient) do(req *fasthttp.Request, out interface{}) error {
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if status := resp.StatusCode(); status >= 300 {
		apiErr := &apiError{Status: status}
		_ = json.Unmarshal(resp.Body(), apiErr)
		return apiErr
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
